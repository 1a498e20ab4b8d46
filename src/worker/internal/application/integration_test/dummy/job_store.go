package dummy

import (
	"context"
	"sync"

	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
)

var _ jobentity.Store = &JobStore{}

func NewDummyJobStore() *JobStore {
	return &JobStore{
		Unavailable:  false,
		State:        make(map[string]jobentity.AudioJob),
		StageHistory: make(map[string][]jobentity.Stage),
	}
}

// JobStore keeps every stage a job ever moved through so tests can assert
// lifecycle monotonicity, not just the final stage.
type JobStore struct {
	Unavailable  bool
	State        map[string]jobentity.AudioJob
	StageHistory map[string][]jobentity.Stage
	mutex        sync.RWMutex
}

func (j *JobStore) CreateJob(ctx context.Context, job jobentity.AudioJob) error {
	if j.Unavailable {
		return NetworkFailure
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	if _, ok := j.State[job.ID]; ok {
		return cerr.Field("job_id", job.ID).Error("Job already exists")
	}

	j.State[job.ID] = job
	j.StageHistory[job.ID] = append(j.StageHistory[job.ID], job.Stage)
	return nil
}

func (j *JobStore) GetJob(ctx context.Context, jobID string) (jobentity.AudioJob, error) {
	if j.Unavailable {
		return jobentity.AudioJob{}, NetworkFailure
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	job, ok := j.State[jobID]
	if !ok {
		return jobentity.AudioJob{}, NotFound
	}

	return job, nil
}

func (j *JobStore) SelectAwaiting(ctx context.Context) ([]jobentity.AudioJob, error) {
	if j.Unavailable {
		return nil, NetworkFailure
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	jobs := []jobentity.AudioJob{}
	for _, job := range j.State {
		if job.Stage == jobentity.StageAwait {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

func (j *JobStore) SelectTerminal(ctx context.Context) ([]string, error) {
	if j.Unavailable {
		return nil, NetworkFailure
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	jobIDs := []string{}
	for _, job := range j.State {
		if job.Stage.Terminal() {
			jobIDs = append(jobIDs, job.ID)
		}
	}

	return jobIDs, nil
}

func (j *JobStore) SetStage(ctx context.Context, jobID string, stage jobentity.Stage) error {
	if j.Unavailable {
		return NetworkFailure
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	job, ok := j.State[jobID]
	if !ok {
		return NotFound
	}

	job.Stage = stage
	j.State[jobID] = job
	j.StageHistory[jobID] = append(j.StageHistory[jobID], stage)
	return nil
}

func (j *JobStore) SetStageFrom(ctx context.Context, jobID string, to jobentity.Stage, from jobentity.Stage) error {
	if j.Unavailable {
		return NetworkFailure
	}

	j.mutex.Lock()
	defer j.mutex.Unlock()

	job, ok := j.State[jobID]
	if !ok {
		return NotFound
	}

	if job.Stage != from {
		conflictErr := cerr.Field("job_id", jobID).
			Field("expected_stage", from).
			Field("actual_stage", job.Stage).
			Error("Job is not at the expected stage")
		return mark.Wrap(conflictErr, fault.StageConflictMark, "Refusing the stage transition")
	}

	job.Stage = to
	j.State[jobID] = job
	j.StageHistory[jobID] = append(j.StageHistory[jobID], to)
	return nil
}

func (j *JobStore) CountActive(ctx context.Context, userID string) (int, error) {
	if j.Unavailable {
		return 0, NetworkFailure
	}

	j.mutex.RLock()
	defer j.mutex.RUnlock()

	count := 0
	for _, job := range j.State {
		if job.UserID == userID && job.Stage.Active() {
			count++
		}
	}

	return count, nil
}
