package jobstorage

import (
	"context"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
)

const JobsTable = "AudioJobs"

var _ jobentity.Store = DB{}

func NewDB(dynamoDB *dynamo.DB) DB {
	return DB{
		dynamoDB: dynamoDB,
	}
}

type DB struct {
	dynamoDB *dynamo.DB
}

func (d DB) table() dynamo.Table {
	return d.dynamoDB.Table(JobsTable)
}

func (d DB) CreateJob(ctx context.Context, job jobentity.AudioJob) error {
	err := d.table().
		Put(job).
		If("attribute_not_exists(id)").
		RunWithContext(ctx)

	if err != nil {
		return errors.Wrap(err, "Failed to insert the job row")
	}

	return nil
}

func (d DB) GetJob(ctx context.Context, jobID string) (jobentity.AudioJob, error) {
	job := jobentity.AudioJob{}
	err := d.table().
		Get("id", jobID).
		OneWithContext(ctx, &job)

	if err != nil {
		return jobentity.AudioJob{}, errors.Wrap(err, "Failed to get the job row")
	}

	return job, nil
}

func (d DB) SelectAwaiting(ctx context.Context) ([]jobentity.AudioJob, error) {
	jobs := []jobentity.AudioJob{}
	err := d.table().
		Scan().
		Filter("'stage' = ?", jobentity.StageAwait).
		AllWithContext(ctx, &jobs)

	if err != nil {
		return nil, errors.Wrap(err, "Failed to scan for awaiting jobs")
	}

	return jobs, nil
}

func (d DB) SelectTerminal(ctx context.Context) ([]string, error) {
	jobs := []jobentity.AudioJob{}
	err := d.table().
		Scan().
		Filter("'stage' = ? OR 'stage' = ?", jobentity.StageComplete, jobentity.StageError).
		AllWithContext(ctx, &jobs)

	if err != nil {
		return nil, errors.Wrap(err, "Failed to scan for terminal jobs")
	}

	jobIDs := make([]string, 0, len(jobs))
	for _, job := range jobs {
		jobIDs = append(jobIDs, job.ID)
	}

	return jobIDs, nil
}

func (d DB) SetStage(ctx context.Context, jobID string, stage jobentity.Stage) error {
	err := d.table().
		Update("id", jobID).
		Set("stage", stage).
		RunWithContext(ctx)

	if err != nil {
		return errors.Wrap(err, "Failed to update the job stage")
	}

	return nil
}

func (d DB) SetStageFrom(ctx context.Context, jobID string, to jobentity.Stage, from jobentity.Stage) error {
	err := d.table().
		Update("id", jobID).
		Set("stage", to).
		If("'stage' = ?", from).
		RunWithContext(ctx)

	if err != nil {
		if isConditionalCheckFailed(err) {
			return mark.Wrap(err, fault.StageConflictMark, "Job was not in the expected stage")
		}

		return errors.Wrap(err, "Failed to conditionally update the job stage")
	}

	return nil
}

func (d DB) CountActive(ctx context.Context, userID string) (int, error) {
	jobs := []jobentity.AudioJob{}
	err := d.table().
		Scan().
		Filter("'user_id' = ? AND 'stage' IN (?, ?, ?)",
			userID,
			jobentity.StageInit,
			jobentity.StageAwait,
			jobentity.StageProcessing).
		AllWithContext(ctx, &jobs)

	if err != nil {
		return 0, errors.Wrap(err, "Failed to scan for the user's active jobs")
	}

	return len(jobs), nil
}

func isConditionalCheckFailed(err error) bool {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		return awsErr.Code() == "ConditionalCheckFailedException"
	}

	return false
}
