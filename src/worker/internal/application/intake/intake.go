package intake

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"
	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/probe"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

type Limits struct {
	MaxUserJobs        int
	MaxFileSizeBytes   int64
	MinDurationSeconds float64
	MaxDurationSeconds float64
}

func NewService(jobStore jobentity.Store, prober probe.Prober, pathGenerator storagepath.Generator, limits Limits) Service {
	return Service{
		jobStore:      jobStore,
		prober:        prober,
		pathGenerator: pathGenerator,
		limits:        limits,
	}
}

// Service accepts a user's upload, stores the original durably and creates
// the job row. The row only reaches the await stage once the file is on
// disk, so a crash in between leaves nothing for the sweeper to pick up.
type Service struct {
	jobStore      jobentity.Store
	prober        probe.Prober
	pathGenerator storagepath.Generator
	limits        Limits
}

func (s Service) SubmitAudio(
	ctx context.Context,
	userID string,
	title string,
	stem jobentity.Stem,
	level jobentity.Level,
	audio io.Reader,
) (jobentity.AudioJob, error) {
	errctx := cerr.Field("user_id", userID).Field("title", title)

	if !jobentity.ValidStem(stem) {
		return jobentity.AudioJob{}, errctx.Field("stem", stem).Error("Unrecognized stem")
	}

	if !jobentity.ValidLevel(level) {
		return jobentity.AudioJob{}, errctx.Field("level", level).Error("Unrecognized level")
	}

	activeCount, err := s.jobStore.CountActive(ctx, userID)
	if err != nil {
		return jobentity.AudioJob{}, errctx.Wrap(err).Error("Failed to count the user's active jobs")
	}

	if activeCount >= s.limits.MaxUserJobs {
		ceilingErr := errctx.Field("active_count", activeCount).
			Error("User is at the concurrent job ceiling")
		return jobentity.AudioJob{}, mark.Wrap(ceilingErr, fault.TooManyJobsMark, "Refusing the submission")
	}

	job := jobentity.NewAudioJob(userID, title, stem, level)

	originalPath := s.pathGenerator.OriginalPath(job.ID)
	if err := s.storeOriginal(originalPath, audio); err != nil {
		return jobentity.AudioJob{}, errctx.Field("job_id", job.ID).
			Wrap(err).Error("Failed to store the original file")
	}

	// Validate before any row exists so a rejected upload leaves no trace.
	duration, err := s.prober.Duration(ctx, originalPath)
	if err != nil {
		s.discardOriginal(originalPath)
		return jobentity.AudioJob{}, errctx.Field("job_id", job.ID).
			Wrap(err).Error("Failed to probe the upload")
	}

	if duration < s.limits.MinDurationSeconds {
		s.discardOriginal(originalPath)
		return jobentity.AudioJob{}, errctx.Field("duration", duration).
			Error("Upload is shorter than the allowed minimum")
	}

	if duration > s.limits.MaxDurationSeconds {
		s.discardOriginal(originalPath)
		exceededErr := errctx.Field("duration", duration).
			Error("Upload is longer than the allowed maximum")
		return jobentity.AudioJob{}, mark.Wrap(exceededErr, fault.DurationExceededMark, "Refusing the submission")
	}

	if err := s.jobStore.CreateJob(ctx, job); err != nil {
		s.discardOriginal(originalPath)
		return jobentity.AudioJob{}, errctx.Field("job_id", job.ID).
			Wrap(err).Error("Failed to create the job row")
	}

	if err := s.jobStore.SetStage(ctx, job.ID, jobentity.StageAwait); err != nil {
		return jobentity.AudioJob{}, errctx.Field("job_id", job.ID).
			Wrap(err).Error("Failed to move the job to await")
	}

	job.Stage = jobentity.StageAwait

	log.WithFields(log.Fields{
		"job_id":   job.ID,
		"user_id":  userID,
		"duration": duration,
	}).Info("Accepted audio submission")

	return job, nil
}

func (s Service) storeOriginal(originalPath string, audio io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(originalPath), os.ModePerm); err != nil {
		return cerr.Wrap(err).Error("Failed to create the original dir")
	}

	outFile, err := os.Create(originalPath)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to create the original file")
	}
	defer outFile.Close()

	written, err := io.Copy(outFile, io.LimitReader(audio, s.limits.MaxFileSizeBytes+1))
	if err != nil {
		s.discardOriginal(originalPath)
		return cerr.Wrap(err).Error("Failed to write the original file")
	}

	if written > s.limits.MaxFileSizeBytes {
		s.discardOriginal(originalPath)
		return cerr.Field("max_file_size", s.limits.MaxFileSizeBytes).
			Error("Upload is larger than the allowed maximum")
	}

	return nil
}

func (s Service) discardOriginal(originalPath string) {
	if err := os.Remove(originalPath); err != nil && !os.IsNotExist(err) {
		log.WithField("path", originalPath).
			WithError(err).
			Error("Failed to discard a rejected upload")
	}
}
