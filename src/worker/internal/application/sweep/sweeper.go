package sweep

import (
	"context"
	"time"

	"github.com/apex/log"
	jitterbug "github.com/lthibault/jitterbug/v2"
	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/cleanup"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/notify"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Processor runs one job through the pipeline. Implemented by the pipeline
// coordinator.
//
//counterfeiter:generate . Processor
type Processor interface {
	ProcessJob(ctx context.Context, job jobentity.AudioJob) error
}

func NewSweeper(
	jobStore jobentity.Store,
	processor Processor,
	cleaner cleanup.ArtifactRemover,
	notifier notify.Notifier,
	interval time.Duration,
) Sweeper {
	return Sweeper{
		jobStore:  jobStore,
		processor: processor,
		cleaner:   cleaner,
		notifier:  notifier,
		interval:  interval,
	}
}

// Sweeper is the recurring driver of the whole system: each sweep processes
// every awaiting job and reclaims every terminal one. Both passes, and every
// job within them, are individually fault isolated so one corrupt file can
// never stall the pipeline for everyone else.
type Sweeper struct {
	jobStore  jobentity.Store
	processor Processor
	cleaner   cleanup.ArtifactRemover
	notifier  notify.Notifier
	interval  time.Duration
}

func (s Sweeper) Run(ctx context.Context) error {
	log.Info("Starting sweeper")

	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: 100 * time.Millisecond})
	defer ticker.Stop()

	for {
		s.Sweep(ctx)

		select {
		case <-ctx.Done():
			log.Info("Stopping sweeper")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep runs one processing pass and one cleanup pass. Neither pass can
// abort the other.
func (s Sweeper) Sweep(ctx context.Context) {
	s.runProtected(ctx, "process", s.processPass)
	s.runProtected(ctx, "cleanup", s.cleanupPass)
}

func (s Sweeper) processPass(ctx context.Context) error {
	jobs, err := s.jobStore.SelectAwaiting(ctx)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to select awaiting jobs")
	}

	log.WithField("count", len(jobs)).Debug("Jobs to process")

	for _, job := range jobs {
		s.processOne(ctx, job)
	}

	return nil
}

// processOne shields the pass from a single job's failure or panic.
func (s Sweeper) processOne(ctx context.Context, job jobentity.AudioJob) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := cerr.Field("job_id", job.ID).
				Field("panic", recovered).
				Error("Job processing panicked")
			cerr.Log(panicErr)
			s.notifier.NotifyError(job.ID, panicErr)
		}
	}()

	if err := s.processor.ProcessJob(ctx, job); err != nil {
		jobErr := cerr.Field("job_id", job.ID).Wrap(err).Error("Job processing failed")
		cerr.Log(jobErr)
		s.notifier.NotifyError(job.ID, jobErr)
	}
}

func (s Sweeper) cleanupPass(ctx context.Context) error {
	jobIDs, err := s.jobStore.SelectTerminal(ctx)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to select terminal jobs")
	}

	log.WithField("count", len(jobIDs)).Debug("Jobs to clear")

	for _, jobID := range jobIDs {
		if err := s.cleaner.RemoveArtifacts(jobID); err != nil {
			cleanErr := cerr.Field("job_id", jobID).Wrap(err).Error("Failed to clear job artifacts")
			cerr.Log(cleanErr)
			s.notifier.NotifyError(jobID, cleanErr)
			continue
		}

		if err := s.jobStore.SetStage(ctx, jobID, jobentity.StageCleared); err != nil {
			clearErr := cerr.Field("job_id", jobID).Wrap(err).Error("Failed to mark the job cleared")
			cerr.Log(clearErr)
			s.notifier.NotifyError(jobID, clearErr)
		}
	}

	return nil
}

func (s Sweeper) runProtected(ctx context.Context, passName string, pass func(ctx context.Context) error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := cerr.Field("pass", passName).
				Field("panic", recovered).
				Error("Sweep pass panicked")
			cerr.Log(panicErr)
			s.notifier.NotifyError("", panicErr)
		}
	}()

	if err := pass(ctx); err != nil {
		passErr := cerr.Field("pass", passName).Wrap(err).Error("Sweep pass failed")
		cerr.Log(passErr)
		s.notifier.NotifyError("", passErr)
	}
}
