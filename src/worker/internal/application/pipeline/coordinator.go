package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/merge"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/probe"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/split"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/delivery"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/separation"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

// SessionFactory builds a fresh separation session for one job run. Chunk
// drivers of the same run share the session; separate runs never do.
type SessionFactory func() separation.Session

func NewCoordinator(
	jobStore jobentity.Store,
	prober probe.Prober,
	splitter split.FileSplitter,
	merger merge.Merger,
	newSession SessionFactory,
	deliverer delivery.Deliverer,
	pathGenerator storagepath.Generator,
	pollInterval time.Duration,
	chunkTimeout time.Duration,
) Coordinator {
	return Coordinator{
		jobStore:      jobStore,
		prober:        prober,
		splitter:      splitter,
		merger:        merger,
		newSession:    newSession,
		deliverer:     deliverer,
		pathGenerator: pathGenerator,
		pollInterval:  pollInterval,
		chunkTimeout:  chunkTimeout,
	}
}

// Coordinator owns one job run end to end: claim, split, fan out the chunk
// drivers, fan the results back in, reassemble, deliver, and record the
// job's fate in the status store.
type Coordinator struct {
	jobStore      jobentity.Store
	prober        probe.Prober
	splitter      split.FileSplitter
	merger        merge.Merger
	newSession    SessionFactory
	deliverer     delivery.Deliverer
	pathGenerator storagepath.Generator
	pollInterval  time.Duration
	chunkTimeout  time.Duration
}

func (c Coordinator) ProcessJob(ctx context.Context, job jobentity.AudioJob) error {
	logger := log.WithField("job_id", job.ID)
	errctx := cerr.Field("job_id", job.ID)

	err := c.jobStore.SetStageFrom(ctx, job.ID, jobentity.StageProcessing, jobentity.StageAwait)
	if err != nil {
		if errors.Is(err, fault.StageConflictMark) {
			// Another sweep claimed it first.
			logger.Info("Job is no longer awaiting, skipping")
			return nil
		}

		return errctx.Wrap(err).Error("Failed to claim the job")
	}

	chunks, err := c.splitter.Split(ctx, job.ID, c.pathGenerator.OriginalPath(job.ID))
	if err != nil {
		return c.fail(ctx, job.ID, errctx.Wrap(err).Error("Failed to split the job"))
	}

	if len(chunks) == 0 {
		splitErr := mark.Message(fault.SplitMark, "Splitting produced no usable chunks")
		return c.fail(ctx, job.ID, errctx.Wrap(splitErr).Error("Failed to split the job"))
	}

	logger.WithField("chunks", len(chunks)).Info("Processing chunks")

	results := c.driveChunks(ctx, job, chunks)

	for _, result := range results {
		if result.Failed() {
			return c.fail(ctx, job.ID, errctx.Field("chunk", result.Index).
				Wrap(result.Err).Error("A chunk failed, failing the whole job"))
		}
	}

	for _, variant := range storagepath.Variants {
		if err := c.merger.Merge(ctx, job.ID, variant, len(chunks), job.Title); err != nil {
			return c.fail(ctx, job.ID, errctx.Field("variant", variant).
				Wrap(err).Error("Failed to reassemble the result"))
		}
	}

	duration, err := c.prober.Duration(ctx, c.pathGenerator.ResultPath(storagepath.StemVariant, job.ID))
	if err != nil {
		return c.fail(ctx, job.ID, errctx.Wrap(err).Error("Failed to probe the reassembled result"))
	}

	// Delivery is best effort once separation has succeeded. A failure here
	// is logged but never reverts the job.
	deliveryErr := c.deliverer.DeliverResult(ctx, job, delivery.Result{
		StemPath:        c.pathGenerator.ResultPath(storagepath.StemVariant, job.ID),
		NoStemPath:      c.pathGenerator.ResultPath(storagepath.NoStemVariant, job.ID),
		DurationSeconds: int(duration),
	})
	if deliveryErr != nil {
		cerr.Log(errctx.Wrap(deliveryErr).Error("Failed to deliver the result"))
	}

	if err := c.jobStore.SetStage(ctx, job.ID, jobentity.StageComplete); err != nil {
		return errctx.Wrap(err).Error("Failed to mark the job complete")
	}

	logger.Info("Job complete")
	return nil
}

// driveChunks runs one driver goroutine per chunk and joins them all. The
// result slice is ordered by chunk index regardless of completion order.
func (c Coordinator) driveChunks(ctx context.Context, job jobentity.AudioJob, chunks []split.Chunk) []ChunkResult {
	driver := NewChunkDriver(c.newSession(), c.pathGenerator, c.pollInterval, c.chunkTimeout)

	results := make([]ChunkResult, len(chunks))

	var waitGroup sync.WaitGroup
	for i, chunk := range chunks {
		waitGroup.Add(1)

		go func(i int, chunk split.Chunk) {
			defer waitGroup.Done()
			results[i] = driver.Drive(ctx, job.ID, chunk, job.Stem, job.Level)
		}(i, chunk)
	}

	waitGroup.Wait()

	return results
}

func (c Coordinator) fail(ctx context.Context, jobID string, jobErr error) error {
	if err := c.jobStore.SetStage(ctx, jobID, jobentity.StageError); err != nil {
		cerr.Log(cerr.Field("job_id", jobID).Wrap(err).Error("Failed to mark the job as errored"))
	}

	return jobErr
}
