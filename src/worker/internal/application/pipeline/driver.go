package pipeline

import (
	"context"
	"time"

	"github.com/apex/log"
	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/split"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/separation"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

// ChunkResult is the structured outcome of driving one chunk. Failures are
// carried as a value, never raised across the goroutine boundary, so the
// coordinator can join every sibling before deciding the job's fate.
type ChunkResult struct {
	Index      int
	StemPath   string
	NoStemPath string
	Err        error
}

func (c ChunkResult) Failed() bool {
	return c.Err != nil
}

func NewChunkDriver(
	session separation.Session,
	pathGenerator storagepath.Generator,
	pollInterval time.Duration,
	chunkTimeout time.Duration,
) ChunkDriver {
	return ChunkDriver{
		session:       session,
		pathGenerator: pathGenerator,
		pollInterval:  pollInterval,
		chunkTimeout:  chunkTimeout,
	}
}

// ChunkDriver takes one chunk through submit, poll and download against the
// external separation service. It is the unit of concurrency: the coordinator
// runs one Drive call per chunk.
type ChunkDriver struct {
	session       separation.Session
	pathGenerator storagepath.Generator
	pollInterval  time.Duration
	chunkTimeout  time.Duration
}

func (d ChunkDriver) Drive(ctx context.Context, jobID string, chunk split.Chunk, stem jobentity.Stem, level jobentity.Level) ChunkResult {
	if d.chunkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.chunkTimeout)
		defer cancel()
	}

	logger := log.WithFields(log.Fields{
		"job_id": jobID,
		"chunk":  chunk.Index,
	})

	fail := func(err error) ChunkResult {
		return ChunkResult{Index: chunk.Index, Err: err}
	}

	errctx := cerr.Field("job_id", jobID).Field("chunk", chunk.Index)

	fileID, err := d.session.Upload(ctx, chunk.SourcePath)
	if err != nil {
		return fail(errctx.Wrap(err).Error("Failed to submit the chunk"))
	}

	logger.Debug("Chunk uploaded")

	request, err := separation.RequestFor(stem, level)
	if err != nil {
		return fail(errctx.Wrap(err).Error("Failed to build the processing request"))
	}

	if err := d.session.StartProcessing(ctx, fileID, request); err != nil {
		return fail(errctx.Wrap(err).Error("Failed to start processing the chunk"))
	}

	logger.Debug("Chunk processing started")

	result, err := d.waitUntilReady(ctx, fileID)
	if err != nil {
		return fail(errctx.Wrap(err).Error("Chunk never became ready"))
	}

	logger.Debug("Chunk ready")

	stemPath := d.pathGenerator.ResultPartPath(storagepath.StemVariant, jobID, chunk.Index)
	if err := d.session.Download(ctx, result.StemURL, stemPath); err != nil {
		return fail(errctx.Wrap(err).Error("Failed to download the stem track"))
	}

	noStemPath := d.pathGenerator.ResultPartPath(storagepath.NoStemVariant, jobID, chunk.Index)
	if err := d.session.Download(ctx, result.NoStemURL, noStemPath); err != nil {
		return fail(errctx.Wrap(err).Error("Failed to download the residual track"))
	}

	logger.Debug("Chunk downloaded")

	return ChunkResult{
		Index:      chunk.Index,
		StemPath:   stemPath,
		NoStemPath: noStemPath,
	}
}

func (d ChunkDriver) waitUntilReady(ctx context.Context, fileID string) (separation.CheckResult, error) {
	for {
		result, err := d.session.Check(ctx, fileID)
		if err != nil {
			if ctx.Err() != nil {
				return separation.CheckResult{}, mark.Wrap(ctx.Err(), fault.TimeoutMark, "Gave up polling for the result")
			}

			return separation.CheckResult{}, err
		}

		if result.Ready() {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return separation.CheckResult{}, mark.Wrap(ctx.Err(), fault.TimeoutMark, "Gave up polling for the result")
		case <-time.After(d.pollInterval):
		}
	}
}
