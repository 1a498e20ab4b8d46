package split

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/apex/log"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/probe"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/executor"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const (
	// chunkSeconds is the nominal unit of external processing.
	chunkSeconds = 60
	// minTailSeconds: a trailing chunk shorter than this is dropped. It is
	// not worth separating and it confuses the crossfade reassembly.
	minTailSeconds = 2.0
)

// Chunk is one bounded-duration slice of the original audio, owned by a
// single pipeline run.
type Chunk struct {
	Index           int
	SourcePath      string
	DurationSeconds float64
}

//counterfeiter:generate . FileSplitter
type FileSplitter interface {
	Split(ctx context.Context, jobID string, sourcePath string) ([]Chunk, error)
}

var _ FileSplitter = FFmpegSplitter{}

func NewFFmpegSplitter(
	ffmpegBinPath string,
	commandExecutor executor.Executor,
	prober probe.Prober,
	pathGenerator storagepath.Generator,
	maxDurationSeconds float64,
) FFmpegSplitter {
	return FFmpegSplitter{
		ffmpegBinPath:      ffmpegBinPath,
		commandExecutor:    commandExecutor,
		prober:             prober,
		pathGenerator:      pathGenerator,
		maxDurationSeconds: maxDurationSeconds,
	}
}

type FFmpegSplitter struct {
	ffmpegBinPath      string
	commandExecutor    executor.Executor
	prober             probe.Prober
	pathGenerator      storagepath.Generator
	maxDurationSeconds float64
}

func (f FFmpegSplitter) Split(ctx context.Context, jobID string, sourcePath string) ([]Chunk, error) {
	errctx := cerr.Field("job_id", jobID).Field("source_path", sourcePath)

	duration, err := f.prober.Duration(ctx, sourcePath)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to probe the source file")
	}

	logger := log.WithFields(log.Fields{
		"job_id":   jobID,
		"duration": duration,
	})

	if duration > f.maxDurationSeconds {
		exceededErr := errctx.Field("duration", duration).
			Field("max_duration", f.maxDurationSeconds).
			Error("Source duration is over the allowed maximum")
		return nil, mark.Wrap(exceededErr, fault.DurationExceededMark, "Refusing to split the file")
	}

	parts := partCount(duration)
	logger.WithField("parts", parts).Info("Splitting file")

	if err := os.MkdirAll(f.pathGenerator.PartsDir(), os.ModePerm); err != nil {
		return nil, errctx.Wrap(err).Error("Failed to create the parts dir")
	}

	for part := 0; part < parts; part++ {
		if ctx.Err() != nil {
			return nil, errctx.Wrap(ctx.Err()).Error("Context cancelled mid-split")
		}

		if err := f.cutPart(jobID, sourcePath, part); err != nil {
			return nil, errctx.Field("part", part).Wrap(err).Error("Failed to cut a part")
		}

		logger.WithField("part", part).Debug("Part done")
	}

	lastPartPath := f.pathGenerator.PartPath(jobID, parts-1)
	lastDuration, err := f.prober.Duration(ctx, lastPartPath)
	if err != nil {
		probeErr := errctx.Field("last_part_path", lastPartPath).
			Wrap(err).Error("Failed to re-probe the last part")
		return nil, mark.Wrap(probeErr, fault.SplitMark, "Could not verify the tail chunk")
	}

	if lastDuration < minTailSeconds {
		logger.WithField("tail_duration", lastDuration).Info("Dropping near-empty tail chunk")
		if err := os.Remove(lastPartPath); err != nil {
			return nil, errctx.Field("last_part_path", lastPartPath).
				Wrap(err).Error("Failed to remove the dropped tail chunk")
		}

		parts--
		lastDuration = chunkSeconds
	}

	chunks := make([]Chunk, 0, parts)
	for part := 0; part < parts; part++ {
		chunkDuration := float64(chunkSeconds)
		if part == parts-1 {
			chunkDuration = lastDuration
		}

		chunks = append(chunks, Chunk{
			Index:           part,
			SourcePath:      f.pathGenerator.PartPath(jobID, part),
			DurationSeconds: chunkDuration,
		})
	}

	return chunks, nil
}

func (f FFmpegSplitter) cutPart(jobID string, sourcePath string, part int) error {
	// Each part starts one second earlier per index to correct for the
	// rounding drift accumulated by the trim filter.
	start := part*chunkSeconds - part
	outPath := f.pathGenerator.PartPath(jobID, part)

	args := []string{
		"-y",
		"-loglevel", "error",
		"-i", sourcePath,
		"-af", fmt.Sprintf("atrim=start=%d:duration=%d", start, chunkSeconds),
		outPath,
	}

	cmd := f.commandExecutor.Command(f.ffmpegBinPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		splitErr := cerr.Field("ffmpeg_args", args).
			Field("ffmpeg_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running ffmpeg: %s", string(output)))
		return mark.Wrap(splitErr, fault.SplitMark, "ffmpeg exited abnormally")
	}

	return nil
}

// partCount computes the number of chunks for a duration. The arithmetic
// compensates for the one second overlap trimmed at each cut: naive
// ceil(duration/60) would drift against the shifted chunk starts.
func partCount(duration float64) int {
	parts := (duration+math.Floor(duration/chunkSeconds))/chunkSeconds + 1
	if parts == math.Trunc(parts) {
		parts--
	}

	return int(parts)
}
