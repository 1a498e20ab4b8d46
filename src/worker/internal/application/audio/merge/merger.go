package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/executor"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Merger
type Merger interface {
	Merge(ctx context.Context, jobID string, variant storagepath.Variant, parts int, title string) error
}

var _ Merger = FFmpegMerger{}

func NewFFmpegMerger(ffmpegBinPath string, commandExecutor executor.Executor, pathGenerator storagepath.Generator) FFmpegMerger {
	return FFmpegMerger{
		ffmpegBinPath:   ffmpegBinPath,
		commandExecutor: commandExecutor,
		pathGenerator:   pathGenerator,
	}
}

// FFmpegMerger stitches per-chunk result files back into one continuous
// track, blending a one second overlap at every boundary to hide the cuts
// the splitter made.
type FFmpegMerger struct {
	ffmpegBinPath   string
	commandExecutor executor.Executor
	pathGenerator   storagepath.Generator
}

func (f FFmpegMerger) Merge(ctx context.Context, jobID string, variant storagepath.Variant, parts int, title string) error {
	errctx := cerr.Fields(cerr.F{
		"job_id":  jobID,
		"variant": variant,
		"parts":   parts,
	})

	if parts <= 0 {
		mergeErr := errctx.Error("No parts to merge")
		return mark.Wrap(mergeErr, fault.MergeMark, "Nothing to reassemble")
	}

	if ctx.Err() != nil {
		return errctx.Wrap(ctx.Err()).Error("Context cancelled before merging could happen")
	}

	resultPath := f.pathGenerator.ResultPath(variant, jobID)
	if err := os.MkdirAll(filepath.Dir(resultPath), os.ModePerm); err != nil {
		return errctx.Wrap(err).Error("Failed to create the result dir")
	}

	if parts == 1 {
		// A single chunk needs no audio processing, just move it into place.
		partPath := f.pathGenerator.ResultPartPath(variant, jobID, 0)
		if err := os.Rename(partPath, resultPath); err != nil {
			mergeErr := errctx.Field("part_path", partPath).
				Wrap(err).Error("Failed to move the single part into place")
			return mark.Wrap(mergeErr, fault.MergeMark, "Could not place the result file")
		}

		return nil
	}

	args := []string{"-y", "-loglevel", "error"}
	for part := 0; part < parts; part++ {
		args = append(args, "-i", f.pathGenerator.ResultPartPath(variant, jobID, part))
	}

	args = append(args,
		"-filter_complex", crossfadeFilter(parts),
		"-c:a", "libmp3lame",
		"-q:a", "2",
		"-metadata", fmt.Sprintf("title=%s", title),
		resultPath,
	)

	log.WithFields(log.Fields{
		"job_id":  jobID,
		"variant": variant,
		"parts":   parts,
	}).Info("Running ffmpeg merge command")

	cmd := f.commandExecutor.Command(f.ffmpegBinPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		mergeErr := errctx.Field("ffmpeg_args", args).
			Field("ffmpeg_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running ffmpeg: %s", string(output)))
		return mark.Wrap(mergeErr, fault.MergeMark, "ffmpeg exited abnormally")
	}

	return nil
}

// crossfadeFilter cascades a one second crossfade across every adjacent pair
// of inputs: [0][1]acrossfade...[a1];[a1][2]acrossfade... and so on, with a
// nofade in-curve on the earlier chunk and a cubic out-curve on the later.
func crossfadeFilter(count int) string {
	var filter strings.Builder

	for i := 0; i < count-1; i++ {
		if i == 0 {
			fmt.Fprintf(&filter, "[%d][%d]", i, i+1)
		} else {
			fmt.Fprintf(&filter, "[a%d][%d]", i, i+1)
		}

		filter.WriteString("acrossfade=d=1:c1=nofade:c2=cub")

		if i < count-2 {
			fmt.Fprintf(&filter, "[a%d];", i+1)
		}
	}

	return filter.String()
}
