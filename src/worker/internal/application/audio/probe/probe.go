package probe

import (
	"context"
	"strconv"
	"strings"

	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/fault"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/errors/mark"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/executor"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Prober
type Prober interface {
	Duration(ctx context.Context, filePath string) (float64, error)
}

var _ Prober = FFProbe{}

func NewFFProbe(ffprobeBinPath string, commandExecutor executor.Executor) FFProbe {
	return FFProbe{
		ffprobeBinPath:  ffprobeBinPath,
		commandExecutor: commandExecutor,
	}
}

// FFProbe reads the container duration of an audio file. It holds no mutable
// state and is safe to call concurrently on independent files.
type FFProbe struct {
	ffprobeBinPath  string
	commandExecutor executor.Executor
}

func (f FFProbe) Duration(ctx context.Context, filePath string) (float64, error) {
	errctx := cerr.Field("file_path", filePath)

	if ctx.Err() != nil {
		return 0, errctx.Wrap(ctx.Err()).Error("Context cancelled before probing could happen")
	}

	cmd := f.commandExecutor.Command(f.ffprobeBinPath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		probeErr := errctx.Field("ffprobe_output", string(output)).
			Wrap(err).Error("Error occurred while running ffprobe")
		return 0, mark.Wrap(probeErr, fault.ProbeMark, "Failed to probe the file")
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		probeErr := errctx.Field("ffprobe_output", string(output)).
			Wrap(err).Error("ffprobe did not report a numeric duration")
		return 0, mark.Wrap(probeErr, fault.ProbeMark, "Failed to parse the probed duration")
	}

	return duration, nil
}
