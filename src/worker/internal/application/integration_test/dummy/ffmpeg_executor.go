package dummy

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/executor"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
)

var _ executor.Executor = &FFmpegExecutor{}

func NewDummyFFmpegExecutor() *FFmpegExecutor {
	return &FFmpegExecutor{}
}

// FFmpegExecutor records every command it was asked to run and fakes the one
// observable effect of ffmpeg: the output file, which is always the last
// argument, appears on disk. When Output is set it is returned verbatim
// instead, which is how ffprobe-style commands are scripted.
type FFmpegExecutor struct {
	ShouldFail bool
	Output     []byte
	Commands   [][]string
	mutex      sync.Mutex
}

func (f *FFmpegExecutor) Command(name string, arg ...string) executor.Command {
	return &ffmpegCommand{
		executor: f,
		name:     name,
		args:     arg,
	}
}

func (f *FFmpegExecutor) record(name string, args []string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	command := append([]string{name}, args...)
	f.Commands = append(f.Commands, command)
}

var _ executor.Command = &ffmpegCommand{}

type ffmpegCommand struct {
	executor *FFmpegExecutor
	name     string
	args     []string
}

func (f *ffmpegCommand) SetDir(dir string) {}

func (f *ffmpegCommand) CombinedOutput() ([]byte, error) {
	f.executor.record(f.name, f.args)

	if f.executor.ShouldFail {
		return []byte("dummy ffmpeg failure output"), cerr.Error("ffmpeg blew up")
	}

	if f.executor.Output != nil {
		return f.executor.Output, nil
	}

	if len(f.args) == 0 {
		return nil, cerr.Error("No output file argument")
	}

	outPath := f.args[len(f.args)-1]
	if err := os.MkdirAll(filepath.Dir(outPath), os.ModePerm); err != nil {
		return nil, err
	}

	if err := os.WriteFile(outPath, []byte("cool_jamz"), os.ModePerm); err != nil {
		return nil, err
	}

	return []byte{}, nil
}
