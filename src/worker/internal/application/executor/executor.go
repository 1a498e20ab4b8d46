package executor

import "os/exec"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Executor
type Executor interface {
	Command(name string, arg ...string) Command
}

//counterfeiter:generate . Command
type Command interface {
	SetDir(dir string)
	CombinedOutput() ([]byte, error)
}

var _ Executor = BinaryFileExecutor{}

type BinaryFileExecutor struct{}

func (b BinaryFileExecutor) Command(name string, arg ...string) Command {
	return &binaryFileCommand{
		cmd: exec.Command(name, arg...),
	}
}

var _ Command = &binaryFileCommand{}

type binaryFileCommand struct {
	cmd *exec.Cmd
}

func (b *binaryFileCommand) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b *binaryFileCommand) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}
