package working_dir

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

func NewWorkingDir(dir string) (WorkingDir, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to convert dir to absolute format")
	}

	if err := os.MkdirAll(absDir, os.ModePerm); err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to create the working dir")
	}

	return WorkingDir{root: absDir}, nil
}

type WorkingDir struct {
	root string
}

func (w WorkingDir) Root() string {
	return w.root
}

func (w WorkingDir) TempDir() string {
	return filepath.Join(w.root, "tmp")
}
