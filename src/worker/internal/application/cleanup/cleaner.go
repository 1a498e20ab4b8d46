package cleanup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/storagepath"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . ArtifactRemover
type ArtifactRemover interface {
	RemoveArtifacts(jobID string) error
}

var _ ArtifactRemover = Cleaner{}

func NewCleaner(pathGenerator storagepath.Generator) Cleaner {
	return Cleaner{
		pathGenerator: pathGenerator,
	}
}

// Cleaner reclaims every on-disk artifact family of a terminal job: the
// original upload, the split parts, the per-chunk results and the final
// tracks. Artifacts of other jobs are untouched.
type Cleaner struct {
	pathGenerator storagepath.Generator
}

func (c Cleaner) RemoveArtifacts(jobID string) error {
	logger := log.WithField("job_id", jobID)
	errctx := cerr.Field("job_id", jobID)

	logger.Debug("Clearing original file")
	if err := removeIfPresent(c.pathGenerator.OriginalPath(jobID)); err != nil {
		return errctx.Wrap(err).Error("Failed to remove the original file")
	}

	logger.Debug("Clearing original parts")
	if err := removeParts(c.pathGenerator.PartsDir(), jobID); err != nil {
		return errctx.Wrap(err).Error("Failed to remove the original parts")
	}

	for _, variant := range storagepath.Variants {
		logger.WithField("variant", variant).Debug("Clearing result files")

		if err := removeIfPresent(c.pathGenerator.ResultPath(variant, jobID)); err != nil {
			return errctx.Field("variant", variant).
				Wrap(err).Error("Failed to remove the result file")
		}

		if err := removeParts(c.pathGenerator.ResultPartsDir(variant), jobID); err != nil {
			return errctx.Field("variant", variant).
				Wrap(err).Error("Failed to remove the result parts")
		}
	}

	return nil
}

func removeParts(dir string, jobID string) error {
	matches, err := filepath.Glob(filepath.Join(dir, fmt.Sprintf("%s_*.mp3", jobID)))
	if err != nil {
		return cerr.Field("dir", dir).Wrap(err).Error("Failed to list part files")
	}

	for _, match := range matches {
		if err := removeIfPresent(match); err != nil {
			return err
		}
	}

	return nil
}

func removeIfPresent(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return cerr.Field("path", path).Wrap(err).Error("Failed to remove file")
	}

	return nil
}
