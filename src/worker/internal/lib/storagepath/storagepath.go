package storagepath

import (
	"fmt"
	"path/filepath"
)

// Variant is one of the two reassembled output tracks.
type Variant string

const (
	StemVariant   Variant = "stem"
	NoStemVariant Variant = "no_stem"
)

var Variants = []Variant{StemVariant, NoStemVariant}

// Generator produces every filesystem path for a job's artifacts, rooted at
// the files dir. All paths are namespaced by job ID and chunk index so that
// concurrent jobs never collide.
type Generator struct {
	Root string
}

func (g Generator) OriginalDir() string {
	return filepath.Join(g.Root, "original")
}

func (g Generator) OriginalPath(jobID string) string {
	return filepath.Join(g.OriginalDir(), fmt.Sprintf("%s.mp3", jobID))
}

func (g Generator) PartsDir() string {
	return filepath.Join(g.Root, "original_parts")
}

func (g Generator) PartPath(jobID string, part int) string {
	return filepath.Join(g.PartsDir(), fmt.Sprintf("%s_%d.mp3", jobID, part))
}

func (g Generator) ResultPartsDir(variant Variant) string {
	return filepath.Join(g.Root, "result_parts", string(variant))
}

func (g Generator) ResultPartPath(variant Variant, jobID string, part int) string {
	return filepath.Join(g.ResultPartsDir(variant), fmt.Sprintf("%s_%d.mp3", jobID, part))
}

func (g Generator) ResultDir(variant Variant) string {
	return filepath.Join(g.Root, "result", string(variant))
}

func (g Generator) ResultPath(variant Variant, jobID string) string {
	return filepath.Join(g.ResultDir(variant), fmt.Sprintf("%s.mp3", jobID))
}
