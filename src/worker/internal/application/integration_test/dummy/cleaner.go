package dummy

import (
	"sync"

	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/cleanup"
)

var _ cleanup.ArtifactRemover = &Cleaner{}

func NewDummyCleaner() *Cleaner {
	return &Cleaner{
		FailFor: make(map[string]bool),
	}
}

type Cleaner struct {
	FailFor map[string]bool
	Cleared []string
	mutex   sync.Mutex
}

func (c *Cleaner) RemoveArtifacts(jobID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.FailFor[jobID] {
		return NetworkFailure
	}

	c.Cleared = append(c.Cleared, jobID)
	return nil
}
