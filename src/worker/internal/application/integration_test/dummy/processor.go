package dummy

import (
	"context"
	"sync"

	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/sweep"
)

var _ sweep.Processor = &Processor{}

func NewDummyProcessor() *Processor {
	return &Processor{
		FailFor:  make(map[string]bool),
		PanicFor: make(map[string]bool),
	}
}

type Processor struct {
	FailFor       map[string]bool
	PanicFor      map[string]bool
	ProcessedJobs []jobentity.AudioJob
	mutex         sync.Mutex
}

func (p *Processor) ProcessJob(ctx context.Context, job jobentity.AudioJob) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.PanicFor[job.ID] {
		panic("dummy processor panic")
	}

	if p.FailFor[job.ID] {
		return NetworkFailure
	}

	p.ProcessedJobs = append(p.ProcessedJobs, job)
	return nil
}
