package dummy

import (
	"context"
	"sync"

	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/audio/probe"
)

var _ probe.Prober = &Prober{}

func NewDummyProber() *Prober {
	return &Prober{
		Durations: make(map[string]float64),
	}
}

// Prober reports scripted durations keyed by file path. Unknown paths fail
// like an unreadable file would, unless a fallback is set.
type Prober struct {
	Unavailable      bool
	UseFallback      bool
	FallbackDuration float64
	Durations        map[string]float64
	mutex            sync.RWMutex
}

func (p *Prober) SetDuration(filePath string, duration float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.Durations[filePath] = duration
}

func (p *Prober) Duration(ctx context.Context, filePath string) (float64, error) {
	if p.Unavailable {
		return 0, NetworkFailure
	}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	duration, ok := p.Durations[filePath]
	if !ok {
		if p.UseFallback {
			return p.FallbackDuration, nil
		}

		return 0, NotFound
	}

	return duration, nil
}
