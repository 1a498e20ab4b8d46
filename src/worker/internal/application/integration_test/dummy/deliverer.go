package dummy

import (
	"context"
	"sync"

	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/delivery"
)

var _ delivery.Deliverer = &Deliverer{}

func NewDummyDeliverer() *Deliverer {
	return &Deliverer{}
}

type Delivery struct {
	Job    jobentity.AudioJob
	Result delivery.Result
}

type Deliverer struct {
	Unavailable bool
	Deliveries  []Delivery
	mutex       sync.Mutex
}

func (d *Deliverer) DeliverResult(ctx context.Context, job jobentity.AudioJob, result delivery.Result) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.Unavailable {
		return NetworkFailure
	}

	d.Deliveries = append(d.Deliveries, Delivery{Job: job, Result: result})
	return nil
}
