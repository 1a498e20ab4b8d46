package delivery

import (
	"context"
	"encoding/json"

	jobentity "github.com/naztar0/audio-splitter-be/src/shared/jobs/entity"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/rabbitmq"
	"github.com/naztar0/audio-splitter-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const MessageType = "separation_complete"

// Result is what the chat layer receives for a completed job.
type Result struct {
	StemPath        string
	NoStemPath      string
	DurationSeconds int
}

//counterfeiter:generate . Deliverer
type Deliverer interface {
	DeliverResult(ctx context.Context, job jobentity.AudioJob, result Result) error
}

type resultMessage struct {
	JobID           string `json:"job_id"`
	UserID          string `json:"user_id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
	StemPath        string `json:"stem_path"`
	NoStemPath      string `json:"no_stem_path"`
}

var _ Deliverer = QueueDeliverer{}

func NewQueueDeliverer(publisher rabbitmq.Publisher) QueueDeliverer {
	return QueueDeliverer{
		publisher: publisher,
	}
}

// QueueDeliverer hands completed tracks to the chat layer through the
// results queue.
type QueueDeliverer struct {
	publisher rabbitmq.Publisher
}

func (q QueueDeliverer) DeliverResult(ctx context.Context, job jobentity.AudioJob, result Result) error {
	errctx := cerr.Field("job_id", job.ID)

	body, err := json.Marshal(resultMessage{
		JobID:           job.ID,
		UserID:          job.UserID,
		Title:           job.Title,
		DurationSeconds: result.DurationSeconds,
		StemPath:        result.StemPath,
		NoStemPath:      result.NoStemPath,
	})
	if err != nil {
		return errctx.Wrap(err).Error("Failed to marshal the result message")
	}

	if err := q.publisher.Publish(MessageType, body); err != nil {
		return errctx.Wrap(err).Error("Failed to publish the result message")
	}

	return nil
}
