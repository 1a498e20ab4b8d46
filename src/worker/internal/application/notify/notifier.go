package notify

import (
	"encoding/json"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/naztar0/audio-splitter-be/src/shared/lib/rabbitmq"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const MessageType = "operator_alert"

// Notifier is the operator side channel. It is advisory: callers must never
// depend on a notification landing.
//
//counterfeiter:generate . Notifier
type Notifier interface {
	NotifyError(jobID string, notifyErr error)
}

var _ Notifier = LogNotifier{}

type LogNotifier struct{}

func (l LogNotifier) NotifyError(jobID string, notifyErr error) {
	log.WithField("job_id", jobID).
		WithError(notifyErr).
		Error("Job failure")
}

type alertMessage struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

var _ Notifier = QueueNotifier{}

func NewQueueNotifier(publisher rabbitmq.Publisher) QueueNotifier {
	return QueueNotifier{
		publisher: publisher,
	}
}

// QueueNotifier forwards failures to the operator queue and degrades to
// logging when the queue is unreachable.
type QueueNotifier struct {
	publisher rabbitmq.Publisher
}

func (q QueueNotifier) NotifyError(jobID string, notifyErr error) {
	LogNotifier{}.NotifyError(jobID, notifyErr)

	body, err := json.Marshal(alertMessage{
		JobID: jobID,
		Error: errors.FlattenDetails(notifyErr),
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal the alert message")
		return
	}

	if err := q.publisher.Publish(MessageType, body); err != nil {
		log.WithError(err).Error("Failed to publish the alert message")
	}
}
