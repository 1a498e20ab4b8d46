package dummy

import (
	"sync"

	"github.com/naztar0/audio-splitter-be/src/shared/lib/rabbitmq"
)

var _ rabbitmq.Publisher = &Publisher{}

func NewDummyPublisher() *Publisher {
	return &Publisher{}
}

type PublishedMessage struct {
	Type string
	Body []byte
}

type Publisher struct {
	Unavailable bool
	Messages    []PublishedMessage
	mutex       sync.Mutex
}

func (p *Publisher) Publish(msgType string, body []byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.Unavailable {
		return NetworkFailure
	}

	p.Messages = append(p.Messages, PublishedMessage{Type: msgType, Body: body})
	return nil
}
