package dummy

import (
	"sync"

	"github.com/naztar0/audio-splitter-be/src/worker/internal/application/notify"
)

var _ notify.Notifier = &Notifier{}

func NewDummyNotifier() *Notifier {
	return &Notifier{}
}

type Notification struct {
	JobID string
	Err   error
}

type Notifier struct {
	Notifications []Notification
	mutex         sync.Mutex
}

func (n *Notifier) NotifyError(jobID string, notifyErr error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.Notifications = append(n.Notifications, Notification{JobID: jobID, Err: notifyErr})
}
