package app

import (
	"time"

	"github.com/rebeliceyang/lazytdm/internal/models"
)

// notifier collects the notifications raised while handling one message.
// The app drains it after every Update into toasts and the activity log.
type notifier struct {
	pending []models.Notification
	tableID func() models.ID
	now     func() time.Time
}

func newNotifier(tableID func() models.ID) *notifier {
	return &notifier{tableID: tableID, now: time.Now}
}

// Success records a success notification
func (n *notifier) Success(msg string) {
	n.push(models.NotificationSuccess, msg)
}

// Error records an error notification
func (n *notifier) Error(msg string) {
	n.push(models.NotificationError, msg)
}

func (n *notifier) push(kind models.NotificationKind, msg string) {
	var table models.ID
	if n.tableID != nil {
		table = n.tableID()
	}
	n.pending = append(n.pending, models.Notification{
		Kind:    kind,
		Message: msg,
		TableID: table,
		At:      n.now(),
	})
}

func (n *notifier) drain() []models.Notification {
	out := n.pending
	n.pending = nil
	return out
}
