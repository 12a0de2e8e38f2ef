package notify

import (
	"context"
	"fmt"
	"time"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/messages"
	"github.com/airenas/dubly/internal/pkg/status"
)

// Sender sends queue messages
type Sender interface {
	SendMessage(ctx context.Context, msg amessages.Message, queue string) error
}

// QueueNotifier passes snapshots to other processes through the StatusChange queue.
// A terminal snapshot is also sent to the Inform queue.
type QueueNotifier struct {
	sender Sender
}

// NewQueueNotifier creates notifier
func NewQueueNotifier(sender Sender) (*QueueNotifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("no sender")
	}
	return &QueueNotifier{sender: sender}, nil
}

// Notify implements Notifier
func (n *QueueNotifier) Notify(ctx context.Context, s *Snapshot) error {
	if err := n.sender.SendMessage(ctx, ToMessage(s), messages.StatusChange); err != nil {
		return fmt.Errorf("can't send status change: %w", err)
	}
	if !s.IsTerminal() {
		return nil
	}
	if err := n.sender.SendMessage(ctx, &amessages.InformMessage{QueueMessage: amessages.QueueMessage{ID: s.ID},
		Type: informType(s.Status), At: time.Now()}, messages.Inform); err != nil {
		return fmt.Errorf("can't send inform msg: %w", err)
	}
	return nil
}

func informType(st status.Status) string {
	if st == status.Failed {
		return amessages.InformTypeFailed
	}
	return amessages.InformTypeFinished
}

// ToMessage converts snapshot to queue message
func ToMessage(s *Snapshot) *messages.StatusChangeMessage {
	return &messages.StatusChangeMessage{QueueMessage: amessages.QueueMessage{ID: s.ID},
		Status: s.Status.String(), Progress: s.Progress, ErrorMessage: s.ErrorMessage, UpdatedAt: s.UpdatedAt}
}

// FromMessage converts queue message to snapshot
func FromMessage(m *messages.StatusChangeMessage) *Snapshot {
	return &Snapshot{ID: m.ID, Status: status.From(m.Status), Progress: m.Progress,
		ErrorMessage: m.ErrorMessage, UpdatedAt: m.UpdatedAt}
}
