package notify

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event describes a settled state change worth telling users about.
type Event struct {
	ID        uuid.UUID
	Name      string
	PaymentID uint
	UserID    uint
}

func NewEvent(name string, paymentID, userID uint) Event {
	return Event{
		ID:        uuid.New(),
		Name:      name,
		PaymentID: paymentID,
		UserID:    userID,
	}
}

// Notifier is a fire-and-forget port: implementations must not fail the
// caller, and callers invoke it only after their transaction committed.
type Notifier interface {
	Notify(event Event)
}

// LogNotifier records events on the structured log. Push delivery is owned
// by a separate system; this keeps settlement decoupled from it.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(event Event) {
	n.log.Info("notification",
		zap.String("event_id", event.ID.String()),
		zap.String("event", event.Name),
		zap.Uint("payment_id", event.PaymentID),
		zap.Uint("user_id", event.UserID),
	)
}
