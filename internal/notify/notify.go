package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fjsui0423-max/pachi-money/pkg/logging"
)

// Publisher sends change notifications.
type Publisher interface {
	Publish(ctx context.Context, msg *LedgerChanged) error
	Close() error
}

// Handler receives a change notification.
type Handler func(ctx context.Context, msg *LedgerChanged) error

// Notifier stamps changes with this process's origin, applies them
// locally right away and forwards them to a Publisher. Remote copies of
// our own messages are ignored.
type Notifier struct {
	origin    string
	publisher Publisher
	logger    *slog.Logger

	mu    sync.RWMutex
	local []Handler
}

// NewNotifier creates a Notifier. A nil publisher keeps notifications
// in-process.
func NewNotifier(publisher Publisher) *Notifier {
	if publisher == nil {
		publisher = Nop{}
	}
	return &Notifier{
		origin:    uuid.NewString(),
		publisher: publisher,
		logger:    logging.Component("notify"),
	}
}

// Origin identifies this process in published messages.
func (n *Notifier) Origin() string { return n.origin }

// OnChange registers a handler for local and remote changes.
func (n *Notifier) OnChange(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.local = append(n.local, h)
}

// Changed announces a change. Local handlers run first and synchronously;
// a failed publish is logged, never returned, because the mutation it
// describes has already happened.
func (n *Notifier) Changed(ctx context.Context, householdID string, change Change, actorID string) {
	msg := &LedgerChanged{
		HouseholdID: householdID,
		Change:      change,
		ActorID:     actorID,
		Origin:      n.origin,
		Timestamp:   time.Now(),
	}
	n.dispatch(ctx, msg)
	if err := n.publisher.Publish(ctx, msg); err != nil {
		n.logger.Warn("failed to publish change", "group_id", householdID, "change", change, "error", err)
	}
}

// Receive handles a message from another instance.
func (n *Notifier) Receive(ctx context.Context, msg *LedgerChanged) error {
	if msg.Origin == n.origin {
		return nil
	}
	n.dispatch(ctx, msg)
	return nil
}

func (n *Notifier) dispatch(ctx context.Context, msg *LedgerChanged) {
	n.mu.RLock()
	handlers := n.local
	n.mu.RUnlock()
	for _, h := range handlers {
		if err := h(ctx, msg); err != nil {
			n.logger.Warn("change handler failed", "group_id", msg.HouseholdID, "error", err)
		}
	}
}

// Close closes the publisher.
func (n *Notifier) Close() error {
	return n.publisher.Close()
}

// Nop drops every message.
type Nop struct{}

func (Nop) Publish(ctx context.Context, msg *LedgerChanged) error { return nil }
func (Nop) Close() error                                          { return nil }
