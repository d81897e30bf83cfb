package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Type names a domain event. It doubles as the NATS subject suffix.
type Type string

const (
	ItemPublished      Type = "item.published"
	ItemClosed         Type = "item.closed"
	BidPlaced          Type = "bid.placed"
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
)

// Event is a committed state change, published after the write succeeds
// for downstream consumers such as archival or notification workers.
type Event struct {
	EventID   string    `json:"event_id"`
	Type      Type      `json:"type"`
	ItemID    int64     `json:"item_id"`
	ActorID   int64     `json:"actor_id"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates an event with a fresh id
func New(t Type, itemID, actorID int64, payload any) Event {
	return Event{
		EventID:   uuid.New().String(),
		Type:      t,
		ItemID:    itemID,
		ActorID:   actorID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers events. Delivery is best effort; callers log failures
// and never roll back on them.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NATSPublisher publishes events as JSON on "<prefix>.<type>"
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher creates a publisher on an established connection
func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject events of type t are published on
func (p *NATSPublisher) Subject(t Type) string {
	return Subject(p.prefix, t)
}

// Publish marshals e and hands it to the connection's outbound buffer
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
	}

	subject := p.Subject(e.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Subject joins prefix and t
func Subject(prefix string, t Type) string {
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}

// Nop discards every event. It is used when NATS is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in publish order
func (r *Recorder) Types() []Type {
	var types []Type
	for _, e := range r.Events() {
		types = append(types, e.Type)
	}
	return types
}
