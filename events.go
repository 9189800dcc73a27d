package cosmorm

import (
	"context"
	"time"

	"github.com/asaidimu/go-events"
)

// EventType names a repository write notification
type EventType string

const (
	EventCreated     EventType = "item.created"
	EventUpdated     EventType = "item.updated"
	EventSoftDeleted EventType = "item.soft_deleted"
	EventDeleted     EventType = "item.deleted"
)

// ItemEvent is emitted after a write has been accepted by the store
type ItemEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         EventType `json:"type"`
	Model        string    `json:"model"`
	ID           string    `json:"id"`
	PartitionKey string    `json:"partitionKey"`
	Partner      string    `json:"partner,omitempty"`
}

// EventHandler receives item events
type EventHandler func(ctx context.Context, event ItemEvent) error

// NewEventBus creates a bus suitable for Config.Events
func NewEventBus() (*events.TypedEventBus[ItemEvent], error) {
	return events.NewTypedEventBus[ItemEvent](events.DefaultConfig())
}

// Subscribe registers handler for one event type on the repository's bus.
// The returned function removes the subscription. Without a bus it is a no-op.
func (r *Repository[T]) Subscribe(eventType EventType, handler EventHandler) func() {
	if r.events == nil {
		return func() {}
	}
	return r.events.Subscribe(string(eventType), handler)
}

func (r *Repository[T]) emit(ctx context.Context, eventType EventType, id, partitionKey string) {
	if r.events == nil {
		return
	}
	r.events.Emit(string(eventType), ItemEvent{
		Timestamp:    r.now(),
		Type:         eventType,
		Model:        r.model,
		ID:           id,
		PartitionKey: partitionKey,
		Partner:      GetPartnerFromContext(ctx),
	})
}
