// Package eventstore implements the minimal event-sourcing engine: an
// append-only log with per-aggregate ordering and expected-version
// conflict detection, a type registry for decoding stored payloads, and
// tracking processors that consume the global stream per named group.
package eventstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrVersionConflict  = errors.New("eventstore: aggregate version conflict")
	ErrUnknownEventType = errors.New("eventstore: unknown event type")
)

// EventData is a domain event payload. Implementations are plain structs
// registered with a Registry so stored JSON can be decoded back.
type EventData interface {
	EventType() string
}

// Event is the durable envelope around one domain event. GlobalSeq is
// the position in the global log; Version is the per-aggregate sequence
// starting at 1.
type Event struct {
	GlobalSeq     int64
	AggregateType string
	AggregateID   uuid.UUID
	Version       int64
	Type          string
	Data          EventData
	RecordedAt    time.Time
}

// Registry maps event type names to payload factories.
type Registry struct {
	factories map[string]func() EventData
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() EventData)}
}

// Register adds a factory for an event type. Registering the same type
// twice panics: it is a wiring bug, not a runtime condition.
func (r *Registry) Register(eventType string, factory func() EventData) {
	if _, dup := r.factories[eventType]; dup {
		panic(fmt.Sprintf("eventstore: event type %q registered twice", eventType))
	}
	r.factories[eventType] = factory
}

// Decode unmarshals a stored payload into its registered type.
func (r *Registry) Decode(eventType string, raw []byte) (EventData, error) {
	factory, ok := r.factories[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}
	data := factory()
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return data, nil
}
