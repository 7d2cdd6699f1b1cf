package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// EventEnvelope wraps every published event. Payload carries the typed body.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	CausationID   string    `json:"causationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	OccurredAt    time.Time `json:"occurredAt"`
	Schema        string    `json:"schema"`
	Payload       T         `json:"payload"`
}

// EnvelopeMetadata is the request context copied onto an event.
type EnvelopeMetadata struct {
	CorrelationID string
	CausationID   string
}

// eventKind names one versioned event type.
type eventKind struct {
	name    string
	version int
	schema  string
}

// wrap stamps payload with a fresh event id and the current time. A missing
// correlation id is generated so every event can be traced.
func wrap[T any](kind eventKind, producer, key string, meta EnvelopeMetadata, payload T) EventEnvelope[T] {
	if meta.CorrelationID == "" {
		meta.CorrelationID = uuid.NewString()
	}
	return EventEnvelope[T]{
		EventName:     kind.name,
		EventVersion:  kind.version,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      producer,
		PartitionKey:  key,
		OccurredAt:    time.Now().UTC(),
		Schema:        kind.schema,
		Payload:       payload,
	}
}

// Validate reports every problem with the envelope's identity at once.
// The result matches ErrInvalidEnvelope.
func (e EventEnvelope[T]) Validate(name string, version int) error {
	var problems []error
	if e.EventName != name {
		problems = append(problems, fmt.Errorf("eventName %q, want %q", e.EventName, name))
	}
	if e.EventVersion != version {
		problems = append(problems, fmt.Errorf("eventVersion %d, want %d", e.EventVersion, version))
	}
	if e.EventID == "" {
		problems = append(problems, errors.New("eventId is empty"))
	}
	if e.PartitionKey == "" {
		problems = append(problems, errors.New("partitionKey is empty"))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidEnvelope, errors.Join(problems...))
}
