package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventEnvelope is the wire shape of every domain event. Consumers
// key off EventType and SchemaVersion; the payload under Data is the
// serialized entity snapshot after the change.
type EventEnvelope struct {
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	SchemaVersion int        `json:"schema_version"`
	OccurredAt    time.Time  `json:"occurred_at"`
	Producer      string     `json:"producer"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	CorrelationID *uuid.UUID `json:"correlation_id,omitempty"`
	CausationID   *uuid.UUID `json:"causation_id,omitempty"`
	Traceparent   string     `json:"traceparent,omitempty"`
	Data          any        `json:"data"`
}

const envelopeSchemaVersion = 1

// EventPublisher fans domain events out to the message broker.
// Publishing is best-effort from the caller's point of view: services
// emit events after a successful commit and log failures without
// rolling back the write.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, env EventEnvelope) error
}

// Routing keys follow <entity>.<action>.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// NewEnvelope stamps identity and timing onto a payload. Correlation
// and causation are filled by the caller when the event is a reaction
// to another event.
func NewEnvelope(eventType string, tenantID uuid.UUID, data any) EventEnvelope {
	return EventEnvelope{
		EventID:       uuid.New(),
		EventType:     eventType,
		SchemaVersion: envelopeSchemaVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      "composer",
		TenantID:      tenantID,
		Data:          data,
	}
}
