package events

import (
	"encoding/json"
	"time"
)

// Envelope is the shared event shape written to the outbox and published on the bus.
type Envelope struct {
	EventID        string          `json:"event_id"`
	EventType      string          `json:"event_type"`
	SourceService  string          `json:"source_service"`
	OccurredAtUTC  time.Time       `json:"occurred_at_utc"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	PartitionKey   string          `json:"partition_key"`
	PayloadVersion int             `json:"payload_version"`
	Payload        json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload and stamps version 1.
func NewEnvelope(
	eventID string,
	eventType string,
	source string,
	entityType string,
	entityID string,
	occurredAt time.Time,
	payload any,
) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  source,
		OccurredAtUTC:  occurredAt.UTC(),
		EntityType:     entityType,
		EntityID:       entityID,
		PartitionKey:   entityID,
		PayloadVersion: 1,
		Payload:        raw,
	}, nil
}
