package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "fanvault/contexts/identity-access/onboarding-service/application"
	"fanvault/contexts/identity-access/onboarding-service/ports"
	"fanvault/internal/shared/events"
)

const DefaultTopic = "fanvault.onboarding"

// OutboxRelay publishes pending lifecycle events and marks them sent. A
// publish failure stops the batch so ordering per partition key is kept.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("onboarding outbox list failed",
			"event", "onboarding_outbox_list_failed",
			"module", "identity-access/onboarding-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	published := 0
	for _, row := range pending {
		var envelope events.Envelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			logger.Error("onboarding outbox payload invalid",
				"event", "onboarding_outbox_payload_invalid",
				"module", "identity-access/onboarding-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("onboarding outbox publish failed",
				"event", "onboarding_outbox_publish_failed",
				"module", "identity-access/onboarding-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, row.OutboxID, r.now()); err != nil {
			return published, err
		}
		published++
	}
	if published > 0 {
		logger.Debug("onboarding outbox relayed",
			"event", "onboarding_outbox_relayed",
			"module", "identity-access/onboarding-service",
			"layer", "worker",
			"count", published,
		)
	}
	return published, nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
