package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"opsdesk/internal/platform/kafka"
)

// KafkaNotifier publishes lifecycle events to a Kafka topic, keyed by
// registration id so per-registration ordering is preserved. Delivery
// failures are logged and swallowed.
type KafkaNotifier struct {
	producer *kafka.Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaNotifier(producer *kafka.Producer, topic string, logger *slog.Logger) *KafkaNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaNotifier{producer: producer, topic: topic, logger: logger}
}

func (n *KafkaNotifier) Notify(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		n.logger.ErrorContext(ctx, "encode lifecycle event", "error", err)
		return
	}
	key := []byte(event.RegistrationID.String())
	if err := n.producer.Produce(ctx, n.topic, key, value); err != nil {
		n.logger.ErrorContext(ctx, "publish lifecycle event",
			"registration_id", event.RegistrationID.String(),
			"topic", n.topic,
			"error", err,
		)
	}
}
