// Package kafka wraps the franz-go client behind the small surface the
// outbox relay and notifier need: ensure topics exist, produce, close.
package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is a thin synchronous producer over one Kafka cluster.
type Producer struct {
	client *kgo.Client
	admin  *kadm.Client
}

// NewProducer connects to the given brokers. Returns nil if brokers is empty
// (Kafka not configured), mirroring how optional backends are wired elsewhere.
func NewProducer(brokers string) (*Producer, error) {
	if brokers == "" {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Producer{
		client: client,
		admin:  kadm.NewClient(client),
	}, nil
}

// EnsureTopics creates any of the named topics that do not exist yet.
// Safe to call on every startup.
func (p *Producer) EnsureTopics(ctx context.Context, topics ...string) error {
	resp, err := p.admin.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && res.Err != kerr.TopicAlreadyExists {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Produce delivers one record and waits for the broker acknowledgement.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered records and tears down the connection.
func (p *Producer) Close() {
	p.client.Close()
}
