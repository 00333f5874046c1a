package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/jonwraymond/vigil/monitor"
)

// KafkaSink publishes events to a Kafka topic. Messages are keyed by service
// id so per-service event order is preserved across partitions.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a sink writing to topic via the given brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Send publishes one event.
func (s *KafkaSink) Send(ctx context.Context, e monitor.Event) error {
	payload, err := json.Marshal(eventPayload(e))
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(messageKey(e)),
		Value: payload,
	})
}

// Close flushes pending messages and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

var _ Sink = (*KafkaSink)(nil)
