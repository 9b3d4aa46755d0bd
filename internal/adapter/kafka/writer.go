// Package kafka publishes recorded water levels to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-watch-api/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces water-level messages to a Kafka topic.
// It implements domain.ReadingPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the readings topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes the records in a single WriteMessages call.
// Messages are keyed by station so one station's readings stay ordered.
func (w *Writer) Publish(ctx context.Context, records ...domain.WaterLevelRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d readings: %w", len(msgs), err)
	}
	w.logger.Debug("readings published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a WaterLevelRecord into a Kafka message.
func serializeToMessage(record domain.WaterLevelRecord) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize water level record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(record.StationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(record.Status)},
			{Key: "recorded_at", Value: []byte(record.RecordedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
