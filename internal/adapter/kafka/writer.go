package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/velov-sync/internal/domain"
	"github.com/couchcryptid/velov-sync/internal/observability"
)

// Writer publishes station change events to a Kafka topic.
// It implements pipeline.ChangePublisher.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the change-event topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Publish sends one event, keyed by station id so that the events of a
// station stay ordered within a partition.
func (w *Writer) Publish(ctx context.Context, event domain.ChangeEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		w.metrics.ChangeEvents.WithLabelValues("error").Inc()
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.ChangeEvents.WithLabelValues("error").Inc()
		return fmt.Errorf("publish change event for station %d: %w", event.StationID, err)
	}
	w.metrics.ChangeEvents.WithLabelValues("published").Inc()
	w.logger.Debug("change event published", "station_id", event.StationID, "action", event.Action)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ChangeEvent into a Kafka message.
func serializeToMessage(event domain.ChangeEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize change event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(event.StationID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
