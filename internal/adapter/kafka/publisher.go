// Package kafka publishes active flood alert records to a Kafka topic for
// downstream notification services.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/floodwatch-lk/flood-data-api/internal/domain"
)

// Publisher produces alert messages to the configured topic.
// It implements aggregate.AlertPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishAlerts serializes and publishes the records in a single
// WriteMessages call so a snapshot's alerts land together.
func (p *Publisher) PublishAlerts(ctx context.Context, records []domain.StationRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeAlert(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeAlert marshals a station record into a Kafka message. The key is
// the normalized station name so repeat alerts for one station stay on one
// partition.
func serializeAlert(rec domain.StationRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(domain.NormalizeStationName(rec.StationName)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_status", Value: []byte(rec.AlertStatus)},
			{Key: "observed_at", Value: []byte(rec.Timestamp)},
		},
	}, nil
}
