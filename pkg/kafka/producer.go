package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// ContactEnrichedEvent is published once per contact that gained fields in a
// committed batch. Changes carry only applied writes, never proposals.
type ContactEnrichedEvent struct {
	EventType    string               `json:"event_type"` // contact.enriched
	ContactID    string               `json:"contact_id"`
	BatchID      string               `json:"batch_id"`
	SourceSystem string               `json:"source_system"`
	Changes      []models.FieldChange `json:"changes"`
	Timestamp    time.Time            `json:"timestamp"`
}

// BatchCompletedEvent is published once per committed batch with its final counters.
type BatchCompletedEvent struct {
	EventType    string             `json:"event_type"` // batch.completed
	BatchID      string             `json:"batch_id"`
	SourceSystem string             `json:"source_system"`
	Status       models.BatchStatus `json:"status"`
	Total        int                `json:"total"`
	Matched      int                `json:"matched"`
	Unmatched    int                `json:"unmatched"`
	Applied      int                `json:"applied"`
	SkippedRace  int                `json:"skipped_race"`
	Errors       int                `json:"errors"`
	Timestamp    time.Time          `json:"timestamp"`
}

// PublishContactEnriched publishes a contact.enriched event to Kafka
func (p *Producer) PublishContactEnriched(ctx context.Context, event *ContactEnrichedEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishContactEnriched")
	defer span.End()

	event.EventType = "contact.enriched"
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.ContactID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "source_system", Value: []byte(event.SourceSystem)},
			{Key: "batch_id", Value: []byte(event.BatchID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish contact enriched event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"contact_id": event.ContactID,
		"batch_id":   event.BatchID,
		"changes":    len(event.Changes),
	}).Debug("Published contact enriched event")

	return nil
}

// PublishBatchCompleted publishes a batch.completed event to Kafka
func (p *Producer) PublishBatchCompleted(ctx context.Context, event *BatchCompletedEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishBatchCompleted")
	defer span.End()

	event.EventType = "batch.completed"
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.BatchID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "source_system", Value: []byte(event.SourceSystem)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish batch completed event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_id":      event.BatchID,
		"source_system": event.SourceSystem,
	}).Debug("Published batch completed event")

	return nil
}
