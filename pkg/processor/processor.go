// Package processor handles incoming record batch messages. It is the Kafka-facing
// ingestion layer: each message is one bounded batch handed to the enrichment engine.
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/engine"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Processor handles record batch messages from the input topic
type Processor struct {
	logger ectologger.Logger
	engine *engine.Engine
}

// NewProcessor creates a new message processor
func NewProcessor(logger ectologger.Logger, eng *engine.Engine) *Processor {
	return &Processor{
		logger: logger,
		engine: eng,
	}
}

// HandleMessage runs one record batch through the engine. A returned error keeps the
// message uncommitted so the batch is re-delivered; the engine's conditional updates
// make re-running it safe.
func (p *Processor) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.HandleMessage")
	defer span.End()

	batch := msg.Batch
	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"source_system": batch.SourceSystem,
		"mode":          batch.Mode,
		"records":       len(batch.Records),
		"offset":        msg.Offset,
	})

	report, err := p.engine.Run(ctx, batch.SourceSystem, batch.Records, batch.Mode)
	if err != nil {
		log.WithError(err).Error("Failed to process record batch")
		return err
	}

	log.WithFields(map[string]any{
		"batch_id":     report.BatchID,
		"matched":      report.Matched,
		"unmatched":    report.Unmatched,
		"applied":      report.Applied,
		"skipped_race": report.SkippedRace,
		"errors":       report.Errors,
	}).Info("Processed record batch")

	if report.Errors > 0 {
		for _, re := range report.RecordErrors {
			log.WithFields(map[string]any{"index": re.Index, "reason": re.Reason}).Warn("Record skipped")
		}
	}

	if len(report.NewContacts) > 0 {
		// Unmatched records are reported, never auto-created. The report is the
		// only place they surface on the Kafka path, so log them at info.
		log.WithFields(map[string]any{"new_contacts": len(report.NewContacts)}).Info("Batch contained unmatched records")
	}

	return nil
}

// noopEmitter is used when the Kafka producer is disabled.
type noopEmitter struct{}

func (noopEmitter) EmitBatchCompleted(ctx context.Context, report *models.RunReport) error {
	return nil
}

func (noopEmitter) EmitContactEnriched(ctx context.Context, contactID string, changes []models.FieldChange) error {
	return nil
}

// NoopEmitter returns an EventEmitter that discards all events.
func NoopEmitter() engine.EventEmitter {
	return noopEmitter{}
}
