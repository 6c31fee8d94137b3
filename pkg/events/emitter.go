// Package events handles event emission for enrichment outcomes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	appcontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Emitter publishes enrichment events after a batch commits. It implements the
// engine's EventEmitter; emission failures are the caller's to log and swallow, since
// the batch has already committed.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitContactEnriched emits a contact.enriched event for one contact's applied changes
func (e *Emitter) EmitContactEnriched(ctx context.Context, contactID string, changes []models.FieldChange) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitContactEnriched")
	defer span.End()

	if len(changes) == 0 {
		return nil
	}

	event := &kafka.ContactEnrichedEvent{
		ContactID:    contactID,
		BatchID:      appcontext.GetBatchID(ctx),
		SourceSystem: changes[0].SourceSystem,
		Changes:      changes,
	}

	if err := e.producer.PublishContactEnriched(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit contact.enriched event")
		return err
	}

	return nil
}

// EmitBatchCompleted emits a batch.completed event with the batch's final counters
func (e *Emitter) EmitBatchCompleted(ctx context.Context, report *models.RunReport) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitBatchCompleted")
	defer span.End()

	event := &kafka.BatchCompletedEvent{
		BatchID:      report.BatchID,
		SourceSystem: report.SourceSystem,
		Status:       report.Status,
		Total:        report.Total,
		Matched:      report.Matched,
		Unmatched:    report.Unmatched,
		Applied:      report.Applied,
		SkippedRace:  report.SkippedRace,
		Errors:       report.Errors,
	}

	if err := e.producer.PublishBatchCompleted(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit batch.completed event")
		return err
	}

	return nil
}
