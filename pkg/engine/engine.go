// Package engine orchestrates enrichment batches: match, plan, and transactional apply
package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appcontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/sources"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Config contains configuration for the enrichment engine
type Config struct {
	AutoApplyThreshold float64
	PhoneAllDigits     bool
}

// Engine runs enrichment batches. A batch moves PREVIEW -> APPLYING -> COMMITTED, or
// APPLYING -> ROLLED_BACK on any store failure. Preview computes the exact decisions
// an execute run would make, without writing anything.
type Engine struct {
	logger   ectologger.Logger
	contacts ContactStore
	audits   AuditStore
	reviews  ReviewStore
	batches  BatchStore
	tx       TxRunner
	matcher  *matching.Engine
	planner  *merging.Planner
	emitter  EventEmitter
	config   Config
}

// NewEngine creates a new enrichment engine. emitter may be nil.
func NewEngine(
	logger ectologger.Logger,
	contacts ContactStore,
	audits AuditStore,
	reviews ReviewStore,
	batches BatchStore,
	tx TxRunner,
	emitter EventEmitter,
	config Config,
) *Engine {
	matcher := matching.NewEngine(logger, contacts, matching.Config{
		AutoApplyThreshold: config.AutoApplyThreshold,
		PhoneAllDigits:     config.PhoneAllDigits,
	})
	return &Engine{
		logger:   logger,
		contacts: contacts,
		audits:   audits,
		reviews:  reviews,
		batches:  batches,
		tx:       tx,
		matcher:  matcher,
		planner:  merging.NewPlanner(),
		emitter:  emitter,
		config:   config,
	}
}

// Run processes one batch of incoming records. Records are deduplicated (most
// complete row wins), normalized, matched, and planned in input order. In execute
// mode all proposed changes, audit records, review entries, and the batch summary are
// written in a single transaction; any store failure rolls the whole batch back.
func (e *Engine) Run(ctx context.Context, sourceSystem string, records []models.IncomingRecord, mode models.RunMode) (*models.RunReport, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Engine.Run")
	defer span.End()

	batch := &models.EnrichmentBatch{
		ID:           uuid.New().String(),
		SourceSystem: sourceSystem,
		Mode:         mode,
		Status:       models.BatchStatusPreview,
		StartedAt:    time.Now().UTC(),
	}
	ctx = appcontext.SetBatchID(ctx, batch.ID)

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"batch_id":      batch.ID,
		"source_system": sourceSystem,
		"mode":          mode,
		"record_count":  len(records),
	})
	log.Info("Starting enrichment batch")

	records = sources.Dedupe(records)

	report := &models.RunReport{
		BatchID:      batch.ID,
		SourceSystem: sourceSystem,
		Mode:         mode,
		Status:       models.BatchStatusPreview,
		Total:        len(records),
		Changes:      []models.FieldChange{},
		StartedAt:    batch.StartedAt,
	}

	for i, rec := range records {
		if err := e.planRecord(ctx, batch, report, i, rec); err != nil {
			// per-record conditions were already folded into the report; anything
			// surfacing here is a store failure and fatal to the batch
			log.WithError(err).Error("Batch aborted by store failure during matching")
			return nil, err
		}
	}

	if mode != models.RunModeExecute {
		log.WithFields(map[string]any{
			"matched":   report.Matched,
			"unmatched": report.Unmatched,
			"proposed":  len(report.Changes),
		}).Info("Preview complete, nothing written")
		return report, nil
	}

	if err := e.apply(ctx, batch, report); err != nil {
		report.Status = models.BatchStatusRolledBack
		log.WithError(err).Error("Batch rolled back")
		return nil, err
	}

	report.Status = models.BatchStatusCommitted
	log.WithFields(map[string]any{
		"applied":      report.Applied,
		"skipped_race": report.SkippedRace,
		"errors":       report.Errors,
	}).Info("Batch committed")

	e.emit(ctx, report)

	return report, nil
}

// planRecord runs the read-only phase for one record: normalize, match, plan.
// Recoverable conditions (invalid record, ambiguous match, low confidence) accumulate
// into the report; only store failures return an error.
func (e *Engine) planRecord(ctx context.Context, batch *models.EnrichmentBatch, report *models.RunReport, index int, rec models.IncomingRecord) error {
	ctx, span := tracing.StartSpan(ctx, "engine.Engine.planRecord")
	defer span.End()

	if rec.SourceSystem == "" {
		rec.SourceSystem = batch.SourceSystem
	}

	norm, err := matching.NormalizeRecord(rec, e.config.PhoneAllDigits)
	if err != nil {
		report.Errors++
		report.RecordErrors = append(report.RecordErrors, models.RecordError{
			Index:        index,
			SourceSystem: rec.SourceSystem,
			Reason:       err.Error(),
		})
		return nil
	}

	result, contact, err := e.matcher.Match(ctx, norm)
	if err != nil {
		if models.IsAmbiguousMatch(err) {
			report.Errors++
			report.RecordErrors = append(report.RecordErrors, models.RecordError{
				Index:        index,
				SourceSystem: rec.SourceSystem,
				Reason:       err.Error(),
			})
			return nil
		}
		return err
	}

	if !result.Matched {
		report.Unmatched++
		report.NewContacts = append(report.NewContacts, rec)
		return nil
	}

	report.Matched++

	if result.Confidence < e.matcher.AutoApplyThreshold() {
		report.SkippedLowConfidence++
		incoming, _ := json.Marshal(rec)
		report.Review = append(report.Review, models.ReviewItem{
			ID:           uuid.New().String(),
			BatchID:      batch.ID,
			ContactID:    result.ContactID,
			SourceSystem: rec.SourceSystem,
			Strategy:     result.Strategy,
			Confidence:   result.Confidence,
			Incoming:     incoming,
			Reason:       result.Reason,
			Status:       models.ReviewStatusPending,
			CreatedAt:    batch.StartedAt,
		})
		return nil
	}

	report.Changes = append(report.Changes, e.planner.Plan(contact, norm, batch.StartedAt)...)
	return nil
}

// apply writes the batch inside one transaction. Each change re-checks emptiness at
// apply time; a guard failure downgrades the change to skipped_race and is not
// retried. Audit rows share the batch start timestamp with their field updates.
func (e *Engine) apply(ctx context.Context, batch *models.EnrichmentBatch, report *models.RunReport) error {
	ctx, span := tracing.StartSpan(ctx, "engine.Engine.apply")
	defer span.End()

	batch.Status = models.BatchStatusApplying

	return e.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := e.batches.Create(ctx, batch); err != nil {
			return err
		}

		for i := range report.Changes {
			change := &report.Changes[i]

			applied, err := e.contacts.ConditionalUpdate(ctx, change.ContactID, change.Field, change.NewValue, change.SourceSystem, batch.StartedAt)
			if err != nil {
				return err
			}

			if !applied {
				change.Status = models.ChangeStatusSkippedRace
				report.SkippedRace++
				continue
			}

			change.Status = models.ChangeStatusApplied
			report.Applied++

			if err := e.audits.Append(ctx, models.AuditRecord{
				ID:           uuid.New().String(),
				ContactID:    change.ContactID,
				BatchID:      batch.ID,
				Field:        change.Field,
				NewValue:     change.NewValue,
				SourceSystem: change.SourceSystem,
				AppliedAt:    batch.StartedAt,
			}); err != nil {
				return err
			}
		}

		for _, item := range report.Review {
			if err := e.reviews.Create(ctx, item); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		batch.Total = report.Total
		batch.Matched = report.Matched
		batch.Unmatched = report.Unmatched
		batch.Applied = report.Applied
		batch.SkippedRace = report.SkippedRace
		batch.SkippedLowConfidence = report.SkippedLowConfidence
		batch.Errors = report.Errors
		batch.Status = models.BatchStatusCommitted
		batch.CompletedAt = &now

		return e.batches.Complete(ctx, batch)
	})
}

// emit publishes post-commit events. Emission failures are logged, never fatal: the
// batch is already committed.
func (e *Engine) emit(ctx context.Context, report *models.RunReport) {
	if e.emitter == nil {
		return
	}

	byContact := make(map[string][]models.FieldChange)
	order := make([]string, 0)
	for _, change := range report.Changes {
		if change.Status != models.ChangeStatusApplied {
			continue
		}
		if _, ok := byContact[change.ContactID]; !ok {
			order = append(order, change.ContactID)
		}
		byContact[change.ContactID] = append(byContact[change.ContactID], change)
	}

	for _, contactID := range order {
		if err := e.emitter.EmitContactEnriched(ctx, contactID, byContact[contactID]); err != nil {
			e.logger.WithContext(ctx).WithError(err).Error("Failed to emit contact.enriched event")
		}
	}

	if err := e.emitter.EmitBatchCompleted(ctx, report); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit batch.completed event")
	}
}
