package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// AcceptReview applies a pending low-confidence match after a human confirmed it. The
// stored incoming record is re-planned against the contact's current state and applied
// with the same conditional guard and audit coupling as a batch, in one transaction.
// Audit rows reference the review item's original batch.
func (e *Engine) AcceptReview(ctx context.Context, reviewID, resolvedBy string) ([]models.FieldChange, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Engine.AcceptReview")
	defer span.End()

	item, err := e.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ReviewStatusPending {
		return nil, fmt.Errorf("review item %s already resolved (%s)", reviewID, item.Status)
	}

	var rec models.IncomingRecord
	if err := json.Unmarshal(item.Incoming, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse stored incoming record: %w", err)
	}

	norm, err := matching.NormalizeRecord(rec, e.config.PhoneAllDigits)
	if err != nil {
		return nil, err
	}

	contact, err := e.contacts.Get(ctx, item.ContactID)
	if err != nil {
		return nil, err
	}

	appliedAt := time.Now().UTC()
	changes := e.planner.Plan(contact, norm, appliedAt)

	err = e.tx.WithinTx(ctx, func(ctx context.Context) error {
		for i := range changes {
			change := &changes[i]

			applied, err := e.contacts.ConditionalUpdate(ctx, change.ContactID, change.Field, change.NewValue, change.SourceSystem, appliedAt)
			if err != nil {
				return err
			}
			if !applied {
				change.Status = models.ChangeStatusSkippedRace
				continue
			}

			change.Status = models.ChangeStatusApplied
			if err := e.audits.Append(ctx, models.AuditRecord{
				ID:           uuid.New().String(),
				ContactID:    change.ContactID,
				BatchID:      item.BatchID,
				Field:        change.Field,
				NewValue:     change.NewValue,
				SourceSystem: change.SourceSystem,
				AppliedAt:    appliedAt,
			}); err != nil {
				return err
			}
		}

		return e.reviews.Resolve(ctx, reviewID, models.ReviewStatusAccepted, resolvedBy)
	})
	if err != nil {
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"review_id":  reviewID,
		"contact_id": item.ContactID,
		"applied":    countApplied(changes),
	}).Info("Review accepted and applied")

	if e.emitter != nil && countApplied(changes) > 0 {
		if err := e.emitter.EmitContactEnriched(ctx, item.ContactID, changes); err != nil {
			e.logger.WithContext(ctx).WithError(err).Error("Failed to emit contact.enriched event")
		}
	}

	return changes, nil
}

// RejectReview marks a pending review item rejected without touching the contact.
func (e *Engine) RejectReview(ctx context.Context, reviewID, resolvedBy string) error {
	ctx, span := tracing.StartSpan(ctx, "engine.Engine.RejectReview")
	defer span.End()

	item, err := e.reviews.Get(ctx, reviewID)
	if err != nil {
		return err
	}
	if item.Status != models.ReviewStatusPending {
		return fmt.Errorf("review item %s already resolved (%s)", reviewID, item.Status)
	}

	return e.reviews.Resolve(ctx, reviewID, models.ReviewStatusRejected, resolvedBy)
}

func countApplied(changes []models.FieldChange) int {
	n := 0
	for _, c := range changes {
		if c.Status == models.ChangeStatusApplied {
			n++
		}
	}
	return n
}
