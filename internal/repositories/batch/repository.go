package batch

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var batchColumns = []string{
	"id", "source_system", "mode", "status", "total", "matched", "unmatched",
	"applied", "skipped_race", "skipped_low_confidence", "errors", "started_at",
	"completed_at",
}

// Repository handles enrichment batch persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new batch repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create persists the batch row. Joins the transaction in ctx when one is open, so a
// rolled-back batch leaves no row behind.
func (r *Repository) Create(ctx context.Context, b *models.EnrichmentBatch) error {
	ctx, span := tracing.StartSpan(ctx, "batch.Repository.Create")
	defer span.End()

	ib := database.NewInsertBuilder()
	ib.InsertInto("enrichment_batches")
	ib.Cols(batchColumns...)
	ib.Values(b.ID, b.SourceSystem, b.Mode, b.Status, b.Total, b.Matched, b.Unmatched,
		b.Applied, b.SkippedRace, b.SkippedLowConfidence, b.Errors, b.StartedAt, b.CompletedAt)

	query, args := ib.Build()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": b.ID, "source_system": b.SourceSystem}).Error("Failed to create enrichment batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create batch")
	}

	return tx.Commit(ctx)
}

// Complete writes the final counters and status for a batch. Joins the transaction in
// ctx when one is open.
func (r *Repository) Complete(ctx context.Context, b *models.EnrichmentBatch) error {
	ctx, span := tracing.StartSpan(ctx, "batch.Repository.Complete")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("enrichment_batches")
	ub.Set(
		ub.Assign("status", b.Status),
		ub.Assign("total", b.Total),
		ub.Assign("matched", b.Matched),
		ub.Assign("unmatched", b.Unmatched),
		ub.Assign("applied", b.Applied),
		ub.Assign("skipped_race", b.SkippedRace),
		ub.Assign("skipped_low_confidence", b.SkippedLowConfidence),
		ub.Assign("errors", b.Errors),
		ub.Assign("completed_at", b.CompletedAt),
	)
	ub.Where(ub.Equal("id", b.ID))

	query, args := ub.Build()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": b.ID}).Error("Failed to complete enrichment batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to complete batch")
	}

	return tx.Commit(ctx)
}

// Get retrieves a batch by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.EnrichmentBatch, error) {
	ctx, span := tracing.StartSpan(ctx, "batch.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(batchColumns...)
	sb.From("enrichment_batches")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var b models.EnrichmentBatch
	if err := r.db.GetContext(ctx, &b, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "batch %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get batch")
	}
	return &b, nil
}
