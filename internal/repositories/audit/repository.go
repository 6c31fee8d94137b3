package audit

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var auditColumns = []string{
	"id", "contact_id", "batch_id", "field", "old_value", "new_value",
	"source_system", "applied_at",
}

// Repository handles the append-only audit log. Rows are never updated or deleted.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append writes one audit record. Joins the transaction in ctx when one is open, so
// an applied change and its audit record commit together.
func (r *Repository) Append(ctx context.Context, record models.AuditRecord) error {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.Append")
	defer span.End()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("contact_audit")
	ib.Cols(auditColumns...)
	ib.Values(record.ID, record.ContactID, record.BatchID, record.Field, record.OldValue,
		record.NewValue, record.SourceSystem, record.AppliedAt)

	query, args := ib.Build()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"contact_id": record.ContactID, "batch_id": record.BatchID, "field": record.Field}).Error("Failed to append audit record")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to append audit record")
	}

	return tx.Commit(ctx)
}

// ListByContact returns the audit history of one contact, oldest first.
func (r *Repository) ListByContact(ctx context.Context, contactID string) ([]models.AuditRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.ListByContact")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(auditColumns...)
	sb.From("contact_audit")
	sb.Where(sb.Equal("contact_id", contactID))
	sb.OrderBy("applied_at", "id")

	query, args := sb.Build()
	var records []models.AuditRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"contact_id": contactID}).Error("Failed to list audit records by contact")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list audit records")
	}
	return records, nil
}

// ListByBatch returns every audit record written by one enrichment batch.
func (r *Repository) ListByBatch(ctx context.Context, batchID string) ([]models.AuditRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.ListByBatch")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(auditColumns...)
	sb.From("contact_audit")
	sb.Where(sb.Equal("batch_id", batchID))
	sb.OrderBy("applied_at", "id")

	query, args := sb.Build()
	var records []models.AuditRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": batchID}).Error("Failed to list audit records by batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list audit records")
	}
	return records, nil
}
