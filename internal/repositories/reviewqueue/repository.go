package reviewqueue

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var reviewColumns = []string{
	"id", "batch_id", "contact_id", "source_system", "strategy", "confidence",
	"incoming", "reason", "status", "created_at", "resolved_at", "resolved_by",
}

// Repository handles review queue persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new review queue repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create persists a pending review item. Joins the transaction in ctx when one is open.
func (r *Repository) Create(ctx context.Context, item models.ReviewItem) error {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Create")
	defer span.End()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Status == "" {
		item.Status = models.ReviewStatusPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("review_queue")
	ib.Cols(reviewColumns...)
	ib.Values(item.ID, item.BatchID, item.ContactID, item.SourceSystem, item.Strategy,
		item.Confidence, database.NewJSONB(item.Incoming), item.Reason, item.Status, item.CreatedAt,
		item.ResolvedAt, item.ResolvedBy)

	query, args := ib.Build()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": item.ID, "batch_id": item.BatchID, "contact_id": item.ContactID}).Error("Failed to create review item")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create review item")
	}

	return tx.Commit(ctx)
}

// Get retrieves a review item by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(reviewColumns...)
	sb.From("review_queue")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var item models.ReviewItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "review item %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get review item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get review item")
	}
	return &item, nil
}

// List retrieves review items with optional status filtering and pagination
func (r *Repository) List(ctx context.Context, status *models.ReviewStatus, page, pageSize int) (*models.ReviewListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	countSb := database.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("review_queue")
	if status != nil {
		countSb.Where(countSb.Equal("status", string(*status)))
	}

	countQuery, countArgs := countSb.Build()
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"status": status, "page": page, "page_size": pageSize}).Error("Failed to count review items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count review items")
	}

	sb := database.NewSelectBuilder()
	sb.Select(reviewColumns...)
	sb.From("review_queue")
	if status != nil {
		sb.Where(sb.Equal("status", string(*status)))
	}
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var items []models.ReviewItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"status": status, "page": page, "page_size": pageSize}).Error("Failed to list review items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list review items")
	}

	return &models.ReviewListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Resolve transitions a pending review item to accepted or rejected. Joins the
// transaction in ctx when one is open. Resolving an already-resolved item is a
// conflict, which makes accept idempotent at the API layer.
func (r *Repository) Resolve(ctx context.Context, id string, status models.ReviewStatus, resolvedBy string) error {
	ctx, span := tracing.StartSpan(ctx, "reviewqueue.Repository.Resolve")
	defer span.End()

	now := time.Now().UTC()
	ub := database.NewUpdateBuilder()
	ub.Update("review_queue")
	ub.Set(
		ub.Assign("status", string(status)),
		ub.Assign("resolved_at", now),
		ub.Assign("resolved_by", resolvedBy),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("status", string(models.ReviewStatusPending)),
	)

	query, args := ub.Build()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id, "status": status}).Error("Failed to resolve review item")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve review item")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		tx.Rollback(ctx)
		return httperror.NewHTTPErrorf(http.StatusConflict, "review item %s is not pending", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "status": status}).Info("Resolved review item")
	return nil
}
