package engine

import (
	"context"
	"time"

	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/models"
)

// ContactStore is the engine's view of the contact table. ConditionalUpdate is the
// lost-update guard: it writes the field only if it is still empty at apply time and
// reports whether the write happened.
type ContactStore interface {
	matching.ContactReader
	Get(ctx context.Context, id string) (*models.Contact, error)
	ConditionalUpdate(ctx context.Context, contactID, field, newValue, sourceSystem string, at time.Time) (bool, error)
}

// AuditStore appends one record per applied field change. Writes join the batch
// transaction, so an applied change without an audit record cannot survive a commit.
type AuditStore interface {
	Append(ctx context.Context, record models.AuditRecord) error
}

// ReviewStore persists low-confidence matches for human review.
type ReviewStore interface {
	Create(ctx context.Context, item models.ReviewItem) error
	Get(ctx context.Context, id string) (*models.ReviewItem, error)
	Resolve(ctx context.Context, id string, status models.ReviewStatus, resolvedBy string) error
}

// BatchStore persists the batch summary row.
type BatchStore interface {
	Create(ctx context.Context, batch *models.EnrichmentBatch) error
	Complete(ctx context.Context, batch *models.EnrichmentBatch) error
}

// TxRunner is the batch commit boundary: everything inside fn commits or rolls back
// together.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventEmitter publishes enrichment events after a successful commit. Optional.
type EventEmitter interface {
	EmitBatchCompleted(ctx context.Context, report *models.RunReport) error
	EmitContactEnriched(ctx context.Context, contactID string, changes []models.FieldChange) error
}
