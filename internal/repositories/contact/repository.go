package contact

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var contactColumns = []string{
	"id", "primary_email", "secondary_emails", "phone", "first_name", "last_name",
	"organization", "address_line1", "address_line2", "city", "state", "postal_code",
	"country", "provenance", "created_at", "updated_at", "deleted_at",
}

// mergeableColumns is the allowlist of columns ConditionalUpdate may touch. The
// column name is interpolated into the statement, so it must come from this set.
var mergeableColumns = map[string]struct{}{
	models.FieldPrimaryEmail: {},
	models.FieldPhone:        {},
	models.FieldFirstName:    {},
	models.FieldLastName:     {},
	models.FieldOrganization: {},
	models.FieldAddressLine1: {},
	models.FieldAddressLine2: {},
	models.FieldCity:         {},
	models.FieldState:        {},
	models.FieldPostalCode:   {},
	models.FieldCountry:      {},
}

// Repository handles contact persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// FindByEmail returns non-deleted contacts whose primary or secondary email matches.
// The caller passes a normalized (lowercased) email. More than one row is possible in
// legacy data that predates this engine; callers detect ambiguity from the result set,
// so the query fetches a handful rather than LIMIT 1.
func (r *Repository) FindByEmail(ctx context.Context, email string) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.FindByEmail")
	defer span.End()

	// Performance note: lower(primary_email) and jsonb_exists(secondary_emails, ...)
	// are both expression-indexed; see the contacts migration.
	query := `
		SELECT id, primary_email, secondary_emails, phone, first_name, last_name,
		       organization, address_line1, address_line2, city, state, postal_code,
		       country, provenance, created_at, updated_at, deleted_at
		FROM contacts
		WHERE deleted_at IS NULL
		  AND (lower(primary_email) = $1 OR jsonb_exists(secondary_emails, $1))
		ORDER BY created_at
		LIMIT 5
	`

	var contacts []models.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, email); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"email": email}).Error("Failed to find contacts by email")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find contacts")
	}
	return contacts, nil
}

// FindByPhoneAndName returns non-deleted contacts matching a normalized phone plus
// exact (case-insensitive) first and last name.
func (r *Repository) FindByPhoneAndName(ctx context.Context, phone, firstName, lastName string) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.FindByPhoneAndName")
	defer span.End()

	// Stored phones keep their source formatting; comparison is on the indexed
	// last-10-digits expression.
	if len(phone) > 10 {
		phone = phone[len(phone)-10:]
	}

	query := `
		SELECT id, primary_email, secondary_emails, phone, first_name, last_name,
		       organization, address_line1, address_line2, city, state, postal_code,
		       country, provenance, created_at, updated_at, deleted_at
		FROM contacts
		WHERE deleted_at IS NULL
		  AND RIGHT(regexp_replace(phone, '[^0-9]', '', 'g'), 10) = $1
		  AND lower(btrim(first_name)) = lower($2)
		  AND lower(btrim(last_name)) = lower($3)
		ORDER BY created_at
		LIMIT 5
	`

	var contacts []models.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, phone, firstName, lastName); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"phone": phone, "first_name": firstName, "last_name": lastName}).Error("Failed to find contacts by phone and name")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find contacts")
	}
	return contacts, nil
}

// FindByName returns non-deleted contacts matching exact (case-insensitive) first and
// last name. Names collide, so callers treat these results as low confidence.
func (r *Repository) FindByName(ctx context.Context, firstName, lastName string) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.FindByName")
	defer span.End()

	query := `
		SELECT id, primary_email, secondary_emails, phone, first_name, last_name,
		       organization, address_line1, address_line2, city, state, postal_code,
		       country, provenance, created_at, updated_at, deleted_at
		FROM contacts
		WHERE deleted_at IS NULL
		  AND lower(btrim(first_name)) = lower($1)
		  AND lower(btrim(last_name)) = lower($2)
		ORDER BY created_at
		LIMIT 10
	`

	var contacts []models.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, firstName, lastName); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"first_name": firstName, "last_name": lastName}).Error("Failed to find contacts by name")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find contacts")
	}
	return contacts, nil
}

// Get retrieves a contact by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(contactColumns...)
	sb.From("contacts")
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var c models.Contact
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "contact %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get contact")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get contact")
	}
	return &c, nil
}

// ConditionalUpdate writes a single field only if it is still empty at execution time,
// and records provenance for the field in the same statement. Returns false when the
// guard fails, meaning another writer filled the field since it was read. Joins the
// transaction in ctx when one is open.
func (r *Repository) ConditionalUpdate(ctx context.Context, contactID, field, newValue, sourceSystem string, at time.Time) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.ConditionalUpdate")
	defer span.End()

	field = strings.TrimSpace(field)
	if _, ok := mergeableColumns[field]; !ok {
		return false, httperror.NewHTTPErrorf(http.StatusBadRequest, "field %q is not mergeable", field)
	}

	patch := database.NewJSONB(models.Provenance{
		field: {Source: sourceSystem, UpdatedAt: at},
	})

	query := fmt.Sprintf(`
		UPDATE contacts
		SET %s = $1,
		    provenance = provenance || $2::jsonb,
		    updated_at = $3
		WHERE id = $4
		  AND deleted_at IS NULL
		  AND (%s IS NULL OR btrim(%s) = '')
	`, field, field, field)

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}

	result, err := tx.ExecContext(ctx, query, newValue, patch, at, contactID)
	if err != nil {
		tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"contact_id": contactID, "field": field, "source_system": sourceSystem}).Error("Failed to update contact field")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update contact")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
