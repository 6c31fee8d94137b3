package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// memStore is an in-memory implementation of every engine store plus the transaction
// boundary. WithinTx snapshots all state up front and restores it when fn fails, so
// rollback behavior is observable without a database.
type memStore struct {
	contacts map[string]*models.Contact
	order    []string
	audits   []models.AuditRecord
	reviews  map[string]models.ReviewItem
	batches  map[string]models.EnrichmentBatch

	// failOn aborts the named store call with an error, to exercise rollback.
	// failAfterAudits delays an audits.Append failure until that many rows exist.
	failOn          string
	failAfterAudits int
	// beforeConditionalUpdate runs just before each guard check, to simulate a
	// concurrent writer
	beforeConditionalUpdate func(s *memStore, contactID, field string)
}

func newMemStore() *memStore {
	return &memStore{
		contacts: make(map[string]*models.Contact),
		reviews:  make(map[string]models.ReviewItem),
		batches:  make(map[string]models.EnrichmentBatch),
	}
}

func (s *memStore) addContact(c models.Contact) {
	s.contacts[c.ID] = &c
	s.order = append(s.order, c.ID)
}

func (s *memStore) FindByEmail(ctx context.Context, email string) ([]models.Contact, error) {
	var out []models.Contact
	for _, id := range s.order {
		c := s.contacts[id]
		if c.DeletedAt != nil {
			continue
		}
		if c.PrimaryEmail != nil && strings.ToLower(strings.TrimSpace(*c.PrimaryEmail)) == email {
			out = append(out, *c)
			continue
		}
		for _, secondary := range c.SecondaryEmails {
			if strings.ToLower(strings.TrimSpace(secondary)) == email {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) FindByPhoneAndName(ctx context.Context, phone, firstName, lastName string) ([]models.Contact, error) {
	var out []models.Contact
	for _, id := range s.order {
		c := s.contacts[id]
		if c.DeletedAt != nil || c.Phone == nil {
			continue
		}
		if lastTen(*c.Phone) != lastTen(phone) {
			continue
		}
		if !nameEqual(c.FirstName, firstName) || !nameEqual(c.LastName, lastName) {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *memStore) FindByName(ctx context.Context, firstName, lastName string) ([]models.Contact, error) {
	var out []models.Contact
	for _, id := range s.order {
		c := s.contacts[id]
		if c.DeletedAt != nil {
			continue
		}
		if nameEqual(c.FirstName, firstName) && nameEqual(c.LastName, lastName) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) Get(ctx context.Context, id string) (*models.Contact, error) {
	c, ok := s.contacts[id]
	if !ok || c.DeletedAt != nil {
		return nil, fmt.Errorf("contact %s not found", id)
	}
	copied := *c
	return &copied, nil
}

func (s *memStore) ConditionalUpdate(ctx context.Context, contactID, field, newValue, sourceSystem string, at time.Time) (bool, error) {
	if s.failOn == "contacts.ConditionalUpdate" {
		return false, fmt.Errorf("injected failure: contacts.ConditionalUpdate")
	}
	if s.beforeConditionalUpdate != nil {
		s.beforeConditionalUpdate(s, contactID, field)
	}

	c, ok := s.contacts[contactID]
	if !ok || c.DeletedAt != nil {
		return false, fmt.Errorf("contact %s not found", contactID)
	}
	if !c.FieldEmpty(field) {
		return false, nil
	}

	setField(c, field, newValue)
	if c.Provenance == nil {
		c.Provenance = models.Provenance{}
	}
	c.Provenance[field] = models.FieldProvenance{Source: sourceSystem, UpdatedAt: at}
	c.UpdatedAt = at
	return true, nil
}

func (s *memStore) Append(ctx context.Context, record models.AuditRecord) error {
	if s.failOn == "audits.Append" && len(s.audits) >= s.failAfterAudits {
		return fmt.Errorf("injected failure: audits.Append")
	}
	s.audits = append(s.audits, record)
	return nil
}

func (s *memStore) Create(ctx context.Context, item models.ReviewItem) error {
	if s.failOn == "reviews.Create" {
		return fmt.Errorf("injected failure: reviews.Create")
	}
	s.reviews[item.ID] = item
	return nil
}

func (s *memStore) GetReview(ctx context.Context, id string) (*models.ReviewItem, error) {
	item, ok := s.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review item %s not found", id)
	}
	return &item, nil
}

func (s *memStore) Resolve(ctx context.Context, id string, status models.ReviewStatus, resolvedBy string) error {
	item, ok := s.reviews[id]
	if !ok {
		return fmt.Errorf("review item %s not found", id)
	}
	if item.Status != models.ReviewStatusPending {
		return fmt.Errorf("review item %s is not pending", id)
	}
	now := time.Now().UTC()
	item.Status = status
	item.ResolvedAt = &now
	item.ResolvedBy = &resolvedBy
	s.reviews[id] = item
	return nil
}

func (s *memStore) CreateBatch(ctx context.Context, batch *models.EnrichmentBatch) error {
	if s.failOn == "batches.Create" {
		return fmt.Errorf("injected failure: batches.Create")
	}
	s.batches[batch.ID] = *batch
	return nil
}

func (s *memStore) Complete(ctx context.Context, batch *models.EnrichmentBatch) error {
	if s.failOn == "batches.Complete" {
		return fmt.Errorf("injected failure: batches.Complete")
	}
	s.batches[batch.ID] = *batch
	return nil
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	contacts map[string]*models.Contact
	order    []string
	audits   []models.AuditRecord
	reviews  map[string]models.ReviewItem
	batches  map[string]models.EnrichmentBatch
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		contacts: make(map[string]*models.Contact, len(s.contacts)),
		order:    append([]string{}, s.order...),
		audits:   append([]models.AuditRecord{}, s.audits...),
		reviews:  make(map[string]models.ReviewItem, len(s.reviews)),
		batches:  make(map[string]models.EnrichmentBatch, len(s.batches)),
	}
	for id, c := range s.contacts {
		copied := *c
		snap.contacts[id] = &copied
	}
	for id, item := range s.reviews {
		snap.reviews[id] = item
	}
	for id, b := range s.batches {
		snap.batches[id] = b
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.contacts = snap.contacts
	s.order = snap.order
	s.audits = snap.audits
	s.reviews = snap.reviews
	s.batches = snap.batches
}

// reviewStoreView adapts memStore to the ReviewStore interface, whose Get collides
// with ContactStore's Get on the shared fake.
type reviewStoreView struct {
	*memStore
}

func (v reviewStoreView) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	return v.GetReview(ctx, id)
}

// batchStoreView adapts memStore to the BatchStore interface, whose Create collides
// with ReviewStore's Create on the shared fake.
type batchStoreView struct {
	*memStore
}

func (v batchStoreView) Create(ctx context.Context, batch *models.EnrichmentBatch) error {
	return v.CreateBatch(ctx, batch)
}

func lastTen(s string) string {
	digits := normalizers.DigitsOnly(s)
	if len(digits) <= 10 {
		return digits
	}
	return digits[len(digits)-10:]
}

func nameEqual(stored *string, normalized string) bool {
	if stored == nil {
		return normalized == ""
	}
	return strings.ToLower(strings.TrimSpace(*stored)) == normalized
}

func setField(c *models.Contact, field, value string) {
	v := value
	switch field {
	case models.FieldPrimaryEmail:
		c.PrimaryEmail = &v
	case models.FieldPhone:
		c.Phone = &v
	case models.FieldFirstName:
		c.FirstName = &v
	case models.FieldLastName:
		c.LastName = &v
	case models.FieldOrganization:
		c.Organization = &v
	case models.FieldAddressLine1:
		c.AddressLine1 = &v
	case models.FieldAddressLine2:
		c.AddressLine2 = &v
	case models.FieldCity:
		c.City = &v
	case models.FieldState:
		c.State = &v
	case models.FieldPostalCode:
		c.PostalCode = &v
	case models.FieldCountry:
		c.Country = &v
	}
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	enriched  map[string][]models.FieldChange
	completed []*models.RunReport
	err       error
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{enriched: make(map[string][]models.FieldChange)}
}

func (r *recordingEmitter) EmitContactEnriched(ctx context.Context, contactID string, changes []models.FieldChange) error {
	if r.err != nil {
		return r.err
	}
	r.enriched[contactID] = changes
	return nil
}

func (r *recordingEmitter) EmitBatchCompleted(ctx context.Context, report *models.RunReport) error {
	if r.err != nil {
		return r.err
	}
	r.completed = append(r.completed, report)
	return nil
}
