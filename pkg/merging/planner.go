// Package merging computes the minimal additive change-set for a matched contact
package merging

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Planner turns (matched contact, incoming record) into an ordered list of proposed
// field changes. A change is proposed only when the incoming value is non-empty and
// the contact's value is empty; existing values are never overwritten. The planner is
// pure data in, pure data out: nothing is mutated.
type Planner struct{}

// NewPlanner creates a new Planner
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan computes the additive change-set. Proposed values are the canonical forms:
// normalized email and phone, title-cased names, trimmed text for the rest. Every
// proposal carries the batch start time.
func (p *Planner) Plan(contact *models.Contact, rec *models.NormalizedRecord, batchStart time.Time) []models.FieldChange {
	changes := make([]models.FieldChange, 0)

	for _, field := range models.MergeableFields {
		value := p.proposedValue(rec, field)
		if value == "" || !contact.FieldEmpty(field) {
			continue
		}
		changes = append(changes, models.FieldChange{
			ContactID:    contact.ID,
			Field:        field,
			NewValue:     value,
			SourceSystem: rec.Record.SourceSystem,
			ProposedAt:   batchStart,
			Status:       models.ChangeStatusProposed,
		})
	}

	changes = append(changes, p.planAddressUnit(contact, rec, batchStart)...)

	return changes
}

// planAddressUnit proposes the postal address as a unit: all of line1, city, state and
// postal code together, and only when the contact has none of them set. A source that
// supplies only part of an address proposes nothing; mixing address components from
// different sources is disallowed.
func (p *Planner) planAddressUnit(contact *models.Contact, rec *models.NormalizedRecord, batchStart time.Time) []models.FieldChange {
	if contact.HasAnyAddressComponent() {
		return nil
	}

	for _, field := range models.AddressUnitFields {
		if rec.Record.FieldValue(field) == "" {
			return nil
		}
	}

	fields := append([]string{}, models.AddressUnitFields...)
	// line2 and country ride along with the unit when present
	if rec.Record.FieldValue(models.FieldAddressLine2) != "" {
		fields = append(fields, models.FieldAddressLine2)
	}
	if rec.Record.FieldValue(models.FieldCountry) != "" && contact.FieldEmpty(models.FieldCountry) {
		fields = append(fields, models.FieldCountry)
	}

	changes := make([]models.FieldChange, 0, len(fields))
	for _, field := range fields {
		changes = append(changes, models.FieldChange{
			ContactID:    contact.ID,
			Field:        field,
			NewValue:     rec.Record.FieldValue(field),
			SourceSystem: rec.Record.SourceSystem,
			ProposedAt:   batchStart,
			Status:       models.ChangeStatusProposed,
		})
	}
	return changes
}

func (p *Planner) proposedValue(rec *models.NormalizedRecord, field string) string {
	switch field {
	case models.FieldPrimaryEmail:
		return rec.Email
	case models.FieldPhone:
		return rec.Phone
	case models.FieldFirstName:
		return normalizers.NormalizeName(rec.FirstName)
	case models.FieldLastName:
		return normalizers.NormalizeName(rec.LastName)
	default:
		return rec.Record.FieldValue(field)
	}
}
