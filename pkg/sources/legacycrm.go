package sources

import "github.com/Ramsey-B/clover/pkg/models"

// LegacyCRMAdapter parses rows dumped from the retired CRM's contacts table.
type LegacyCRMAdapter struct{}

func (a *LegacyCRMAdapter) Name() string {
	return "legacy_crm"
}

func (a *LegacyCRMAdapter) Parse(row map[string]string) (*models.IncomingRecord, error) {
	rec := &models.IncomingRecord{
		SourceSystem: a.Name(),
		Email:        pick(row, "email", "email_address"),
		Phone:        pick(row, "phone", "phone_number", "home_phone"),
		FirstName:    pick(row, "first_name", "fname"),
		LastName:     pick(row, "last_name", "lname"),
		Organization: pick(row, "company", "organization"),
		AddressLine1: pick(row, "address1", "street"),
		AddressLine2: pick(row, "address2"),
		City:         pick(row, "city"),
		State:        pick(row, "state"),
		PostalCode:   pick(row, "zip", "postal_code"),
		Country:      pick(row, "country"),
	}

	if emptyRecord(rec) {
		return nil, ErrEmptyRow
	}
	return rec, nil
}
