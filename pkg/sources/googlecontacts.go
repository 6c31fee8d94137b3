package sources

import "github.com/Ramsey-B/clover/pkg/models"

// GoogleContactsAdapter parses rows from a Google Contacts CSV export (the
// "Google CSV" format with numbered, typed columns).
type GoogleContactsAdapter struct{}

func (a *GoogleContactsAdapter) Name() string {
	return "google_contacts"
}

func (a *GoogleContactsAdapter) Parse(row map[string]string) (*models.IncomingRecord, error) {
	rec := &models.IncomingRecord{
		SourceSystem: a.Name(),
		Email:        pick(row, "E-mail 1 - Value", "E-mail Address"),
		Phone:        pick(row, "Phone 1 - Value"),
		FirstName:    pick(row, "Given Name", "First Name"),
		LastName:     pick(row, "Family Name", "Last Name"),
		Organization: pick(row, "Organization 1 - Name", "Organization Name"),
		AddressLine1: pick(row, "Address 1 - Street"),
		City:         pick(row, "Address 1 - City"),
		State:        pick(row, "Address 1 - Region"),
		PostalCode:   pick(row, "Address 1 - Postal Code"),
		Country:      pick(row, "Address 1 - Country"),
	}

	if emptyRecord(rec) {
		return nil, ErrEmptyRow
	}
	return rec, nil
}
