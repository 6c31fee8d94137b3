package sources

import "github.com/Ramsey-B/clover/pkg/models"

// MailerLiteAdapter parses rows from a MailerLite subscriber export.
type MailerLiteAdapter struct{}

func (a *MailerLiteAdapter) Name() string {
	return "mailerlite"
}

func (a *MailerLiteAdapter) Parse(row map[string]string) (*models.IncomingRecord, error) {
	rec := &models.IncomingRecord{
		SourceSystem: a.Name(),
		Email:        pick(row, "Email", "email"),
		Phone:        pick(row, "Phone", "phone"),
		FirstName:    pick(row, "Name", "name", "First name"),
		LastName:     pick(row, "Last name", "last_name"),
		Organization: pick(row, "Company", "company"),
		City:         pick(row, "City", "city"),
		State:        pick(row, "State", "state"),
		PostalCode:   pick(row, "Zip", "zip"),
		Country:      pick(row, "Country", "country"),
	}

	if emptyRecord(rec) {
		return nil, ErrEmptyRow
	}
	return rec, nil
}
