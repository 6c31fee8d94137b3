package sources

import "github.com/Ramsey-B/clover/pkg/models"

// TicketTailorAdapter parses rows from a Ticket Tailor order export.
type TicketTailorAdapter struct{}

func (a *TicketTailorAdapter) Name() string {
	return "ticket_tailor"
}

func (a *TicketTailorAdapter) Parse(row map[string]string) (*models.IncomingRecord, error) {
	rec := &models.IncomingRecord{
		SourceSystem: a.Name(),
		Email:        pick(row, "Buyer email", "Email"),
		Phone:        pick(row, "Buyer phone", "Phone"),
		FirstName:    pick(row, "Buyer first name", "First name"),
		LastName:     pick(row, "Buyer last name", "Last name"),
	}

	if emptyRecord(rec) {
		return nil, ErrEmptyRow
	}
	return rec, nil
}
