package sources

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// PayPalAdapter parses rows from a PayPal activity export. PayPal exports a single
// free-form "Name" column, which is split per the engine's name policy.
type PayPalAdapter struct{}

func (a *PayPalAdapter) Name() string {
	return "paypal"
}

func (a *PayPalAdapter) Parse(row map[string]string) (*models.IncomingRecord, error) {
	first, last := normalizers.SplitName(pick(row, "Name"))

	rec := &models.IncomingRecord{
		SourceSystem: a.Name(),
		Email:        pick(row, "From Email Address", "Email"),
		Phone:        pick(row, "Contact Phone Number", "Phone"),
		FirstName:    first,
		LastName:     last,
		AddressLine1: pick(row, "Address Line 1"),
		AddressLine2: pick(row, "Address Line 2/District/Neighborhood", "Address Line 2"),
		City:         pick(row, "Town/City"),
		State:        pick(row, "State/Province/Region/County/Territory/Prefecture/Republic", "State"),
		PostalCode:   pick(row, "Zip/Postal Code"),
		Country:      pick(row, "Country"),
	}

	if emptyRecord(rec) {
		return nil, ErrEmptyRow
	}
	return rec, nil
}
