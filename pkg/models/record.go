package models

import "strings"

// IncomingRecord is a transient, source-tagged bag of identity fields produced by a
// vendor adapter. It is never persisted directly: it is either merged into an existing
// Contact or reported as a new-contact candidate.
type IncomingRecord struct {
	SourceSystem string `json:"source_system" validate:"required"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Organization string `json:"organization,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
}

// FieldValue returns the raw incoming value for a mergeable field.
func (r *IncomingRecord) FieldValue(field string) string {
	switch field {
	case FieldPrimaryEmail:
		return strings.TrimSpace(r.Email)
	case FieldPhone:
		return strings.TrimSpace(r.Phone)
	case FieldFirstName:
		return strings.TrimSpace(r.FirstName)
	case FieldLastName:
		return strings.TrimSpace(r.LastName)
	case FieldOrganization:
		return strings.TrimSpace(r.Organization)
	case FieldAddressLine1:
		return strings.TrimSpace(r.AddressLine1)
	case FieldAddressLine2:
		return strings.TrimSpace(r.AddressLine2)
	case FieldCity:
		return strings.TrimSpace(r.City)
	case FieldState:
		return strings.TrimSpace(r.State)
	case FieldPostalCode:
		return strings.TrimSpace(r.PostalCode)
	case FieldCountry:
		return strings.TrimSpace(r.Country)
	}
	return ""
}

// Completeness counts non-empty identity fields. Used for the most-complete-row-wins
// tie-break when the same key appears twice in one batch.
func (r *IncomingRecord) Completeness() int {
	count := 0
	for _, v := range []string{
		r.Email, r.Phone, r.FirstName, r.LastName, r.Organization,
		r.AddressLine1, r.AddressLine2, r.City, r.State, r.PostalCode, r.Country,
	} {
		if strings.TrimSpace(v) != "" {
			count++
		}
	}
	return count
}

// NormalizedRecord is an IncomingRecord after field canonicalization. The normalized
// identifiers are what the match strategies compare; the embedded record is what the
// planner merges from.
type NormalizedRecord struct {
	Record    IncomingRecord
	Email     string // "" when missing or malformed
	Phone     string // "" when fewer than 10 digits
	FirstName string
	LastName  string
}

// FullName returns the normalized "first last" form, or "" when either part is missing.
func (n *NormalizedRecord) FullName() string {
	if n.FirstName == "" || n.LastName == "" {
		return ""
	}
	return n.FirstName + " " + n.LastName
}

// HasIdentifier reports whether at least one identifying field survived normalization.
func (n *NormalizedRecord) HasIdentifier() bool {
	return n.Email != "" || n.Phone != "" || n.FullName() != ""
}
