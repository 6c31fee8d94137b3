package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Mergeable field names. These are the only fields the enrichment engine will ever
// write, and they map 1:1 to columns on the contacts table.
const (
	FieldPrimaryEmail = "primary_email"
	FieldPhone        = "phone"
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldOrganization = "organization"
	FieldAddressLine1 = "address_line1"
	FieldAddressLine2 = "address_line2"
	FieldCity         = "city"
	FieldState        = "state"
	FieldPostalCode   = "postal_code"
	FieldCountry      = "country"
)

// AddressUnitFields are the address components that are proposed as a unit: either
// the contact has none of them set and all incoming components are proposed together,
// or nothing is proposed. Partial address replacement would mix components from
// different sources.
var AddressUnitFields = []string{FieldAddressLine1, FieldCity, FieldState, FieldPostalCode}

// MergeableFields is the ordered list of fields the planner considers, excluding the
// address unit which is handled separately.
var MergeableFields = []string{
	FieldPrimaryEmail,
	FieldPhone,
	FieldFirstName,
	FieldLastName,
	FieldOrganization,
}

// Contact is the canonical persisted contact record. Contacts are created by a
// separate import path; this engine only fills empty fields on them.
type Contact struct {
	ID              string     `json:"id" db:"id"`
	PrimaryEmail    *string    `json:"primary_email,omitempty" db:"primary_email"`
	SecondaryEmails StringList `json:"secondary_emails,omitempty" db:"secondary_emails"`
	Phone           *string    `json:"phone,omitempty" db:"phone"`
	FirstName       *string    `json:"first_name,omitempty" db:"first_name"`
	LastName        *string    `json:"last_name,omitempty" db:"last_name"`
	Organization    *string    `json:"organization,omitempty" db:"organization"`
	AddressLine1    *string    `json:"address_line1,omitempty" db:"address_line1"`
	AddressLine2    *string    `json:"address_line2,omitempty" db:"address_line2"`
	City            *string    `json:"city,omitempty" db:"city"`
	State           *string    `json:"state,omitempty" db:"state"`
	PostalCode      *string    `json:"postal_code,omitempty" db:"postal_code"`
	Country         *string    `json:"country,omitempty" db:"country"`
	Provenance      Provenance `json:"provenance,omitempty" db:"provenance"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// FieldValue returns the current value of a mergeable field, or "" if unset.
func (c *Contact) FieldValue(field string) string {
	var v *string
	switch field {
	case FieldPrimaryEmail:
		v = c.PrimaryEmail
	case FieldPhone:
		v = c.Phone
	case FieldFirstName:
		v = c.FirstName
	case FieldLastName:
		v = c.LastName
	case FieldOrganization:
		v = c.Organization
	case FieldAddressLine1:
		v = c.AddressLine1
	case FieldAddressLine2:
		v = c.AddressLine2
	case FieldCity:
		v = c.City
	case FieldState:
		v = c.State
	case FieldPostalCode:
		v = c.PostalCode
	case FieldCountry:
		v = c.Country
	}
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// FieldEmpty reports whether a mergeable field is currently null or blank.
func (c *Contact) FieldEmpty(field string) bool {
	return c.FieldValue(field) == ""
}

// HasAnyAddressComponent reports whether any field of the address unit is set.
func (c *Contact) HasAnyAddressComponent() bool {
	for _, field := range AddressUnitFields {
		if !c.FieldEmpty(field) {
			return true
		}
	}
	return false
}

// FullName returns "first last" with empty parts omitted.
func (c *Contact) FullName() string {
	parts := make([]string, 0, 2)
	if c.FirstName != nil && strings.TrimSpace(*c.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*c.FirstName))
	}
	if c.LastName != nil && strings.TrimSpace(*c.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*c.LastName))
	}
	return strings.Join(parts, " ")
}

// FieldProvenance records which external system last supplied a field's value.
type FieldProvenance struct {
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provenance maps field name to its source tag. Stored as jsonb.
type Provenance map[string]FieldProvenance

func (p Provenance) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal(Provenance{})
	}
	return json.Marshal(p)
}

func (p *Provenance) Scan(src any) error {
	if src == nil {
		*p = Provenance{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("Provenance.Scan: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, p)
}

// StringList is a jsonb-backed list of strings (secondary emails).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("StringList.Scan: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, l)
}
