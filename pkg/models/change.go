package models

import "time"

// ChangeStatus tracks a proposed field change through the apply phase.
type ChangeStatus string

const (
	// ChangeStatusProposed is the planner's output; preview mode never advances past it.
	ChangeStatusProposed ChangeStatus = "proposed"
	// ChangeStatusApplied means the conditional update found the field still empty and wrote it.
	ChangeStatusApplied ChangeStatus = "applied"
	// ChangeStatusSkippedRace means a concurrent writer filled the field between
	// planning and applying. Not retried.
	ChangeStatusSkippedRace ChangeStatus = "skipped_race"
)

// FieldChange is one additive proposal: fill an empty field on a contact with a
// non-empty incoming value. Existing values are never overwritten.
type FieldChange struct {
	ContactID    string       `json:"contact_id"`
	Field        string       `json:"field"`
	NewValue     string       `json:"new_value"`
	SourceSystem string       `json:"source_system"`
	ProposedAt   time.Time    `json:"proposed_at"`
	Status       ChangeStatus `json:"status"`
}
