package models

import "time"

// AuditRecord is an immutable log entry for one applied field change. Append-only;
// never updated or deleted by this engine.
type AuditRecord struct {
	ID           string    `json:"id" db:"id"`
	ContactID    string    `json:"contact_id" db:"contact_id"`
	BatchID      string    `json:"batch_id" db:"batch_id"`
	Field        string    `json:"field" db:"field"`
	OldValue     *string   `json:"old_value,omitempty" db:"old_value"`
	NewValue     string    `json:"new_value" db:"new_value"`
	SourceSystem string    `json:"source_system" db:"source_system"`
	AppliedAt    time.Time `json:"applied_at" db:"applied_at"`
}
