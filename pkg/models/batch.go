package models

import "time"

// RunMode selects whether a batch only previews its decisions or applies them.
type RunMode string

const (
	RunModePreview RunMode = "preview"
	RunModeExecute RunMode = "execute"
)

// BatchStatus is the batch state machine: a batch previews, then either commits
// atomically or rolls back with no persisted effect.
type BatchStatus string

const (
	BatchStatusPreview    BatchStatus = "preview"
	BatchStatusApplying   BatchStatus = "applying"
	BatchStatusCommitted  BatchStatus = "committed"
	BatchStatusRolledBack BatchStatus = "rolled_back"
)

// EnrichmentBatch is one transactional run of the engine over a bounded set of
// incoming records.
type EnrichmentBatch struct {
	ID                   string      `json:"id" db:"id"`
	SourceSystem         string      `json:"source_system" db:"source_system"`
	Mode                 RunMode     `json:"mode" db:"mode"`
	Status               BatchStatus `json:"status" db:"status"`
	Total                int         `json:"total" db:"total"`
	Matched              int         `json:"matched" db:"matched"`
	Unmatched            int         `json:"unmatched" db:"unmatched"`
	Applied              int         `json:"applied" db:"applied"`
	SkippedRace          int         `json:"skipped_race" db:"skipped_race"`
	SkippedLowConfidence int         `json:"skipped_low_confidence" db:"skipped_low_confidence"`
	Errors               int         `json:"errors" db:"errors"`
	StartedAt            time.Time   `json:"started_at" db:"started_at"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
}

// RecordError reports a per-record recoverable condition (invalid record, ambiguous
// match). These accumulate into the run report and never abort the batch.
type RecordError struct {
	Index        int    `json:"index"`
	SourceSystem string `json:"source_system"`
	Reason       string `json:"reason"`
}

// RunReport is the externally observable output of a batch run. Preview and execute
// produce identical match/merge decisions; only the change statuses differ.
type RunReport struct {
	BatchID              string           `json:"batch_id"`
	SourceSystem         string           `json:"source_system"`
	Mode                 RunMode          `json:"mode"`
	Status               BatchStatus      `json:"status"`
	Total                int              `json:"total"`
	Matched              int              `json:"matched"`
	Unmatched            int              `json:"unmatched"`
	Applied              int              `json:"applied"`
	SkippedRace          int              `json:"skipped_race"`
	SkippedLowConfidence int              `json:"skipped_low_confidence"`
	Errors               int              `json:"errors"`
	Changes              []FieldChange    `json:"changes"`
	NewContacts          []IncomingRecord `json:"new_contacts,omitempty"`
	Review               []ReviewItem     `json:"review,omitempty"`
	RecordErrors         []RecordError    `json:"record_errors,omitempty"`
	StartedAt            time.Time        `json:"started_at"`
}
