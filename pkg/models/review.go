package models

import (
	"encoding/json"
	"time"
)

// ReviewStatus is the lifecycle of a review queue entry.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusAccepted ReviewStatus = "accepted"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// ReviewItem is a low-confidence match routed to a human instead of auto-merged.
// The incoming record is stored so an accepted review can be applied later.
type ReviewItem struct {
	ID           string          `json:"id" db:"id"`
	BatchID      string          `json:"batch_id" db:"batch_id"`
	ContactID    string          `json:"contact_id" db:"contact_id"`
	SourceSystem string          `json:"source_system" db:"source_system"`
	Strategy     MatchStrategy   `json:"strategy" db:"strategy"`
	Confidence   float64         `json:"confidence" db:"confidence"`
	Incoming     json.RawMessage `json:"incoming" db:"incoming"`
	Reason       string          `json:"reason" db:"reason"`
	Status       ReviewStatus    `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy   *string         `json:"resolved_by,omitempty" db:"resolved_by"`
}

// ReviewListResponse is a paginated page of review queue entries.
type ReviewListResponse struct {
	Items      []ReviewItem `json:"items"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
}
