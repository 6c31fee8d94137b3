package models

// MatchStrategy identifies which rule matched an incoming record to a contact.
// Strategies are ordered by certainty; the engine stops at the first hit.
type MatchStrategy string

const (
	MatchStrategyEmail     MatchStrategy = "email"
	MatchStrategyPhoneName MatchStrategy = "phone_name"
	MatchStrategyName      MatchStrategy = "name"
	MatchStrategyNone      MatchStrategy = "none"
)

// Confidence assigned to each strategy.
const (
	ConfidenceEmail     = 1.0
	ConfidencePhoneName = 0.9
	ConfidenceName      = 0.7
)

// MatchResult is produced per incoming record and consumed immediately by the merge
// planner. It is never persisted.
type MatchResult struct {
	Matched    bool          `json:"matched"`
	Strategy   MatchStrategy `json:"strategy"`
	Confidence float64       `json:"confidence"`
	ContactID  string        `json:"contact_id,omitempty"`
	Reason     string        `json:"reason"`
}
