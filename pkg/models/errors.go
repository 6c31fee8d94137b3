package models

import (
	"errors"
	"fmt"
	"strings"
)

// AmbiguousMatchError is raised when more than one non-deleted contact satisfies a
// match strategy. It is an invariant violation for that record: the engine never
// silently picks one. Fatal to the record, not to the batch.
type AmbiguousMatchError struct {
	Strategy   MatchStrategy
	Value      string
	ContactIDs []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous %s match on %q: %d contacts (%s)",
		e.Strategy, e.Value, len(e.ContactIDs), strings.Join(e.ContactIDs, ", "))
}

// InvalidRecordError is raised when every identifying field of an incoming record
// fails normalization. The record is skipped and counted, not fatal to the batch.
type InvalidRecordError struct {
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return "invalid record: " + e.Reason
}

// IsAmbiguousMatch reports whether err is an AmbiguousMatchError.
func IsAmbiguousMatch(err error) bool {
	var target *AmbiguousMatchError
	return errors.As(err, &target)
}

// IsInvalidRecord reports whether err is an InvalidRecordError.
func IsInvalidRecord(err error) bool {
	var target *InvalidRecordError
	return errors.As(err, &target)
}
