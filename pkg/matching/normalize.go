package matching

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// NormalizeRecord canonicalizes an incoming record's identifying fields. It returns an
// InvalidRecordError when no identifying field (email, phone, full name) survives
// normalization; such records are skipped and counted, never fatal to the batch.
func NormalizeRecord(rec models.IncomingRecord, phoneAllDigits bool) (*models.NormalizedRecord, error) {
	phone := normalizers.NormalizePhone(rec.Phone)
	if phoneAllDigits {
		phone = normalizers.NormalizePhoneAllDigits(rec.Phone)
	}

	normalized := &models.NormalizedRecord{
		Record:    rec,
		Email:     normalizers.NormalizeEmail(rec.Email),
		Phone:     phone,
		FirstName: normalizers.NameKey(rec.FirstName),
		LastName:  normalizers.NameKey(rec.LastName),
	}

	// A single free-form name field lands in FirstName; split it per policy.
	if normalized.FirstName != "" && normalized.LastName == "" {
		first, last := normalizers.SplitName(normalized.FirstName)
		normalized.FirstName = normalizers.Lowercase(first)
		normalized.LastName = normalizers.Lowercase(last)
	}

	if !normalized.HasIdentifier() {
		reason := "no identifying field survived normalization"
		if rec.Email != "" {
			reason = "malformed email and no other identifier"
		}
		return nil, &models.InvalidRecordError{Reason: reason}
	}

	return normalized, nil
}
