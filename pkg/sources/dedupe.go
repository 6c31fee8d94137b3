package sources

import (
	"github.com/Ramsey-B/clover/pkg/normalizers"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Dedupe collapses rows that share an incoming key (normalized email, else phone,
// else name) into one record per key: the most complete row wins, and on equal
// completeness the earlier row wins. Output preserves first-occurrence order. Rows
// with no derivable key pass through untouched.
func Dedupe(records []models.IncomingRecord) []models.IncomingRecord {
	type slot struct {
		index  int
		record models.IncomingRecord
	}

	seen := make(map[string]*slot)
	out := make([]models.IncomingRecord, 0, len(records))
	keyed := make([]*slot, 0)

	for _, rec := range records {
		key := dedupeKey(rec)
		if key == "" {
			out = append(out, rec)
			continue
		}

		if existing, ok := seen[key]; ok {
			if rec.Completeness() > existing.record.Completeness() {
				existing.record = rec
			}
			continue
		}

		s := &slot{index: len(out), record: rec}
		seen[key] = s
		keyed = append(keyed, s)
		out = append(out, rec) // placeholder, replaced below
	}

	for _, s := range keyed {
		out[s.index] = s.record
	}

	return out
}

func dedupeKey(rec models.IncomingRecord) string {
	if email := normalizers.NormalizeEmail(rec.Email); email != "" {
		return "email:" + email
	}
	if phone := normalizers.NormalizePhone(rec.Phone); phone != "" {
		return "phone:" + phone
	}
	first := normalizers.NameKey(rec.FirstName)
	last := normalizers.NameKey(rec.LastName)
	if first != "" && last != "" {
		return "name:" + first + " " + last
	}
	return ""
}
