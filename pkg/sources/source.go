// Package sources adapts vendor export rows into typed incoming records
package sources

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Adapter turns one vendor CSV row (header name -> cell value) into a typed
// IncomingRecord. Each external export source has its own column naming; the engine
// never sees vendor columns.
type Adapter interface {
	Name() string
	Parse(row map[string]string) (*models.IncomingRecord, error)
}

// registry holds all registered adapters by source-system name
var registry = make(map[string]Adapter)

func init() {
	Register(&PayPalAdapter{})
	Register(&TicketTailorAdapter{})
	Register(&GoogleContactsAdapter{})
	Register(&LegacyCRMAdapter{})
	Register(&MailerLiteAdapter{})
}

// Register adds an adapter to the registry
func Register(a Adapter) {
	registry[a.Name()] = a
}

// Get retrieves an adapter by source-system name
func Get(name string) (Adapter, bool) {
	a, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Names returns the registered source-system names
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// ErrEmptyRow is returned when a row carries no usable cell at all.
var ErrEmptyRow = fmt.Errorf("row has no usable fields")

// pick returns the first non-empty cell among the given column aliases. Header
// lookups are case-insensitive and trimmed.
func pick(row map[string]string, aliases ...string) string {
	for _, alias := range aliases {
		for key, value := range row {
			if strings.EqualFold(strings.TrimSpace(key), alias) {
				if v := strings.TrimSpace(value); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

func emptyRecord(rec *models.IncomingRecord) bool {
	return rec.Completeness() == 0
}
