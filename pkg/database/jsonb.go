package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB adapts a typed value to a jsonb column: marshals on write, unmarshals on
// read. Repositories pass these instead of hand-encoded []byte arguments.
type JSONB[T any] struct {
	Data T
}

func NewJSONB[T any](data T) JSONB[T] {
	return JSONB[T]{Data: data}
}

func (p JSONB[T]) Value() (driver.Value, error) {
	return json.Marshal(p.Data)
}

func (p *JSONB[T]) Scan(src any) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("JSONB.Scan: expected []byte, got %T", src)
	}
	return json.Unmarshal(b, &p.Data)
}
