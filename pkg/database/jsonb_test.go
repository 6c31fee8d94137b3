package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONB(t *testing.T) {
	type patch struct {
		Source string `json:"source"`
	}

	t.Run("ValueMarshalsData", func(t *testing.T) {
		v, err := NewJSONB(patch{Source: "paypal"}).Value()

		require.NoError(t, err)
		assert.JSONEq(t, `{"source":"paypal"}`, string(v.([]byte)))
	})

	t.Run("ScanUnmarshalsBytes", func(t *testing.T) {
		var p JSONB[patch]

		require.NoError(t, p.Scan([]byte(`{"source":"mailerlite"}`)))
		assert.Equal(t, "mailerlite", p.Data.Source)
	})

	t.Run("ScanRejectsNonBytes", func(t *testing.T) {
		var p JSONB[patch]

		assert.Error(t, p.Scan("not bytes"))
	})
}
