package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestParseRecordBatch(t *testing.T) {
	t.Run("ValidBatch", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{
			"source_system": "paypal",
			"mode": "preview",
			"records": [{"email": "john@example.com"}]
		}`)}

		require.NoError(t, msg.ParseRecordBatch())
		require.NotNil(t, msg.Batch)
		assert.Equal(t, "paypal", msg.Batch.SourceSystem)
		assert.Equal(t, models.RunModePreview, msg.Batch.Mode)
		require.Len(t, msg.Batch.Records, 1)
	})

	t.Run("ModeDefaultsToExecute", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{
			"source_system": "paypal",
			"records": [{"email": "john@example.com"}]
		}`)}

		require.NoError(t, msg.ParseRecordBatch())
		assert.Equal(t, models.RunModeExecute, msg.Batch.Mode)
	})

	t.Run("RecordSourceSystemBackfilled", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{
			"source_system": "mailerlite",
			"records": [
				{"email": "a@example.com"},
				{"email": "b@example.com", "source_system": "paypal"}
			]
		}`)}

		require.NoError(t, msg.ParseRecordBatch())
		assert.Equal(t, "mailerlite", msg.Batch.Records[0].SourceSystem)
		assert.Equal(t, "paypal", msg.Batch.Records[1].SourceSystem)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{not json`)}

		err := msg.ParseRecordBatch()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse record batch")
	})

	t.Run("MissingSourceSystem", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{"records": [{"email": "a@example.com"}]}`)}

		err := msg.ParseRecordBatch()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source_system")
	})

	t.Run("EmptyRecords", func(t *testing.T) {
		msg := &IncomingMessage{Value: []byte(`{"source_system": "paypal", "records": []}`)}

		assert.Error(t, msg.ParseRecordBatch())
	})
}
