package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/clover/pkg/models"
)

// RecordBatchMessage is the payload integrations publish to the input topic: one
// bounded batch of raw records from a single source system.
type RecordBatchMessage struct {
	SourceSystem string                  `json:"source_system"`
	Mode         models.RunMode          `json:"mode,omitempty"`
	Records      []models.IncomingRecord `json:"records"`
}

// IncomingMessage wraps a raw Kafka message with its parsed record batch
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	Batch *RecordBatchMessage
}

// ParseRecordBatch decodes the message value into a record batch. Mode defaults to
// execute; preview batches over Kafka are pointless since nobody reads the report.
func (m *IncomingMessage) ParseRecordBatch() error {
	var batch RecordBatchMessage
	if err := json.Unmarshal(m.Value, &batch); err != nil {
		return fmt.Errorf("failed to parse record batch: %w", err)
	}

	if batch.SourceSystem == "" {
		return fmt.Errorf("record batch is missing source_system")
	}
	if len(batch.Records) == 0 {
		return fmt.Errorf("record batch is empty")
	}
	if batch.Mode == "" {
		batch.Mode = models.RunModeExecute
	}

	for i := range batch.Records {
		if batch.Records[i].SourceSystem == "" {
			batch.Records[i].SourceSystem = batch.SourceSystem
		}
	}

	m.Batch = &batch
	return nil
}
