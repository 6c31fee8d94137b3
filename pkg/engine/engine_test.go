package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func newTestEngine(store *memStore, emitter EventEmitter) *Engine {
	return NewEngine(
		getTestLogger(),
		store,
		store,
		reviewStoreView{store},
		batchStoreView{store},
		store,
		emitter,
		Config{AutoApplyThreshold: 0.8},
	)
}

func seedContact(store *memStore, id, email string) {
	e := email
	store.addContact(models.Contact{ID: id, PrimaryEmail: &e})
}

func TestRunPreviewWritesNothing(t *testing.T) {
	store := newMemStore()
	seedContact(store, "c-1", "john@example.com")
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
		{Email: "john@example.com", Phone: "(555) 123-4567"},
	}, models.RunModePreview)

	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusPreview, report.Status)
	assert.Equal(t, 1, report.Matched)
	require.Len(t, report.Changes, 1)
	assert.Equal(t, models.ChangeStatusProposed, report.Changes[0].Status)
	assert.Equal(t, models.FieldPhone, report.Changes[0].Field)
	assert.Equal(t, "5551234567", report.Changes[0].NewValue)

	assert.Empty(t, store.audits)
	assert.Empty(t, store.batches)
	assert.Nil(t, store.contacts["c-1"].Phone)
}

func TestRunExecuteAppliesAndAudits(t *testing.T) {
	store := newMemStore()
	seedContact(store, "c-1", "john@example.com")
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
		{Email: "john@example.com", Phone: "(555) 123-4567", FirstName: "john", LastName: "doe"},
	}, models.RunModeExecute)

	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCommitted, report.Status)
	assert.Equal(t, 3, report.Applied)

	contact := store.contacts["c-1"]
	require.NotNil(t, contact.Phone)
	assert.Equal(t, "5551234567", *contact.Phone)
	require.NotNil(t, contact.FirstName)
	assert.Equal(t, "John", *contact.FirstName)
	assert.Equal(t, "paypal", contact.Provenance[models.FieldPhone].Source)

	require.Len(t, store.audits, 3)
	for _, audit := range store.audits {
		assert.Equal(t, report.BatchID, audit.BatchID)
		assert.Equal(t, "c-1", audit.ContactID)
		assert.Equal(t, report.StartedAt, audit.AppliedAt)
	}

	batch, ok := store.batches[report.BatchID]
	require.True(t, ok)
	assert.Equal(t, models.BatchStatusCommitted, batch.Status)
	assert.Equal(t, 3, batch.Applied)
	assert.Equal(t, 1, batch.Matched)
	require.NotNil(t, batch.CompletedAt)
}

func TestRunPreviewMatchesExecuteDecisions(t *testing.T) {
	records := []models.IncomingRecord{
		{Email: "john@example.com", Phone: "555-123-4567"},
		{Email: "nobody@example.com", FirstName: "New", LastName: "Person"},
		{Email: "not-an-email"},
	}

	previewStore := newMemStore()
	seedContact(previewStore, "c-1", "john@example.com")
	preview, err := newTestEngine(previewStore, nil).Run(context.Background(), "paypal", records, models.RunModePreview)
	require.NoError(t, err)

	executeStore := newMemStore()
	seedContact(executeStore, "c-1", "john@example.com")
	execute, err := newTestEngine(executeStore, nil).Run(context.Background(), "paypal", records, models.RunModeExecute)
	require.NoError(t, err)

	assert.Equal(t, preview.Matched, execute.Matched)
	assert.Equal(t, preview.Unmatched, execute.Unmatched)
	assert.Equal(t, preview.Errors, execute.Errors)
	require.Equal(t, len(preview.Changes), len(execute.Changes))
	for i := range preview.Changes {
		assert.Equal(t, preview.Changes[i].Field, execute.Changes[i].Field)
		assert.Equal(t, preview.Changes[i].NewValue, execute.Changes[i].NewValue)
	}
	assert.Equal(t, 0, preview.Applied)
	assert.Equal(t, len(execute.Changes), execute.Applied)
}

func TestRunConcurrentWriteSkippedNotRetried(t *testing.T) {
	store := newMemStore()
	seedContact(store, "c-1", "john@example.com")
	store.beforeConditionalUpdate = func(s *memStore, contactID, field string) {
		if field == models.FieldPhone {
			setField(s.contacts[contactID], field, "9998887777")
		}
	}
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
		{Email: "john@example.com", Phone: "555-123-4567", Organization: "Acme"},
	}, models.RunModeExecute)

	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCommitted, report.Status)
	assert.Equal(t, 1, report.SkippedRace)
	assert.Equal(t, 1, report.Applied)

	phoneChange := report.Changes[0]
	assert.Equal(t, models.FieldPhone, phoneChange.Field)
	assert.Equal(t, models.ChangeStatusSkippedRace, phoneChange.Status)

	// the winner's value survives and no audit row is written for the loser
	assert.Equal(t, "9998887777", *store.contacts["c-1"].Phone)
	require.Len(t, store.audits, 1)
	assert.Equal(t, models.FieldOrganization, store.audits[0].Field)
}

func TestRunStoreFailureRollsBackEverything(t *testing.T) {
	store := newMemStore()
	seedContact(store, "c-1", "john@example.com")
	seedContact(store, "c-2", "jane@example.com")
	// the first record's change commits cleanly; the second one's audit write fails
	store.failOn = "audits.Append"
	store.failAfterAudits = 1
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
		{Email: "john@example.com", Phone: "555-123-4567"},
		{Email: "jane@example.com", Phone: "555-987-6543"},
	}, models.RunModeExecute)

	require.Error(t, err)
	assert.Nil(t, report)

	// no partial state: earlier records' updates, the batch row, everything is gone
	assert.Nil(t, store.contacts["c-1"].Phone)
	assert.Nil(t, store.contacts["c-2"].Phone)
	assert.Empty(t, store.audits)
	assert.Empty(t, store.batches)
}

func TestRunExecuteIsIdempotent(t *testing.T) {
	store := newMemStore()
	seedContact(store, "c-1", "john@example.com")
	eng := newTestEngine(store, nil)

	records := []models.IncomingRecord{
		{Email: "john@example.com", Phone: "555-123-4567", FirstName: "John", LastName: "Doe"},
	}

	first, err := eng.Run(context.Background(), "paypal", records, models.RunModeExecute)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Applied)

	second, err := eng.Run(context.Background(), "paypal", records, models.RunModeExecute)
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCommitted, second.Status)
	assert.Equal(t, 0, second.Applied)
	assert.Empty(t, second.Changes)
	assert.Len(t, store.audits, 3)
}

func TestRunPhoneNameMatchNeverProposesOverEmail(t *testing.T) {
	store := newMemStore()
	email, first, last, phone := "b@x.com", "Jane", "Doe", "5551234567"
	store.addContact(models.Contact{
		ID: "c-1", PrimaryEmail: &email, FirstName: &first, LastName: &last, Phone: &phone,
	})
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "legacy_crm", []models.IncomingRecord{
		{FirstName: "jane", LastName: "doe", Phone: "(555) 123-4567", Organization: "Acme"},
	}, models.RunModeExecute)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
	// every identity field is already populated; only the organization fills
	require.Len(t, report.Changes, 1)
	assert.Equal(t, models.FieldOrganization, report.Changes[0].Field)
	assert.Equal(t, "b@x.com", *store.contacts["c-1"].PrimaryEmail)
}

func TestRunUnmatchedRecordsAreReported(t *testing.T) {
	store := newMemStore()
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "mailerlite", []models.IncomingRecord{
		{Email: "new@example.com", FirstName: "New", LastName: "Person"},
	}, models.RunModeExecute)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Unmatched)
	require.Len(t, report.NewContacts, 1)
	assert.Equal(t, "new@example.com", report.NewContacts[0].Email)
	// reported, never created: contact creation belongs to the import path
	assert.Empty(t, store.contacts)
}

func TestRunSoftDeletedContactsAreNeverMatched(t *testing.T) {
	t.Run("DeletedEmailMatchStaysUnmatched", func(t *testing.T) {
		store := newMemStore()
		email := "john@example.com"
		deleted := time.Now().UTC()
		store.addContact(models.Contact{ID: "c-gone", PrimaryEmail: &email, DeletedAt: &deleted})
		eng := newTestEngine(store, nil)

		report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
			{Email: "john@example.com", Phone: "555-123-4567"},
		}, models.RunModeExecute)

		require.NoError(t, err)
		assert.Equal(t, 0, report.Matched)
		assert.Equal(t, 1, report.Unmatched)
		assert.Empty(t, report.Changes)

		// the deleted contact is never resurrected by an enrichment write
		assert.Nil(t, store.contacts["c-gone"].Phone)
	})

	t.Run("DeletedContactDoesNotShadowLowerStrategies", func(t *testing.T) {
		store := newMemStore()
		email := "john@example.com"
		deleted := time.Now().UTC()
		store.addContact(models.Contact{ID: "c-gone", PrimaryEmail: &email, DeletedAt: &deleted})
		first, last := "John", "Doe"
		store.addContact(models.Contact{ID: "c-live", FirstName: &first, LastName: &last})
		eng := newTestEngine(store, nil)

		report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
			{Email: "john@example.com", FirstName: "John", LastName: "Doe"},
		}, models.RunModeExecute)

		require.NoError(t, err)
		// the email strategy finds nothing, so the name strategy routes to review
		assert.Equal(t, 1, report.Matched)
		assert.Equal(t, 1, report.SkippedLowConfidence)
		require.Len(t, store.reviews, 1)
		for _, item := range store.reviews {
			assert.Equal(t, "c-live", item.ContactID)
		}
	})
}

func TestRunAmbiguousMatchIsRecordError(t *testing.T) {
	store := newMemStore()
	seedContact(store, "c-1", "shared@example.com")
	seedContact(store, "c-2", "shared@example.com")
	seedContact(store, "c-3", "john@example.com")
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
		{Email: "shared@example.com", Phone: "555-123-4567"},
		{Email: "john@example.com", Organization: "Acme"},
	}, models.RunModeExecute)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	require.Len(t, report.RecordErrors, 1)
	assert.Equal(t, 0, report.RecordErrors[0].Index)
	assert.Contains(t, report.RecordErrors[0].Reason, "ambiguous")

	// the ambiguous record never blocks the rest of the batch
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Applied)
}

func TestRunLowConfidenceGoesToReview(t *testing.T) {
	store := newMemStore()
	first, last := "John", "Doe"
	store.addContact(models.Contact{ID: "c-1", FirstName: &first, LastName: &last})
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "legacy_crm", []models.IncomingRecord{
		{FirstName: "John", LastName: "Doe", Organization: "Acme"},
	}, models.RunModeExecute)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.SkippedLowConfidence)
	assert.Empty(t, report.Changes)

	require.Len(t, store.reviews, 1)
	for _, item := range store.reviews {
		assert.Equal(t, "c-1", item.ContactID)
		assert.Equal(t, models.MatchStrategyName, item.Strategy)
		assert.Equal(t, models.ReviewStatusPending, item.Status)
		assert.Equal(t, report.BatchID, item.BatchID)
	}

	// nothing written to the contact without human sign-off
	assert.Nil(t, store.contacts["c-1"].Organization)
}

func TestRunDeduplicatesBatchRows(t *testing.T) {
	store := newMemStore()
	seedContact(store, "c-1", "john@example.com")
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
		{Email: "john@example.com", Phone: "555-123-4567"},
		{Email: "John@Example.COM", Phone: "555-123-4567", Organization: "Acme"},
	}, models.RunModeExecute)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	// the more complete duplicate wins
	assert.Equal(t, 2, report.Applied)
	require.NotNil(t, store.contacts["c-1"].Organization)
	assert.Equal(t, "Acme", *store.contacts["c-1"].Organization)
}

func TestRunEmitsEventsAfterCommit(t *testing.T) {
	store := newMemStore()
	seedContact(store, "c-1", "john@example.com")
	emitter := newRecordingEmitter()
	eng := newTestEngine(store, emitter)

	t.Run("ExecuteEmits", func(t *testing.T) {
		report, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
			{Email: "john@example.com", Phone: "555-123-4567"},
		}, models.RunModeExecute)

		require.NoError(t, err)
		require.Contains(t, emitter.enriched, "c-1")
		assert.Len(t, emitter.enriched["c-1"], 1)
		require.Len(t, emitter.completed, 1)
		assert.Equal(t, report.BatchID, emitter.completed[0].BatchID)
	})

	t.Run("PreviewDoesNotEmit", func(t *testing.T) {
		before := len(emitter.completed)
		_, err := eng.Run(context.Background(), "paypal", []models.IncomingRecord{
			{Email: "john@example.com", Organization: "Acme"},
		}, models.RunModePreview)

		require.NoError(t, err)
		assert.Len(t, emitter.completed, before)
	})

	t.Run("EmitterFailureDoesNotFailTheBatch", func(t *testing.T) {
		failing := newRecordingEmitter()
		failing.err = assert.AnError
		failStore := newMemStore()
		seedContact(failStore, "c-2", "jane@example.com")

		report, err := newTestEngine(failStore, failing).Run(context.Background(), "paypal", []models.IncomingRecord{
			{Email: "jane@example.com", Phone: "555-987-6543"},
		}, models.RunModeExecute)

		require.NoError(t, err)
		assert.Equal(t, models.BatchStatusCommitted, report.Status)
	})
}

func TestRunEmptyBatch(t *testing.T) {
	store := newMemStore()
	eng := newTestEngine(store, nil)

	report, err := eng.Run(context.Background(), "paypal", nil, models.RunModeExecute)

	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusCommitted, report.Status)
	assert.Equal(t, 0, report.Total)
	assert.Len(t, store.batches, 1)
}
