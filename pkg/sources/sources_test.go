package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestRegistry(t *testing.T) {
	t.Run("GetIsCaseInsensitive", func(t *testing.T) {
		adapter, ok := Get("  PayPal ")
		require.True(t, ok)
		assert.Equal(t, "paypal", adapter.Name())
	})

	t.Run("UnknownSource", func(t *testing.T) {
		_, ok := Get("salesforce")
		assert.False(t, ok)
	})

	t.Run("AllSourcesRegistered", func(t *testing.T) {
		assert.ElementsMatch(t, []string{
			"paypal", "ticket_tailor", "google_contacts", "legacy_crm", "mailerlite",
		}, Names())
	})
}

func TestPayPalAdapter(t *testing.T) {
	adapter := &PayPalAdapter{}

	t.Run("SplitsFreeFormName", func(t *testing.T) {
		rec, err := adapter.Parse(map[string]string{
			"Name":               "John Ronald Doe",
			"From Email Address": "john@example.com",
			"Town/City":          "Springfield",
		})

		require.NoError(t, err)
		assert.Equal(t, "paypal", rec.SourceSystem)
		assert.Equal(t, "John", rec.FirstName)
		assert.Equal(t, "Ronald Doe", rec.LastName)
		assert.Equal(t, "john@example.com", rec.Email)
		assert.Equal(t, "Springfield", rec.City)
	})

	t.Run("EmailAlias", func(t *testing.T) {
		rec, err := adapter.Parse(map[string]string{"Email": "john@example.com"})

		require.NoError(t, err)
		assert.Equal(t, "john@example.com", rec.Email)
	})

	t.Run("EmptyRow", func(t *testing.T) {
		_, err := adapter.Parse(map[string]string{"Name": "", "Email": "  "})

		assert.ErrorIs(t, err, ErrEmptyRow)
	})
}

func TestGoogleContactsAdapter(t *testing.T) {
	adapter := &GoogleContactsAdapter{}

	rec, err := adapter.Parse(map[string]string{
		"Given Name":              "John",
		"Family Name":             "Doe",
		"E-mail 1 - Value":        "john@example.com",
		"Phone 1 - Value":         "(555) 123-4567",
		"Organization 1 - Name":   "Acme",
		"Address 1 - Street":      "123 Main St",
		"Address 1 - City":        "Springfield",
		"Address 1 - Region":      "IL",
		"Address 1 - Postal Code": "62704",
	})

	require.NoError(t, err)
	assert.Equal(t, "google_contacts", rec.SourceSystem)
	assert.Equal(t, "John", rec.FirstName)
	assert.Equal(t, "Doe", rec.LastName)
	assert.Equal(t, "(555) 123-4567", rec.Phone)
	assert.Equal(t, "Acme", rec.Organization)
	assert.Equal(t, "123 Main St", rec.AddressLine1)
	assert.Equal(t, "62704", rec.PostalCode)
}

func TestLegacyCRMAdapter(t *testing.T) {
	adapter := &LegacyCRMAdapter{}

	t.Run("SnakeCaseColumns", func(t *testing.T) {
		rec, err := adapter.Parse(map[string]string{
			"email":      "john@example.com",
			"first_name": "John",
			"last_name":  "Doe",
			"company":    "Acme",
			"zip":        "62704",
		})

		require.NoError(t, err)
		assert.Equal(t, "legacy_crm", rec.SourceSystem)
		assert.Equal(t, "Acme", rec.Organization)
		assert.Equal(t, "62704", rec.PostalCode)
	})

	t.Run("HeaderLookupIgnoresCase", func(t *testing.T) {
		rec, err := adapter.Parse(map[string]string{"EMAIL": "john@example.com"})

		require.NoError(t, err)
		assert.Equal(t, "john@example.com", rec.Email)
	})
}

func TestMailerLiteAdapter(t *testing.T) {
	adapter := &MailerLiteAdapter{}

	rec, err := adapter.Parse(map[string]string{
		"Email": "john@example.com",
		"Name":  "John",
	})

	require.NoError(t, err)
	assert.Equal(t, "mailerlite", rec.SourceSystem)
	assert.Equal(t, "John", rec.FirstName)
	assert.Empty(t, rec.LastName)
}

func TestDedupe(t *testing.T) {
	t.Run("MostCompleteRowWins", func(t *testing.T) {
		records := []models.IncomingRecord{
			{SourceSystem: "paypal", Email: "john@example.com"},
			{SourceSystem: "paypal", Email: "John@Example.COM", FirstName: "John", LastName: "Doe"},
		}

		out := Dedupe(records)

		require.Len(t, out, 1)
		assert.Equal(t, "John", out[0].FirstName)
	})

	t.Run("TieGoesToEarlierRow", func(t *testing.T) {
		records := []models.IncomingRecord{
			{SourceSystem: "paypal", Email: "john@example.com", FirstName: "John"},
			{SourceSystem: "paypal", Email: "john@example.com", FirstName: "Johnny"},
		}

		out := Dedupe(records)

		require.Len(t, out, 1)
		assert.Equal(t, "John", out[0].FirstName)
	})

	t.Run("PreservesFirstOccurrenceOrder", func(t *testing.T) {
		records := []models.IncomingRecord{
			{Email: "a@example.com"},
			{Email: "b@example.com"},
			{Email: "a@example.com", FirstName: "Alice", LastName: "Adams"},
			{Email: "c@example.com"},
		}

		out := Dedupe(records)

		require.Len(t, out, 3)
		assert.Equal(t, "a@example.com", out[0].Email)
		assert.Equal(t, "Alice", out[0].FirstName)
		assert.Equal(t, "b@example.com", out[1].Email)
		assert.Equal(t, "c@example.com", out[2].Email)
	})

	t.Run("FallsBackToPhoneThenName", func(t *testing.T) {
		records := []models.IncomingRecord{
			{Phone: "(555) 123-4567"},
			{Phone: "1-555-123-4567", FirstName: "John"},
			{FirstName: "Jane", LastName: "Doe"},
			{FirstName: "JANE", LastName: "doe", Organization: "Acme"},
		}

		out := Dedupe(records)

		require.Len(t, out, 2)
		assert.Equal(t, "John", out[0].FirstName)
		assert.Equal(t, "Acme", out[1].Organization)
	})

	t.Run("KeylessRowsPassThrough", func(t *testing.T) {
		records := []models.IncomingRecord{
			{Organization: "Acme"},
			{Organization: "Acme"},
		}

		out := Dedupe(records)

		assert.Len(t, out, 2)
	})
}
