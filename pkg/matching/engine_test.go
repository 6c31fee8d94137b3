package matching

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/pkg/models"
)

// fakeContactReader serves canned results per strategy so tests can force any
// precedence path.
type fakeContactReader struct {
	byEmail     []models.Contact
	byPhoneName []models.Contact
	byName      []models.Contact

	emailCalls     int
	phoneNameCalls int
	nameCalls      int

	err error
}

func (f *fakeContactReader) FindByEmail(ctx context.Context, email string) ([]models.Contact, error) {
	f.emailCalls++
	return f.byEmail, f.err
}

func (f *fakeContactReader) FindByPhoneAndName(ctx context.Context, phone, firstName, lastName string) ([]models.Contact, error) {
	f.phoneNameCalls++
	return f.byPhoneName, f.err
}

func (f *fakeContactReader) FindByName(ctx context.Context, firstName, lastName string) ([]models.Contact, error) {
	f.nameCalls++
	return f.byName, f.err
}

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func normalized(t *testing.T, rec models.IncomingRecord) *models.NormalizedRecord {
	t.Helper()
	n, err := NormalizeRecord(rec, false)
	require.NoError(t, err)
	return n
}

func TestMatchEmailStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("SingleHit", func(t *testing.T) {
		reader := &fakeContactReader{byEmail: []models.Contact{{ID: "c-1"}}}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		result, contact, err := engine.Match(ctx, normalized(t, models.IncomingRecord{
			Email:     "John@Example.com",
			FirstName: "John",
			LastName:  "Doe",
		}))

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.Matched)
		assert.Equal(t, models.MatchStrategyEmail, result.Strategy)
		assert.Equal(t, models.ConfidenceEmail, result.Confidence)
		assert.Equal(t, "c-1", result.ContactID)
		require.NotNil(t, contact)
		assert.Equal(t, "c-1", contact.ID)
	})

	t.Run("EmailWinsOverLaterStrategies", func(t *testing.T) {
		reader := &fakeContactReader{
			byEmail:     []models.Contact{{ID: "c-email"}},
			byPhoneName: []models.Contact{{ID: "c-phone"}},
			byName:      []models.Contact{{ID: "c-name"}},
		}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		result, _, err := engine.Match(ctx, normalized(t, models.IncomingRecord{
			Email:     "john@example.com",
			Phone:     "555-123-4567",
			FirstName: "John",
			LastName:  "Doe",
		}))

		require.NoError(t, err)
		assert.Equal(t, "c-email", result.ContactID)
		assert.Equal(t, 0, reader.phoneNameCalls)
		assert.Equal(t, 0, reader.nameCalls)
	})

	t.Run("MultipleHitsIsAmbiguous", func(t *testing.T) {
		reader := &fakeContactReader{byEmail: []models.Contact{{ID: "c-1"}, {ID: "c-2"}}}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		result, contact, err := engine.Match(ctx, normalized(t, models.IncomingRecord{Email: "john@example.com"}))

		require.Error(t, err)
		assert.True(t, models.IsAmbiguousMatch(err))
		assert.Nil(t, result)
		assert.Nil(t, contact)

		var ambiguous *models.AmbiguousMatchError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, models.MatchStrategyEmail, ambiguous.Strategy)
		assert.Equal(t, []string{"c-1", "c-2"}, ambiguous.ContactIDs)
	})
}

func TestMatchPhoneNameStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("SingleHit", func(t *testing.T) {
		reader := &fakeContactReader{byPhoneName: []models.Contact{{ID: "c-1"}}}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		result, _, err := engine.Match(ctx, normalized(t, models.IncomingRecord{
			Phone:     "(555) 123-4567",
			FirstName: "John",
			LastName:  "Doe",
		}))

		require.NoError(t, err)
		assert.True(t, result.Matched)
		assert.Equal(t, models.MatchStrategyPhoneName, result.Strategy)
		assert.Equal(t, models.ConfidencePhoneName, result.Confidence)
	})

	t.Run("MultipleHitsIsAmbiguous", func(t *testing.T) {
		reader := &fakeContactReader{byPhoneName: []models.Contact{{ID: "c-1"}, {ID: "c-2"}}}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		_, _, err := engine.Match(ctx, normalized(t, models.IncomingRecord{
			Phone:     "555-123-4567",
			FirstName: "John",
			LastName:  "Doe",
		}))

		assert.True(t, models.IsAmbiguousMatch(err))
	})

	t.Run("ShortPhoneSkipsStrategy", func(t *testing.T) {
		reader := &fakeContactReader{byName: []models.Contact{{ID: "c-name"}}}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		result, _, err := engine.Match(ctx, normalized(t, models.IncomingRecord{
			Phone:     "123-4567",
			FirstName: "John",
			LastName:  "Doe",
		}))

		require.NoError(t, err)
		assert.Equal(t, 0, reader.phoneNameCalls)
		assert.Equal(t, models.MatchStrategyName, result.Strategy)
	})

	t.Run("PhoneWithoutNameSkipsStrategy", func(t *testing.T) {
		reader := &fakeContactReader{byPhoneName: []models.Contact{{ID: "c-1"}}}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		n, err := NormalizeRecord(models.IncomingRecord{Phone: "555-123-4567"}, false)
		require.NoError(t, err)

		result, _, err := engine.Match(ctx, n)
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.Equal(t, 0, reader.phoneNameCalls)
	})
}

func TestMatchNameStrategy(t *testing.T) {
	ctx := context.Background()

	t.Run("SingleHitIsBelowAutoApplyThreshold", func(t *testing.T) {
		reader := &fakeContactReader{byName: []models.Contact{{ID: "c-1"}}}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		result, _, err := engine.Match(ctx, normalized(t, models.IncomingRecord{
			FirstName: "John",
			LastName:  "Doe",
		}))

		require.NoError(t, err)
		assert.True(t, result.Matched)
		assert.Equal(t, models.MatchStrategyName, result.Strategy)
		assert.Less(t, result.Confidence, engine.AutoApplyThreshold())
	})

	t.Run("MultipleHitsReportsFirstWithCount", func(t *testing.T) {
		reader := &fakeContactReader{byName: []models.Contact{{ID: "c-1"}, {ID: "c-2"}, {ID: "c-3"}}}
		engine := NewEngine(getTestLogger(), reader, DefaultConfig())

		result, contact, err := engine.Match(ctx, normalized(t, models.IncomingRecord{
			FirstName: "John",
			LastName:  "Doe",
		}))

		require.NoError(t, err)
		assert.True(t, result.Matched)
		assert.Equal(t, "c-1", result.ContactID)
		assert.Equal(t, "c-1", contact.ID)
		assert.Contains(t, result.Reason, "3 contacts")
	})
}

func TestMatchNoStrategy(t *testing.T) {
	reader := &fakeContactReader{}
	engine := NewEngine(getTestLogger(), reader, DefaultConfig())

	result, contact, err := engine.Match(context.Background(), normalized(t, models.IncomingRecord{
		FirstName: "John",
		LastName:  "Doe",
	}))

	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, models.MatchStrategyNone, result.Strategy)
	assert.Nil(t, contact)
}

func TestNormalizeRecord(t *testing.T) {
	t.Run("CanonicalizesIdentifiers", func(t *testing.T) {
		n, err := NormalizeRecord(models.IncomingRecord{
			Email:     "  John.Doe@Example.COM ",
			Phone:     "+1 (555) 123-4567",
			FirstName: "  JOHN ",
			LastName:  "DOE",
		}, false)

		require.NoError(t, err)
		assert.Equal(t, "john.doe@example.com", n.Email)
		assert.Equal(t, "5551234567", n.Phone)
		assert.Equal(t, "john", n.FirstName)
		assert.Equal(t, "doe", n.LastName)
		assert.Equal(t, "john doe", n.FullName())
	})

	t.Run("SplitsSingleNameField", func(t *testing.T) {
		n, err := NormalizeRecord(models.IncomingRecord{FirstName: "John Ronald Doe"}, false)

		require.NoError(t, err)
		assert.Equal(t, "john", n.FirstName)
		assert.Equal(t, "ronald doe", n.LastName)
	})

	t.Run("NoIdentifierIsInvalid", func(t *testing.T) {
		_, err := NormalizeRecord(models.IncomingRecord{Organization: "Acme"}, false)

		require.Error(t, err)
		assert.True(t, models.IsInvalidRecord(err))
	})

	t.Run("MalformedEmailAloneIsInvalid", func(t *testing.T) {
		_, err := NormalizeRecord(models.IncomingRecord{Email: "not-an-email"}, false)

		require.Error(t, err)
		assert.True(t, models.IsInvalidRecord(err))
	})

	t.Run("MalformedEmailWithNameStillMatchesOnName", func(t *testing.T) {
		n, err := NormalizeRecord(models.IncomingRecord{
			Email:     "not-an-email",
			FirstName: "John",
			LastName:  "Doe",
		}, false)

		require.NoError(t, err)
		assert.Empty(t, n.Email)
		assert.Equal(t, "john doe", n.FullName())
	})

	t.Run("AllDigitsPhonePolicy", func(t *testing.T) {
		n, err := NormalizeRecord(models.IncomingRecord{Phone: "+44 555 123 4567"}, true)

		require.NoError(t, err)
		assert.Equal(t, "445551234567", n.Phone)
	})
}
