// Package matching decides whether an incoming record denotes an already-known contact
package matching

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ContactReader is the read side of the contact store. Implementations exclude
// soft-deleted contacts; a deleted contact is never resurrected by a match. Lookups
// are expected to be index-backed, not linear scans.
type ContactReader interface {
	FindByEmail(ctx context.Context, email string) ([]models.Contact, error)
	FindByPhoneAndName(ctx context.Context, phone, firstName, lastName string) ([]models.Contact, error)
	FindByName(ctx context.Context, firstName, lastName string) ([]models.Contact, error)
}

// Config contains configuration for the match engine
type Config struct {
	// AutoApplyThreshold is the confidence below which a match is routed to review
	// instead of auto-merged (default: 0.8)
	AutoApplyThreshold float64
	// PhoneAllDigits keeps every digit of non-US numbers instead of the last 10
	PhoneAllDigits bool
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		AutoApplyThreshold: 0.8,
	}
}

// Engine evaluates the ordered match strategies against the contact store. Strategies
// encode decreasing certainty: exact email, then phone plus exact name, then exact
// name alone. The first hit wins.
type Engine struct {
	logger   ectologger.Logger
	contacts ContactReader
	config   Config
}

// NewEngine creates a new match engine
func NewEngine(logger ectologger.Logger, contacts ContactReader, config Config) *Engine {
	if config.AutoApplyThreshold <= 0 {
		config.AutoApplyThreshold = DefaultConfig().AutoApplyThreshold
	}
	return &Engine{
		logger:   logger,
		contacts: contacts,
		config:   config,
	}
}

// Match evaluates strategies in precedence order for one normalized record. On a hit
// it returns the result and the matched contact. More than one contact satisfying a
// strategy is an invariant violation and returns an AmbiguousMatchError; the engine
// never silently picks one.
func (e *Engine) Match(ctx context.Context, rec *models.NormalizedRecord) (*models.MatchResult, *models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Match")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"source_system": rec.Record.SourceSystem,
	})

	if rec.Email != "" {
		result, contact, err := e.matchByEmail(ctx, rec)
		if err != nil || result != nil {
			return result, contact, err
		}
	}

	// Strategy 2 requires at least 10 normalized digits; shorter values were reduced
	// to "" by normalization and the strategy is skipped.
	if rec.Phone != "" && rec.FullName() != "" {
		result, contact, err := e.matchByPhoneAndName(ctx, rec)
		if err != nil || result != nil {
			return result, contact, err
		}
	}

	if rec.FullName() != "" {
		result, contact, err := e.matchByName(ctx, rec)
		if err != nil || result != nil {
			return result, contact, err
		}
	}

	log.Debug("No strategy matched")

	return &models.MatchResult{
		Matched:  false,
		Strategy: models.MatchStrategyNone,
		Reason:   "no strategy matched",
	}, nil, nil
}

// AutoApplyThreshold exposes the configured threshold so callers can route
// low-confidence matches to review.
func (e *Engine) AutoApplyThreshold() float64 {
	return e.config.AutoApplyThreshold
}

func (e *Engine) matchByEmail(ctx context.Context, rec *models.NormalizedRecord) (*models.MatchResult, *models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.matchByEmail")
	defer span.End()

	contacts, err := e.contacts.FindByEmail(ctx, rec.Email)
	if err != nil {
		return nil, nil, err
	}

	switch len(contacts) {
	case 0:
		return nil, nil, nil
	case 1:
		contact := contacts[0]
		return &models.MatchResult{
			Matched:    true,
			Strategy:   models.MatchStrategyEmail,
			Confidence: models.ConfidenceEmail,
			ContactID:  contact.ID,
			Reason:     fmt.Sprintf("email %s matches contact %s", rec.Email, contact.ID),
		}, &contact, nil
	default:
		return nil, nil, &models.AmbiguousMatchError{
			Strategy:   models.MatchStrategyEmail,
			Value:      rec.Email,
			ContactIDs: contactIDs(contacts),
		}
	}
}

func (e *Engine) matchByPhoneAndName(ctx context.Context, rec *models.NormalizedRecord) (*models.MatchResult, *models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.matchByPhoneAndName")
	defer span.End()

	contacts, err := e.contacts.FindByPhoneAndName(ctx, rec.Phone, rec.FirstName, rec.LastName)
	if err != nil {
		return nil, nil, err
	}

	switch len(contacts) {
	case 0:
		return nil, nil, nil
	case 1:
		contact := contacts[0]
		return &models.MatchResult{
			Matched:    true,
			Strategy:   models.MatchStrategyPhoneName,
			Confidence: models.ConfidencePhoneName,
			ContactID:  contact.ID,
			Reason:     fmt.Sprintf("phone %s and name %q match contact %s", rec.Phone, rec.FullName(), contact.ID),
		}, &contact, nil
	default:
		return nil, nil, &models.AmbiguousMatchError{
			Strategy:   models.MatchStrategyPhoneName,
			Value:      rec.Phone + " " + rec.FullName(),
			ContactIDs: contactIDs(contacts),
		}
	}
}

// matchByName is the lowest-precedence strategy. Its confidence is below the
// auto-apply threshold, so a hit only ever produces a review-queue entry. When several
// contacts share the name the first is reported and the reason carries the count; the
// human reviewer disambiguates.
func (e *Engine) matchByName(ctx context.Context, rec *models.NormalizedRecord) (*models.MatchResult, *models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.matchByName")
	defer span.End()

	contacts, err := e.contacts.FindByName(ctx, rec.FirstName, rec.LastName)
	if err != nil {
		return nil, nil, err
	}

	if len(contacts) == 0 {
		return nil, nil, nil
	}

	contact := contacts[0]
	reason := fmt.Sprintf("name %q matches contact %s with no corroborating identifier", rec.FullName(), contact.ID)
	if len(contacts) > 1 {
		reason = fmt.Sprintf("name %q matches %d contacts with no corroborating identifier", rec.FullName(), len(contacts))
	}

	return &models.MatchResult{
		Matched:    true,
		Strategy:   models.MatchStrategyName,
		Confidence: models.ConfidenceName,
		ContactID:  contact.ID,
		Reason:     reason,
	}, &contact, nil
}

func contactIDs(contacts []models.Contact) []string {
	ids := make([]string, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	return ids
}
