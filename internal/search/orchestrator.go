// Package search assembles flight-offer queries and reduces provider
// responses into a bounded list of offers.
package search

import (
	"context"
	"fmt"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/errors"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/logger"
)

// Provider is the flight-offer search endpoint. Implemented by the amadeus
// client; mocked in tests.
type Provider interface {
	SearchFlightOffers(ctx context.Context, query Query) ([]Offer, error)
}

type Orchestrator struct {
	provider   Provider
	logger     logger.Logger
	maxResults int
	currency   string
}

func NewOrchestrator(provider Provider, maxResults int, currency string, log logger.Logger) *Orchestrator {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &Orchestrator{
		provider:   provider,
		logger:     log.WithFields(map[string]interface{}{"component": "search"}),
		maxResults: maxResults,
		currency:   currency,
	}
}

// Search invokes the provider exactly once for a search-ready query and
// returns offers in provider order. It never retries. Every failure is
// resolved to a StandardError: AUTH_FAILED passes through from the
// provider, everything else maps to SEARCH_FAILED or NO_OFFERS_FOUND.
func (o *Orchestrator) Search(ctx context.Context, query Query) ([]Offer, error) {
	if err := validateQuery(query); err != nil {
		return nil, errors.NewSearchFailedError(err)
	}

	query.Adults = 1
	query.MaxResults = o.maxResults
	if query.Currency == "" {
		query.Currency = o.currency
	}

	o.logger.Info("searching flight offers", map[string]interface{}{
		"origin":        query.Origin,
		"destination":   query.Destination,
		"departureDate": query.DepartureDate,
		"returnDate":    query.ReturnDate,
		"max":           query.MaxResults,
	})

	offers, err := o.provider.SearchFlightOffers(ctx, query)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrCodeAuthFailed {
			return nil, err
		}
		o.logger.WithError(err).Warn("flight offer search failed", map[string]interface{}{
			"origin":      query.Origin,
			"destination": query.Destination,
		})
		return nil, errors.NewSearchFailedError(err)
	}

	if len(offers) == 0 {
		return nil, errors.NewNoOffersError(query.Origin, query.Destination)
	}

	// Provider order is relevance order; never re-sorted locally.
	if len(offers) > o.maxResults {
		offers = offers[:o.maxResults]
	}

	return offers, nil
}

// validateQuery enforces the search-ready invariant: origin, destination
// and departure date set, return date only for round trips.
func validateQuery(q Query) error {
	if q.Origin == "" {
		return fmt.Errorf("origin location code is required")
	}
	if q.Destination == "" {
		return fmt.Errorf("destination location code is required")
	}
	if q.DepartureDate == "" {
		return fmt.Errorf("departure date is required")
	}
	return nil
}
