// Package render formats search outcomes into chat messages. Sentinel
// outcomes (no results, auth failure, lookup failure) flow through the
// same path as real offers.
package render

import (
	"fmt"
	"strings"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/search"
)

// placeholder substitutes for any missing optional offer field so one bad
// offer never aborts rendering of the rest.
const placeholder = "N/A"

const (
	offersHeader         = "Here are some flight options:"
	noResultsMessage     = "No flights found."
	authFailedMessage    = "Failed to reach the flight search service. Please try again later."
	lookupMessage        = "City not found. Please try again."
	internalErrorMessage = "Something went wrong. Please try again later."
)

// OutcomeKind discriminates what a conversation turn produced.
type OutcomeKind int

const (
	OutcomeOffers OutcomeKind = iota
	OutcomeNoResults
	OutcomeAuthFailure
	OutcomeLookupFailure
	OutcomeInternalError
)

// Outcome is either a non-empty offer list or a sentinel.
type Outcome struct {
	Kind   OutcomeKind
	Offers []search.Offer
}

func Offers(offers []search.Offer) Outcome {
	return Outcome{Kind: OutcomeOffers, Offers: offers}
}

func NoResults() Outcome {
	return Outcome{Kind: OutcomeNoResults}
}

func AuthFailure() Outcome {
	return Outcome{Kind: OutcomeAuthFailure}
}

func LookupFailure() Outcome {
	return Outcome{Kind: OutcomeLookupFailure}
}

func InternalError() Outcome {
	return Outcome{Kind: OutcomeInternalError}
}

// Message renders the outcome as one chat message: a header line plus one
// block per offer, blocks separated by blank lines.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeNoResults:
		return noResultsMessage
	case OutcomeAuthFailure:
		return authFailedMessage
	case OutcomeLookupFailure:
		return lookupMessage
	case OutcomeInternalError:
		return internalErrorMessage
	}

	if len(o.Offers) == 0 {
		return noResultsMessage
	}

	var b strings.Builder
	b.WriteString(offersHeader)
	for _, offer := range o.Offers {
		b.WriteString("\n\n")
		b.WriteString(formatOffer(offer))
	}
	return b.String()
}

func formatOffer(offer search.Offer) string {
	return fmt.Sprintf(
		"From: %s to %s\nDeparture: %s\nArrival: %s\nPrice: %s %s",
		orPlaceholder(offer.Origin),
		orPlaceholder(offer.Destination),
		orPlaceholder(offer.DepartureAt),
		orPlaceholder(offer.ArrivalAt),
		orPlaceholder(offer.Price),
		orPlaceholder(offer.Currency),
	)
}

func orPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}
