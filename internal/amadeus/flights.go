package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/search"
)

// SearchFlightOffers implements search.Provider against the flight-offers
// shopping endpoint. Offers come back in provider order; offers missing an
// itinerary are skipped, all other field gaps are left for the renderer to
// placeholder.
func (c *Client) SearchFlightOffers(ctx context.Context, query search.Query) ([]search.Offer, error) {
	params := url.Values{}
	params.Set("originLocationCode", query.Origin)
	params.Set("destinationLocationCode", query.Destination)
	params.Set("departureDate", query.DepartureDate)
	params.Set("adults", strconv.Itoa(query.Adults))
	params.Set("max", strconv.Itoa(query.MaxResults))
	if query.Currency != "" {
		params.Set("currencyCode", query.Currency)
	}
	if query.ReturnDate != "" {
		params.Set("returnDate", query.ReturnDate)
	}

	body, err := c.get(ctx, "flight-offers", "/v2/shopping/flight-offers", params)
	if err != nil {
		return nil, err
	}

	var resp flightOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse flight offers: %w", err)
	}

	offers := make([]search.Offer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		if len(raw.Itineraries) == 0 {
			continue
		}

		outbound := raw.Itineraries[0]

		offer := search.Offer{
			Origin:      query.Origin,
			Destination: query.Destination,
			Currency:    raw.Price.Currency,
		}

		price := raw.Price.GrandTotal
		if price == "" {
			price = raw.Price.Total
		}
		offer.Price = price

		if len(outbound.Segments) > 0 {
			first := outbound.Segments[0]
			last := outbound.Segments[len(outbound.Segments)-1]
			offer.DepartureAt = first.Departure.At
			offer.ArrivalAt = last.Arrival.At
			if first.Departure.IataCode != "" {
				offer.Origin = first.Departure.IataCode
			}
			if last.Arrival.IataCode != "" {
				offer.Destination = last.Arrival.IataCode
			}
		}

		offers = append(offers, offer)
	}

	return offers, nil
}
