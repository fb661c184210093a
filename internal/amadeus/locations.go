package amadeus

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/errors"
)

const locationLimit = 3

// SearchLocations resolves a free-text city name into candidate locations.
// Only the first 3 records are retained, in provider (relevance) order.
// Empty input and provider errors both produce an empty list so the
// caller can treat them identically; the underlying cause is only logged.
func (c *Client) SearchLocations(ctx context.Context, keyword string) []Location {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("subType", "CITY")

	body, err := c.get(ctx, "locations", "/v1/reference-data/locations", params)
	if err != nil {
		c.logger.WithError(errors.NewLookupFailedError(keyword, err)).Warn(
			"location lookup failed", nil)
		return nil
	}

	var resp locationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.WithError(errors.NewLookupFailedError(keyword, err)).Warn(
			"location lookup returned malformed body", nil)
		return nil
	}

	locations := make([]Location, 0, locationLimit)
	for _, rec := range resp.Data {
		if rec.IataCode == "" {
			continue
		}
		name := rec.Name
		if name == "" {
			name = rec.Address.CityName
		}
		if name == "" {
			name = rec.IataCode
		}
		locations = append(locations, Location{Name: name, IataCode: rec.IataCode})
		if len(locations) == locationLimit {
			break
		}
	}

	return locations
}
