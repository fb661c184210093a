package search

// Query carries everything needed for one flight-offer search.
// ReturnDate is empty for one-way trips.
type Query struct {
	Origin        string `json:"originLocationCode"`
	Destination   string `json:"destinationLocationCode"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate,omitempty"`
	Adults        int    `json:"adults"`
	MaxResults    int    `json:"max"`
	Currency      string `json:"currencyCode,omitempty"`
}

// Offer is one search result, a display-only projection of the provider
// response. Offers are never mutated after construction.
type Offer struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartureAt string `json:"departureAt"`
	ArrivalAt   string `json:"arrivalAt"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
}
