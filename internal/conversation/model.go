// Package conversation tracks per-user progress through the trip form and
// drives the step-by-step state machine.
package conversation

import (
	"strings"
	"time"
)

// Step is the current position in the trip form.
type Step int

const (
	StepLanguage Step = iota
	StepFromCity
	StepChooseFrom
	StepToCity
	StepChooseTo
	StepTripType
	StepDepartureDate
	StepReturnDate
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepLanguage:
		return "LANGUAGE"
	case StepFromCity:
		return "FROM_CITY"
	case StepChooseFrom:
		return "CHOOSE_FROM"
	case StepToCity:
		return "TO_CITY"
	case StepChooseTo:
		return "CHOOSE_TO"
	case StepTripType:
		return "TRIP_TYPE"
	case StepDepartureDate:
		return "DEPARTURE_DATE"
	case StepReturnDate:
		return "RETURN_DATE"
	case StepDone:
		return "END"
	}
	return "UNKNOWN"
}

// TripType is the requested itinerary shape.
type TripType string

const (
	TripOneWay    TripType = "ONE_WAY"
	TripRoundTrip TripType = "ROUND_TRIP"
)

// ParseTripType maps user phrasing to a TripType. It is case-insensitive
// and tolerant of the phrasings both bot generations accepted.
func ParseTripType(input string) (TripType, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "one", "one way", "one-way", "oneway":
		return TripOneWay, true
	case "round", "round trip", "round-trip", "roundtrip", "return":
		return TripRoundTrip, true
	}
	return "", false
}

// Candidate is a resolver result offered to the user for disambiguation.
type Candidate struct {
	DisplayName  string `json:"displayName"`
	LocationCode string `json:"locationCode"`
}

// TripRequest is the in-progress trip form for one conversation key.
type TripRequest struct {
	Key               string      `json:"key"`
	Language          string      `json:"language,omitempty"`
	OriginInput       string      `json:"originInput,omitempty"`
	DestinationInput  string      `json:"destinationInput,omitempty"`
	OriginCode        string      `json:"originCode,omitempty"`
	DestinationCode   string      `json:"destinationCode,omitempty"`
	DepartureDate     string      `json:"departureDate,omitempty"`
	ReturnDate        string      `json:"returnDate,omitempty"`
	TripType          TripType    `json:"tripType,omitempty"`
	Step              Step        `json:"step"`
	PendingCandidates []Candidate `json:"pendingCandidates,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// NewTripRequest creates a fresh record at the LANGUAGE step.
func NewTripRequest(key string) *TripRequest {
	now := time.Now().UTC()
	return &TripRequest{
		Key:       key,
		Step:      StepLanguage,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SearchReady reports whether the record satisfies the search invariant:
// origin, destination, departure date and trip type set, and a return
// date present exactly when the trip is round trip.
func (r *TripRequest) SearchReady() bool {
	if r.OriginCode == "" || r.DestinationCode == "" || r.DepartureDate == "" {
		return false
	}
	switch r.TripType {
	case TripOneWay:
		return r.ReturnDate == ""
	case TripRoundTrip:
		return r.ReturnDate != ""
	}
	return false
}

// CandidateByLabel finds a pending candidate whose display name matches
// the selection text.
func (r *TripRequest) CandidateByLabel(label string) (Candidate, bool) {
	label = strings.TrimSpace(label)
	for _, cand := range r.PendingCandidates {
		if strings.EqualFold(cand.DisplayName, label) {
			return cand, true
		}
	}
	return Candidate{}, false
}

// Language holds one supported language option.
type Language struct {
	Label string
	Code  string
}

// Languages is the keyboard order of the supported language labels.
var Languages = []Language{
	{"English", "en"},
	{"Español", "es"},
	{"中文", "zh"},
	{"日本語", "ja"},
	{"Русский", "ru"},
	{"Deutsch", "de"},
	{"Svenska", "sv"},
	{"Français", "fr"},
	{"Italiano", "it"},
	{"عربي", "ar"},
}

// LanguageCode maps a user-facing language label to its locale code.
func LanguageCode(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, lang := range Languages {
		if lang.Label == label {
			return lang.Code, true
		}
	}
	return "", false
}

// LanguageLabels returns the labels in keyboard order.
func LanguageLabels() []string {
	labels := make([]string, len(Languages))
	for i, lang := range Languages {
		labels[i] = lang.Label
	}
	return labels
}
