package conversation

// User-facing prompt texts, carried over from both bot generations.
const (
	promptLanguage        = "Please choose your language / الرجاء اختيار لغتك:"
	promptLanguageInvalid = "Invalid choice. Please choose a language from the list."

	promptFromCity     = "Enter departure city:"
	promptFromCityIATA = "Enter departure city (IATA code, e.g. LAX):"
	promptToCity       = "Enter destination city:"
	promptToCityIATA   = "Enter arrival city (IATA code, e.g. DXB):"

	promptChooseFrom    = "Select your departure city:"
	promptChooseTo      = "Select your destination city:"
	promptChooseInvalid = "Please select one of the listed cities."

	promptTripType        = "Is it a one-way or round trip?"
	promptTripTypeInvalid = "Please answer with one of the options below."

	promptDepartureDate = "Enter departure date (YYYY-MM-DD):"
	promptReturnDate    = "Enter return date (YYYY-MM-DD):"
	promptDateRequired  = "Please enter a date (YYYY-MM-DD):"
)

const (
	tripTypeLabelOneWay    = "One Way"
	tripTypeLabelRoundTrip = "Round Trip"
)

func tripTypeOptions() []string {
	return []string{tripTypeLabelOneWay, tripTypeLabelRoundTrip}
}

func candidateLabels(candidates []Candidate) []string {
	labels := make([]string, len(candidates))
	for i, cand := range candidates {
		labels[i] = cand.DisplayName
	}
	return labels
}
