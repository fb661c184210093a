package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/errors"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/logger"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/search"
)

// ==========================
// Test Helper Functions
// ==========================

type stubResolver struct {
	candidates map[string][]Candidate
	calls      int
}

func (r *stubResolver) Resolve(_ context.Context, keyword string) []Candidate {
	r.calls++
	return r.candidates[keyword]
}

type stubSearcher struct {
	offers  []search.Offer
	err     error
	queries []search.Query
}

func (s *stubSearcher) Search(_ context.Context, query search.Query) ([]search.Offer, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.offers, nil
}

func defaultResolver() *stubResolver {
	return &stubResolver{
		candidates: map[string][]Candidate{
			"Paris": {
				{DisplayName: "Paris", LocationCode: "PAR"},
				{DisplayName: "Paris/Le Bourget", LocationCode: "LBG"},
			},
			"London": {
				{DisplayName: "London", LocationCode: "LON"},
			},
		},
	}
}

func newTestEngine(t *testing.T, resolver Resolver, searcher Searcher) (*Engine, *MemoryStore) {
	store := NewMemoryStore()
	engine := NewEngine(EngineOptions{
		Store:    store,
		Resolver: resolver,
		Searcher: searcher,
		Logger:   logger.NewTestLogger(t),
	})
	return engine, store
}

// drive feeds the engine a command followed by text answers and returns
// the replies produced by the last answer.
func drive(t *testing.T, engine *Engine, key string, answers ...string) []Reply {
	t.Helper()

	ctx := context.Background()
	replies := engine.HandleEvent(ctx, Event{Key: key, Kind: EventCommand, Text: "start"})
	for _, answer := range answers {
		replies = engine.HandleEvent(ctx, Event{Key: key, Kind: EventText, Text: answer})
	}
	return replies
}

// ==========================
// Conversation Flow Tests
// ==========================

func TestEngine_StartCommand(t *testing.T) {
	engine, store := newTestEngine(t, defaultResolver(), &stubSearcher{})

	replies := drive(t, engine, "chat-1")

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "choose your language")
	assert.Len(t, replies[0].Options, 10)
	assert.Equal(t, 1, store.Len())
}

func TestEngine_FullOneWayFlow(t *testing.T) {
	searcher := &stubSearcher{
		offers: []search.Offer{
			{
				Origin:      "PAR",
				Destination: "LON",
				DepartureAt: "2026-09-01T08:30:00",
				ArrivalAt:   "2026-09-01T09:45:00",
				Price:       "120.40",
				Currency:    "USD",
			},
		},
	}
	engine, store := newTestEngine(t, defaultResolver(), searcher)

	replies := drive(t, engine, "chat-1",
		"English",
		"Paris",
		"Paris",
		"London",
		"London",
		"One Way",
		"2026-09-01",
	)

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Here are some flight options:")
	assert.Contains(t, replies[0].Text, "From: PAR to LON")
	assert.Contains(t, replies[0].Text, "Price: 120.40 USD")

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "PAR", searcher.queries[0].Origin)
	assert.Equal(t, "LON", searcher.queries[0].Destination)
	assert.Equal(t, "2026-09-01", searcher.queries[0].DepartureDate)
	assert.Empty(t, searcher.queries[0].ReturnDate)

	// Completed conversations are discarded.
	assert.Equal(t, 0, store.Len())
}

func TestEngine_RoundTripAsksForReturnDate(t *testing.T) {
	searcher := &stubSearcher{offers: []search.Offer{{Price: "99.00", Currency: "USD"}}}
	engine, _ := newTestEngine(t, defaultResolver(), searcher)

	replies := drive(t, engine, "chat-1",
		"English",
		"Paris",
		"Paris",
		"London",
		"London",
		"Round Trip",
		"2026-09-01",
	)

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "return date")

	replies = engine.HandleEvent(context.Background(), Event{Key: "chat-1", Kind: EventText, Text: "2026-09-10"})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Here are some flight options:")

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "2026-09-10", searcher.queries[0].ReturnDate)
}

func TestEngine_DisambiguationKeyboard(t *testing.T) {
	engine, _ := newTestEngine(t, defaultResolver(), &stubSearcher{})

	replies := drive(t, engine, "chat-1", "English", "Paris")

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Select your departure city:")
	assert.Equal(t, []string{"Paris", "Paris/Le Bourget"}, replies[0].Options)
}

func TestEngine_SingleCandidateStillOffersChoice(t *testing.T) {
	engine, _ := newTestEngine(t, defaultResolver(), &stubSearcher{})

	replies := drive(t, engine, "chat-1", "English", "Paris", "Paris", "London")

	require.Len(t, replies, 1)
	assert.Equal(t, []string{"London"}, replies[0].Options)
}

func TestEngine_CityNotFound(t *testing.T) {
	engine, store := newTestEngine(t, defaultResolver(), &stubSearcher{})

	replies := drive(t, engine, "chat-1", "English", "Atlantis")

	require.Len(t, replies, 2)
	assert.Equal(t, "City not found. Please try again.", replies[0].Text)
	assert.Equal(t, "Enter departure city:", replies[1].Text)

	// Still waiting at FROM_CITY: a known city works on the next try.
	replies = engine.HandleEvent(context.Background(), Event{Key: "chat-1", Kind: EventText, Text: "Paris"})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Select your departure city:")
	assert.Equal(t, 1, store.Len())
}

func TestEngine_InvalidInputRepeatsStep(t *testing.T) {
	tests := []struct {
		name       string
		answers    []string
		wantReply  string
		wantOption string
	}{
		{
			name:       "unknown language",
			answers:    []string{"Klingon"},
			wantReply:  "Invalid choice",
			wantOption: "English",
		},
		{
			name:       "choice outside candidate list",
			answers:    []string{"English", "Paris", "Berlin"},
			wantReply:  "Please select one of the listed cities.",
			wantOption: "Paris",
		},
		{
			name:      "unknown trip type",
			answers:   []string{"English", "Paris", "Paris", "London", "London", "maybe"},
			wantReply: "Please answer with one of the options below.",
		},
		{
			name:      "blank date",
			answers:   []string{"English", "Paris", "Paris", "London", "London", "One Way", "   "},
			wantReply: "Please enter a date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t, defaultResolver(), &stubSearcher{})

			replies := drive(t, engine, "chat-1", tt.answers...)

			require.NotEmpty(t, replies)
			assert.Contains(t, replies[0].Text, tt.wantReply)
			if tt.wantOption != "" {
				assert.Contains(t, replies[0].Options, tt.wantOption)
			}
		})
	}
}

func TestEngine_TripTypePhrasings(t *testing.T) {
	for _, phrasing := range []string{"one way", "ONE-WAY", "oneway"} {
		t.Run(phrasing, func(t *testing.T) {
			engine, _ := newTestEngine(t, defaultResolver(), &stubSearcher{})

			replies := drive(t, engine, "chat-1",
				"English", "Paris", "Paris", "London", "London", phrasing)

			require.Len(t, replies, 1)
			assert.Contains(t, replies[0].Text, "departure date")
		})
	}
}

func TestEngine_StrayTextRestartsConversation(t *testing.T) {
	engine, store := newTestEngine(t, defaultResolver(), &stubSearcher{})

	replies := engine.HandleEvent(context.Background(), Event{Key: "chat-9", Kind: EventText, Text: "hello"})

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "choose your language")
	assert.Equal(t, 1, store.Len())
}

func TestEngine_CommandMidFlowRestarts(t *testing.T) {
	engine, _ := newTestEngine(t, defaultResolver(), &stubSearcher{})

	drive(t, engine, "chat-1", "English", "Paris")
	replies := engine.HandleEvent(context.Background(), Event{Key: "chat-1", Kind: EventCommand, Text: "start"})

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "choose your language")

	// Prior progress is gone: next answer is treated as a language choice.
	replies = engine.HandleEvent(context.Background(), Event{Key: "chat-1", Kind: EventText, Text: "Paris"})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Invalid choice")
}

// ==========================
// Duplicate Delivery Tests
// ==========================

func TestEngine_DuplicateLanguageAnswer(t *testing.T) {
	engine, store := newTestEngine(t, defaultResolver(), &stubSearcher{})

	drive(t, engine, "chat-1", "English")

	// The redelivered label lands at FROM_CITY, resolves to nothing and
	// re-prompts; the stored language is untouched and no step is skipped.
	replies := drive2(t, engine, "chat-1", "English")
	require.Len(t, replies, 2)
	assert.Equal(t, "City not found. Please try again.", replies[0].Text)
	assert.Equal(t, "Enter departure city:", replies[1].Text)

	req, err := store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "en", req.Language)
	assert.Equal(t, StepFromCity, req.Step)

	// The form still completes normally afterwards.
	replies = drive2(t, engine, "chat-1", "Paris")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Select your departure city:")
}

func TestEngine_DuplicateTripTypeAnswer(t *testing.T) {
	searcher := &stubSearcher{offers: []search.Offer{{Price: "10.00", Currency: "USD"}}}
	engine, store := newTestEngine(t, defaultResolver(), searcher)

	drive(t, engine, "chat-1", "English", "Paris", "Paris", "London", "London", "One Way")

	req, err := store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, StepDepartureDate, req.Step)
	assert.Equal(t, TripOneWay, req.TripType)

	// The redelivered phrase is consumed by the next step under the
	// lenient date rule; the trip type is not re-applied and exactly one
	// search runs.
	drive2(t, engine, "chat-1", "One Way")
	require.Len(t, searcher.queries, 1)
	assert.Empty(t, searcher.queries[0].ReturnDate)
	assert.Equal(t, "One Way", searcher.queries[0].DepartureDate)
}

func TestEngine_DuplicateSelectionAfterCommit(t *testing.T) {
	engine, store := newTestEngine(t, defaultResolver(), &stubSearcher{})

	// A choose-step record whose candidates are already cleared (the
	// selection committed, the duplicate arrives against stale state).
	req := NewTripRequest("chat-1")
	req.Step = StepChooseFrom
	require.NoError(t, store.Put(context.Background(), req))

	replies := engine.HandleEvent(context.Background(), Event{Key: "chat-1", Kind: EventText, Text: "Paris"})

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "choose your language")

	got, err := store.Get(context.Background(), "chat-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StepLanguage, got.Step)
}

// ==========================
// Search Outcome Tests
// ==========================

func TestEngine_SearchOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		searcher    *stubSearcher
		wantMessage string
	}{
		{
			name:        "no offers",
			searcher:    &stubSearcher{err: errors.NewNoOffersError("PAR", "LON")},
			wantMessage: "No flights found.",
		},
		{
			name:        "search failed",
			searcher:    &stubSearcher{err: errors.NewSearchFailedError(assert.AnError)},
			wantMessage: "No flights found.",
		},
		{
			name:        "auth failed",
			searcher:    &stubSearcher{err: errors.NewAuthFailedError("status 401")},
			wantMessage: "Failed to reach the flight search service. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, store := newTestEngine(t, defaultResolver(), tt.searcher)

			replies := drive(t, engine, "chat-1",
				"English", "Paris", "Paris", "London", "London", "One Way", "2026-09-01")

			require.Len(t, replies, 1)
			assert.Equal(t, tt.wantMessage, replies[0].Text)

			// Terminal either way: the record is gone.
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestEngine_NewConversationAfterSearch(t *testing.T) {
	searcher := &stubSearcher{err: errors.NewNoOffersError("PAR", "LON")}
	engine, _ := newTestEngine(t, defaultResolver(), searcher)

	drive(t, engine, "chat-1",
		"English", "Paris", "Paris", "London", "London", "One Way", "2026-09-01")

	// Text after END starts over instead of resuming.
	replies := engine.HandleEvent(context.Background(), Event{Key: "chat-1", Kind: EventText, Text: "again"})
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "choose your language")
}

// ==========================
// Direct Entry Mode Tests
// ==========================

func TestEngine_DirectEntrySkipsResolution(t *testing.T) {
	searcher := &stubSearcher{offers: []search.Offer{{Price: "50.00", Currency: "USD"}}}
	store := NewMemoryStore()
	engine := NewEngine(EngineOptions{
		Store:       store,
		Searcher:    searcher,
		Logger:      logger.NewTestLogger(t),
		DirectEntry: true,
	})

	replies := drive(t, engine, "chat-1", "English")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "IATA")

	replies = drive2(t, engine, "chat-1", "lax", "dxb", "One Way", "2026-09-01")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Here are some flight options:")

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "LAX", searcher.queries[0].Origin)
	assert.Equal(t, "DXB", searcher.queries[0].Destination)
}

// drive2 continues an already started conversation with plain text events.
func drive2(t *testing.T, engine *Engine, key string, answers ...string) []Reply {
	t.Helper()

	var replies []Reply
	for _, answer := range answers {
		replies = engine.HandleEvent(context.Background(), Event{Key: key, Kind: EventText, Text: answer})
	}
	return replies
}
