package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/errors"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/logger"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/common/metrics"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/render"
	"github.com/mahmoud1401-hub/cheapest-flight/internal/search"
)

// Resolver turns a free-text city name into candidate locations. Empty
// input and provider failures both yield an empty list; the engine treats
// them identically (re-prompt).
type Resolver interface {
	Resolve(ctx context.Context, keyword string) []Candidate
}

// Searcher runs exactly one flight-offer search for a completed form.
type Searcher interface {
	Search(ctx context.Context, query search.Query) ([]search.Offer, error)
}

// EngineOptions carries the engine dependencies.
type EngineOptions struct {
	Store       Store
	Resolver    Resolver
	Searcher    Searcher
	Logger      logger.Logger
	DirectEntry bool // resolver disabled: typed input is the location code
}

// Engine drives the trip form state machine. Events for the same
// conversation key are applied strictly in arrival order; events for
// different keys run concurrently.
type Engine struct {
	store       Store
	resolver    Resolver
	searcher    Searcher
	logger      logger.Logger
	directEntry bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(opts EngineOptions) *Engine {
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	return &Engine{
		store:       opts.Store,
		resolver:    opts.Resolver,
		searcher:    opts.Searcher,
		logger:      log.WithFields(map[string]interface{}{"component": "conversation"}),
		directEntry: opts.DirectEntry,
	}
}

// lockFor returns the per-conversation mutex, creating it on first use.
// Entries are never reclaimed; there is one per chat the process has seen.
func (e *Engine) lockFor(key string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locks == nil {
		e.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	return lock
}

// HandleEvent applies one inbound event to the conversation it belongs to
// and returns the replies to deliver. It never returns an error: every
// failure is resolved to a user-facing message before returning.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) []Reply {
	metrics.BotEventsTotal.WithLabelValues(string(ev.Kind)).Inc()

	log := e.logger.WithFields(map[string]interface{}{
		"eventId":         uuid.NewString(),
		"conversationKey": ev.Key,
		"kind":            string(ev.Kind),
	})

	lock := e.lockFor(ev.Key)
	lock.Lock()
	defer lock.Unlock()

	if ev.Kind == EventCommand {
		return e.restart(ctx, ev.Key, log)
	}

	req, err := e.store.Get(ctx, ev.Key)
	if err != nil {
		log.WithError(err).Error("conversation store read failed", nil)
		return []Reply{{Text: render.InternalError().Message()}}
	}
	if req == nil {
		// Stray input with no active record: implicit restart, never a crash.
		stateErr := errors.NewStateNotFoundError(ev.Key)
		log.Info("no active conversation, restarting", map[string]interface{}{
			"code": string(stateErr.Code),
		})
		return e.restart(ctx, ev.Key, log)
	}

	log = log.WithFields(map[string]interface{}{"step": req.Step.String()})
	return e.advance(ctx, req, ev, log)
}

// restart discards any prior record for the key and re-enters LANGUAGE.
func (e *Engine) restart(ctx context.Context, key string, log logger.Logger) []Reply {
	req := NewTripRequest(key)
	if err := e.store.Put(ctx, req); err != nil {
		log.WithError(err).Error("conversation store write failed", nil)
		return []Reply{{Text: render.InternalError().Message()}}
	}
	log.Info("conversation started", nil)
	return []Reply{{Text: promptLanguage, Options: LanguageLabels()}}
}

// advance applies one answer to the current step. Invalid input re-issues
// the same prompt and leaves every stored field untouched.
func (e *Engine) advance(ctx context.Context, req *TripRequest, ev Event, log logger.Logger) []Reply {
	switch req.Step {
	case StepLanguage:
		return e.handleLanguage(ctx, req, ev.Text, log)
	case StepFromCity:
		return e.handleCity(ctx, req, ev.Text, log)
	case StepChooseFrom:
		return e.handleChoice(ctx, req, ev.Text, log)
	case StepToCity:
		return e.handleCity(ctx, req, ev.Text, log)
	case StepChooseTo:
		return e.handleChoice(ctx, req, ev.Text, log)
	case StepTripType:
		return e.handleTripType(ctx, req, ev.Text, log)
	case StepDepartureDate, StepReturnDate:
		return e.handleDate(ctx, req, ev.Text, log)
	case StepDone:
		// Terminal records are deleted on completion; reaching this means
		// a stale record survived. Start over rather than re-search.
		return e.restart(ctx, req.Key, log)
	}

	log.Warn("record at unknown step, restarting", map[string]interface{}{
		"step": int(req.Step),
	})
	return e.restart(ctx, req.Key, log)
}

func (e *Engine) handleLanguage(ctx context.Context, req *TripRequest, input string, log logger.Logger) []Reply {
	code, ok := LanguageCode(input)
	if !ok {
		e.rejectInput(req, input, log)
		return []Reply{{Text: promptLanguageInvalid, Options: LanguageLabels()}}
	}

	req.Language = code
	req.Step = StepFromCity
	if replies := e.persist(ctx, req, log); replies != nil {
		return replies
	}
	return []Reply{{Text: e.cityPrompt(StepFromCity)}}
}

// handleCity covers FROM_CITY and TO_CITY. In direct-entry mode the typed
// text becomes the location code verbatim, uppercased and trimmed;
// otherwise the resolver is consulted and a choose step follows.
func (e *Engine) handleCity(ctx context.Context, req *TripRequest, input string, log logger.Logger) []Reply {
	input = strings.TrimSpace(input)
	if input == "" {
		e.rejectInput(req, input, log)
		return []Reply{{Text: e.cityPrompt(req.Step)}}
	}

	if e.directEntry {
		code := strings.ToUpper(input)
		if req.Step == StepFromCity {
			req.OriginInput = input
			req.OriginCode = code
			req.Step = StepToCity
		} else {
			req.DestinationInput = input
			req.DestinationCode = code
			req.Step = StepTripType
		}
		if replies := e.persist(ctx, req, log); replies != nil {
			return replies
		}
		return []Reply{e.afterCityReply(req)}
	}

	candidates := e.resolver.Resolve(ctx, input)
	if len(candidates) == 0 {
		log.Info("city lookup yielded no candidates", map[string]interface{}{
			"keyword": input,
		})
		return []Reply{
			{Text: render.LookupFailure().Message()},
			{Text: e.cityPrompt(req.Step)},
		}
	}

	if req.Step == StepFromCity {
		req.OriginInput = input
		req.Step = StepChooseFrom
	} else {
		req.DestinationInput = input
		req.Step = StepChooseTo
	}
	req.PendingCandidates = candidates
	if replies := e.persist(ctx, req, log); replies != nil {
		return replies
	}
	return []Reply{{Text: e.choosePrompt(req.Step), Options: candidateLabels(candidates)}}
}

// handleChoice commits one of the pending candidates. Input that does not
// reference a stored candidate is rejected and the step repeats.
func (e *Engine) handleChoice(ctx context.Context, req *TripRequest, input string, log logger.Logger) []Reply {
	if len(req.PendingCandidates) == 0 {
		// Candidates already consumed (duplicate selection after commit).
		return e.restart(ctx, req.Key, log)
	}

	cand, ok := req.CandidateByLabel(input)
	if !ok {
		e.rejectInput(req, input, log)
		return []Reply{{Text: promptChooseInvalid, Options: candidateLabels(req.PendingCandidates)}}
	}

	req.PendingCandidates = nil
	if req.Step == StepChooseFrom {
		req.OriginCode = cand.LocationCode
		req.Step = StepToCity
	} else {
		req.DestinationCode = cand.LocationCode
		req.Step = StepTripType
	}
	if replies := e.persist(ctx, req, log); replies != nil {
		return replies
	}

	log.Info("location committed", map[string]interface{}{
		"locationCode": cand.LocationCode,
	})
	return []Reply{e.afterCityReply(req)}
}

func (e *Engine) handleTripType(ctx context.Context, req *TripRequest, input string, log logger.Logger) []Reply {
	tripType, ok := ParseTripType(input)
	if !ok {
		e.rejectInput(req, input, log)
		return []Reply{{Text: promptTripTypeInvalid, Options: tripTypeOptions()}}
	}

	req.TripType = tripType
	req.Step = StepDepartureDate
	if replies := e.persist(ctx, req, log); replies != nil {
		return replies
	}
	return []Reply{{Text: promptDepartureDate}}
}

// handleDate accepts any non-empty string as a date. There is no syntactic
// validation beyond a shape warning in the logs; see the YYYY-MM-DD
// lenience both bot generations shipped with.
func (e *Engine) handleDate(ctx context.Context, req *TripRequest, input string, log logger.Logger) []Reply {
	input = strings.TrimSpace(input)
	if input == "" {
		e.rejectInput(req, input, log)
		return []Reply{{Text: promptDateRequired}}
	}

	if _, err := time.Parse("2006-01-02", input); err != nil {
		log.Warn("date input does not match YYYY-MM-DD", map[string]interface{}{
			"input": input,
		})
	}

	if req.Step == StepDepartureDate {
		req.DepartureDate = input
		if req.TripType == TripRoundTrip {
			req.Step = StepReturnDate
			if replies := e.persist(ctx, req, log); replies != nil {
				return replies
			}
			return []Reply{{Text: promptReturnDate}}
		}
	} else {
		req.ReturnDate = input
	}

	return e.runSearch(ctx, req, log)
}

// runSearch is the SEARCH transition: one provider call for the completed
// record, then END regardless of outcome. The record is discarded at END
// so the next event starts a fresh conversation.
func (e *Engine) runSearch(ctx context.Context, req *TripRequest, log logger.Logger) []Reply {
	outcome := render.NoResults()

	if !req.SearchReady() {
		// The step order makes this unreachable; restart if it ever trips.
		log.Error("record reached search without being search-ready", map[string]interface{}{
			"record": req,
		})
		return e.restart(ctx, req.Key, log)
	}

	offers, err := e.searcher.Search(ctx, search.Query{
		Origin:        req.OriginCode,
		Destination:   req.DestinationCode,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Adults:        1,
	})
	switch {
	case err == nil:
		outcome = render.Offers(offers)
		metrics.ConversationsCompleted.WithLabelValues("offers").Inc()
	case errors.CodeOf(err) == errors.ErrCodeAuthFailed:
		log.WithError(err).Error("search aborted: credential issuance failed", nil)
		outcome = render.AuthFailure()
		metrics.ConversationsCompleted.WithLabelValues("auth_failed").Inc()
	default:
		log.WithError(err).Warn("search produced no offers", map[string]interface{}{
			"origin":      req.OriginCode,
			"destination": req.DestinationCode,
		})
		metrics.ConversationsCompleted.WithLabelValues("no_offers").Inc()
	}

	req.Step = StepDone
	if err := e.store.Delete(ctx, req.Key); err != nil {
		// Park the record at the terminal step so the next event starts
		// over instead of re-running the search.
		log.WithError(err).Error("failed to discard completed conversation", nil)
		_ = e.store.Put(ctx, req)
	}

	log.Info("conversation completed", map[string]interface{}{
		"origin":      req.OriginCode,
		"destination": req.DestinationCode,
		"tripType":    string(req.TripType),
	})
	return []Reply{{Text: outcome.Message()}}
}

// persist writes the advanced record back. A failed write keeps the reply
// generic and leaves the stored state at the previous step.
func (e *Engine) persist(ctx context.Context, req *TripRequest, log logger.Logger) []Reply {
	req.UpdatedAt = time.Now().UTC()
	if err := e.store.Put(ctx, req); err != nil {
		log.WithError(err).Error("conversation store write failed", nil)
		return []Reply{{Text: render.InternalError().Message()}}
	}
	return nil
}

func (e *Engine) rejectInput(req *TripRequest, input string, log logger.Logger) {
	valErr := errors.NewInvalidInputError(req.Step.String(), "input does not match step contract")
	log.Info("input rejected", map[string]interface{}{
		"code":  string(valErr.Code),
		"input": input,
	})
}

func (e *Engine) cityPrompt(step Step) string {
	if step == StepFromCity {
		if e.directEntry {
			return promptFromCityIATA
		}
		return promptFromCity
	}
	if e.directEntry {
		return promptToCityIATA
	}
	return promptToCity
}

func (e *Engine) choosePrompt(step Step) string {
	if step == StepChooseFrom {
		return promptChooseFrom
	}
	return promptChooseTo
}

// afterCityReply is the prompt that follows a committed origin or
// destination.
func (e *Engine) afterCityReply(req *TripRequest) Reply {
	if req.Step == StepToCity {
		return Reply{Text: e.cityPrompt(StepToCity)}
	}
	return Reply{Text: promptTripType, Options: tripTypeOptions()}
}
