// Package assistant runs one chat turn end to end: extraction, slot tracking,
// search and rendering of the reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tourbot/config"
	"tourbot/models"
	"tourbot/services/dialogue"
	"tourbot/services/intelligence"
	"tourbot/services/ittour"
	"tourbot/services/offers"
	"tourbot/services/parser"
	"tourbot/services/places"
	"tourbot/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Assistant is safe for concurrent use. Turns of the same conversation are
// serialized by the store.
type Assistant struct {
	store     dialogue.Store
	tracker   *dialogue.Tracker
	parser    *parser.Parser
	llm       intelligence.Extractor
	searcher  ittour.Searcher
	countries *places.Table
	cities    *places.Table
	topCities []string
	defaults  config.Defaults
}

// New wires an assistant. topCities are the canonical city names offered as
// buttons when the departure city is asked for.
func New(store dialogue.Store, tracker *dialogue.Tracker, llm intelligence.Extractor, searcher ittour.Searcher, topCities []string) *Assistant {
	if llm == nil {
		llm = intelligence.Disabled{}
	}
	return &Assistant{
		store:     store,
		tracker:   tracker,
		parser:    parser.New(tracker.Countries, tracker.Cities),
		llm:       llm,
		searcher:  searcher,
		countries: tracker.Countries,
		cities:    tracker.Cities,
		topCities: topCities,
		defaults:  tracker.Search,
	}
}

// Start resets the conversation and greets the user.
func (a *Assistant) Start(ctx context.Context, id string) (models.ChatResponse, error) {
	if err := a.store.Replace(ctx, models.NewConversationState(id)); err != nil {
		return models.ChatResponse{}, err
	}
	resp := models.ChatResponse{Stage: string(dialogue.StageCollectingCountry)}
	resp.Add(msgGreeting, actionStart)
	return resp, nil
}

// HandleText processes a free-text message. The returned error is non-nil only
// when the conversation state could not be read or written.
func (a *Assistant) HandleText(ctx context.Context, id, text string) (models.ChatResponse, error) {
	logger := utils.GetLogger().With(zap.String("conversation", id), zap.String("turn", uuid.NewString()))
	text = strings.TrimSpace(text)

	rule, llm := a.extract(ctx, text)
	logger.Debug("HandleText: extracted", zap.Any("rule", rule), zap.Any("llm", llm))

	return a.run(ctx, id, logger, func(st *models.ConversationState, resp *models.ChatResponse) error {
		if st.AwaitingFromCity && !mentionsCity(rule) && !mentionsCity(llm) {
			if cid, ok := a.cities.Resolve(text); ok {
				rule.FromCityID = &cid
				if name, ok := a.cities.NameByID(cid); ok {
					rule.FromCityName = &name
				}
			}
		}

		turn, err := a.tracker.Apply(st, rule, llm, text)
		if err != nil {
			return err
		}
		if turn.PageReset {
			logger.Info("HandleText: query changed, back to first page")
		}
		if st.Slots.FromCityID != nil {
			st.AwaitingFromCity = false
		}
		return a.advance(ctx, st, resp, logger)
	})
}

// HandleCallback processes a pressed button.
func (a *Assistant) HandleCallback(ctx context.Context, id, data string) (models.ChatResponse, error) {
	logger := utils.GetLogger().With(zap.String("conversation", id), zap.String("callback", data))

	switch {
	case data == CallbackSearchStart:
		return a.run(ctx, id, logger, func(st *models.ConversationState, resp *models.ChatResponse) error {
			st.AwaitingFromCity = true
			resp.Stage = string(dialogue.StageCollectingCity)
			resp.Add(msgStartSearch, a.cityActions()...)
			return nil
		})

	case data == CallbackSearchReset:
		return a.run(ctx, id, logger, func(st *models.ConversationState, resp *models.ChatResponse) error {
			*st = *dialogue.Reset(st)
			resp.Stage = string(dialogue.StageCollectingCountry)
			resp.Add(msgReset)
			return nil
		})

	case data == CallbackNextPage:
		return a.run(ctx, id, logger, func(st *models.ConversationState, resp *models.ChatResponse) error {
			st.Page = max(st.Page, 1) + 1
			return a.advance(ctx, st, resp, logger)
		})

	case strings.HasPrefix(data, CallbackFromCity):
		return a.chooseCity(ctx, id, strings.TrimPrefix(data, CallbackFromCity), logger)
	}

	logger.Warn("HandleCallback: unknown callback")
	resp := models.ChatResponse{Stage: string(dialogue.StageReady)}
	resp.Add(msgUnknownCommand, actionReset)
	return resp, nil
}

// chooseCity stores the picked city in its own commit, so a failing search
// afterwards does not lose the choice. The commit and the search are two
// separate store updates, not one atomic step: another turn for the same
// conversation may run in between, and the search then starts from whatever
// state that turn left behind.
func (a *Assistant) chooseCity(ctx context.Context, id, raw string, logger *zap.Logger) (models.ChatResponse, error) {
	cityID, err := strconv.Atoi(raw)
	name, known := "", false
	if err == nil {
		name, known = a.cities.NameByID(cityID)
	}
	if !known {
		logger.Warn("chooseCity: invalid city id", zap.String("raw", raw))
		resp := models.ChatResponse{Stage: string(dialogue.StageCollectingCity)}
		resp.Add(msgBadCity, a.cityActions()...)
		return resp, nil
	}

	saved, err := a.run(ctx, id, logger, func(st *models.ConversationState, resp *models.ChatResponse) error {
		st.Slots.FromCityID = models.IntPtr(cityID)
		st.Slots.FromCityName = models.StringPtr(name)
		st.AwaitingFromCity = false
		st.QueryHash = dialogue.Fingerprint(st.Slots, a.defaults)
		st.Page = 1
		resp.Add(msgCitySaved)
		return nil
	})
	if err != nil {
		return saved, err
	}

	next, err := a.run(ctx, id, logger, func(st *models.ConversationState, resp *models.ChatResponse) error {
		return a.advance(ctx, st, resp, logger)
	})
	if err != nil {
		return next, err
	}
	next.Messages = append(saved.Messages, next.Messages...)
	return next, nil
}

// extract runs the rule parser and the LLM side by side. Neither can fail.
func (a *Assistant) extract(ctx context.Context, text string) (rule, llm models.ExtractedFields) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rule = a.parser.Parse(text)
		return nil
	})
	g.Go(func() error {
		llm = a.llm.Extract(gctx, text, a.countries, a.cities)
		return nil
	})
	_ = g.Wait()
	return rule, llm
}

// run executes fn inside the conversation's update. Outcomes the user can act
// on are committed; date and upstream availability failures discard the turn
// and are rendered here.
func (a *Assistant) run(ctx context.Context, id string, logger *zap.Logger, fn func(st *models.ConversationState, resp *models.ChatResponse) error) (models.ChatResponse, error) {
	var resp models.ChatResponse
	err := a.store.Update(ctx, id, func(st *models.ConversationState) error {
		resp = models.ChatResponse{}
		return fn(st, &resp)
	})
	if err == nil {
		if resp.Stage == "" {
			resp.Stage = string(dialogue.StageReady)
		}
		return resp, nil
	}

	var dateErr *dialogue.DateError
	switch {
	case errors.As(err, &dateErr):
		logger.Info("run: unparseable date", zap.String("slot", dateErr.Slot), zap.Error(dateErr.Err))
		out := models.ChatResponse{Stage: string(dialogue.StageCollectingDate)}
		if dateErr.Slot == dialogue.SlotDateTill {
			out.Add(msgBadDateTill, actionReset)
		} else {
			out.Add(msgBadDateFrom, actionReset)
		}
		return out, nil

	case errors.Is(err, ittour.ErrServiceUnavailable), errors.Is(err, ittour.ErrMalformedResponse):
		logger.Error("run: search unavailable", zap.Error(err))
		out := models.ChatResponse{Stage: string(dialogue.StageReady)}
		out.Add(msgUnavailable, actionReset)
		return out, nil
	}

	logger.Error("run: conversation update failed", zap.Error(err))
	return models.ChatResponse{}, err
}

// advance asks for the next missing slot or, once everything is known, runs
// the search and renders the results into resp.
func (a *Assistant) advance(ctx context.Context, st *models.ConversationState, resp *models.ChatResponse, logger *zap.Logger) error {
	stage, err := a.tracker.Next(st)
	resp.Stage = string(stage)
	if err != nil {
		var missing *dialogue.MissingSlotError
		if !errors.As(err, &missing) {
			return err
		}
		a.prompt(resp, missing.Slot)
		return nil
	}

	q, err := ittour.BuildQuery(st.Slots, st.Page, a.defaults, a.now())
	if err != nil {
		var qe *ittour.QueryError
		if errors.As(err, &qe) {
			logger.Info("advance: query rejected", zap.String("field", qe.Field))
			resp.Add(qe.Message, actionReset)
			return nil
		}
		logger.Warn("advance: failed to build query", zap.Error(err))
		resp.Stage = string(dialogue.StageCollectingDate)
		resp.Add(msgBadDateFrom, actionReset)
		return nil
	}

	res, err := a.searcher.Search(ctx, q)
	if err != nil {
		var upErr *ittour.UpstreamError
		if errors.As(err, &upErr) && !errors.Is(err, ittour.ErrMalformedResponse) {
			resp.Add(ittour.Humanize(upErr), actionReset)
			return nil
		}
		if !errors.Is(err, ittour.ErrServiceUnavailable) && !errors.Is(err, ittour.ErrMalformedResponse) {
			err = fmt.Errorf("%w: %v", ittour.ErrServiceUnavailable, err)
		}
		return err
	}

	a.render(resp, st, q, res)
	return nil
}

func (a *Assistant) render(resp *models.ChatResponse, st *models.ConversationState, q models.SearchQuery, res models.SearchResult) {
	resp.Add(summary(st.Slots, q, a.defaults))

	cards := offers.Rank(res.Offers, q.Currency)
	if len(cards) == 0 {
		resp.Add(msgNothingFound, actionReset)
		return
	}
	for _, c := range cards {
		resp.Messages = append(resp.Messages, models.ChatMessage{Text: c.Caption, ImageURL: c.ImageURL})
	}
	if res.HasMorePages {
		resp.Add(fmt.Sprintf(msgMorePages, len(cards), q.Page), actionNextPage, actionReset)
		return
	}
	resp.Add(msgLastPage, actionReset)
}

func (a *Assistant) prompt(resp *models.ChatResponse, slot string) {
	text, ok := slotPrompts[slot]
	if !ok {
		text = msgAskCountry
	}
	if slot == dialogue.SlotFromCity {
		resp.Add(text, a.cityActions()...)
		return
	}
	resp.Add(text, actionReset)
}

func (a *Assistant) cityActions() []models.ChatAction {
	actions := make([]models.ChatAction, 0, len(a.topCities)+1)
	for _, name := range a.topCities {
		id, ok := a.cities.ID(name)
		if !ok {
			continue
		}
		actions = append(actions, models.ChatAction{Label: name, Data: CallbackFromCity + strconv.Itoa(id)})
	}
	return append(actions, actionReset)
}

func (a *Assistant) now() time.Time {
	if a.tracker.Now != nil {
		return a.tracker.Now()
	}
	return time.Now()
}

func mentionsCity(f models.ExtractedFields) bool {
	return f.FromCityID != nil || (f.FromCityName != nil && *f.FromCityName != "")
}
