package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbot/config"
	"tourbot/models"
	"tourbot/services/dialogue"
	"tourbot/services/ittour"
	"tourbot/services/places"
)

type fakeExtractor struct {
	byText map[string]models.ExtractedFields
}

func (f fakeExtractor) Extract(ctx context.Context, text string, countries, cities *places.Table) models.ExtractedFields {
	return f.byText[text]
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []models.SearchQuery
	res     models.SearchResult
	err     error
}

func (s *fakeSearcher) Search(ctx context.Context, q models.SearchQuery) (models.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	return s.res, s.err
}

func (s *fakeSearcher) last(t *testing.T) models.SearchQuery {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.queries)
	return s.queries[len(s.queries)-1]
}

var fixedNow = time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)

func testDefaults() config.Defaults {
	return config.Defaults{
		Type: 1, Kind: 1, HotelRating: "78", AdultAmount: 2,
		NightFrom: 6, NightTill: 8, ItemsPerPage: 10,
		Currency: models.CurrencyUAH,
	}
}

func newAssistant(llm map[string]models.ExtractedFields, searcher *fakeSearcher) (*Assistant, *dialogue.MemoryStore) {
	countries := places.NewTable([]places.Entry{{Name: "Єгипет", ID: 338}, {Name: "Туреччина", ID: 318}})
	cities := places.NewTable([]places.Entry{{Name: "Кишинів", ID: 143}, {Name: "Варшава", ID: 2014}})
	tracker := dialogue.NewTracker(countries, cities, testDefaults())
	tracker.Now = func() time.Time { return fixedNow }
	store := dialogue.NewMemoryStore()
	return New(store, tracker, fakeExtractor{byText: llm}, searcher, []string{"Кишинів", "Варшава", "Ясси"}), store
}

func fullRequest() models.ExtractedFields {
	return models.ExtractedFields{
		CountryName:  models.StringPtr("Єгипет"),
		CountryID:    models.IntPtr(338),
		FromCityName: models.StringPtr("Кишинів"),
		FromCityID:   models.IntPtr(143),
		Adults:       models.IntPtr(2),
		DateFrom:     models.StringPtr("10.12.2026"),
		CurrencyHint: models.StringPtr("usd"),
		BudgetTo:     models.IntPtr(1500),
	}
}

func usdOffer(hotelID string, amount float64) models.RawOffer {
	return models.RawOffer{
		HotelID:     models.FlexString(hotelID),
		Hotel:       models.FlexString("Hotel " + hotelID),
		Region:      "Хургада",
		Country:     "Єгипет",
		HotelRating: "4",
		DateFrom:    "2026-12-10",
		Duration:    "7",
		Prices:      models.PriceList{{CurrencyID: "1", Amount: &amount}},
		FromCity:    "Кишинів",
		HotelImages: models.ImageList{{Full: "https://img/" + models.FlexString(hotelID)}},
	}
}

func actionData(msg models.ChatMessage) []string {
	out := make([]string, 0, len(msg.Actions))
	for _, a := range msg.Actions {
		out = append(out, a.Data)
	}
	return out
}

const request = "Тур до Єгипту з Кишинева на двох, з 10.12.2026, бюджет 1500 дол"

func TestHandleTextFullRequestSearches(t *testing.T) {
	searcher := &fakeSearcher{res: models.SearchResult{
		Offers:       []models.RawOffer{usdOffer("7", 1200), usdOffer("5", 900)},
		HasMorePages: true,
		Page:         1,
	}}
	a, _ := newAssistant(map[string]models.ExtractedFields{request: fullRequest()}, searcher)

	resp, err := a.HandleText(context.Background(), "c1", request)
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageReady), resp.Stage)

	q := searcher.last(t)
	assert.Equal(t, 338, q.Country)
	assert.Equal(t, 143, q.FromCity)
	assert.Equal(t, 2, q.AdultAmount)
	assert.Equal(t, 0, q.ChildAmount)
	assert.Equal(t, "10.12.26", q.DateFrom)
	assert.Equal(t, "22.12.26", q.DateTill)
	assert.Equal(t, models.CurrencyUSD, q.Currency)
	require.NotNil(t, q.PriceTill)
	assert.Equal(t, 1500, *q.PriceTill)
	assert.Equal(t, 1, q.Page)

	require.Len(t, resp.Messages, 4)
	assert.True(t, strings.HasPrefix(resp.Messages[0].Text, "🔎 Параметри пошуку"))
	assert.Contains(t, resp.Messages[0].Text, "🌍 Країна: Єгипет")
	assert.Contains(t, resp.Messages[0].Text, "🛫 Виліт: Кишинів")
	assert.Contains(t, resp.Messages[0].Text, "💰 0 – 1500 $")

	// Cheapest hotel first.
	assert.Contains(t, resp.Messages[1].Text, "Hotel 5")
	assert.Equal(t, "https://img/5", resp.Messages[1].ImageURL)
	assert.Contains(t, resp.Messages[2].Text, "Hotel 7")

	assert.Contains(t, resp.Messages[3].Text, "стор. 1")
	assert.Equal(t, []string{CallbackNextPage, CallbackSearchReset}, actionData(resp.Messages[3]))
}

func TestHandleTextAsksSlotsInOrder(t *testing.T) {
	searcher := &fakeSearcher{}
	a, store := newAssistant(nil, searcher)
	ctx := context.Background()

	resp, err := a.HandleText(ctx, "c1", "привіт")
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingCountry), resp.Stage)
	assert.Equal(t, msgAskCountry, resp.Messages[0].Text)

	resp, err = a.HandleText(ctx, "c1", "Туреччина")
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingCity), resp.Stage)
	assert.Equal(t, msgAskCity, resp.Messages[0].Text)
	assert.Equal(t, []string{"from_city:143", "from_city:2014", CallbackSearchReset}, actionData(resp.Messages[0]))

	st, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, st.AwaitingFromCity)

	// A bare reply is read as the departure city while one is awaited.
	resp, err = a.HandleText(ctx, "c1", "Кишинів")
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingAdults), resp.Stage)
	assert.Equal(t, msgAskAdults, resp.Messages[0].Text)

	st, err = store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, st.AwaitingFromCity)
	require.NotNil(t, st.Slots.FromCityID)
	assert.Equal(t, 143, *st.Slots.FromCityID)

	resp, err = a.HandleText(ctx, "c1", "2 дорослих")
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingDate), resp.Stage)

	resp, err = a.HandleText(ctx, "c1", "10.12")
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingBudget), resp.Stage)
	assert.Equal(t, msgAskBudget, resp.Messages[0].Text)
	assert.Empty(t, searcher.queries)
}

func TestHandleTextBadDateDiscardsTurn(t *testing.T) {
	fields := fullRequest()
	fields.DateFrom = models.StringPtr("колись")
	a, store := newAssistant(map[string]models.ExtractedFields{"хочу тур": fields}, &fakeSearcher{})

	resp, err := a.HandleText(context.Background(), "c1", "хочу тур")
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingDate), resp.Stage)
	assert.Equal(t, msgBadDateFrom, resp.Messages[0].Text)

	st, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, st.Slots.CountryID)
}

func TestHandleTextUnavailableDiscardsTurn(t *testing.T) {
	searcher := &fakeSearcher{err: ittour.ErrServiceUnavailable}
	a, store := newAssistant(map[string]models.ExtractedFields{request: fullRequest()}, searcher)

	resp, err := a.HandleText(context.Background(), "c1", request)
	require.NoError(t, err)
	assert.Equal(t, msgUnavailable, resp.Messages[0].Text)

	st, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, st.Slots.CountryID)
}

func TestHandleTextUnknownSearchErrorIsUnavailable(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("boom")}
	a, _ := newAssistant(map[string]models.ExtractedFields{request: fullRequest()}, searcher)

	resp, err := a.HandleText(context.Background(), "c1", request)
	require.NoError(t, err)
	assert.Equal(t, msgUnavailable, resp.Messages[0].Text)
}

func TestHandleTextUpstreamErrorKeepsState(t *testing.T) {
	searcher := &fakeSearcher{err: &ittour.UpstreamError{Code: 201, Message: "bad"}}
	a, store := newAssistant(map[string]models.ExtractedFields{request: fullRequest()}, searcher)

	resp, err := a.HandleText(context.Background(), "c1", request)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, ittour.Humanize(&ittour.UpstreamError{Code: 201}), resp.Messages[0].Text)

	st, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, st.Slots.CountryID)
	assert.Equal(t, 338, *st.Slots.CountryID)
}

func TestHandleTextNothingFound(t *testing.T) {
	a, _ := newAssistant(map[string]models.ExtractedFields{request: fullRequest()}, &fakeSearcher{})

	resp, err := a.HandleText(context.Background(), "c1", request)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, msgNothingFound, resp.Messages[1].Text)
}

func TestNextPage(t *testing.T) {
	searcher := &fakeSearcher{res: models.SearchResult{Offers: []models.RawOffer{usdOffer("5", 900)}, HasMorePages: true}}
	a, store := newAssistant(map[string]models.ExtractedFields{request: fullRequest()}, searcher)
	ctx := context.Background()

	_, err := a.HandleText(ctx, "c1", request)
	require.NoError(t, err)

	resp, err := a.HandleCallback(ctx, "c1", CallbackNextPage)
	require.NoError(t, err)
	assert.Equal(t, 2, searcher.last(t).Page)
	assert.Contains(t, resp.Messages[len(resp.Messages)-1].Text, "стор. 2")

	searcher.err = ittour.ErrServiceUnavailable
	resp, err = a.HandleCallback(ctx, "c1", CallbackNextPage)
	require.NoError(t, err)
	assert.Equal(t, msgUnavailable, resp.Messages[0].Text)

	st, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Page)
}

func TestChangedQueryResetsPage(t *testing.T) {
	searcher := &fakeSearcher{res: models.SearchResult{Offers: []models.RawOffer{usdOffer("5", 900)}, HasMorePages: true}}
	cheaper := models.ExtractedFields{BudgetTo: models.IntPtr(1000)}
	a, _ := newAssistant(map[string]models.ExtractedFields{request: fullRequest(), "а дешевше?": cheaper}, searcher)
	ctx := context.Background()

	_, err := a.HandleText(ctx, "c1", request)
	require.NoError(t, err)
	_, err = a.HandleCallback(ctx, "c1", CallbackNextPage)
	require.NoError(t, err)
	require.Equal(t, 2, searcher.last(t).Page)

	_, err = a.HandleText(ctx, "c1", "а дешевше?")
	require.NoError(t, err)
	q := searcher.last(t)
	assert.Equal(t, 1, q.Page)
	require.NotNil(t, q.PriceTill)
	assert.Equal(t, 1000, *q.PriceTill)
}

func TestCallbackFromCity(t *testing.T) {
	a, store := newAssistant(map[string]models.ExtractedFields{
		"Єгипет": {CountryName: models.StringPtr("Єгипет"), CountryID: models.IntPtr(338)},
	}, &fakeSearcher{})
	ctx := context.Background()

	_, err := a.HandleText(ctx, "c1", "Єгипет")
	require.NoError(t, err)

	resp, err := a.HandleCallback(ctx, "c1", "from_city:2014")
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingAdults), resp.Stage)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, msgCitySaved, resp.Messages[0].Text)
	assert.Equal(t, msgAskAdults, resp.Messages[1].Text)

	st, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, st.Slots.FromCityName)
	assert.Equal(t, "Варшава", *st.Slots.FromCityName)
	assert.False(t, st.AwaitingFromCity)
}

func TestCallbackFromCityRejectsUnknownID(t *testing.T) {
	a, store := newAssistant(nil, &fakeSearcher{})

	for _, data := range []string{"from_city:abc", "from_city:999"} {
		resp, err := a.HandleCallback(context.Background(), "c1", data)
		require.NoError(t, err)
		assert.Equal(t, msgBadCity, resp.Messages[0].Text)
	}
	st, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, st.Slots.FromCityID)
}

func TestCallbackFromCityKeptWhenSearchFails(t *testing.T) {
	noCity := fullRequest()
	noCity.FromCityName, noCity.FromCityID = nil, nil
	searcher := &fakeSearcher{}
	a, store := newAssistant(map[string]models.ExtractedFields{"без міста": noCity}, searcher)
	ctx := context.Background()

	resp, err := a.HandleText(ctx, "c1", "без міста")
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingCity), resp.Stage)

	searcher.err = ittour.ErrServiceUnavailable
	resp, err = a.HandleCallback(ctx, "c1", "from_city:2014")
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, msgCitySaved, resp.Messages[0].Text)
	assert.Equal(t, msgUnavailable, resp.Messages[1].Text)

	st, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, st.Slots.FromCityID)
	assert.Equal(t, 2014, *st.Slots.FromCityID)
	assert.False(t, st.AwaitingFromCity)
	assert.Equal(t, 2014, searcher.last(t).FromCity)
}

func TestCallbackResetAndStart(t *testing.T) {
	a, store := newAssistant(map[string]models.ExtractedFields{request: fullRequest()}, &fakeSearcher{})
	ctx := context.Background()

	_, err := a.HandleText(ctx, "c1", request)
	require.NoError(t, err)

	resp, err := a.HandleCallback(ctx, "c1", CallbackSearchReset)
	require.NoError(t, err)
	assert.Equal(t, msgReset, resp.Messages[0].Text)
	st, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, models.Slots{}, st.Slots)
	assert.Equal(t, 1, st.Page)

	resp, err = a.HandleCallback(ctx, "c1", CallbackSearchStart)
	require.NoError(t, err)
	assert.Equal(t, string(dialogue.StageCollectingCity), resp.Stage)
	st, err = store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, st.AwaitingFromCity)

	resp, err = a.Start(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{CallbackSearchStart}, actionData(resp.Messages[0]))
	st, err = store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, st.AwaitingFromCity)
}

func TestUnknownCallback(t *testing.T) {
	a, _ := newAssistant(nil, &fakeSearcher{})
	resp, err := a.HandleCallback(context.Background(), "c1", "nope")
	require.NoError(t, err)
	assert.Equal(t, msgUnknownCommand, resp.Messages[0].Text)
}

func TestStoreErrorsSurface(t *testing.T) {
	a, _ := newAssistant(nil, &fakeSearcher{})
	_, err := a.HandleText(context.Background(), "", "привіт")
	assert.ErrorIs(t, err, dialogue.ErrInvalidID)
}
