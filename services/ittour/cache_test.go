package ittour

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbot/models"
)

type countingSearcher struct {
	calls int
	res   models.SearchResult
	err   error
}

func (s *countingSearcher) Search(ctx context.Context, q models.SearchQuery) (models.SearchResult, error) {
	s.calls++
	return s.res, s.err
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleResult() models.SearchResult {
	amount := 850.0
	return models.SearchResult{
		Offers: []models.RawOffer{{
			HotelID:  "101",
			Hotel:    "Sunrise",
			DateFrom: "2026-12-10",
			Prices:   models.PriceList{{CurrencyID: "10", Amount: &amount}, {CurrencyID: "1", Amount: nil}},
		}},
		HasMorePages: true,
		Page:         2,
	}
}

func TestCachedSearcherServesRepeatFromRedis(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingSearcher{res: sampleResult()}
	s := NewCachedSearcher(next, client, time.Minute)

	q := testQuery(t)
	q.Page = 2

	first, err := s.Search(context.Background(), q)
	require.NoError(t, err)
	second, err := s.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(CacheKey(q)))
	assert.Equal(t, time.Minute, mr.TTL(CacheKey(q)))

	// Price order survives the round trip.
	assert.Equal(t, "10", second.Offers[0].Prices[0].CurrencyID)
	assert.Nil(t, second.Offers[0].Prices[1].Amount)
}

func TestCachedSearcherDoesNotCacheErrors(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingSearcher{err: ErrServiceUnavailable}
	s := NewCachedSearcher(next, client, time.Minute)

	q := testQuery(t)
	_, err := s.Search(context.Background(), q)
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
	assert.False(t, mr.Exists(CacheKey(q)))
}

func TestCachedSearcherSurvivesRedisOutage(t *testing.T) {
	mr, client := newRedis(t)
	next := &countingSearcher{res: sampleResult()}
	s := NewCachedSearcher(next, client, time.Minute)
	mr.Close()

	res, err := s.Search(context.Background(), testQuery(t))
	require.NoError(t, err)
	assert.Len(t, res.Offers, 1)
	assert.Equal(t, 1, next.calls)
}

func TestNewCachedSearcherWithoutClient(t *testing.T) {
	next := &countingSearcher{}
	assert.Same(t, Searcher(next), NewCachedSearcher(next, nil, 0))
}

func TestCacheKeyPerPage(t *testing.T) {
	q := testQuery(t)
	k1 := CacheKey(q)
	q.Page = 2
	k2 := CacheKey(q)

	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1[:len(k1)-2], k2[:len(k2)-2])
	assert.Regexp(t, `^search:[0-9a-f]{32}:1$`, k1)
}
