package ittour

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"tourbot/models"
	"tourbot/utils"
)

// CachedSearcher serves repeated searches from Redis. Cache failures are
// logged and never fail a search.
type CachedSearcher struct {
	next   Searcher
	client *redis.Client
	ttl    time.Duration
}

// NewCachedSearcher wraps next. A nil client returns next unchanged.
func NewCachedSearcher(next Searcher, client *redis.Client, ttl time.Duration) Searcher {
	if client == nil {
		return next
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedSearcher{next: next, client: client, ttl: ttl}
}

// CacheKey is search:<hash of every parameter but the page>:<page>.
func CacheKey(q models.SearchQuery) string {
	params := q.Values()
	params.Del("page")
	sum := md5.Sum([]byte(params.Encode()))
	return utils.SearchCachePrefix + hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(max(q.Page, 1))
}

func (c *CachedSearcher) Search(ctx context.Context, q models.SearchQuery) (models.SearchResult, error) {
	key := CacheKey(q)

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res models.SearchResult
		if err := json.Unmarshal(cached, &res); err == nil {
			utils.GetLogger().Debug("CachedSearcher: cache hit", zap.String("key", key))
			return res, nil
		}
		utils.GetLogger().Warn("CachedSearcher: dropping undecodable entry", zap.String("key", key))
	case err != redis.Nil:
		utils.GetLogger().Warn("CachedSearcher: cache read failed", zap.String("key", key), zap.Error(err))
	}

	res, err := c.next.Search(ctx, q)
	if err != nil {
		return res, err
	}

	if payload, err := json.Marshal(res); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			utils.GetLogger().Warn("CachedSearcher: cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}
