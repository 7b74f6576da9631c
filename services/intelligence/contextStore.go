package intelligence

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"tourbot/models"
	"tourbot/services/places"
	"tourbot/utils"
)

const extractionPrefix = "llm:extract:"

// RedisExtractionCache remembers LLM answers per normalized message text so
// that repeated phrasings skip the model call.
type RedisExtractionCache struct {
	next   Extractor
	client *redis.Client
	ttl    time.Duration
}

// NewRedisExtractionCache wraps next. A nil client returns next unchanged.
func NewRedisExtractionCache(next Extractor, client *redis.Client, ttl time.Duration) Extractor {
	if client == nil {
		return next
	}
	return &RedisExtractionCache{next: next, client: client, ttl: ttl}
}

func extractionKey(text string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := md5.Sum([]byte(norm))
	return extractionPrefix + hex.EncodeToString(sum[:])
}

func (s *RedisExtractionCache) Extract(ctx context.Context, text string, countries, cities *places.Table) models.ExtractedFields {
	key := extractionKey(text)
	data, err := s.client.Get(ctx, key).Result()
	if err == nil {
		var fields models.ExtractedFields
		if err := json.Unmarshal([]byte(data), &fields); err == nil {
			return fields
		}
	} else if err != redis.Nil {
		utils.GetLogger().Warn("RedisExtractionCache: read failed", zap.Error(err))
	}

	fields := s.next.Extract(ctx, text, countries, cities)
	// Empty answers are usually failures; retry them next time.
	if fields.IsEmpty() {
		return fields
	}
	if b, err := json.Marshal(fields); err == nil {
		if err := s.client.Set(ctx, key, b, s.ttl).Err(); err != nil {
			utils.GetLogger().Warn("RedisExtractionCache: write failed", zap.Error(err))
		}
	}
	return fields
}
