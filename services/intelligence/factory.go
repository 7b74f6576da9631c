package intelligence

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"tourbot/config"
	"tourbot/utils"
)

// NewExtractorFromConfig picks the configured backend. A disabled or
// misconfigured backend yields Disabled. The returned close func is never nil.
func NewExtractorFromConfig(ctx context.Context, cfg config.Config, cache *redis.Client) (Extractor, func() error) {
	noop := func() error { return nil }
	if !cfg.EnableLLM {
		utils.GetLogger().Info("LLM extraction disabled")
		return Disabled{}, noop
	}

	var (
		backend Completer
		closeFn = noop
	)
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			utils.GetLogger().Warn("LLM extraction: GEMINI_API_KEY is empty, disabling")
			return Disabled{}, noop
		}
		g, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			utils.GetLogger().Error("LLM extraction: Gemini unavailable, disabling", zap.Error(err))
			return Disabled{}, noop
		}
		backend, closeFn = g, g.Close
	case "openai", "":
		if cfg.OpenAIAPIKey == "" {
			utils.GetLogger().Warn("LLM extraction: OPENAI_API_KEY is empty, disabling")
			return Disabled{}, noop
		}
		backend = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	default:
		utils.GetLogger().Warn("LLM extraction: unknown provider, disabling", zap.String("provider", cfg.LLMProvider))
		return Disabled{}, noop
	}

	utils.GetLogger().Info("LLM extraction enabled", zap.String("backend", backend.Name()))
	return NewRedisExtractionCache(NewLLMExtractor(backend, cfg.LLMTimeout), cache, cfg.LLMCacheTTL), closeFn
}
