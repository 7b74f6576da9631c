// Package intelligence is the LLM-backed extractor. Every failure, including
// a disabled backend, degrades to an empty ExtractedFields.
package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"tourbot/models"
	"tourbot/services/places"
	"tourbot/utils"
)

// Extractor returns a best-effort opinion about one user message. It never
// fails: no opinion is an empty record.
type Extractor interface {
	Extract(ctx context.Context, text string, countries, cities *places.Table) models.ExtractedFields
}

// Completer is a chat backend that answers with a JSON object.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

const systemPrompt = `Ти — екстрактор параметрів для пошуку турів.
Відповідай ТІЛЬКИ валідним JSON без коментарів.
Схема:
{
  "country_name": string|null,
  "from_city_name": string|null,
  "country_id": int|null,
  "from_city_id": int|null,
  "adults": int|null,
  "children": int|null,
  "child_ages": "7:4:3"|null,
  "date_from": "dd.mm.yy"|null,
  "date_till": "dd.mm.yy"|null,
  "currency_hint": "usd"|"eur"|"uah"|null,
  "budget_from": int|null,
  "budget_to": int|null
}
Правила:
- Мапити назви країн/міст через надані мапи (country_map, from_city_map). Якщо немає збігу — поверни *name, але id = null.
- Валюта: usd/дол/$ → "usd"; eur/євро/€ → "eur"; інакше "uah" або null.
- Бюджет: підтримуй "до 2000", "від 500 до 1500", "близько 1000".
- Дати: приймай dd.mm або dd.mm.yy → нормалізуй у dd.mm.yy, якщо можливо; інакше null.
- Дорослі/діти: "на 2", "для двох дорослих і 1 дитини 7 років".
- Якщо не впевнений — поверни null (не вигадуй).`

// LLMExtractor asks a Completer for the slots in a single attempt bounded by
// timeout.
type LLMExtractor struct {
	backend Completer
	timeout time.Duration
}

func NewLLMExtractor(backend Completer, timeout time.Duration) *LLMExtractor {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LLMExtractor{backend: backend, timeout: timeout}
}

func (e *LLMExtractor) Extract(ctx context.Context, text string, countries, cities *places.Table) models.ExtractedFields {
	if strings.TrimSpace(text) == "" {
		return models.ExtractedFields{}
	}
	user, err := userMessage(text, countries, cities)
	if err != nil {
		utils.GetLogger().Warn("LLMExtractor: failed to build prompt", zap.Error(err))
		return models.ExtractedFields{}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.backend.Complete(ctx, systemPrompt, user)
	if err != nil {
		utils.GetLogger().Warn("LLMExtractor: completion failed", zap.String("backend", e.backend.Name()), zap.Error(err))
		return models.ExtractedFields{}
	}
	fields, err := ParseFields(raw)
	if err != nil {
		utils.GetLogger().Warn("LLMExtractor: unusable response", zap.String("backend", e.backend.Name()), zap.Error(err))
		return models.ExtractedFields{}
	}
	return fields
}

func userMessage(text string, countries, cities *places.Table) (string, error) {
	maps := map[string]map[string]int{
		"country_map":   countries.Map(),
		"from_city_map": cities.Map(),
	}
	b, err := json.Marshal(maps)
	if err != nil {
		return "", err
	}
	return "TEXT:\n" + text + "\n\nMAPS:\n" + string(b), nil
}

// ParseFields decodes a model answer. Integer fields that do not parse are
// dropped rather than failing the whole record.
func ParseFields(raw string) (models.ExtractedFields, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return models.ExtractedFields{}, fmt.Errorf("decode model answer: %w", err)
	}

	return models.ExtractedFields{
		CountryName:  str(data["country_name"]),
		CountryID:    integer(data["country_id"]),
		FromCityName: str(data["from_city_name"]),
		FromCityID:   integer(data["from_city_id"]),
		Adults:       integer(data["adults"]),
		Children:     integer(data["children"]),
		ChildAges:    str(data["child_ages"]),
		DateFrom:     str(data["date_from"]),
		DateTill:     str(data["date_till"]),
		CurrencyHint: str(data["currency_hint"]),
		BudgetFrom:   integer(data["budget_from"]),
		BudgetTo:     integer(data["budget_to"]),
	}, nil
}

func str(v any) *string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func integer(v any) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return &i
		}
	}
	return nil
}

// Disabled is the extractor used when no LLM backend is configured.
type Disabled struct{}

func (Disabled) Extract(context.Context, string, *places.Table, *places.Table) models.ExtractedFields {
	return models.ExtractedFields{}
}

var (
	_ Extractor = (*LLMExtractor)(nil)
	_ Extractor = Disabled{}
)
