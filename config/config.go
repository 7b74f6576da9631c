package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFile           string `mapstructure:"LOG_FILE"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	WebhookSecret     string `mapstructure:"WEBHOOK_SECRET"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`

	// LLM extraction.
	EnableLLM     bool          `mapstructure:"ENABLE_LLM"`
	LLMProvider   string        `mapstructure:"LLM_PROVIDER"`
	LLMTimeout    time.Duration `mapstructure:"LLM_TIMEOUT"`
	LLMCacheTTL   time.Duration `mapstructure:"LLM_CACHE_TTL"`
	OpenAIAPIKey  string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string        `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string        `mapstructure:"OPENAI_BASE_URL"`
	GeminiAPIKey  string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string        `mapstructure:"GEMINI_MODEL"`

	// Tour search API.
	ITTourAPIToken  string        `mapstructure:"ITTOUR_API_TOKEN"`
	ITTourBaseURL   string        `mapstructure:"ITTOUR_BASE_URL"`
	AcceptLanguage  string        `mapstructure:"ACCEPT_LANGUAGE"`
	SearchTimeout   time.Duration `mapstructure:"SEARCH_TIMEOUT"`
	CurrencyDefault int           `mapstructure:"CURRENCY_DEFAULT"`

	// Reference data.
	DataDir       string `mapstructure:"DATA_DIR"`
	TopFromCities string `mapstructure:"TOP_FROM_CITIES"`

	// Redis search cache. Empty address disables the cache.
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int           `mapstructure:"REDIS_CACHE_DB"`
	SearchCacheTTL time.Duration `mapstructure:"SEARCH_CACHE_TTL"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FILE", "logs/bot.log")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 60)
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("ADMIN_TOKEN", "")

	viper.SetDefault("ENABLE_LLM", false)
	viper.SetDefault("LLM_PROVIDER", "openai")
	viper.SetDefault("LLM_TIMEOUT", "20s")
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_MODEL", "gpt-5-mini")
	viper.SetDefault("OPENAI_BASE_URL", "")
	viper.SetDefault("LLM_CACHE_TTL", "1h")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")

	viper.SetDefault("ITTOUR_API_TOKEN", "")
	viper.SetDefault("ITTOUR_BASE_URL", "https://api.ittour.com.ua")
	viper.SetDefault("ACCEPT_LANGUAGE", "uk")
	viper.SetDefault("SEARCH_TIMEOUT", "25s")
	viper.SetDefault("CURRENCY_DEFAULT", 2)

	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("TOP_FROM_CITIES", "Кишинів,Варшава,Краків,Ясси")

	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("SEARCH_CACHE_TTL", "10m")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// TopFromCityNames returns the departure cities offered as buttons.
func (c Config) TopFromCityNames() []string {
	var out []string
	for _, name := range strings.Split(c.TopFromCities, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
