// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	RedisURL    string `env:"REDIS_URL"`

	LLMAPIKey string `env:"LLM_API_KEY"`
	LLMModel  string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30m"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"35m"`
	RateLimitRPS    int           `env:"RATE_LIMIT_RPS" envDefault:"1"`

	ContextFeeds    []string `env:"CONTEXT_FEEDS" envSeparator:","`
	ContextMaxItems int      `env:"CONTEXT_MAX_ITEMS" envDefault:"12"`

	FaviconEnabled bool          `env:"FAVICON_ENABLED" envDefault:"true"`
	FaviconRPS     float64       `env:"FAVICON_RPS" envDefault:"4"`
	FaviconTimeout time.Duration `env:"FAVICON_TIMEOUT" envDefault:"5s"`

	TitleEnrichmentEnabled bool          `env:"TITLE_ENRICHMENT_ENABLED" envDefault:"false"`
	WebFetchRPS            float64       `env:"WEB_FETCH_RPS" envDefault:"2"`
	WebFetchTimeout        time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"15s"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
