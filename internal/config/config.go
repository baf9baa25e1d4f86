package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultSlackAuthorizeURL = "https://slack.com/oauth/v2/authorize"

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	SlackClientID     string   `env:"SLACK_CLIENT_ID"`
	SlackScopes       []string `env:"SLACK_SCOPES" envSeparator:","`
	SlackRedirectURI  string   `env:"SLACK_REDIRECT_URI"`
	SlackAuthorizeURL string   `env:"SLACK_AUTHORIZE_URL" envDefault:"https://slack.com/oauth/v2/authorize"`

	CollectorURL string `env:"COLLECTOR_URL"`
	ManagerURL   string `env:"MANAGER_URL"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	LinkStateTTL time.Duration `env:"LINK_STATE_TTL" envDefault:"10m"`
	FlashTTL     time.Duration `env:"FLASH_TTL" envDefault:"1m"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load reads the configuration from the environment. Provider settings are
// optional here: a missing value disables the operation that needs it
// instead of failing startup.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.SlackScopes = trimCSV(cfg.SlackScopes)
	if cfg.SlackAuthorizeURL == "" {
		cfg.SlackAuthorizeURL = defaultSlackAuthorizeURL
	}
	if cfg.LinkStateTTL <= 0 {
		return Config{}, fmt.Errorf("LINK_STATE_TTL must be positive, got %s", cfg.LinkStateTTL)
	}
	if cfg.FlashTTL <= 0 {
		return Config{}, fmt.Errorf("FLASH_TTL must be positive, got %s", cfg.FlashTTL)
	}

	return cfg, nil
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
