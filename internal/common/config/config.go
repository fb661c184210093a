// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Amadeus  AmadeusConfig  `mapstructure:"amadeus"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Store    StoreConfig    `mapstructure:"store"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// TelegramConfig holds the chat transport settings.
// Mode selects the delivery mechanism: "poll" or "webhook".
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	Mode        string `mapstructure:"mode"`
	WebhookURL  string `mapstructure:"webhook_url"`
	WebhookAddr string `mapstructure:"webhook_addr"`
	PollTimeout int    `mapstructure:"poll_timeout"` // seconds
}

// AmadeusConfig holds the travel-search provider settings.
type AmadeusConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Timeout      int    `mapstructure:"timeout"`    // milliseconds
	MaxOffers    int    `mapstructure:"max_offers"` // result cap per search
	Currency     string `mapstructure:"currency"`
}

// ResolverConfig controls city-name resolution. When disabled, typed input
// is used verbatim as the location code (direct-IATA entry mode).
type ResolverConfig struct {
	Disabled      bool `mapstructure:"disabled"`
	MaxCandidates int  `mapstructure:"max_candidates"`
}

// StoreConfig selects the conversation state store backend.
// Backend is "memory" or "redis".
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	TTL     int         `mapstructure:"ttl"` // seconds; 0 means no expiry
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MetricsConfig holds the prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Validate checks the fields main cannot run without.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if c.Telegram.Mode == "webhook" && c.Telegram.WebhookURL == "" {
		return fmt.Errorf("telegram.webhook_url is required in webhook mode")
	}
	if c.Amadeus.ClientID == "" || c.Amadeus.ClientSecret == "" {
		return fmt.Errorf("amadeus.client_id and amadeus.client_secret are required")
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Address == "" {
		return fmt.Errorf("store.redis.address is required for the redis backend")
	}
	return nil
}
