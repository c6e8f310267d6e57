package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime configuration, read from the environment and an
// optional .env file.
type Config struct {
	Port     int    `mapstructure:"port"`
	HostURL  string `mapstructure:"host_url"` // externally reachable base URL, e.g. https://<id>.ngrok.io
	LogLevel string `mapstructure:"log_level"`

	AuthID       string `mapstructure:"plivo_auth_id"`
	AuthToken    string `mapstructure:"plivo_auth_token"`
	SourceNumber string `mapstructure:"plivo_source_number"`
	APIURL       string `mapstructure:"plivo_api_url"`

	AssociateNumber string `mapstructure:"associate_number"`
	AudioURL        string `mapstructure:"audio_url"`

	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	EventTTL      time.Duration `mapstructure:"event_ttl"`

	RabbitMQURL      string `mapstructure:"rabbitmq_url"`
	RabbitMQExchange string `mapstructure:"rabbitmq_exchange"`
}

var defaults = map[string]any{
	"port":                8080,
	"host_url":            "",
	"log_level":           "info",
	"plivo_auth_id":       "",
	"plivo_auth_token":    "",
	"plivo_source_number": "",
	"plivo_api_url":       "https://api.plivo.com/v1/Account",
	"associate_number":    "+11234567890",
	"audio_url":           "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3",
	"redis_addr":          "",
	"redis_password":      "",
	"redis_db":            0,
	"event_ttl":           "24h",
	"rabbitmq_url":        "",
	"rabbitmq_exchange":   "ivr_events",
}

// Load reads the given .env files (a missing file is ignored) and then the
// process environment. Variables already set in the environment win over
// .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.HostURL == "" {
		return errors.New("HOST_URL is required")
	}
	u, err := url.Parse(c.HostURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("HOST_URL %q must be an absolute URL", c.HostURL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ProviderConfigured reports whether outbound calls can be placed.
func (c *Config) ProviderConfigured() bool {
	return c.AuthID != "" && c.AuthToken != "" && c.SourceNumber != ""
}
