// Package config loads service configuration from environment variables.
// Every setting has a workable local default except secrets, which stay
// empty and disable the feature that needs them.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all api-server settings.
type Config struct {
	// HTTPAddr is the JSON API listen address.
	HTTPAddr string `env:"CHARVAULT_HTTP_ADDR" envDefault:":8080"`

	// FeedAddr is the TCP change-feed listen address.
	FeedAddr string `env:"CHARVAULT_FEED_ADDR" envDefault:":7070"`

	// JWTSecret signs editor tokens. The default is for development only.
	JWTSecret string        `env:"CHARVAULT_JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer string        `env:"CHARVAULT_JWT_ISSUER" envDefault:"charvault"`
	JWTTTL    time.Duration `env:"CHARVAULT_JWT_TTL" envDefault:"24h"`

	// AdminEmail/AdminPassword seed a bootstrap editor account on startup
	// when the editors table is empty. Both must be set together.
	AdminEmail    string `env:"CHARVAULT_ADMIN_EMAIL"`
	AdminPassword string `env:"CHARVAULT_ADMIN_PASSWORD"`

	// AnthropicKey enables the AI scan endpoints. Empty leaves them
	// returning 503.
	AnthropicKey   string `env:"CHARVAULT_ANTHROPIC_API_KEY"`
	AnthropicModel string `env:"CHARVAULT_ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-5"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
