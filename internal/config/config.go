package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds the service configuration, parsed from the environment.
type Config struct {
	HTTPAddr            string `env:"HTTP_ADDR" envDefault:":8080"`
	MongoURI            string `env:"MONGO_URI"`
	MongoDatabase       string `env:"MONGO_DATABASE" envDefault:"kaze"`
	RedisAddr           string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	AppPasswordResetURL string `env:"APP_PASSWORD_RESET_URL"`

	Token TokenConfig
}

// TokenConfig holds the signing material and lifetimes for issued tokens.
type TokenConfig struct {
	AccessTokenSecret     string        `env:"JWT_ACCESS_SECRET"`
	RefreshTokenSecret    string        `env:"JWT_REFRESH_SECRET"`
	AccessTokenExpiresIn  time.Duration `env:"JWT_ACCESS_EXPIRES_IN" envDefault:"15m"`
	RefreshTokenExpiresIn time.Duration `env:"JWT_REFRESH_EXPIRES_IN" envDefault:"168h"`
	Issuer                string        `env:"JWT_ISSUER" envDefault:"kaze-api"`
	Audience              string        `env:"JWT_AUDIENCE" envDefault:"kaze-api"`
}

// Load parses the configuration from environment variables. Misconfiguration
// is fatal at startup; it must never surface mid-request.
func Load(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

func (c *Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("missing MONGO_URI environment variable")
	}
	if c.AppPasswordResetURL == "" {
		return fmt.Errorf("missing APP_PASSWORD_RESET_URL environment variable")
	}
	if c.Token.AccessTokenSecret == "" {
		return fmt.Errorf("missing JWT_ACCESS_SECRET environment variable")
	}
	if c.Token.RefreshTokenSecret == "" {
		return fmt.Errorf("missing JWT_REFRESH_SECRET environment variable")
	}
	if c.Token.AccessTokenExpiresIn <= 0 || c.Token.RefreshTokenExpiresIn <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}

	return nil
}
