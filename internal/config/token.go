package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// TokenConfig is the subset of Config needed to issue access tokens
// without a database or broker.
type TokenConfig struct {
	JWTSecret    string `env:"JWT_SECRET,required,notEmpty"`
	AccessTTLMin int    `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"60"`
}

// LoadToken reads .env (if any) and parses only the token settings.
func LoadToken() (TokenConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return TokenConfig{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg TokenConfig
	if err := env.Parse(&cfg); err != nil {
		return TokenConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
