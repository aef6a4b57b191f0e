package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all process configuration, read once at startup.
//
// The token secret is passed down explicitly from here; nothing else in the
// codebase reads it from the environment.
type Config struct {
	Addr        string        `env:"STUDYTRACK_ADDR"         envDefault:":8080"`
	DBDriver    string        `env:"STUDYTRACK_DB_DRIVER"    envDefault:"sqlite3"`
	DBConn      string        `env:"STUDYTRACK_DB_CONN"      envDefault:"./studytrack.db"`
	TokenSecret string        `env:"STUDYTRACK_TOKEN_SECRET" envDefault:"studytrack-dev-secret-change-in-prod"`
	TokenTTL    time.Duration `env:"STUDYTRACK_TOKEN_TTL"    envDefault:"30m"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
