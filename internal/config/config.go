// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable the server reads from the environment.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	WikiBaseURL string `env:"WIKI_BASE_URL" envDefault:"https://en.wikipedia.org/w/api.php"`

	JWTKeyPath string `env:"JWT_KEY_PATH"`

	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"3s"`
	StaleAfter   time.Duration `env:"STALE_AFTER" envDefault:"90s"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://*,http://*"`

	// QueueViews routes article-view counting through the Redis queue drained
	// by the statd consumer instead of writing Postgres inline.
	QueueViews bool `env:"QUEUE_VIEWS" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
