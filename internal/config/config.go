// Package config loads the service configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"host=localhost user=user password=password dbname=skillhub port=5432 sslmode=disable"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN"`

	// HistoryPageSize caps one page of chat history.
	HistoryPageSize int `envconfig:"HISTORY_PAGE_SIZE" default:"50"`

	// RingTimeout ends calls nobody answers. Zero disables the timer.
	RingTimeout time.Duration `envconfig:"RING_TIMEOUT" default:"45s"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
