// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds all client and relay configuration.
type Config struct {
	RelayHost string // host the client dials in relay mode
	DirectURL string // agent endpoint for direct mode; empty means relay mode
	Profile   string // identity name looked up in the identity store

	MongoURI  string
	Database  string
	RedisAddr string

	RelayListenAddr string // relay binary only
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		RelayHost:       getEnv("RELAY_HOST", "relay.agentchat.dev"),
		DirectURL:       getEnv("DIRECT_URL", ""),
		Profile:         getEnv("PROFILE", "default"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:        getEnv("MONGO_DB", "agentchat"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RelayListenAddr: getEnv("RELAY_LISTEN_ADDR", "localhost:9090"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.RelayHost == "" && c.DirectURL == "" {
		return fmt.Errorf("RELAY_HOST or DIRECT_URL must be set")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI cannot be empty")
	}
	if c.RelayListenAddr == "" {
		return fmt.Errorf("RELAY_LISTEN_ADDR cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
