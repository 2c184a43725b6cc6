// Package config loads runtime settings from the environment and hands them
// to the rest of the service as an explicit value. Nothing reads the
// environment after startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAddr         = ":8080"
	defaultDirectoryURL = "https://gorest.co.in/public/v2"
	defaultRateBurst    = 20
	defaultRatePerSec   = 10
)

// DefaultSessionTTL is how long an issued session token stays valid.
const DefaultSessionTTL = 24 * time.Hour

// Config holds runtime settings for the gatepass server.
//
// DirectoryToken and SessionSecret have no defaults on purpose: a deployment
// without them is misconfigured, and the service reports it as such instead
// of falling back to a baked-in value.
type Config struct {
	Addr           string
	DirectoryURL   string
	DirectoryToken string
	SessionSecret  string
	SessionTTL     time.Duration
	RateBurst      int
	RatePerSec     int
}

// FromEnv builds a Config from GATEPASS_* environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("GATEPASS_ADDR", defaultAddr),
		DirectoryURL:   envOr("GATEPASS_DIRECTORY_URL", defaultDirectoryURL),
		DirectoryToken: strings.TrimSpace(os.Getenv("GATEPASS_DIRECTORY_TOKEN")),
		SessionSecret:  strings.TrimSpace(os.Getenv("GATEPASS_SESSION_SECRET")),
		SessionTTL:     DefaultSessionTTL,
		RateBurst:      envIntOr("GATEPASS_RATE_BURST", defaultRateBurst),
		RatePerSec:     envIntOr("GATEPASS_RATE_PER_SEC", defaultRatePerSec),
	}
	return cfg
}

// MissingSettings lists required settings that are absent. Used by the
// readiness probe so a bad deployment is visible before traffic hits it.
func (c Config) MissingSettings() []string {
	var missing []string
	if c.DirectoryToken == "" {
		missing = append(missing, "GATEPASS_DIRECTORY_TOKEN")
	}
	if c.SessionSecret == "" {
		missing = append(missing, "GATEPASS_SESSION_SECRET")
	}
	return missing
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
