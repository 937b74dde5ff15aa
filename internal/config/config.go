// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
)

// Auth modes for the management API.
const (
	AuthModeEnforced = "enforced"
	AuthModeBypassed = "bypassed"
)

// Detection modes for the ingestion pipeline.
const (
	DetectionModeEngine   = "engine"
	DetectionModeAlertAll = "alert-all"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	Region        string
	AuthMode      string // enforced | bypassed
	DetectionMode string // engine | alert-all
	JWKSURL       string
	JWTIssuer     string
	Seed          bool
}

// Load reads configuration from environment variables and returns a validated
// Config. Optional variables with defaults: LEAKGUARD_LISTEN_ADDR
// (127.0.0.1:8080), LEAKGUARD_DB_PATH (leakguard.db), LEAKGUARD_REGION
// (us-east-1), LEAKGUARD_AUTH_MODE (enforced), LEAKGUARD_DETECTION_MODE
// (engine), LEAKGUARD_SEED (false). LEAKGUARD_JWKS_URL is required when auth
// is enforced; LEAKGUARD_JWT_ISSUER is optional.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    "127.0.0.1:8080",
		DBPath:        "leakguard.db",
		Region:        "us-east-1",
		AuthMode:      AuthModeEnforced,
		DetectionMode: DetectionModeEngine,
	}

	if v, ok := os.LookupEnv("LEAKGUARD_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("LEAKGUARD_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("LEAKGUARD_REGION"); ok {
		cfg.Region = v
	}

	if v, ok := os.LookupEnv("LEAKGUARD_AUTH_MODE"); ok {
		switch v {
		case AuthModeEnforced, AuthModeBypassed:
			cfg.AuthMode = v
		default:
			return nil, fmt.Errorf("LEAKGUARD_AUTH_MODE must be %q or %q, got %q", AuthModeEnforced, AuthModeBypassed, v)
		}
	}

	if v, ok := os.LookupEnv("LEAKGUARD_DETECTION_MODE"); ok {
		switch v {
		case DetectionModeEngine, DetectionModeAlertAll:
			cfg.DetectionMode = v
		default:
			return nil, fmt.Errorf("LEAKGUARD_DETECTION_MODE must be %q or %q, got %q", DetectionModeEngine, DetectionModeAlertAll, v)
		}
	}

	cfg.JWKSURL = os.Getenv("LEAKGUARD_JWKS_URL")
	cfg.JWTIssuer = os.Getenv("LEAKGUARD_JWT_ISSUER")

	if cfg.AuthMode == AuthModeEnforced && cfg.JWKSURL == "" {
		return nil, fmt.Errorf("LEAKGUARD_JWKS_URL is required when LEAKGUARD_AUTH_MODE is %q", AuthModeEnforced)
	}

	cfg.Seed = os.Getenv("LEAKGUARD_SEED") == "true"

	return cfg, nil
}
