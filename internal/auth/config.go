package auth

import (
	"fmt"
	"os"
	"time"
)

// Config carries the signing secrets and token lifetimes. It is built once at
// process start and passed into the issuer and service; business logic never
// reads the environment directly.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	ResetSecret   []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration

	// AppDomain is the public origin used to build reset-password links.
	AppDomain string
	// EmailFrom is the sender address for reset-password mail.
	EmailFrom string
}

// ConfigFromEnv reads auth config from environment variables. Missing signing
// secrets are a configuration error and abort startup.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		AccessSecret:  []byte(os.Getenv("JWT_ACCESS_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		ResetSecret:   []byte(os.Getenv("JWT_RESET_SECRET")),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
		ResetTTL:      5 * time.Minute,
		AppDomain:     os.Getenv("APP_DOMAIN"),
		EmailFrom:     os.Getenv("SMTP_FROM"),
	}
	if len(cfg.AccessSecret) == 0 {
		return Config{}, fmt.Errorf("JWT_ACCESS_SECRET is not set")
	}
	if len(cfg.RefreshSecret) == 0 {
		return Config{}, fmt.Errorf("JWT_REFRESH_SECRET is not set")
	}
	if len(cfg.ResetSecret) == 0 {
		return Config{}, fmt.Errorf("JWT_RESET_SECRET is not set")
	}
	for name, v := range map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &cfg.AccessTTL,
		"REFRESH_TOKEN_TTL": &cfg.RefreshTTL,
		"RESET_TOKEN_TTL":   &cfg.ResetTTL,
	} {
		if raw := os.Getenv(name); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return Config{}, fmt.Errorf("%s: %w", name, err)
			}
			*v = d
		}
	}
	return cfg, nil
}
