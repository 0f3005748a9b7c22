package app

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config contains runtime configuration derived from environment variables.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	// SwitchRateLimit is the number of /switch and /api requests allowed per
	// IP per minute. Zero disables limiting.
	SwitchRateLimit int
	FeedbackURL     string
	DonateURL       string
}

// LoadConfig populates Config from environment variables, applying reasonable defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:        defaultEnv("PORT", "8080"),
		LogLevel:    defaultEnv("LOG_LEVEL", "info"),
		LogFormat:   strings.ToLower(defaultEnv("LOG_FORMAT", "json")),
		FeedbackURL: os.Getenv("FEEDBACK_URL"),
		DonateURL:   os.Getenv("DONATE_URL"),
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return cfg, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return cfg, fmt.Errorf("invalid LOG_FORMAT %q: want json or console", cfg.LogFormat)
	}

	limit, err := strconv.Atoi(defaultEnv("SWITCH_RATE_LIMIT", "60"))
	if err != nil {
		return cfg, fmt.Errorf("parse SWITCH_RATE_LIMIT: %w", err)
	}
	if limit < 0 {
		return cfg, fmt.Errorf("SWITCH_RATE_LIMIT must not be negative, got %d", limit)
	}
	cfg.SwitchRateLimit = limit

	for name, raw := range map[string]string{"FEEDBACK_URL": cfg.FeedbackURL, "DONATE_URL": cfg.DonateURL} {
		if raw == "" {
			continue
		}
		if err := checkExternalURL(raw); err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return cfg, nil
}

// footer applies the configured link overrides to the built-in footer.
func (c Config) footer() (FooterConfig, error) {
	links := map[string]FooterLink{}
	if c.FeedbackURL != "" {
		links[LinkFeedback] = FooterLink{URL: c.FeedbackURL}
	}
	if c.DonateURL != "" {
		links[LinkDonate] = FooterLink{URL: c.DonateURL}
	}
	return DefaultFooter().WithLinks(links)
}

func checkExternalURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in url")
	}
	return nil
}

func defaultEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
