package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Config holds application settings (in-memory representation).
// Deployment fields come from the environment; the json-tagged fields are
// user-adjustable at runtime and persisted by the internal/db package.
type Config struct {
	// Deployment settings, environment only.
	Host       string `json:"-" env:"WAYFINDER_HOST" envDefault:"127.0.0.1"`
	Port       int    `json:"-" env:"WAYFINDER_PORT" envDefault:"13270"`
	DataDir    string `json:"-" env:"WAYFINDER_DATA_DIR"`
	ESIBaseURL string `json:"-" env:"WAYFINDER_ESI_URL" envDefault:"https://esi.evetech.net/latest"`
	UserAgent  string `json:"-" env:"WAYFINDER_USER_AGENT" envDefault:"eve-wayfinder/1.0 (routing daemon)"`

	// System catalog source. CatalogPath points at a local JSON file and,
	// when set, wins over the download URL.
	CatalogURL  string `json:"-" env:"WAYFINDER_CATALOG_URL" envDefault:"https://static.eve-wayfinder.dev/systems.json"`
	CatalogPath string `json:"-" env:"WAYFINDER_CATALOG_PATH"`

	// User settings, served and accepted on /api/config.
	RoutePreference   string `json:"route_preference" env:"WAYFINDER_ROUTE_PREFERENCE" envDefault:"shorter"`
	PinnedOrigin      string `json:"pinned_origin"`
	PinnedDestination string `json:"pinned_destination"`
	SuggestLimit      int    `json:"suggest_limit" env:"WAYFINDER_SUGGEST_LIMIT" envDefault:"10"`
}

// Preferences accepted in RoutePreference and on plan requests.
const (
	PrefShorter    = "shorter"
	PrefSafer      = "safer"
	PrefLessSecure = "less-secure"
)

// Default returns a Config with sensible defaults, without consulting the
// environment. Tests build on this.
func Default() *Config {
	return &Config{
		Host:            "127.0.0.1",
		Port:            13270,
		ESIBaseURL:      "https://esi.evetech.net/latest",
		UserAgent:       "eve-wayfinder/1.0 (routing daemon)",
		CatalogURL:      "https://static.eve-wayfinder.dev/systems.json",
		RoutePreference: PrefShorter,
		SuggestLimit:    10,
	}
}

// Load builds the runtime configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and enums.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("WAYFINDER_PORT must be between 1 and 65535")
	}
	if c.ESIBaseURL == "" {
		return fmt.Errorf("WAYFINDER_ESI_URL is required")
	}
	if c.CatalogURL == "" && c.CatalogPath == "" {
		return fmt.Errorf("a catalog source is required (WAYFINDER_CATALOG_URL or WAYFINDER_CATALOG_PATH)")
	}
	if !ValidPreference(c.RoutePreference) {
		return fmt.Errorf("WAYFINDER_ROUTE_PREFERENCE must be one of: %s, %s, %s", PrefShorter, PrefSafer, PrefLessSecure)
	}
	if c.SuggestLimit <= 0 {
		return fmt.Errorf("WAYFINDER_SUGGEST_LIMIT must be positive")
	}
	return nil
}

// ValidPreference reports whether p names a known route preference.
// The empty string is not valid; callers apply their own default first.
func ValidPreference(p string) bool {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case PrefShorter, PrefSafer, PrefLessSecure:
		return true
	}
	return false
}

// Addr returns the host:port pair the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
