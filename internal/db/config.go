package db

import (
	"fmt"
	"strconv"
	"strings"

	"eve-wayfinder/internal/config"
)

// Keys in the config key/value table. Only user-adjustable settings are
// stored; deployment settings stay environment-only.
const (
	keyRoutePreference   = "route_preference"
	keyPinnedOrigin      = "pinned_origin"
	keyPinnedDestination = "pinned_destination"
	keySuggestLimit      = "suggest_limit"
)

// LoadConfig overlays stored settings onto cfg. Keys that were never
// saved leave the current value standing; unparseable values are skipped.
func (d *DB) LoadConfig(cfg *config.Config) {
	rows, err := d.sql.Query("SELECT key, value FROM config")
	if err != nil {
		return
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		rows.Scan(&k, &v)
		m[k] = v
	}

	if v, ok := m[keyRoutePreference]; ok && config.ValidPreference(v) {
		cfg.RoutePreference = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := m[keyPinnedOrigin]; ok {
		cfg.PinnedOrigin = v
	}
	if v, ok := m[keyPinnedDestination]; ok {
		cfg.PinnedDestination = v
	}
	if v, ok := m[keySuggestLimit]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SuggestLimit = n
		}
	}
}

// SaveConfig upserts the user-adjustable settings.
func (d *DB) SaveConfig(cfg *config.Config) error {
	pairs := map[string]string{
		keyRoutePreference:   cfg.RoutePreference,
		keyPinnedOrigin:      cfg.PinnedOrigin,
		keyPinnedDestination: cfg.PinnedDestination,
		keySuggestLimit:      strconv.Itoa(cfg.SuggestLimit),
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for k, v := range pairs {
		if _, err := stmt.Exec(k, v); err != nil {
			tx.Rollback()
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return tx.Commit()
}
