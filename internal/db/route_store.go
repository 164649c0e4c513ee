package db

import (
	"encoding/json"
	"log"
	"time"
)

// routeTTL bounds how long a cached known-space route is trusted. The
// stargate topology only changes with game expansions, so a day is
// plenty conservative for a long-running daemon.
const routeTTL = 24 * time.Hour

// GetRoute returns a cached route if present and still fresh. This is
// the route client's persistent store; stale rows read as misses.
func (d *DB) GetRoute(originID, destinationID int32, preference string) ([]int32, bool) {
	var routeJSON, fetchedAt string
	err := d.sql.QueryRow(
		"SELECT route_json, fetched_at FROM route_cache WHERE origin_id = ? AND destination_id = ? AND preference = ?",
		originID, destinationID, preference,
	).Scan(&routeJSON, &fetchedAt)
	if err != nil {
		return nil, false
	}
	at, err := time.Parse(time.RFC3339, fetchedAt)
	if err != nil || time.Since(at) > routeTTL {
		return nil, false
	}
	var ids []int32
	if err := json.Unmarshal([]byte(routeJSON), &ids); err != nil || len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

// SetRoute upserts a fetched route. Write failures are logged, not
// surfaced: the in-memory cache already holds the value for this process.
func (d *DB) SetRoute(originID, destinationID int32, preference string, ids []int32) {
	b, err := json.Marshal(ids)
	if err != nil {
		return
	}
	_, err = d.sql.Exec(
		"INSERT OR REPLACE INTO route_cache (origin_id, destination_id, preference, route_json, fetched_at) VALUES (?, ?, ?, ?, ?)",
		originID, destinationID, preference, string(b), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("[DB] route cache write: %v", err)
	}
}

// PruneRoutes deletes route-cache rows past the TTL and reports how many
// were removed.
func (d *DB) PruneRoutes() int64 {
	cutoff := time.Now().Add(-routeTTL).Format(time.RFC3339)
	result, err := d.sql.Exec("DELETE FROM route_cache WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0
	}
	count, _ := result.RowsAffected()
	return count
}
