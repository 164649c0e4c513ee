package esi

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// routeKey identifies one cached route query.
type routeKey struct {
	Origin      int32
	Destination int32
	Pref        Preference
}

func (k routeKey) String() string {
	return fmt.Sprintf("%d:%d:%s", k.Origin, k.Destination, k.Pref)
}

// RouteStore is a persistent L2 cache for known-space routes, surviving
// restarts. Implemented by internal/db.
type RouteStore interface {
	GetRoute(originID, destinationID int32, preference string) ([]int32, bool)
	SetRoute(originID, destinationID int32, preference string, ids []int32)
}

// routeCache is the in-process L1: append-only for the process lifetime,
// successes only. The singleflight group coalesces concurrent misses on
// the same key into one outbound request.
type routeCache struct {
	mu      sync.RWMutex
	entries map[routeKey][]int32
	group   singleflight.Group
}

func newRouteCache() routeCache {
	return routeCache{entries: make(map[routeKey][]int32)}
}

func (rc *routeCache) get(key routeKey) ([]int32, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	ids, ok := rc.entries[key]
	return ids, ok
}

func (rc *routeCache) put(key routeKey, ids []int32) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries[key] = ids
}

// CacheSize returns the number of memoized routes, for status reporting.
func (c *Client) CacheSize() int {
	c.routes.mu.RLock()
	defer c.routes.mu.RUnlock()
	return len(c.routes.entries)
}
