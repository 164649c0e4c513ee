package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// Preference selects how the routing service weighs systems on the way.
type Preference string

const (
	PreferShorter    Preference = "shorter"
	PreferSafer      Preference = "safer"
	PreferLessSecure Preference = "less-secure"
)

// ParsePreference maps user input to a Preference. Unrecognized or empty
// input falls back to PreferShorter.
func ParsePreference(s string) Preference {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PreferSafer), "secure", "safe":
		return PreferSafer
	case string(PreferLessSecure), "insecure", "unsafe":
		return PreferLessSecure
	default:
		return PreferShorter
	}
}

// flag translates the preference into the service's route flag.
func (p Preference) flag() string {
	switch p {
	case PreferSafer:
		return "secure"
	case PreferLessSecure:
		return "insecure"
	default:
		return "shortest"
	}
}

// StatusError is a non-success response from the routing service. Callers
// treat it as "no known-space route available", not as a fatal failure.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ESI %d: %s", e.Code, e.Body)
}

// Route returns the ordered system IDs from origin to destination, both
// endpoints included. Successful results are memoized per
// (origin, destination, preference) for the process lifetime; failures are
// never cached, so the next call retries. Concurrent callers with the same
// key share a single outbound request. The returned slice is shared cache
// state and must not be mutated.
func (c *Client) Route(ctx context.Context, originID, destinationID int32, pref Preference) ([]int32, error) {
	if originID <= 0 || destinationID <= 0 {
		return nil, fmt.Errorf("route requires numeric system IDs, got %d and %d", originID, destinationID)
	}
	key := routeKey{originID, destinationID, pref}
	if ids, ok := c.routes.get(key); ok {
		return ids, nil
	}

	v, err, _ := c.routes.group.Do(key.String(), func() (interface{}, error) {
		if ids, ok := c.routes.get(key); ok {
			return ids, nil
		}
		if c.store != nil {
			if ids, ok := c.store.GetRoute(originID, destinationID, string(pref)); ok {
				log.Printf("[ESI] RouteCache DB hit %s (%d jumps)", key, len(ids)-1)
				c.routes.put(key, ids)
				return ids, nil
			}
		}
		ids, err := c.fetchRoute(ctx, originID, destinationID, pref)
		if err != nil {
			return nil, err
		}
		log.Printf("[ESI] Route %s: %d jumps", key, len(ids)-1)
		c.routes.put(key, ids)
		if c.store != nil {
			c.store.SetRoute(originID, destinationID, string(pref), ids)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]int32), nil
}

func (c *Client) fetchRoute(ctx context.Context, originID, destinationID int32, pref Preference) ([]int32, error) {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	url := fmt.Sprintf("%s/route/%d/%d/?datasource=tranquility&flag=%s",
		c.baseURL, originID, destinationID, pref.flag())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	ids, err := decodeRoute(body)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("empty route for %d -> %d", originID, destinationID)
	}
	return ids, nil
}

// decodeRoute accepts both response shapes the service has used over time:
// a bare array of system IDs, or an object wrapping the same array under
// "route". The shape is resolved here, once; everything downstream sees
// a plain ID slice.
func decodeRoute(raw []byte) ([]int32, error) {
	var ids []int32
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids, nil
	}
	var wrapped struct {
		Route []int32 `json:"route"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Route != nil {
		return wrapped.Route, nil
	}
	return nil, fmt.Errorf("unrecognized route response: %.120s", string(raw))
}
