// Package esi talks to the external known-space routing service. The only
// operation this app needs is the route endpoint: given two solar-system
// IDs and a preference flag it returns the ordered jump sequence between
// them. Results are memoized aggressively because stargate topology
// changes on patch timescales, not session timescales.
package esi

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client is a rate-limited HTTP client for the routing service.
type Client struct {
	http    *http.Client
	baseURL string
	agent   string
	sem     chan struct{}

	routes routeCache
	store  RouteStore // optional persistent L2
}

// NewClient creates a route client. store may be nil; then only the
// in-process cache is used.
func NewClient(baseURL, userAgent string, store RouteStore) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		agent:   userAgent,
		sem:     make(chan struct{}, 8),
		routes:  newRouteCache(),
		store:   store,
	}
}

// HealthCheck pings the service status endpoint to verify connectivity.
func (c *Client) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/?datasource=tranquility", nil)
	if err != nil {
		return false
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) setHeaders(req *http.Request) {
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	req.Header.Set("Accept", "application/json")
}
