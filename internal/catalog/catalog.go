// Package catalog loads and indexes the static system dataset: every known
// K-space system plus the J-space census, keyed by system name. The dataset
// is a single JSON object downloaded once and cached on disk.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"eve-wayfinder/internal/logger"
)

// J-space systems occupy a reserved solar-system ID block.
const (
	JSpaceIDMin int32 = 31000000
	JSpaceIDMax int32 = 32000000 // exclusive
)

// HighsecBoundary is the lowest security value displayed as highsec.
const HighsecBoundary = 0.45

// Record is one system from the dataset.
type Record struct {
	Name        string  // canonical display name
	ID          int32   // solar-system ID; 0 when the dataset omits it
	Class       string  // wormhole class marker ("C1".."C6", "Thera", ...); empty for K-space
	Security    float64 // CCP security value; only meaningful when HasSecurity
	HasSecurity bool
	Statics     map[string]string // static wormhole code -> class of space behind it
	Effect      string            // system-wide effect name, if any
}

// IsWormhole reports whether the record describes a J-space system, either
// by an explicit class marker or by its ID falling in the reserved block.
func (r *Record) IsWormhole() bool {
	return r.Class != "" || IsJSpaceID(r.ID)
}

// Band returns the short security band used in suggestions: the wormhole
// class for J-space, otherwise HS/LS/NS from the security value.
func (r *Record) Band() string {
	if r.IsWormhole() {
		if r.Class != "" {
			return r.Class
		}
		return "J"
	}
	if !r.HasSecurity {
		return ""
	}
	switch {
	case r.Security >= HighsecBoundary:
		return "HS"
	case r.Security > 0:
		return "LS"
	default:
		return "NS"
	}
}

// IsJSpaceID reports whether id lies in the reserved wormhole-space block.
func IsJSpaceID(id int32) bool {
	return id >= JSpaceIDMin && id < JSpaceIDMax
}

// rawRecord is the dataset wire shape. The map key is the fallback name.
type rawRecord struct {
	Name     string               `json:"name"`
	ID       int32                `json:"id"`
	Class    string               `json:"wormholeClass"`
	Security *float64             `json:"security_status"`
	Statics  map[string]rawStatic `json:"statics"`
	Effect   string               `json:"effect"`
}

// rawStatic is a statics map value: the class of space behind the hole.
type rawStatic struct {
	Class string `json:"class"`
}

// Catalog holds the parsed dataset and its name/ID indexes. Lookups are
// non-blocking: before the first successful load they simply miss, and
// callers are expected to degrade rather than wait.
type Catalog struct {
	mu      sync.RWMutex
	byName  map[string]*Record // lowercase name -> record
	byID    map[int32]*Record
	names   []string // sorted display names
	loaded  bool
	loadErr error

	group singleflight.Group

	url     string
	path    string // local file override; wins over url
	dataDir string
	client  *http.Client
	agent   string
}

// New returns an empty catalog bound to its dataset source. Nothing is
// fetched until Ensure is called.
func New(dataDir, url, path, userAgent string) *Catalog {
	return &Catalog{
		byName:  make(map[string]*Record),
		byID:    make(map[int32]*Record),
		url:     url,
		path:    path,
		dataDir: dataDir,
		agent:   userAgent,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Ready reports whether a dataset has been loaded.
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Len returns the number of indexed systems.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}

// LastError returns the most recent load failure, cleared on success.
func (c *Catalog) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Ensure loads the dataset if it is not already loaded. Concurrent callers
// share one load; a failed load does not latch, the next Ensure retries.
func (c *Catalog) Ensure(ctx context.Context) error {
	if c.Ready() {
		return nil
	}
	_, err, _ := c.group.Do("load", func() (interface{}, error) {
		if c.Ready() {
			return nil, nil
		}
		return nil, c.load(ctx)
	})
	return err
}

func (c *Catalog) load(ctx context.Context) error {
	raw, err := c.fetch(ctx)
	if err != nil {
		c.mu.Lock()
		c.loadErr = err
		c.mu.Unlock()
		return err
	}

	var entries map[string]rawRecord
	if err := json.Unmarshal(raw, &entries); err != nil {
		err = fmt.Errorf("parse catalog: %w", err)
		c.mu.Lock()
		c.loadErr = err
		c.mu.Unlock()
		return err
	}

	byName := make(map[string]*Record, len(entries))
	byID := make(map[int32]*Record, len(entries))
	names := make([]string, 0, len(entries))
	wormholes := 0
	for key, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = strings.TrimSpace(key)
		}
		if name == "" {
			continue
		}
		rec := &Record{
			Name:   name,
			ID:     e.ID,
			Class:  strings.TrimSpace(e.Class),
			Effect: e.Effect,
		}
		if e.Security != nil {
			rec.Security = *e.Security
			rec.HasSecurity = true
		}
		if len(e.Statics) > 0 {
			rec.Statics = make(map[string]string, len(e.Statics))
			for code, s := range e.Statics {
				rec.Statics[code] = s.Class
			}
		}
		byName[strings.ToLower(name)] = rec
		if rec.ID != 0 {
			byID[rec.ID] = rec
		}
		names = append(names, name)
		if rec.IsWormhole() {
			wormholes++
		}
	}
	sort.Strings(names)

	c.mu.Lock()
	c.byName = byName
	c.byID = byID
	c.names = names
	c.loaded = true
	c.loadErr = nil
	c.mu.Unlock()

	logger.Section("Catalog Statistics")
	logger.Stats("Systems", len(byName))
	logger.Stats("Wormholes", wormholes)
	logger.Stats("Known space", len(byName)-wormholes)
	return nil
}

// fetch returns the raw dataset bytes: local override first, then the
// on-disk cache, then a download that populates the cache.
func (c *Catalog) fetch(ctx context.Context) ([]byte, error) {
	if c.path != "" {
		raw, err := os.ReadFile(c.path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		return raw, nil
	}

	cached := filepath.Join(c.dataDir, "systems.json")
	if raw, err := os.ReadFile(cached); err == nil && len(raw) > 0 {
		return raw, nil
	}

	logger.Info("Catalog", "Downloading system dataset...")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download catalog: HTTP %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download catalog: %w", err)
	}

	if c.dataDir != "" {
		if err := os.MkdirAll(c.dataDir, 0755); err == nil {
			if err := os.WriteFile(cached, raw, 0644); err != nil {
				logger.Warn("Catalog", fmt.Sprintf("Cache write failed: %v", err))
			}
		}
	}
	return raw, nil
}

// ByName looks up a system by name, case-insensitively. Leading and
// trailing whitespace is ignored.
func (c *Catalog) ByName(name string) (*Record, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byName[key]
	return rec, ok
}

// ByID looks up a system by solar-system ID.
func (c *Catalog) ByID(id int32) (*Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.byID[id]
	return rec, ok
}

// Names returns the sorted display names of every indexed system. The
// returned slice is shared and must not be mutated.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names
}
