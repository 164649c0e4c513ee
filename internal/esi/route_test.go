package esi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestParsePreference(t *testing.T) {
	cases := map[string]Preference{
		"":            PreferShorter,
		"shorter":     PreferShorter,
		"Shorter":     PreferShorter,
		"safer":       PreferSafer,
		"secure":      PreferSafer,
		"less-secure": PreferLessSecure,
		"insecure":    PreferLessSecure,
		"scenic":      PreferShorter,
	}
	for in, want := range cases {
		if got := ParsePreference(in); got != want {
			t.Errorf("ParsePreference(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPreferenceFlag(t *testing.T) {
	cases := map[Preference]string{
		PreferShorter:    "shortest",
		PreferSafer:      "secure",
		PreferLessSecure: "insecure",
	}
	for p, want := range cases {
		if got := p.flag(); got != want {
			t.Errorf("%q.flag() = %q, want %q", p, got, want)
		}
	}
}

func TestRoute_CachesSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `[30000142, 30000144, 30002813]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", nil)
	want := []int32{30000142, 30000144, 30002813}

	got, err := c.Route(context.Background(), 30000142, 30002813, PreferShorter)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("route = %v, want %v", got, want)
	}

	if _, err := c.Route(context.Background(), 30000142, 30002813, PreferShorter); err != nil {
		t.Fatalf("cached Route: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("outbound requests = %d, want 1", n)
	}
	if c.CacheSize() != 1 {
		t.Errorf("CacheSize = %d, want 1", c.CacheSize())
	}
}

func TestRoute_PreferenceIsPartOfKey(t *testing.T) {
	var mu sync.Mutex
	var urls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		urls = append(urls, r.URL.String())
		mu.Unlock()
		fmt.Fprint(w, `[1, 2]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", nil)
	for _, pref := range []Preference{PreferShorter, PreferSafer, PreferLessSecure} {
		if _, err := c.Route(context.Background(), 1, 2, pref); err != nil {
			t.Fatalf("Route(%s): %v", pref, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(urls) != 3 {
		t.Fatalf("requests = %d, want 3 (one per preference)", len(urls))
	}
	for i, wantFlag := range []string{"flag=shortest", "flag=secure", "flag=insecure"} {
		if !strings.Contains(urls[i], wantFlag) {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], wantFlag)
		}
		if !strings.HasPrefix(urls[i], "/route/1/2/") {
			t.Errorf("urls[%d] = %q, want /route/1/2/ prefix", i, urls[i])
		}
	}
}

func TestRoute_FailureNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, `{"error":"no route found"}`, http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `[5, 6, 7]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", nil)

	_, err := c.Route(context.Background(), 5, 7, PreferShorter)
	if err == nil {
		t.Fatal("first call should fail")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a StatusError", err)
	}
	if se.Code != http.StatusNotFound || !strings.Contains(se.Body, "no route found") {
		t.Errorf("StatusError = %+v", se)
	}

	got, err := c.Route(context.Background(), 5, 7, PreferShorter)
	if err != nil {
		t.Fatalf("retry should hit the network again: %v", err)
	}
	if !reflect.DeepEqual(got, []int32{5, 6, 7}) {
		t.Errorf("route = %v", got)
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("outbound requests = %d, want 2", n)
	}
}

func TestRoute_WrappedResponseShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"route": [9, 8, 3]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", nil)
	got, err := c.Route(context.Background(), 9, 3, PreferShorter)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !reflect.DeepEqual(got, []int32{9, 8, 3}) {
		t.Errorf("route = %v", got)
	}
}

func TestDecodeRoute(t *testing.T) {
	if ids, err := decodeRoute([]byte(`[1,2,3]`)); err != nil || len(ids) != 3 {
		t.Errorf("bare array: %v %v", ids, err)
	}
	if ids, err := decodeRoute([]byte(`{"route":[4]}`)); err != nil || len(ids) != 1 {
		t.Errorf("wrapped: %v %v", ids, err)
	}
	for _, bad := range []string{`{}`, `"nope"`, `{"path":[1]}`, `3.14`} {
		if _, err := decodeRoute([]byte(bad)); err == nil {
			t.Errorf("decodeRoute(%s) should fail", bad)
		}
	}
}

func TestRoute_RequiresNumericIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued for invalid IDs")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", nil)
	if _, err := c.Route(context.Background(), 0, 30000142, PreferShorter); err == nil {
		t.Error("zero origin should fail")
	}
	if _, err := c.Route(context.Background(), 30000142, -5, PreferShorter); err == nil {
		t.Error("negative destination should fail")
	}
}

type fakeStore struct {
	mu   sync.Mutex
	rows map[string][]int32
	sets int
}

func (s *fakeStore) key(o, d int32, p string) string { return fmt.Sprintf("%d:%d:%s", o, d, p) }

func (s *fakeStore) GetRoute(o, d int32, p string) ([]int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.rows[s.key(o, d, p)]
	return ids, ok
}

func (s *fakeStore) SetRoute(o, d int32, p string, ids []int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[s.key(o, d, p)] = ids
	s.sets++
}

func TestRoute_PersistentStore(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `[7, 8]`)
	}))
	defer srv.Close()

	store := &fakeStore{rows: map[string][]int32{"1:2:shorter": {1, 9, 2}}}
	c := NewClient(srv.URL, "test", store)

	// Stored route: served without touching the network.
	got, err := c.Route(context.Background(), 1, 2, PreferShorter)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !reflect.DeepEqual(got, []int32{1, 9, 2}) {
		t.Errorf("route = %v", got)
	}
	if hits.Load() != 0 {
		t.Errorf("network hit despite store entry")
	}

	// Unknown route: fetched and written through.
	if _, err := c.Route(context.Background(), 7, 8, PreferShorter); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1", hits.Load())
	}
	if ids, ok := store.GetRoute(7, 8, "shorter"); !ok || !reflect.DeepEqual(ids, []int32{7, 8}) {
		t.Errorf("store not written through: %v %v", ids, ok)
	}
}

func TestRoute_ConcurrentCallersShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, `[11, 12, 13]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", nil)
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Route(context.Background(), 11, 13, PreferShorter)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("outbound requests = %d, want 1 shared flight", n)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/status/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", nil)
	if !c.HealthCheck(context.Background()) {
		t.Error("healthy service reported unhealthy")
	}

	srv.Close()
	if c.HealthCheck(context.Background()) {
		t.Error("closed server reported healthy")
	}
}
