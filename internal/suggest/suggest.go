// Package suggest ranks system-name completions for interactive
// destination entry. Pure functions over a caller-supplied entry pool;
// no state, no side effects.
package suggest

import (
	"sort"
	"strings"
)

// Entry is one candidate name in the pool.
type Entry struct {
	Name    string // canonical name, used for matching and dedup
	Display string // label to show; falls back to Name
	Band    string // wormhole class or security band, for display
	OnMap   bool   // currently part of the discovered chain
}

// Suggestion is a scored match.
type Suggestion struct {
	Name    string `json:"name"`
	Display string `json:"display"`
	Band    string `json:"band,omitempty"`
	OnMap   bool   `json:"on_map"`
	Score   int    `json:"score"`
}

// Rank scores every entry against the query and returns the best limit
// matches, highest score first. Ties rank mapped entries ahead of
// catalog-only ones, then sort by name. Duplicate names keep their best
// score. An exact match (ignoring case) always scores 100.
func Rank(query string, entries []Entry, limit int) []Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return nil
	}

	best := make(map[string]Suggestion)
	for _, e := range entries {
		s := score(q, strings.ToLower(e.Name))
		if s <= 0 {
			continue
		}
		key := strings.ToLower(e.Name)
		cur, exists := best[key]
		if exists && (cur.Score > s || (cur.Score == s && cur.OnMap)) {
			continue
		}
		display := e.Display
		if display == "" {
			display = e.Name
		}
		best[key] = Suggestion{Name: e.Name, Display: display, Band: e.Band, OnMap: e.OnMap, Score: s}
	}

	out := make([]Suggestion, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].OnMap != out[j].OnMap {
			return out[i].OnMap
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// score tiers: exact 100, then prefix, substring, in-order subsequence,
// and finally small edit distances. Within a tier, longer coverage of the
// name scores higher. Anything else scores 0 and is dropped.
func score(q, name string) int {
	if q == name {
		return 100
	}
	coverage := func(base int) int {
		return base + (10*len(q))/len(name)
	}
	if strings.HasPrefix(name, q) {
		return coverage(85)
	}
	if strings.Contains(name, q) {
		return coverage(65)
	}
	if isSubsequence(q, name) {
		return coverage(45)
	}
	switch levenshtein(q, name) {
	case 1:
		return 40
	case 2:
		return 25
	}
	return 0
}

// isSubsequence reports whether every character of q appears in name in
// order (both already lowercased).
func isSubsequence(q, name string) bool {
	i := 0
	for j := 0; j < len(name) && i < len(q); j++ {
		if q[i] == name[j] {
			i++
		}
	}
	return i == len(q)
}

// levenshtein computes edit distance with the usual two-row table.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
