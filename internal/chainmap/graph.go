package chainmap

import (
	"sort"
	"strings"
)

// Graph is the built adjacency over a snapshot. It is never mutated after
// Build returns, so readers need no locks; swap whole instances instead.
type Graph struct {
	nodes    map[string]*Node     // lowercase canonical key -> node
	registry map[string]string    // any lowercase lookup key -> canonical key
	adj      map[string][]string  // canonical key -> sorted unique neighbors
	meta     map[string]Direction // "from|to" lowercase -> first observation
	hints    map[string]RecordHint
	stats    Stats
}

// Build derives a fresh graph from the snapshot. The node registry answers
// lookups by canonical name and by the secondary bookmark keys (filter key,
// origin system); secondary keys never shadow a real node name. Neighbor
// lists are deduplicated and sorted so traversal order is deterministic.
func Build(snap Snapshot) *Graph {
	g := &Graph{
		nodes:    make(map[string]*Node, len(snap.Nodes)),
		registry: make(map[string]string, len(snap.Nodes)*2),
		adj:      make(map[string][]string, len(snap.Nodes)),
		meta:     make(map[string]Direction),
		hints:    make(map[string]RecordHint, len(snap.Records)),
	}

	// Primary names first, then secondary keys where still free.
	for i := range snap.Nodes {
		n := snap.Nodes[i]
		key := n.Key()
		lower := strings.ToLower(key)
		g.nodes[lower] = &n
		g.registry[lower] = key
	}
	for i := range snap.Nodes {
		n := snap.Nodes[i]
		key := n.Key()
		for _, alt := range []string{n.FilterKey, n.OriginSystem} {
			alt = strings.ToLower(strings.TrimSpace(alt))
			if alt == "" {
				continue
			}
			if _, taken := g.registry[alt]; !taken {
				g.registry[alt] = key
			}
		}
	}

	for name, hint := range snap.Records {
		g.hints[strings.ToLower(strings.TrimSpace(name))] = hint
	}

	neighborSets := make(map[string]map[string]struct{})
	for _, l := range snap.Links {
		src, okS := g.canonical(l.Source)
		dst, okT := g.canonical(l.Target)
		if !okS || !okT || src == dst {
			g.stats.DroppedLinks++
			continue
		}
		for _, d := range l.Directions {
			from, okF := g.canonical(d.From)
			to, okTo := g.canonical(d.To)
			if !okF || !okTo {
				continue
			}
			key := strings.ToLower(from) + "|" + strings.ToLower(to)
			if _, seen := g.meta[key]; !seen {
				g.meta[key] = d
			}
		}
		if !g.linkConfirmed(l, src, dst) {
			g.stats.DroppedLinks++
			continue
		}
		addNeighbor(neighborSets, src, dst)
		addNeighbor(neighborSets, dst, src)
		g.stats.Links++
	}

	for key, set := range neighborSets {
		list := make([]string, 0, len(set))
		for nb := range set {
			list = append(list, nb)
		}
		sort.Strings(list)
		g.adj[strings.ToLower(key)] = list
	}
	g.stats.Nodes = len(g.nodes)
	return g
}

// linkConfirmed applies the confirmation rule: placeholder endpoints and
// observation-free links pass, otherwise both directions must have been
// observed.
func (g *Graph) linkConfirmed(l Link, src, dst string) bool {
	if n, ok := g.node(src); ok && n.Placeholder {
		return true
	}
	if n, ok := g.node(dst); ok && n.Placeholder {
		return true
	}
	if len(l.Directions) == 0 {
		return true
	}
	var fwd, rev bool
	for _, d := range l.Directions {
		from, okF := g.canonical(d.From)
		to, okT := g.canonical(d.To)
		if !okF || !okT {
			continue
		}
		if from == src && to == dst {
			fwd = true
		}
		if from == dst && to == src {
			rev = true
		}
	}
	return fwd && rev
}

func addNeighbor(sets map[string]map[string]struct{}, from, to string) {
	set, ok := sets[from]
	if !ok {
		set = make(map[string]struct{})
		sets[from] = set
	}
	set[to] = struct{}{}
}

// canonical resolves any lookup key to the canonical node key.
func (g *Graph) canonical(name string) (string, bool) {
	key, ok := g.registry[strings.ToLower(strings.TrimSpace(name))]
	return key, ok
}

func (g *Graph) node(canonicalKey string) (*Node, bool) {
	n, ok := g.nodes[strings.ToLower(canonicalKey)]
	return n, ok
}

// Lookup finds a mapped node by canonical name or secondary key,
// case-insensitively. The returned node must not be mutated.
func (g *Graph) Lookup(name string) (*Node, bool) {
	key, ok := g.canonical(name)
	if !ok {
		return nil, false
	}
	return g.node(key)
}

// Contains reports whether name resolves to a mapped node.
func (g *Graph) Contains(name string) bool {
	_, ok := g.canonical(name)
	return ok
}

// Resolve returns the canonical node key for any accepted lookup key.
func (g *Graph) Resolve(name string) (string, bool) {
	return g.canonical(name)
}

// Neighbors returns the sorted adjacency of a system, nil if unmapped or
// isolated. The returned slice is shared and must not be mutated.
func (g *Graph) Neighbors(name string) []string {
	key, ok := g.canonical(name)
	if !ok {
		return nil
	}
	return g.adj[strings.ToLower(key)]
}

// Nodes returns every mapped node in an unspecified order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Hint returns the mapper-supplied record hint for a system name, if any.
func (g *Graph) Hint(name string) (RecordHint, bool) {
	h, ok := g.hints[strings.ToLower(strings.TrimSpace(name))]
	return h, ok
}

// Stats returns the build summary.
func (g *Graph) Stats() Stats {
	return g.stats
}

// Annotate decorates each hop of a path with signature metadata. Edge
// metadata is directed: the forward observation wins when both directions
// were recorded; a reverse-only observation is used with its signature
// codes swapped.
func (g *Graph) Annotate(path []string) []Segment {
	if len(path) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		fwd := strings.ToLower(from) + "|" + strings.ToLower(to)
		if d, ok := g.meta[fwd]; ok {
			segs = append(segs, Segment{From: from, To: to, SignatureOut: d.SignatureOut, SignatureIn: d.SignatureIn, Label: d.Label})
			continue
		}
		rev := strings.ToLower(to) + "|" + strings.ToLower(from)
		if d, ok := g.meta[rev]; ok {
			segs = append(segs, Segment{From: from, To: to, SignatureOut: d.SignatureIn, SignatureIn: d.SignatureOut, Label: d.Label})
			continue
		}
		segs = append(segs, Segment{From: from, To: to})
	}
	return segs
}
