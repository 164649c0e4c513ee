// Package engine synthesizes routes across two networks: the discovered
// wormhole chain (local graph, hop-exact) and known space (delegated to
// the external routing service). Planning tries direct, chain-only, and
// hybrid strategies, then ranks the surviving candidates.
package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"eve-wayfinder/internal/catalog"
	"eve-wayfinder/internal/chainmap"
	"eve-wayfinder/internal/esi"
	"eve-wayfinder/internal/suggest"
)

const (
	// maxBridgeCandidates bounds how many known-space exits/entries are
	// considered per side of a hybrid route. The wormhole-to-wormhole cross
	// product is therefore at most maxBridgeCandidates² external calls.
	maxBridgeCandidates = 3
	// maxConcurrentLookups bounds parallel routing-service calls per plan.
	maxConcurrentLookups = 4
)

// RouteService is the slice of the routing client the planner depends on.
type RouteService interface {
	Route(ctx context.Context, originID, destinationID int32, pref esi.Preference) ([]int32, error)
}

// Planner owns the chain graph snapshot and produces route candidates.
// The graph is swapped wholesale by UpdateGraph; a Plan in flight keeps
// the snapshot it started with.
type Planner struct {
	Catalog *catalog.Catalog
	Routes  RouteService

	mu    sync.RWMutex
	graph *chainmap.Graph
}

// NewPlanner creates a planner with an empty chain graph.
func NewPlanner(cat *catalog.Catalog, routes RouteService) *Planner {
	return &Planner{
		Catalog: cat,
		Routes:  routes,
		graph:   chainmap.Build(chainmap.Snapshot{}),
	}
}

// UpdateGraph rebuilds the chain graph from a fresh snapshot and swaps it
// in atomically. Returns the build summary.
func (p *Planner) UpdateGraph(snap chainmap.Snapshot) chainmap.Stats {
	g := chainmap.Build(snap)
	p.mu.Lock()
	p.graph = g
	p.mu.Unlock()
	return g.Stats()
}

// Graph returns the current graph snapshot.
func (p *Planner) Graph() *chainmap.Graph {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.graph
}

// Plan finds the best route between two systems named by the user.
// Failures come back as error candidates with a reason code, never as a
// Go error: nothing here is fatal, worst case is "no route found".
func (p *Planner) Plan(ctx context.Context, origin, destination string, pref esi.Preference) *Candidate {
	g := p.Graph()
	prefStr := string(pref)

	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" {
		return errorCandidate(origin, destination, prefStr, ReasonOriginMissing, "origin system is required")
	}
	if destination == "" {
		return errorCandidate(origin, destination, prefStr, ReasonDestinationMissing, "destination system is required")
	}

	from, ok := p.resolve(g, origin)
	if !ok {
		return errorCandidate(origin, destination, prefStr, ReasonOriginNotFound, fmt.Sprintf("unknown system %q", origin))
	}
	to, ok := p.resolve(g, destination)
	if !ok {
		return errorCandidate(from, destination, prefStr, ReasonDestinationNotFound, fmt.Sprintf("unknown system %q", destination))
	}

	if strings.EqualFold(from, to) {
		c := okCandidate(from, from, prefStr, ModeTrivial)
		c.ChainPath = []string{from}
		return c
	}

	// A path inside the discovered chain always wins: it reflects
	// confirmed, already-traveled connections. Short-circuit, do not
	// rank it against hybrids.
	if g.Contains(from) && g.Contains(to) {
		if path := g.ShortestPath(from, to); path != nil {
			c := okCandidate(from, to, prefStr, ModeMap)
			c.ChainPath = path
			c.Segments = g.Annotate(path)
			c.Totals = JumpCounts{Wormhole: len(path) - 1, Total: len(path) - 1}
			return c
		}
	}

	pool := p.gatherCandidates(ctx, g, from, to, pref)
	if len(pool) == 0 {
		return errorCandidate(from, to, prefStr, ReasonRouteNotFound, fmt.Sprintf("no route from %s to %s", from, to))
	}
	rankCandidates(pool)
	return pool[0]
}

// resolve maps a user-supplied name to its canonical form: the graph's
// node registry first, then the catalog.
func (p *Planner) resolve(g *chainmap.Graph, name string) (string, bool) {
	if key, ok := g.Resolve(name); ok {
		return key, true
	}
	if rec, ok := p.Catalog.ByName(name); ok {
		return rec.Name, true
	}
	return "", false
}

// systemID resolves a name to its numeric system ID for the routing
// service, consulting the catalog and then the mapper's record hints.
func (p *Planner) systemID(g *chainmap.Graph, name string) (int32, bool) {
	if rec, ok := p.Catalog.ByName(name); ok && rec.ID != 0 {
		return rec.ID, true
	}
	if h, ok := g.Hint(name); ok && h.ID != 0 {
		return h.ID, true
	}
	return 0, false
}

// bridgeJob is one routing-service lookup plus the chain legs around it.
type bridgeJob struct {
	originLeg []string // chain hops origin..exit; nil when origin is in known space
	entryLeg  []string // chain hops entry..destination; nil when destination is
	fromID    int32
	toID      int32
}

// gatherCandidates builds the strategy pool for endpoints that have no
// direct chain path: known-space direct, chain exits toward a known-space
// destination, known-space origin toward chain entries, and chain-to-chain
// bridged through known space. Each strategy costs one routing-service
// call; calls run concurrently and individual failures only drop that
// candidate.
func (p *Planner) gatherCandidates(ctx context.Context, g *chainmap.Graph, from, to string, pref esi.Preference) []*Candidate {
	fromClass := classify(g, p.Catalog, from)
	toClass := classify(g, p.Catalog, to)
	isKSpace := func(name string) bool { return classify(g, p.Catalog, name) == ClassKSpace }

	var jobs []bridgeJob

	if fromClass == ClassKSpace && toClass == ClassKSpace {
		fid, okF := p.systemID(g, from)
		tid, okT := p.systemID(g, to)
		if okF && okT {
			jobs = append(jobs, bridgeJob{fromID: fid, toID: tid})
		}
	}

	var exitPaths, entryPaths [][]string
	if fromClass == ClassWormhole {
		exitPaths = g.NearestPaths(from, maxBridgeCandidates, isKSpace)
	}
	if toClass == ClassWormhole {
		// Searched outward from the destination, so each path runs
		// destination-first; reverse for travel order.
		for _, path := range g.NearestPaths(to, maxBridgeCandidates, isKSpace) {
			entryPaths = append(entryPaths, reversed(path))
		}
	}

	if fromClass == ClassWormhole && toClass == ClassKSpace {
		if tid, ok := p.systemID(g, to); ok {
			for _, exitPath := range exitPaths {
				exit := exitPath[len(exitPath)-1]
				eid, ok := p.systemID(g, exit)
				if !ok {
					log.Printf("[Planner] exit %s has no system ID, skipping", exit)
					continue
				}
				jobs = append(jobs, bridgeJob{originLeg: exitPath, fromID: eid, toID: tid})
			}
		}
	}

	if fromClass == ClassKSpace && toClass == ClassWormhole {
		if fid, ok := p.systemID(g, from); ok {
			for _, entryPath := range entryPaths {
				entry := entryPath[0]
				nid, ok := p.systemID(g, entry)
				if !ok {
					log.Printf("[Planner] entry %s has no system ID, skipping", entry)
					continue
				}
				jobs = append(jobs, bridgeJob{entryLeg: entryPath, fromID: fid, toID: nid})
			}
		}
	}

	if fromClass == ClassWormhole && toClass == ClassWormhole {
		for _, exitPath := range exitPaths {
			exit := exitPath[len(exitPath)-1]
			eid, ok := p.systemID(g, exit)
			if !ok {
				continue
			}
			for _, entryPath := range entryPaths {
				entry := entryPath[0]
				nid, ok := p.systemID(g, entry)
				if !ok {
					continue
				}
				jobs = append(jobs, bridgeJob{originLeg: exitPath, entryLeg: entryPath, fromID: eid, toID: nid})
			}
		}
	}

	if len(jobs) == 0 {
		return nil
	}

	results := make([]*Candidate, len(jobs))
	var eg errgroup.Group
	eg.SetLimit(maxConcurrentLookups)
	for i, jb := range jobs {
		eg.Go(func() error {
			ids, err := p.Routes.Route(ctx, jb.fromID, jb.toID, pref)
			if err != nil {
				log.Printf("[Planner] kspace leg %d->%d failed: %v", jb.fromID, jb.toID, err)
				return nil
			}
			results[i] = p.assemble(g, from, to, pref, jb, ids)
			return nil
		})
	}
	eg.Wait()

	pool := make([]*Candidate, 0, len(results))
	for _, c := range results {
		if c != nil {
			pool = append(pool, c)
		}
	}
	return pool
}

// assemble turns a completed lookup into a full candidate.
func (p *Planner) assemble(g *chainmap.Graph, origin, destination string, pref esi.Preference, jb bridgeJob, ids []int32) *Candidate {
	mode := ModeKSpace
	if jb.originLeg != nil || jb.entryLeg != nil {
		mode = ModeHybrid
	}
	c := okCandidate(origin, destination, string(pref), mode)

	wormhole := 0
	if jb.originLeg != nil {
		c.ChainPath = append(c.ChainPath, jb.originLeg...)
		c.Segments = append(c.Segments, g.Annotate(jb.originLeg)...)
		wormhole += len(jb.originLeg) - 1
	}
	if jb.entryLeg != nil {
		c.ChainPath = append(c.ChainPath, jb.entryLeg...)
		c.Segments = append(c.Segments, g.Annotate(jb.entryLeg)...)
		wormhole += len(jb.entryLeg) - 1
	}
	if mode == ModeHybrid {
		b := &Bridge{}
		if jb.originLeg != nil {
			b.Exit = jb.originLeg[len(jb.originLeg)-1]
		}
		if jb.entryLeg != nil {
			b.Entry = jb.entryLeg[0]
		}
		c.Bridge = b
	}

	c.KSpace = &KSpaceLeg{
		Names: p.namesForIDs(g, ids),
		IDs:   ids,
		Jumps: len(ids) - 1,
	}
	c.Totals = JumpCounts{
		Wormhole: wormhole,
		KSpace:   c.KSpace.Jumps,
		Total:    wormhole + c.KSpace.Jumps,
	}
	return c
}

func (p *Planner) namesForIDs(g *chainmap.Graph, ids []int32) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		if rec, ok := p.Catalog.ByID(id); ok {
			names[i] = rec.Name
			continue
		}
		names[i] = fmt.Sprintf("System %d", id)
	}
	return names
}

// rankCandidates orders the pool: fewest total jumps first, ties broken by
// fewer wormhole hops, then fewer known-space jumps.
func rankCandidates(pool []*Candidate) {
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Totals.Total != pool[j].Totals.Total {
			return pool[i].Totals.Total < pool[j].Totals.Total
		}
		if pool[i].Totals.Wormhole != pool[j].Totals.Wormhole {
			return pool[i].Totals.Wormhole < pool[j].Totals.Wormhole
		}
		return pool[i].Totals.KSpace < pool[j].Totals.KSpace
	})
}

func reversed(path []string) []string {
	out := make([]string, len(path))
	for i, s := range path {
		out[len(path)-1-i] = s
	}
	return out
}

// Suggest ranks system-name completions for interactive destination entry
// over the union of mapped nodes and catalog names.
func (p *Planner) Suggest(query string, limit int) []suggest.Suggestion {
	g := p.Graph()
	seen := make(map[string]struct{})
	var entries []suggest.Entry

	for _, n := range g.Nodes() {
		key := n.Key()
		band := n.WormholeClass
		if band == "" {
			if h, ok := g.Hint(key); ok && h.WormholeClass != "" {
				band = h.WormholeClass
			} else if rec, ok := p.Catalog.ByName(key); ok {
				band = rec.Band()
			}
		}
		entries = append(entries, suggest.Entry{
			Name:    key,
			Display: n.Display(),
			Band:    band,
			OnMap:   true,
		})
		seen[strings.ToLower(key)] = struct{}{}
	}
	for _, name := range p.Catalog.Names() {
		if _, dup := seen[strings.ToLower(name)]; dup {
			continue
		}
		rec, ok := p.Catalog.ByName(name)
		if !ok {
			continue
		}
		entries = append(entries, suggest.Entry{
			Name:    rec.Name,
			Display: rec.Name,
			Band:    rec.Band(),
		})
	}
	return suggest.Rank(query, entries, limit)
}
