package chainmap

import "strings"

// ShortestPath returns the fewest-hop path between two mapped systems as
// canonical node keys, origin first. It returns nil when either endpoint
// is unmapped or no connection exists; equal endpoints yield a
// single-element path. Hops all cost one, so plain BFS is exact.
func (g *Graph) ShortestPath(origin, destination string) []string {
	src, ok := g.canonical(origin)
	if !ok {
		return nil
	}
	dst, ok := g.canonical(destination)
	if !ok {
		return nil
	}
	if src == dst {
		return []string{src}
	}

	parent := map[string]string{src: src}
	queue := []string{src}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range g.adj[strings.ToLower(current)] {
			if _, seen := parent[neighbor]; seen {
				continue
			}
			parent[neighbor] = current
			if neighbor == dst {
				return reconstruct(parent, src, dst)
			}
			queue = append(queue, neighbor)
		}
	}
	return nil
}

// NearestPaths sweeps outward from start and returns the shortest path to
// each of the first limit systems satisfying match, nearest first. Matched
// systems are still traversed through, so a chain that continues past a
// match can surface deeper matches too. The start system itself counts
// when it matches.
func (g *Graph) NearestPaths(start string, limit int, match func(name string) bool) [][]string {
	if limit <= 0 || match == nil {
		return nil
	}
	src, ok := g.canonical(start)
	if !ok {
		return nil
	}

	var found [][]string
	parent := map[string]string{src: src}
	if match(src) {
		found = append(found, []string{src})
		if len(found) >= limit {
			return found
		}
	}
	queue := []string{src}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range g.adj[strings.ToLower(current)] {
			if _, seen := parent[neighbor]; seen {
				continue
			}
			parent[neighbor] = current
			if match(neighbor) {
				found = append(found, reconstruct(parent, src, neighbor))
				if len(found) >= limit {
					return found
				}
			}
			queue = append(queue, neighbor)
		}
	}
	return found
}

func reconstruct(parent map[string]string, src, dst string) []string {
	path := []string{dst}
	for current := dst; current != src; {
		current = parent[current]
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
