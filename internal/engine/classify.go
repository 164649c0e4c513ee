package engine

import (
	"eve-wayfinder/internal/catalog"
	"eve-wayfinder/internal/chainmap"
)

// Classify labels a system name against the current graph snapshot.
func (p *Planner) Classify(name string) Classification {
	return classify(p.Graph(), p.Catalog, name)
}

// classify applies the label precedence. The order matters: a system
// physically in known space but currently mapped only as an unconfirmed
// placeholder must classify as placeholder, so routing treats it as
// requiring discovery rather than as a known-space bridge target.
func classify(g *chainmap.Graph, cat *catalog.Catalog, name string) Classification {
	node, onMap := g.Lookup(name)
	if onMap && node.Placeholder {
		return ClassPlaceholder
	}

	rec, inCatalog := cat.ByName(name)
	hint, hasHint := g.Hint(name)

	// Any wormhole-class marker, wherever it was observed.
	if onMap && node.WormholeClass != "" {
		return ClassWormhole
	}
	if hasHint && hint.WormholeClass != "" {
		return ClassWormhole
	}
	if inCatalog && rec.Class != "" {
		return ClassWormhole
	}

	// The reserved J-space ID block.
	if inCatalog && catalog.IsJSpaceID(rec.ID) {
		return ClassWormhole
	}
	if hasHint && catalog.IsJSpaceID(hint.ID) {
		return ClassWormhole
	}

	// On the map but absent from the catalog: every known-space system is
	// in the catalog, so this must be a chain member.
	if !inCatalog && onMap {
		return ClassWormhole
	}

	if inCatalog && rec.ID != 0 {
		return ClassKSpace
	}
	if hasHint && hint.ID != 0 {
		return ClassKSpace
	}
	return ClassUnknown
}
