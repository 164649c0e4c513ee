// Package chainmap builds the in-memory connectivity graph for the
// currently discovered wormhole chain: nodes and links as supplied by the
// mapper, an undirected adjacency for reachability, and directed
// per-signature metadata for route annotation. Graphs are immutable once
// built; callers replace the whole instance when the bookmark set changes.
package chainmap

import (
	"fmt"
	"strings"
)

// Node is one mapped system in the caller's snapshot. Placeholder nodes
// stand for "something is through this hole" before the far side has been
// visited; their real identity is unknown.
type Node struct {
	Name          string `json:"name"`
	FilterKey     string `json:"filter_key,omitempty"`
	OriginSystem  string `json:"origin_system,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Placeholder   bool   `json:"placeholder,omitempty"`
	WormholeClass string `json:"wormhole_class,omitempty"`
}

// Key returns the node's canonical graph key: its name when the mapper
// resolved one, otherwise a synthetic key from the bookmark row fields.
// The synthetic key is stable across rebuilds as long as the caller keeps
// supplying the same filter key and origin system.
func (n *Node) Key() string {
	if s := strings.TrimSpace(n.Name); s != "" {
		return s
	}
	return fmt.Sprintf("unknown:%s:%s", strings.ToLower(strings.TrimSpace(n.FilterKey)), strings.ToLower(strings.TrimSpace(n.OriginSystem)))
}

// Display returns the label presented to the user.
func (n *Node) Display() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	if s := strings.TrimSpace(n.Name); s != "" {
		return s
	}
	return "Unknown"
}

// Direction is a one-way observation of a link, carrying the signature
// codes parsed from the bookmark that recorded it.
type Direction struct {
	From         string `json:"from"`
	To           string `json:"to"`
	SignatureOut string `json:"signature_out,omitempty"`
	SignatureIn  string `json:"signature_in,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Link is an unordered system pair the mapper discovered. A link without
// observations is taken as already confirmed by the caller; one with
// observations only enters the adjacency once both directions have been
// seen, unless an endpoint is a placeholder (which can never be confirmed
// from the far side).
type Link struct {
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Directions []Direction `json:"directions,omitempty"`
}

// RecordHint is partial system metadata the mapper resolved on its own,
// supplementing the static catalog during classification.
type RecordHint struct {
	ID            int32  `json:"id,omitempty"`
	WormholeClass string `json:"wormhole_class,omitempty"`
}

// Snapshot is the full graph input, replaced wholesale on every update.
type Snapshot struct {
	Nodes   []Node                `json:"nodes"`
	Links   []Link                `json:"links"`
	Records map[string]RecordHint `json:"system_records,omitempty"`
}

// Segment is one annotated hop of a wormhole path.
type Segment struct {
	From         string `json:"from"`
	To           string `json:"to"`
	SignatureOut string `json:"signature_out,omitempty"`
	SignatureIn  string `json:"signature_in,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Stats summarizes a built graph for status reporting.
type Stats struct {
	Nodes        int `json:"nodes"`
	Links        int `json:"links"`
	DroppedLinks int `json:"dropped_links"` // unconfirmed or unresolvable
}
