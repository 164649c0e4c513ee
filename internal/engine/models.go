package engine

import "eve-wayfinder/internal/chainmap"

// Classification labels what kind of system a name refers to.
type Classification string

const (
	ClassWormhole    Classification = "wormhole"
	ClassKSpace      Classification = "kspace"
	ClassPlaceholder Classification = "placeholder"
	ClassUnknown     Classification = "unknown"
)

// Candidate status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Route modes, in the order the planner tries them.
const (
	ModeTrivial = "trivial" // origin equals destination
	ModeMap     = "map"     // entirely inside the discovered chain
	ModeKSpace  = "kspace"  // entirely in known space
	ModeHybrid  = "hybrid"  // chain leg(s) bridged through known space
)

// Failure reasons on error candidates.
const (
	ReasonOriginMissing       = "origin_missing"
	ReasonDestinationMissing  = "destination_missing"
	ReasonOriginNotFound      = "origin_not_found"
	ReasonDestinationNotFound = "destination_not_found"
	ReasonRouteNotFound       = "route_not_found"
)

// JumpCounts splits a candidate's length by leg type.
type JumpCounts struct {
	Wormhole int `json:"wormhole"`
	KSpace   int `json:"kspace"`
	Total    int `json:"total"`
}

// KSpaceLeg is the known-space portion of a route as returned by the
// routing service: endpoints included, so Jumps is len(IDs)-1.
type KSpaceLeg struct {
	Names []string `json:"names"`
	IDs   []int32  `json:"ids"`
	Jumps int      `json:"jumps"`
}

// Bridge names the known-space systems where a hybrid route meets the
// chain: Exit is the last chain system before known space on the origin
// side, Entry the one where the route re-enters a chain toward the
// destination. Either may be empty when that side has no chain leg.
type Bridge struct {
	Exit  string `json:"exit,omitempty"`
	Entry string `json:"entry,omitempty"`
}

// Candidate is one fully-described route option. ChainPath holds the
// wormhole-hop systems in travel order; for a wormhole-to-wormhole hybrid
// it is both chain legs concatenated, split at Bridge.Exit/Entry, and the
// known-space leg sits between them.
type Candidate struct {
	Status      string             `json:"status"`
	Mode        string             `json:"mode,omitempty"`
	Origin      string             `json:"origin"`
	Destination string             `json:"destination"`
	Preference  string             `json:"preference"`
	ChainPath   []string           `json:"chain_path,omitempty"`
	Segments    []chainmap.Segment `json:"segments,omitempty"`
	KSpace      *KSpaceLeg         `json:"kspace,omitempty"`
	Bridge      *Bridge            `json:"bridge,omitempty"`
	Totals      JumpCounts         `json:"totals"`
	Reason      string             `json:"reason,omitempty"`
	Message     string             `json:"message,omitempty"`
}

func okCandidate(origin, destination, preference, mode string) *Candidate {
	return &Candidate{
		Status:      StatusOK,
		Mode:        mode,
		Origin:      origin,
		Destination: destination,
		Preference:  preference,
	}
}

func errorCandidate(origin, destination, preference, reason, message string) *Candidate {
	return &Candidate{
		Status:      StatusError,
		Origin:      origin,
		Destination: destination,
		Preference:  preference,
		Reason:      reason,
		Message:     message,
	}
}
