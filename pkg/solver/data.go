package solver

import "mechlink-go/pkg/geom"

// DataDict seeds a SolverSystem with externally-known values instead
// of a mechanism's design-time geometry (spec.md §4.C parameter
// allocation rules 2/4, §4.D set_data): Points overrides a joint's
// anchor coordinate by joint index, Distances overrides a link-length
// constraint's target by the unordered pair of joints it connects.
// Both are optional; a zero-value DataDict falls back to design-time
// geometry for everything, matching NewSystem's pre-existing
// behavior.
type DataDict struct {
	Points    map[int]geom.Point
	Distances map[PairKey]float64
}
