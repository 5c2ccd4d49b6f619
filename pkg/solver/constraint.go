package solver

import "math"

// Kind discriminates the five constraint families the solver
// supports (spec.md §4.C).
type Kind int

const (
	// PointOnPoint pins two points to coincide.
	PointOnPoint Kind = iota
	// P2PDistance holds two points a fixed distance apart.
	P2PDistance
	// PointOnLine holds a point on the line through two others.
	PointOnLine
	// LineInternalAngle fixes the absolute orientation of a line.
	LineInternalAngle
	// InternalAngle fixes the angle at a vertex between two rays.
	InternalAngle
)

// Constraint is a closed sum type over the five kinds above. Which
// fields are meaningful depends on Kind; see the per-kind comments.
type Constraint struct {
	Kind Kind

	// P1, P2, P3 name the (x, y) parameter pairs involved. Meaning by
	// kind:
	//   PointOnPoint:       P1 == P2
	//   P2PDistance:        |P1 - P2| == Target
	//   PointOnLine:        P1 lies on the line through P2, P3
	//   LineInternalAngle:  the line P1 -> P2 has absolute angle Target
	//   InternalAngle:      the signed angle at P2 from ray P2 -> P3 to
	//                       ray P2 -> P1 (counter-clockwise positive) is
	//                       Target
	P1, P2, P3 PointRef

	// Target is the constraint's fixed value: a length for
	// P2PDistance, degrees for LineInternalAngle/InternalAngle,
	// unused otherwise.
	Target float64

	// Label identifies the constraint for diagnostics (e.g. the pair
	// of joint indices, or "input:3").
	Label string
}

// PointRef names one (x, y) parameter pair in an Arena.
type PointRef struct {
	X, Y ParamID
}

func get(a *Arena, r PointRef) (float64, float64) {
	return a.Get(r.X), a.Get(r.Y)
}

// Residual returns the constraint's signed error at the arena's
// current parameter values. A perfectly satisfied constraint returns
// exactly 0; the solver minimizes the sum of squared residuals over
// every constraint in a SolverSystem.
func (c Constraint) Residual(a *Arena) float64 {
	switch c.Kind {
	case PointOnPoint:
		x1, y1 := get(a, c.P1)
		x2, y2 := get(a, c.P2)
		return math.Hypot(x1-x2, y1-y2)

	case P2PDistance:
		x1, y1 := get(a, c.P1)
		x2, y2 := get(a, c.P2)
		return math.Hypot(x1-x2, y1-y2) - c.Target

	case PointOnLine:
		px, py := get(a, c.P1)
		ax, ay := get(a, c.P2)
		bx, by := get(a, c.P3)
		dx, dy := bx-ax, by-ay
		norm := math.Hypot(dx, dy)
		if norm == 0 {
			return math.Hypot(px-ax, py-ay)
		}
		// signed perpendicular distance from p to line a->b
		return (dx*(py-ay) - dy*(px-ax)) / norm

	case LineInternalAngle:
		ax, ay := get(a, c.P1)
		bx, by := get(a, c.P2)
		angle := math.Atan2(by-ay, bx-ax) * 180 / math.Pi
		return angleDiff(angle, c.Target)

	case InternalAngle:
		ax, ay := get(a, c.P1)
		bx, by := get(a, c.P2)
		cx, cy := get(a, c.P3)
		v1 := math.Atan2(ay-by, ax-bx)
		v2 := math.Atan2(cy-by, cx-bx)
		angle := (v1 - v2) * 180 / math.Pi
		return angleDiff(angle, c.Target)

	default:
		return 0
	}
}

// angleDiff returns a-b, wrapped into [-180, 180), so angular
// residuals don't blow up across the +-180 seam.
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}

// PairKey canonicalizes an unordered pair of joint indices into a
// stable map key, used by SolverSystem to dedupe link-length
// constraints so that a link shared by more than two joints doesn't
// emit the same pairwise distance twice.
type PairKey struct {
	A, B int
}

// NewPairKey returns the canonical (sorted) key for the pair (i, j).
func NewPairKey(i, j int) PairKey {
	if i <= j {
		return PairKey{A: i, B: j}
	}
	return PairKey{A: j, B: i}
}
