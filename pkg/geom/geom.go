// Package geom implements the closed-form planar geometry primitives
// consumed by the triangulation compiler's construction stack: PLA,
// PLAP, PLLP, PLPP and PXY. Degenerate inputs (circles that do not
// intersect, coincident points) are not guarded against; they surface
// as NaN the same way the rest of this engine leaves floating-point
// edge cases to the caller.
package geom

import "math"

// Point is a Cartesian coordinate pair.
type Point struct {
	X, Y float64
}

// Line is the directed segment from P1 to P2.
type Line struct {
	P1, P2 Point
}

// Sub returns a-b as a displacement vector.
func Sub(a, b Point) Point { return Point{a.X - b.X, a.Y - b.Y} }

// Add returns a+b.
func Add(a, b Point) Point { return Point{a.X + b.X, a.Y + b.Y} }

// Scale returns p scaled by s.
func Scale(p Point, s float64) Point { return Point{p.X * s, p.Y * s} }

// Dot returns the dot product of a and b.
func Dot(a, b Point) float64 { return a.X*b.X + a.Y*b.Y }

// Cross returns the 2D cross product (z-component) of a and b.
func Cross(a, b Point) float64 { return a.X*b.Y - a.Y*b.X }

// Norm returns the Euclidean length of p.
func Norm(p Point) float64 { return math.Hypot(p.X, p.Y) }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 { return Norm(Sub(a, b)) }

// SlopeAngle returns the angle, in degrees, from horizontal of the
// vector from -> to, via atan2.
func SlopeAngle(from, to Point) float64 {
	d := Sub(to, from)
	return math.Atan2(d.Y, d.X) * 180.0 / math.Pi
}

// Clockwise reports whether the turn c1 -> c2 -> c3 is clockwise,
// defined as cross(c2-c1, c3-c2) >= 0 (a zero cross product counts as
// clockwise). With y growing upward a positive cross product is a left
// turn, so this reads as clockwise only with y growing downward.
func Clockwise(c1, c2, c3 Point) bool {
	return Cross(Sub(c2, c1), Sub(c3, c2)) >= 0
}

// PLA places a point at distance length and absolute angle (degrees)
// from c1. This is the driver construction: no pivot line, the angle
// is already resolved to the global frame.
func PLA(c1 Point, length, angleDeg float64) Point {
	rad := angleDeg * math.Pi / 180.0
	return Point{c1.X + length*math.Cos(rad), c1.Y + length*math.Sin(rad)}
}

// PLAP places a point at distance length and angle (degrees) measured
// relative to the c1->c2 pivot line.
func PLAP(c1 Point, length, angleDeg float64, c2 Point) Point {
	base := SlopeAngle(c1, c2)
	return PLA(c1, length, base+angleDeg)
}

// PLLP finds the point at distance l1 from c1 and l2 from c2 — the
// intersection of two circles. Of the (generically) two solutions,
// PLLP always returns the one obtained by rotating the c1->c2 axis
// +90 degrees; callers select the geometrically desired root by
// swapping c1/c2 (and l1/l2) before calling, per the triangulation
// compiler's clockwise test.
func PLLP(c1 Point, l1, l2 float64, c2 Point) Point {
	d := Distance(c1, c2)
	a := (l1*l1 - l2*l2 + d*d) / (2 * d)
	h := math.Sqrt(l1*l1 - a*a)
	dir := Scale(Sub(c2, c1), 1/d)
	mid := Add(c1, Scale(dir, a))
	perp := Point{-dir.Y, dir.X}
	return Add(mid, Scale(perp, h))
}

// PLPP projects the point at distance length from c1 onto the line
// through c2 and c3 (the slot). Of the two intersections of the
// circle around c1 with that line, branch selects the one further
// along the line direction (true) or against it (false).
func PLPP(c1 Point, length float64, c2, c3 Point, branch bool) Point {
	dir := Sub(c3, c2)
	dLen := Norm(dir)
	unit := Scale(dir, 1/dLen)
	toC1 := Sub(c1, c2)
	t0 := Dot(toC1, unit)
	foot := Add(c2, Scale(unit, t0))
	perpDist := Distance(c1, foot)
	half := math.Sqrt(length*length - perpDist*perpDist)
	if branch {
		return Add(foot, Scale(unit, half))
	}
	return Add(foot, Scale(unit, -half))
}

// PXY translates c1 by the axial offsets (lx, ly).
func PXY(c1 Point, lx, ly float64) Point {
	return Point{c1.X + lx, c1.Y + ly}
}

// InternalAngle returns the line's orientation, in degrees, from
// P1 to P2.
func (l Line) InternalAngle() float64 { return SlopeAngle(l.P1, l.P2) }

// Length returns the line's length.
func (l Line) Length() float64 { return Distance(l.P1, l.P2) }
