package geom

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPLA(t *testing.T) {
	p := PLA(Point{0, 0}, 5, 0)
	if !almostEqual(p.X, 5, 1e-9) || !almostEqual(p.Y, 0, 1e-9) {
		t.Fatalf("PLA(0,0,5,0) = %+v, want (5,0)", p)
	}

	p = PLA(Point{1, 1}, 1, 90)
	if !almostEqual(p.X, 1, 1e-9) || !almostEqual(p.Y, 2, 1e-9) {
		t.Fatalf("PLA(1,1,1,90) = %+v, want (1,2)", p)
	}
}

func TestPLLPMatchesDistances(t *testing.T) {
	c1 := Point{0, 0}
	c2 := Point{10, 0}
	p := PLLP(c1, 6, 8, c2)

	if !almostEqual(Distance(c1, p), 6, 1e-6) {
		t.Errorf("distance to c1 = %v, want 6", Distance(c1, p))
	}
	if !almostEqual(Distance(c2, p), 8, 1e-6) {
		t.Errorf("distance to c2 = %v, want 8", Distance(c2, p))
	}
}

func TestPLPPLiesOnLineAtDistance(t *testing.T) {
	c1 := Point{0, 5}
	c2 := Point{-10, 0}
	c3 := Point{10, 0}

	p := PLPP(c1, 5*math.Sqrt2, c2, c3, true)
	if !almostEqual(p.Y, 0, 1e-9) {
		t.Fatalf("PLPP result not on slot line: %+v", p)
	}
	if !almostEqual(Distance(c1, p), 5*math.Sqrt2, 1e-6) {
		t.Fatalf("PLPP result not at requested distance: %v", Distance(c1, p))
	}

	other := PLPP(c1, 5*math.Sqrt2, c2, c3, false)
	if almostEqual(other.X, p.X, 1e-6) {
		t.Fatalf("branch=false should differ from branch=true")
	}
}

func TestClockwiseConvention(t *testing.T) {
	// Clockwise holds when the cross product of the two turn legs is
	// non-negative: (0,0)->(1,0)->(1,1) has cross +1 (a clockwise turn
	// on a screen where y grows downward), (0,0)->(1,0)->(1,-1) has -1.
	if !Clockwise(Point{0, 0}, Point{1, 0}, Point{1, 1}) {
		t.Errorf("expected clockwise turn to be reported as such")
	}
	if Clockwise(Point{0, 0}, Point{1, 0}, Point{1, -1}) {
		t.Errorf("expected counter-clockwise turn to not be reported as clockwise")
	}
}

func TestPXY(t *testing.T) {
	p := PXY(Point{1, 2}, 3, 4)
	if p != (Point{4, 6}) {
		t.Fatalf("PXY = %+v, want (4,6)", p)
	}
}
