package solver

import (
	"math"
	"testing"
)

func point(a *Arena, x, y float64) PointRef {
	return PointRef{X: a.Alloc(x), Y: a.Alloc(y)}
}

func TestPointOnPointResidualZeroWhenCoincident(t *testing.T) {
	a := NewArena()
	p1 := point(a, 3, 4)
	p2 := point(a, 3, 4)
	c := Constraint{Kind: PointOnPoint, P1: p1, P2: p2}
	if r := c.Residual(a); math.Abs(r) > 1e-12 {
		t.Errorf("residual = %v, want 0", r)
	}
	a.Set(p2.X, 3+3)
	a.Set(p2.Y, 4+4)
	if r := c.Residual(a); math.Abs(r-5) > 1e-9 {
		t.Errorf("residual = %v, want 5", r)
	}
}

func TestPointOnLineResidualSignsBothSides(t *testing.T) {
	a := NewArena()
	line1 := point(a, 0, 0)
	line2 := point(a, 10, 0)
	above := point(a, 5, 2)
	below := point(a, 5, -2)
	c := Constraint{Kind: PointOnLine, P1: above, P2: line1, P3: line2}
	rAbove := c.Residual(a)
	c.P1 = below
	rBelow := c.Residual(a)
	if rAbove*rBelow >= 0 {
		t.Errorf("expected opposite-signed residuals on either side of the line, got %v and %v", rAbove, rBelow)
	}
	onLine := point(a, 5, 0)
	c.P1 = onLine
	if r := c.Residual(a); math.Abs(r) > 1e-9 {
		t.Errorf("residual for a point on the line = %v, want 0", r)
	}
}

func TestInternalAngleResidualZeroAtTarget(t *testing.T) {
	a := NewArena()
	vertex := point(a, 0, 0)
	rayA := point(a, 1, 0)
	rayC := point(a, 0, 1)
	c := Constraint{Kind: InternalAngle, P1: rayC, P2: vertex, P3: rayA, Target: 90}
	if r := c.Residual(a); math.Abs(r) > 1e-9 {
		t.Errorf("residual at the true angle = %v, want 0", r)
	}
	c.Target = 45
	if r := c.Residual(a); math.Abs(r-45) > 1e-9 {
		t.Errorf("residual = %v, want 45", r)
	}
}

func TestLineInternalAngleResidualWrapsAcrossSeam(t *testing.T) {
	a := NewArena()
	p1 := point(a, 0, 0)
	p2 := point(a, -1, -0.001)
	c := Constraint{Kind: LineInternalAngle, P1: p1, P2: p2, Target: 180}
	if r := c.Residual(a); math.Abs(r) > 1 {
		t.Errorf("residual near the +-180 seam = %v, want a small wrapped value", r)
	}
}

func TestP2PDistanceResidual(t *testing.T) {
	a := NewArena()
	p1 := point(a, 0, 0)
	p2 := point(a, 3, 4)
	c := Constraint{Kind: P2PDistance, P1: p1, P2: p2, Target: 5}
	if r := c.Residual(a); math.Abs(r) > 1e-9 {
		t.Errorf("residual = %v, want 0", r)
	}
	c.Target = 4
	if r := c.Residual(a); math.Abs(r-1) > 1e-9 {
		t.Errorf("residual = %v, want 1", r)
	}
}

func TestPairKeyCanonicalizesUnordered(t *testing.T) {
	if NewPairKey(3, 7) != NewPairKey(7, 3) {
		t.Errorf("PairKey should be order-independent")
	}
}
