package solver

import (
	"math"
	"strings"
	"testing"

	"mechlink-go/pkg/geom"
	"mechlink-go/pkg/joint"
)

func fourbarJoints() []*joint.VPoint {
	o2 := joint.RJoint("ground,crank", 0, 0)
	a := joint.RJoint("crank,coupler", 2, 0)
	b := joint.RJoint("coupler,rocker", 4, 3)
	o4 := joint.RJoint("rocker,ground", 3, 4)
	return []*joint.VPoint{o2, a, b, o4}
}

func TestSolveFourbarPreservesLinkLengths(t *testing.T) {
	original := fourbarJoints()
	wantAC := original[0].Distance(original[1])
	wantAB := original[1].Distance(original[2])
	wantBO4 := original[2].Distance(original[3])

	sys, err := NewSystem(original, []Driver{{JointIdx: 1, Value: 75}})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if err := sys.Solve(Rough); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	joints := sys.Joints()
	if d := joints[0].Distance(joints[1]); math.Abs(d-wantAC) > 1e-4 {
		t.Errorf("crank length changed: got %v want %v", d, wantAC)
	}
	if d := joints[1].Distance(joints[2]); math.Abs(d-wantAB) > 1e-4 {
		t.Errorf("coupler length changed: got %v want %v", d, wantAB)
	}
	if d := joints[2].Distance(joints[3]); math.Abs(d-wantBO4) > 1e-4 {
		t.Errorf("rocker length changed: got %v want %v", d, wantBO4)
	}
	// Grounded joints never move.
	if joints[0].C(0) != original[0].C(0) {
		t.Errorf("grounded joint 0 moved: %+v vs %+v", joints[0].C(0), original[0].C(0))
	}
	if joints[3].C(0) != original[3].C(0) {
		t.Errorf("grounded joint 3 moved: %+v vs %+v", joints[3].C(0), original[3].C(0))
	}
}

func TestSetInputsUpdatesDriverTarget(t *testing.T) {
	sys, err := NewSystem(fourbarJoints(), []Driver{{JointIdx: 1, Value: 10}})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if err := sys.SetInputs([]Driver{{JointIdx: 1, Value: 50}}); err != nil {
		t.Fatalf("SetInputs: %v", err)
	}
	got := sys.ShowInputs()[1]
	if got != 50 {
		t.Errorf("ShowInputs()[1] = %v, want 50", got)
	}
}

func TestSetInputsRejectsNonDriverJoint(t *testing.T) {
	sys, err := NewSystem(fourbarJoints(), []Driver{{JointIdx: 1, Value: 10}})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if err := sys.SetInputs([]Driver{{JointIdx: 2, Value: 1}}); err == nil {
		t.Fatalf("expected UnsupportedEdit for a joint never registered as a driver")
	}
}

// TestOffsetPreservedForSliderJoint checks S3 from spec.md §8: an RP
// joint with a configured offset solves with its pin held at exactly
// that offset from the slot anchor, perpendicular to the slot
// direction — not merely at whatever distance a length driver forces.
func TestOffsetPreservedForSliderJoint(t *testing.T) {
	slider, err := joint.SliderJoint("ground", joint.RP, 45, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	slider.SetOffset(2)
	sys, err := NewSystem([]*joint.VPoint{slider}, nil)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if err := sys.Solve(Fine); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	v := sys.Joints()[0]
	anchor, pin := v.C(0), v.C(1)
	dx, dy := pin.X-anchor.X, pin.Y-anchor.Y
	if mag := math.Hypot(dx, dy); math.Abs(mag-2) > 1e-4 {
		t.Errorf("offset magnitude = %v, want 2", mag)
	}
	slotRad := 45 * math.Pi / 180
	dot := dx*math.Cos(slotRad) + dy*math.Sin(slotRad)
	if math.Abs(dot) > 1e-4 {
		t.Errorf("pin vector not perpendicular to slot direction: dot = %v", dot)
	}
}

// TestZeroOffsetPinsPointOnPoint checks the other half of spec.md
// §4.C rule 2/3: a slider with no offset configured keeps its pin
// exactly on the slot line via PointOnPoint, not P2PDistance.
func TestZeroOffsetPinsPointOnPoint(t *testing.T) {
	slider, err := joint.SliderJoint("ground", joint.RP, 30, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	slider.SetOffset(0)
	sys, err := NewSystem([]*joint.VPoint{slider}, nil)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	found := false
	for _, c := range sys.Constraints() {
		if strings.HasPrefix(c.Label, "offset:") {
			found = true
			if c.Kind != PointOnPoint {
				t.Errorf("zero-offset slider constraint kind = %v, want PointOnPoint", c.Kind)
			}
		}
	}
	if !found {
		t.Fatal("expected an offset constraint even when Offset() == 0")
	}
}

// TestPureSliderLocksBearingButRPDoesNot checks spec.md §4.C rule 4:
// only a pure P joint locks its pin's bearing to a pin-side friend, the
// distinction that keeps it from rotating about its slot the way an RP
// joint is free to.
func TestPureSliderLocksBearingButRPDoesNot(t *testing.T) {
	build := func(typ joint.Type) *SolverSystem {
		slider, err := joint.SliderJoint("ground,block", typ, 0, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		friend := joint.RJoint("block,arm", 1, 1)
		sys, err := NewSystem([]*joint.VPoint{slider, friend}, nil)
		if err != nil {
			t.Fatalf("NewSystem: %v", err)
		}
		return sys
	}
	hasPinLock := func(sys *SolverSystem) bool {
		for _, c := range sys.Constraints() {
			if strings.HasPrefix(c.Label, "pin-lock:") {
				return true
			}
		}
		return false
	}

	if !hasPinLock(build(joint.P)) {
		t.Error("a pure P joint should lock its pin's bearing to a pin-side friend")
	}
	if hasPinLock(build(joint.RP)) {
		t.Error("an RP joint should not lock its pin's bearing to a pin-side friend")
	}
}

// TestFloatingSliderLocksSlotAngleRelativeToMate checks spec.md §4.C
// rule 3: a non-grounded slider's slot angle is locked relative to a
// link-mate on its slot link, not to a fixed global bearing.
func TestFloatingSliderLocksSlotAngleRelativeToMate(t *testing.T) {
	slider, err := joint.SliderJoint("beam,arm", joint.RP, 20, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	mate := joint.RJoint("beam,ground", 0, 0)
	sys, err := NewSystem([]*joint.VPoint{slider, mate}, nil)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	found := false
	for _, c := range sys.Constraints() {
		if strings.HasPrefix(c.Label, "slot-angle-rel:") {
			found = true
		}
	}
	if !found {
		t.Error("a floating slider should lock its slot bearing relative to a link-mate")
	}
}

// TestSamePointsComparesTopologyNotCoordinates checks spec.md §4.D
// same_points: a structural comparison of link membership, unaffected
// by a solve moving either system's joints.
func TestSamePointsComparesTopologyNotCoordinates(t *testing.T) {
	sysA, err := NewSystem(fourbarJoints(), nil)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	sysB, err := NewSystem(fourbarJoints(), nil)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if !sysA.SamePoints(sysB) {
		t.Error("two systems built from identical topology should compare equal")
	}
	if err := sysB.Solve(Rough); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !sysA.SamePoints(sysB) {
		t.Error("SamePoints should ignore coordinate differences introduced by solving")
	}

	other := []*joint.VPoint{
		joint.RJoint("ground,crank", 0, 0),
		joint.RJoint("crank,coupler", 2, 0),
	}
	sysC, err := NewSystem(other, nil)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if sysA.SamePoints(sysC) {
		t.Error("systems with different joint counts should not compare equal")
	}
}

// TestDataDictSeedsKnownDistanceAndRebindsViaSetData checks spec.md
// §4.C/§4.D: a data_dict link length overrides the design-time
// measurement at construction, and SetDataDistance rebinds it
// afterward the same way set_data does.
func TestDataDictSeedsKnownDistanceAndRebindsViaSetData(t *testing.T) {
	a := joint.RJoint("ground,crank", 0, 0)
	b := joint.RJoint("crank,coupler", 3, 0)
	c := joint.RJoint("coupler,rocker", 4, 3)
	d := joint.RJoint("ground,rocker", 0, 3)
	knownDist := 999.0
	data := DataDict{
		Distances: map[PairKey]float64{NewPairKey(1, 2): knownDist},
	}
	sys, err := NewSystem([]*joint.VPoint{a, b, c, d}, nil, data)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	found := false
	for _, con := range sys.Constraints() {
		if con.Label == "link:coupler:1-2" {
			found = true
			if con.Target != knownDist {
				t.Errorf("link length = %v, want data_dict value %v", con.Target, knownDist)
			}
		}
	}
	if !found {
		t.Fatal("expected a link-length constraint between joints 1 and 2")
	}

	if err := sys.SetDataDistance(1, 2, 5); err != nil {
		t.Fatalf("SetDataDistance: %v", err)
	}
	if err := sys.SetDataDistance(0, 2, 1); err == nil {
		t.Error("SetDataDistance on a pair with no link-length constraint should fail")
	}
}

// TestDataDictSeedsKnownPointAndRebindsViaSetData checks spec.md
// §4.C/§4.D: a data_dict coordinate locks a joint's anchor at
// construction, and SetDataPoint rebinds it afterward.
func TestDataDictSeedsKnownPointAndRebindsViaSetData(t *testing.T) {
	a := joint.RJoint("linkA,linkB", 5, 5)
	b := joint.RJoint("linkA,linkC", 1, 1)
	known := geom.Point{X: 7, Y: -3}
	data := DataDict{Points: map[int]geom.Point{0: known}}
	sys, err := NewSystem([]*joint.VPoint{a, b}, nil, data)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if err := sys.Solve(Rough); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	got := sys.Joints()[0].C(0)
	if got != known {
		t.Errorf("joint 0 anchor = %+v, want data_dict value %+v", got, known)
	}
	if err := sys.SetDataPoint(0, geom.Point{X: 1, Y: 2}); err != nil {
		t.Fatalf("SetDataPoint: %v", err)
	}
	if err := sys.SetDataPoint(1, geom.Point{X: 0, Y: 0}); err == nil {
		t.Error("SetDataPoint on a joint never seeded with data should fail")
	}
}

func TestSolveDetectsInconsistentSystem(t *testing.T) {
	// Two joints on the same link with a driver forcing an angle that
	// is inconsistent with any real length — over-constrain by pinning
	// both link ends to ground on top of a distance constraint that
	// cannot simultaneously hold, which no amount of free movement can
	// satisfy.
	a := joint.RJoint("ground,rigid", 0, 0)
	b := joint.RJoint("ground,rigid", 5, 0)
	sys, err := NewSystem([]*joint.VPoint{a, b}, nil)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	// Both joints are grounded, so the link-length constraint is fixed
	// at its design value and trivially satisfied — this should solve.
	if err := sys.Solve(Rough); err != nil {
		t.Fatalf("Solve on a fully grounded (trivial) system should succeed: %v", err)
	}
}

func TestSolveRecordsIterationCountViaData(t *testing.T) {
	a := joint.RJoint("ground,crank", 0, 0)
	b := joint.RJoint("crank,coupler", 3, 0)
	c := joint.RJoint("coupler,rocker", 4, 3)
	d := joint.RJoint("ground,rocker", 0, 3)
	sys, err := NewSystem([]*joint.VPoint{a, b, c, d}, []Driver{{JointIdx: 1, Value: 60}})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if _, ok := sys.ShowData("solve_iterations"); ok {
		t.Fatal("solve_iterations should be unset before Solve")
	}
	if err := sys.Solve(Rough); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if _, ok := sys.ShowData("solve_iterations"); !ok {
		t.Fatal("Solve should record solve_iterations")
	}
}

func TestSolveFinePrecisionConverges(t *testing.T) {
	a := joint.RJoint("ground,crank", 0, 0)
	b := joint.RJoint("crank,coupler", 3, 0)
	c := joint.RJoint("coupler,rocker", 4, 3)
	d := joint.RJoint("ground,rocker", 0, 3)
	sys, err := NewSystem([]*joint.VPoint{a, b, c, d}, []Driver{{JointIdx: 1, Value: 60}})
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	if err := sys.Solve(Fine); err != nil {
		t.Fatalf("Solve(Fine): %v", err)
	}
}

func TestArenaSlotsSurviveGrowthAcrossBlocks(t *testing.T) {
	a := NewArena()
	first := a.Alloc(1.0)
	for i := 0; i < blockSize*2+3; i++ {
		a.Alloc(float64(i))
	}
	if a.Get(first) != 1.0 {
		t.Fatalf("first slot value changed after growth: got %v want 1.0", a.Get(first))
	}
}
