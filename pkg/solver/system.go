package solver

import (
	"fmt"

	"mechlink-go/pkg/geom"
	"mechlink-go/pkg/joint"
	"mechlink-go/pkg/mechlerr"
)

// Driver names one input joint and the value (angle in degrees for R,
// length for P/RP) it is driven to.
type Driver struct {
	JointIdx int
	Value    float64
}

// SolverSystem is the numerical constraint model built from a
// mechanism: an Arena of (x, y) parameter pairs, one per joint anchor
// and (for P/RP joints) pin, plus the Constraint set that ties them
// together (spec.md §4.C/§4.D).
type SolverSystem struct {
	arena  *Arena
	joints []*joint.VPoint
	anchor []PointRef
	pin    []PointRef
	locked map[ParamID]bool

	constraints      []Constraint
	driverConstraint map[int]int        // joint index -> constraints slice index
	dataPoints       map[int]PointRef   // joint index -> rebindable anchor
	dataDistances    map[PairKey]int    // joint pair -> constraints slice index
	data             map[string]float64
}

// NewSystem builds a SolverSystem from a mechanism's joint list and
// its driver set. data optionally seeds known coordinates and known
// link lengths (spec.md §4.C data_dict); omit it to fall back to the
// mechanism's design-time geometry throughout, which is what every
// pre-existing caller in this codebase does. It returns MalformedJoint
// if a driver names an out-of-range joint index.
func NewSystem(vpoints []*joint.VPoint, drivers []Driver, data ...DataDict) (*SolverSystem, error) {
	var d DataDict
	if len(data) > 0 {
		d = data[0]
	}
	n := len(vpoints)
	s := &SolverSystem{
		arena:            NewArena(),
		joints:           make([]*joint.VPoint, n),
		anchor:           make([]PointRef, n),
		pin:              make([]PointRef, n),
		locked:           make(map[ParamID]bool),
		driverConstraint: make(map[int]int),
		dataPoints:       make(map[int]PointRef),
		dataDistances:    make(map[PairKey]int),
		data:             make(map[string]float64),
	}
	for i, v := range vpoints {
		s.joints[i] = v.Copy()
	}

	linkOf := make(map[string][]int)
	for i, v := range s.joints {
		for _, l := range v.Links() {
			linkOf[l] = append(linkOf[l], i)
		}
	}

	for i, v := range s.joints {
		anchorVal := v.C(0)
		knownPoint, hasData := d.Points[i]
		if hasData {
			anchorVal = knownPoint
		}
		s.anchor[i] = PointRef{
			X: s.arena.Alloc(anchorVal.X),
			Y: s.arena.Alloc(anchorVal.Y),
		}
		if v.Type() == joint.R {
			s.pin[i] = s.anchor[i]
		} else {
			s.pin[i] = PointRef{
				X: s.arena.Alloc(v.C(1).X),
				Y: s.arena.Alloc(v.C(1).Y),
			}
		}
		// Parameter allocation per spec.md §4.C: no-link joints and
		// grounded joints are fully rigid (case 1/3); a joint whose
		// coordinate is externally known is rigid too, but stays
		// rebindable through SetDataPoint (cases 2/4).
		if v.Grounded() || v.NoLink() || hasData {
			s.locked[s.anchor[i].X] = true
			s.locked[s.anchor[i].Y] = true
		}
		if hasData {
			s.dataPoints[i] = s.anchor[i]
		}
		if v.Type() != joint.R && v.PinGrounded() {
			s.locked[s.pin[i].X] = true
			s.locked[s.pin[i].Y] = true
		}
	}

	s.buildSliderConstraints(linkOf)

	// Rigid-link constraints: every pair of joints on the same link
	// holds its design-time distance fixed, using each joint's contact
	// end for that link (VPoint.Distance's rule). Dedup is per
	// (link, i, j), via PairKey — not per (i, j) alone, since two
	// joints sharing more than one link legitimately get one
	// constraint per link, each anchored at that link's own contact
	// points. A pair's length comes from data_dict when the caller
	// supplied one, else it is measured once here and cached back into
	// the caller's map, mirroring set_data's later rebind path.
	links := joint.BuildLinks(s.joints)
	seenPairs := make(map[string]map[PairKey]bool)
	for _, l := range links {
		if l.IsGround() {
			continue
		}
		linkSeen := seenPairs[l.Name]
		if linkSeen == nil {
			linkSeen = make(map[PairKey]bool)
			seenPairs[l.Name] = linkSeen
		}
		for a := 0; a < len(l.Joints); a++ {
			for b := a + 1; b < len(l.Joints); b++ {
				i, j := l.Joints[a], l.Joints[b]
				key := NewPairKey(i, j)
				if linkSeen[key] {
					continue
				}
				linkSeen[key] = true
				p1, p2 := s.contactPoint(i, l.Name), s.contactPoint(j, l.Name)
				length, ok := d.Distances[key]
				if !ok {
					x1, y1 := s.arena.Get(p1.X), s.arena.Get(p1.Y)
					x2, y2 := s.arena.Get(p2.X), s.arena.Get(p2.Y)
					length = geom.Distance(geom.Point{X: x1, Y: y1}, geom.Point{X: x2, Y: y2})
					if d.Distances != nil {
						d.Distances[key] = length
					}
				}
				s.constraints = append(s.constraints, Constraint{
					Kind:   P2PDistance,
					P1:     p1,
					P2:     p2,
					Target: length,
					Label:  fmt.Sprintf("link:%s:%d-%d", l.Name, i, j),
				})
				s.dataDistances[key] = len(s.constraints) - 1
			}
		}
	}

	for _, d := range drivers {
		if d.JointIdx < 0 || d.JointIdx >= n {
			return nil, mechlerr.MalformedJointError(
				fmt.Sprintf("driver references joint index %d out of range", d.JointIdx))
		}
		v := s.joints[d.JointIdx]
		switch v.Type() {
		case joint.R:
			friend, ok := anyFriend(v, linkOf, d.JointIdx)
			if !ok {
				return nil, mechlerr.MalformedJointError(
					fmt.Sprintf("driver joint %d has no link partner to measure its angle from", d.JointIdx))
			}
			s.constraints = append(s.constraints, Constraint{
				Kind:   LineInternalAngle,
				P1:     s.anchor[friend],
				P2:     s.anchor[d.JointIdx],
				Target: d.Value,
				Label:  fmt.Sprintf("input:%d", d.JointIdx),
			})
		case joint.P, joint.RP:
			s.constraints = append(s.constraints, Constraint{
				Kind:   P2PDistance,
				P1:     s.anchor[d.JointIdx],
				P2:     s.pin[d.JointIdx],
				Target: d.Value,
				Label:  fmt.Sprintf("input:%d", d.JointIdx),
			})
		}
		s.driverConstraint[d.JointIdx] = len(s.constraints) - 1
	}

	return s, nil
}

// contactPoint returns the parameter pair a joint presents to a
// shared link, mirroring VPoint's contact-end rule: the anchor for R
// joints or when the link is the joint's slot link, the pin
// otherwise.
func (s *SolverSystem) contactPoint(i int, link string) PointRef {
	v := s.joints[i]
	if v.Type() == joint.R || v.IsSlotLink(link) {
		return s.anchor[i]
	}
	return s.pin[i]
}

// pointOf returns a PointRef's current arena value. Called during
// NewSystem before any solve has run, this is exactly the joint's
// design-time coordinate — used to compute self-consistent constraint
// targets for the angle locks below.
func (s *SolverSystem) pointOf(r PointRef) geom.Point {
	return geom.Point{X: s.arena.Get(r.X), Y: s.arena.Get(r.Y)}
}

// slotMate returns a joint index (other than self) sharing a floating
// slider's slot link, used to anchor the slot's orientation to its own
// rigid body when there is no global angle to lock it to.
func slotMate(linkOf map[string][]int, slotLink string, self int) (int, bool) {
	for _, j := range linkOf[slotLink] {
		if j != self {
			return j, true
		}
	}
	return 0, false
}

// pinFriend names a joint sharing one of a slider's pin-side links.
type pinFriend struct {
	idx  int
	link string
}

// pinFriendsOf returns every joint (other than self) sharing one of
// v's pin-side links (links[1:]), paired with the specific link that
// connects them.
func pinFriendsOf(v *joint.VPoint, linkOf map[string][]int, self int) []pinFriend {
	links := v.Links()
	if len(links) < 2 {
		return nil
	}
	seen := make(map[int]bool)
	var out []pinFriend
	for _, l := range links[1:] {
		for _, j := range linkOf[l] {
			if j == self || seen[j] {
				continue
			}
			seen[j] = true
			out = append(out, pinFriend{idx: j, link: l})
		}
	}
	return out
}

// buildSliderConstraints implements spec.md §4.C's slider rules 2-4.
// A P/RP joint's pin starts with two free params (or none, if pin
// grounded); this narrows that freedom down to the single sliding
// degree of freedom a slider has along its slot, then — when an
// offset is configured — pins the pin at a fixed perpendicular
// distance from the slot instead of on it, and finally — for pure P
// joints only — locks the pin's bearing to every pin-side friend, the
// difference that keeps a P joint from ever rotating about its slot
// the way an RP joint does.
func (s *SolverSystem) buildSliderConstraints(linkOf map[string][]int) {
	for i, v := range s.joints {
		if v.Type() == joint.R {
			continue
		}
		anchorDesign := v.C(0)
		offsetActive := v.HasOffset() && v.Offset() != 0
		bump := 0.0
		if offsetActive {
			bump = 90
		}
		// slotBearing is the anchor->pin bearing this joint's slot
		// constraint drives toward: the joint's own design angle when
		// grounded, since the anchor never moves; a design pose is
		// otherwise degenerate for a fresh joint (pin starts coincident
		// with anchor), so every target below is derived from this
		// analytic bearing plus other joints' actual design geometry,
		// never from the joint's own (uninformative) pin coordinate.
		slotBearing := v.Angle() + bump

		switch {
		case v.Grounded():
			s.constraints = append(s.constraints, Constraint{
				Kind:   LineInternalAngle,
				P1:     s.anchor[i],
				P2:     s.pin[i],
				Target: slotBearing,
				Label:  fmt.Sprintf("slot-angle:%d", i),
			})
		default:
			mate, ok := slotMate(linkOf, v.Links()[0], i)
			if !ok {
				break
			}
			mateLink := v.Links()[0]
			mateContact := s.pointOf(s.contactPoint(mate, mateLink))
			target := slotBearing - geom.SlopeAngle(anchorDesign, mateContact)
			s.constraints = append(s.constraints, Constraint{
				Kind:   InternalAngle,
				P1:     s.pin[i],
				P2:     s.anchor[i],
				P3:     s.contactPoint(mate, mateLink),
				Target: target,
				Label:  fmt.Sprintf("slot-angle-rel:%d", i),
			})
		}

		switch {
		case v.HasOffset() && v.Offset() != 0:
			s.constraints = append(s.constraints, Constraint{
				Kind:   P2PDistance,
				P1:     s.anchor[i],
				P2:     s.pin[i],
				Target: v.Offset(),
				Label:  fmt.Sprintf("offset:%d", i),
			})
		case v.HasOffset():
			s.constraints = append(s.constraints, Constraint{
				Kind:  PointOnPoint,
				P1:    s.anchor[i],
				P2:    s.pin[i],
				Label: fmt.Sprintf("offset:%d", i),
			})
		}

		if v.Type() != joint.P {
			continue
		}
		for _, pf := range pinFriendsOf(v, linkOf, i) {
			friendContact := s.pointOf(s.contactPoint(pf.idx, pf.link))
			// vertex is the pin; anchor sits behind it along the slot
			// (the reverse of the anchor->pin bearing slotBearing
			// names), hence the +180.
			target := (slotBearing + 180) - geom.SlopeAngle(anchorDesign, friendContact)
			s.constraints = append(s.constraints, Constraint{
				Kind:   InternalAngle,
				P1:     s.anchor[i],
				P2:     s.pin[i],
				P3:     s.contactPoint(pf.idx, pf.link),
				Target: target,
				Label:  fmt.Sprintf("pin-lock:%d-%d", i, pf.idx),
			})
		}
	}
}

// anyFriend returns a joint index sharing a non-ground link with self.
func anyFriend(v *joint.VPoint, linkOf map[string][]int, self int) (int, bool) {
	for _, l := range v.Links() {
		if l == joint.GroundName {
			continue
		}
		for _, j := range linkOf[l] {
			if j != self {
				return j, true
			}
		}
	}
	return 0, false
}

// SetInputs updates the driven value for one or more joints already
// registered as drivers. It returns UnsupportedEdit if a joint index
// was never registered as a driver in NewSystem.
func (s *SolverSystem) SetInputs(drivers []Driver) error {
	for _, d := range drivers {
		idx, ok := s.driverConstraint[d.JointIdx]
		if !ok {
			return mechlerr.UnsupportedEditError("driver joint index", d.JointIdx)
		}
		s.constraints[idx].Target = d.Value
	}
	return nil
}

// ShowInputs returns the current driven value for every registered
// driver, keyed by joint index.
func (s *SolverSystem) ShowInputs() map[int]float64 {
	out := make(map[int]float64, len(s.driverConstraint))
	for idx, cidx := range s.driverConstraint {
		out[idx] = s.constraints[cidx].Target
	}
	return out
}

// SetData stores an arbitrary named auxiliary value alongside the
// system, for callers that want to stash solve metadata (iteration
// count, residual norm) without a side channel.
func (s *SolverSystem) SetData(key string, value float64) {
	s.data[key] = value
}

// ShowData returns a named auxiliary value and whether it was set.
func (s *SolverSystem) ShowData(key string) (float64, bool) {
	v, ok := s.data[key]
	return v, ok
}

// SamePoints reports whether s and other were built from mechanisms
// with identical link topology — same joint count and type, same link
// membership per joint index, in declaration order (spec.md §4.D
// same_points). It compares structure only, never coordinates, so a
// caller can decide whether a previously built SolverSystem may be
// reused for a new pose instead of rebuilt from scratch.
func (s *SolverSystem) SamePoints(other *SolverSystem) bool {
	if other == nil || len(s.joints) != len(other.joints) {
		return false
	}
	for i, v := range s.joints {
		ov := other.joints[i]
		if v.Type() != ov.Type() {
			return false
		}
		a, b := v.Links(), ov.Links()
		if len(a) != len(b) {
			return false
		}
		for k := range a {
			if a[k] != b[k] {
				return false
			}
		}
	}
	return true
}

// SetDataPoint rebinds a joint's known anchor coordinate, mirroring
// set_data's coordinate path (spec.md §4.D). It returns UnsupportedEdit
// if joint idx was never seeded with a known coordinate in NewSystem's
// DataDict.
func (s *SolverSystem) SetDataPoint(idx int, p geom.Point) error {
	ref, ok := s.dataPoints[idx]
	if !ok {
		return mechlerr.UnsupportedEditError("data point joint index", idx)
	}
	s.arena.Set(ref.X, p.X)
	s.arena.Set(ref.Y, p.Y)
	return nil
}

// SetDataDistance rebinds a rigid link's cached length, mirroring
// set_data's link-length path (spec.md §4.D). i and j identify the
// pair of joints the length constraint connects; order doesn't matter.
// It returns UnsupportedEdit if the pair never got a link-length
// constraint in NewSystem.
func (s *SolverSystem) SetDataDistance(i, j int, length float64) error {
	cidx, ok := s.dataDistances[NewPairKey(i, j)]
	if !ok {
		return mechlerr.UnsupportedEditError("data distance pair", i)
	}
	s.constraints[cidx].Target = length
	return nil
}

// Joints returns the system's current joint snapshot, reflecting the
// most recent Solve.
func (s *SolverSystem) Joints() []*joint.VPoint { return s.joints }

// Constraints returns the system's constraint list, for diagnostics
// and testing.
func (s *SolverSystem) Constraints() []Constraint { return s.constraints }

// Arena exposes the underlying parameter arena, for diagnostics and
// testing.
func (s *SolverSystem) Arena() *Arena { return s.arena }
