package triangulate

import (
	"fmt"

	"mechlink-go/pkg/geom"
	"mechlink-go/pkg/joint"
	"mechlink-go/pkg/mechlerr"
)

// status tags each joint's progress through the sweep: unresolved,
// resolved by a construction already on the stack, or grounded
// (resolved trivially, never needs a construction).
type status int

const (
	pending status = iota
	resolved
	grounded
)

// Result is a completed triangulation: the construction stack plus
// the (possibly promoted) working copy of the joint list it was built
// against, in the original joint order.
type Result struct {
	Stack  *EStack
	Joints []*joint.VPoint
	Order  []int // joint indices in the order they were resolved, grounded joints first

	// Status reports, per joint index, whether the sweep resolved that
	// joint. It is all true when TConfig fully solved the mechanism;
	// a false entry marks a joint the caller must fall back to the
	// numerical solver for (spec §7).
	Status []bool
}

// Driver names one input joint and the angle (R) or length (P/RP) it
// is driven to.
type Driver struct {
	JointIdx int
	Value    float64
}

// TConfig compiles vpoints, together with a set of driver joints, into
// a construction stack. It never raises on a structural stall: if the
// sweep runs dry before every joint is resolved, it returns the
// partial stack with Result.Status marking what it proved (spec §7).
// It returns MalformedJoint if a driver names an index out of range
// or a grounded driver joint has no link partner to pivot from.
func TConfig(vpoints []*joint.VPoint, drivers []Driver) (*Result, error) {
	log.Debug("sweep start: %d joints, %d drivers", len(vpoints), len(drivers))
	n := len(vpoints)
	work := make([]*joint.VPoint, n)
	for i, v := range vpoints {
		work[i] = v.Copy()
	}

	// Only a grounded-R joint or a free-floating joint is solved before
	// the sweep starts (spec §4.B step 2). A grounded P/RP slot has a
	// fixed anchor but a sliding pin whose position is a kinematic
	// output, produced below like any other joint.
	st := make([]status, n)
	for i, v := range work {
		if (v.Type() == joint.R && v.Grounded()) || v.NoLink() {
			st[i] = grounded
		}
	}

	driverOf := make(map[int]float64)
	for _, d := range drivers {
		if d.JointIdx < 0 || d.JointIdx >= n {
			return nil, mechlerr.MalformedJointError(
				fmt.Sprintf("driver references joint index %d out of range", d.JointIdx))
		}
		driverOf[d.JointIdx] = d.Value
	}

	linkOf := make(map[string][]int)
	for i, v := range work {
		for _, l := range v.Links() {
			linkOf[l] = append(linkOf[l], i)
		}
	}

	stack := &EStack{}

	// P-to-RP promotion (spec §4.B step 3): every R joint riding a
	// pin-side link of a grounded P joint is rewritten into an RP
	// joint sharing that P's slot, so the rest of the sweep only ever
	// sees R and RP joints modulated by slider slots.
	for bi, base := range work {
		if base.Type() != joint.P || !base.Grounded() {
			continue
		}
		baseLinks := base.Links()
		inBase := make(map[string]bool, len(baseLinks))
		for _, l := range baseLinks {
			inBase[l] = true
		}
		for _, l := range baseLinks[1:] {
			for _, ni := range linkOf[l] {
				if ni == bi || work[ni].Type() != joint.R {
					continue
				}
				var tail []string
				for _, nl := range work[ni].Links() {
					if !inBase[nl] {
						tail = append(tail, nl)
					}
				}
				work[ni].PromoteToRP(append([]string{baseLinks[0]}, tail...), base.Angle())
			}
		}
	}

	// A driven P joint has no production of its own (only RP's
	// length-driven branch reads driverOf, per §4.B's production
	// list), so promote it to RP with an initial pin at its slot
	// anchor and let the main sweep drive it like any other slider.
	// This is a deliberate extension beyond step 3, so driven pure-P
	// sliders remain solvable in closed form instead of always falling
	// back to the numerical solver.
	for i, v := range work {
		if v.Type() != joint.P {
			continue
		}
		if _, isDriver := driverOf[i]; !isDriver {
			continue
		}
		v.PromoteToRP(v.Links(), v.Angle())
	}

	// A static position snapshot, computed once from design-time (x, y)
	// coordinates. Every production reads rigid link lengths and
	// translation offsets from here rather than from work[], since a
	// friend's work[] entry may already have moved to its solved
	// position by the time it anchors another joint's construction —
	// pos is also what makes orientation ties (Clockwise) break the
	// same way regardless of solve order.
	pos := make([]geom.Point, n)
	for i, v := range work {
		pos[i] = geom.Point{X: v.X(), Y: v.Y()}
	}

	// Grounded joints need no construction but count as resolved: they
	// head Order in index order (a grounded driver joins it when its
	// construction is emitted below).
	var order []int
	resolvedCount := 0
	for i := range st {
		if st[i] == grounded {
			resolvedCount++
			if _, isDriver := driverOf[i]; !isDriver {
				order = append(order, i)
			}
		}
	}

	emit := func(i int) {
		st[i] = resolved
		resolvedCount++
		order = append(order, i)
	}

	// Immediate drivers (R-type angle drivers on already-grounded
	// joints) are emitted before the main sweep so downstream PLLP/PLPP
	// productions can depend on them; drivers on ungrounded joints wait
	// for the sweep to reach them naturally, at which point the R/RP
	// productions below consult driverOf directly.
	for i, v := range work {
		if st[i] != grounded {
			continue
		}
		val, isDriver := driverOf[i]
		if !isDriver {
			continue
		}
		friend, ok := groundFriend(v, work, linkOf, i)
		if !ok {
			return nil, mechlerr.MalformedJointError(
				fmt.Sprintf("grounded driver joint %d has no link partner to pivot from", i))
		}
		l := geom.Distance(pos[i], pos[friend])
		p := geom.PLA(work[friend].C(0), l, val)
		work[i].Move(p)
		stack.Append(Expr{
			Op:       OpPLA,
			Operands: []Sym{stack.PointSym(friend), stack.NewLen(), stack.NewAngle()},
			Target:   stack.PointSym(i),
		})
		emit(i)
	}

	stalled := 0
	for resolvedCount < n {
		if stalled >= n+1 {
			log.Debug("sweep stalled: %d/%d joints unresolved", n-resolvedCount, n)
			return &Result{Stack: stack, Joints: work, Order: order, Status: statusBits(st)}, nil
		}
		progressed := false
		for i, v := range work {
			if st[i] != pending {
				continue
			}
			ok, err := tryResolve(i, v, work, st, linkOf, driverOf, pos, stack)
			if err != nil {
				return nil, err
			}
			if ok {
				emit(i)
				progressed = true
			}
		}
		if !progressed {
			stalled++
		} else {
			stalled = 0
		}
	}

	log.Debug("sweep done: %d constructions", stack.Len())
	return &Result{Stack: stack, Joints: work, Order: order, Status: statusBits(st)}, nil
}

// statusBits converts the sweep's internal per-joint status into the
// resolved/unresolved bitmap Result exposes.
func statusBits(st []status) []bool {
	out := make([]bool, len(st))
	for i, s := range st {
		out[i] = s != pending
	}
	return out
}

// groundFriend returns a joint index sharing a link with i whose
// position is already known (grounded), used to anchor a driver
// construction.
func groundFriend(v *joint.VPoint, work []*joint.VPoint, linkOf map[string][]int, self int) (int, bool) {
	for _, l := range v.Links() {
		if l == joint.GroundName {
			continue
		}
		for _, j := range linkOf[l] {
			if j == self {
				continue
			}
			return j, true
		}
	}
	return 0, false
}

// friendsSharingLink returns every joint index (other than self) that
// shares any of self's links, excluding the ground link itself.
func friendsSharingLink(v *joint.VPoint, linkOf map[string][]int, self int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, l := range v.Links() {
		if l == joint.GroundName {
			continue
		}
		for _, j := range linkOf[l] {
			if j == self || seen[j] {
				continue
			}
			seen[j] = true
			out = append(out, j)
		}
	}
	return out
}

// tryResolve attempts one production for joint i. It returns
// (false, nil) when i's dependencies are not yet all resolved, and
// mutates work[i]'s coordinates plus appends to stack on success.
func tryResolve(i int, v *joint.VPoint, work []*joint.VPoint, st []status,
	linkOf map[string][]int, driverOf map[int]float64, pos []geom.Point, stack *EStack) (bool, error) {

	friends := friendsSharingLink(v, linkOf, i)
	var known []int
	for _, f := range friends {
		if st[f] != pending {
			known = append(known, f)
		}
	}

	switch v.Type() {
	case joint.R:
		if val, isDriver := driverOf[i]; isDriver {
			if len(known) < 1 {
				return false, nil
			}
			friend := known[0]
			l := geom.Distance(pos[i], pos[friend])
			p := geom.PLA(work[friend].C(0), l, val)
			work[i].Move(p)
			stack.Append(Expr{
				Op:       OpPLA,
				Operands: []Sym{stack.PointSym(friend), stack.NewLen(), stack.NewAngle()},
				Target:   stack.PointSym(i),
			})
			return true, nil
		}
		if len(known) < 2 {
			return false, nil
		}
		fa, fb := known[0], known[1]
		if !geom.Clockwise(pos[fa], pos[fb], pos[i]) {
			fa, fb = fb, fa
		}
		la := geom.Distance(pos[i], pos[fa])
		lb := geom.Distance(pos[i], pos[fb])
		p := geom.PLLP(work[fa].C(0), la, lb, work[fb].C(0))
		work[i].Move(p)
		stack.Append(Expr{
			Op: OpPLLP,
			Operands: []Sym{
				stack.PointSym(fa), stack.NewLen(),
				stack.NewLen(), stack.PointSym(fb),
			},
			Target: stack.PointSym(i),
		})
		return true, nil

	case joint.P:
		// A pure P joint never rotates about its slot, so its anchor
		// stays at its design coordinate; only the pin is produced,
		// as a fixed translation from a solved pin-side friend (spec
		// §4.B: "pick any solved friend fa on the pin side... emit
		// PXY(fa,…,n)"). Once n is marked resolved, the round-robin
		// sweep naturally lets any further pin-link friends resolve
		// from n in a later pass.
		pinFriends := pinSideFriends(v, linkOf, i)
		fa := -1
		for _, f := range pinFriends {
			if st[f] != pending {
				fa = f
				break
			}
		}
		if fa < 0 {
			return false, nil
		}
		lx := pos[i].X - pos[fa].X
		ly := pos[i].Y - pos[fa].Y
		p := geom.PXY(work[fa].C(0), lx, ly)
		work[i].Move(v.C(0), p)
		stack.Append(Expr{
			Op:       OpPXY,
			Operands: []Sym{stack.PointSym(fa), stack.NewLen(), stack.NewLen()},
			Target:   stack.PointSym(i),
		})
		return true, nil

	case joint.RP:
		return tryResolveRP(i, v, work, st, linkOf, driverOf, pos, stack)
	}
	return false, nil
}

// tryResolveRP implements the RP production. A slot anchor is either
// already known (the joint's slot link is ground, per VPoint.Grounded)
// or must be located from two base-link friends via PLLP; the pin is
// then projected onto the resulting slot line at the driven or
// measured length, via PLPP, using a synthetic point one unit along
// the slot direction as PLPP's second line anchor.
func tryResolveRP(i int, v *joint.VPoint, work []*joint.VPoint, st []status,
	linkOf map[string][]int, driverOf map[int]float64, pos []geom.Point, stack *EStack) (bool, error) {

	baseFriends := baseSideFriends(v, linkOf, i)
	var slotSym Sym
	var anchor geom.Point

	if v.Grounded() {
		anchor = v.C(0)
		slotSym = stack.PointSym(i)
	} else {
		var known []int
		for _, f := range baseFriends {
			if st[f] != pending {
				known = append(known, f)
			}
		}
		if len(known) < 2 {
			return false, nil
		}
		fa, fb := known[0], known[1]
		if !geom.Clockwise(pos[fa], pos[fb], pos[i]) {
			fa, fb = fb, fa
		}
		la := geom.Distance(pos[fa], pos[i])
		lb := geom.Distance(pos[fb], pos[i])
		anchor = geom.PLLP(work[fa].C(0), la, lb, work[fb].C(0))
		slotSym = stack.NewSlot()
		stack.Append(Expr{
			Op: OpPLLP,
			Operands: []Sym{
				stack.PointSym(fa), stack.NewLen(),
				stack.NewLen(), stack.PointSym(fb),
			},
			Target: slotSym,
		})
	}
	work[i].Move(anchor, work[i].C(1))

	pinFriends := pinSideFriends(v, linkOf, i)
	var pinKnown []int
	for _, f := range pinFriends {
		if st[f] != pending {
			pinKnown = append(pinKnown, f)
		}
	}
	if len(pinKnown) < 1 {
		return false, nil
	}
	fa := pinKnown[0]

	var length float64
	if val, isDriver := driverOf[i]; isDriver {
		length = val
	} else {
		length = geom.Distance(pos[fa], pos[i])
	}

	slotDirPoint := geom.PLA(anchor, 1, v.Angle())
	slotPtSym := stack.NewSlot()
	stack.Append(Expr{
		Op:       OpPLA,
		Operands: []Sym{slotSym, stack.NewLen(), stack.NewAngle()},
		Target:   slotPtSym,
	})

	branch := (pos[fa].X-pos[i].X > 0) != (v.Angle() > 90)
	pin := geom.PLPP(work[fa].C(0), length, anchor, slotDirPoint, branch)
	work[i].Move(anchor, pin)

	stack.Append(Expr{
		Op:       OpPLPP,
		Operands: []Sym{stack.PointSym(fa), stack.NewLen(), slotSym, slotPtSym},
		Target:   stack.PointSym(i),
		Branch:   branch,
	})

	return true, nil
}

// baseSideFriends returns friends sharing v's base (slot) link,
// links[0].
func baseSideFriends(v *joint.VPoint, linkOf map[string][]int, self int) []int {
	links := v.Links()
	if len(links) == 0 || links[0] == joint.GroundName {
		return nil
	}
	var out []int
	for _, j := range linkOf[links[0]] {
		if j != self {
			out = append(out, j)
		}
	}
	return out
}

// pinSideFriends returns friends sharing one of v's pin-side links
// (links[1:]).
func pinSideFriends(v *joint.VPoint, linkOf map[string][]int, self int) []int {
	links := v.Links()
	if len(links) < 2 {
		return nil
	}
	seen := make(map[int]bool)
	var out []int
	for _, l := range links[1:] {
		for _, j := range linkOf[l] {
			if j == self || seen[j] {
				continue
			}
			seen[j] = true
			out = append(out, j)
		}
	}
	return out
}
