// Package joint implements the shared vocabulary of both the
// triangulation compiler and the numerical solver: VPoint (a
// kinematic pair) and VLink (a rigid body grouping joints).
package joint

import (
	"math"
	"strconv"
	"strings"

	"mechlink-go/pkg/geom"
	"mechlink-go/pkg/mechlerr"
)

// Type is the kind of kinematic pair a VPoint represents.
type Type int

const (
	// R is a pure rotation (pin) joint.
	R Type = iota
	// P is a pure translation (slider on a slot) joint.
	P
	// RP is a combined rotation+translation joint.
	RP
)

// String returns the joint type's expression-form name.
func (t Type) String() string {
	switch t {
	case R:
		return "R"
	case P:
		return "P"
	case RP:
		return "RP"
	default:
		return "?"
	}
}

// VPoint is a kinematic pair. See package doc and spec §3 for the
// full semantics of each field.
type VPoint struct {
	links     []string
	typ       Type
	angle     float64 // slot orientation, degrees, normalized to [0,180)
	x, y      float64 // design-time coordinates (immutable)
	c         [2]geom.Point
	hasOffset bool
	offset    float64
	colorStr  string
}

func dedupLinks(csv string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range strings.Split(csv, ",") {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// RJoint builds a revolute (R) joint. linksCSV is a comma-separated,
// order-preserving list of link names; an empty string means a free
// floating joint.
func RJoint(linksCSV string, x, y float64) *VPoint {
	v := &VPoint{
		typ:   R,
		links: dedupLinks(linksCSV),
		x:     x,
		y:     y,
	}
	v.c[0] = geom.Point{X: x, Y: y}
	return v
}

// SliderJoint builds a P or RP joint. The first name in linksCSV is
// the slot link. Returns MalformedJoint if typ is not P/RP or the
// slot link is missing.
func SliderJoint(linksCSV string, typ Type, angle, x, y float64) (*VPoint, error) {
	if typ != P && typ != RP {
		return nil, mechlerr.MalformedJointError("slider_joint requires type P or RP")
	}
	links := dedupLinks(linksCSV)
	if len(links) == 0 {
		return nil, mechlerr.MalformedJointError("slider joint requires a slot link")
	}
	v := &VPoint{
		typ:   typ,
		links: links,
		angle: normalizeAngle(angle),
		x:     x,
		y:     y,
	}
	v.c[0] = geom.Point{X: x, Y: y}
	v.c[1] = geom.Point{X: x, Y: y}
	return v, nil
}

func normalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 180.0)
	if a < 0 {
		a += 180.0
	}
	return a
}

// Copy returns a deep logical copy, preserving c exactly.
func (v *VPoint) Copy() *VPoint {
	cp := &VPoint{
		typ:       v.typ,
		links:     append([]string(nil), v.links...),
		angle:     v.angle,
		x:         v.x,
		y:         v.y,
		hasOffset: v.hasOffset,
		offset:    v.offset,
		colorStr:  v.colorStr,
	}
	cp.Move(v.c[0], v.c[1])
	return cp
}

// Move overwrites c[0]. For P/RP joints c[1] is set to the optional
// c2, defaulting to c1 when omitted; c2 is ignored for R joints.
func (v *VPoint) Move(c1 geom.Point, c2 ...geom.Point) {
	v.c[0] = c1
	if v.typ == R {
		return
	}
	if len(c2) > 0 {
		v.c[1] = c2[0]
	} else {
		v.c[1] = c1
	}
}

// Rotate sets the slot angle, normalized to [0, 180).
func (v *VPoint) Rotate(angle float64) {
	v.angle = normalizeAngle(angle)
}

// SetOffset enables the offset constraint with the given signed value.
func (v *VPoint) SetOffset(value float64) {
	v.hasOffset = true
	v.offset = value
}

// DisableOffset removes the offset constraint.
func (v *VPoint) DisableOffset() {
	v.hasOffset = false
	v.offset = 0
}

// HasOffset reports whether an offset constraint is active.
func (v *VPoint) HasOffset() bool { return v.hasOffset }

// Offset returns the configured signed offset value (meaningless unless
// HasOffset is true).
func (v *VPoint) Offset() float64 { return v.offset }

// TrueOffset returns the current Euclidean distance between the slot
// anchor and the pin.
func (v *VPoint) TrueOffset() float64 {
	return geom.Distance(v.c[0], v.c[1])
}

// contactEnd returns the point used to measure distance/angle to a
// joint sharing sharedLink with this one.
func (v *VPoint) contactEnd(sharedLink string) geom.Point {
	if v.typ == R || v.IsSlotLink(sharedLink) {
		return v.c[0]
	}
	return v.c[1]
}

// point returns the num-th reference point: 0=slot anchor, 1=pin
// (or slot anchor for R joints), >=2=original design coordinates.
func (v *VPoint) point(num int) geom.Point {
	switch num {
	case 0:
		return v.c[0]
	case 1:
		if v.typ == R {
			return v.c[0]
		}
		return v.c[1]
	default:
		return geom.Point{X: v.x, Y: v.y}
	}
}

// sharedLink returns a link name common to both joints, if any.
func (v *VPoint) sharedLink(other *VPoint) (string, bool) {
	for _, a := range v.links {
		for _, b := range other.links {
			if a == b {
				return a, true
			}
		}
	}
	return "", false
}

// Distance returns the distance between v and other, using the
// contact-end rule when they share a link.
func (v *VPoint) Distance(other *VPoint) float64 {
	if link, ok := v.sharedLink(other); ok {
		return geom.Distance(v.contactEnd(link), other.contactEnd(link))
	}
	return geom.Distance(v.c[0], other.c[0])
}

// SlopeAngle returns the angle, in degrees, of the vector from
// other -> v, using point num1 of v and point num2 of other.
func (v *VPoint) SlopeAngle(other *VPoint, num1, num2 int) float64 {
	return geom.SlopeAngle(other.point(num2), v.point(num1))
}

// Grounded reports whether the joint is incident on the inertial
// frame "ground".
func (v *VPoint) Grounded() bool {
	if v.typ == R {
		for _, l := range v.links {
			if l == "ground" {
				return true
			}
		}
		return false
	}
	return len(v.links) > 0 && v.links[0] == "ground"
}

// PinGrounded reports whether "ground" appears among the pin-side
// links (links[1:]).
func (v *VPoint) PinGrounded() bool {
	for _, l := range v.linksTail() {
		if l == "ground" {
			return true
		}
	}
	return false
}

func (v *VPoint) linksTail() []string {
	if len(v.links) <= 1 {
		return nil
	}
	return v.links[1:]
}

// IsSlotLink reports whether name is this joint's first (base/slot)
// link.
func (v *VPoint) IsSlotLink(name string) bool {
	return len(v.links) > 0 && v.links[0] == name
}

// SameLink reports whether v and other share any link.
func (v *VPoint) SameLink(other *VPoint) bool {
	_, ok := v.sharedLink(other)
	return ok
}

// NoLink reports whether the joint is free floating.
func (v *VPoint) NoLink() bool { return len(v.links) == 0 }

// CX returns the "visible" X coordinate: the slot anchor for R
// joints, the pin for P/RP.
func (v *VPoint) CX() float64 {
	if v.typ == R {
		return v.c[0].X
	}
	return v.c[1].X
}

// CY returns the "visible" Y coordinate.
func (v *VPoint) CY() float64 {
	if v.typ == R {
		return v.c[0].Y
	}
	return v.c[1].Y
}

// Type returns the joint's kinematic type.
func (v *VPoint) Type() Type { return v.typ }

// Links returns the joint's link membership, in declaration order.
func (v *VPoint) Links() []string { return v.links }

// X returns the original design-time X coordinate.
func (v *VPoint) X() float64 { return v.x }

// Y returns the original design-time Y coordinate.
func (v *VPoint) Y() float64 { return v.y }

// Angle returns the slot orientation in degrees.
func (v *VPoint) Angle() float64 { return v.angle }

// C returns the i-th current coordinate (0=slot anchor/only point,
// 1=pin, valid for P/RP only).
func (v *VPoint) C(i int) geom.Point { return v.c[i] }

// PromoteToRP rewrites an R joint in place into an RP joint with the
// given links and slot angle, used by the triangulation compiler's
// P-to-RP promotion step (spec §4.B). It is a no-op guard for
// non-R joints: callers are expected to check Type() first.
func (v *VPoint) PromoteToRP(links []string, angle float64) {
	if v.typ != R {
		return
	}
	v.typ = RP
	v.links = links
	v.angle = normalizeAngle(angle)
	v.c[1] = v.c[0]
}

// SetColor attaches display metadata; it carries no kinematic
// meaning.
func (v *VPoint) SetColor(name string) { v.colorStr = name }

// Color returns the display metadata, if any.
func (v *VPoint) Color() string { return v.colorStr }

// IsNaN reports whether any current coordinate is NaN, the sole hook
// this package offers for detecting floating-point breakdown.
func (v *VPoint) IsNaN() bool {
	if math.IsNaN(v.c[0].X) || math.IsNaN(v.c[0].Y) {
		return true
	}
	if v.typ != R && (math.IsNaN(v.c[1].X) || math.IsNaN(v.c[1].Y)) {
		return true
	}
	return false
}

// Equal compares two joints structurally over (links, c, type, x, y,
// angle).
func (v *VPoint) Equal(other *VPoint) bool {
	if other == nil {
		return false
	}
	if v.typ != other.typ || v.x != other.x || v.y != other.y || v.angle != other.angle {
		return false
	}
	if len(v.links) != len(other.links) {
		return false
	}
	for i, l := range v.links {
		if other.links[i] != l {
			return false
		}
	}
	if v.c[0] != other.c[0] {
		return false
	}
	if v.typ != R && v.c[1] != other.c[1] {
		return false
	}
	return true
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// String renders the joint in its expression form:
// J[type(,A[angle])?(,color[name])?,P[x,y],L[link,...]].
func (v *VPoint) String() string {
	var sb strings.Builder
	sb.WriteString("J[")
	sb.WriteString(v.typ.String())
	if v.typ != R {
		sb.WriteString(",A[")
		sb.WriteString(formatNum(v.angle))
		sb.WriteString("]")
	}
	if v.colorStr != "" {
		sb.WriteString(",color[")
		sb.WriteString(v.colorStr)
		sb.WriteString("]")
	}
	sb.WriteString(",P[")
	sb.WriteString(formatNum(v.x))
	sb.WriteString(",")
	sb.WriteString(formatNum(v.y))
	sb.WriteString("]")
	sb.WriteString(",L[")
	sb.WriteString(strings.Join(v.links, ","))
	sb.WriteString("]]")
	return sb.String()
}
