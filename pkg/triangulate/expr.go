// Package triangulate compiles a mechanism plus its driving inputs
// into an ordered stack of closed-form geometric constructions
// (PLA/PLAP/PLLP/PLPP/PXY) that, replayed in order against pkg/geom,
// yield every joint's position.
package triangulate

import (
	"fmt"

	"mechlink-go/pkg/mlog"
)

var log = mlog.New("triangulate")

// Namespace tags a Sym's origin: a real joint point, an allocated
// length, an allocated angle, or a synthetic slider anchor.
type Namespace byte

const (
	NsPoint Namespace = 'P'
	NsLen   Namespace = 'L'
	NsAngle Namespace = 'A'
	NsSlot  Namespace = 'S'
)

// Sym is a symbolic operand: a namespace and an index. Point symbols
// index directly into the mechanism's joint list; Len/Angle/Slot
// symbols are allocated by monotonically increasing counters as the
// stack is built.
type Sym struct {
	NS  Namespace
	Idx int
}

// String renders the symbol as e.g. "P3", "L7", "A2", "S0".
func (s Sym) String() string {
	return fmt.Sprintf("%c%d", s.NS, s.Idx)
}

// Op discriminates the five construction kinds.
type Op int

const (
	// OpPLA places a point at a length and an absolute angle from a
	// single pivot (the driver construction).
	OpPLA Op = iota
	// OpPLAP places a point at a length and angle measured relative
	// to a pivot line.
	OpPLAP
	// OpPLLP triangulates a point from two lengths and two pivots.
	OpPLLP
	// OpPLPP projects a point from a length onto a line through two
	// pivots, with a branch selector.
	OpPLPP
	// OpPXY translates a point by two axial offsets.
	OpPXY
)

// String returns the construction's rendered function name. Per
// spec.md §9's open question, OpPLA renders as "PLAP" — the source
// renderer merges the two, distinguished downstream only by arity.
func (o Op) String() string {
	switch o {
	case OpPLA, OpPLAP:
		return "PLAP"
	case OpPLLP:
		return "PLLP"
	case OpPLPP:
		return "PLPP"
	case OpPXY:
		return "PXY"
	default:
		return "?"
	}
}

// Expr is one construction record: a closed sum type over the five
// operations. Operands holds the operation-specific operand symbols
// in the order documented on each Op constant; Target is the symbol
// this construction solves for; Branch selects one of two geometric
// roots and is meaningful only for OpPLPP.
type Expr struct {
	Op       Op
	Operands []Sym
	Target   Sym
	Branch   bool
}

// ExprTuple is the flattened, string-rendered form of an Expr:
// (funcName, operand..., target).
type ExprTuple []string

// AsTuple renders e as the vocabulary described in spec.md §6.
func (e Expr) AsTuple() ExprTuple {
	tuple := make(ExprTuple, 0, len(e.Operands)+2)
	tuple = append(tuple, e.Op.String())
	for _, s := range e.Operands {
		tuple = append(tuple, s.String())
	}
	tuple = append(tuple, e.Target.String())
	return tuple
}

// EStack is the ordered construction stack produced by TConfig.
type EStack struct {
	exprs      []Expr
	lenCount   int
	angleCount int
	slotCount  int
}

// NewLen allocates a fresh length symbol.
func (s *EStack) NewLen() Sym {
	sym := Sym{NS: NsLen, Idx: s.lenCount}
	s.lenCount++
	return sym
}

// NewAngle allocates a fresh angle symbol.
func (s *EStack) NewAngle() Sym {
	sym := Sym{NS: NsAngle, Idx: s.angleCount}
	s.angleCount++
	return sym
}

// NewSlot allocates a fresh synthetic slider-anchor symbol.
func (s *EStack) NewSlot() Sym {
	sym := Sym{NS: NsSlot, Idx: s.slotCount}
	s.slotCount++
	return sym
}

// PointSym returns the point symbol for the joint at index i.
func (s *EStack) PointSym(i int) Sym {
	return Sym{NS: NsPoint, Idx: i}
}

// Append records a construction as the next step of the stack.
func (s *EStack) Append(e Expr) {
	s.exprs = append(s.exprs, e)
	log.Debug("emit %v", e.AsTuple())
}

// Len returns the number of constructions recorded.
func (s *EStack) Len() int { return len(s.exprs) }

// Expr returns the i-th construction.
func (s *EStack) Expr(i int) Expr { return s.exprs[i] }

// AsList renders every construction as a tuple, in stack order.
func (s *EStack) AsList() []ExprTuple {
	out := make([]ExprTuple, len(s.exprs))
	for i, e := range s.exprs {
		out[i] = e.AsTuple()
	}
	return out
}
