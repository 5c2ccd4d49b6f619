package exprlang

import (
	"strings"

	"mechlink-go/pkg/joint"
	"mechlink-go/pkg/mechlerr"
)

// ToVPoint builds a joint.VPoint from a parsed expression, replaying
// the same construction rules joint.RJoint/joint.SliderJoint apply.
func ToVPoint(e *JointExpr) (*joint.VPoint, error) {
	linksCSV := strings.Join(e.Links, ",")

	switch e.Type {
	case "R":
		v := joint.RJoint(linksCSV, e.X, e.Y)
		applyColor(v, e.Color)
		return v, nil
	case "P":
		angle := 0.0
		if e.Angle != nil {
			angle = *e.Angle
		}
		v, err := joint.SliderJoint(linksCSV, joint.P, angle, e.X, e.Y)
		if err != nil {
			return nil, err
		}
		applyColor(v, e.Color)
		return v, nil
	case "RP":
		angle := 0.0
		if e.Angle != nil {
			angle = *e.Angle
		}
		v, err := joint.SliderJoint(linksCSV, joint.RP, angle, e.X, e.Y)
		if err != nil {
			return nil, err
		}
		applyColor(v, e.Color)
		return v, nil
	default:
		return nil, mechlerr.MalformedJointError("unknown joint type " + e.Type)
	}
}

func applyColor(v *joint.VPoint, color *string) {
	if color != nil {
		v.SetColor(*color)
	}
}

// FromString parses and immediately converts a joint expression
// string into a joint.VPoint, the round-trip counterpart to
// joint.VPoint.String().
func FromString(input string) (*joint.VPoint, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	expr, err := p.ParseString(input)
	if err != nil {
		return nil, mechlerr.Wrap(err, mechlerr.MalformedJoint, "invalid joint expression")
	}
	return ToVPoint(expr)
}
