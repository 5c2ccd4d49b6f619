package stream

import "mechlink-go/pkg/joint"

// JointFrame is one joint's solved position at a moment in a sweep.
type JointFrame struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	PinX  *float64 `json:"pin_x,omitempty"`
	PinY  *float64 `json:"pin_y,omitempty"`
}

// Frame is one solved instant of a mechanism, keyed by sweep time (or
// input value) and every joint's current position.
type Frame struct {
	Time   float64      `json:"time"`
	Joints []JointFrame `json:"joints"`
}

// NewFrame builds a Frame from a solved joint set. names must be
// parallel to joints (mechconfig.Mechanism.Names/Joints).
func NewFrame(t float64, names []string, joints []*joint.VPoint) Frame {
	frames := make([]JointFrame, len(joints))
	for i, v := range joints {
		jf := JointFrame{
			Name: names[i],
			Type: v.Type().String(),
			X:    v.C(0).X,
			Y:    v.C(0).Y,
		}
		if v.Type() != joint.R {
			px, py := v.C(1).X, v.C(1).Y
			jf.PinX, jf.PinY = &px, &py
		}
		frames[i] = jf
	}
	return Frame{Time: t, Joints: frames}
}
