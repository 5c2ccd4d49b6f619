package joint

// GroundName is the reserved link name for the inertial frame.
const GroundName = "ground"

// VLink is a rigid body: a name and the ordered set of joint indices
// belonging to it.
type VLink struct {
	Name   string
	Joints []int
}

// NewVLink creates an empty link with the given name.
func NewVLink(name string) *VLink {
	return &VLink{Name: name}
}

// AddJoint appends a joint index to the link, skipping duplicates.
func (l *VLink) AddJoint(idx int) {
	for _, j := range l.Joints {
		if j == idx {
			return
		}
	}
	l.Joints = append(l.Joints, idx)
}

// IsGround reports whether this is the reserved ground link.
func (l *VLink) IsGround() bool { return l.Name == GroundName }

// BuildLinks groups a joint list into VLinks by name, in first-seen
// order, mirroring the triangulation compiler's vlinks preprocessing
// step.
func BuildLinks(vpoints []*VPoint) []*VLink {
	index := make(map[string]*VLink)
	var order []*VLink
	for i, vp := range vpoints {
		for _, name := range vp.Links() {
			l, ok := index[name]
			if !ok {
				l = NewVLink(name)
				index[name] = l
				order = append(order, l)
			}
			l.AddJoint(i)
		}
	}
	return order
}
