package mechconfig

import (
	"fmt"
	"sort"
	"strings"

	"mechlink-go/pkg/exprlang"
	"mechlink-go/pkg/joint"
	"mechlink-go/pkg/mechlerr"
	"mechlink-go/pkg/solver"
	"mechlink-go/pkg/triangulate"
)

// Mechanism is a mechanism file's parsed joint list plus the driven
// values named in its [input] section, in file order. Joint names
// only exist at this layer — joint.VPoint itself carries no name, so
// [input] entries are resolved to indices here.
type Mechanism struct {
	Names   []string
	Joints  []*joint.VPoint
	nameIdx map[string]int
	inputs  map[int]float64
}

// LoadMechanism reads a mechanism file: one [joint <name>] section per
// kinematic pair, and an optional [input] section naming driven joints
// by name.
func LoadMechanism(path string) (*Mechanism, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return buildMechanism(cfg)
}

// LoadMechanismString is LoadMechanism over an in-memory file body.
func LoadMechanismString(data string) (*Mechanism, error) {
	cfg, err := LoadString(data)
	if err != nil {
		return nil, err
	}
	return buildMechanism(cfg)
}

func buildMechanism(cfg *Config) (*Mechanism, error) {
	sections := cfg.GetPrefixSections("joint ")
	m := &Mechanism{
		nameIdx: make(map[string]int, len(sections)),
		inputs:  make(map[int]float64),
	}

	for _, sec := range sections {
		name := strings.TrimSpace(strings.TrimPrefix(sec.Name(), "joint "))
		if name == "" {
			return nil, mechlerr.MalformedJointError("joint section has no name: [" + sec.Name() + "]")
		}
		v, err := jointFromSection(sec)
		if err != nil {
			return nil, err
		}
		m.nameIdx[name] = len(m.Joints)
		m.Names = append(m.Names, name)
		m.Joints = append(m.Joints, v)
	}

	if in := cfg.GetSectionOptional("input"); in != nil {
		for name, raw := range in.RawOptions() {
			idx, ok := m.nameIdx[name]
			if !ok {
				return nil, mechlerr.MalformedJointError("input names unknown joint " + name)
			}
			val, err := parseFloatOption("input", name, raw)
			if err != nil {
				return nil, err
			}
			m.inputs[idx] = val
		}
	}

	return m, nil
}

// jointFromSection builds a joint from its section body. A section may
// give either the explicit type/x/y/links fields, or a single "expr"
// option holding the compact J[type,...] form (pkg/exprlang), the same
// grammar (*joint.VPoint).String() writes.
func jointFromSection(sec *Section) (*joint.VPoint, error) {
	if expr, err := sec.Get("expr", ""); err == nil && expr != "" {
		return exprlang.FromString(expr)
	}

	typStr, err := sec.Get("type")
	if err != nil {
		return nil, err
	}
	x, err := sec.GetFloat("x")
	if err != nil {
		return nil, err
	}
	y, err := sec.GetFloat("y")
	if err != nil {
		return nil, err
	}
	links, err := sec.GetList("links", nil)
	if err != nil {
		return nil, err
	}
	linksCSV := strings.Join(links, ",")

	var v *joint.VPoint
	switch strings.ToUpper(typStr) {
	case "R":
		v = joint.RJoint(linksCSV, x, y)
	case "P", "RP":
		typ := joint.P
		if strings.ToUpper(typStr) == "RP" {
			typ = joint.RP
		}
		angle, err := sec.GetFloat("angle", 0)
		if err != nil {
			return nil, err
		}
		v, err = joint.SliderJoint(linksCSV, typ, angle, x, y)
		if err != nil {
			return nil, err
		}
	default:
		return nil, mechlerr.New(mechlerr.MalformedJoint, fmt.Sprintf("unknown joint type %q", typStr)).
			WithContext("section", sec.Name())
	}

	if offset, err := sec.GetFloat("offset", 0); err == nil && offset != 0 {
		v.SetOffset(offset)
	}
	if color, err := sec.Get("color", ""); err == nil && color != "" {
		v.SetColor(color)
	}
	return v, nil
}

func parseFloatOption(section, option, raw string) (float64, error) {
	tmp := newSection(section, map[string]string{option: raw})
	return tmp.GetFloat(option)
}

// Index returns a joint's position in Joints by its config name.
func (m *Mechanism) Index(name string) (int, bool) {
	idx, ok := m.nameIdx[name]
	return idx, ok
}

func (m *Mechanism) sortedInputIndices() []int {
	idxs := make([]int, 0, len(m.inputs))
	for idx := range m.inputs {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	return idxs
}

// TriangulateDrivers converts the [input] section into the driver
// list TConfig expects, in ascending joint-index order so repeated
// calls over the same file produce an identical slice.
func (m *Mechanism) TriangulateDrivers() []triangulate.Driver {
	idxs := m.sortedInputIndices()
	drivers := make([]triangulate.Driver, 0, len(idxs))
	for _, idx := range idxs {
		drivers = append(drivers, triangulate.Driver{JointIdx: idx, Value: m.inputs[idx]})
	}
	return drivers
}

// SolverDrivers converts the [input] section into the driver list
// NewSystem expects, in the same ascending joint-index order as
// TriangulateDrivers.
func (m *Mechanism) SolverDrivers() []solver.Driver {
	idxs := m.sortedInputIndices()
	drivers := make([]solver.Driver, 0, len(idxs))
	for _, idx := range idxs {
		drivers = append(drivers, solver.Driver{JointIdx: idx, Value: m.inputs[idx]})
	}
	return drivers
}
