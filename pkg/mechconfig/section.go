package mechconfig

import (
	"strconv"
	"strings"
)

// Section is one [header] block's options (adapted from the teacher's
// pkg/config.Section); option reads are not tracked.
type Section struct {
	name    string
	options map[string]string
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{name: name, options: opts}
}

// Name returns the section header, e.g. "joint crank".
func (s *Section) Name() string { return s.name }

// Get returns a string option, or fallback[0] if absent and provided.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	if v, ok := s.options[strings.ToLower(option)]; ok {
		return v, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return "", errMissingOption(s.name, option)
}

// GetFloat returns a float64 option.
func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	key := strings.ToLower(option)
	if v, ok := s.options[key]; ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errInvalidValue(s.name, option, v, "float")
		}
		return f, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	return 0, errMissingOption(s.name, option)
}

// GetList returns a comma-separated option split into trimmed parts.
func (s *Section) GetList(option string, fallback ...[]string) ([]string, error) {
	key := strings.ToLower(option)
	v, ok := s.options[key]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return nil, errMissingOption(s.name, option)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result, nil
}

// RawOptions returns a copy of the section's option map.
func (s *Section) RawOptions() map[string]string {
	out := make(map[string]string, len(s.options))
	for k, v := range s.options {
		out[k] = v
	}
	return out
}
