// Package policy holds the platform-neutral policy model: kind-tagged
// settings kept in a fixed order, the compiled-in default catalogue, and
// the merge that layers a user override on top of it.
//
// A Model is never mutated once built. Merge and the With* helpers return
// new models, so a single default catalogue can feed any number of renders.
package policy

import (
	"fmt"
	"slices"
)

// Group partitions settings into logical families.
type Group string

const (
	GroupFeatures    Group = "features"
	GroupTelemetry   Group = "telemetry"
	GroupPermissions Group = "permissions"
	GroupSync        Group = "sync"

	// GroupExtra holds flat passthrough keys that are not part of the
	// default catalogue.
	GroupExtra Group = "extra"
)

// Setting is one named configuration leaf.
type Setting struct {
	Name  string
	Group Group
	Value Value

	// Allowed lists the known values of an enum setting.
	Allowed []string

	// Since is the first browser version (semver) that honours the setting.
	// Empty means always supported.
	Since string

	// Passthrough marks settings that came from an override but are not in
	// the default catalogue. Their kind was inferred from the input.
	Passthrough bool
}

// Kind returns the declared kind of the setting.
func (s Setting) Kind() Kind { return s.Value.Kind() }

func (s Setting) clone() Setting {
	s.Allowed = slices.Clone(s.Allowed)
	return s
}

// Model is an ordered set of settings keyed by name.
type Model struct {
	settings []Setting
	index    map[string]int
}

// NewModel builds a model from settings in the given order.
// Duplicate or empty names are an error.
func NewModel(settings ...Setting) (*Model, error) {
	m := &Model{index: make(map[string]int, len(settings))}
	for _, s := range settings {
		if s.Name == "" {
			return nil, fmt.Errorf("policy: setting with empty name")
		}
		if _, exists := m.index[s.Name]; exists {
			return nil, fmt.Errorf("policy: duplicate setting %q", s.Name)
		}
		m.put(s.clone())
	}
	return m, nil
}

// MustModel is NewModel for static catalogues.
func MustModel(settings ...Setting) *Model {
	m, err := NewModel(settings...)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the number of settings.
func (m *Model) Len() int { return len(m.settings) }

// Get looks up a setting by name.
func (m *Model) Get(name string) (Setting, bool) {
	i, ok := m.index[name]
	if !ok {
		return Setting{}, false
	}
	return m.settings[i].clone(), true
}

// Settings returns all settings in model order.
func (m *Model) Settings() []Setting {
	out := make([]Setting, len(m.settings))
	for i, s := range m.settings {
		out[i] = s.clone()
	}
	return out
}

// Names returns setting names in model order.
func (m *Model) Names() []string {
	out := make([]string, len(m.settings))
	for i, s := range m.settings {
		out[i] = s.Name
	}
	return out
}

// Groups returns group names in order of first appearance.
func (m *Model) Groups() []Group {
	var out []Group
	seen := map[Group]bool{}
	for _, s := range m.settings {
		if !seen[s.Group] {
			seen[s.Group] = true
			out = append(out, s.Group)
		}
	}
	return out
}

// InGroup returns the settings of one group in model order.
func (m *Model) InGroup(g Group) []Setting {
	var out []Setting
	for _, s := range m.settings {
		if s.Group == g {
			out = append(out, s.clone())
		}
	}
	return out
}

// With returns a copy of m with s replacing the setting of the same name,
// or appended when the name is new.
func (m *Model) With(s Setting) *Model {
	out := m.clone()
	out.put(s.clone())
	return out
}

// Equal reports whether both models hold the same settings in the same order.
func (m *Model) Equal(o *Model) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, s := range m.settings {
		t := o.settings[i]
		if s.Name != t.Name || s.Group != t.Group || s.Since != t.Since || s.Passthrough != t.Passthrough {
			return false
		}
		if !s.Value.Equal(t.Value) || !slices.Equal(s.Allowed, t.Allowed) {
			return false
		}
	}
	return true
}

func (m *Model) clone() *Model {
	out := &Model{
		settings: make([]Setting, len(m.settings)),
		index:    make(map[string]int, len(m.settings)),
	}
	for i, s := range m.settings {
		out.settings[i] = s.clone()
		out.index[s.Name] = i
	}
	return out
}

// put replaces in place or appends. Callers own m.
func (m *Model) put(s Setting) {
	if i, ok := m.index[s.Name]; ok {
		m.settings[i] = s
		return
	}
	m.index[s.Name] = len(m.settings)
	m.settings = append(m.settings, s)
}
