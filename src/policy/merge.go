package policy

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ForcelistKey is the policy that carries force-installed extensions. It is
// derived from the extension list and cannot be set through an override.
const ForcelistKey = "ExtensionInstallForcelist"

// Merge layers override on top of defaults and returns a new model.
//
// Top-level keys of override are resolved in document order:
//
//	"Name": value          replaces a catalogue setting (kind-checked)
//	"group": {...}         members are settings of that group; unknown
//	                       members are passed through into the group
//	"unknown": {...}       an unknown group, passed through verbatim
//	"Unknown": value       passed through into GroupExtra
//	"$schema": ...         metadata, ignored
//
// A null value keeps the catalogue default. Passthrough values keep the
// kind implied by their JSON shape. Any value
// that fails its kind check aborts the whole merge; the returned error joins
// a *SchemaError for every offending key.
func Merge(defaults *Model, override gjson.Result) (*Model, error) {
	out := defaults.clone()
	if !override.Exists() || override.Type == gjson.Null {
		return out, nil
	}
	if !override.IsObject() {
		return nil, &SchemaError{Setting: "(root)", Got: shape(override), Reason: "override must be an object, got " + shape(override)}
	}

	var errs []error
	override.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		switch {
		case strings.HasPrefix(name, "$"):
		case name == ForcelistKey:
			errs = append(errs, &SchemaError{Setting: name, Reason: "force-installed extensions come from the extensions list"})
		default:
			if _, known := out.index[name]; known {
				errs = appendErr(errs, out.assign(name, value))
				return true
			}
			if value.IsObject() {
				errs = append(errs, out.mergeGroup(Group(name), value)...)
				return true
			}
			if out.hasGroup(Group(name)) {
				errs = append(errs, &SchemaError{Setting: name, Got: shape(value), Reason: "group expects an object, got " + shape(value)})
				return true
			}
			errs = appendErr(errs, out.passthrough(GroupExtra, name, value))
		}
		return true
	})

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (m *Model) mergeGroup(g Group, members gjson.Result) []error {
	var errs []error
	members.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == ForcelistKey {
			errs = append(errs, &SchemaError{Setting: name, Reason: "force-installed extensions come from the extensions list"})
			return true
		}
		if i, known := m.index[name]; known {
			if have := m.settings[i].Group; have != g && !m.settings[i].Passthrough {
				errs = append(errs, &SchemaError{Setting: string(g) + "." + name, Reason: fmt.Sprintf("setting belongs to group %q", have)})
				return true
			}
			if !m.settings[i].Passthrough {
				errs = appendErr(errs, m.assign(name, value))
				return true
			}
		}
		errs = appendErr(errs, m.passthrough(g, name, value))
		return true
	})
	return errs
}

func (m *Model) hasGroup(g Group) bool {
	for _, s := range m.settings {
		if s.Group == g {
			return true
		}
	}
	return false
}

// assign replaces the value of a catalogue setting after checking its kind.
func (m *Model) assign(name string, raw gjson.Result) error {
	s := m.settings[m.index[name]]
	if raw.Type == gjson.Null && !s.Passthrough {
		return nil
	}
	if s.Passthrough {
		return m.passthrough(s.Group, name, raw)
	}
	v, err := Coerce(s, raw)
	if err != nil {
		return err
	}
	s.Value = v
	m.put(s)
	return nil
}

func (m *Model) passthrough(g Group, name string, raw gjson.Result) error {
	v, ok := infer(raw)
	if !ok {
		return &SchemaError{Setting: name, Got: shape(raw), Reason: "unsupported value shape " + shape(raw) + " for unknown setting"}
	}
	m.put(Setting{Name: name, Group: g, Value: v, Passthrough: true})
	return nil
}

// Coerce checks raw against the declared kind of s and converts it.
// No cross-kind coercion happens: a string never becomes a boolean.
func Coerce(s Setting, raw gjson.Result) (Value, error) {
	mismatch := &SchemaError{Setting: s.Name, Want: s.Kind(), Got: shape(raw)}
	switch s.Kind() {
	case KindBool:
		if raw.Type != gjson.True && raw.Type != gjson.False {
			return Value{}, mismatch
		}
		return Bool(raw.Bool()), nil
	case KindInt:
		n, ok := integer(raw)
		if !ok {
			return Value{}, mismatch
		}
		return Int(n), nil
	case KindString:
		if raw.Type != gjson.String {
			return Value{}, mismatch
		}
		return String(raw.Str), nil
	case KindStringList:
		list, ok := stringList(raw)
		if !ok {
			return Value{}, mismatch
		}
		return StringList(list...), nil
	case KindEnum:
		if raw.Type != gjson.String {
			return Value{}, mismatch
		}
		if !slices.Contains(s.Allowed, raw.Str) {
			return Value{}, &SchemaError{
				Setting: s.Name,
				Want:    KindEnum,
				Got:     "string",
				Reason:  fmt.Sprintf("value %q is not one of %s", raw.Str, strings.Join(s.Allowed, ", ")),
			}
		}
		return Enum(raw.Str), nil
	default:
		return Value{}, &SchemaError{Setting: s.Name, Reason: "setting has no declared kind"}
	}
}

// infer derives a kind from the JSON shape of a passthrough value.
func infer(raw gjson.Result) (Value, bool) {
	switch raw.Type {
	case gjson.True, gjson.False:
		return Bool(raw.Bool()), true
	case gjson.Number:
		n, ok := integer(raw)
		if !ok {
			return Value{}, false
		}
		return Int(n), true
	case gjson.String:
		return String(raw.Str), true
	case gjson.JSON:
		list, ok := stringList(raw)
		if !ok {
			return Value{}, false
		}
		return StringList(list...), true
	}
	return Value{}, false
}

func integer(raw gjson.Result) (int64, bool) {
	if raw.Type != gjson.Number {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw.Raw, 10, 64); err == nil {
		return n, true
	}
	f := raw.Float()
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func stringList(raw gjson.Result) ([]string, bool) {
	if !raw.IsArray() {
		return nil, false
	}
	list := []string{}
	ok := true
	raw.ForEach(func(_, item gjson.Result) bool {
		if item.Type != gjson.String {
			ok = false
			return false
		}
		list = append(list, item.Str)
		return true
	})
	return list, ok
}

// shape names the JSON type of raw for error messages.
func shape(raw gjson.Result) string {
	switch raw.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	}
	if raw.IsArray() {
		return "array"
	}
	return "object"
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}
