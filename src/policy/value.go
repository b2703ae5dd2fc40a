package policy

import (
	"fmt"
	"slices"
)

// Kind is the declared type of a setting. Every platform renderer switches
// on Kind exhaustively. The zero value is invalid.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindString
	KindStringList
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindString:
		return "string"
	case KindStringList:
		return "string-list"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a kind-tagged setting value. Construct it with Bool, Int,
// String, StringList or Enum.
type Value struct {
	kind Kind
	b    bool
	i    int64
	s    string
	list []string
}

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// String returns a free-form string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Enum returns a value constrained to a setting's allowed set.
func Enum(v string) Value { return Value{kind: KindEnum, s: v} }

// StringList returns a list value. The slice is copied.
func StringList(v ...string) Value {
	list := make([]string, len(v))
	copy(list, v)
	return Value{kind: KindStringList, list: list}
}

// Kind reports the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Str returns the string payload of string and enum values.
func (v Value) Str() string { return v.s }

// List returns a copy of the list payload.
func (v Value) List() []string {
	out := make([]string, len(v.list))
	copy(out, v.list)
	return out
}

// Interface returns the payload as a plain Go value suitable for JSON
// encoding: bool, int64, string or []string. Invalid values return nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindString, KindEnum:
		return v.s
	case KindStringList:
		return v.List()
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindString, KindEnum:
		return v.s == o.s
	case KindStringList:
		return slices.Equal(v.list, o.list)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindString, KindEnum:
		return fmt.Sprintf("%q", v.s)
	case KindStringList:
		return fmt.Sprintf("%q", v.list)
	default:
		return "<invalid>"
	}
}
