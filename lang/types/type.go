// Package types defines the type checker's value taxonomy: the seven
// concrete/wildcard types rack programs are checked against, and the
// type-annotation records ([...] syntax) that functions declare their
// signatures with.
package types

import "strings"

// Type is one of the type checker's value kinds.
type Type int8

const (
	Int Type = iota
	Ptr
	Str
	Char
	Float
	Void
	Any
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Ptr:
		return "ptr"
	case Str:
		return "str"
	case Char:
		return "char"
	case Float:
		return "float"
	case Void:
		return "void"
	case Any:
		return "any"
	default:
		return "<invalid type>"
	}
}

// Parse resolves a single type name (no "|") to a Type.
func Parse(name string) (Type, bool) {
	switch name {
	case "int":
		return Int, true
	case "ptr":
		return Ptr, true
	case "str":
		return Str, true
	case "char":
		return Char, true
	case "float":
		return Float, true
	case "void":
		return Void, true
	case "any":
		return Any, true
	default:
		return 0, false
	}
}

// Set is the union of types allowed for one stack slot, as written
// `t1|t2|...` in an annotation.
type Set []Type

// ParseSet parses a "|"-separated union of type names.
func ParseSet(value string) (Set, error) {
	parts := strings.Split(value, "|")
	set := make(Set, 0, len(parts))
	for _, p := range parts {
		t, ok := Parse(strings.TrimSpace(p))
		if !ok {
			return nil, &UnknownTypeError{Name: p}
		}
		set = append(set, t)
	}
	return set, nil
}

// Contains reports whether t satisfies this set: either t is Any, the set
// contains Any, or the set literally contains t.
func (s Set) Contains(t Type) bool {
	if t == Any {
		return true
	}
	for _, member := range s {
		if member == Any || member == t {
			return true
		}
	}
	return false
}

// Collapse returns the single Type this set stands for on the value stack:
// its only member if it has exactly one, Any otherwise.
func (s Set) Collapse() Type {
	if len(s) == 1 {
		return s[0]
	}
	return Any
}

func (s Set) String() string {
	names := make([]string, len(s))
	for i, t := range s {
		names[i] = t.String()
	}
	return strings.Join(names, "|")
}

// UnknownTypeError reports a type name outside of the closed taxonomy.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return "unknown type `" + strings.TrimSpace(e.Name) + "`: types can only be `int`, `ptr`, `str`, `char`, `float`, `void` or `any`, optionally combined with `|`"
}

// Annotation is a parsed `[...]` type annotation: one Set per stack slot
// for the arguments and for the returns, plus the `!` ignore-return flag.
type Annotation struct {
	Args         []Set
	Returns      []Set
	IgnoreReturn bool
}

// IsVoid reports whether the annotation declares a single `void` return.
func (a *Annotation) IsVoid() bool {
	return len(a.Returns) == 1 && len(a.Returns[0]) == 1 && a.Returns[0][0] == Void
}
