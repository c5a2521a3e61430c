package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a sealed interface over the types a rule expression can produce.
// Only Bool, Number, String, List, and Unresolved implement it.
//
// Unresolved replaces the source notion of "undefined": it is an explicit
// variant, always falsy, and never equal to any value including itself.
type Value interface {
	value() // sealed

	// Kind reports which variant this value is.
	Kind() ValueKind
	// Truthy reports how the value reads in a boolean position.
	Truthy() bool
}

// ValueKind identifies a Value variant.
type ValueKind string

const (
	KindBool       ValueKind = "bool"
	KindNumber     ValueKind = "number"
	KindString     ValueKind = "string"
	KindList       ValueKind = "list"
	KindUnresolved ValueKind = "unresolved"
)

// Bool is a boolean rule value.
type Bool bool

func (Bool) value()          {}
func (Bool) Kind() ValueKind { return KindBool }

// Truthy returns the boolean itself.
func (b Bool) Truthy() bool { return bool(b) }

// Number is a numeric rule value. Rule arithmetic is defined over float64 so
// that division by zero can yield an infinity instead of an error.
type Number float64

func (Number) value()          {}
func (Number) Kind() ValueKind { return KindNumber }

// Truthy reports whether the number is non-zero.
func (n Number) Truthy() bool { return float64(n) != 0 }

// String is a string rule value.
type String string

func (String) value()          {}
func (String) Kind() ValueKind { return KindString }

// Truthy reports whether the string is non-empty.
func (s String) Truthy() bool { return len(s) > 0 }

// List is an ordered sequence of rule values.
type List []Value

func (List) value()          {}
func (List) Kind() ValueKind { return KindList }

// Truthy reports whether the list is non-empty.
func (l List) Truthy() bool { return len(l) > 0 }

// NewList builds a List from values.
func NewList(vals ...Value) List { return List(vals) }

// Unresolved marks a value the evaluator could not produce, such as a name
// that resolved nowhere or a malformed node. It is falsy everywhere and
// compares unequal to everything, so it propagates as "requirement not met".
type Unresolved struct {
	// Reason is a short human-readable note for logs; it does not affect
	// evaluation.
	Reason string
}

func (Unresolved) value()          {}
func (Unresolved) Kind() ValueKind { return KindUnresolved }
func (Unresolved) Truthy() bool    { return false }

// Unresolvedf builds an Unresolved with a formatted reason.
func Unresolvedf(format string, args ...any) Unresolved {
	return Unresolved{Reason: fmt.Sprintf(format, args...)}
}

// FromAny converts a JSON-decoded scalar into a Value. Objects and other
// unsupported shapes become Unresolved; the rule model has no object variant.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Unresolved{Reason: "null literal"}
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case int:
		return Number(t)
	case int64:
		return Number(t)
	case string:
		return String(t)
	case []any:
		out := make(List, 0, len(t))
		for _, el := range t {
			out = append(out, FromAny(el))
		}
		return out
	default:
		return Unresolvedf("unsupported literal type %T", v)
	}
}

// ToAny converts a Value back to a plain JSON-encodable form. Unresolved
// becomes nil.
func ToAny(v Value) any {
	switch t := v.(type) {
	case Bool:
		return bool(t)
	case Number:
		return float64(t)
	case String:
		return string(t)
	case List:
		out := make([]any, 0, len(t))
		for _, el := range t {
			out = append(out, ToAny(el))
		}
		return out
	default:
		return nil
	}
}

// Equal reports loose equality between two values: same-kind deep equality,
// plus Bool/Number cross-comparison through their numeric reading. Unresolved
// is never equal to anything.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Bool:
		switch bv := b.(type) {
		case Bool:
			return av == bv
		case Number:
			return boolToFloat(bool(av)) == float64(bv)
		}
	case Number:
		switch bv := b.(type) {
		case Number:
			return av == bv
		case Bool:
			return float64(av) == boolToFloat(bool(bv))
		}
	case String:
		if bv, ok := b.(String); ok {
			return av == bv
		}
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Describe renders a value for logs and diagnostics.
func Describe(v Value) string {
	switch t := v.(type) {
	case Bool:
		return strconv.FormatBool(bool(t))
	case Number:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	case String:
		return strconv.Quote(string(t))
	case List:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			parts = append(parts, Describe(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Unresolved:
		if t.Reason == "" {
			return "unresolved"
		}
		return "unresolved(" + t.Reason + ")"
	default:
		return fmt.Sprintf("%v", v)
	}
}
