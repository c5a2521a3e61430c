package rules

import (
	"fmt"
	"math"
	"strings"
)

// compare applies a comparison operator. Equality is loose (see Equal);
// ordered operators work within numbers (bools reading as 0/1) and within
// strings. Mismatched kinds fail closed with a diagnostic. `in`/`not in`
// require a list or string on the right; any other right operand fails
// closed (`in` false, `not in` true) with a counted diagnostic rather than
// an error, to keep reachability conservative in the face of malformed
// rules.
func (e *Evaluator) compare(ctx Context, op CompareOp, left, right Value) Value {
	switch op {
	case OpEq:
		return Bool(Equal(left, right))
	case OpNe:
		return Bool(!Equal(left, right))
	case OpLe, OpLt, OpGe, OpGt:
		return e.ordered(ctx, op, left, right)
	case OpIn:
		return e.membership(ctx, left, right, false)
	case OpNotIn:
		return e.membership(ctx, left, right, true)
	default:
		e.diag(ctx, DiagMalformedNode, fmt.Sprintf("unknown comparison operator %q", op))
		return Unresolved{Reason: "unknown comparison operator"}
	}
}

func (e *Evaluator) ordered(ctx Context, op CompareOp, left, right Value) Value {
	if ln, lok := asNumber(left); lok {
		if rn, rok := asNumber(right); rok {
			return Bool(orderedHolds(op, compareFloats(ln, rn)))
		}
	}
	if ls, lok := left.(String); lok {
		if rs, rok := right.(String); rok {
			return Bool(orderedHolds(op, strings.Compare(string(ls), string(rs))))
		}
	}
	e.diag(ctx, DiagTypeMismatch, fmt.Sprintf("cannot order %s against %s", left.Kind(), right.Kind()))
	return Bool(false)
}

func orderedHolds(op CompareOp, cmp int) bool {
	switch op {
	case OpLe:
		return cmp <= 0
	case OpLt:
		return cmp < 0
	case OpGe:
		return cmp >= 0
	case OpGt:
		return cmp > 0
	}
	return false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// membership implements `in` and `not in`. negate is true for `not in`.
func (e *Evaluator) membership(ctx Context, left, right Value, negate bool) Value {
	switch container := right.(type) {
	case List:
		found := false
		for _, el := range container {
			if Equal(left, el) {
				found = true
				break
			}
		}
		return Bool(found != negate)
	case String:
		needle, ok := left.(String)
		if !ok {
			e.diag(ctx, DiagNonContainerIn, fmt.Sprintf("membership needle is %s, not string", left.Kind()))
			return Bool(negate)
		}
		found := strings.Contains(string(container), string(needle))
		return Bool(found != negate)
	default:
		// Fail closed: `in` is false, `not in` is true.
		e.diag(ctx, DiagNonContainerIn, fmt.Sprintf("membership container is %s", right.Kind()))
		return Bool(negate)
	}
}

// arith applies an arithmetic operator. Numbers (with bools reading as 0/1)
// combine numerically; `+` on two strings concatenates. Division by zero
// yields an infinity of the dividend's sign, never an error. Anything else
// is a type mismatch and resolves to Unresolved.
func (e *Evaluator) arith(ctx Context, op ArithOp, left, right Value) Value {
	if op == OpAdd {
		if ls, lok := left.(String); lok {
			if rs, rok := right.(String); rok {
				return ls + rs
			}
		}
	}

	ln, lok := asNumber(left)
	rn, rok := asNumber(right)
	if !lok || !rok {
		e.diag(ctx, DiagTypeMismatch, fmt.Sprintf("cannot apply %q to %s and %s", op, left.Kind(), right.Kind()))
		return Unresolvedf("arithmetic on %s and %s", left.Kind(), right.Kind())
	}

	switch op {
	case OpAdd:
		return Number(ln + rn)
	case OpSub:
		return Number(ln - rn)
	case OpMul:
		return Number(ln * rn)
	case OpDiv:
		if rn == 0 {
			e.diag(ctx, DiagDivisionByZero, "division by zero")
			if ln < 0 {
				return Number(math.Inf(-1))
			}
			return Number(math.Inf(1))
		}
		return Number(ln / rn)
	default:
		e.diag(ctx, DiagMalformedNode, fmt.Sprintf("unknown arithmetic operator %q", op))
		return Unresolved{Reason: "unknown arithmetic operator"}
	}
}

// asNumber reads a value numerically: numbers as themselves, bools as 0/1.
func asNumber(v Value) (float64, bool) {
	switch t := v.(type) {
	case Number:
		return float64(t), true
	case Bool:
		return boolToFloat(bool(t)), true
	default:
		return 0, false
	}
}
