package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check that every variant satisfies Value.
	var _ Value = Bool(true)
	var _ Value = Number(3)
	var _ Value = String("sword")
	var _ Value = List{Bool(false)}
	var _ Value = Unresolved{}
}

func TestValueTruthiness(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"true bool", Bool(true), true},
		{"false bool", Bool(false), false},
		{"nonzero number", Number(2), true},
		{"negative number", Number(-1), true},
		{"zero number", Number(0), false},
		{"nonempty string", String("x"), true},
		{"empty string", String(""), false},
		{"nonempty list", List{Number(0)}, true},
		{"empty list", List{}, false},
		{"unresolved", Unresolved{Reason: "missing"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Truthy())
		})
	}
}

func TestEqualSameKind(t *testing.T) {
	assert.True(t, Equal(Bool(true), Bool(true)))
	assert.False(t, Equal(Bool(true), Bool(false)))
	assert.True(t, Equal(Number(2), Number(2)))
	assert.False(t, Equal(Number(2), Number(3)))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("a"), String("b")))
}

func TestEqualBoolNumberCross(t *testing.T) {
	// Booleans read as 0/1 against numbers, in both directions.
	assert.True(t, Equal(Bool(true), Number(1)))
	assert.True(t, Equal(Number(0), Bool(false)))
	assert.False(t, Equal(Bool(true), Number(2)))
	assert.False(t, Equal(Number(1), Bool(false)))
}

func TestEqualLists(t *testing.T) {
	a := List{Number(1), String("x")}
	b := List{Number(1), String("x")}
	c := List{Number(1), String("y")}
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, List{Number(1)}))
	// Cross-kind equality applies elementwise too.
	assert.True(t, Equal(List{Bool(true)}, List{Number(1)}))
}

func TestEqualUnresolvedNeverEqual(t *testing.T) {
	u := Unresolved{Reason: "x"}
	assert.False(t, Equal(u, u))
	assert.False(t, Equal(u, Unresolved{Reason: "x"}))
	assert.False(t, Equal(u, Bool(false)))
	assert.False(t, Equal(Number(0), u))
}

func TestEqualKindMismatch(t *testing.T) {
	assert.False(t, Equal(String("1"), Number(1)))
	assert.False(t, Equal(List{Number(1)}, Number(1)))
	assert.False(t, Equal(String("true"), Bool(true)))
}

func TestFromAny(t *testing.T) {
	assert.Equal(t, Bool(true), FromAny(true))
	assert.Equal(t, Number(2.5), FromAny(2.5))
	assert.Equal(t, Number(7), FromAny(7))
	assert.Equal(t, Number(7), FromAny(int64(7)))
	assert.Equal(t, String("hi"), FromAny("hi"))
	assert.Equal(t, List{Number(1), String("a")}, FromAny([]any{float64(1), "a"}))

	assert.Equal(t, KindUnresolved, FromAny(nil).Kind())
	assert.Equal(t, KindUnresolved, FromAny(map[string]any{"k": 1}).Kind())
}

func TestToAnyRoundTrip(t *testing.T) {
	vals := []Value{
		Bool(false),
		Number(3),
		String("chest"),
		List{Number(1), List{String("nested")}},
	}
	for _, v := range vals {
		assert.Equal(t, v, FromAny(ToAny(v)))
	}
	// Unresolved flattens to nil on the way out.
	assert.Nil(t, ToAny(Unresolved{Reason: "gone"}))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "true", Describe(Bool(true)))
	assert.Equal(t, "2.5", Describe(Number(2.5)))
	assert.Equal(t, `"key"`, Describe(String("key")))
	assert.Equal(t, `[1, "a"]`, Describe(List{Number(1), String("a")}))
	assert.Equal(t, "unresolved", Describe(Unresolved{}))
	assert.Equal(t, "unresolved(no such name)", Describe(Unresolved{Reason: "no such name"}))
}
