package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) Node {
	t.Helper()
	return ParseNode(json.RawMessage(src))
}

func TestParseItemCheck(t *testing.T) {
	n := parse(t, `{"type": "item_check", "item": "Hookshot"}`)
	ic, ok := n.(*ItemCheckNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, "Hookshot", ic.Item)
}

func TestParseCountCheck(t *testing.T) {
	n := parse(t, `{"type": "count_check", "item": "Rupee", "count": 50}`)
	cc, ok := n.(*CountCheckNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, "Rupee", cc.Item)
	assert.Equal(t, 50, cc.Count)
}

func TestParseCountCheckZeroIsValid(t *testing.T) {
	// count: 0 is an always-true requirement, not a missing field.
	n := parse(t, `{"type": "count_check", "item": "Rupee", "count": 0}`)
	cc, ok := n.(*CountCheckNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, 0, cc.Count)
}

func TestParseAndOrChildren(t *testing.T) {
	n := parse(t, `{
		"type": "and",
		"children": [
			{"type": "item_check", "item": "Bow"},
			{"type": "or", "children": [
				{"type": "item_check", "item": "Lamp"},
				{"type": "item_check", "item": "Fire Rod"}
			]}
		]
	}`)
	and, ok := n.(*AndNode)
	require.True(t, ok, "got %T", n)
	require.Len(t, and.Children, 2)
	or, ok := and.Children[1].(*OrNode)
	require.True(t, ok)
	assert.Len(t, or.Children, 2)
}

func TestParseEmptyConjunctions(t *testing.T) {
	and := parse(t, `{"type": "and"}`)
	require.IsType(t, &AndNode{}, and)
	assert.Empty(t, and.(*AndNode).Children)

	or := parse(t, `{"type": "or", "children": []}`)
	require.IsType(t, &OrNode{}, or)
	assert.Empty(t, or.(*OrNode).Children)
}

func TestParseNot(t *testing.T) {
	n := parse(t, `{"type": "not", "child": {"type": "item_check", "item": "Curse"}}`)
	not, ok := n.(*NotNode)
	require.True(t, ok, "got %T", n)
	assert.IsType(t, &ItemCheckNode{}, not.Child)
}

func TestParseComparisonWithScalarShorthand(t *testing.T) {
	// Bare scalars in operand positions read as literals.
	n := parse(t, `{
		"type": "comparison", "op": ">=",
		"left": {"type": "attribute", "object": {"type": "name", "id": "inventory"}, "name": "Heart Container"},
		"right": 13
	}`)
	cmp, ok := n.(*ComparisonNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, OpGe, cmp.Op)
	lit, ok := cmp.Right.(*LiteralNode)
	require.True(t, ok)
	assert.Equal(t, Number(13), lit.Value)
}

func TestParseComparisonOperators(t *testing.T) {
	for _, op := range []string{"==", "!=", "<=", "<", ">=", ">", "in", "not in"} {
		n := parse(t, `{"type": "comparison", "op": "`+op+`", "left": 1, "right": 2}`)
		cmp, ok := n.(*ComparisonNode)
		require.True(t, ok, "op %q got %T", op, n)
		assert.Equal(t, CompareOp(op), cmp.Op)
	}
}

func TestParseBinaryOp(t *testing.T) {
	n := parse(t, `{"type": "binary_op", "op": "+", "left": 1, "right": 2}`)
	bin, ok := n.(*BinaryOpNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, OpAdd, bin.Op)
}

func TestParseConditionalWithoutElse(t *testing.T) {
	n := parse(t, `{
		"type": "conditional",
		"test": {"type": "name", "id": "glitched_logic"},
		"then": {"type": "item_check", "item": "Pegasus Boots"}
	}`)
	cond, ok := n.(*ConditionalNode)
	require.True(t, ok, "got %T", n)
	assert.Nil(t, cond.Else)
}

func TestParseConditionalNullElseStaysNil(t *testing.T) {
	n := parse(t, `{
		"type": "conditional",
		"test": true,
		"then": {"type": "item_check", "item": "Flute"},
		"else": null
	}`)
	cond, ok := n.(*ConditionalNode)
	require.True(t, ok, "got %T", n)
	assert.Nil(t, cond.Else)
}

func TestParseHelperArgs(t *testing.T) {
	n := parse(t, `{"type": "helper", "name": "can_melt_ice", "args": ["Ice Palace", 2]}`)
	h, ok := n.(*HelperNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, "can_melt_ice", h.Name)
	require.Len(t, h.Args, 2)
	assert.Equal(t, Number(2), h.Args[1].(*LiteralNode).Value)
}

func TestParseHelperNullArgPreserved(t *testing.T) {
	// A null argument keeps its position so arity stays visible.
	n := parse(t, `{"type": "helper", "name": "h", "args": ["a", null, "c"]}`)
	h := n.(*HelperNode)
	require.Len(t, h.Args, 3)
	assert.IsType(t, &MalformedNode{}, h.Args[1])
}

func TestParseStateMethod(t *testing.T) {
	n := parse(t, `{"type": "state_method", "name": "can_reach", "args": ["Dark World"]}`)
	sm, ok := n.(*StateMethodNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, "can_reach", sm.Name)
	assert.Len(t, sm.Args, 1)
}

func TestParseAttribute(t *testing.T) {
	n := parse(t, `{"type": "attribute", "object": {"type": "name", "id": "settings"}, "name": "shuffle_mode"}`)
	attr, ok := n.(*AttributeNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, "shuffle_mode", attr.Name)
	assert.Equal(t, "settings", attr.Object.(*NameNode).ID)
}

func TestParseFunctionCall(t *testing.T) {
	n := parse(t, `{"type": "function_call", "callee": {"type": "name", "id": "has_sword"}, "args": []}`)
	fc, ok := n.(*FunctionCallNode)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, "has_sword", fc.Callee.(*NameNode).ID)
	assert.Empty(t, fc.Args)
}

func TestParseLiterals(t *testing.T) {
	assert.Equal(t, Bool(true), parse(t, `{"type": "literal", "value": true}`).(*LiteralNode).Value)
	assert.Equal(t, Number(4.5), parse(t, `{"type": "literal", "value": 4.5}`).(*LiteralNode).Value)
	assert.Equal(t, String("open"), parse(t, `{"type": "literal", "value": "open"}`).(*LiteralNode).Value)
	assert.Equal(t,
		List{String("a"), Number(1)},
		parse(t, `{"type": "literal", "value": ["a", 1]}`).(*LiteralNode).Value)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty input", ``},
		{"null input", `null`},
		{"non-object", `[1, 2]`},
		{"bad json", `{"type": "and",`},
		{"unknown type", `{"type": "teleport"}`},
		{"missing type", `{"item": "Bow"}`},
		{"item_check without item", `{"type": "item_check"}`},
		{"count_check without count", `{"type": "count_check", "item": "Bomb"}`},
		{"count_check negative", `{"type": "count_check", "item": "Bomb", "count": -1}`},
		{"comparison bad op", `{"type": "comparison", "op": "~=", "left": 1, "right": 2}`},
		{"comparison missing right", `{"type": "comparison", "op": "==", "left": 1}`},
		{"binary_op bad op", `{"type": "binary_op", "op": "%", "left": 1, "right": 2}`},
		{"conditional missing then", `{"type": "conditional", "test": true}`},
		{"helper without name", `{"type": "helper"}`},
		{"state_method without name", `{"type": "state_method"}`},
		{"attribute without object", `{"type": "attribute", "name": "x"}`},
		{"function_call without callee", `{"type": "function_call"}`},
		{"name without id", `{"type": "name"}`},
		{"literal without value", `{"type": "literal"}`},
		{"object literal", `{"type": "literal", "value": {"k": 1}}`},
		{"not without child", `{"type": "not"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ParseNode(json.RawMessage(tt.src))
			mal, ok := n.(*MalformedNode)
			require.True(t, ok, "got %T", n)
			assert.NotEmpty(t, mal.Reason)
		})
	}
}

func TestParseMalformedChildIsolated(t *testing.T) {
	// One bad child never poisons its siblings.
	n := parse(t, `{
		"type": "and",
		"children": [
			{"type": "item_check", "item": "Bow"},
			{"type": "warp"},
			{"type": "item_check", "item": "Lamp"}
		]
	}`)
	and := n.(*AndNode)
	require.Len(t, and.Children, 3)
	assert.IsType(t, &ItemCheckNode{}, and.Children[0])
	assert.IsType(t, &MalformedNode{}, and.Children[1])
	assert.IsType(t, &ItemCheckNode{}, and.Children[2])
}

func TestParseIgnoresUnknownFields(t *testing.T) {
	// Annotated rule files carry extra keys; they parse cleanly.
	n := parse(t, `{"type": "item_check", "item": "Bow", "comment": "shooting gallery"}`)
	assert.IsType(t, &ItemCheckNode{}, n)
}
