package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// rawNode is the superset of fields a serialized rule node may carry. Each
// kind reads only its own fields; unknown extra fields are ignored so that
// annotated rule files stay loadable.
type rawNode struct {
	Type     string            `json:"type"`
	Children []json.RawMessage `json:"children"`
	Child    json.RawMessage   `json:"child"`
	Item     string            `json:"item"`
	Count    *int              `json:"count"`
	Op       string            `json:"op"`
	Left     json.RawMessage   `json:"left"`
	Right    json.RawMessage   `json:"right"`
	Test     json.RawMessage   `json:"test"`
	Then     json.RawMessage   `json:"then"`
	Else     json.RawMessage   `json:"else"`
	Name     string            `json:"name"`
	Args     []json.RawMessage `json:"args"`
	Object   json.RawMessage   `json:"object"`
	Callee   json.RawMessage   `json:"callee"`
	ID       string            `json:"id"`
	Value    json.RawMessage   `json:"value"`
}

// ParseNode decodes one serialized rule node. It never returns an error:
// anything structurally wrong becomes a MalformedNode, which evaluates
// fail-closed, so a single bad node cannot take down a rule set.
func ParseNode(raw json.RawMessage) Node {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &MalformedNode{Reason: "empty rule node"}
	}
	if trimmed[0] != '{' {
		return &MalformedNode{Reason: "rule node must be a JSON object"}
	}

	var rn rawNode
	if err := json.Unmarshal(trimmed, &rn); err != nil {
		return &MalformedNode{Reason: "invalid rule JSON: " + err.Error()}
	}

	switch NodeKind(rn.Type) {
	case KindAnd:
		return &AndNode{Children: parseChildren(rn.Children)}
	case KindOr:
		return &OrNode{Children: parseChildren(rn.Children)}
	case KindNot:
		if len(bytes.TrimSpace(rn.Child)) == 0 {
			return &MalformedNode{Reason: "not node missing child"}
		}
		return &NotNode{Child: ParseNode(rn.Child)}
	case KindItemCheck:
		if rn.Item == "" {
			return &MalformedNode{Reason: "item_check missing item"}
		}
		return &ItemCheckNode{Item: rn.Item}
	case KindCountCheck:
		if rn.Item == "" {
			return &MalformedNode{Reason: "count_check missing item"}
		}
		if rn.Count == nil {
			return &MalformedNode{Reason: "count_check missing count"}
		}
		if *rn.Count < 0 {
			return &MalformedNode{Reason: fmt.Sprintf("count_check count %d is negative", *rn.Count)}
		}
		return &CountCheckNode{Item: rn.Item, Count: *rn.Count}
	case KindComparison:
		op := CompareOp(rn.Op)
		if !ValidCompareOp(op) {
			return &MalformedNode{Reason: fmt.Sprintf("comparison has unknown operator %q", rn.Op)}
		}
		left, ok := parseOperand(rn.Left)
		if !ok {
			return &MalformedNode{Reason: "comparison missing left operand"}
		}
		right, ok := parseOperand(rn.Right)
		if !ok {
			return &MalformedNode{Reason: "comparison missing right operand"}
		}
		return &ComparisonNode{Op: op, Left: left, Right: right}
	case KindBinaryOp:
		op := ArithOp(rn.Op)
		if !ValidArithOp(op) {
			return &MalformedNode{Reason: fmt.Sprintf("binary_op has unknown operator %q", rn.Op)}
		}
		left, ok := parseOperand(rn.Left)
		if !ok {
			return &MalformedNode{Reason: "binary_op missing left operand"}
		}
		right, ok := parseOperand(rn.Right)
		if !ok {
			return &MalformedNode{Reason: "binary_op missing right operand"}
		}
		return &BinaryOpNode{Op: op, Left: left, Right: right}
	case KindConditional:
		test, ok := parseOperand(rn.Test)
		if !ok {
			return &MalformedNode{Reason: "conditional missing test"}
		}
		then, ok := parseOperand(rn.Then)
		if !ok {
			return &MalformedNode{Reason: "conditional missing then branch"}
		}
		cond := &ConditionalNode{Test: test, Then: then}
		// A null or absent else branch stays nil: implicit true.
		if elseBranch, ok := parseOperand(rn.Else); ok {
			cond.Else = elseBranch
		}
		return cond
	case KindHelper:
		if rn.Name == "" {
			return &MalformedNode{Reason: "helper missing name"}
		}
		return &HelperNode{Name: rn.Name, Args: parseArgs(rn.Args)}
	case KindStateMethod:
		if rn.Name == "" {
			return &MalformedNode{Reason: "state_method missing name"}
		}
		return &StateMethodNode{Name: rn.Name, Args: parseArgs(rn.Args)}
	case KindAttribute:
		if rn.Name == "" {
			return &MalformedNode{Reason: "attribute missing name"}
		}
		obj, ok := parseOperand(rn.Object)
		if !ok {
			return &MalformedNode{Reason: "attribute missing object"}
		}
		return &AttributeNode{Object: obj, Name: rn.Name}
	case KindFunctionCall:
		callee, ok := parseOperand(rn.Callee)
		if !ok {
			return &MalformedNode{Reason: "function_call missing callee"}
		}
		return &FunctionCallNode{Callee: callee, Args: parseArgs(rn.Args)}
	case KindName:
		if rn.ID == "" {
			return &MalformedNode{Reason: "name node missing id"}
		}
		return &NameNode{ID: rn.ID}
	case KindLiteral:
		return parseLiteral(rn.Value)
	default:
		return &MalformedNode{Reason: fmt.Sprintf("unknown node type %q", rn.Type)}
	}
}

func parseChildren(raws []json.RawMessage) []Node {
	out := make([]Node, 0, len(raws))
	for _, raw := range raws {
		out = append(out, ParseNode(raw))
	}
	return out
}

// parseOperand parses a sub-expression position. Scalars are accepted as
// literal shorthand, so `"right": 3` means the same as a literal node.
// The second return is false when the position is absent or null.
func parseOperand(raw json.RawMessage) (Node, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	if trimmed[0] == '{' {
		return ParseNode(trimmed), true
	}
	return parseLiteral(trimmed), true
}

// parseArgs parses helper/call argument lists with the same scalar shorthand
// as parseOperand. A null argument is preserved as a malformed position so
// the arity stays visible to the callee.
func parseArgs(raws []json.RawMessage) []Node {
	out := make([]Node, 0, len(raws))
	for _, raw := range raws {
		arg, ok := parseOperand(raw)
		if !ok {
			arg = &MalformedNode{Reason: "null argument"}
		}
		out = append(out, arg)
	}
	return out
}

func parseLiteral(raw json.RawMessage) Node {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &MalformedNode{Reason: "literal missing value"}
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return &MalformedNode{Reason: "invalid literal JSON: " + err.Error()}
	}
	if _, isObject := v.(map[string]any); isObject {
		return &MalformedNode{Reason: "object literals are not supported"}
	}
	val := FromAny(v)
	if _, bad := val.(Unresolved); bad {
		return &MalformedNode{Reason: "unsupported literal value"}
	}
	return &LiteralNode{Value: val}
}
