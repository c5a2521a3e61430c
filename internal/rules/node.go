package rules

// NodeKind identifies a rule AST node variant. The values match the "type"
// field of the serialized rule format.
type NodeKind string

const (
	KindAnd          NodeKind = "and"
	KindOr           NodeKind = "or"
	KindNot          NodeKind = "not"
	KindItemCheck    NodeKind = "item_check"
	KindCountCheck   NodeKind = "count_check"
	KindComparison   NodeKind = "comparison"
	KindBinaryOp     NodeKind = "binary_op"
	KindConditional  NodeKind = "conditional"
	KindHelper       NodeKind = "helper"
	KindStateMethod  NodeKind = "state_method"
	KindAttribute    NodeKind = "attribute"
	KindFunctionCall NodeKind = "function_call"
	KindName         NodeKind = "name"
	KindLiteral      NodeKind = "literal"

	// KindMalformed never appears on the wire; it is the parse-time
	// representation of a node the parser could not understand. Evaluating
	// it fails closed with a diagnostic.
	KindMalformed NodeKind = "malformed"
)

// Node is the sealed interface over rule AST nodes. The set of variants is
// closed: every consumer switches exhaustively, and anything outside the set
// is represented as MalformedNode at parse time rather than leaking through
// as an unknown shape.
type Node interface {
	node() // sealed

	// NodeKind reports which variant this node is.
	NodeKind() NodeKind
}

// CompareOp is a comparison operator.
type CompareOp string

const (
	OpEq    CompareOp = "=="
	OpNe    CompareOp = "!="
	OpLe    CompareOp = "<="
	OpLt    CompareOp = "<"
	OpGe    CompareOp = ">="
	OpGt    CompareOp = ">"
	OpIn    CompareOp = "in"
	OpNotIn CompareOp = "not in"
)

// ValidCompareOp reports whether op is one of the supported comparison
// operators.
func ValidCompareOp(op CompareOp) bool {
	switch op {
	case OpEq, OpNe, OpLe, OpLt, OpGe, OpGt, OpIn, OpNotIn:
		return true
	}
	return false
}

// ArithOp is an arithmetic operator.
type ArithOp string

const (
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
)

// ValidArithOp reports whether op is one of the supported arithmetic
// operators.
func ValidArithOp(op ArithOp) bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// AndNode evaluates children left to right and is false on the first falsy
// child. An empty AndNode is true.
type AndNode struct {
	Children []Node
}

func (*AndNode) node()              {}
func (*AndNode) NodeKind() NodeKind { return KindAnd }

// OrNode evaluates children left to right and is true on the first truthy
// child. An empty OrNode is false.
type OrNode struct {
	Children []Node
}

func (*OrNode) node()              {}
func (*OrNode) NodeKind() NodeKind { return KindOr }

// NotNode negates the truthiness of its child.
type NotNode struct {
	Child Node
}

func (*NotNode) node()              {}
func (*NotNode) NodeKind() NodeKind { return KindNot }

// ItemCheckNode tests presence of at least one of an item, with progressive
// tier translation applied by the inventory.
type ItemCheckNode struct {
	Item string
}

func (*ItemCheckNode) node()              {}
func (*ItemCheckNode) NodeKind() NodeKind { return KindItemCheck }

// CountCheckNode tests an inventory count threshold.
type CountCheckNode struct {
	Item  string
	Count int
}

func (*CountCheckNode) node()              {}
func (*CountCheckNode) NodeKind() NodeKind { return KindCountCheck }

// ComparisonNode compares two sub-expressions.
type ComparisonNode struct {
	Op    CompareOp
	Left  Node
	Right Node
}

func (*ComparisonNode) node()              {}
func (*ComparisonNode) NodeKind() NodeKind { return KindComparison }

// BinaryOpNode combines two sub-expressions arithmetically.
type BinaryOpNode struct {
	Op    ArithOp
	Left  Node
	Right Node
}

func (*BinaryOpNode) node()              {}
func (*BinaryOpNode) NodeKind() NodeKind { return KindBinaryOp }

// ConditionalNode is a ternary. A nil Else branch is an implicit true: the
// conditional imposes no additional requirement when the test fails.
type ConditionalNode struct {
	Test Node
	Then Node
	Else Node
}

func (*ConditionalNode) node()              {}
func (*ConditionalNode) NodeKind() NodeKind { return KindConditional }

// HelperNode dispatches by name into the injected predicate table.
type HelperNode struct {
	Name string
	Args []Node
}

func (*HelperNode) node()              {}
func (*HelperNode) NodeKind() NodeKind { return KindHelper }

// StateMethodNode calls a named method on the evaluation context.
type StateMethodNode struct {
	Name string
	Args []Node
}

func (*StateMethodNode) node()              {}
func (*StateMethodNode) NodeKind() NodeKind { return KindStateMethod }

// AttributeNode reads an attribute from the restricted context object model.
// Only the "settings" and "inventory" namespaces resolve.
type AttributeNode struct {
	Object Node
	Name   string
}

func (*AttributeNode) node()              {}
func (*AttributeNode) NodeKind() NodeKind { return KindAttribute }

// FunctionCallNode calls a late-bound callee with arguments. A name callee
// dispatches like a helper; anything else is unresolved.
type FunctionCallNode struct {
	Callee Node
	Args   []Node
}

func (*FunctionCallNode) node()              {}
func (*FunctionCallNode) NodeKind() NodeKind { return KindFunctionCall }

// NameNode is a late-bound identifier. Resolution order: boolean literals,
// settings, predicate table, context method, then Unresolved.
type NameNode struct {
	ID string
}

func (*NameNode) node()              {}
func (*NameNode) NodeKind() NodeKind { return KindName }

// LiteralNode wraps a constant value.
type LiteralNode struct {
	Value Value
}

func (*LiteralNode) node()              {}
func (*LiteralNode) NodeKind() NodeKind { return KindLiteral }

// MalformedNode stands in for a node the parser rejected. It keeps the rest
// of the rule evaluable while this position fails closed.
type MalformedNode struct {
	Reason string
}

func (*MalformedNode) node()              {}
func (*MalformedNode) NodeKind() NodeKind { return KindMalformed }
