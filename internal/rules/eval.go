package rules

import (
	"log/slog"
)

// DefaultMaxDepth bounds rule nesting. Real rule sets stay far below this;
// the bound exists so a pathological tree degrades into a counted diagnostic
// instead of a stack overflow.
const DefaultMaxDepth = 64

// DiagnosticHook observes fail-closed events as they happen. The engine uses
// it to mirror evaluator diagnostics into metrics.
type DiagnosticHook func(kind DiagKind, detail string)

// Evaluator walks rule ASTs. It carries no game state of its own; everything
// it needs arrives through the Context. One evaluator serves one engine and
// is not safe for concurrent use.
type Evaluator struct {
	maxDepth int
	logger   *slog.Logger
	hook     DiagnosticHook
	diags    Diagnostics
	guard    *reentryGuard
	active   int
	evals    int64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxDepth overrides the nesting bound.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for fail-closed warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDiagnosticHook registers an observer for fail-closed events.
func WithDiagnosticHook(hook DiagnosticHook) Option {
	return func(e *Evaluator) { e.hook = hook }
}

// NewEvaluator creates an evaluator with the given options.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
		guard:    newReentryGuard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate walks the node against the context and returns its value. It
// never panics and never mutates the context; failures are absorbed as
// Unresolved or false with a counted diagnostic.
//
// Predicates may call back into Evaluate through the context. Such nested
// calls share the outer call's reentry guard, so a predicate invocation that
// lands on itself with the same arguments fails closed instead of recursing
// forever.
func (e *Evaluator) Evaluate(n Node, ctx Context) Value {
	if e.active == 0 {
		e.guard.reset()
	}
	e.active++
	e.evals++
	defer func() { e.active-- }()
	return e.eval(n, ctx, 0)
}

// EvalCount reports how many top-level Evaluate calls have run. The engine
// mirrors the counter into metrics after each recompute.
func (e *Evaluator) EvalCount() int64 { return e.evals }

// EvaluateBool evaluates the node and reads the result as a boolean.
func (e *Evaluator) EvaluateBool(n Node, ctx Context) bool {
	return e.Evaluate(n, ctx).Truthy()
}

// Diagnostics returns a copy of the accumulated counters.
func (e *Evaluator) Diagnostics() Diagnostics { return e.diags }

// ResetDiagnostics zeroes the counters. The orchestrator calls this on
// rule-set reload so counts always describe the live rule set.
func (e *Evaluator) ResetDiagnostics() { e.diags = Diagnostics{} }

func (e *Evaluator) eval(n Node, ctx Context, depth int) Value {
	if depth > e.maxDepth {
		e.diag(ctx, DiagDepthExceeded, "rule nesting exceeds max depth")
		return Unresolved{Reason: "max evaluation depth exceeded"}
	}
	if n == nil {
		e.diag(ctx, DiagMalformedNode, "nil rule node")
		return Unresolved{Reason: "nil rule node"}
	}

	switch node := n.(type) {
	case *AndNode:
		for _, child := range node.Children {
			if !e.eval(child, ctx, depth+1).Truthy() {
				return Bool(false)
			}
		}
		return Bool(true)

	case *OrNode:
		for _, child := range node.Children {
			if e.eval(child, ctx, depth+1).Truthy() {
				return Bool(true)
			}
		}
		return Bool(false)

	case *NotNode:
		return Bool(!e.eval(node.Child, ctx, depth+1).Truthy())

	case *ItemCheckNode:
		return Bool(ctx.Has(node.Item, 1))

	case *CountCheckNode:
		return Bool(ctx.Has(node.Item, node.Count))

	case *ComparisonNode:
		left := e.eval(node.Left, ctx, depth+1)
		right := e.eval(node.Right, ctx, depth+1)
		return e.compare(ctx, node.Op, left, right)

	case *BinaryOpNode:
		left := e.eval(node.Left, ctx, depth+1)
		right := e.eval(node.Right, ctx, depth+1)
		return e.arith(ctx, node.Op, left, right)

	case *ConditionalNode:
		if e.eval(node.Test, ctx, depth+1).Truthy() {
			return e.eval(node.Then, ctx, depth+1)
		}
		if node.Else == nil {
			// Absent else imposes no requirement.
			return Bool(true)
		}
		return e.eval(node.Else, ctx, depth+1)

	case *HelperNode:
		pred, ok := lookupPredicate(ctx, node.Name)
		if !ok {
			e.diag(ctx, DiagUnknownHelper, "unknown helper "+node.Name)
			return Bool(false)
		}
		args := e.evalArgs(node.Args, ctx, depth)
		return e.callPredicate(ctx, node.Name, pred, args)

	case *StateMethodNode:
		args := e.evalArgs(node.Args, ctx, depth)
		if v, ok := ctx.CallMethod(node.Name, args); ok {
			return resolved(v, node.Name)
		}
		e.diag(ctx, DiagUnresolvedName, "unknown state method "+node.Name)
		return Unresolved{Reason: "unknown state method " + node.Name}

	case *AttributeNode:
		return e.evalAttribute(node, ctx)

	case *FunctionCallNode:
		return e.evalFunctionCall(node, ctx, depth)

	case *NameNode:
		return e.resolveName(node.ID, ctx)

	case *LiteralNode:
		return node.Value

	case *MalformedNode:
		e.diag(ctx, DiagMalformedNode, node.Reason)
		return Unresolved{Reason: node.Reason}

	default:
		// Unreachable with the sealed node set; kept so a future variant
		// fails closed instead of silently passing.
		e.diag(ctx, DiagMalformedNode, "unhandled node kind")
		return Unresolved{Reason: "unhandled node kind"}
	}
}

// resolveName applies the enumerated resolution priority: boolean literals,
// settings, predicate table, context method, then Unresolved.
func (e *Evaluator) resolveName(id string, ctx Context) Value {
	switch id {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if v, ok := ctx.Setting(id); ok {
		return resolved(v, id)
	}
	if pred, ok := lookupPredicate(ctx, id); ok {
		return e.callPredicate(ctx, id, pred, nil)
	}
	if v, ok := ctx.CallMethod(id, nil); ok {
		return resolved(v, id)
	}
	e.diag(ctx, DiagUnresolvedName, "unresolved name "+id)
	return Unresolved{Reason: "unresolved name " + id}
}

// evalAttribute resolves the restricted object model: only the settings and
// inventory namespaces exist.
func (e *Evaluator) evalAttribute(node *AttributeNode, ctx Context) Value {
	base, ok := node.Object.(*NameNode)
	if !ok {
		e.diag(ctx, DiagUnresolvedName, "attribute base is not a name")
		return Unresolved{Reason: "attribute base is not a name"}
	}
	switch base.ID {
	case "settings":
		if v, ok := ctx.Setting(node.Name); ok {
			return resolved(v, node.Name)
		}
		e.diag(ctx, DiagUnresolvedName, "unknown setting "+node.Name)
		return Unresolved{Reason: "unknown setting " + node.Name}
	case "inventory":
		return Number(ctx.Count(node.Name))
	default:
		e.diag(ctx, DiagUnresolvedName, "unknown attribute namespace "+base.ID)
		return Unresolved{Reason: "unknown attribute namespace " + base.ID}
	}
}

// evalFunctionCall dispatches a name callee like a helper, then through
// context methods. Any other callee shape is unresolved.
func (e *Evaluator) evalFunctionCall(node *FunctionCallNode, ctx Context, depth int) Value {
	callee, ok := node.Callee.(*NameNode)
	if !ok {
		e.diag(ctx, DiagUnresolvedName, "function_call callee is not a name")
		return Unresolved{Reason: "function_call callee is not a name"}
	}
	args := e.evalArgs(node.Args, ctx, depth)
	if pred, ok := lookupPredicate(ctx, callee.ID); ok {
		return e.callPredicate(ctx, callee.ID, pred, args)
	}
	if v, ok := ctx.CallMethod(callee.ID, args); ok {
		return resolved(v, callee.ID)
	}
	e.diag(ctx, DiagUnknownHelper, "unknown callee "+callee.ID)
	return Bool(false)
}

func (e *Evaluator) evalArgs(nodes []Node, ctx Context, depth int) []Value {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Value, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, e.eval(n, ctx, depth+1))
	}
	return out
}

// callPredicate invokes a table entry under the reentry guard. An invocation
// already on the active stack fails closed.
func (e *Evaluator) callPredicate(ctx Context, name string, pred Predicate, args []Value) Value {
	key := callKey(name, args)
	if !e.guard.enter(key) {
		e.diag(ctx, DiagHelperReentry, "helper "+name+" re-entered itself")
		return Bool(false)
	}
	defer e.guard.exit(key)
	v := pred(ctx, args...)
	return resolved(v, name)
}

func lookupPredicate(ctx Context, name string) (Predicate, bool) {
	table := ctx.Predicates()
	if table == nil {
		return nil, false
	}
	return table.Lookup(name)
}

// resolved normalizes a nil Value from a lookup or predicate into Unresolved.
func resolved(v Value, origin string) Value {
	if v == nil {
		return Unresolved{Reason: origin + " produced no value"}
	}
	return v
}

func (e *Evaluator) diag(ctx Context, kind DiagKind, detail string) {
	e.diags.record(kind)
	if e.hook != nil {
		e.hook(kind, detail)
	}
	scope := ctx.Scope()
	e.logger.Warn("rule failed closed",
		"kind", string(kind),
		"detail", detail,
		"region", scope.Region,
		"exit", scope.Exit,
		"location", scope.Location,
	)
}
