package rules

import "strings"

// reentryGuard tracks predicate invocations on the active evaluation stack.
// A predicate can call back into the evaluator through the context (a helper
// that asks "can I reach location X" makes the engine evaluate X's access
// rule, which may invoke helpers of its own); the guard keys on name plus
// rendered arguments so the genuinely divergent case, the same call already
// in flight, fails closed while chains through different arguments proceed.
type reentryGuard struct {
	active map[string]struct{}
}

func newReentryGuard() *reentryGuard {
	return &reentryGuard{active: make(map[string]struct{})}
}

// callKey renders a predicate invocation for stack tracking.
func callKey(name string, args []Value) string {
	if len(args) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, a := range args {
		b.WriteByte('\x1f')
		b.WriteString(Describe(a))
	}
	return b.String()
}

// enter marks an invocation active. It reports false when the same
// invocation is already on the stack, in which case the caller must not
// evaluate it again.
func (g *reentryGuard) enter(key string) bool {
	if _, ok := g.active[key]; ok {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

// exit unmarks an invocation after its call returns.
func (g *reentryGuard) exit(key string) {
	delete(g.active, key)
}

// reset clears all active entries. Called when a top-level Evaluate begins so
// an aborted traversal cannot poison the next one.
func (g *reentryGuard) reset() {
	if len(g.active) != 0 {
		g.active = make(map[string]struct{})
	}
}
