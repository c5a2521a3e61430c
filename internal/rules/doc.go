// Package rules implements the rule-expression interpreter: a closed AST of
// logical, comparison, arithmetic, and late-bound lookup nodes evaluated
// against a read-only view of game state plus an injected predicate table.
//
// The interpreter is the leaf of every reachability computation, so its
// contract is deliberately conservative: evaluation never panics and never
// mutates state. Anything the evaluator cannot resolve (unknown helper,
// malformed node, depth overrun, type mismatch) fails closed and is counted
// in Diagnostics rather than raised as an error, so one bad rule cannot
// abort a recompute.
package rules
