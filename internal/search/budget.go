package search

// passBudget bounds fixed-point iterations. The monotone argument already
// guarantees termination in at most |regions| passes on event-free graphs;
// the budget is the backstop for rule sets whose event grants stretch the
// bound, turning a pathological input into a logged, conservative partial
// result instead of a hang.
//
// Distinct from the evaluator's max-depth guard: depth bounds one rule's
// nesting, the budget bounds how many sweeps the whole search may take.
type passBudget struct {
	max int
}

// limitFor computes the allowed passes for a graph of n regions. The margin
// absorbs event-grant iterations, which each add at most one extra pass.
func (b passBudget) limitFor(regions int) int {
	if b.max > 0 {
		return b.max
	}
	return 4*regions + 16
}
