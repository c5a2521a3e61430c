package search

import "sort"

// PathStep records how a region was first entered during the search.
type PathStep struct {
	// Entrance is the ID of the exit traversed.
	Entrance string
	// Previous is the region the entrance was taken from.
	Previous string
}

// BlockReason says why a blocked exit is not delivering its target.
type BlockReason string

const (
	// BlockRuleFailed means the exit's own access rule evaluated false.
	BlockRuleFailed BlockReason = "rule_failed"
	// BlockRegionRuleFailed means the exit passed but the target region's
	// own access rules did not.
	BlockRegionRuleFailed BlockReason = "region_rule_failed"
)

// BlockedExit is a diagnostic record of an edge that currently does not
// traverse. Blocked edges are not removed; a future recompute re-tests them.
type BlockedExit struct {
	Exit   string
	Source string
	Target string
	Reason BlockReason
}

// Result is the outcome of one recompute: the fixed point plus its
// byproducts.
type Result struct {
	// Reachable holds exactly the reachable region names.
	Reachable map[string]struct{}
	// Unreachable holds the remaining region names, derived at the end of
	// the search so callers get the complement without walking the world.
	Unreachable map[string]struct{}
	// Path maps each non-start reachable region to how it was first
	// entered.
	Path map[string]PathStep
	// Blocked lists edges that did not traverse, sorted by exit ID.
	Blocked []BlockedExit
	// Events holds the auto-granted event item names.
	Events map[string]struct{}
	// Passes counts fixed-point iterations until stability.
	Passes int
	// BudgetExhausted is set when the pass budget stopped iteration early;
	// the result is still conservative (reachability only ever grows).
	BudgetExhausted bool
}

// IsReachable reports whether a region was reached.
func (r *Result) IsReachable(region string) bool {
	_, ok := r.Reachable[region]
	return ok
}

// EventGranted reports whether an event item was granted.
func (r *Result) EventGranted(item string) bool {
	_, ok := r.Events[item]
	return ok
}

// ReachableNames returns the reachable regions, sorted.
func (r *Result) ReachableNames() []string {
	out := make([]string, 0, len(r.Reachable))
	for name := range r.Reachable {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// UnreachableNames returns the regions left out of the fixed point, sorted.
func (r *Result) UnreachableNames() []string {
	out := make([]string, 0, len(r.Unreachable))
	for name := range r.Unreachable {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EventNames returns granted events, sorted.
func (r *Result) EventNames() []string {
	out := make([]string, 0, len(r.Events))
	for name := range r.Events {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// View is the in-progress read surface published to the orchestrator at the
// start of a recompute. Helper predicates that ask "is X reachable" while
// the search is still running read these, so they observe the current
// partial state instead of forcing a nested rebuild.
type View struct {
	Reachable    func(region string) bool
	EventGranted func(item string) bool
}
