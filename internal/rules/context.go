package rules

import "github.com/quillback/waystone/internal/snapshot"

// Scope identifies what is currently being evaluated. Helpers use it for
// self-reference checks such as "can this exit reach its own source region".
// Unused fields are empty.
type Scope struct {
	Region   string
	Exit     string
	Location string
}

// Predicate is one entry of a game's predicate table. It receives the
// evaluation context, which carries the current snapshot and all static
// queries, plus the already-evaluated arguments.
//
// Predicates must treat the context as read-only. Reachability queries made
// from inside a predicate read the current cache; they never trigger a
// recompute.
type Predicate func(ctx Context, args ...Value) Value

// PredicateTable resolves helper names. One table per game; the engine never
// embeds game-specific logic itself.
type PredicateTable interface {
	// Lookup returns the predicate registered under name.
	Lookup(name string) (Predicate, bool)
	// Names returns the registered names, sorted, for diagnostics.
	Names() []string
}

// Context is the read-only view a rule evaluates against. The orchestrator
// owns the one real implementation; tests supply fakes.
type Context interface {
	// Count returns the inventory count for an item, translating progressive
	// tier names through the tier mapping.
	Count(item string) int
	// Has reports whether the inventory holds at least n of an item.
	Has(item string, n int) bool
	// HasGroup reports whether any item tagged with the group is held.
	HasGroup(group string) bool
	// CountGroup sums held counts across items tagged with the group.
	CountGroup(group string) int

	// Setting looks up a per-slot game setting.
	Setting(name string) (Value, bool)
	// Predicates returns the injected predicate table.
	Predicates() PredicateTable
	// CallMethod performs late-bound context-method dispatch for
	// state_method nodes and the final step of name resolution.
	CallMethod(name string, args []Value) (Value, bool)

	// RegionReachable reads the current reachability cache. It must never
	// force a recompute.
	RegionReachable(name string) bool
	// LocationChecked reports whether a location is in the checked set.
	LocationChecked(name string) bool

	// Snapshot returns the current immutable state projection.
	Snapshot() *snapshot.Snapshot
	// Scope identifies the region/exit/location being evaluated.
	Scope() Scope
}
