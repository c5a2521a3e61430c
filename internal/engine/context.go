package engine

import (
	"github.com/quillback/waystone/internal/rules"
	"github.com/quillback/waystone/internal/snapshot"
)

// evalContext is the engine's one real rules.Context implementation. It is
// a thin read-only view over the engine: rule evaluation and helper
// predicates see current inventory, settings, and the reachability cache,
// but can mutate nothing.
type evalContext struct {
	engine *Engine
	scope  rules.Scope
}

var _ rules.Context = (*evalContext)(nil)

// Count translates event items through the granted set: a granted event
// counts as one held. Everything else reads the inventory, which resolves
// progressive tiers itself.
func (c *evalContext) Count(item string) int {
	e := c.engine
	if e.compiled != nil && e.compiled.Catalog.IsEvent(item) {
		if c.eventGranted(item) {
			return 1
		}
		return 0
	}
	return e.inv.Count(item)
}

func (c *evalContext) Has(item string, n int) bool {
	if n < 1 {
		return true
	}
	return c.Count(item) >= n
}

func (c *evalContext) HasGroup(group string) bool {
	if c.engine.inv.HasGroup(group) {
		return true
	}
	// Event members never reach the count store; consult the grant set.
	if e := c.engine; e.compiled != nil {
		for _, member := range e.compiled.Catalog.GroupMembers(group) {
			if e.compiled.Catalog.IsEvent(member) && c.eventGranted(member) {
				return true
			}
		}
	}
	return false
}

func (c *evalContext) CountGroup(group string) int {
	total := c.engine.inv.CountGroup(group)
	if e := c.engine; e.compiled != nil {
		for _, member := range e.compiled.Catalog.GroupMembers(group) {
			if e.compiled.Catalog.IsEvent(member) && c.eventGranted(member) {
				total++
			}
		}
	}
	return total
}

func (c *evalContext) Setting(name string) (rules.Value, bool) {
	raw, ok := c.engine.settings[name]
	if !ok {
		return nil, false
	}
	return rules.FromAny(raw), true
}

func (c *evalContext) Predicates() rules.PredicateTable { return c.engine.table }

// contextMethods is the restricted object model for state_method nodes and
// the last step of name resolution. The set is closed and game-agnostic.
func (c *evalContext) CallMethod(name string, args []rules.Value) (rules.Value, bool) {
	switch name {
	case "can_reach":
		// Region or location name; locations resolve through lazy
		// accessibility against the current cache.
		target, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "can_reach needs a name"}, true
		}
		return rules.Bool(c.canReach(target)), true
	case "checked":
		location, ok := stringArg(args, 0)
		if !ok {
			return rules.Unresolved{Reason: "checked needs a location name"}, true
		}
		return rules.Bool(c.LocationChecked(location)), true
	case "checked_count":
		return rules.Number(len(c.engine.checked)), true
	case "player_slot":
		return rules.Number(c.engine.PlayerSlot()), true
	}
	return nil, false
}

// RegionReachable reads the current cache, or the in-progress view while a
// recompute is running. It never forces a rebuild; a stale answer here is
// conservative and the pending recompute corrects it.
func (c *evalContext) RegionReachable(name string) bool {
	if view := c.engine.searchView; view != nil {
		return view.Reachable(name)
	}
	return c.engine.result.IsReachable(name)
}

func (c *evalContext) LocationChecked(name string) bool {
	_, ok := c.engine.checked[name]
	return ok
}

func (c *evalContext) Snapshot() *snapshot.Snapshot { return c.engine.current }

func (c *evalContext) Scope() rules.Scope { return c.scope }

// SetScope implements search.Context.
func (c *evalContext) SetScope(scope rules.Scope) { c.scope = scope }

func (c *evalContext) eventGranted(item string) bool {
	if view := c.engine.searchView; view != nil {
		return view.EventGranted(item)
	}
	return c.engine.result.EventGranted(item)
}

func (c *evalContext) canReach(target string) bool {
	e := c.engine
	if e.compiled == nil {
		return false
	}
	if _, isRegion := e.compiled.World.Region(target); isRegion {
		return c.RegionReachable(target)
	}
	loc, ok := e.compiled.World.Location(target)
	if !ok {
		return false
	}
	// Accessible repoints the scope at the location; restore the caller's
	// scope afterwards so the outer evaluation keeps its site.
	saved := c.scope
	defer func() { c.scope = saved }()
	return e.searcher.Accessible(c, loc, c.RegionReachable)
}

func stringArg(args []rules.Value, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	s, ok := args[i].(rules.String)
	return string(s), ok
}
