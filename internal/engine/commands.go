package engine

import (
	"sort"

	"github.com/samber/oops"

	"github.com/quillback/waystone/internal/search"
)

// AddItem adds n of an item to the inventory (n defaults to 1 when not
// positive at the protocol layer; here non-positive n is a no-op). It
// returns the new count under the item's storage name.
func (e *Engine) AddItem(item string, n int) int {
	if n <= 0 {
		return e.inv.Count(item)
	}
	count := e.inv.Add(item, n)
	e.afterMutation(EventInventoryChanged)
	return count
}

// RemoveItem removes up to n of an item, clamping at zero, and reports how
// many were actually removed. Removing nothing is not a state change.
func (e *Engine) RemoveItem(item string, n int) int {
	removed := e.inv.Remove(item, n)
	if removed == 0 {
		return 0
	}
	e.afterMutation(EventInventoryChanged)
	return removed
}

// SetInventory replaces the whole inventory in one mutation. It serves
// the test commands of the protocol surface, where scenarios state the
// inventory they want rather than a delta.
func (e *Engine) SetInventory(counts map[string]int) error {
	if err := e.requireRules(); err != nil {
		return err
	}
	e.inv.SetCounts(counts)
	e.afterMutation(EventInventoryChanged)
	return nil
}

// CheckLocation validates and marks a location checked, granting its item
// payload when the payload belongs to this player slot. Rejections carry a
// typed reason and leave all state unchanged.
func (e *Engine) CheckLocation(name string) error {
	if err := e.requireRules(); err != nil {
		return err
	}
	loc, ok := e.compiled.World.Location(name)
	if !ok {
		return oops.Code(ReasonLocationNotFound).
			With("location", name).
			Errorf("location %q is not defined by the loaded rule set", name)
	}
	if _, dup := e.checked[name]; dup {
		return oops.Code(ReasonAlreadyChecked).
			With("location", name).
			Errorf("location %q is already checked", name)
	}

	if e.batch == nil && !e.cacheValid {
		e.recompute()
	}
	ctx := &evalContext{engine: e}
	if !e.searcher.Accessible(ctx, loc, ctx.RegionReachable) {
		return oops.Code(ReasonNotAccessible).
			With("location", name).
			With("region", loc.Region).
			Errorf("location %q is not accessible", name)
	}

	e.checked[name] = struct{}{}
	if item := loc.Item; item != nil && !e.compiled.Catalog.IsEvent(item.Name) {
		if item.Player == 0 || item.Player == e.compiled.PlayerSlot {
			e.inv.Add(item.Name, 1)
		}
	}
	e.afterMutation(EventLocationChecked)
	return nil
}

// UncheckLocation removes a location from the checked set and takes back
// the item it granted, clamped at zero. Unchecking a location that is not
// checked is a no-op.
func (e *Engine) UncheckLocation(name string) error {
	if err := e.requireRules(); err != nil {
		return err
	}
	loc, ok := e.compiled.World.Location(name)
	if !ok {
		return oops.Code(ReasonLocationNotFound).
			With("location", name).
			Errorf("location %q is not defined by the loaded rule set", name)
	}
	if _, present := e.checked[name]; !present {
		return nil
	}

	delete(e.checked, name)
	if item := loc.Item; item != nil && !e.compiled.Catalog.IsEvent(item.Name) {
		if item.Player == 0 || item.Player == e.compiled.PlayerSlot {
			e.inv.Remove(item.Name, 1)
		}
	}
	e.afterMutation(EventLocationUnchecked)
	return nil
}

// ClearCheckedLocations empties the checked set. Inventory is left as it
// stands; a caller resetting a run pairs this with ApplyRuntimeState or a
// reload.
func (e *Engine) ClearCheckedLocations() {
	if len(e.checked) == 0 {
		return
	}
	e.checked = make(map[string]struct{})
	e.afterMutation(EventCheckedCleared)
}

// UpdateSetting sets one per-slot game setting. Value must be a plain JSON
// shape.
func (e *Engine) UpdateSetting(key string, value any) {
	if e.settings == nil {
		e.settings = make(map[string]any)
	}
	e.settings[key] = value
	e.afterMutation(EventSettingChanged)
}

// BatchOption configures an open batch.
type BatchOption func(*batchState)

// DeferRegionComputation makes the commit itself skip the recompute,
// leaving the cache invalid until the next query. For callers applying a
// large fixture that will query (and thus recompute) afterwards anyway.
func DeferRegionComputation() BatchOption {
	return func(b *batchState) { b.deferRegions = true }
}

// BeginBatch opens a batch: subsequent mutations defer recomputation and
// notification until CommitBatch.
func (e *Engine) BeginBatch(opts ...BatchOption) error {
	if e.batch != nil {
		return oops.Code(ReasonBatchActive).Errorf("a batch is already open")
	}
	b := &batchState{}
	for _, opt := range opts {
		opt(b)
	}
	e.batch = b
	e.rebuildSnapshot()
	return nil
}

// CommitBatch closes the batch. If anything mutated, exactly one recompute
// (unless deferred) and one notification happen here.
func (e *Engine) CommitBatch() error {
	if e.batch == nil {
		return oops.Code(ReasonNoBatch).Errorf("no batch is open")
	}
	b := e.batch
	e.batch = nil

	if !b.dirty {
		e.rebuildSnapshot()
		return nil
	}
	if !b.deferRegions {
		e.recompute()
	}
	e.rebuildSnapshot()
	e.emit(EventBatchCommitted)
	return nil
}

// BatchActive reports whether a batch is open.
func (e *Engine) BatchActive() bool { return e.batch != nil }

// Reachability returns the sorted names of currently reachable regions,
// rebuilding the cache if needed.
func (e *Engine) Reachability() []string {
	e.ensureCache()
	return e.result.ReachableNames()
}

// RegionReachable reports one region's reachability, rebuilding the cache
// if needed.
func (e *Engine) RegionReachable(name string) bool {
	e.ensureCache()
	return e.result.IsReachable(name)
}

// LocationAccessible reports whether a location can currently be checked.
func (e *Engine) LocationAccessible(name string) (bool, error) {
	if err := e.requireRules(); err != nil {
		return false, err
	}
	loc, ok := e.compiled.World.Location(name)
	if !ok {
		return false, oops.Code(ReasonLocationNotFound).
			With("location", name).
			Errorf("location %q is not defined by the loaded rule set", name)
	}
	e.ensureCache()
	ctx := &evalContext{engine: e}
	return e.searcher.Accessible(ctx, loc, ctx.RegionReachable), nil
}

// PathTo reconstructs how the search first entered a region, start region
// outward. An unreachable or unknown region returns nil.
func (e *Engine) PathTo(region string) []search.PathStep {
	e.ensureCache()
	if !e.result.IsReachable(region) {
		return nil
	}
	var reversed []search.PathStep
	current := region
	for {
		step, ok := e.result.Path[current]
		if !ok {
			break
		}
		reversed = append(reversed, step)
		current = step.Previous
		if len(reversed) > len(e.result.Path) {
			// A cycle here would mean the path map is corrupt; bail
			// rather than loop.
			return nil
		}
	}
	out := make([]search.PathStep, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		out = append(out, reversed[i])
	}
	return out
}

// BlockedExits returns the diagnostic record of edges that did not
// traverse in the last recompute.
func (e *Engine) BlockedExits() []search.BlockedExit {
	e.ensureCache()
	return e.result.Blocked
}

// CheckedLocations returns the checked set, sorted.
func (e *Engine) CheckedLocations() []string {
	out := make([]string, 0, len(e.checked))
	for name := range e.checked {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) ensureCache() {
	if !e.cacheValid && !e.inRecompute {
		e.recompute()
		e.rebuildSnapshot()
	}
}
