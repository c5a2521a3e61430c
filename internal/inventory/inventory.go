package inventory

import "sort"

// Inventory is the canonical item-count store. Counts are non-negative and
// change only through Add and Remove; removing more than is held clamps at
// zero and reports how many were actually removed.
//
// The inventory is owned by the orchestrator's single logical thread and is
// not safe for concurrent use.
type Inventory struct {
	cat    *Catalog
	counts map[string]int
}

// New creates an empty inventory over a catalog. A nil catalog behaves as
// an empty one: every name is unknown, no tiers translate.
func New(cat *Catalog) *Inventory {
	if cat == nil {
		cat = EmptyCatalog()
	}
	return &Inventory{cat: cat, counts: make(map[string]int)}
}

// Catalog returns the catalog this inventory was created against.
func (inv *Inventory) Catalog() *Catalog { return inv.cat }

// Add increases an item's count by n and returns the new count. Progressive
// tier names translate to their base item, so adding "Sword Lv2" increments
// the "Sword" counter. Non-positive n leaves the count unchanged.
func (inv *Inventory) Add(item string, n int) int {
	name := inv.storageName(item)
	if n > 0 {
		inv.counts[name] += n
	}
	return inv.counts[name]
}

// Remove decreases an item's count by up to n, clamping at zero, and
// returns how many were actually removed.
func (inv *Inventory) Remove(item string, n int) int {
	name := inv.storageName(item)
	if n <= 0 {
		return 0
	}
	held := inv.counts[name]
	removed := n
	if removed > held {
		removed = held
	}
	if removed == held {
		delete(inv.counts, name)
	} else {
		inv.counts[name] = held - removed
	}
	return removed
}

// Count returns the count for an item. A concrete progressive tier counts
// as 1 when the base count has reached the tier's level, else 0; the base
// progressive name reports its raw count.
func (inv *Inventory) Count(item string) int {
	if tier, ok := inv.cat.TierOf(item); ok {
		if inv.counts[tier.Base] >= tier.Level {
			return 1
		}
		return 0
	}
	return inv.counts[item]
}

// Has reports whether at least n of an item is held. n below 1 is
// vacuously true.
func (inv *Inventory) Has(item string, n int) bool {
	if n < 1 {
		return true
	}
	return inv.Count(item) >= n
}

// HasGroup reports whether any item tagged with the group is held.
func (inv *Inventory) HasGroup(group string) bool {
	for _, member := range inv.cat.GroupMembers(group) {
		if inv.Count(member) > 0 {
			return true
		}
	}
	return false
}

// CountGroup sums held counts across the group's members.
func (inv *Inventory) CountGroup(group string) int {
	total := 0
	for _, member := range inv.cat.GroupMembers(group) {
		total += inv.Count(member)
	}
	return total
}

// Counts returns a copy of the raw count map. Zero-count entries never
// appear.
func (inv *Inventory) Counts() map[string]int {
	out := make(map[string]int, len(inv.counts))
	for k, v := range inv.counts {
		out[k] = v
	}
	return out
}

// SetCounts replaces the whole store, dropping non-positive entries and
// translating tier names to their base. Used when applying saved state.
func (inv *Inventory) SetCounts(counts map[string]int) {
	inv.counts = make(map[string]int, len(counts))
	for item, n := range counts {
		if n > 0 {
			inv.counts[inv.storageName(item)] += n
		}
	}
}

// Clear empties the store.
func (inv *Inventory) Clear() {
	inv.counts = make(map[string]int)
}

// Names returns held item names, sorted.
func (inv *Inventory) Names() []string {
	out := make([]string, 0, len(inv.counts))
	for name := range inv.counts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// storageName maps a concrete tier name to its base progressive item;
// anything else stores under its own name.
func (inv *Inventory) storageName(item string) string {
	if tier, ok := inv.cat.TierOf(item); ok {
		return tier.Base
	}
	return item
}
