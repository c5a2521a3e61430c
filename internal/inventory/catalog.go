// Package inventory implements the canonical item-count store and the item
// catalog it is defined against: event flags, named groups, and progressive
// tier mappings. Progressive items are stored under their base name only;
// tier lookups translate at query time.
package inventory

import (
	"fmt"
	"sort"
)

// ItemDef describes one item of a loaded rule set.
type ItemDef struct {
	Name string
	// Event marks a non-physical item granted automatically when its
	// holding location becomes accessible. Events never live in the count
	// store.
	Event bool
	// Groups tags the item for group queries.
	Groups []string
	// Progression lists concrete tier names unlocked at increasing counts
	// of this item: Progression[i] unlocks once the base count reaches i+1.
	Progression []string
}

// Tier locates a concrete tier name within its progressive chain.
type Tier struct {
	Base  string
	Level int
}

// Catalog is the immutable item universe of one rule set. Built once at
// load; lookups are read-only thereafter.
type Catalog struct {
	items  map[string]ItemDef
	groups map[string][]string
	tiers  map[string]Tier
}

// NewCatalog validates the definitions and builds the lookup indexes.
func NewCatalog(defs []ItemDef) (*Catalog, error) {
	cat := &Catalog{
		items:  make(map[string]ItemDef, len(defs)),
		groups: make(map[string][]string),
		tiers:  make(map[string]Tier),
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("item with empty name")
		}
		if _, dup := cat.items[def.Name]; dup {
			return nil, fmt.Errorf("duplicate item %q", def.Name)
		}
		if def.Event && len(def.Progression) > 0 {
			return nil, fmt.Errorf("item %q cannot be both an event and progressive", def.Name)
		}
		cat.items[def.Name] = def
	}
	for _, def := range defs {
		for level, tierName := range def.Progression {
			if tierName == "" {
				return nil, fmt.Errorf("item %q has an empty tier name at level %d", def.Name, level+1)
			}
			if prev, claimed := cat.tiers[tierName]; claimed {
				return nil, fmt.Errorf("tier %q claimed by both %q and %q", tierName, prev.Base, def.Name)
			}
			if _, isItem := cat.items[tierName]; isItem {
				return nil, fmt.Errorf("tier %q of %q collides with an item definition", tierName, def.Name)
			}
			cat.tiers[tierName] = Tier{Base: def.Name, Level: level + 1}
		}
		for _, group := range def.Groups {
			cat.groups[group] = append(cat.groups[group], def.Name)
		}
	}
	for group := range cat.groups {
		sort.Strings(cat.groups[group])
	}
	return cat, nil
}

// EmptyCatalog returns a catalog with no definitions. An engine before its
// first rule-set load runs against this.
func EmptyCatalog() *Catalog {
	cat, _ := NewCatalog(nil)
	return cat
}

// Lookup returns the definition for an item name.
func (c *Catalog) Lookup(name string) (ItemDef, bool) {
	def, ok := c.items[name]
	return def, ok
}

// TierOf resolves a concrete tier name to its base and level.
func (c *Catalog) TierOf(name string) (Tier, bool) {
	t, ok := c.tiers[name]
	return t, ok
}

// IsEvent reports whether the name is defined as an event item.
func (c *Catalog) IsEvent(name string) bool {
	def, ok := c.items[name]
	return ok && def.Event
}

// GroupMembers returns the sorted item names tagged with the group.
func (c *Catalog) GroupMembers(group string) []string {
	return c.groups[group]
}

// Groups returns all group names, sorted.
func (c *Catalog) Groups() []string {
	out := make([]string, 0, len(c.groups))
	for g := range c.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Names returns all defined item names, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.items))
	for name := range c.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of item definitions.
func (c *Catalog) Len() int { return len(c.items) }
