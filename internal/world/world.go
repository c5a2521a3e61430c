// Package world holds the static region graph of a loaded rule set: regions
// connected by rule-gated exits, each containing rule-gated locations.
// Definitions are immutable after construction; a new rule-set load builds a
// new World wholesale.
package world

import (
	"sort"

	"github.com/quillback/waystone/internal/rules"
)

// Exit is a directed, rule-gated edge between two regions. A bidirectional
// connection is declared as two exits.
type Exit struct {
	Name   string
	Source string
	Target string
	// Rule gates traversal; nil means always passable from a reachable
	// source.
	Rule rules.Node
}

// ID returns the exit's identifier, unique across the world because exit
// names are unique within their source region.
func (e *Exit) ID() string { return e.Source + ":" + e.Name }

// ItemPayload is what a location yields when checked.
type ItemPayload struct {
	Name   string
	Player int
}

// Location is a checkable point within a region.
type Location struct {
	Name   string
	Region string
	// Rule gates access once the owning region is reachable; nil means the
	// region alone decides.
	Rule rules.Node
	Item *ItemPayload
}

// Region is a named node of the world graph.
type Region struct {
	Name      string
	Exits     []*Exit
	Locations []*Location
	// Rules are region-level access rules; all must pass for the region to
	// be enterable regardless of which entrance was used.
	Rules []rules.Node
}

// World is the immutable graph plus its derived indexes.
type World struct {
	regions     map[string]*Region
	regionNames []string
	locations   map[string]*Location
	starts      []string
	indirect    map[string][]*Exit
	warnings    []string
	exitCount   int
}

// New validates the region definitions, wires up ownership, and builds the
// indirect-connections index. Start regions default to ["Menu"] when the
// list is empty, matching the common rule-set convention.
func New(regions []*Region, starts []string) (*World, error) {
	w := &World{
		regions:   make(map[string]*Region, len(regions)),
		locations: make(map[string]*Location),
		indirect:  make(map[string][]*Exit),
	}
	if err := w.build(regions, starts); err != nil {
		return nil, err
	}
	w.buildIndirect()
	return w, nil
}

// Region looks up a region by name.
func (w *World) Region(name string) (*Region, bool) {
	r, ok := w.regions[name]
	return r, ok
}

// Location looks up a location by its globally unique name.
func (w *World) Location(name string) (*Location, bool) {
	l, ok := w.locations[name]
	return l, ok
}

// RegionNames returns all region names, sorted.
func (w *World) RegionNames() []string { return w.regionNames }

// LocationNames returns all location names, sorted.
func (w *World) LocationNames() []string {
	out := make([]string, 0, len(w.locations))
	for name := range w.locations {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Starts returns the configured start regions.
func (w *World) Starts() []string { return w.starts }

// IndirectDependents returns the exits whose access rule references the
// region, beyond its direct graph neighbors. The reachability search
// re-tests these whenever the region's status flips.
func (w *World) IndirectDependents(region string) []*Exit {
	return w.indirect[region]
}

// Warnings returns authoring diagnostics collected while building the
// derived indexes. They never fail a load.
func (w *World) Warnings() []string { return w.warnings }

// NumRegions reports the region count, which bounds fixed-point passes.
func (w *World) NumRegions() int { return len(w.regions) }

// NumExits reports the total exit count.
func (w *World) NumExits() int { return w.exitCount }

// EventLocations returns locations carrying an event item, sorted by name.
// The search auto-grants these while iterating to a fixed point.
func (w *World) EventLocations(isEvent func(item string) bool) []*Location {
	var out []*Location
	for _, name := range w.LocationNames() {
		loc := w.locations[name]
		if loc.Item != nil && isEvent(loc.Item.Name) {
			out = append(out, loc)
		}
	}
	return out
}
