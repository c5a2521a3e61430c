package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillback/waystone/internal/rules"
)

func reachHelper(region string) rules.Node {
	return &rules.HelperNode{
		Name: "can_reach_region",
		Args: []rules.Node{&rules.LiteralNode{Value: rules.String(region)}},
	}
}

func TestNewWiresOwnership(t *testing.T) {
	w, err := New([]*Region{
		{Name: "Menu", Exits: []*Exit{{Name: "door", Target: "Field"}}},
		{Name: "Field", Locations: []*Location{{Name: "Chest"}}},
	}, nil)
	require.NoError(t, err)

	menu, ok := w.Region("Menu")
	require.True(t, ok)
	require.Len(t, menu.Exits, 1)
	assert.Equal(t, "Menu", menu.Exits[0].Source)
	assert.Equal(t, "Menu:door", menu.Exits[0].ID())

	chest, ok := w.Location("Chest")
	require.True(t, ok)
	assert.Equal(t, "Field", chest.Region)

	assert.Equal(t, []string{"Field", "Menu"}, w.RegionNames())
	assert.Equal(t, []string{"Chest"}, w.LocationNames())
	assert.Equal(t, 2, w.NumRegions())
	assert.Equal(t, 1, w.NumExits())
}

func TestNewDefaultStart(t *testing.T) {
	w, err := New([]*Region{{Name: "Menu"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Menu"}, w.Starts())
}

func TestNewExplicitStarts(t *testing.T) {
	w, err := New([]*Region{{Name: "A"}, {Name: "B"}}, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, w.Starts())
}

func TestNewValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		regions []*Region
		starts  []string
	}{
		{"empty region name", []*Region{{Name: ""}}, nil},
		{"duplicate region", []*Region{{Name: "A"}, {Name: "A"}}, nil},
		{"empty exit name", []*Region{{Name: "A", Exits: []*Exit{{Target: "A"}}}}, []string{"A"}},
		{"duplicate exit name", []*Region{
			{Name: "A", Exits: []*Exit{{Name: "e", Target: "A"}, {Name: "e", Target: "A"}}},
		}, []string{"A"}},
		{"exit without target", []*Region{{Name: "A", Exits: []*Exit{{Name: "e"}}}}, []string{"A"}},
		{"exit to unknown region", []*Region{
			{Name: "A", Exits: []*Exit{{Name: "e", Target: "Nowhere"}}},
		}, []string{"A"}},
		{"empty location name", []*Region{{Name: "A", Locations: []*Location{{}}}}, []string{"A"}},
		{"location defined twice", []*Region{
			{Name: "A", Locations: []*Location{{Name: "Chest"}}},
			{Name: "B", Locations: []*Location{{Name: "Chest"}}},
		}, []string{"A"}},
		{"unknown start", []*Region{{Name: "A"}}, []string{"Elsewhere"}},
		{"default start missing", []*Region{{Name: "A"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.regions, tt.starts)
			assert.Error(t, err)
		})
	}
}

func TestIndirectFromExitRule(t *testing.T) {
	// dungeon's gate rule references Swamp, which is neither endpoint, so
	// the gate must be re-tested when Swamp flips.
	gate := &Exit{Name: "gate", Target: "Dungeon", Rule: reachHelper("Swamp")}
	w, err := New([]*Region{
		{Name: "Menu", Exits: []*Exit{gate}},
		{Name: "Dungeon"},
		{Name: "Swamp"},
	}, nil)
	require.NoError(t, err)

	deps := w.IndirectDependents("Swamp")
	require.Len(t, deps, 1)
	assert.Equal(t, "Menu:gate", deps[0].ID())
	assert.Empty(t, w.IndirectDependents("Dungeon"))
	assert.Empty(t, w.Warnings())
}

func TestIndirectSkipsExitTarget(t *testing.T) {
	// Referencing the exit's own target adds nothing: that edge is always
	// re-tested when the target is still pending.
	exit := &Exit{Name: "e", Target: "B", Rule: reachHelper("B")}
	w, err := New([]*Region{
		{Name: "A", Exits: []*Exit{exit}},
		{Name: "B"},
	}, []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, w.IndirectDependents("B"))
}

func TestIndirectSourceSelfReferenceWarns(t *testing.T) {
	exit := &Exit{Name: "e", Target: "B", Rule: reachHelper("A")}
	w, err := New([]*Region{
		{Name: "A", Exits: []*Exit{exit}},
		{Name: "B"},
	}, []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, w.IndirectDependents("A"))
	require.Len(t, w.Warnings(), 1)
	assert.Contains(t, w.Warnings()[0], "own source region")
}

func TestIndirectLocationReferenceMapsToOwner(t *testing.T) {
	// A rule naming a location indexes under the location's owner region.
	exit := &Exit{Name: "e", Target: "B", Rule: reachHelper("Swamp Chest")}
	w, err := New([]*Region{
		{Name: "A", Exits: []*Exit{exit}},
		{Name: "B"},
		{Name: "Swamp", Locations: []*Location{{Name: "Swamp Chest"}}},
	}, []string{"A"})
	require.NoError(t, err)

	deps := w.IndirectDependents("Swamp")
	require.Len(t, deps, 1)
	assert.Equal(t, "A:e", deps[0].ID())
}

func TestIndirectFromRegionRule(t *testing.T) {
	// A region-level rule referencing X indexes the region's entering exits
	// under X: when X flips, entry into the region must be re-judged.
	enter := &Exit{Name: "enter", Target: "Sanctum"}
	w, err := New([]*Region{
		{Name: "Menu", Exits: []*Exit{enter}},
		{Name: "Sanctum", Rules: []rules.Node{reachHelper("Crypt")}},
		{Name: "Crypt"},
	}, nil)
	require.NoError(t, err)

	deps := w.IndirectDependents("Crypt")
	require.Len(t, deps, 1)
	assert.Equal(t, "Menu:enter", deps[0].ID())
}

func TestIndirectRegionSelfReferenceWarns(t *testing.T) {
	w, err := New([]*Region{
		{Name: "Menu", Exits: []*Exit{{Name: "e", Target: "Loop"}}},
		{Name: "Loop", Rules: []rules.Node{reachHelper("Loop")}},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, w.IndirectDependents("Loop"))
	require.Len(t, w.Warnings(), 1)
	assert.Contains(t, w.Warnings()[0], "referencing itself")
}

func TestIndirectIgnoresNonRegionStrings(t *testing.T) {
	exit := &Exit{Name: "e", Target: "B", Rule: reachHelper("Not A Region")}
	w, err := New([]*Region{
		{Name: "A", Exits: []*Exit{exit}},
		{Name: "B"},
	}, []string{"A"})
	require.NoError(t, err)
	for _, name := range w.RegionNames() {
		assert.Empty(t, w.IndirectDependents(name))
	}
}

func TestIndirectDeduplicates(t *testing.T) {
	// Two references to the same region from one rule index the exit once.
	rule := &rules.AndNode{Children: []rules.Node{
		reachHelper("Swamp"),
		reachHelper("Swamp"),
	}}
	exit := &Exit{Name: "e", Target: "B", Rule: rule}
	w, err := New([]*Region{
		{Name: "A", Exits: []*Exit{exit}},
		{Name: "B"},
		{Name: "Swamp"},
	}, []string{"A"})
	require.NoError(t, err)
	assert.Len(t, w.IndirectDependents("Swamp"), 1)
}

func TestEventLocations(t *testing.T) {
	w, err := New([]*Region{
		{Name: "Menu", Locations: []*Location{
			{Name: "Z Pedestal", Item: &ItemPayload{Name: "Defeat Ganon"}},
			{Name: "A Chest", Item: &ItemPayload{Name: "Bow"}},
			{Name: "M Shrine", Item: &ItemPayload{Name: "Flood Gate Opened"}},
			{Name: "Bare"},
		}},
	}, nil)
	require.NoError(t, err)

	events := w.EventLocations(func(item string) bool {
		return item == "Defeat Ganon" || item == "Flood Gate Opened"
	})
	require.Len(t, events, 2)
	// Sorted by location name.
	assert.Equal(t, "M Shrine", events[0].Name)
	assert.Equal(t, "Z Pedestal", events[1].Name)
}
