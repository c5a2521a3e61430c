package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDoc describes a small but complete world:
//
//	Start --()--> A --(Key>=1)--> B
//	Start --(can_reach_region B)--> D          indirect connection
//	A --(has "Bridge Lowered")--> C            event-gated
//
// A holds a chest with a Key and a lever granting the Bridge Lowered
// event once a Key is held. B holds a prize gated on Sword Lv2.
const testDoc = `{
	"format_version": 1,
	"game": "Testgame",
	"start_regions": ["Start"],
	"regions": {
		"Start": {
			"exits": [
				{"name": "to A", "target": "A"},
				{"name": "to D", "target": "D", "rule": {"type": "helper", "name": "can_reach_region", "args": ["B"]}}
			]
		},
		"A": {
			"exits": [
				{"name": "to B", "target": "B", "rule": {"type": "count_check", "item": "Key", "count": 1}},
				{"name": "to C", "target": "C", "rule": {"type": "item_check", "item": "Bridge Lowered"}}
			],
			"locations": [
				{"name": "A Chest", "item": {"name": "Key"}},
				{"name": "A Lever", "rule": {"type": "item_check", "item": "Key"}, "item": {"name": "Bridge Lowered"}}
			]
		},
		"B": {
			"locations": [
				{"name": "B Prize", "rule": {"type": "item_check", "item": "Sword Lv2"}, "item": {"name": "Triforce"}}
			]
		},
		"C": {},
		"D": {}
	},
	"items": {
		"Key": {"groups": ["keys"]},
		"Sword": {"progressive": ["Sword Lv1", "Sword Lv2"]},
		"Bridge Lowered": {"event": true},
		"Triforce": {}
	},
	"settings": {
		"1": {"glitches": false}
	}
}`

type recorder struct {
	kinds []EventKind
}

func (r *recorder) notify(kind EventKind) { r.kinds = append(r.kinds, kind) }

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, k := range r.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func newTestEngine(t *testing.T) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := New(WithNotify(rec.notify))
	require.NoError(t, e.LoadRuleSet([]byte(testDoc)))
	return e, rec
}

func TestLoadRuleSet(t *testing.T) {
	e, rec := newTestEngine(t)

	assert.True(t, e.RulesLoaded())
	assert.Equal(t, "Testgame", e.Game())
	assert.Equal(t, 1, e.PlayerSlot())
	assert.NotEmpty(t, e.RuleSetDigest())
	assert.Equal(t, 1, rec.count(EventRuleSetLoaded))

	assert.Equal(t, []string{"A", "Start"}, e.Reachability())
}

func TestKeyUnlocksChain(t *testing.T) {
	e, _ := newTestEngine(t)

	e.AddItem("Key", 1)

	// Key opens B directly, C through the Bridge Lowered event granted at
	// the lever, and D through the indirect can_reach_region("B") edge.
	assert.Equal(t, []string{"A", "B", "C", "D", "Start"}, e.Reachability())

	snap := e.Snapshot()
	assert.Equal(t, []string{"Bridge Lowered"}, snap.Events)
	assert.True(t, snap.RegionReachability["D"])
}

func TestMonotonicity(t *testing.T) {
	e, _ := newTestEngine(t)

	small := e.Reachability()
	e.AddItem("Key", 1)
	large := e.Reachability()

	for _, region := range small {
		assert.Contains(t, large, region, "adding items must never lose reachability")
	}
	assert.Greater(t, len(large), len(small))
}

func TestIdempotentRecompute(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddItem("Key", 1)

	first := e.Snapshot()
	before := e.Stats().Recomputes

	// No mutation between queries: the cache stays valid and the state is
	// digest-identical.
	second := e.Snapshot()
	assert.Equal(t, before, e.Stats().Recomputes)
	assert.Equal(t, first.MustDigest(), second.MustDigest())
}

func TestFixedPointTermination(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddItem("Key", 1)

	// Event grants may add passes, but an engine-sized graph stays well
	// inside the budget and converges.
	stats := e.Stats()
	assert.LessOrEqual(t, stats.LastPasses, 4*5+16)
	assert.Positive(t, stats.LastPasses)
}

func TestCheckLocationGrantsItem(t *testing.T) {
	e, rec := newTestEngine(t)

	require.NoError(t, e.CheckLocation("A Chest"))
	assert.Equal(t, 1, e.Snapshot().Inventory["Key"])
	assert.Equal(t, []string{"A Chest"}, e.CheckedLocations())
	assert.Equal(t, 1, rec.count(EventLocationChecked))

	// The granted Key immediately widens reachability.
	assert.Contains(t, e.Reachability(), "B")
}

func TestCheckLocationRejections(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.CheckLocation("No Such Place")
	assert.Equal(t, ReasonLocationNotFound, RejectReason(err))

	// B Prize's region is unreachable with an empty inventory.
	err = e.CheckLocation("B Prize")
	assert.Equal(t, ReasonNotAccessible, RejectReason(err))
	assert.Empty(t, e.CheckedLocations())

	require.NoError(t, e.CheckLocation("A Chest"))
	err = e.CheckLocation("A Chest")
	assert.Equal(t, ReasonAlreadyChecked, RejectReason(err))

	// The rejected calls changed nothing.
	assert.Equal(t, []string{"A Chest"}, e.CheckedLocations())
	assert.Equal(t, 1, e.Snapshot().Inventory["Key"])
}

func TestCheckLocationBeforeLoad(t *testing.T) {
	e := New()
	err := e.CheckLocation("Anywhere")
	assert.Equal(t, ReasonRulesNotLoaded, RejectReason(err))
}

func TestProgressiveTiers(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddItem("Key", 1)

	accessible, err := e.LocationAccessible("B Prize")
	require.NoError(t, err)
	assert.False(t, accessible)

	// Two base Sword increments satisfy the Lv2 tier check.
	e.AddItem("Sword", 1)
	e.AddItem("Sword", 1)

	accessible, err = e.LocationAccessible("B Prize")
	require.NoError(t, err)
	assert.True(t, accessible)
	assert.Equal(t, 2, e.Snapshot().Inventory["Sword"])
}

func TestUncheckLocationTakesItemBack(t *testing.T) {
	e, rec := newTestEngine(t)

	require.NoError(t, e.CheckLocation("A Chest"))
	require.NoError(t, e.UncheckLocation("A Chest"))

	assert.Empty(t, e.CheckedLocations())
	assert.Zero(t, e.Snapshot().Inventory["Key"])
	assert.Equal(t, 1, rec.count(EventLocationUnchecked))

	// Unchecking an unchecked location is a quiet no-op.
	require.NoError(t, e.UncheckLocation("A Chest"))
	assert.Equal(t, 1, rec.count(EventLocationUnchecked))
}

func TestBatchSingleRecomputeAndNotification(t *testing.T) {
	e, rec := newTestEngine(t)
	recomputesBefore := e.Stats().Recomputes
	notificationsBefore := rec.count(EventInventoryChanged) + rec.count(EventBatchCommitted)

	require.NoError(t, e.BeginBatch())
	for i := 0; i < 5; i++ {
		e.AddItem("Key", 1)
	}
	require.NoError(t, e.CommitBatch())

	assert.Equal(t, recomputesBefore+1, e.Stats().Recomputes, "five batched adds, one recompute")
	after := rec.count(EventInventoryChanged) + rec.count(EventBatchCommitted)
	assert.Equal(t, notificationsBefore+1, after, "five batched adds, one notification")
	assert.Equal(t, 1, rec.count(EventBatchCommitted))
	assert.Equal(t, 5, e.Snapshot().Inventory["Key"])
}

func TestBatchDeferRegionComputation(t *testing.T) {
	e, _ := newTestEngine(t)
	before := e.Stats().Recomputes

	require.NoError(t, e.BeginBatch(DeferRegionComputation()))
	e.AddItem("Key", 1)
	require.NoError(t, e.CommitBatch())
	assert.Equal(t, before, e.Stats().Recomputes, "deferred commit skips the recompute")

	// The next query rebuilds lazily and sees the batched mutation.
	assert.Contains(t, e.Reachability(), "B")
	assert.Equal(t, before+1, e.Stats().Recomputes)
}

func TestBatchMisuse(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.Equal(t, ReasonNoBatch, RejectReason(e.CommitBatch()))
	require.NoError(t, e.BeginBatch())
	assert.Equal(t, ReasonBatchActive, RejectReason(e.BeginBatch()))
	require.NoError(t, e.CommitBatch())
}

func TestEmptyBatchCommitIsQuiet(t *testing.T) {
	e, rec := newTestEngine(t)

	require.NoError(t, e.BeginBatch())
	require.NoError(t, e.CommitBatch())
	assert.Zero(t, rec.count(EventBatchCommitted))
}

func TestSnapshotFlags(t *testing.T) {
	e, _ := newTestEngine(t)

	snap := e.Snapshot()
	assert.True(t, snap.Flags["rulesLoaded"])
	assert.True(t, snap.Flags["cacheValid"])
	assert.False(t, snap.Flags["batchActive"])

	require.NoError(t, e.BeginBatch())
	e.AddItem("Key", 1)
	snap = e.Snapshot()
	assert.True(t, snap.Flags["batchActive"])
	assert.False(t, snap.Flags["cacheValid"])
	require.NoError(t, e.CommitBatch())
}

func TestSnapshotRevisionIncreases(t *testing.T) {
	e, _ := newTestEngine(t)

	r1 := e.Snapshot().Revision
	e.AddItem("Key", 1)
	r2 := e.Snapshot().Revision
	assert.Greater(t, r2, r1)
}

func TestLoadFailurePreservesState(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddItem("Key", 1)
	require.NoError(t, e.CheckLocation("A Chest"))
	digestBefore := e.Snapshot().MustDigest()

	err := e.LoadRuleSet([]byte(`{"format_version": 1}`))
	require.Error(t, err)

	assert.True(t, e.RulesLoaded())
	assert.Equal(t, digestBefore, e.Snapshot().MustDigest())
}

func TestReloadResetsSession(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddItem("Key", 3)
	require.NoError(t, e.CheckLocation("A Chest"))

	require.NoError(t, e.LoadRuleSet([]byte(testDoc)))
	snap := e.Snapshot()
	assert.Empty(t, snap.Inventory)
	assert.Empty(t, snap.CheckedLocations)
}

func TestRuntimeStateRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddItem("Key", 2)
	require.NoError(t, e.CheckLocation("A Chest"))
	captured := e.CaptureRuntimeState()

	fresh, rec := newTestEngine(t)
	require.NoError(t, fresh.ApplyRuntimeState(captured))

	assert.Equal(t, e.Snapshot().Inventory, fresh.Snapshot().Inventory)
	assert.Equal(t, e.CheckedLocations(), fresh.CheckedLocations())
	assert.Equal(t, 1, rec.count(EventStateApplied))
}

func TestRuntimeStateDigestMismatch(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.ApplyRuntimeState(RuntimeState{RuleSetDigest: "not-the-digest"})
	assert.Equal(t, ReasonRuleSetMismatch, RejectReason(err))
}

func TestUpdateSettingRecomputes(t *testing.T) {
	doc := `{
		"format_version": 1,
		"game": "G",
		"start_regions": ["Start"],
		"regions": {
			"Start": {"exits": [{"name": "glitch warp", "target": "Secret", "rule": {
				"type": "comparison", "op": "==",
				"left": {"type": "attribute", "object": {"type": "name", "id": "settings"}, "name": "glitches"},
				"right": true
			}}]},
			"Secret": {}
		},
		"settings": {"1": {"glitches": false}}
	}`
	rec := &recorder{}
	e := New(WithNotify(rec.notify))
	require.NoError(t, e.LoadRuleSet([]byte(doc)))

	assert.NotContains(t, e.Reachability(), "Secret")
	e.UpdateSetting("glitches", true)
	assert.Contains(t, e.Reachability(), "Secret")
	assert.Equal(t, 1, rec.count(EventSettingChanged))
}

func TestClearCheckedLocations(t *testing.T) {
	e, rec := newTestEngine(t)
	require.NoError(t, e.CheckLocation("A Chest"))

	e.ClearCheckedLocations()
	assert.Empty(t, e.CheckedLocations())
	// Inventory is deliberately untouched by a clear.
	assert.Equal(t, 1, e.Snapshot().Inventory["Key"])
	assert.Equal(t, 1, rec.count(EventCheckedCleared))

	// Clearing an empty set is not a transition.
	e.ClearCheckedLocations()
	assert.Equal(t, 1, rec.count(EventCheckedCleared))
}

func TestPathTo(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddItem("Key", 1)

	path := e.PathTo("B")
	require.Len(t, path, 2)
	assert.Equal(t, "Start:to A", path[0].Entrance)
	assert.Equal(t, "A:to B", path[1].Entrance)

	assert.Nil(t, e.PathTo("Start"), "start regions have no entrance")
	assert.Nil(t, e.PathTo("Nowhere"))
}

func TestBlockedExitsDiagnostics(t *testing.T) {
	e, _ := newTestEngine(t)

	blocked := e.BlockedExits()
	var ids []string
	for _, b := range blocked {
		ids = append(ids, b.Exit)
	}
	assert.Contains(t, ids, "A:to B")
	assert.Contains(t, ids, "Start:to D")

	e.AddItem("Key", 1)
	assert.Empty(t, e.BlockedExits())
}

func TestDefaultConstructionResolvesHelpers(t *testing.T) {
	// No options at all: the predicate chain must still reach the builtin
	// table even though no game table was supplied.
	e := New()
	require.NoError(t, e.LoadRuleSet([]byte(testDoc)))

	assert.NotContains(t, e.Reachability(), "D")

	e.AddItem("Key", 1)
	assert.Contains(t, e.Reachability(), "D",
		"can_reach_region must resolve through the builtin table")
}

func TestSlotPinnedEventGrantsOnLoad(t *testing.T) {
	// A slot-2 document with an event pinned to player 2 at the start
	// region: the very first reachability after load must already grant
	// the event, so the gated exit opens without any further mutation.
	doc := `{
		"format_version": 1,
		"game": "G",
		"player_slot": 2,
		"start_regions": ["Start"],
		"regions": {
			"Start": {
				"exits": [
					{"name": "flooded", "target": "Basin", "rule": {"type": "item_check", "item": "Flood Gate Opened"}}
				],
				"locations": [
					{"name": "Flood Lever", "item": {"name": "Flood Gate Opened", "player": 2}}
				]
			},
			"Basin": {}
		},
		"items": {
			"Flood Gate Opened": {"event": true}
		}
	}`
	e := New()
	require.NoError(t, e.LoadRuleSet([]byte(doc)))

	assert.Equal(t, 2, e.PlayerSlot())
	assert.Contains(t, e.Reachability(), "Basin")
}

func TestDiagnosticsCountUnknownHelper(t *testing.T) {
	doc := `{
		"format_version": 1,
		"game": "G",
		"start_regions": ["Start"],
		"regions": {
			"Start": {"exits": [{"name": "out", "target": "X", "rule": {"type": "helper", "name": "no_such_helper"}}]},
			"X": {}
		}
	}`
	e := New()
	require.NoError(t, e.LoadRuleSet([]byte(doc)))

	e.Reachability()
	assert.Positive(t, e.Diagnostics().UnknownHelpers)
	assert.NotContains(t, e.Reachability(), "X", "unknown helper fails closed")
}
