package harness

import (
	"fmt"
	"slices"
)

// EvaluateAssertions checks every assertion against the result's final
// snapshot and listing, recording failures in the result.
func EvaluateAssertions(result *Result, assertions []Assertion) {
	if result.Snapshot == nil {
		if len(assertions) > 0 {
			result.AddError("no final snapshot to assert on")
		}
		return
	}

	for i, a := range assertions {
		switch a.Type {
		case AssertRegion:
			assertRegion(result, i, a)
		case AssertLocation:
			assertLocation(result, i, a)
		case AssertInventory:
			assertInventory(result, i, a)
		case AssertChecked:
			assertChecked(result, i, a)
		case AssertEvent:
			assertEvent(result, i, a)
		default:
			result.AddError(fmt.Sprintf("assertions[%d]: unknown type %q", i, a.Type))
		}
	}
}

func assertRegion(result *Result, index int, a Assertion) {
	got, known := result.Snapshot.RegionReachability[a.Region]
	if !known {
		result.AddError(fmt.Sprintf("assertions[%d]: region %q is not in the world", index, a.Region))
		return
	}
	if got != a.Reachable {
		result.AddError(fmt.Sprintf("assertions[%d]: region %q reachable=%v, want %v",
			index, a.Region, got, a.Reachable))
	}
}

func assertLocation(result *Result, index int, a Assertion) {
	for _, row := range result.Listing {
		if row.Name != a.Location {
			continue
		}
		if row.Accessible != a.Accessible {
			result.AddError(fmt.Sprintf("assertions[%d]: location %q accessible=%v, want %v",
				index, a.Location, row.Accessible, a.Accessible))
		}
		return
	}
	result.AddError(fmt.Sprintf("assertions[%d]: location %q is not in the world", index, a.Location))
}

func assertInventory(result *Result, index int, a Assertion) {
	got := result.Snapshot.Inventory[a.Item]
	if got != a.Count {
		result.AddError(fmt.Sprintf("assertions[%d]: inventory[%q]=%d, want %d",
			index, a.Item, got, a.Count))
	}
}

func assertChecked(result *Result, index int, a Assertion) {
	want := slices.Clone(a.Locations)
	slices.Sort(want)
	got := result.Snapshot.CheckedLocations // already sorted
	if !slices.Equal(got, want) {
		result.AddError(fmt.Sprintf("assertions[%d]: checked locations %v, want %v",
			index, got, want))
	}
}

func assertEvent(result *Result, index int, a Assertion) {
	got := slices.Contains(result.Snapshot.Events, a.Event)
	if got != a.Granted {
		result.AddError(fmt.Sprintf("assertions[%d]: event %q granted=%v, want %v",
			index, a.Event, got, a.Granted))
	}
}
