package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/quillback/waystone/internal/snapshot"
)

// goldenSnapshot is the canonical-JSON shape compared against golden
// files. Revisions are excluded: they come from a process-wide counter
// and depend on what ran before the scenario.
func goldenSnapshot(scenario *Scenario, result *Result) map[string]any {
	trace := make([]any, len(result.Trace))
	for i, e := range result.Trace {
		event := map[string]any{
			"step":    e.Step,
			"command": e.Command,
			"status":  e.Status,
		}
		if e.Code != "" {
			event["code"] = e.Code
		}
		trace[i] = event
	}

	final := map[string]any{}
	if s := result.Snapshot; s != nil {
		inventory := map[string]any{}
		for item, n := range s.Inventory {
			inventory[item] = n
		}
		reachability := map[string]any{}
		for region, ok := range s.RegionReachability {
			reachability[region] = ok
		}
		final["inventory"] = inventory
		final["checked_locations"] = toAnyList(s.CheckedLocations)
		final["events"] = toAnyList(s.Events)
		final["region_reachability"] = reachability
	}

	return map[string]any{
		"scenario":    scenario.Name,
		"trace":       trace,
		"final_state": final,
	}
}

func toAnyList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// RunWithGolden executes a scenario, fails the test on any expectation
// or assertion error, and compares the transcript against
// testdata/golden/{scenario.Name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	data, err := snapshot.MarshalCanonical(goldenSnapshot(scenario, result))
	if err != nil {
		t.Fatalf("marshal transcript: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}
