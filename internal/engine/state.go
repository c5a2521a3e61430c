package engine

import (
	"github.com/samber/oops"
)

// RuntimeState is the portable capture of a session: everything mutable,
// nothing derived. The session package persists it; restores go through
// ApplyRuntimeState.
type RuntimeState struct {
	RuleSetDigest string         `json:"rulesetDigest"`
	PlayerSlot    int            `json:"playerSlot"`
	Inventory     map[string]int `json:"inventory"`
	Checked       []string       `json:"checkedLocations"`
	Settings      map[string]any `json:"settings"`
}

// CaptureRuntimeState snapshots the mutable session state for persistence.
func (e *Engine) CaptureRuntimeState() RuntimeState {
	return RuntimeState{
		RuleSetDigest: e.RuleSetDigest(),
		PlayerSlot:    e.PlayerSlot(),
		Inventory:     e.inv.Counts(),
		Checked:       e.CheckedLocations(),
		Settings:      cloneSettings(e.settings),
	}
}

// ApplyRuntimeState replaces inventory, checked locations, and settings
// wholesale from a captured state. The state must have been captured
// against the loaded rule set: a digest mismatch rejects without touching
// anything. Checked names the world no longer defines are dropped with a
// warning rather than failing the whole restore.
func (e *Engine) ApplyRuntimeState(st RuntimeState) error {
	if err := e.requireRules(); err != nil {
		return err
	}
	if st.RuleSetDigest != "" && st.RuleSetDigest != e.compiled.Digest {
		return oops.Code(ReasonRuleSetMismatch).
			With("state_digest", st.RuleSetDigest).
			With("loaded_digest", e.compiled.Digest).
			Errorf("runtime state was captured against a different rule set")
	}

	e.inv.SetCounts(st.Inventory)

	e.checked = make(map[string]struct{}, len(st.Checked))
	for _, name := range st.Checked {
		if _, ok := e.compiled.World.Location(name); !ok {
			e.logger.Warn("dropping unknown checked location from restored state", "location", name)
			continue
		}
		e.checked[name] = struct{}{}
	}

	if st.Settings != nil {
		e.settings = cloneSettings(st.Settings)
	}

	e.afterMutation(EventStateApplied)
	return nil
}
