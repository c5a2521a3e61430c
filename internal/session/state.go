package session

import (
	"fmt"
	"time"

	"github.com/quillback/waystone/internal/engine"
	"github.com/quillback/waystone/internal/snapshot"
)

// StateVersion is the capture format version. Bump on any change to the
// State shape; Import and Load reject versions this build does not read.
const StateVersion = 1

// State is one captured session: the engine's mutable state plus the
// identity of the rule set it belongs to.
type State struct {
	Version       int            `json:"version"`
	Game          string         `json:"game"`
	RuleSetDigest string         `json:"rulesetDigest"`
	PlayerSlot    int            `json:"playerSlot"`
	SavedAt       time.Time      `json:"savedAt"`
	Inventory     map[string]int `json:"inventory"`
	Checked       []string       `json:"checkedLocations"`
	Settings      map[string]any `json:"settings"`
}

// Capture snapshots an engine's runtime state for persistence.
func Capture(e *engine.Engine) State {
	rt := e.CaptureRuntimeState()
	return State{
		Version:       StateVersion,
		Game:          e.Game(),
		RuleSetDigest: rt.RuleSetDigest,
		PlayerSlot:    rt.PlayerSlot,
		SavedAt:       time.Now().UTC(),
		Inventory:     rt.Inventory,
		Checked:       rt.Checked,
		Settings:      rt.Settings,
	}
}

// Runtime converts the capture back to the engine's restore shape.
func (s State) Runtime() engine.RuntimeState {
	return engine.RuntimeState{
		RuleSetDigest: s.RuleSetDigest,
		PlayerSlot:    s.PlayerSlot,
		Inventory:     s.Inventory,
		Checked:       s.Checked,
		Settings:      s.Settings,
	}
}

// Validate rejects captures this build cannot restore.
func (s State) Validate() error {
	if s.Version != StateVersion {
		return fmt.Errorf("unsupported session state version %d (supported: %d)", s.Version, StateVersion)
	}
	return nil
}

// Digest computes the content digest of the capture. SavedAt is excluded:
// two captures of identical play state are identical regardless of when
// they were taken.
func (s State) Digest() (string, error) {
	inventory := make(map[string]any, len(s.Inventory))
	for k, v := range s.Inventory {
		inventory[k] = v
	}
	checked := make([]any, len(s.Checked))
	for i, name := range s.Checked {
		checked[i] = name
	}
	obj := map[string]any{
		"version":          s.Version,
		"game":             s.Game,
		"rulesetDigest":    s.RuleSetDigest,
		"playerSlot":       s.PlayerSlot,
		"inventory":        inventory,
		"checkedLocations": checked,
		"settings":         s.Settings,
	}
	canonical, err := snapshot.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("session state digest: %w", err)
	}
	return snapshot.HashWithDomain(snapshot.DomainState, canonical), nil
}
