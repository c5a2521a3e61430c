// Package snapshot defines the immutable state projection the engine hands
// to rule evaluation and external consumers, plus the canonical JSON
// encoding and content digests used to compare states for identity.
package snapshot

import (
	"slices"
	"sort"
)

// Flag keys published in Snapshot.Flags.
const (
	FlagBatchActive = "batchActive"
	FlagCacheValid  = "cacheValid"
	FlagRulesLoaded = "rulesLoaded"
)

// Snapshot is a plain, serializable projection of engine state. Every state
// change produces a new snapshot; consumers and helper predicates must treat
// it as read-only. External UI depends on exactly this shape.
type Snapshot struct {
	// Revision increases monotonically with every state change, letting
	// callers discard stale responses.
	Revision int64 `json:"revision"`

	PlayerSlot int `json:"playerSlot"`

	// Inventory maps item name to held count. Progressive items appear
	// under their base name only.
	Inventory map[string]int `json:"inventory"`

	// CheckedLocations is sorted for deterministic encoding.
	CheckedLocations []string `json:"checkedLocations"`

	// RegionReachability covers every region of the loaded rule set.
	RegionReachability map[string]bool `json:"regionReachability"`

	// Settings are the per-slot game settings as plain JSON values.
	Settings map[string]any `json:"settings"`

	// Events lists currently granted event items, sorted.
	Events []string `json:"events"`

	// Flags carries engine status flags (see the Flag constants).
	Flags map[string]bool `json:"flags"`
}

// New returns an empty snapshot with all containers allocated.
func New() *Snapshot {
	return &Snapshot{
		Inventory:          map[string]int{},
		CheckedLocations:   []string{},
		RegionReachability: map[string]bool{},
		Settings:           map[string]any{},
		Events:             []string{},
		Flags:              map[string]bool{},
	}
}

// Normalize sorts the slice fields and replaces nil containers with empty
// ones so encoding is deterministic regardless of construction order.
func (s *Snapshot) Normalize() {
	if s.Inventory == nil {
		s.Inventory = map[string]int{}
	}
	if s.CheckedLocations == nil {
		s.CheckedLocations = []string{}
	}
	if s.RegionReachability == nil {
		s.RegionReachability = map[string]bool{}
	}
	if s.Settings == nil {
		s.Settings = map[string]any{}
	}
	if s.Events == nil {
		s.Events = []string{}
	}
	if s.Flags == nil {
		s.Flags = map[string]bool{}
	}
	sort.Strings(s.CheckedLocations)
	sort.Strings(s.Events)
}

// Clone returns a deep copy. Settings values are copied through the generic
// JSON shapes (maps, slices, scalars); anything else is shared, which is
// safe because settings originate from decoded JSON.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Revision:           s.Revision,
		PlayerSlot:         s.PlayerSlot,
		Inventory:          make(map[string]int, len(s.Inventory)),
		CheckedLocations:   slices.Clone(s.CheckedLocations),
		RegionReachability: make(map[string]bool, len(s.RegionReachability)),
		Settings:           make(map[string]any, len(s.Settings)),
		Events:             slices.Clone(s.Events),
		Flags:              make(map[string]bool, len(s.Flags)),
	}
	for k, v := range s.Inventory {
		out.Inventory[k] = v
	}
	for k, v := range s.RegionReachability {
		out.RegionReachability[k] = v
	}
	for k, v := range s.Settings {
		out.Settings[k] = cloneAny(v)
	}
	for k, v := range s.Flags {
		out.Flags[k] = v
	}
	return out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = cloneAny(el)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = cloneAny(el)
		}
		return out
	default:
		return t
	}
}
