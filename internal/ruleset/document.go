// Package ruleset loads rule-set documents: the JSON description of a
// game's regions, items, and settings that the engine compiles into an
// immutable world and item catalog. An embedded CUE schema validates the
// document before compilation, so structural mistakes surface as load
// errors with stable codes instead of silent fail-closed rules.
package ruleset

import "encoding/json"

// FormatVersion is the rule-set document version this build reads.
const FormatVersion = 1

// Document is the raw decoded shape of a rule-set file. Rule expressions
// stay as raw JSON here; Compile parses them into AST nodes.
type Document struct {
	FormatVersion int                       `json:"format_version"`
	Game          string                    `json:"game"`
	PlayerSlot    int                       `json:"player_slot,omitempty"`
	StartRegions  []string                  `json:"start_regions,omitempty"`
	Regions       map[string]RegionDef      `json:"regions"`
	Items         map[string]ItemDef        `json:"items,omitempty"`
	Settings      map[string]map[string]any `json:"settings,omitempty"`
}

// RegionDef is one region entry of the document.
type RegionDef struct {
	Exits       []ExitDef         `json:"exits,omitempty"`
	Locations   []LocationDef     `json:"locations,omitempty"`
	RegionRules []json.RawMessage `json:"region_rules,omitempty"`
}

// ExitDef is a directed edge declaration.
type ExitDef struct {
	Name   string          `json:"name"`
	Target string          `json:"target"`
	Rule   json.RawMessage `json:"rule,omitempty"`
}

// LocationDef is a checkable location declaration.
type LocationDef struct {
	Name string          `json:"name"`
	Rule json.RawMessage `json:"rule,omitempty"`
	Item *ItemPayloadDef `json:"item,omitempty"`
}

// ItemPayloadDef names what a location yields and which player slot owns
// it. Player 0 means every slot.
type ItemPayloadDef struct {
	Name   string `json:"name"`
	Player int    `json:"player,omitempty"`
}

// ItemDef is one item entry of the document.
type ItemDef struct {
	Event       bool     `json:"event,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	Progressive []string `json:"progressive,omitempty"`
}
