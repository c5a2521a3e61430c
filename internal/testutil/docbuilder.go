package testutil

import (
	"encoding/json"

	"github.com/quillback/waystone/internal/ruleset"
)

// DocBuilder assembles rule-set documents for tests without hand-writing
// JSON. The zero value is not usable; start with NewDoc.
type DocBuilder struct {
	doc ruleset.Document
}

// NewDoc starts a document for the named game with the given start
// regions.
func NewDoc(game string, starts ...string) *DocBuilder {
	return &DocBuilder{doc: ruleset.Document{
		FormatVersion: ruleset.FormatVersion,
		Game:          game,
		StartRegions:  starts,
		Regions:       make(map[string]ruleset.RegionDef),
		Items:         make(map[string]ruleset.ItemDef),
	}}
}

// Region adds an empty region. Regions referenced by exits must exist.
func (b *DocBuilder) Region(name string) *DocBuilder {
	if _, ok := b.doc.Regions[name]; !ok {
		b.doc.Regions[name] = ruleset.RegionDef{}
	}
	return b
}

// Exit adds a directed edge. A nil rule means the exit is open.
func (b *DocBuilder) Exit(from, name, target string, rule json.RawMessage) *DocBuilder {
	b.Region(from).Region(target)
	r := b.doc.Regions[from]
	r.Exits = append(r.Exits, ruleset.ExitDef{Name: name, Target: target, Rule: rule})
	b.doc.Regions[from] = r
	return b
}

// Location adds a checkable location to a region. item may be "" for a
// location with no payload.
func (b *DocBuilder) Location(region, name string, rule json.RawMessage, item string) *DocBuilder {
	b.Region(region)
	def := ruleset.LocationDef{Name: name, Rule: rule}
	if item != "" {
		def.Item = &ruleset.ItemPayloadDef{Name: item}
	}
	r := b.doc.Regions[region]
	r.Locations = append(r.Locations, def)
	b.doc.Regions[region] = r
	return b
}

// Item declares a plain item.
func (b *DocBuilder) Item(name string, groups ...string) *DocBuilder {
	b.doc.Items[name] = ruleset.ItemDef{Groups: groups}
	return b
}

// Event declares an event item.
func (b *DocBuilder) Event(name string) *DocBuilder {
	b.doc.Items[name] = ruleset.ItemDef{Event: true}
	return b
}

// Progressive declares a progressive item with its tier names in order.
func (b *DocBuilder) Progressive(name string, tiers ...string) *DocBuilder {
	b.doc.Items[name] = ruleset.ItemDef{Progressive: tiers}
	return b
}

// Settings sets one slot's settings block.
func (b *DocBuilder) Settings(slot string, values map[string]any) *DocBuilder {
	if b.doc.Settings == nil {
		b.doc.Settings = make(map[string]map[string]any)
	}
	b.doc.Settings[slot] = values
	return b
}

// JSON renders the document.
func (b *DocBuilder) JSON() []byte {
	data, err := json.Marshal(b.doc)
	if err != nil {
		panic(err) // Document holds only marshalable shapes.
	}
	return data
}

// Rule helpers for terse fixtures.

// ItemRule is an item_check rule node.
func ItemRule(item string) json.RawMessage {
	data, _ := json.Marshal(map[string]any{"type": "item_check", "item": item})
	return data
}

// CountRule is a count_check rule node.
func CountRule(item string, count int) json.RawMessage {
	data, _ := json.Marshal(map[string]any{"type": "count_check", "item": item, "count": count})
	return data
}

// HelperRule is a helper call node.
func HelperRule(name string, args ...any) json.RawMessage {
	data, _ := json.Marshal(map[string]any{"type": "helper", "name": name, "args": args})
	return data
}
