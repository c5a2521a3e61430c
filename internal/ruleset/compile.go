package ruleset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/samber/oops"

	"github.com/quillback/waystone/internal/inventory"
	"github.com/quillback/waystone/internal/rules"
	"github.com/quillback/waystone/internal/snapshot"
	"github.com/quillback/waystone/internal/world"
)

// Compiled is the outcome of a successful load: everything the engine
// swaps in atomically on LoadRuleSet.
type Compiled struct {
	Game       string
	PlayerSlot int
	// Digest identifies the document content independent of key order and
	// formatting. Saved sessions carry it so a restore against a
	// different rule set is detectable.
	Digest   string
	Catalog  *inventory.Catalog
	World    *world.World
	Settings map[string]any
	// Warnings are authoring diagnostics (malformed rule nodes,
	// self-referencing rules). They never fail a load.
	Warnings []string
}

// Compile validates the document bytes against the embedded schema and
// builds the catalog, world, and settings. On any failure the returned
// error carries a stable code from the table in errors.go and nothing is
// partially constructed.
func Compile(data []byte) (*Compiled, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		// Schema validation already parsed the bytes, so this indicates a
		// shape the Go types cannot hold (wrong field type past the open
		// schema); report it like any other schema problem.
		return nil, oops.Code(CodeSchemaViolation).Wrapf(err, "rule-set document does not decode")
	}

	if doc.FormatVersion != FormatVersion {
		return nil, oops.
			Code(CodeUnsupportedVersion).
			With("document_version", doc.FormatVersion).
			With("supported_version", FormatVersion).
			Errorf("unsupported rule-set format_version %d", doc.FormatVersion)
	}
	if len(doc.Regions) == 0 {
		return nil, oops.Code(CodeNoRegions).Errorf("rule-set document declares no regions")
	}

	c := &Compiled{Game: doc.Game, PlayerSlot: doc.PlayerSlot}
	if c.PlayerSlot == 0 {
		c.PlayerSlot = 1
	}

	catalog, err := compileCatalog(doc.Items)
	if err != nil {
		return nil, oops.Code(CodeBadItems).Wrapf(err, "item definitions")
	}
	c.Catalog = catalog

	w, warnings, err := compileWorld(&doc)
	if err != nil {
		return nil, oops.Code(CodeBadGraph).Wrapf(err, "region graph")
	}
	c.World = w
	c.Warnings = warnings

	c.Settings = doc.Settings[strconv.Itoa(c.PlayerSlot)]
	if c.Settings == nil {
		c.Settings = map[string]any{}
	}

	digest, err := documentDigest(data)
	if err != nil {
		return nil, oops.Code(CodeBadJSON).Wrap(err)
	}
	c.Digest = digest
	return c, nil
}

func compileCatalog(items map[string]ItemDef) (*inventory.Catalog, error) {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]inventory.ItemDef, 0, len(names))
	for _, name := range names {
		def := items[name]
		defs = append(defs, inventory.ItemDef{
			Name:        name,
			Event:       def.Event,
			Groups:      def.Groups,
			Progression: def.Progressive,
		})
	}
	return inventory.NewCatalog(defs)
}

func compileWorld(doc *Document) (*world.World, []string, error) {
	var warnings []string
	lint := func(site string, n rules.Node) {
		rules.Walk(n, func(child rules.Node) bool {
			if m, ok := child.(*rules.MalformedNode); ok {
				warnings = append(warnings, fmt.Sprintf("%s: malformed rule node: %s", site, m.Reason))
			}
			return true
		})
	}

	names := make([]string, 0, len(doc.Regions))
	for name := range doc.Regions {
		names = append(names, name)
	}
	sort.Strings(names)

	regions := make([]*world.Region, 0, len(names))
	for _, name := range names {
		def := doc.Regions[name]
		region := &world.Region{Name: name}

		for _, exitDef := range def.Exits {
			exit := &world.Exit{Name: exitDef.Name, Target: exitDef.Target}
			if len(exitDef.Rule) != 0 {
				exit.Rule = rules.ParseNode(exitDef.Rule)
				lint(fmt.Sprintf("region %q exit %q", name, exitDef.Name), exit.Rule)
			}
			region.Exits = append(region.Exits, exit)
		}

		for _, locDef := range def.Locations {
			loc := &world.Location{Name: locDef.Name}
			if len(locDef.Rule) != 0 {
				loc.Rule = rules.ParseNode(locDef.Rule)
				lint(fmt.Sprintf("region %q location %q", name, locDef.Name), loc.Rule)
			}
			if locDef.Item != nil {
				loc.Item = &world.ItemPayload{Name: locDef.Item.Name, Player: locDef.Item.Player}
			}
			region.Locations = append(region.Locations, loc)
		}

		for i, raw := range def.RegionRules {
			rule := rules.ParseNode(raw)
			lint(fmt.Sprintf("region %q rule %d", name, i), rule)
			region.Rules = append(region.Rules, rule)
		}

		regions = append(regions, region)
	}

	w, err := world.New(regions, doc.StartRegions)
	if err != nil {
		return nil, nil, err
	}
	return w, append(warnings, w.Warnings()...), nil
}

// documentDigest hashes the canonical form of the decoded document, so two
// byte-different encodings of the same rule set share a digest.
func documentDigest(data []byte) (string, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("rule-set digest: %w", err)
	}
	canonical, err := snapshot.MarshalCanonical(decoded)
	if err != nil {
		return "", fmt.Errorf("rule-set digest: %w", err)
	}
	return snapshot.HashWithDomain(snapshot.DomainRuleSet, canonical), nil
}
