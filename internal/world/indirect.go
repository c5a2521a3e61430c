package world

import (
	"fmt"

	"github.com/quillback/waystone/internal/rules"
)

// buildIndirect scans access rules for references to other regions and
// records them in the indirect-connections index. An exit whose rule calls a
// predicate naming region X must be re-tested whenever X flips reachable,
// even though X is not one of the exit's endpoints. Region-level rules index
// the region's entering exits, since those are the edges whose traversal the
// rule gates.
//
// Detection is deliberately over-approximate: any literal string argument of
// a call-shaped node that names a defined region (or a defined location,
// standing for its owner region) counts as a reference. A false positive
// only schedules a redundant re-test, while a false negative would leave the
// fixed point short of edges it should revisit.
func (w *World) buildIndirect() {
	entering := make(map[string][]*Exit)
	for _, regionName := range w.regionNames {
		for _, exit := range w.regions[regionName].Exits {
			entering[exit.Target] = append(entering[exit.Target], exit)
		}
	}

	add := func(ref string, exit *Exit) {
		for _, existing := range w.indirect[ref] {
			if existing == exit {
				return
			}
		}
		w.indirect[ref] = append(w.indirect[ref], exit)
	}

	for _, regionName := range w.regionNames {
		region := w.regions[regionName]

		for _, exit := range region.Exits {
			if exit.Rule == nil {
				continue
			}
			for _, ref := range w.referencedRegions(exit.Rule) {
				if ref == exit.Target {
					// The target is re-tested directly; no index entry needed.
					continue
				}
				if ref == exit.Source {
					w.warnings = append(w.warnings,
						fmt.Sprintf("exit %q of region %q references its own source region", exit.Name, exit.Source))
					continue
				}
				add(ref, exit)
			}
		}

		for _, rule := range region.Rules {
			for _, ref := range w.referencedRegions(rule) {
				if ref == region.Name {
					w.warnings = append(w.warnings,
						fmt.Sprintf("region %q has an access rule referencing itself", region.Name))
					continue
				}
				for _, exit := range entering[region.Name] {
					add(ref, exit)
				}
			}
		}
	}
}

// referencedRegions collects distinct region names referenced by literal
// string arguments anywhere in the rule tree.
func (w *World) referencedRegions(rule rules.Node) []string {
	var refs []string
	seen := make(map[string]struct{})
	record := func(region string) {
		if _, ok := seen[region]; ok {
			return
		}
		seen[region] = struct{}{}
		refs = append(refs, region)
	}

	rules.Walk(rule, func(n rules.Node) bool {
		var args []rules.Node
		switch t := n.(type) {
		case *rules.HelperNode:
			args = t.Args
		case *rules.StateMethodNode:
			args = t.Args
		case *rules.FunctionCallNode:
			args = t.Args
		default:
			return true
		}
		for _, arg := range args {
			lit, ok := arg.(*rules.LiteralNode)
			if !ok {
				continue
			}
			s, ok := lit.Value.(rules.String)
			if !ok {
				continue
			}
			name := string(s)
			if _, isRegion := w.regions[name]; isRegion {
				record(name)
			} else if loc, isLocation := w.locations[name]; isLocation {
				record(loc.Region)
			}
		}
		return true
	})
	return refs
}
