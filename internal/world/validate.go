package world

import (
	"fmt"
	"sort"
)

// DefaultStart is assumed when a rule set names no start regions.
const DefaultStart = "Menu"

// build performs structural validation and wires ownership references.
// Failures here abort a rule-set load; the previous world stays live.
func (w *World) build(regions []*Region, starts []string) error {
	for _, region := range regions {
		if region.Name == "" {
			return fmt.Errorf("region with empty name")
		}
		if _, dup := w.regions[region.Name]; dup {
			return fmt.Errorf("duplicate region %q", region.Name)
		}
		w.regions[region.Name] = region
		w.regionNames = append(w.regionNames, region.Name)
	}
	sort.Strings(w.regionNames)

	for _, region := range regions {
		exitNames := make(map[string]struct{}, len(region.Exits))
		for _, exit := range region.Exits {
			if exit.Name == "" {
				return fmt.Errorf("region %q has an exit with empty name", region.Name)
			}
			if _, dup := exitNames[exit.Name]; dup {
				return fmt.Errorf("region %q has duplicate exit %q", region.Name, exit.Name)
			}
			exitNames[exit.Name] = struct{}{}
			exit.Source = region.Name
			if exit.Target == "" {
				return fmt.Errorf("exit %q of region %q has no target", exit.Name, region.Name)
			}
			if _, ok := w.regions[exit.Target]; !ok {
				return fmt.Errorf("exit %q of region %q targets unknown region %q", exit.Name, region.Name, exit.Target)
			}
			w.exitCount++
		}
		for _, loc := range region.Locations {
			if loc.Name == "" {
				return fmt.Errorf("region %q has a location with empty name", region.Name)
			}
			if prev, dup := w.locations[loc.Name]; dup {
				return fmt.Errorf("location %q defined in both %q and %q", loc.Name, prev.Region, region.Name)
			}
			loc.Region = region.Name
			w.locations[loc.Name] = loc
		}
	}

	if len(starts) == 0 {
		starts = []string{DefaultStart}
	}
	for _, start := range starts {
		if _, ok := w.regions[start]; !ok {
			return fmt.Errorf("start region %q is not defined", start)
		}
	}
	w.starts = append([]string(nil), starts...)
	return nil
}
