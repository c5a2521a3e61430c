package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: load a rule set, run a
// sequence of commands, assert on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files use it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules is the path to the rule-set JSON document, relative to the
	// scenario file unless absolute.
	Rules string `yaml:"rules"`

	// Setup commands establish initial state and must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps is the main flow. Each step may carry an expect clause.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final snapshot and listing.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one protocol command. The fields mirror the request envelope;
// only the ones the command reads need to be set.
type Step struct {
	Command  string         `yaml:"command"`
	Item     string         `yaml:"item,omitempty"`
	Count    int            `yaml:"count,omitempty"`
	Location string         `yaml:"location,omitempty"`
	Setting  string         `yaml:"setting,omitempty"`
	Value    any            `yaml:"value,omitempty"`
	Items    map[string]int `yaml:"items,omitempty"`
	// DeferRegions sets the beginBatchUpdate option.
	DeferRegions bool `yaml:"defer_regions,omitempty"`

	// Expect validates the response. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected response outcome.
type ExpectClause struct {
	// Status is "ok", "rejected", or "error".
	Status string `yaml:"status"`
	// Code is the expected rejection reason or error code. Empty means
	// any code.
	Code string `yaml:"code,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type selects the assertion:
	//   - "region": Region must have Reachable reachability
	//   - "location": Location must have Accessible accessibility
	//   - "inventory": Item must be held exactly Count times
	//   - "checked": CheckedLocations must equal Locations exactly
	//   - "event": Event must have Granted granted state
	Type string `yaml:"type"`

	Region    string `yaml:"region,omitempty"`
	Reachable bool   `yaml:"reachable,omitempty"`

	Location   string `yaml:"location,omitempty"`
	Accessible bool   `yaml:"accessible,omitempty"`

	Item  string `yaml:"item,omitempty"`
	Count int    `yaml:"count,omitempty"`

	Locations []string `yaml:"locations,omitempty"`

	Event   string `yaml:"event,omitempty"`
	Granted bool   `yaml:"granted,omitempty"`
}

// Assertion type constants.
const (
	AssertRegion    = "region"
	AssertLocation  = "location"
	AssertInventory = "inventory"
	AssertChecked   = "checked"
	AssertEvent     = "event"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly, and the rules path is resolved relative
// to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if scenario.Rules != "" && !filepath.IsAbs(scenario.Rules) {
		scenario.Rules = filepath.Join(filepath.Dir(path), scenario.Rules)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Rules == "" {
		return fmt.Errorf("rules is required")
	}
	if _, err := os.Stat(s.Rules); err != nil {
		return fmt.Errorf("rules file not found: %s", s.Rules)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Command == "" {
			return fmt.Errorf("setup[%d]: command is required", i)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps must succeed, expect is not allowed", i)
		}
	}
	for i, step := range s.Steps {
		if step.Command == "" {
			return fmt.Errorf("steps[%d]: command is required", i)
		}
		if step.Expect != nil {
			switch step.Expect.Status {
			case "ok", "rejected", "error":
			default:
				return fmt.Errorf("steps[%d].expect: unknown status %q", i, step.Expect.Status)
			}
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertRegion:
		if a.Region == "" {
			return fmt.Errorf("assertions[%d]: region is required", index)
		}
	case AssertLocation:
		if a.Location == "" {
			return fmt.Errorf("assertions[%d]: location is required", index)
		}
	case AssertInventory:
		if a.Item == "" {
			return fmt.Errorf("assertions[%d]: item is required", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must not be negative", index)
		}
	case AssertChecked:
		// An empty locations list asserts nothing is checked.
	case AssertEvent:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
