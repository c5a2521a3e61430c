package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillback/waystone/internal/engine"
	"github.com/quillback/waystone/internal/predicate/lua"
	"github.com/quillback/waystone/internal/query"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Items      []string
	Location   string
	Region     string
	Predicates string
}

// EvalResult is the one-shot evaluation output.
type EvalResult struct {
	Reachable []string         `json:"reachable"`
	Locations []query.Location `json:"locations,omitempty"`
	// Location/Region answer the respective probe flags when set.
	Location *bool `json:"location,omitempty"`
	Region   *bool `json:"region,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <ruleset.json>",
		Short: "Evaluate reachability for an inventory",
		Long: `Evaluate a rule set against a fixed inventory and report what is
reachable. With --location or --region, answer that single probe instead
of listing everything.

Examples:
  waystone eval rules.json --item Key=1 --item Sword=2
  waystone eval rules.json --item Key=1 --location "B Prize"
  waystone eval rules.json --region B --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Items, "item", nil, "held item as name=count (repeatable; count defaults to 1)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "probe a single location's accessibility")
	cmd.Flags().StringVar(&opts.Region, "region", "", "probe a single region's reachability")
	cmd.Flags().StringVar(&opts.Predicates, "predicates", "", "Lua predicate script providing game helpers")

	return cmd
}

func runEval(opts *EvalOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	eng, err := loadEngine(path, opts.Predicates)
	if err != nil {
		return err
	}

	counts, err := parseItemFlags(opts.Items)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if len(counts) > 0 {
		if err := eng.SetInventory(counts); err != nil {
			return err
		}
	}

	result := EvalResult{Reachable: eng.Reachability()}

	switch {
	case opts.Location != "":
		accessible, err := eng.LocationAccessible(opts.Location)
		if err != nil {
			return NewExitError(ExitCommandError, err.Error())
		}
		result.Location = &accessible
	case opts.Region != "":
		reachable := eng.RegionReachable(opts.Region)
		result.Region = &reachable
	default:
		rows, err := eng.ListLocations(query.Filter{})
		if err != nil {
			return err
		}
		result.Locations = rows
	}

	if opts.Format == "json" {
		return formatter.JSON(result)
	}
	return printEvalText(formatter, opts, result)
}

func printEvalText(f *OutputFormatter, opts *EvalOptions, result EvalResult) error {
	switch {
	case result.Location != nil:
		fmt.Fprintf(f.Writer, "%s: accessible=%v\n", opts.Location, *result.Location)
	case result.Region != nil:
		fmt.Fprintf(f.Writer, "%s: reachable=%v\n", opts.Region, *result.Region)
	default:
		fmt.Fprintf(f.Writer, "Reachable regions (%d):\n", len(result.Reachable))
		for _, r := range result.Reachable {
			fmt.Fprintf(f.Writer, "  %s\n", r)
		}
		fmt.Fprintf(f.Writer, "Locations (%d):\n", len(result.Locations))
		for _, loc := range result.Locations {
			marker := " "
			if loc.Accessible {
				marker = "*"
			}
			fmt.Fprintf(f.Writer, "  %s %s (%s)\n", marker, loc.Name, loc.Region)
		}
	}
	return nil
}

// loadEngine builds an engine with the rule set at path loaded, optionally
// backed by a Lua predicate script.
func loadEngine(path, predicates string) (*engine.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("cannot read rule set: %v", err))
	}
	var engOpts []engine.Option
	if predicates != "" {
		table, err := lua.LoadFile(predicates)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("cannot load predicates: %v", err))
		}
		engOpts = append(engOpts, engine.WithScriptPredicates(table))
	}
	eng := engine.New(engOpts...)
	if err := eng.LoadRuleSet(data); err != nil {
		return nil, &ExitError{Code: ExitFailure, Message: "rule set failed to load", Err: err}
	}
	return eng, nil
}

// parseItemFlags parses repeated name=count flags. A bare name counts as 1.
func parseItemFlags(items []string) (map[string]int, error) {
	counts := make(map[string]int, len(items))
	for _, spec := range items {
		name, countStr, found := strings.Cut(spec, "=")
		if name == "" {
			return nil, fmt.Errorf("bad --item %q: empty name", spec)
		}
		n := 1
		if found {
			parsed, err := strconv.Atoi(countStr)
			if err != nil || parsed < 0 {
				return nil, fmt.Errorf("bad --item %q: count must be a non-negative integer", spec)
			}
			n = parsed
		}
		counts[name] += n
	}
	return counts, nil
}
