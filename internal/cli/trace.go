package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillback/waystone/internal/search"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Items      []string
	Region     string
	Predicates string
}

// TraceResult explains how (or why not) a region is reached.
type TraceResult struct {
	Region    string               `json:"region"`
	Reachable bool                 `json:"reachable"`
	Path      []search.PathStep    `json:"path,omitempty"`
	Blocked   []search.BlockedExit `json:"blocked,omitempty"`
	Passes    int                  `json:"passes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <ruleset.json>",
		Short: "Explain reachability of a region",
		Long: `Trace the search result for one region: the exit path that reaches it,
or the blocked exits that would lead toward it.

Examples:
  waystone trace rules.json --region B --item Key=1
  waystone trace rules.json --region D --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Items, "item", nil, "held item as name=count (repeatable)")
	cmd.Flags().StringVar(&opts.Region, "region", "", "region to trace (required)")
	cmd.Flags().StringVar(&opts.Predicates, "predicates", "", "Lua predicate script providing game helpers")
	_ = cmd.MarkFlagRequired("region")

	return cmd
}

func runTrace(opts *TraceOptions, path string, cmd *cobra.Command) error {
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

	result := TraceResult{
		Region:    opts.Region,
		Reachable: eng.RegionReachable(opts.Region),
		Passes:    eng.Stats().LastPasses,
	}
	if result.Reachable {
		result.Path = eng.PathTo(opts.Region)
	} else {
		result.Blocked = eng.BlockedExits()
	}

	if opts.Format == "json" {
		return formatter.JSON(result)
	}

	if result.Reachable {
		fmt.Fprintf(formatter.Writer, "%s is reachable in %d passes:\n", result.Region, result.Passes)
		for _, step := range result.Path {
			fmt.Fprintf(formatter.Writer, "  %s --(%s)-->\n", step.Previous, step.Entrance)
		}
	} else {
		fmt.Fprintf(formatter.Writer, "%s is not reachable; blocked exits:\n", result.Region)
		for _, b := range result.Blocked {
			fmt.Fprintf(formatter.Writer, "  %s --(%s)--> %s: %s\n", b.Source, b.Exit, b.Target, b.Reason)
		}
	}
	return nil
}
