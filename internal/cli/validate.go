package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillback/waystone/internal/ruleset"
)

// ValidationResult holds the outcome of validating one rule-set file.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Game     string   `json:"game,omitempty"`
	Digest   string   `json:"digest,omitempty"`
	Regions  int      `json:"regions,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <ruleset.json>",
		Short: "Validate a rule-set document",
		Long: `Validate a rule-set document: JSON shape, schema conformance, graph
consistency, and item references. Rule expressions that fail to parse are
reported as warnings, since they fail closed at evaluation time rather
than blocking the load.

Exit codes:
  0 - Document is valid
  1 - Document failed validation
  2 - Command error (file not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	data, err := os.ReadFile(path)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("cannot read rule set: %v", err))
	}

	compiled, err := ruleset.Compile(data)
	if err != nil {
		code := ruleset.CodeOf(err)
		if code == "" {
			code = "E000"
		}
		if outErr := formatter.Error(code, err.Error(), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, "rule set failed validation")
	}

	result := ValidationResult{
		Valid:    true,
		Game:     compiled.Game,
		Digest:   compiled.Digest,
		Regions:  compiled.World.NumRegions(),
		Warnings: compiled.Warnings,
	}

	if opts.Format == "json" {
		return formatter.JSON(result)
	}

	fmt.Fprintf(formatter.Writer, "%s: valid (%s, %d regions)\n", path, result.Game, result.Regions)
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", w)
	}
	return nil
}
