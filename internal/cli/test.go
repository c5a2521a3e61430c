package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillback/waystone/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>...",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios against the engine. Arguments are scenario
YAML files or directories searched for *.yaml files.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths)

Examples:
  waystone test ./scenarios
  waystone test ./scenarios --filter "batch-*"
  waystone test key-unlock.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by name glob")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := collectScenarioFiles(paths)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files))}
	for _, file := range files {
		sr := runOneScenario(file, opts, formatter)
		if sr == nil {
			continue // filtered out
		}
		result.Scenarios = append(result.Scenarios, *sr)
		result.Total++
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if err := formatter.JSON(result); err != nil {
			return err
		}
	} else {
		for _, sr := range result.Scenarios {
			status := "PASS"
			if !sr.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(formatter.Writer, "%s  %s\n", status, sr.Name)
			for _, msg := range sr.Errors {
				fmt.Fprintf(formatter.Writer, "      %s\n", msg)
			}
		}
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed, %d total\n",
			result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func runOneScenario(file string, opts *TestOptions, formatter *OutputFormatter) *ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return &ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{err.Error()},
		}
	}

	if opts.Filter != "" {
		matched, err := filepath.Match(opts.Filter, scenario.Name)
		if err != nil || !matched {
			return nil
		}
	}

	formatter.VerboseLog("running scenario %s (%s)", scenario.Name, file)
	result, err := harness.Run(scenario)
	if err != nil {
		return &ScenarioResult{Name: scenario.Name, Errors: []string{err.Error()}}
	}
	return &ScenarioResult{
		Name:   scenario.Name,
		Pass:   result.Passed(),
		Errors: result.Errors,
	}
}

// collectScenarioFiles expands directories to their *.yaml files.
func collectScenarioFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
				continue
			}
			files = append(files, filepath.Join(path, name))
		}
	}
	sort.Strings(files)
	return files, nil
}
