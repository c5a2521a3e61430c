package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillback/waystone/internal/testutil"
)

// writeScenarioDir writes a rule set plus passing and failing scenarios
// into one temp directory and returns it.
func writeScenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	doc := testutil.NewDoc("Testgame", "Start").
		Region("Start").
		Region("A").
		Exit("Start", "to A", "A", testutil.CountRule("Key", 1)).
		Location("Start", "Start Chest", nil, "Key").
		Location("A", "A Chest", nil, "Triforce").
		Item("Key").
		Item("Triforce").
		JSON()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rules.json"), doc, 0o644))

	passing := `name: chest-opens-exit
description: the starting chest grants the key that opens the exit
rules: rules.json
steps:
  - command: checkLocation
    location: Start Chest
  - command: checkLocation
    location: A Chest
assertions:
  - type: region
    region: A
    reachable: true
  - type: inventory
    item: Triforce
    count: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passing.yaml"), []byte(passing), 0o644))

	failing := `name: wrong-expectation
description: checks a location that is not accessible yet
rules: rules.json
steps:
  - command: checkLocation
    location: A Chest
assertions:
  - type: inventory
    item: Triforce
    count: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "failing.yaml"), []byte(failing), 0o644))

	return dir
}

func TestRunScenarioDirectory(t *testing.T) {
	dir := writeScenarioDir(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err) // one scenario fails
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "PASS  chest-opens-exit")
	assert.Contains(t, output, "FAIL  wrong-expectation")
	assert.Contains(t, output, "1 passed, 1 failed, 2 total")
}

func TestRunScenarioFilter(t *testing.T) {
	dir := writeScenarioDir(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "--filter", "chest-*"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(1), data["passed"])
}

func TestRunSingleScenarioFile(t *testing.T) {
	dir := writeScenarioDir(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join(dir, "passing.yaml")})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
}

func TestRunNoScenarios(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCollectScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := collectScenarioFiles([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.yml"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.yaml"), files[1])
}

func TestCollectScenarioFilesMissingPath(t *testing.T) {
	_, err := collectScenarioFiles([]string{"/nonexistent/scenarios"})
	require.Error(t, err)
}
