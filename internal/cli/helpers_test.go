package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillback/waystone/internal/testutil"
)

// writeTestRules writes a small rule set to a temp dir and returns its
// path. Start Chest holds the Key that opens the only exit; A Chest
// behind it holds the Triforce.
func writeTestRules(t *testing.T) string {
	t.Helper()
	doc := testutil.NewDoc("Testgame", "Start").
		Region("Start").
		Region("A").
		Exit("Start", "to A", "A", testutil.CountRule("Key", 1)).
		Location("Start", "Start Chest", nil, "Key").
		Location("A", "A Chest", nil, "Triforce").
		Item("Key").
		Item("Triforce").
		JSON()

	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, doc, 0o644))
	return path
}
