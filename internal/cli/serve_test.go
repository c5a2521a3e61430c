package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServeConfigDefaults(t *testing.T) {
	cmd := NewServeCommand(&RootOptions{Format: "text"})
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := loadServeConfig(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, ":8756", cfg.Listen)
	assert.Empty(t, cfg.RuleSet)
	assert.False(t, cfg.TestCommands)
}

func TestLoadServeConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "serve.yaml")
	config := `listen: ":9100"
ruleset: world.json
test_commands: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	cmd := NewServeCommand(&RootOptions{Format: "text"})
	require.NoError(t, cmd.ParseFlags([]string{"--config", configPath}))

	cfg, err := loadServeConfig(cmd, configPath)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Listen)
	assert.Equal(t, "world.json", cfg.RuleSet)
	assert.True(t, cfg.TestCommands)
}

func TestLoadServeConfigFlagsWin(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "serve.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("listen: \":9100\"\n"), 0o644))

	cmd := NewServeCommand(&RootOptions{Format: "text"})
	require.NoError(t, cmd.ParseFlags([]string{"--config", configPath, "--listen", ":7000"}))

	cfg, err := loadServeConfig(cmd, configPath)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Listen)
}

func TestLoadServeConfigMissingFile(t *testing.T) {
	cmd := NewServeCommand(&RootOptions{Format: "text"})
	require.NoError(t, cmd.ParseFlags(nil))

	_, err := loadServeConfig(cmd, "/nonexistent/serve.yaml")
	require.Error(t, err)
}
