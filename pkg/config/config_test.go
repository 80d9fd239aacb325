package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyframe.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "json", cfg.Format)
	require.Equal(t, DefaultGas, cfg.Gas)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
format = "cbor"
indent = true
gas = 5000
no_color = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "cbor", cfg.Format)
	require.True(t, cfg.Indent)
	require.Equal(t, 5000, cfg.Gas)
	require.True(t, cfg.NoColor)
}

func TestLoadPartialFileKeepsRemainingDefaults(t *testing.T) {
	path := writeConfig(t, `gas = 42`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 42, cfg.Gas)
	require.Equal(t, "json", cfg.Format)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, `format = "xml"`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `gas = -1`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `format = `))
	require.Error(t, err)
}
