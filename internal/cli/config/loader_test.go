package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDBCDir, cfg.DBCDir)
	assert.Equal(t, DefaultPatchesDir, cfg.PatchesDir)
	assert.Equal(t, DefaultOutDir, cfg.OutDir)
	assert.Equal(t, DefaultSchemaDir, cfg.SchemaDir)
	assert.Equal(t, DefaultIncludesDir, cfg.IncludesDir)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoad_ConfigFileOverridesDefaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "patches_dir: my-patches\nout_dir: dist\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "my-patches", cfg.PatchesDir)
	assert.Equal(t, "dist", cfg.OutDir)
	assert.Equal(t, DefaultDBCDir, cfg.DBCDir, "unset keys keep their defaults")
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoad_EnvOverridesConfigFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "patches_dir: from-file\n")
	t.Setenv("DBCFORGE_PATCHES_DIR", "from-env")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.PatchesDir)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "patches_dir: from-file\n")
	t.Setenv("DBCFORGE_PATCHES_DIR", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("patches-dir", "", "")
	require.NoError(t, flags.Set("patches-dir", "from-flag"))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.PatchesDir)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, "patches_dir: from-file\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("patches-dir", "flag-default", "")

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.PatchesDir, "only flags the user set take effect")
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	t.Cleanup(ResetConfig)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestGetCurrentConfig_FallsBackToDefaults(t *testing.T) {
	ResetConfig()

	cfg := GetCurrentConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultDBCDir, cfg.DBCDir)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbcforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
