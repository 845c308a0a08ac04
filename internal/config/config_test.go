package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docsync/internal/config"
)

func Test_Load_Defaults_Use_Config_Home(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	work := t.TempDir()

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: work,
		Env:             map[string]string{"HOME": home},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "docsync", "registry"), cfg.RegistryDirAbs)
	assert.Equal(t, filepath.Join(home, ".config", "docsync", "token.json"), cfg.TokenFile)
	assert.Equal(t, filepath.Join(home, ".config", "docsync", "credentials.json"), cfg.CredentialsFile)
	assert.Equal(t, work, cfg.EffectiveCwd)
	assert.Empty(t, cfg.Sources.Global)
	assert.Empty(t, cfg.Sources.Project)
}

func Test_Load_XDG_Config_Home_Wins_Over_Home(t *testing.T) {
	t.Parallel()

	xdg := t.TempDir()

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: t.TempDir(),
		Env: map[string]string{
			"HOME":            t.TempDir(),
			"XDG_CONFIG_HOME": xdg,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(xdg, "docsync", "registry"), cfg.RegistryDirAbs)
}

func Test_Load_Project_Config_Overrides_Global(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	work := t.TempDir()

	globalDir := filepath.Join(home, ".config", "docsync")
	require.NoError(t, os.MkdirAll(globalDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(globalDir, "config.json"),
		[]byte(`{"editor": "global-editor", "registry_dir": "/global/registry"}`),
		0o600,
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(work, config.ConfigFileName),
		[]byte(`{"editor": "project-editor"}`),
		0o600,
	))

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: work,
		Env:             map[string]string{"HOME": home},
	})
	require.NoError(t, err)

	assert.Equal(t, "project-editor", cfg.Editor)
	assert.Equal(t, "/global/registry", cfg.RegistryDirAbs)
	assert.Equal(t, filepath.Join(globalDir, "config.json"), cfg.Sources.Global)
	assert.Equal(t, filepath.Join(work, config.ConfigFileName), cfg.Sources.Project)
}

func Test_Load_Explicit_Config_File_Must_Exist(t *testing.T) {
	t.Parallel()

	_, err := config.Load(config.LoadInput{
		WorkDirOverride: t.TempDir(),
		ConfigPath:      "nope.json",
		Env:             map[string]string{"HOME": t.TempDir()},
	})
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func Test_Load_Tolerates_JSONC_Comments(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(work, config.ConfigFileName),
		[]byte("{\n  // my editor\n  \"editor\": \"vi\",\n}\n"),
		0o600,
	))

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: work,
		Env:             map[string]string{"HOME": t.TempDir()},
	})
	require.NoError(t, err)
	assert.Equal(t, "vi", cfg.Editor)
}

func Test_Load_Invalid_JSON_Is_Reported(t *testing.T) {
	t.Parallel()

	work := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(work, config.ConfigFileName),
		[]byte(`{"editor": `),
		0o600,
	))

	_, err := config.Load(config.LoadInput{
		WorkDirOverride: work,
		Env:             map[string]string{"HOME": t.TempDir()},
	})
	require.ErrorIs(t, err, config.ErrConfigInvalid)
}

func Test_Load_Registry_Dir_Override_Wins(t *testing.T) {
	t.Parallel()

	work := t.TempDir()

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride:     work,
		RegistryDirOverride: "my-registry",
		Env:                 map[string]string{"HOME": t.TempDir()},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(work, "my-registry"), cfg.RegistryDirAbs)
}
