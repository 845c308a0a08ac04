// Package config loads docsync configuration with the same precedence
// chain for every setting: defaults, then the global user config file,
// then the project config file (or an explicit one), then CLI overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

var (
	// ErrConfigFileNotFound is returned when an explicitly requested config
	// file (via --config) does not exist.
	ErrConfigFileNotFound = errors.New("config file not found")

	// ErrConfigFileRead is returned when a required config file exists but
	// cannot be read.
	ErrConfigFileRead = errors.New("cannot read config file")

	// ErrConfigInvalid is returned when a config file cannot be parsed.
	ErrConfigInvalid = errors.New("invalid config")
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	CredentialsFile string `json:"credentials_file,omitempty"` // OAuth client secret JSON
	TokenFile       string `json:"token_file,omitempty"`       // cached OAuth token
	RegistryDir     string `json:"registry_dir,omitempty"`     // pulled-document registry
	Editor          string `json:"editor,omitempty"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd   string `json:"-"` // absolute working directory (from -C flag or os.Getwd)
	RegistryDirAbs string `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // path to global config if loaded, empty otherwise
	Project string // path to project config if loaded, empty otherwise
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".docsync.json"

// DefaultConfig returns the default configuration. Paths that depend on
// the environment (registry, token cache) are resolved in Load.
func DefaultConfig() Config {
	return Config{}
}

// configHome returns the docsync config directory:
// $XDG_CONFIG_HOME/docsync if set, otherwise ~/.config/docsync.
// Returns empty string if the home directory cannot be determined.
func configHome(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "docsync")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "docsync")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	RegistryDirOverride string        // --registry-dir flag value; empty means no override
	Env             map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/docsync/config.json or $XDG_CONFIG_HOME/docsync/config.json)
// 3. Project config file at default location (.docsync.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. CLI overrides.
//
// All paths in the returned Config are resolved to absolute paths.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	home := configHome(input.Env)

	globalCfg, globalPath, err := loadGlobalConfig(home)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = merge(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = merge(cfg, projectCfg)

	if input.RegistryDirOverride != "" {
		cfg.RegistryDir = input.RegistryDirOverride
	}

	// Environment-dependent defaults land after the file chain so a file
	// value always wins over them.
	if cfg.RegistryDir == "" && home != "" {
		cfg.RegistryDir = filepath.Join(home, "registry")
	}

	if cfg.TokenFile == "" && home != "" {
		cfg.TokenFile = filepath.Join(home, "token.json")
	}

	if cfg.CredentialsFile == "" && home != "" {
		cfg.CredentialsFile = filepath.Join(home, "credentials.json")
	}

	cfg.EffectiveCwd = workDir
	cfg.RegistryDirAbs = absAgainst(workDir, cfg.RegistryDir)
	cfg.TokenFile = absAgainst(workDir, cfg.TokenFile)
	cfg.CredentialsFile = absAgainst(workDir, cfg.CredentialsFile)

	return cfg, nil
}

func absAgainst(workDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}

// loadGlobalConfig loads the global user config file if it exists.
// Returns the config, the path if loaded, and any error.
func loadGlobalConfig(home string) (Config, string, error) {
	if home == "" {
		return Config{}, "", nil
	}

	path := filepath.Join(home, "config.json")

	cfg, loaded, err := loadConfigFile(path, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

// loadProjectConfig loads the project config file (.docsync.json) or an
// explicit config file. Returns the config, the path if loaded, and any error.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		// Explicit config file - must exist
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		_, statErr := os.Stat(cfgFile)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config. Returns the config, whether a file was loaded, and
// any error.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parse(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parse(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.CredentialsFile != "" {
		base.CredentialsFile = overlay.CredentialsFile
	}

	if overlay.TokenFile != "" {
		base.TokenFile = overlay.TokenFile
	}

	if overlay.RegistryDir != "" {
		base.RegistryDir = overlay.RegistryDir
	}

	if overlay.Editor != "" {
		base.Editor = overlay.Editor
	}

	return base
}
