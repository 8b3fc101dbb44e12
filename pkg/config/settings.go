package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/kcaldas/devconsole/pkg/storage"
	"github.com/kcaldas/devconsole/pkg/types"
)

const (
	EnvEnabled     = "DEVCONSOLE_ENABLED"
	EnvPersistence = "DEVCONSOLE_PERSISTENCE"
	EnvDriver      = "DEVCONSOLE_DRIVER"
	EnvMaxLogs     = "DEVCONSOLE_MAX_LOGS"
	EnvDataDir     = "DEVCONSOLE_DATA_DIR"

	DefaultDirName   = ".devconsole"
	SettingsFileName = "config.yaml"
)

// Settings is the user-editable configuration. Unset fields keep the defaults.
type Settings struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	Persistence *bool  `yaml:"persistence,omitempty"`
	Driver      string `yaml:"driver,omitempty"`
	MaxLogs     *int   `yaml:"max_logs,omitempty"`
	DataDir     string `yaml:"data_dir,omitempty"`
}

// DefaultDir returns ~/.devconsole
func DefaultDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// DefaultSettingsPath returns ~/.devconsole/config.yaml
func DefaultSettingsPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// Load resolves the effective settings: .env in the working directory is
// loaded first, then the settings file at path (the default path when empty),
// then DEVCONSOLE_* environment variables override the file.
func Load(path string) (Settings, error) {
	if err := LoadDotEnv(); err != nil {
		return Settings{}, err
	}

	if path == "" {
		var err error
		if path, err = DefaultSettingsPath(); err != nil {
			return Settings{}, err
		}
	}
	settings, err := LoadSettings(path)
	if err != nil {
		return Settings{}, err
	}
	return settings.WithEnv(NewManager())
}

// LoadDotEnv loads the given env files (".env" when none) without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadSettings reads a YAML settings file. A missing file yields empty settings.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes s to path, creating the parent directory
func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// WithEnv returns s with every DEVCONSOLE_* variable that is set applied on top
func (s Settings) WithEnv(m Manager) (Settings, error) {
	if _, err := m.GetString(EnvEnabled); err == nil {
		v, err := m.GetBool(EnvEnabled)
		if err != nil {
			return s, err
		}
		s.Enabled = &v
	}
	if _, err := m.GetString(EnvPersistence); err == nil {
		v, err := m.GetBool(EnvPersistence)
		if err != nil {
			return s, err
		}
		s.Persistence = &v
	}
	if _, err := m.GetString(EnvMaxLogs); err == nil {
		v, err := m.GetInt(EnvMaxLogs)
		if err != nil {
			return s, err
		}
		s.MaxLogs = &v
	}
	s.Driver = m.GetStringWithDefault(EnvDriver, s.Driver)
	s.DataDir = m.GetStringWithDefault(EnvDataDir, s.DataDir)
	return s, nil
}

// Patch converts the settings into a configuration patch for the store
func (s Settings) Patch() (types.ConfigPatch, error) {
	patch := types.ConfigPatch{
		Enabled:     s.Enabled,
		Persistence: s.Persistence,
	}
	if s.MaxLogs != nil {
		if *s.MaxLogs <= 0 {
			return patch, fmt.Errorf("max_logs must be positive, got %d", *s.MaxLogs)
		}
		patch.MaxLogs = s.MaxLogs
	}
	if s.Driver != "" {
		driver, err := storage.ParseDriver(s.Driver)
		if err != nil {
			return patch, err
		}
		patch.PersistenceDriver = &driver
	}
	return patch, nil
}

// ResolveDataDir returns the directory persisted entries live in. "~" is
// expanded; an empty value means DefaultDir.
func (s Settings) ResolveDataDir() (string, error) {
	if s.DataDir == "" {
		return DefaultDir()
	}
	dir, err := homedir.Expand(s.DataDir)
	if err != nil {
		return "", fmt.Errorf("failed to expand data dir: %w", err)
	}
	return dir, nil
}
