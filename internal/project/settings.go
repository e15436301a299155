package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/slabcam/internal/model"
)

// EnvPrefix prefixes environment overrides, e.g. SLABCAM_TOOL_DIAMETER.
const EnvPrefix = "SLABCAM"

// DefaultConfigDir returns ~/.slabcam, or ./.slabcam when there is no home
// directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".slabcam")
}

// DefaultConfigPath returns the default path for the settings file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "settings.yaml")
}

// LoadSettings layers the file at path (YAML, JSON or TOML) and SLABCAM_*
// environment variables over the defaults. A missing file or an empty path
// yields the defaults with environment overrides applied.
func LoadSettings(path string) (model.JobSettings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Registering every default key lets environment overrides reach Unmarshal
	defaults, err := yaml.Marshal(model.DefaultSettings())
	if err != nil {
		return model.JobSettings{}, fmt.Errorf("failed to encode default settings: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return model.JobSettings{}, fmt.Errorf("failed to load default settings: %w", err)
	}

	if path != "" {
		switch _, err := os.Stat(path); {
		case err == nil:
			v.SetConfigFile(path)
			v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
			if err := v.MergeInConfig(); err != nil {
				return model.JobSettings{}, fmt.Errorf("failed to read settings %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return model.JobSettings{}, err
		}
	}

	var s model.JobSettings
	if err := v.Unmarshal(&s); err != nil {
		return model.JobSettings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

// SaveSettings writes settings as JSON for a .json path and YAML otherwise,
// creating any missing parent directories.
func SaveSettings(path string, s model.JobSettings) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(s, "", "  ")
	case ".yaml", ".yml", "":
		data, err = yaml.Marshal(s)
	default:
		return fmt.Errorf("unsupported settings format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
