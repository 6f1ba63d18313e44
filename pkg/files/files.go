package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

const (
	DatasheetDir = ".datasheet"
	SettingsFile = "settings.yaml"
	ExportsDir   = "exports"
	EnvPrefix    = "DATASHEET"
)

// SettingsPath returns the project settings file location
func SettingsPath() string {
	return filepath.Join(DatasheetDir, SettingsFile)
}

func InitProjectStructure() error {
	dirs := []string{
		DatasheetDir,
		filepath.Join(DatasheetDir, ExportsDir),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(SettingsPath()); os.IsNotExist(err) {
		if err := WriteSettings(models.DefaultSettings()); err != nil {
			return err
		}
	}

	return nil
}

// NewViper returns a viper instance preloaded with defaults and DATASHEET_* env overrides.
// Callers may bind flags on it before handing it to LoadSettings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := models.DefaultSettings()
	v.SetDefault("studio.base_url", d.Studio.BaseURL)
	v.SetDefault("studio.site", d.Studio.Site)
	v.SetDefault("studio.token", d.Studio.Token)
	v.SetDefault("studio.timeout", d.Studio.Timeout)
	v.SetDefault("sheet.page_size", d.Sheet.PageSize)
	v.SetDefault("sheet.page_size_options", d.Sheet.PageSizeOptions)
	v.SetDefault("sheet.column_width", d.Sheet.ColumnWidth)
	v.SetDefault("sheet.save_hold", d.Sheet.SaveHold)
	v.SetDefault("editor.command", d.Editor.Command)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("drafts.enabled", d.Drafts.Enabled)
	v.SetDefault("drafts.path", d.Drafts.Path)
	return v
}

// ReadSettings loads .datasheet/settings.yaml over the defaults
func ReadSettings() (*models.Settings, error) {
	return LoadSettings(NewViper(), SettingsPath())
}

// LoadSettings reads path into v, if it exists, and decodes the result.
// A missing file is not an error: defaults, env and bound flags still apply.
func LoadSettings(v *viper.Viper, path string) (*models.Settings, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat settings %s: %w", path, err)
		}
	}

	settings := &models.Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if settings.Sheet.PageSize <= 0 {
		settings.Sheet.PageSize = models.DefaultSettings().Sheet.PageSize
	}
	if len(settings.Sheet.PageSizeOptions) == 0 {
		settings.Sheet.PageSizeOptions = models.DefaultSettings().Sheet.PageSizeOptions
	}
	return settings, nil
}

// WriteSettings writes settings to .datasheet/settings.yaml
func WriteSettings(settings *models.Settings) error {
	return WriteSettingsTo(SettingsPath(), settings)
}

func WriteSettingsTo(path string, settings *models.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for settings: %w", err)
	}

	content, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings to YAML: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write settings %s: %w", path, err)
	}

	return nil
}

// WriteFile writes content to a file, creating its directory
func WriteFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}
