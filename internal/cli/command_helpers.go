package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pluqqy/pluqqy-datasheet/pkg/drafts"
	"github.com/pluqqy/pluqqy-datasheet/pkg/files"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
	"github.com/pluqqy/pluqqy-datasheet/pkg/studio"
)

// CommandContext manages project validation and common command context
type CommandContext struct {
	ProjectPath string
	Settings    *models.Settings
	validated   bool
}

// NewCommandContext creates a new command context
func NewCommandContext() (*CommandContext, error) {
	return &CommandContext{
		ProjectPath: files.DatasheetDir,
	}, nil
}

// ValidateProject ensures the project is initialized
func (c *CommandContext) ValidateProject() error {
	if c.validated {
		return nil
	}

	if _, err := os.Stat(c.ProjectPath); os.IsNotExist(err) {
		return fmt.Errorf("no .datasheet directory found. Run 'datasheet init' first")
	}

	c.validated = true
	return nil
}

// LoadSettings reads settings through the shared viper instance, so flags and
// DATASHEET_* variables override the settings file.
func (c *CommandContext) LoadSettings() (*models.Settings, error) {
	if c.Settings != nil {
		return c.Settings, nil
	}

	settings, err := files.LoadSettings(Config(), SettingsPath())
	if err != nil {
		return nil, err
	}

	c.Settings = settings
	return settings, nil
}

// LoadSettingsWithDefault loads settings or returns default if error
func (c *CommandContext) LoadSettingsWithDefault() *models.Settings {
	settings, err := c.LoadSettings()
	if err != nil {
		// Use default settings if can't read
		settings = models.DefaultSettings()
		c.Settings = settings
	}
	return settings
}

// StudioClient builds a client for the configured Studio and site
func (c *CommandContext) StudioClient() (*studio.Client, error) {
	settings, err := c.LoadSettings()
	if err != nil {
		return nil, err
	}

	client, err := studio.New(studio.Config{
		BaseURL: settings.Studio.BaseURL,
		Site:    settings.Studio.Site,
		Token:   settings.Studio.Token,
		Timeout: settings.Studio.Timeout,
	})
	if err != nil {
		if errors.Is(err, studio.ErrNoSite) {
			return nil, fmt.Errorf("no site configured. Set studio.site in %s or pass --site", SettingsPath())
		}
		return nil, err
	}
	return client, nil
}

// ControllerOptions returns sheet options from the sheet settings
func (c *CommandContext) ControllerOptions() sheet.Options {
	settings := c.LoadSettingsWithDefault()
	return sheet.Options{
		Site:     settings.Studio.Site,
		PageSize: settings.Sheet.PageSize,
		SaveHold: settings.Sheet.SaveHold,
	}
}

// OpenDrafts opens the drafts store. It returns nil when drafts are disabled.
func (c *CommandContext) OpenDrafts() (*drafts.Store, error) {
	settings := c.LoadSettingsWithDefault()
	if !settings.Drafts.Enabled || settings.Drafts.Path == "" {
		return nil, nil
	}
	return drafts.Open(settings.Drafts.Path)
}

// EditorLauncher handles all editor-related operations
type EditorLauncher struct {
	DefaultEditor string
}

// NewEditorLauncher creates a new editor launcher. A configured command wins over $EDITOR.
func NewEditorLauncher(configured string) *EditorLauncher {
	editor := strings.TrimSpace(configured)
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	return &EditorLauncher{
		DefaultEditor: editor,
	}
}

// Command builds the editor command for a file without running it
func (e *EditorLauncher) Command(filepath string) *exec.Cmd {
	parts := strings.Fields(e.DefaultEditor)
	if len(parts) > 1 {
		return exec.Command(parts[0], append(parts[1:], filepath)...)
	}
	return exec.Command(e.DefaultEditor, filepath)
}

// CreateTempFile writes content to a new temp file whose name matches pattern
func CreateTempFile(pattern, content string) (string, error) {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmpFile.Close()

	if content != "" {
		if _, err := tmpFile.WriteString(content); err != nil {
			os.Remove(tmpFile.Name())
			return "", fmt.Errorf("failed to write to temp file: %w", err)
		}
	}

	return tmpFile.Name(), nil
}
