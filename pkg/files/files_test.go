package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

func TestInitProjectStructure(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tempDir)

	err := InitProjectStructure()
	if err != nil {
		t.Fatalf("InitProjectStructure failed: %v", err)
	}

	expected := []string{
		DatasheetDir,
		filepath.Join(DatasheetDir, ExportsDir),
		SettingsPath(),
	}

	for _, p := range expected {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			t.Errorf("Expected %s to exist", p)
		}
	}

	// A second init keeps existing settings
	settings := models.DefaultSettings()
	settings.Studio.Site = "editorial"
	if err := WriteSettings(settings); err != nil {
		t.Fatalf("WriteSettings failed: %v", err)
	}
	if err := InitProjectStructure(); err != nil {
		t.Fatalf("second InitProjectStructure failed: %v", err)
	}
	got, err := ReadSettings()
	if err != nil {
		t.Fatalf("ReadSettings failed: %v", err)
	}
	if got.Studio.Site != "editorial" {
		t.Errorf("Expected site to survive init, got %q", got.Studio.Site)
	}
}

func TestReadSettingsDefaults(t *testing.T) {
	tempDir := t.TempDir()

	settings, err := LoadSettings(NewViper(), filepath.Join(tempDir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	defaults := models.DefaultSettings()
	if settings.Sheet.PageSize != defaults.Sheet.PageSize {
		t.Errorf("Expected page size %d, got %d", defaults.Sheet.PageSize, settings.Sheet.PageSize)
	}
	if settings.Sheet.SaveHold != defaults.Sheet.SaveHold {
		t.Errorf("Expected save hold %v, got %v", defaults.Sheet.SaveHold, settings.Sheet.SaveHold)
	}
	if len(settings.Sheet.PageSizeOptions) != 3 {
		t.Errorf("Expected 3 page size options, got %v", settings.Sheet.PageSizeOptions)
	}
	if !settings.Drafts.Enabled {
		t.Error("Expected drafts to be enabled by default")
	}
}

func TestWriteReadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", SettingsFile)

	settings := models.DefaultSettings()
	settings.Studio.BaseURL = "https://studio.example.com"
	settings.Studio.Site = "editorial"
	settings.Studio.Timeout = 10 * time.Second
	settings.Sheet.PageSize = 15
	settings.Sheet.SaveHold = 2 * time.Second
	settings.Editor.Command = "nano"

	if err := WriteSettingsTo(path, settings); err != nil {
		t.Fatalf("WriteSettingsTo failed: %v", err)
	}

	got, err := LoadSettings(NewViper(), path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if got.Studio.BaseURL != settings.Studio.BaseURL {
		t.Errorf("Expected base url %q, got %q", settings.Studio.BaseURL, got.Studio.BaseURL)
	}
	if got.Studio.Site != "editorial" {
		t.Errorf("Expected site editorial, got %q", got.Studio.Site)
	}
	if got.Studio.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", got.Studio.Timeout)
	}
	if got.Sheet.PageSize != 15 {
		t.Errorf("Expected page size 15, got %d", got.Sheet.PageSize)
	}
	if got.Sheet.SaveHold != 2*time.Second {
		t.Errorf("Expected save hold 2s, got %v", got.Sheet.SaveHold)
	}
	if got.Editor.Command != "nano" {
		t.Errorf("Expected editor nano, got %q", got.Editor.Command)
	}
}

func TestSettingsEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFile)
	settings := models.DefaultSettings()
	settings.Studio.Site = "from-file"
	if err := WriteSettingsTo(path, settings); err != nil {
		t.Fatalf("WriteSettingsTo failed: %v", err)
	}

	t.Setenv("DATASHEET_STUDIO_SITE", "from-env")
	t.Setenv("DATASHEET_SHEET_PAGE_SIZE", "21")

	got, err := LoadSettings(NewViper(), path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.Studio.Site != "from-env" {
		t.Errorf("Expected env site override, got %q", got.Studio.Site)
	}
	if got.Sheet.PageSize != 21 {
		t.Errorf("Expected env page size 21, got %d", got.Sheet.PageSize)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.json")
	if err := WriteFile(path, []byte("{}")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected {}, got %q", data)
	}
}
