package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// SetupLogging routes every datasheet logger to the configured file.
// Nothing is written to the terminal, which belongs to the TUI or to command output.
func SetupLogging(settings models.LoggingSettings) error {
	level, err := logging.LevelFromString(settingOr(settings.Level, "info"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.Level, err)
	}

	format := logging.JSONOutput
	switch strings.ToLower(settings.Format) {
	case "", "json":
	case "plaintext", "text":
		format = logging.PlaintextOutput
	default:
		return fmt.Errorf("invalid log format %q (must be: json or plaintext)", settings.Format)
	}

	cfg := logging.Config{
		Format: format,
		Level:  level,
	}
	if settings.File != "" {
		if err := os.MkdirAll(filepath.Dir(settings.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.File = settings.File
	}

	logging.SetupLogging(cfg)
	return nil
}

func settingOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
