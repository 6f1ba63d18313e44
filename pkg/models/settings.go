package models

import "time"

// Settings represents the application configuration
type Settings struct {
	Studio  StudioSettings  `yaml:"studio" mapstructure:"studio"`
	Sheet   SheetSettings   `yaml:"sheet" mapstructure:"sheet"`
	Editor  EditorSettings  `yaml:"editor" mapstructure:"editor"`
	Logging LoggingSettings `yaml:"logging" mapstructure:"logging"`
	Drafts  DraftSettings   `yaml:"drafts" mapstructure:"drafts"`
}

// StudioSettings points the sheet at a Studio instance and site
type StudioSettings struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Site    string        `yaml:"site" mapstructure:"site"`
	Token   string        `yaml:"token,omitempty" mapstructure:"token"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SheetSettings controls paging and grid layout
type SheetSettings struct {
	PageSize        int           `yaml:"page_size" mapstructure:"page_size"`
	PageSizeOptions []int         `yaml:"page_size_options" mapstructure:"page_size_options"`
	ColumnWidth     int           `yaml:"column_width" mapstructure:"column_width"`
	SaveHold        time.Duration `yaml:"save_hold" mapstructure:"save_hold"` // how long a finished save stays on screen
}

// EditorSettings controls editor preferences
type EditorSettings struct {
	Command string `yaml:"command" mapstructure:"command"`
}

// LoggingSettings controls where structured logs go
type LoggingSettings struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" or "plaintext"
	File   string `yaml:"file" mapstructure:"file"`
}

// DraftSettings controls persistence of unsaved edits between sessions
type DraftSettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// DefaultSettings returns the default configuration
func DefaultSettings() *Settings {
	return &Settings{
		Studio: StudioSettings{
			BaseURL: "http://localhost:8080",
			Site:    "",
			Timeout: 30 * time.Second,
		},
		Sheet: SheetSettings{
			PageSize:        9,
			PageSizeOptions: []int{9, 15, 21},
			ColumnWidth:     22,
			SaveHold:        4 * time.Second,
		},
		Editor: EditorSettings{
			Command: "",
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "json",
			File:   ".datasheet/datasheet.log",
		},
		Drafts: DraftSettings{
			Enabled: true,
			Path:    ".datasheet/drafts.db",
		},
	}
}
