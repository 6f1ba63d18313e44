package tui

import (
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// OSType represents the operating system type
type OSType int

const (
	OSMac OSType = iota
	OSLinux
	OSWindows
	OSUnknown
)

// GetOS returns the current operating system type
func GetOS() OSType {
	switch runtime.GOOS {
	case "darwin":
		return OSMac
	case "linux":
		return OSLinux
	case "windows":
		return OSWindows
	default:
		return OSUnknown
	}
}

// ShortcutKey represents a keyboard shortcut with OS-specific variations
type ShortcutKey struct {
	Mac     string
	Linux   string
	Windows string
	Default string // Fallback if OS-specific not defined
}

// Get returns the appropriate shortcut for the current OS
func (s ShortcutKey) Get() string {
	return s.getFor(GetOS())
}

func (s ShortcutKey) getFor(os OSType) string {
	switch os {
	case OSMac:
		if s.Mac != "" {
			return s.Mac
		}
	case OSLinux:
		if s.Linux != "" {
			return s.Linux
		}
	case OSWindows:
		if s.Windows != "" {
			return s.Windows
		}
	}
	return s.Default
}

// Shortcuts holds the sheet shortcuts that collide with terminal control keys on some systems
var Shortcuts = struct {
	SaveAll   ShortcutKey
	CancelAll ShortcutKey
}{
	SaveAll: ShortcutKey{
		Mac:     "ctrl+s",
		Linux:   "alt+s", // Avoid Ctrl+S terminal conflict (XOFF)
		Windows: "alt+s",
		Default: "ctrl+s",
	},
	CancelAll: ShortcutKey{
		Mac:     "ctrl+k",
		Linux:   "alt+k", // Avoid readline kill-line
		Windows: "alt+k",
		Default: "ctrl+k",
	},
}

// FormatShortcutForHelp formats a shortcut key for display in help text
func FormatShortcutForHelp(shortcut string) string {
	// Use M- prefix for Alt on Linux/Windows (common terminal convention)
	if GetOS() == OSLinux || GetOS() == OSWindows {
		shortcut = strings.ReplaceAll(shortcut, "alt+", "M-")
	} else {
		shortcut = strings.ReplaceAll(shortcut, "alt+", "⌥")
	}
	shortcut = strings.ReplaceAll(shortcut, "ctrl+", "^")
	shortcut = strings.ReplaceAll(shortcut, "shift+", "⇧")
	return shortcut
}

// sheetKeyMap is every binding of the sheet view
type sheetKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Edit      key.Binding
	RowMenu   key.Binding
	View      key.Binding
	Yank      key.Binding
	Search    key.Binding
	Filter    key.Binding
	Replace   key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	PageSize  key.Binding
	SaveAll   key.Binding
	CancelAll key.Binding
	ClearFind key.Binding
	Back      key.Binding
	Dismiss   key.Binding
}

func newSheetKeyMap() sheetKeyMap {
	save := Shortcuts.SaveAll.Get()
	cancel := Shortcuts.CancelAll.Get()
	return sheetKeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Edit:      key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit cell")),
		RowMenu:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "row actions")),
		View:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view cell")),
		Yank:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy cell")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Replace:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "find/replace")),
		NextPage:  key.NewBinding(key.WithKeys("]", "pgdown"), key.WithHelp("]", "next page")),
		PrevPage:  key.NewBinding(key.WithKeys("[", "pgup"), key.WithHelp("[", "prev page")),
		PageSize:  key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "page size")),
		SaveAll:   key.NewBinding(key.WithKeys(save, "S"), key.WithHelp(FormatShortcutForHelp(save), "save all")),
		CancelAll: key.NewBinding(key.WithKeys(cancel, "X"), key.WithHelp(FormatShortcutForHelp(cancel), "cancel all")),
		ClearFind: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear/back")),
		Back:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "content types")),
		Dismiss:   key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "dismiss")),
	}
}

// helpLine renders bindings as "key desc · key desc"
func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
