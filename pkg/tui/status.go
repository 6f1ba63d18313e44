package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusType represents the type of status message
type StatusType int

const (
	StatusTypeInfo StatusType = iota
	StatusTypeSuccess
	StatusTypeWarning
	StatusTypeError
)

func (t StatusType) icon() string {
	switch t {
	case StatusTypeSuccess:
		return "✓"
	case StatusTypeWarning:
		return "⚠"
	case StatusTypeError:
		return "×"
	default:
		return "ℹ"
	}
}

// StatusMsg asks the app to show a temporary message in the status bar
type StatusMsg struct {
	Text string
	Type StatusType
}

// clearStatusMsg clears the message with the given sequence number
type clearStatusMsg struct {
	seq int
}

func statusCmd(t StatusType, format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg {
		return StatusMsg{Text: text, Type: t}
	}
}

func showInfo(format string, args ...any) tea.Cmd {
	return statusCmd(StatusTypeInfo, format, args...)
}

func showSuccess(format string, args ...any) tea.Cmd {
	return statusCmd(StatusTypeSuccess, format, args...)
}

func showWarning(format string, args ...any) tea.Cmd {
	return statusCmd(StatusTypeWarning, format, args...)
}

func showError(format string, args ...any) tea.Cmd {
	return statusCmd(StatusTypeError, format, args...)
}

// StatusManager keeps the message shown in the status bar
type StatusManager struct {
	current         *StatusMsg
	seq             int
	DefaultDuration time.Duration
}

// NewStatusManager creates a new status manager
func NewStatusManager() *StatusManager {
	return &StatusManager{
		DefaultDuration: 3 * time.Second,
	}
}

// Show displays msg and returns a command that clears it after DefaultDuration.
// Errors stay until the next message replaces them.
func (sm *StatusManager) Show(msg StatusMsg) tea.Cmd {
	sm.seq++
	sm.current = &msg
	if msg.Type == StatusTypeError {
		return nil
	}
	seq := sm.seq
	return tea.Tick(sm.DefaultDuration, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// Clear removes the message unless a newer one replaced it
func (sm *StatusManager) Clear(seq int) {
	if seq == sm.seq {
		sm.current = nil
	}
}

// Current returns the formatted message, if any
func (sm *StatusManager) Current() (string, StatusType, bool) {
	if sm.current == nil {
		return "", StatusTypeInfo, false
	}
	return fmt.Sprintf("%s %s", sm.current.Type.icon(), sm.current.Text), sm.current.Type, true
}
