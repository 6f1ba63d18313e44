package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// focus targets of the find/replace dialog, in tab order
const (
	frFocusFind = iota
	frFocusReplace
	frFocusFindButton
	frFocusReplaceButton
	frFocusCount
)

// FindReplaceDialog collects the find and replace texts. Find highlights the
// matches of the page, Replace rewrites them into pending edits.
type FindReplaceDialog struct {
	active  bool
	find    textinput.Model
	replace textinput.Model
	focus   int
}

// NewFindReplaceDialog creates a hidden dialog
func NewFindReplaceDialog() *FindReplaceDialog {
	find := textinput.New()
	find.Placeholder = "Find"
	find.CharLimit = 200
	find.Width = 40

	replace := textinput.New()
	replace.Placeholder = "Replace with"
	replace.CharLimit = 200
	replace.Width = 40

	return &FindReplaceDialog{find: find, replace: replace}
}

// Show opens the dialog, keeping the last texts typed
func (d *FindReplaceDialog) Show(findText string) tea.Cmd {
	d.active = true
	if findText != "" {
		d.find.SetValue(findText)
	}
	return d.setFocus(frFocusFind)
}

// Active returns whether the dialog is open
func (d *FindReplaceDialog) Active() bool {
	return d.active
}

func (d *FindReplaceDialog) setFocus(focus int) tea.Cmd {
	d.focus = (focus + frFocusCount) % frFocusCount
	d.find.Blur()
	d.replace.Blur()
	switch d.focus {
	case frFocusFind:
		return d.find.Focus()
	case frFocusReplace:
		return d.replace.Focus()
	}
	return nil
}

// Update returns the payload to publish once the user confirmed an action.
// The dialog closes after either action.
func (d *FindReplaceDialog) Update(msg tea.Msg) (*models.FindReplace, tea.Cmd) {
	if !d.active {
		return nil, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			d.active = false
			d.focus = frFocusFind
			d.find.Blur()
			d.replace.Blur()
			return nil, nil
		case "tab", "down":
			return nil, d.setFocus(d.focus + 1)
		case "shift+tab", "up":
			return nil, d.setFocus(d.focus - 1)
		case "enter":
			action := models.ActionFind
			if d.focus == frFocusReplace || d.focus == frFocusReplaceButton {
				action = models.ActionReplace
			}
			if d.find.Value() == "" {
				return nil, nil
			}
			d.active = false
			d.find.Blur()
			d.replace.Blur()
			return &models.FindReplace{
				FindText:    d.find.Value(),
				ReplaceText: d.replace.Value(),
				Action:      action,
			}, nil
		}
	}

	var cmd tea.Cmd
	switch d.focus {
	case frFocusFind:
		d.find, cmd = d.find.Update(msg)
	case frFocusReplace:
		d.replace, cmd = d.replace.Update(msg)
	}
	return nil, cmd
}

// View renders the dialog
func (d *FindReplaceDialog) View() string {
	if !d.active {
		return ""
	}

	label := lipgloss.NewStyle().Width(9).Foreground(lipgloss.Color(ColorNormal))
	button := func(text string, focused bool) string {
		style := lipgloss.NewStyle().Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorInactive))
		if focused {
			style = style.BorderForeground(lipgloss.Color(ColorActive)).
				Foreground(lipgloss.Color(ColorActive)).Bold(true)
		}
		return style.Render(text)
	}

	var b strings.Builder
	b.WriteString(DialogTitleStyle.Render("Find and replace"))
	b.WriteString("\n\n")
	b.WriteString(label.Render("Find") + d.find.View())
	b.WriteString("\n")
	b.WriteString(label.Render("Replace") + d.replace.View())
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		button("Find", d.focus == frFocusFindButton),
		" ",
		button("Replace all", d.focus == frFocusReplaceButton),
	))
	b.WriteString("\n")
	b.WriteString(DescriptionStyle.Render("Replace all rewrites text, rich text and reference cells of this page."))
	b.WriteString("\n")
	b.WriteString(DescriptionStyle.Render("tab next · enter run · esc close"))
	return DialogStyle.Render(b.String())
}
