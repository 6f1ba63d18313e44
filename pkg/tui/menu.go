package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// menuItem is one entry of an action menu. key is the single-letter shortcut.
type menuItem struct {
	key    string
	label  string
	action func() tea.Cmd
}

// MenuModel is the row and cell action menu
type MenuModel struct {
	active   bool
	title    string
	subtitle string
	items    []menuItem
	cursor   int
}

// NewMenu creates a hidden menu
func NewMenu() *MenuModel {
	return &MenuModel{}
}

// Show opens the menu. A menu without items stays closed.
func (m *MenuModel) Show(title, subtitle string, items []menuItem) {
	if len(items) == 0 {
		return
	}
	m.active = true
	m.title = title
	m.subtitle = subtitle
	m.items = items
	m.cursor = 0
}

// Active returns whether the menu is open
func (m *MenuModel) Active() bool {
	return m.active
}

// Close hides the menu
func (m *MenuModel) Close() {
	m.active = false
	m.items = nil
}

// Update moves the cursor or runs an action. Running an action closes the menu.
func (m *MenuModel) Update(msg tea.KeyMsg) tea.Cmd {
	if !m.active {
		return nil
	}

	switch msg.String() {
	case "esc", "q":
		m.Close()
		return nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return nil
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
		return nil
	case "enter":
		return m.run(m.cursor)
	}

	for i, item := range m.items {
		if strings.EqualFold(msg.String(), item.key) {
			return m.run(i)
		}
	}
	return nil
}

func (m *MenuModel) run(i int) tea.Cmd {
	item := m.items[i]
	m.Close()
	if item.action == nil {
		return nil
	}
	return item.action()
}

// View renders the menu box
func (m *MenuModel) View() string {
	if !m.active {
		return ""
	}

	var b strings.Builder
	b.WriteString(DialogTitleStyle.Render(m.title))
	if m.subtitle != "" {
		b.WriteString("\n")
		b.WriteString(DescriptionStyle.Render(m.subtitle))
	}
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimary)).Bold(true)
	for i, item := range m.items {
		line := keyStyle.Render(item.key) + "  " + item.label
		if i == m.cursor {
			b.WriteString(SelectedStyle.Render("▸ " + item.key + "  " + item.label))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(DescriptionStyle.Render("enter select · esc close"))

	return DialogStyle.Render(b.String())
}
