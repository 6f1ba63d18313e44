package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

type typesLoadedMsg struct {
	types []models.ContentType
	err   error
}

// typeChosenMsg asks the app to open the sheet on a content type
type typeChosenMsg struct {
	contentType string
}

// TypeSelectorModel lists the content types of the site. Typing narrows the list.
type TypeSelectorModel struct {
	ctx    context.Context
	lister TypeLister
	site   string

	types    []models.ContentType
	filtered []models.ContentType
	filter   textinput.Model
	cursor   int
	loading  bool
	err      error

	width  int
	height int
}

// NewTypeSelectorModel creates the content type selector
func NewTypeSelectorModel(ctx context.Context, lister TypeLister, site string) *TypeSelectorModel {
	ti := textinput.New()
	ti.Placeholder = "Type to filter content types..."
	ti.CharLimit = 100
	ti.Prompt = "⌕ "
	ti.Focus()

	return &TypeSelectorModel{
		ctx:     ctx,
		lister:  lister,
		site:    site,
		filter:  ti,
		loading: true,
	}
}

func (m *TypeSelectorModel) Init() tea.Cmd {
	return tea.Batch(m.loadTypes(), textinput.Blink)
}

func (m *TypeSelectorModel) loadTypes() tea.Cmd {
	ctx, lister := m.ctx, m.lister
	return func() tea.Msg {
		types, err := lister.ContentTypes(ctx)
		return typesLoadedMsg{types: types, err: err}
	}
}

// SetSize updates the dimensions of the selector
func (m *TypeSelectorModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.filter.Width = max(width-10, 10)
}

func (m *TypeSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case typesLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			logger.Warnw("failed to list content types", "site", m.site, "error", msg.err)
			return m, nil
		}
		m.types = msg.types
		m.applyFilter()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if m.cursor < len(m.filtered) {
				contentType := m.filtered[m.cursor].Name
				return m, func() tea.Msg { return typeChosenMsg{contentType: contentType} }
			}
			return m, nil
		case "ctrl+r":
			m.loading = true
			m.err = nil
			return m, m.loadTypes()
		case "esc":
			if m.filter.Value() != "" {
				m.filter.SetValue("")
				m.applyFilter()
				return m, nil
			}
			return m, func() tea.Msg { return SwitchViewMsg{view: sheetView} }
		}
	}

	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

func (m *TypeSelectorModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.filtered = m.filtered[:0]
	for _, t := range m.types {
		if query == "" ||
			strings.Contains(strings.ToLower(t.Name), query) ||
			strings.Contains(strings.ToLower(t.Label), query) {
			m.filtered = append(m.filtered, t)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(len(m.filtered)-1, 0)
	}
}

func (m *TypeSelectorModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := renderHeader(m.width, "Content types", "site "+m.site)

	var b strings.Builder
	b.WriteString(InputStyle.Width(max(m.width-6, 10)).Render(m.filter.View()))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(PlaceholderStyle.Render("Loading content types..."))
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Failed to list content types: %v", m.err)))
		b.WriteString("\n")
		b.WriteString(DescriptionStyle.Render("ctrl+r retry"))
	case len(m.filtered) == 0:
		b.WriteString(EmptyInactiveStyle.Render("No content types match."))
	default:
		// Keep the cursor in a window that fits the screen
		visible := max(m.height-lipgloss.Height(header)-8, 3)
		start := 0
		if m.cursor >= visible {
			start = m.cursor - visible + 1
		}
		end := min(start+visible, len(m.filtered))

		labelWidth := 0
		for _, t := range m.filtered[start:end] {
			labelWidth = max(labelWidth, lipgloss.Width(t.Label))
		}
		for i := start; i < end; i++ {
			t := m.filtered[i]
			line := fmt.Sprintf("%-*s  %s", labelWidth, t.Label, DescriptionStyle.Render(t.Name))
			if i == m.cursor {
				b.WriteString(SelectedStyle.Render("▸ " + fmt.Sprintf("%-*s", labelWidth, t.Label)))
				b.WriteString("  " + DescriptionStyle.Render(t.Name))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	help := DescriptionStyle.Render(fmt.Sprintf("%d types · ↑/↓ move · enter open · esc back · ctrl+c quit", len(m.filtered)))
	return lipgloss.JoinVertical(lipgloss.Left, header, ContentPaddingStyle.Render(b.String()), ContentPaddingStyle.Render(help))
}
