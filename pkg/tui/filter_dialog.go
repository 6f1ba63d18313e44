package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/search"
)

// FilterDialog picks the last-edit-date filter: none, a preset, or a custom
// range typed the way the search bar's edited: qualifier takes it.
type FilterDialog struct {
	active bool
	cursor int
	custom textinput.Model
	err    string
	now    func() time.Time
}

// filterChoice is what the dialog resolved to. A nil Filter clears the filter.
type filterChoice struct {
	Filter *models.DateRange
}

// NewFilterDialog creates a hidden filter dialog
func NewFilterDialog() *FilterDialog {
	ti := textinput.New()
	ti.Placeholder = ">7d, <1m or 2024-01-01..2024-06-30"
	ti.CharLimit = 40
	ti.Width = 36
	ti.Prompt = ""
	return &FilterDialog{custom: ti, now: time.Now}
}

// entries: 0 is "no filter", then the presets, then the custom range
func (d *FilterDialog) customIndex() int {
	return len(search.Presets) + 1
}

// Show opens the dialog with the cursor on the current filter
func (d *FilterDialog) Show(current *models.DateRange) tea.Cmd {
	d.active = true
	d.err = ""
	d.cursor = 0
	d.custom.SetValue("")
	d.custom.Blur()
	if current == nil {
		return nil
	}
	for i, p := range search.Presets {
		if p.ID == current.ID {
			d.cursor = i + 1
			return nil
		}
	}
	d.cursor = d.customIndex()
	return d.custom.Focus()
}

// Active returns whether the dialog is open
func (d *FilterDialog) Active() bool {
	return d.active
}

// Update returns a non-nil choice once the user picked a filter
func (d *FilterDialog) Update(msg tea.Msg) (*filterChoice, tea.Cmd) {
	if !d.active {
		return nil, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		d.custom, cmd = d.custom.Update(msg)
		return nil, cmd
	}

	switch keyMsg.String() {
	case "esc":
		d.active = false
		d.custom.Blur()
		return nil, nil
	case "up", "shift+tab":
		return nil, d.move(-1)
	case "down", "tab":
		return nil, d.move(1)
	case "enter":
		return d.choose()
	}

	if d.cursor == d.customIndex() {
		var cmd tea.Cmd
		d.custom, cmd = d.custom.Update(msg)
		d.err = ""
		return nil, cmd
	}

	// j/k only move when they are not typed into the custom range
	switch keyMsg.String() {
	case "k":
		return nil, d.move(-1)
	case "j":
		return nil, d.move(1)
	}
	return nil, nil
}

func (d *FilterDialog) move(delta int) tea.Cmd {
	next := d.cursor + delta
	if next < 0 || next > d.customIndex() {
		return nil
	}
	d.cursor = next
	if d.cursor == d.customIndex() {
		return d.custom.Focus()
	}
	d.custom.Blur()
	return nil
}

func (d *FilterDialog) choose() (*filterChoice, tea.Cmd) {
	switch {
	case d.cursor == 0:
		d.active = false
		return &filterChoice{}, nil

	case d.cursor <= len(search.Presets):
		preset := search.Presets[d.cursor-1]
		dr, ok := search.Preset(preset.ID, d.now())
		if !ok {
			d.err = fmt.Sprintf("unknown preset %s", preset.ID)
			return nil, nil
		}
		d.active = false
		return &filterChoice{Filter: &dr}, nil

	default:
		value := strings.TrimSpace(d.custom.Value())
		if value == "" {
			d.err = "enter a range"
			return nil, nil
		}
		criteria, err := search.ParseCriteria("", "edited:"+value, d.now())
		if err != nil {
			d.err = err.Error()
			return nil, nil
		}
		d.active = false
		d.custom.Blur()
		return &filterChoice{Filter: criteria.DateFilter}, nil
	}
}

// View renders the dialog
func (d *FilterDialog) View() string {
	if !d.active {
		return ""
	}

	var b strings.Builder
	b.WriteString(DialogTitleStyle.Render("Filter by last edit"))
	b.WriteString("\n\n")

	line := func(i int, label string) {
		if i == d.cursor {
			b.WriteString(SelectedStyle.Render("▸ " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}

	line(0, "No filter")
	for i, p := range search.Presets {
		line(i+1, p.Label)
	}
	line(d.customIndex(), "Custom range")
	if d.cursor == d.customIndex() {
		b.WriteString("  ")
		b.WriteString(InputStyle.Render(d.custom.View()))
		b.WriteString("\n")
	}

	if d.err != "" {
		b.WriteString(ErrorStyle.Render(d.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(DescriptionStyle.Render("enter apply · esc cancel"))
	return DialogStyle.Render(b.String())
}
