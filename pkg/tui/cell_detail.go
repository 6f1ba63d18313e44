package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// CellDetail shows the whole value of a cell, word-wrapped and scrollable
type CellDetail struct {
	active   bool
	title    string
	subtitle string
	text     string
	viewport viewport.Model
}

// NewCellDetail creates a hidden detail view
func NewCellDetail() *CellDetail {
	return &CellDetail{
		viewport: viewport.New(80, 20), // Default size
	}
}

// Show opens the detail of one cell
func (d *CellDetail) Show(path string, field models.FieldDescriptor, value string) {
	d.active = true
	d.title = columnTitle(field)
	d.subtitle = path
	d.text = value
	if field.FieldType.IsRichText() {
		// show the text and the markup below it
		d.text = htmlText(value) + "\n\n" + PlaceholderStyle.Render("HTML") + "\n" + value
	}
	d.refresh()
	d.viewport.GotoTop()
}

// SetSize fits the viewport into a box of the given size
func (d *CellDetail) SetSize(width, height int) {
	d.viewport.Width = max(width-8, 20)  // Borders (2) + padding (4) + margins (2)
	d.viewport.Height = max(height-8, 3) // Title (2) + borders (2) + padding (2) + help (2)
	d.refresh()
}

func (d *CellDetail) refresh() {
	text := d.text
	if strings.TrimSpace(text) == "" {
		text = EmptyInactiveStyle.Render("(empty)")
	}
	d.viewport.SetContent(wordwrap.String(text, d.viewport.Width))
}

// Active returns whether the detail is open
func (d *CellDetail) Active() bool {
	return d.active
}

// Update scrolls the viewport; esc, q and v close it
func (d *CellDetail) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "q", "v":
			d.active = false
			return nil
		}
	}
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return cmd
}

// View renders the detail box
func (d *CellDetail) View() string {
	if !d.active {
		return ""
	}
	var b strings.Builder
	b.WriteString(DialogTitleStyle.Render(d.title))
	b.WriteString("  ")
	b.WriteString(DescriptionStyle.Render(d.subtitle))
	b.WriteString("\n\n")
	b.WriteString(d.viewport.View())
	b.WriteString("\n")
	b.WriteString(DescriptionStyle.Render("↑/↓ scroll · y copy · esc close"))
	return ActiveBorderStyle.Padding(0, 2).Render(b.String())
}
