package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// CellEditor edits one inline-editable cell in place
type CellEditor struct {
	active bool
	rowID  int
	field  models.FieldDescriptor
	input  textinput.Model
}

// cellCommit is a value confirmed in the cell editor
type cellCommit struct {
	RowID   int
	FieldID string
	Value   string
}

// NewCellEditor creates a hidden cell editor
func NewCellEditor() *CellEditor {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0 // no limit, text fields can be long
	return &CellEditor{input: ti}
}

// Show starts editing value of field in the given row
func (e *CellEditor) Show(rowID int, field models.FieldDescriptor, value string, width int) tea.Cmd {
	e.active = true
	e.rowID = rowID
	e.field = field
	e.input.SetValue(value)
	e.input.Width = width
	e.input.CursorEnd()
	return e.input.Focus()
}

// Active returns whether a cell is being edited
func (e *CellEditor) Active() bool {
	return e.active
}

// Update returns the commit when enter is pressed. Esc leaves the cell unchanged.
func (e *CellEditor) Update(msg tea.Msg) (*cellCommit, tea.Cmd) {
	if !e.active {
		return nil, nil
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			e.close()
			return nil, nil
		case tea.KeyEnter:
			commit := &cellCommit{RowID: e.rowID, FieldID: e.field.FieldID, Value: e.input.Value()}
			e.close()
			return commit, nil
		}
	}

	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return nil, cmd
}

func (e *CellEditor) close() {
	e.active = false
	e.input.Blur()
}

// View renders the editor line
func (e *CellEditor) View() string {
	if !e.active {
		return ""
	}
	title := GetActiveHeaderStyle(true).Render(columnTitle(e.field) + ": ")
	return InputStyle.Render(title + e.input.View())
}
