package tui

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

var errNoEditor = errors.New("no editor configured")

// The direct edit round trip: the item document is written to a temp file,
// opened in the editor, and written back through the content service when the
// editor exits having changed it.
type (
	directEditReadyMsg struct {
		req      sheet.DirectEditRequest
		file     string
		original string
		err      error
	}

	editorClosedMsg struct {
		req      sheet.DirectEditRequest
		file     string
		original string
		err      error
	}

	directEditDoneMsg struct {
		req       sheet.DirectEditRequest
		res       sheet.DirectEditResult
		unchanged bool
		err       error
	}
)

// startDirectEdit fetches the current document of a row for the editor.
// readonly opens it for viewing; nothing is written back.
func (m *SheetModel) startDirectEdit(rowID int, fieldID string, readonly bool) tea.Cmd {
	req, err := m.c.DirectEditTarget(rowID, fieldID, readonly)
	if err != nil {
		return showError("Cannot open editor: %v", err)
	}
	if m.editor == nil {
		m.c.ResolveDirectEdit(req, sheet.DirectEditResult{}, errNoEditor)
		return showError("Cannot open editor: %v", errNoEditor)
	}

	ctx, svc := m.ctx, m.c.Service()
	return func() tea.Msg {
		content, err := svc.GetContent(ctx, req.Path)
		if err != nil {
			return directEditReadyMsg{req: req, err: fmt.Errorf("failed to read %s: %w", req.Path, err)}
		}
		file, err := cli.CreateTempFile("datasheet-*.xml", content)
		return directEditReadyMsg{req: req, file: file, original: content, err: err}
	}
}

// handleDirectEditReady hands the terminal to the editor
func (m *SheetModel) handleDirectEditReady(msg directEditReadyMsg) tea.Cmd {
	if msg.err != nil {
		m.c.ResolveDirectEdit(msg.req, sheet.DirectEditResult{}, msg.err)
		return showError("%v", msg.err)
	}
	cmd := m.editor.Command(msg.file)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorClosedMsg{req: msg.req, file: msg.file, original: msg.original, err: err}
	})
}

// handleEditorClosed reads the edited file back and writes it when it changed
func (m *SheetModel) handleEditorClosed(msg editorClosedMsg) tea.Cmd {
	st := m.c.State()
	ctx, svc := m.ctx, m.c.Service()
	contentType := st.Query.ContentType
	fields := st.Fields

	return func() tea.Msg {
		defer os.Remove(msg.file)

		done := directEditDoneMsg{req: msg.req}
		if msg.err != nil {
			done.err = fmt.Errorf("editor failed: %w", msg.err)
			return done
		}
		if msg.req.Readonly {
			done.unchanged = true
			return done
		}

		data, err := os.ReadFile(msg.file)
		if err != nil {
			done.err = fmt.Errorf("failed to read edited file: %w", err)
			return done
		}
		content := string(data)
		if content == msg.original {
			done.unchanged = true
			return done
		}

		if err := svc.WriteContent(ctx, msg.req.Path, content, contentType); err != nil {
			done.err = fmt.Errorf("failed to write %s: %w", msg.req.Path, err)
			return done
		}
		done.res = sheet.ResultFromContent(msg.original, content, fields)
		return done
	}
}

// handleDirectEditDone resolves the edit in the controller
func (m *SheetModel) handleDirectEditDone(msg directEditDoneMsg) tea.Cmd {
	if err := m.c.ResolveDirectEdit(msg.req, msg.res, msg.err); err != nil {
		return showError("%v", err)
	}
	switch {
	case msg.req.Readonly:
		return nil
	case msg.unchanged:
		return showInfo("No changes to %s", msg.req.Path)
	default:
		return showSuccess("Saved %s", msg.req.Path)
	}
}

// directEditItems are the View and Edit entries of the cell menu
func (m *SheetModel) directEditItems(rowID int, field models.FieldDescriptor) []menuItem {
	return []menuItem{
		{key: "v", label: "View " + columnTitle(field), action: func() tea.Cmd {
			return m.startDirectEdit(rowID, field.FieldID, true)
		}},
		{key: "e", label: "Edit " + columnTitle(field), action: func() tea.Cmd {
			return m.startDirectEdit(rowID, field.FieldID, false)
		}},
	}
}
