package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/events"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/search"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

// writeClipboard is swapped out in tests
var writeClipboard = clipboard.WriteAll

// SheetModel is the grid of one content type with its dialogs. It reads the
// controller state on every render and changes it only through controller
// calls and bus publishes.
type SheetModel struct {
	ctx    context.Context
	c      *sheet.Controller
	bus    *events.Bus
	drafts DraftStore
	editor *cli.EditorLauncher
	now    func() time.Time

	pageSizes   []int
	columnWidth int
	keys        sheetKeyMap

	width  int
	height int

	// Cursor position: index into the working rows and the fields
	row       int
	col       int
	rowOffset int
	colOffset int

	search      *SearchBar
	cellEditor  *CellEditor
	filter      *FilterDialog
	findReplace *FindReplaceDialog
	menu        *MenuModel
	confirm     *ConfirmationModel
	detail      *CellDetail
	spinner     spinner.Model

	// Running bulk save
	saveBatch sheet.SaveBatch
	saveQueue []string

	// Content type whose drafts were read into the ledger
	draftsFor string
}

// NewSheetModel creates the sheet view
func NewSheetModel(ctx context.Context, opts Options) *SheetModel {
	columnWidth := opts.ColumnWidth
	if columnWidth < 8 {
		columnWidth = models.DefaultSettings().Sheet.ColumnWidth
	}
	pageSizes := opts.PageSizes
	if len(pageSizes) == 0 {
		pageSizes = models.DefaultSettings().Sheet.PageSizeOptions
	}

	return &SheetModel{
		ctx:         ctx,
		c:           opts.Controller,
		bus:         opts.Bus,
		drafts:      opts.Drafts,
		editor:      opts.Editor,
		now:         time.Now,
		pageSizes:   pageSizes,
		columnWidth: columnWidth,
		keys:        newSheetKeyMap(),
		search:      NewSearchBar(),
		cellEditor:  NewCellEditor(),
		filter:      NewFilterDialog(),
		findReplace: NewFindReplaceDialog(),
		menu:        NewMenu(),
		confirm:     NewConfirmation(),
		detail:      NewCellDetail(),
		spinner:     newSpinner(),
	}
}

func (m *SheetModel) Init() tea.Cmd {
	return m.loadIfRequested()
}

// Enter is called when the sheet becomes the active view
func (m *SheetModel) Enter(typeChanged bool) tea.Cmd {
	if typeChanged {
		m.row, m.col, m.rowOffset, m.colOffset = 0, 0, 0, 0
		m.search.SetValue("")
	}
	return m.loadIfRequested()
}

// SetSize updates the dimensions of the sheet
func (m *SheetModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.SetWidth(width)
	m.detail.SetSize(width, height)
}

func (m *SheetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case pageLoadedMsg:
		cmds = append(cmds, m.handlePage(msg))

	case itemSavedMsg:
		cmds = append(cmds, m.handleSaved(msg))

	case saveHoldDoneMsg:
		if p := m.c.State().Progress; p != nil && p.BatchID == msg.batchID {
			m.c.EndSaveHold()
		}

	case unlockedMsg:
		m.c.ApplyUnlock(msg.res)
		if msg.res.Err != nil {
			cmds = append(cmds, showError("Failed to unlock %s: %v", msg.res.Path, msg.res.Err))
		} else {
			cmds = append(cmds, showSuccess("Unlocked %s", msg.res.Path))
		}

	case discardedMsg:
		m.c.ApplyDiscard(msg.res)
		if msg.res.Err != nil {
			cmds = append(cmds, showError("%v", msg.res.Err))
		} else {
			cmds = append(cmds, showInfo("Discarded the changes to %s", msg.res.Path))
		}

	case directEditReadyMsg:
		cmds = append(cmds, m.handleDirectEditReady(msg))

	case editorClosedMsg:
		cmds = append(cmds, m.handleEditorClosed(msg))

	case directEditDoneMsg:
		cmds = append(cmds, m.handleDirectEditDone(msg))

	case spinner.TickMsg:
		if phase := m.c.State().Phase; phase == sheet.PhaseLoading || phase == sheet.PhaseSaving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	default:
		// cursor blinks and other input messages go to whatever has focus
		cmds = append(cmds, m.updateFocused(msg))
	}

	m.clampCursor()
	cmds = append(cmds, m.loadIfRequested())
	return m, tea.Batch(cmds...)
}

func (m *SheetModel) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.cellEditor.Active():
		_, cmd = m.cellEditor.Update(msg)
	case m.filter.Active():
		_, cmd = m.filter.Update(msg)
	case m.findReplace.Active():
		_, cmd = m.findReplace.Update(msg)
	case m.search.Active():
		_, cmd = m.search.Update(msg)
	case m.detail.Active():
		cmd = m.detail.Update(msg)
	}
	return cmd
}

// handlePage installs a fetched page and restores drafts on the first load of a type
func (m *SheetModel) handlePage(msg pageLoadedMsg) tea.Cmd {
	if !m.c.ApplyPage(msg.res) {
		return nil
	}

	var cmds []tea.Cmd
	if msg.draftsLoaded {
		m.c.RestoreDrafts(msg.drafts)
		m.draftsFor = msg.contentType
		if len(msg.drafts) > 0 {
			cmds = append(cmds, showInfo("Restored %d unsaved edits of %s", len(msg.drafts), msg.contentType))
		}
	}
	if msg.res.Err != nil {
		cmds = append(cmds, showError("Failed to load %s: %v", msg.contentType, msg.res.Err))
	}
	return tea.Batch(cmds...)
}

func (m *SheetModel) handleSaved(msg itemSavedMsg) tea.Cmd {
	m.c.ApplySaveResult(msg.res)

	// single-row save
	if msg.res.BatchID == "" {
		if msg.res.Err != nil {
			return showError("Failed to save %s: %v", msg.res.Path, msg.res.Err)
		}
		return showSuccess("Saved %s", msg.res.Path)
	}

	if msg.res.BatchID != m.saveBatch.ID {
		return nil
	}
	return m.saveNext()
}

func (m *SheetModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Modal layers first, topmost wins
	switch {
	case m.confirm.Active():
		return m.confirm.Update(msg)
	case m.detail.Active():
		if key.Matches(msg, m.keys.Yank) {
			return m.yankCell()
		}
		return m.detail.Update(msg)
	case m.menu.Active():
		return m.menu.Update(msg)
	case m.filter.Active():
		choice, cmd := m.filter.Update(msg)
		if choice != nil {
			return tea.Batch(cmd, m.applyFilter(choice.Filter))
		}
		return cmd
	case m.findReplace.Active():
		fr, cmd := m.findReplace.Update(msg)
		if fr != nil {
			return tea.Batch(cmd, m.publishFindReplace(*fr))
		}
		return cmd
	case m.cellEditor.Active():
		commit, cmd := m.cellEditor.Update(msg)
		if commit != nil {
			return tea.Batch(cmd, m.commitCell(*commit))
		}
		return cmd
	case m.search.Active():
		return m.updateSearch(msg)
	}

	st := m.c.State()

	// A finished save with failures stays up until dismissed
	if st.Progress != nil && !st.Progress.Processing && key.Matches(msg, m.keys.Dismiss) {
		m.c.DismissProgress()
		return nil
	}
	if st.Phase == sheet.PhaseSaving {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.row--
	case key.Matches(msg, m.keys.Down):
		m.row++
	case key.Matches(msg, m.keys.Left):
		m.col--
	case key.Matches(msg, m.keys.Right):
		m.col++
	case key.Matches(msg, m.keys.NextPage):
		m.c.SetPage(st.Query.Page + 1)
	case key.Matches(msg, m.keys.PrevPage):
		m.c.SetPage(st.Query.Page - 1)
	case key.Matches(msg, m.keys.PageSize):
		m.c.SetPageSize(nextPageSize(m.pageSizes, st.Query.PageSize))
	case key.Matches(msg, m.keys.Edit):
		return m.editCell()
	case key.Matches(msg, m.keys.RowMenu):
		return m.openRowMenu()
	case key.Matches(msg, m.keys.View):
		return m.viewCell()
	case key.Matches(msg, m.keys.Yank):
		return m.yankCell()
	case key.Matches(msg, m.keys.Search):
		m.search.SetValue(st.Query.Keyword)
		return m.search.SetActive(true)
	case key.Matches(msg, m.keys.Filter):
		return m.filter.Show(st.Query.DateFilter)
	case key.Matches(msg, m.keys.Replace):
		return m.findReplace.Show(st.FindText)
	case key.Matches(msg, m.keys.SaveAll):
		return m.saveAll()
	case key.Matches(msg, m.keys.CancelAll):
		return m.confirmCancelAll()
	case key.Matches(msg, m.keys.ClearFind):
		if st.FindText != "" {
			return m.publishFindReplace(models.FindReplace{Action: models.ActionFind})
		}
	case key.Matches(msg, m.keys.Back):
		return func() tea.Msg { return SwitchViewMsg{view: typeSelectorView} }
	case msg.String() == "q":
		return func() tea.Msg { return quitMsg{} }
	}
	return nil
}

func (m *SheetModel) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetActive(false)
		return nil
	case tea.KeyEnter:
		m.search.SetActive(false)
		current := m.c.State().Query.Criteria
		criteria, err := search.ParseCriteria(current.ContentType, m.search.Value(), m.now())
		if err != nil {
			return showError("%v", err)
		}
		// the filter dialog's range holds unless the search sets its own
		if criteria.DateFilter == nil {
			criteria.DateFilter = current.DateFilter
		}
		m.bus.Publish(events.TopicCriteria, criteria)
		return nil
	}
	_, cmd := m.search.Update(msg)
	return cmd
}

func (m *SheetModel) applyFilter(filter *models.DateRange) tea.Cmd {
	criteria := m.c.State().Query.Criteria
	criteria.DateFilter = filter
	m.bus.Publish(events.TopicCriteria, criteria)
	if filter == nil {
		return showInfo("Filter cleared")
	}
	return nil
}

func (m *SheetModel) publishFindReplace(fr models.FindReplace) tea.Cmd {
	if fr.Action == models.ActionReplace {
		// highlight what was replaced
		m.bus.Publish(events.TopicFindReplace, models.FindReplace{FindText: fr.ReplaceText, Action: models.ActionFind})
	}
	m.bus.Publish(events.TopicFindReplace, fr)

	if fr.Action != models.ActionReplace {
		return nil
	}
	st := m.c.State()
	if st.Phase != sheet.PhaseReady {
		return showWarning("The sheet is busy, nothing was replaced")
	}
	return showInfo("Replaced %q with %q, %d items have pending edits", fr.FindText, fr.ReplaceText, st.Ledger.Len())
}

// currentCell returns the row and field under the cursor
func (m *SheetModel) currentCell() (sheet.Row, models.FieldDescriptor, bool) {
	st := m.c.State()
	if m.row < 0 || m.row >= len(st.Working) || m.col < 0 || m.col >= len(st.Fields) {
		return sheet.Row{}, models.FieldDescriptor{}, false
	}
	return st.Working[m.row], st.Fields[m.col], true
}

func (m *SheetModel) editCell() tea.Cmd {
	if m.c.State().Phase != sheet.PhaseReady {
		return nil
	}
	row, field, ok := m.currentCell()
	if !ok {
		return nil
	}
	if !field.FieldType.IsInlineEditable() {
		m.menu.Show(columnTitle(field), row.Path, m.directEditItems(row.ID, field))
		return nil
	}
	return m.cellEditor.Show(row.ID, field, row.Value(field.FieldID), max(m.width-len(columnTitle(field))-10, 20))
}

func (m *SheetModel) commitCell(commit cellCommit) tea.Cmd {
	if _, err := m.c.EditCell(commit.RowID, commit.FieldID, commit.Value); err != nil {
		return showError("Edit not applied: %v", err)
	}
	return nil
}

func (m *SheetModel) viewCell() tea.Cmd {
	row, field, ok := m.currentCell()
	if !ok {
		return nil
	}
	m.detail.Show(row.Path, field, row.Value(field.FieldID))
	return nil
}

func (m *SheetModel) yankCell() tea.Cmd {
	row, field, ok := m.currentCell()
	if !ok {
		return nil
	}
	if err := writeClipboard(row.Value(field.FieldID)); err != nil {
		return showError("Failed to copy: %v", err)
	}
	return showSuccess("Copied %s of %s", columnTitle(field), row.Path)
}

func (m *SheetModel) openRowMenu() tea.Cmd {
	st := m.c.State()
	if st.Phase != sheet.PhaseReady || m.row < 0 || m.row >= len(st.Working) {
		return nil
	}
	row := st.Working[m.row]
	if err := m.c.Select(row.ID, ""); err != nil {
		return nil
	}

	var items []menuItem
	if row.IsLocked() {
		items = append(items, menuItem{key: "u", label: "Unlock (locked by " + row.LockOwner + ")", action: func() tea.Cmd {
			path, err := m.c.UnlockTarget(row.ID)
			if err != nil {
				return showError("Cannot unlock: %v", err)
			}
			return m.unlock(path)
		}})
	}
	items = append(items, menuItem{key: "e", label: "Edit item", action: func() tea.Cmd {
		return m.startDirectEdit(row.ID, "", false)
	}})
	if st.Ledger.HasPending(row.Path) {
		items = append(items,
			menuItem{key: "s", label: "Save row", action: func() tea.Cmd {
				target, err := m.c.BeginRowSave(row.ID)
				if err != nil {
					return showError("Cannot save: %v", err)
				}
				return m.saveRow(target)
			}},
			menuItem{key: "c", label: "Clear changes", action: func() tea.Cmd {
				return m.confirmDiscard(row)
			}},
		)
	}

	subtitle := row.Path
	if row.IsLocked() {
		subtitle += " · locked"
	}
	m.menu.Show("Row actions", subtitle, items)
	return nil
}

func (m *SheetModel) confirmDiscard(row sheet.Row) tea.Cmd {
	m.confirm.Show(ConfirmationConfig{
		Message:     fmt.Sprintf("Discard the changes to %s?", row.Path),
		Destructive: true,
		Type:        ConfirmTypeInline,
	}, func() tea.Cmd {
		req, err := m.c.DiscardTarget(row.ID)
		if err != nil {
			return showError("Cannot discard: %v", err)
		}
		return m.discard(req)
	}, func() tea.Cmd {
		m.c.ClearSelection()
		return nil
	})
	return nil
}

func (m *SheetModel) saveAll() tea.Cmd {
	batch, err := m.c.BeginSave()
	if errors.Is(err, sheet.ErrWriteInFlight) {
		return showWarning("Cannot save all: %s is still being saved", m.c.State().Writing)
	}
	if err != nil {
		return showInfo("Nothing to save: %v", err)
	}
	m.saveBatch = batch
	m.saveQueue = append([]string(nil), batch.Paths...)
	return tea.Batch(m.spinner.Tick, m.saveNext())
}

func (m *SheetModel) confirmCancelAll() tea.Cmd {
	st := m.c.State()
	if st.Ledger.Len() == 0 {
		return showInfo("No pending edits")
	}
	m.confirm.Show(ConfirmationConfig{
		Title:       "Cancel all changes",
		Message:     fmt.Sprintf("Drop the pending edits of %d items?", st.Ledger.Len()),
		Warning:     "Unsaved changes on every page are lost.",
		Details:     st.Ledger.Paths(),
		Destructive: true,
		Type:        ConfirmTypeDialog,
	}, func() tea.Cmd {
		if err := m.c.CancelAll(); err != nil {
			return showError("Cannot cancel: %v", err)
		}
		return tea.Batch(m.clearDrafts(), showInfo("All pending edits dropped"))
	}, nil)
	return nil
}

// clampCursor keeps the cursor on the page and in view
func (m *SheetModel) clampCursor() {
	st := m.c.State()
	m.row = clamp(m.row, 0, len(st.Working)-1)
	m.col = clamp(m.col, 0, len(st.Fields)-1)

	if visible := m.visibleRows(); visible > 0 {
		if m.row < m.rowOffset {
			m.rowOffset = m.row
		} else if m.row >= m.rowOffset+visible {
			m.rowOffset = m.row - visible + 1
		}
	}
	if visible := m.visibleColumns(); visible > 0 {
		if m.col < m.colOffset {
			m.colOffset = m.col
		} else if m.col >= m.colOffset+visible {
			m.colOffset = m.col - visible + 1
		}
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nextPageSize cycles through the configured page sizes
func nextPageSize(options []int, current int) int {
	for i, size := range options {
		if size == current {
			return options[(i+1)%len(options)]
		}
	}
	if len(options) == 0 {
		return current
	}
	return options[0]
}
