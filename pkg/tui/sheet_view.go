package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

// Lines taken by everything but the grid rows: header (4), search bar (3),
// column header and rule (2), footer and help (2), spacing (1)
const sheetChromeHeight = 12

const lockMarker = "⚿"

func (m *SheetModel) pathWidth() int {
	return m.columnWidth + 2
}

// visibleRows is how many rows fit; 0 before the first size message
func (m *SheetModel) visibleRows() int {
	if m.height == 0 {
		return 0
	}
	return max(m.height-sheetChromeHeight-m.panelHeight(), 1)
}

// visibleColumns is how many field columns fit next to the path column
func (m *SheetModel) visibleColumns() int {
	if m.width == 0 {
		return 0
	}
	avail := m.width - 2 - m.pathWidth() - 1
	return max(avail/(m.columnWidth+1), 1)
}

// panelHeight is the height of the save progress panel, the cell editor or an inline prompt
func (m *SheetModel) panelHeight() int {
	h := 0
	if p := m.c.State().Progress; p != nil {
		h += 3 + len(p.Failed)
		if !p.Processing {
			h++
		}
	}
	if m.cellEditor.Active() {
		h += 3
	}
	if m.confirm.Active() {
		h++
	}
	return h
}

func (m *SheetModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	st := m.c.State()

	header := renderHeader(m.width, m.title(st), m.subtitle(st))

	// Dialogs take the place of the grid
	gridHeight := m.visibleRows() + 2
	var body string
	switch overlay := m.overlay(); {
	case overlay != "":
		body = lipgloss.Place(m.width, gridHeight, lipgloss.Center, lipgloss.Center, overlay)
	default:
		body = lipgloss.NewStyle().Height(gridHeight).Render(m.renderGrid(st))
	}

	sections := []string{header, m.search.View(), ContentPaddingStyle.Render(body)}

	if st.Progress != nil {
		sections = append(sections, renderSaveProgress(*st.Progress, m.spinner, m.width))
	}
	if m.cellEditor.Active() {
		sections = append(sections, m.cellEditor.View())
	}
	if m.confirm.Active() && m.confirmIsInline() {
		sections = append(sections, m.confirm.View(m.width))
	}

	sections = append(sections, m.renderFooter(st), m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *SheetModel) confirmIsInline() bool {
	return m.confirm.config.Type == ConfirmTypeInline
}

// overlay returns the dialog drawn over the grid, if any
func (m *SheetModel) overlay() string {
	switch {
	case m.confirm.Active() && !m.confirmIsInline():
		return m.confirm.View(m.width)
	case m.detail.Active():
		return m.detail.View()
	case m.menu.Active():
		return m.menu.View()
	case m.filter.Active():
		return m.filter.View()
	case m.findReplace.Active():
		return m.findReplace.View()
	}
	return ""
}

func (m *SheetModel) title(st sheet.State) string {
	if st.Query.ContentType == "" {
		return "Datasheet"
	}
	return "Datasheet · " + st.Query.ContentType
}

func (m *SheetModel) subtitle(st sheet.State) string {
	parts := []string{"site " + m.c.Site()}
	if st.Query.Keyword != "" {
		parts = append(parts, fmt.Sprintf("search %q", st.Query.Keyword))
	}
	if f := st.Query.DateFilter; f != nil {
		parts = append(parts, "filter "+filterLabel(f))
	}
	if st.FindText != "" {
		parts = append(parts, fmt.Sprintf("find %q", st.FindText))
	}
	return strings.Join(parts, " · ")
}

func filterLabel(f *models.DateRange) string {
	switch {
	case f.ID != "":
		return f.ID
	case f.Min.IsZero():
		return "until " + f.Max.Format("2006-01-02")
	case f.Max.IsZero():
		return "since " + f.Min.Format("2006-01-02")
	default:
		return f.Min.Format("2006-01-02") + ".." + f.Max.Format("2006-01-02")
	}
}

type cellKey struct {
	rowID   int
	fieldID string
}

func (m *SheetModel) renderGrid(st sheet.State) string {
	switch {
	case st.Query.ContentType == "":
		return EmptyInactiveStyle.Render("No content type selected. Press t to pick one.")
	case st.Phase == sheet.PhaseLoading && len(st.Working) == 0:
		return m.spinner.View() + " Loading " + st.Query.ContentType + "..."
	case st.LoadErr != nil && len(st.Working) == 0:
		return ErrorStyle.Render("Failed to load: " + st.LoadErr.Error())
	case st.Phase != sheet.PhaseIdle && len(st.Working) == 0:
		return EmptyActiveStyle.Render("No items match.")
	}

	found := make(map[cellKey]bool)
	for _, ref := range st.Matches() {
		found[cellKey{ref.RowID, ref.FieldID}] = true
	}

	start := min(m.colOffset, len(st.Fields))
	end := len(st.Fields)
	if cols := m.visibleColumns(); cols > 0 {
		end = min(start+cols, len(st.Fields))
	}
	fields := st.Fields[start:end]

	var b strings.Builder

	// Column headers, with arrows when columns are scrolled out of view
	left, right := " ", " "
	if start > 0 {
		left = "‹"
	}
	if end < len(st.Fields) {
		right = "›"
	}
	headers := []string{"  " + ColumnHeaderStyle.Render(fitCell("Path", m.pathWidth()-3)) + left}
	for _, f := range fields {
		headers = append(headers, ColumnHeaderStyle.Render(fitCell(columnTitle(f), m.columnWidth)))
	}
	b.WriteString(strings.Join(headers, " ") + right)
	b.WriteString("\n")
	b.WriteString(DescriptionStyle.Render(strings.Repeat("─", max(m.width-4, 0))))
	b.WriteString("\n")

	rowStart := min(m.rowOffset, len(st.Working))
	rowEnd := len(st.Working)
	if visible := m.visibleRows(); visible > 0 {
		rowEnd = min(rowStart+visible, len(st.Working))
	}
	for i := rowStart; i < rowEnd; i++ {
		row := st.Working[i]
		edits := st.Ledger.Edits(row.Path)

		cells := []string{m.renderPathCell(row, i == m.row, len(edits) > 0)}
		for j, f := range fields {
			_, edited := edits[f.FieldID]
			cursor := i == m.row && start+j == m.col
			text := fitCell(cellText(f, row.Value(f.FieldID)), m.columnWidth)
			cells = append(cells, cellStyle(cursor, found[cellKey{row.ID, f.FieldID}], edited).Render(text))
		}
		b.WriteString(strings.Join(cells, " "))
		if i < rowEnd-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderPathCell shows the lock marker and a pending-edit dot before the item path
func (m *SheetModel) renderPathCell(row sheet.Row, current, pending bool) string {
	marker := " "
	if row.IsLocked() {
		marker = LockStyle.Render(lockMarker)
	}
	dot := " "
	if pending {
		dot = WarningStyle.Render("•")
	}
	style := PathCellStyle
	if current {
		style = GetActiveHeaderStyle(true)
	}
	return marker + dot + style.Render(fitCell(row.Path, m.pathWidth()-2))
}

func (m *SheetModel) renderFooter(st sheet.State) string {
	pages := st.Query.PageCount(st.Total)
	page := st.Query.Page + 1
	if pages == 0 {
		page = 0
	}

	sizes := make([]string, len(m.pageSizes))
	for i, size := range m.pageSizes {
		if size == st.Query.PageSize {
			sizes[i] = CursorStyle.Render(fmt.Sprint(size))
		} else {
			sizes[i] = fmt.Sprint(size)
		}
	}

	parts := []string{
		fmt.Sprintf("Page %d/%d", page, pages),
		"Rows " + strings.Join(sizes, "/"),
		fmt.Sprintf("%d items", st.Total),
	}
	if n := st.Ledger.Len(); n > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d pending", n)))
	}
	if st.Phase == sheet.PhaseLoading && len(st.Working) > 0 {
		parts = append(parts, m.spinner.View()+" loading")
	}
	if row, _, ok := m.currentCell(); ok && row.IsLocked() {
		parts = append(parts, LockStyle.Render("locked by "+row.LockOwner))
	}
	return ContentPaddingStyle.Render(strings.Join(parts, DescriptionStyle.Render(" · ")))
}

func (m *SheetModel) renderHelp() string {
	k := m.keys
	help := helpLine(k.Edit, k.RowMenu, k.View, k.Yank, k.Search, k.Filter, k.Replace,
		k.PrevPage, k.NextPage, k.PageSize, k.SaveAll, k.CancelAll, k.Back)
	if m.width > 4 {
		help = truncate.StringWithTail(help, uint(m.width-2), "…")
	}
	return ContentPaddingStyle.Render(DescriptionStyle.Render(help))
}
