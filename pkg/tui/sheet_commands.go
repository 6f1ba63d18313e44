package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

// Results of the remote calls the sheet runs in commands. Each one is
// handed back to the controller on the update goroutine.
type (
	pageLoadedMsg struct {
		contentType  string
		res          sheet.PageResult
		drafts       []sheet.LedgerEntry
		draftsLoaded bool
	}

	itemSavedMsg struct {
		res sheet.SaveResult
	}

	saveHoldDoneMsg struct {
		batchID string
	}

	unlockedMsg struct {
		res sheet.UnlockResult
	}

	discardedMsg struct {
		res sheet.DiscardResult
	}
)

// loadIfRequested starts a load when the controller asked for one
func (m *SheetModel) loadIfRequested() tea.Cmd {
	if !m.c.TakeLoadRequest() {
		return nil
	}
	req, err := m.c.BeginLoad()
	if err != nil {
		logger.Debugw("load not started", "error", err)
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.fetchPage(req))
}

// fetchPage runs FetchPage and, on the first load of a content type, reads its drafts
func (m *SheetModel) fetchPage(req sheet.LoadRequest) tea.Cmd {
	ctx, svc, store := m.ctx, m.c.Service(), m.drafts
	contentType := req.Query.ContentType
	loadDrafts := store != nil && m.draftsFor != contentType

	return func() tea.Msg {
		msg := pageLoadedMsg{contentType: contentType, res: sheet.FetchPage(ctx, svc, req)}
		if loadDrafts {
			entries, err := store.Load(ctx, req.Site, contentType)
			if err != nil {
				logger.Warnw("failed to load drafts", "contentType", contentType, "error", err)
			} else {
				msg.drafts = entries
				msg.draftsLoaded = true
			}
		}
		return msg
	}
}

// saveNext writes the next item of the running batch, or closes the batch
func (m *SheetModel) saveNext() tea.Cmd {
	if len(m.saveQueue) == 0 {
		return m.finishSave()
	}
	path := m.saveQueue[0]
	m.saveQueue = m.saveQueue[1:]

	// edits are read right before the write so late edits are included
	edits := m.c.PendingEdits(path)
	ctx, svc, batch := m.ctx, m.c.Service(), m.saveBatch
	return func() tea.Msg {
		return itemSavedMsg{res: sheet.SaveItem(ctx, svc, batch.ContentType, batch.ID, path, edits)}
	}
}

func (m *SheetModel) finishSave() tea.Cmd {
	progress := m.c.State().Progress
	if !m.c.FinishSave() {
		if progress == nil {
			return nil
		}
		return showWarning("Saved %d items, %d failed", progress.Completed, len(progress.Failed))
	}

	completed := 0
	if progress != nil {
		completed = progress.Completed
	}
	cmds := []tea.Cmd{m.clearDrafts(), showSuccess("Saved %d items", completed)}

	hold := m.c.SaveHold()
	if hold <= 0 {
		m.c.EndSaveHold()
		return tea.Batch(append(cmds, m.loadIfRequested())...)
	}
	batchID := m.saveBatch.ID
	cmds = append(cmds, tea.Tick(hold, func(time.Time) tea.Msg {
		return saveHoldDoneMsg{batchID: batchID}
	}))
	return tea.Batch(cmds...)
}

func (m *SheetModel) saveRow(target sheet.RowSave) tea.Cmd {
	ctx, svc := m.ctx, m.c.Service()
	return func() tea.Msg {
		return itemSavedMsg{res: sheet.SaveItem(ctx, svc, target.ContentType, "", target.Path, target.Edits)}
	}
}

func (m *SheetModel) unlock(path string) tea.Cmd {
	ctx, svc := m.ctx, m.c.Service()
	return func() tea.Msg {
		return unlockedMsg{res: sheet.UnlockItem(ctx, svc, path)}
	}
}

func (m *SheetModel) discard(req sheet.DiscardRequest) tea.Cmd {
	ctx, svc := m.ctx, m.c.Service()
	return func() tea.Msg {
		return discardedMsg{res: sheet.FetchItem(ctx, svc, req)}
	}
}

// persistDrafts stores the pending edits of the shown content type, replacing
// its earlier drafts. Types whose drafts were never read are left alone.
func (m *SheetModel) persistDrafts() {
	st := m.c.State()
	contentType := st.Query.ContentType
	if m.drafts == nil || contentType == "" || m.draftsFor != contentType {
		return
	}
	entries := m.c.PendingEntries()
	if err := m.drafts.Save(m.ctx, m.c.Site(), contentType, entries); err != nil {
		logger.Warnw("failed to save drafts", "contentType", contentType, "error", err)
		return
	}
	logger.Infow("saved drafts", "contentType", contentType, "fields", len(entries))
}

// clearDrafts drops the stored drafts of the shown content type
func (m *SheetModel) clearDrafts() tea.Cmd {
	contentType := m.c.State().Query.ContentType
	if m.drafts == nil || contentType == "" {
		return nil
	}
	ctx, store, site := m.ctx, m.drafts, m.c.Site()
	return func() tea.Msg {
		if _, err := store.Clear(ctx, site, contentType); err != nil {
			logger.Warnw("failed to clear drafts", "contentType", contentType, "error", err)
			return StatusMsg{Text: "Could not clear drafts: " + err.Error(), Type: StatusTypeWarning}
		}
		return nil
	}
}
