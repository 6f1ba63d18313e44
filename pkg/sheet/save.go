package sheet

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SaveBatch is one bulk save: every path that had pending edits when it began.
type SaveBatch struct {
	ID          string
	ContentType string
	Paths       []string
}

// SaveResult is the outcome of writing one item.
type SaveResult struct {
	// BatchID is empty for a single-row save.
	BatchID string
	Path    string
	Written map[string]Edit
	Content string
	Err     error
}

// BeginSave moves the sheet to saving and returns the batch to write.
func (c *Controller) BeginSave() (SaveBatch, error) {
	if c.state.Phase != PhaseReady {
		return SaveBatch{}, ErrNotReady
	}
	if c.state.Writing != "" {
		return SaveBatch{}, ErrWriteInFlight
	}
	if c.state.Ledger.Len() == 0 {
		return SaveBatch{}, ErrNoPendingEdits
	}

	batch := SaveBatch{
		ID:          uuid.NewString(),
		ContentType: c.state.Query.ContentType,
		Paths:       c.state.Ledger.Paths(),
	}
	c.state.Phase = PhaseSaving
	c.state.Selection = nil
	c.state.Progress = &SaveProgress{
		BatchID:    batch.ID,
		Total:      len(batch.Paths),
		Processing: true,
	}
	logger.Infow("saving pending edits", "batch", batch.ID, "items", len(batch.Paths))
	c.notifyProgress()
	return batch, nil
}

// PendingEdits returns the edits of path as they are now. Writers call it right
// before each write so edits recorded after the batch began are included.
func (c *Controller) PendingEdits(path string) map[string]Edit {
	return c.state.Ledger.Edits(path)
}

// SaveItem writes one item. It touches no controller state.
func SaveItem(ctx context.Context, svc ContentService, contentType, batchID, path string, edits map[string]Edit) SaveResult {
	res := SaveResult{BatchID: batchID, Path: path, Written: edits}
	if len(edits) == 0 {
		return res
	}
	res.Content, res.Err = WriteRow(ctx, svc, contentType, path, edits)
	return res
}

// ApplySaveResult folds one write into the state. On success the row is rebuilt from
// the written document and the ledger entries it covered are dropped. Failures keep
// their entries and are listed in the save progress.
func (c *Controller) ApplySaveResult(res SaveResult) {
	counted := res.BatchID != "" && c.state.Progress != nil && c.state.Progress.BatchID == res.BatchID
	if res.BatchID == "" {
		c.releaseWrite(res.Path)
	}

	if res.Err != nil {
		logger.Warnw("failed to save item", "path", res.Path, "batch", res.BatchID, "error", res.Err)
		if counted {
			p := *c.state.Progress
			p.Failed = append(append([]string{}, p.Failed...), res.Path)
			c.state.Progress = &p
			c.notifyProgress()
		}
		return
	}

	if res.Content != "" {
		i := rowIndex(c.state.Committed, res.Path)
		id := -1
		if i >= 0 {
			id = c.state.Committed[i].ID
		}
		// A write releases the lock, so the rebuilt row has no lock owner.
		row := MapRow(id, res.Path, res.Content, c.state.Fields, nil)
		c.state.Ledger = c.state.Ledger.Settle(res.Path, res.Written, row)
		if i >= 0 {
			c.state.Committed = replaceRow(c.state.Committed, i, row)
		}
		if j := rowIndex(c.state.Working, res.Path); j >= 0 {
			c.state.Working = replaceRow(c.state.Working, j, c.state.Ledger.Overlay(row))
		}
	}
	logger.Debugw("saved item", "path", res.Path, "batch", res.BatchID)

	if counted {
		p := *c.state.Progress
		p.Completed++
		c.state.Progress = &p
		c.notifyProgress()
	}
}

// FinishSave closes the batch once every item was attempted. When all items were
// written it reports true and the sheet stays in saving until EndSaveHold.
// Otherwise the sheet is ready again, the failed items keep their pending edits
// and the progress stays visible listing them.
func (c *Controller) FinishSave() bool {
	if c.state.Phase != PhaseSaving || c.state.Progress == nil {
		return false
	}
	p := *c.state.Progress
	c.state.Working = overlayAll(c.state.Ledger, c.state.Committed)

	if len(p.Failed) == 0 {
		logger.Infow("saved pending edits", "batch", p.BatchID, "items", p.Completed)
		return true
	}

	c.state.Ledger = c.state.Ledger.Retain(p.Failed)
	c.state.Working = overlayAll(c.state.Ledger, c.state.Committed)
	p.Processing = false
	c.state.Progress = &p
	c.state.Phase = PhaseReady
	logger.Warnw("some items were not saved", "batch", p.BatchID, "failed", len(p.Failed), "saved", p.Completed)
	c.notifyProgress()
	return false
}

// EndSaveHold returns the sheet to ready after a successful save.
func (c *Controller) EndSaveHold() {
	if c.state.Phase != PhaseSaving {
		return
	}
	c.state.Phase = PhaseReady
	c.state.Progress = nil
}

// DismissProgress hides the progress left by a partially failed save.
func (c *Controller) DismissProgress() {
	if c.state.Phase == PhaseSaving {
		return
	}
	c.state.Progress = nil
}

// SaveAll writes every pending item on the calling goroutine, holding a successful
// result for the configured save hold. A partial failure returns a *SaveError.
func (c *Controller) SaveAll(ctx context.Context) (SaveProgress, error) {
	batch, err := c.BeginSave()
	if err != nil {
		return SaveProgress{}, err
	}

	for _, path := range batch.Paths {
		c.ApplySaveResult(SaveItem(ctx, c.svc, batch.ContentType, batch.ID, path, c.PendingEdits(path)))
	}

	progress := *c.state.Progress
	if !c.FinishSave() {
		return progress, &SaveError{Failed: progress.Failed}
	}
	if hold := c.opts.SaveHold; hold > 0 {
		timer := time.NewTimer(hold)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	c.EndSaveHold()
	return progress, nil
}

// RowSave is a single-row save target.
type RowSave struct {
	ContentType string
	Path        string
	Edits       map[string]Edit
}

// BeginRowSave returns the pending edits of one row for writing. The row holds
// the write slot until its result is applied.
func (c *Controller) BeginRowSave(rowID int) (RowSave, error) {
	if c.state.Phase != PhaseReady {
		return RowSave{}, ErrNotReady
	}
	row, ok := c.state.Row(rowID)
	if !ok {
		return RowSave{}, ErrUnknownRow
	}
	if !c.state.Ledger.HasPending(row.Path) {
		return RowSave{}, ErrNoPendingEdits
	}
	if err := c.claimWrite(row.Path); err != nil {
		return RowSave{}, err
	}
	return RowSave{
		ContentType: c.state.Query.ContentType,
		Path:        row.Path,
		Edits:       c.state.Ledger.Edits(row.Path),
	}, nil
}

// SaveRowNow writes one row on the calling goroutine.
func (c *Controller) SaveRowNow(ctx context.Context, rowID int) error {
	target, err := c.BeginRowSave(rowID)
	if err != nil {
		return err
	}
	res := SaveItem(ctx, c.svc, target.ContentType, "", target.Path, target.Edits)
	c.ApplySaveResult(res)
	return res.Err
}

// claimWrite reserves the single write slot for path.
func (c *Controller) claimWrite(path string) error {
	if c.state.Writing != "" {
		logger.Infow("write refused while another is in flight", "path", path, "writing", c.state.Writing)
		return ErrWriteInFlight
	}
	c.state.Writing = path
	return nil
}

func (c *Controller) releaseWrite(path string) {
	if c.state.Writing == path {
		c.state.Writing = ""
	}
}

func (c *Controller) notifyProgress() {
	if c.opts.OnProgress != nil && c.state.Progress != nil {
		c.opts.OnProgress(*c.state.Progress)
	}
}
