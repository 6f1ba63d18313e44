package sheet

import (
	"context"
	"fmt"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/schema"
)

// UnlockResult is the outcome of releasing an item lock.
type UnlockResult struct {
	Path string
	Err  error
}

// UnlockTarget returns the path of a locked row.
func (c *Controller) UnlockTarget(rowID int) (string, error) {
	if c.state.Phase != PhaseReady {
		return "", ErrNotReady
	}
	row, ok := c.state.Row(rowID)
	if !ok {
		return "", ErrUnknownRow
	}
	if !row.IsLocked() {
		return "", ErrNotLocked
	}
	return row.Path, nil
}

// UnlockItem releases the lock on path.
func UnlockItem(ctx context.Context, svc ContentService, path string) UnlockResult {
	return UnlockResult{Path: path, Err: svc.Unlock(ctx, path)}
}

// ApplyUnlock clears the lock owner of the row once the lock was released.
func (c *Controller) ApplyUnlock(res UnlockResult) {
	c.state.Selection = nil
	if res.Err != nil {
		logger.Warnw("failed to unlock item", "path", res.Path, "error", res.Err)
		return
	}
	c.state.Committed = clearLock(c.state.Committed, res.Path)
	c.state.Working = clearLock(c.state.Working, res.Path)
}

// UnlockNow unlocks one row on the calling goroutine.
func (c *Controller) UnlockNow(ctx context.Context, rowID int) error {
	path, err := c.UnlockTarget(rowID)
	if err != nil {
		return err
	}
	res := UnlockItem(ctx, c.svc, path)
	c.ApplyUnlock(res)
	return res.Err
}

func clearLock(rows []Row, path string) []Row {
	i := rowIndex(rows, path)
	if i < 0 {
		return rows
	}
	row := rows[i].Clone()
	row.LockOwner = ""
	return replaceRow(rows, i, row)
}

// DiscardRequest identifies a row to reload from the repository.
type DiscardRequest struct {
	RowID  int
	Path   string
	Fields []models.FieldDescriptor
}

// DiscardResult carries the reloaded row.
type DiscardResult struct {
	Path string
	Row  Row
	Err  error
}

// DiscardTarget returns the request to reload one row.
func (c *Controller) DiscardTarget(rowID int) (DiscardRequest, error) {
	if c.state.Phase != PhaseReady {
		return DiscardRequest{}, ErrNotReady
	}
	row, ok := c.state.Row(rowID)
	if !ok {
		return DiscardRequest{}, ErrUnknownRow
	}
	return DiscardRequest{RowID: rowID, Path: row.Path, Fields: c.state.Fields}, nil
}

// FetchItem reloads the document and metadata of one item. Both must be readable.
func FetchItem(ctx context.Context, svc ContentService, req DiscardRequest) DiscardResult {
	res := DiscardResult{Path: req.Path}
	content, err := svc.GetContent(ctx, req.Path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", req.Path, err)
		return res
	}
	meta, err := svc.ItemMeta(ctx, req.Path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read metadata of %s: %w", req.Path, err)
		return res
	}
	res.Row = MapRow(req.RowID, req.Path, content, req.Fields, meta)
	return res
}

// ApplyDiscard replaces the row with its reloaded version and drops its pending edits.
func (c *Controller) ApplyDiscard(res DiscardResult) {
	c.state.Selection = nil
	if res.Err != nil {
		logger.Warnw("failed to discard changes", "path", res.Path, "error", res.Err)
		return
	}
	c.state.Ledger = c.state.Ledger.Clear(res.Path)
	if i := rowIndex(c.state.Committed, res.Path); i >= 0 {
		c.state.Committed = replaceRow(c.state.Committed, i, res.Row)
	}
	if j := rowIndex(c.state.Working, res.Path); j >= 0 {
		c.state.Working = replaceRow(c.state.Working, j, res.Row.Clone())
	}
}

// DiscardNow discards one row on the calling goroutine.
func (c *Controller) DiscardNow(ctx context.Context, rowID int) error {
	req, err := c.DiscardTarget(rowID)
	if err != nil {
		return err
	}
	res := FetchItem(ctx, c.svc, req)
	c.ApplyDiscard(res)
	return res.Err
}

// DirectEditRequest is handed to the external form editor.
type DirectEditRequest struct {
	RowID    int
	Path     string
	Site     string
	Readonly bool
	// SelectedFields are the cells the editor was opened for. Empty means the whole item.
	SelectedFields []string
}

// DirectEditResult is what the external editor saved.
type DirectEditResult struct {
	Values map[string]string
	Raw    map[string]string
	// Changed lists the fields the operator changed in the editor. Nil means
	// every field whose saved value differs from the committed row.
	Changed []string
}

// DirectEditor edits an item outside the grid.
type DirectEditor interface {
	Edit(ctx context.Context, req DirectEditRequest) (DirectEditResult, error)
}

// ResultFromContent maps a saved document into a DirectEditResult. Changed
// holds the fields that differ from original, the document the editor opened.
func ResultFromContent(original, content string, fields []models.FieldDescriptor) DirectEditResult {
	before := MapRow(0, "", original, fields, nil)
	saved := MapRow(0, "", content, fields, nil)
	res := DirectEditResult{Values: saved.Values, Raw: saved.Raw, Changed: []string{}}
	for _, f := range fields {
		if fieldDiffers(before, saved, f.FieldID) {
			res.Changed = append(res.Changed, f.FieldID)
		}
	}
	return res
}

// fieldDiffers compares one field of two rows, raw subtree included.
func fieldDiffers(a, b Row, fieldID string) bool {
	if a.Value(fieldID) != b.Value(fieldID) {
		return true
	}
	rawA, okA := a.RawValue(fieldID)
	rawB, okB := b.RawValue(fieldID)
	return okA != okB || rawA != rawB
}

// DirectEditTarget selects a row, or one of its cells when fieldID is set,
// and returns the request for the external editor. An editable request holds
// the item's write slot until ResolveDirectEdit.
func (c *Controller) DirectEditTarget(rowID int, fieldID string, readonly bool) (DirectEditRequest, error) {
	if c.state.Phase != PhaseReady {
		return DirectEditRequest{}, ErrNotReady
	}
	row, ok := c.state.Row(rowID)
	if !ok {
		return DirectEditRequest{}, ErrUnknownRow
	}
	req := DirectEditRequest{RowID: rowID, Path: row.Path, Site: c.opts.Site, Readonly: readonly}
	if fieldID != "" {
		if _, ok := schema.Lookup(c.state.Fields, fieldID); !ok {
			return DirectEditRequest{}, ErrUnknownField
		}
		req.SelectedFields = []string{fieldID}
	}
	if !readonly {
		if err := c.claimWrite(row.Path); err != nil {
			return DirectEditRequest{}, err
		}
	}
	c.state.Selection = &CellRef{RowID: rowID, Path: row.Path, FieldID: fieldID}
	return req, nil
}

// ResolveDirectEdit applies what the external editor saved. The document was
// written already, so every saved field that differs from the committed row
// refreshes both row sets. Pending edits are dropped only for the fields the
// operator changed in the editor; every other pending edit stays and is
// overlaid again.
func (c *Controller) ResolveDirectEdit(req DirectEditRequest, res DirectEditResult, err error) error {
	c.state.Selection = nil
	if !req.Readonly {
		c.releaseWrite(req.Path)
	}
	if err != nil {
		logger.Warnw("direct edit failed", "path", req.Path, "error", err)
		return err
	}
	if req.Readonly {
		return nil
	}

	i := rowIndex(c.state.Committed, req.Path)
	if i < 0 {
		return nil
	}
	before := c.state.Committed[i]
	saved := Row{Values: res.Values, Raw: res.Raw}
	row := before.Clone()
	var refreshed []string
	for _, f := range c.state.Fields {
		if _, ok := res.Values[f.FieldID]; !ok || !fieldDiffers(before, saved, f.FieldID) {
			continue
		}
		refreshed = append(refreshed, f.FieldID)
		row.Values[f.FieldID] = res.Values[f.FieldID]
		if raw, ok := res.Raw[f.FieldID]; ok {
			row.Raw[f.FieldID] = raw
		} else {
			delete(row.Raw, f.FieldID)
		}
	}
	if len(refreshed) == 0 {
		return nil
	}

	changed := res.Changed
	if changed == nil {
		changed = refreshed
	}
	c.state.Ledger = c.state.Ledger.Drop(req.Path, changed).Prune([]Row{row})
	c.state.Committed = replaceRow(c.state.Committed, i, row)
	if j := rowIndex(c.state.Working, req.Path); j >= 0 {
		c.state.Working = replaceRow(c.state.Working, j, c.state.Ledger.Overlay(row))
	}
	logger.Debugw("direct edit applied", "path", req.Path, "refreshed", refreshed, "changed", changed)
	return nil
}

// DirectEdit runs editor for one row or cell on the calling goroutine.
func (c *Controller) DirectEdit(ctx context.Context, editor DirectEditor, rowID int, fieldID string, readonly bool) error {
	req, err := c.DirectEditTarget(rowID, fieldID, readonly)
	if err != nil {
		return err
	}
	res, err := editor.Edit(ctx, req)
	return c.ResolveDirectEdit(req, res, err)
}
