package sheet

import (
	"context"
	"fmt"
	"time"

	"github.com/pluqqy/pluqqy-datasheet/pkg/events"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/schema"
)

// DefaultPageSize is the number of rows on a page when none is configured.
const DefaultPageSize = 9

// Options configures a Controller.
type Options struct {
	// Site every remote call is made against.
	Site     string
	PageSize int
	// SaveHold is how long a fully successful save stays reported before the sheet is ready again.
	SaveHold time.Duration
	// OnProgress, when set, is called after every change to the save progress.
	OnProgress func(SaveProgress)
}

// Controller owns the sheet state. Methods must be called from one goroutine;
// remote I/O is done by the package-level functions (FetchPage, SaveItem, ...)
// whose results are handed back through the Apply methods.
type Controller struct {
	svc  ContentService
	opts Options

	state         State
	loadRequested bool
	unsubscribe   []func()
}

// NewController creates an idle controller.
func NewController(svc ContentService, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Controller{
		svc:  svc,
		opts: opts,
		state: State{
			Phase: PhaseIdle,
			Query: Query{PageSize: opts.PageSize},
		},
	}
}

// State returns a snapshot of the sheet.
func (c *Controller) State() State {
	return c.state
}

// Service returns the content service the controller was built with.
func (c *Controller) Service() ContentService {
	return c.svc
}

// Site returns the site the controller works against.
func (c *Controller) Site() string {
	return c.opts.Site
}

// SaveHold returns how long a successful save stays reported.
func (c *Controller) SaveHold() time.Duration {
	return c.opts.SaveHold
}

// Subscribe listens for criteria and find/replace payloads on bus until Close.
func (c *Controller) Subscribe(bus *events.Bus) {
	c.unsubscribe = append(c.unsubscribe,
		bus.Subscribe(events.TopicCriteria, func(payload any) {
			criteria, ok := payload.(models.Criteria)
			if !ok {
				logger.Warnw("ignoring criteria payload", "type", payloadType(payload))
				return
			}
			c.SetCriteria(criteria)
		}),
		bus.Subscribe(events.TopicFindReplace, func(payload any) {
			fr, ok := payload.(models.FindReplace)
			if !ok {
				logger.Warnw("ignoring find/replace payload", "type", payloadType(payload))
				return
			}
			if err := c.ApplyFindReplace(fr); err != nil {
				logger.Infow("find/replace not applied", "action", fr.Action.String(), "error", err)
			}
		}),
	)
}

// Close drops the bus subscriptions.
func (c *Controller) Close() {
	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}
	c.unsubscribe = nil
}

// SetCriteria changes what the sheet shows and resets to the first page.
// Switching content type drops the pending edits, which belong to items of the old type.
// It reports whether anything changed; a change requests a load.
func (c *Controller) SetCriteria(criteria models.Criteria) bool {
	current := c.state.Query.Criteria
	if criteriaEqual(current, criteria) {
		return false
	}
	if c.state.Phase == PhaseSaving {
		logger.Infow("ignoring criteria change while saving", "contentType", criteria.ContentType)
		return false
	}

	if criteria.ContentType != current.ContentType {
		if n := c.state.Ledger.Len(); n > 0 {
			logger.Warnw("content type changed, dropping pending edits", "from", current.ContentType, "to", criteria.ContentType, "items", n)
		}
		c.state.Ledger = Ledger{}
		c.state.Fields = nil
		c.state.Committed = nil
		c.state.Working = nil
		c.state.Total = 0
		c.state.FindText = ""
	}
	c.state.Query.Criteria = criteria
	c.state.Query.Page = 0
	c.state.Selection = nil
	c.loadRequested = true
	return true
}

// SetPage moves to another page. Pending edits on other pages are kept.
func (c *Controller) SetPage(page int) bool {
	if page < 0 {
		page = 0
	}
	if last := c.state.Query.PageCount(c.state.Total) - 1; last >= 0 && page > last {
		page = last
	}
	if page == c.state.Query.Page {
		return false
	}
	c.state.Query.Page = page
	c.loadRequested = true
	return true
}

// SetPageSize changes the number of rows per page and returns to the first page.
func (c *Controller) SetPageSize(size int) bool {
	if size <= 0 || size == c.state.Query.PageSize {
		return false
	}
	c.state.Query.PageSize = size
	c.state.Query.Page = 0
	c.loadRequested = true
	return true
}

// TakeLoadRequest reports whether a load was requested since the last one began.
// Requests made while saving are held until the save ends.
func (c *Controller) TakeLoadRequest() bool {
	if !c.loadRequested || c.state.Phase == PhaseSaving {
		return false
	}
	c.loadRequested = false
	return true
}

// LoadRequest identifies one load. Results of older loads are discarded.
type LoadRequest struct {
	Generation uint64
	Site       string
	Query      Query
}

// PageResult is what FetchPage produced for a LoadRequest.
type PageResult struct {
	Generation uint64
	Fields     []models.FieldDescriptor
	Rows       []Row
	Total      int
	Err        error
}

// BeginLoad moves the sheet to loading and returns the request to fetch.
// Beginning a load supersedes any load still in flight.
func (c *Controller) BeginLoad() (LoadRequest, error) {
	if c.state.Phase == PhaseSaving {
		return LoadRequest{}, ErrNotReady
	}
	if c.state.Query.ContentType == "" {
		return LoadRequest{}, ErrNoContentType
	}

	c.loadRequested = false
	c.state.Generation++
	c.state.Phase = PhaseLoading
	c.state.LoadErr = nil
	c.state.Selection = nil

	return LoadRequest{
		Generation: c.state.Generation,
		Site:       c.opts.Site,
		Query:      c.state.Query,
	}, nil
}

// FetchPage loads the fields and the rows of one page. A missing form definition
// yields no fields; a failed search yields no rows. Items whose document or
// metadata cannot be read still get a row.
func FetchPage(ctx context.Context, svc ContentService, req LoadRequest) PageResult {
	res := PageResult{Generation: req.Generation, Rows: []Row{}}
	q := req.Query

	definition, err := svc.FormDefinition(ctx, q.ContentType)
	if err != nil {
		logger.Warnw("failed to fetch form definition", "site", req.Site, "contentType", q.ContentType, "error", err)
	}
	res.Fields, err = schema.DeriveFields(definition)
	if err != nil {
		logger.Warnw("failed to derive fields", "contentType", q.ContentType, "error", err)
		res.Fields = []models.FieldDescriptor{}
	}

	result, err := svc.Search(ctx, models.SearchRequest{
		ContentType: q.ContentType,
		Keyword:     q.Keyword,
		DateFilter:  q.DateFilter,
		Offset:      q.Offset(),
		Limit:       q.PageSize,
	})
	if err != nil {
		logger.Warnw("search failed", "site", req.Site, "contentType", q.ContentType, "error", err)
		res.Err = err
		return res
	}
	res.Total = result.Total

	for i, item := range result.Items {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		content, err := svc.GetContent(ctx, item.Path)
		if err != nil {
			logger.Warnw("failed to fetch item", "path", item.Path, "error", err)
			content = ""
		}
		meta, err := svc.ItemMeta(ctx, item.Path)
		if err != nil {
			logger.Debugw("failed to fetch item metadata", "path", item.Path, "error", err)
			meta = nil
		}
		res.Rows = append(res.Rows, MapRow(i, item.Path, content, res.Fields, meta))
	}
	return res
}

// ApplyPage installs a fetched page. It reports false and changes nothing when
// the result belongs to a superseded load.
func (c *Controller) ApplyPage(res PageResult) bool {
	if c.state.Phase != PhaseLoading || res.Generation != c.state.Generation {
		logger.Debugw("discarding stale page", "generation", res.Generation, "current", c.state.Generation)
		return false
	}

	c.state.Fields = res.Fields
	c.state.Total = res.Total
	c.state.LoadErr = res.Err
	c.state.Committed = res.Rows
	c.state.Ledger = c.state.Ledger.Prune(res.Rows)
	c.state.Working = overlayAll(c.state.Ledger, res.Rows)
	c.state.Phase = PhaseReady
	return true
}

// Load runs a whole load cycle on the calling goroutine.
func (c *Controller) Load(ctx context.Context) error {
	req, err := c.BeginLoad()
	if err != nil {
		return err
	}
	res := FetchPage(ctx, c.svc, req)
	c.ApplyPage(res)
	return res.Err
}

// EditCell records a new value for one cell. It reports whether the ledger changed.
func (c *Controller) EditCell(rowID int, fieldID, value string) (bool, error) {
	if c.state.Phase != PhaseReady {
		return false, ErrNotReady
	}
	idx := -1
	for i, r := range c.state.Working {
		if r.ID == rowID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ErrUnknownRow
	}
	field, ok := schema.Lookup(c.state.Fields, fieldID)
	if !ok {
		return false, ErrUnknownField
	}
	// an item list only changes through its raw subtree
	if field.FieldType.IsReferenceList() {
		return false, ErrNotEditable
	}

	current := c.state.Working[idx]
	committed := c.committedRow(current.Path)
	ledger, changed := c.state.Ledger.Record(current.Path, fieldID, Edit{Value: value}, committed, current)
	if !changed {
		return false, nil
	}
	c.state.Ledger = ledger
	c.state.Working = replaceRow(c.state.Working, idx, ledger.Overlay(committed))
	return true, nil
}

// ApplyFindReplace highlights matches for ActionFind and rewrites the page for ActionReplace.
func (c *Controller) ApplyFindReplace(fr models.FindReplace) error {
	switch fr.Action {
	case models.ActionFind:
		c.state.FindText = fr.FindText
		return nil
	case models.ActionReplace:
		if c.state.Phase != PhaseReady {
			return ErrNotReady
		}
		c.state.Working, c.state.Ledger = Substitute(fr.FindText, fr.ReplaceText,
			c.state.Working, c.state.Committed, c.state.Fields, c.state.Ledger)
		return nil
	default:
		return nil
	}
}

// CancelAll drops every pending edit.
func (c *Controller) CancelAll() error {
	if c.state.Phase != PhaseReady {
		return ErrNotReady
	}
	c.state.Ledger = c.state.Ledger.ClearAll()
	c.state.Working = overlayAll(c.state.Ledger, c.state.Committed)
	return nil
}

// Select marks the cell a row action targets.
func (c *Controller) Select(rowID int, fieldID string) error {
	row, ok := c.state.Row(rowID)
	if !ok {
		return ErrUnknownRow
	}
	c.state.Selection = &CellRef{RowID: rowID, Path: row.Path, FieldID: fieldID}
	return nil
}

// ClearSelection drops the action target.
func (c *Controller) ClearSelection() {
	c.state.Selection = nil
}

// RestoreDrafts adds saved pending edits to the ledger.
func (c *Controller) RestoreDrafts(entries []LedgerEntry) {
	c.state.Ledger = c.state.Ledger.Restore(entries).Prune(c.state.Committed)
	c.state.Working = overlayAll(c.state.Ledger, c.state.Committed)
}

// PendingEntries returns the pending edits in first-edit order.
func (c *Controller) PendingEntries() []LedgerEntry {
	return c.state.Ledger.Entries()
}

func (c *Controller) committedRow(path string) Row {
	if i := rowIndex(c.state.Committed, path); i >= 0 {
		return c.state.Committed[i]
	}
	return Row{Path: path}
}

func criteriaEqual(a, b models.Criteria) bool {
	if a.ContentType != b.ContentType || a.Keyword != b.Keyword {
		return false
	}
	if a.DateFilter == nil || b.DateFilter == nil {
		return a.DateFilter == nil && b.DateFilter == nil
	}
	return a.DateFilter.ID == b.DateFilter.ID &&
		a.DateFilter.Min.Equal(b.DateFilter.Min) &&
		a.DateFilter.Max.Equal(b.DateFilter.Max)
}

func payloadType(payload any) string {
	if payload == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", payload)
}
