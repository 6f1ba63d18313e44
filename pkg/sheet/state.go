package sheet

import (
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// Phase is where the sheet is in its load and save cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseSaving
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseSaving:
		return "saving"
	default:
		return "idle"
	}
}

// Query is the criteria plus the page being shown.
type Query struct {
	models.Criteria
	Page     int
	PageSize int
}

// Offset returns the index of the first item of the page.
func (q Query) Offset() int {
	return q.Page * q.PageSize
}

// PageCount returns how many pages total items fill.
func (q Query) PageCount(total int) int {
	if q.PageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + q.PageSize - 1) / q.PageSize
}

// SaveProgress tracks a bulk save.
type SaveProgress struct {
	BatchID    string
	Total      int
	Completed  int
	Failed     []string
	Processing bool
}

// Done reports whether every item of the batch has been attempted.
func (p SaveProgress) Done() bool {
	return p.Completed+len(p.Failed) >= p.Total
}

// State is a snapshot of the sheet. Slices and rows in a snapshot are never
// written after it is taken; the controller replaces them instead.
type State struct {
	// Core state
	Phase      Phase
	Generation uint64
	Query      Query
	Total      int
	LoadErr    error

	// Grid contents
	Fields    []models.FieldDescriptor
	Committed []Row
	Working   []Row
	Ledger    Ledger

	// Interaction
	FindText  string
	Selection *CellRef
	Progress  *SaveProgress
	// Writing is the item a single-item write (row save or direct edit) is in
	// flight for. No other write may start until it lands.
	Writing string
}

// Row returns the working row with the given id.
func (s State) Row(id int) (Row, bool) {
	for _, r := range s.Working {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

// Matches returns the cells that contain the current find text.
func (s State) Matches() []CellRef {
	return FindMatches(s.FindText, s.Working, s.Fields)
}

func rowIndex(rows []Row, path string) int {
	for i, r := range rows {
		if r.Path == path {
			return i
		}
	}
	return -1
}

// replaceRow returns a new slice with rows[i] replaced.
func replaceRow(rows []Row, i int, row Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	out[i] = row
	return out
}

func overlayAll(ledger Ledger, rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = ledger.Overlay(r)
	}
	return out
}
