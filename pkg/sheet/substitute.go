package sheet

import (
	"strings"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// CellRef points at one cell of the grid.
type CellRef struct {
	RowID   int
	Path    string
	FieldID string
}

// Substitute replaces every occurrence of find with replace in the substitutable
// fields of the working rows and records the changes in the ledger.
// Reference-list fields are rewritten on their serialized element and skipped
// when the result no longer parses. An empty find changes nothing.
func Substitute(find, replace string, working, committed []Row, fields []models.FieldDescriptor, ledger Ledger) ([]Row, Ledger) {
	out := make([]Row, len(working))
	copy(out, working)
	if find == "" {
		return out, ledger
	}

	byPath := make(map[string]Row, len(committed))
	for _, r := range committed {
		byPath[r.Path] = r
	}

	for i, row := range working {
		base, ok := byPath[row.Path]
		if !ok {
			base = row
		}
		next := row
		changed := false
		for _, f := range fields {
			if !f.FieldType.SupportsSubstitution() {
				continue
			}
			edit, ok := substituteField(find, replace, row, f)
			if !ok {
				continue
			}
			ledger, _ = ledger.Record(row.Path, f.FieldID, edit, base, row)
			if !changed {
				next = row.Clone()
				changed = true
			}
			next.Values[f.FieldID] = edit.Value
			if edit.HasRaw {
				next.Raw[f.FieldID] = edit.Raw
			}
		}
		out[i] = next
	}
	return out, ledger
}

func substituteField(find, replace string, row Row, f models.FieldDescriptor) (Edit, bool) {
	current := row.Value(f.FieldID)
	raw, hasRaw := row.RawValue(f.FieldID)

	if !f.FieldType.IsReferenceList() || !hasRaw {
		value := strings.ReplaceAll(current, find, replace)
		return Edit{Value: value}, value != current
	}

	if !strings.Contains(raw, find) {
		return Edit{}, false
	}
	el, err := parseElement(strings.ReplaceAll(raw, find, replace))
	if err != nil {
		logger.Debugw("replacement breaks reference list, skipping", "path", row.Path, "field", f.FieldID, "error", err)
		return Edit{}, false
	}
	newRaw, err := outerXML(el)
	if err != nil {
		return Edit{}, false
	}
	edit := Edit{Value: textContent(el), Raw: newRaw, HasRaw: true}
	return edit, !edit.matches(row, f.FieldID)
}

// FindMatches lists the cells whose value contains find, in row then column order.
func FindMatches(find string, rows []Row, fields []models.FieldDescriptor) []CellRef {
	if find == "" {
		return nil
	}
	var out []CellRef
	for _, row := range rows {
		for _, f := range fields {
			if !f.FieldType.SupportsSubstitution() {
				continue
			}
			if strings.Contains(row.Value(f.FieldID), find) {
				out = append(out, CellRef{RowID: row.ID, Path: row.Path, FieldID: f.FieldID})
			}
		}
	}
	return out
}
