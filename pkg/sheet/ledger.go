package sheet

import "sort"

// Ledger records pending edits per item path and field, in the order items were first edited.
// It is a value type: every mutating method returns a new Ledger and leaves the receiver untouched.
// The zero value is an empty ledger.
//
// An entry exists only while its value differs from the committed row.
type Ledger struct {
	order   []string
	entries map[string]map[string]Edit
}

// LedgerEntry is one pending field edit, used to persist and restore the ledger.
type LedgerEntry struct {
	Path    string
	FieldID string
	Edit    Edit
}

// Record sets the pending value of a field. Recording the committed value drops
// the entry instead, and recording the value the working row already shows is a no-op.
// The second result reports whether the ledger changed.
func (l Ledger) Record(path, fieldID string, edit Edit, committed, current Row) (Ledger, bool) {
	if edit.matches(current, fieldID) {
		return l, false
	}
	if edit.matches(committed, fieldID) {
		if _, ok := l.entries[path][fieldID]; !ok {
			return l, false
		}
		return l.Drop(path, []string{fieldID}), true
	}

	next := l.clone()
	fields, ok := next.entries[path]
	if !ok {
		next.order = append(next.order, path)
		fields = map[string]Edit{}
	} else {
		fields = copyEdits(fields)
	}
	fields[fieldID] = edit
	next.entries[path] = fields
	return next, true
}

// Drop removes the entries for the given fields of path.
func (l Ledger) Drop(path string, fieldIDs []string) Ledger {
	current, ok := l.entries[path]
	if !ok {
		return l
	}
	fields := copyEdits(current)
	for _, id := range fieldIDs {
		delete(fields, id)
	}
	return l.replace(path, fields)
}

// Clear removes every entry of path.
func (l Ledger) Clear(path string) Ledger {
	return l.replace(path, nil)
}

// ClearAll returns an empty ledger.
func (l Ledger) ClearAll() Ledger {
	return Ledger{}
}

// Retain keeps only the entries of the given paths.
func (l Ledger) Retain(paths []string) Ledger {
	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[p] = true
	}
	next := Ledger{entries: map[string]map[string]Edit{}}
	for _, p := range l.order {
		if keep[p] {
			next.order = append(next.order, p)
			next.entries[p] = l.entries[p]
		}
	}
	return next
}

// Settle drops the entries of path that a write has made obsolete: fields written
// with the value still pending, and fields whose pending value now equals committed.
// Fields edited again while the write was in flight stay pending.
func (l Ledger) Settle(path string, written map[string]Edit, committed Row) Ledger {
	current, ok := l.entries[path]
	if !ok {
		return l
	}
	fields := make(map[string]Edit, len(current))
	for id, edit := range current {
		if w, ok := written[id]; ok && w == edit {
			continue
		}
		if edit.matches(committed, id) {
			continue
		}
		fields[id] = edit
	}
	return l.replace(path, fields)
}

// Prune drops entries that equal the committed value of the given rows.
// Entries restored from drafts are pruned once their rows load.
func (l Ledger) Prune(rows []Row) Ledger {
	next := l
	for _, row := range rows {
		current, ok := next.entries[row.Path]
		if !ok {
			continue
		}
		var stale []string
		for id, edit := range current {
			if edit.matches(row, id) {
				stale = append(stale, id)
			}
		}
		if len(stale) > 0 {
			next = next.Drop(row.Path, stale)
		}
	}
	return next
}

// Restore adds entries without comparing them to any row.
func (l Ledger) Restore(entries []LedgerEntry) Ledger {
	if len(entries) == 0 {
		return l
	}
	next := l.clone()
	for _, e := range entries {
		fields, ok := next.entries[e.Path]
		if !ok {
			next.order = append(next.order, e.Path)
			fields = map[string]Edit{}
		} else {
			fields = copyEdits(fields)
		}
		fields[e.FieldID] = e.Edit
		next.entries[e.Path] = fields
	}
	return next
}

// HasPending reports whether path has at least one pending edit.
func (l Ledger) HasPending(path string) bool {
	return len(l.entries[path]) > 0
}

// Len returns the number of paths with pending edits.
func (l Ledger) Len() int {
	return len(l.order)
}

// Paths returns the edited paths in first-edit order.
func (l Ledger) Paths() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Edits returns a copy of the pending edits of path.
func (l Ledger) Edits(path string) map[string]Edit {
	return copyEdits(l.entries[path])
}

// Entries flattens the ledger in first-edit order.
func (l Ledger) Entries() []LedgerEntry {
	var out []LedgerEntry
	for _, p := range l.order {
		for _, id := range sortedKeys(l.entries[p]) {
			out = append(out, LedgerEntry{Path: p, FieldID: id, Edit: l.entries[p][id]})
		}
	}
	return out
}

// Overlay returns row with its pending edits applied.
func (l Ledger) Overlay(row Row) Row {
	out := row.Clone()
	for id, edit := range l.entries[row.Path] {
		out.Values[id] = edit.Value
		if edit.HasRaw {
			out.Raw[id] = edit.Raw
		}
	}
	return out
}

// replace sets the entries of path, removing the path when fields is empty.
func (l Ledger) replace(path string, fields map[string]Edit) Ledger {
	_, existed := l.entries[path]
	if !existed && len(fields) == 0 {
		return l
	}
	next := l.clone()
	if len(fields) == 0 {
		delete(next.entries, path)
		next.order = removePath(next.order, path)
		return next
	}
	if !existed {
		next.order = append(next.order, path)
	}
	next.entries[path] = fields
	return next
}

// clone copies the index structures. Per-path maps are shared and must be
// copied before they are written.
func (l Ledger) clone() Ledger {
	next := Ledger{
		order:   make([]string, len(l.order), len(l.order)+1),
		entries: make(map[string]map[string]Edit, len(l.entries)+1),
	}
	copy(next.order, l.order)
	for p, fields := range l.entries {
		next.entries[p] = fields
	}
	return next
}

func copyEdits(in map[string]Edit) map[string]Edit {
	out := make(map[string]Edit, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func removePath(paths []string, path string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(m map[string]Edit) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
