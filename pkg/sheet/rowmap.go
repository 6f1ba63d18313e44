package sheet

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// Row is one item of the current page flattened to field values.
type Row struct {
	ID        int
	Path      string
	LockOwner string
	Values    map[string]string
	// Raw holds the serialized element of reference-list fields so
	// the item list survives a round trip through the sheet.
	Raw map[string]string
}

// Edit is the pending value of one field. Raw is only set for reference-list fields.
type Edit struct {
	Value  string
	Raw    string
	HasRaw bool
}

// Value returns the field value, or "" when the field is absent.
func (r Row) Value(fieldID string) string {
	return r.Values[fieldID]
}

// RawValue returns the serialized element stored for a reference-list field.
func (r Row) RawValue(fieldID string) (string, bool) {
	raw, ok := r.Raw[fieldID]
	return raw, ok
}

// IsLocked reports whether someone holds the edit lock on the item.
func (r Row) IsLocked() bool {
	return r.LockOwner != ""
}

// Clone returns a copy that shares no maps with r.
func (r Row) Clone() Row {
	out := r
	out.Values = make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		out.Values[k] = v
	}
	out.Raw = make(map[string]string, len(r.Raw))
	for k, v := range r.Raw {
		out.Raw[k] = v
	}
	return out
}

// matches reports whether the edit would leave the field as it is in r.
func (e Edit) matches(r Row, fieldID string) bool {
	if e.Value != r.Value(fieldID) {
		return false
	}
	if !e.HasRaw {
		return true
	}
	raw, ok := r.RawValue(fieldID)
	return ok && raw == e.Raw
}

// MapRow builds a row from an item document. A document that is empty or
// cannot be parsed still yields a row, with every field empty.
func MapRow(id int, path, content string, fields []models.FieldDescriptor, meta *models.ItemMeta) Row {
	row := Row{
		ID:     id,
		Path:   path,
		Values: make(map[string]string, len(fields)),
		Raw:    map[string]string{},
	}
	if meta != nil {
		row.LockOwner = meta.LockOwner
	}

	var root *etree.Element
	if strings.TrimSpace(content) != "" {
		doc, err := parseDocument(content)
		if err != nil {
			logger.Warnw("mapping unparseable document to empty row", "path", path, "error", err)
		} else {
			root = &doc.Element
		}
	}

	for _, f := range fields {
		var el *etree.Element
		if root != nil {
			el = findElement(root, f.FieldID)
		}
		if el == nil {
			row.Values[f.FieldID] = ""
			continue
		}
		row.Values[f.FieldID] = textContent(el)
		if f.FieldType.IsReferenceList() {
			raw, err := outerXML(el)
			if err != nil {
				logger.Warnw("failed to serialize reference list", "path", path, "field", f.FieldID, "error", err)
				continue
			}
			row.Raw[f.FieldID] = raw
		}
	}
	return row
}

// ApplyEdits writes edits into an item document and returns the new document.
// Raw edits replace the whole element, plain edits replace its text content.
// Fields whose element does not exist in the document are left out.
func ApplyEdits(content string, edits map[string]Edit) (string, error) {
	doc, err := parseDocument(content)
	if err != nil {
		return "", err
	}

	fieldIDs := make([]string, 0, len(edits))
	for id := range edits {
		fieldIDs = append(fieldIDs, id)
	}
	sort.Strings(fieldIDs)

	for _, id := range fieldIDs {
		edit := edits[id]
		el := findElement(&doc.Element, id)
		if el == nil {
			logger.Debugw("skipping edit for missing element", "field", id)
			continue
		}
		if edit.HasRaw {
			replacement, err := parseElement(edit.Raw)
			if err != nil {
				return "", fmt.Errorf("invalid value for %s: %w", id, err)
			}
			parent := el.Parent()
			idx := el.Index()
			parent.RemoveChildAt(idx)
			parent.InsertChildAt(idx, replacement)
			continue
		}
		setTextContent(el, edit.Value)
	}

	return doc.WriteToString()
}

// WriteRow fetches the latest document for path, applies the edits and writes it back.
// It returns the document that was written.
func WriteRow(ctx context.Context, svc ContentService, contentType, path string, edits map[string]Edit) (string, error) {
	content, err := svc.GetContent(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoDocument)
	}

	updated, err := ApplyEdits(content, edits)
	if err != nil {
		return "", fmt.Errorf("failed to apply edits to %s: %w", path, err)
	}

	if err := svc.WriteContent(ctx, path, updated, contentType); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return updated, nil
}

func parseDocument(content string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromString(content); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseElement parses a serialized element into a detached copy.
func parseElement(raw string) (*etree.Element, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("no element in %q", raw)
	}
	return root.Copy(), nil
}

func outerXML(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	return doc.WriteToString()
}

// findElement returns the first descendant with the tag in document order.
func findElement(parent *etree.Element, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.FullTag() == tag {
			return child
		}
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(el *etree.Element) string {
	var b strings.Builder
	writeText(&b, el)
	return b.String()
}

func writeText(b *strings.Builder, el *etree.Element) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			writeText(b, t)
		}
	}
}

// setTextContent replaces everything inside el with a single text node.
// Elements that held CDATA keep it.
func setTextContent(el *etree.Element, value string) {
	cdata := false
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok && cd.IsCData() {
			cdata = true
			break
		}
	}
	for len(el.Child) > 0 {
		el.RemoveChildAt(0)
	}
	if value == "" {
		return
	}
	if cdata {
		el.SetCData(value)
		return
	}
	el.SetText(value)
}
