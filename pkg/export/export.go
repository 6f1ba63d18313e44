// Package export writes the working rows of a content type to xlsx, json or yaml.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/pluqqy/pluqqy-datasheet/pkg/files"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

var logger = logging.Logger("datasheet/export")

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	pathHeader = "Path"
	lockHeader = "Locked By"
	// excel limits sheet names to 31 characters
	maxSheetName = 31
)

// Table is the data of one export.
type Table struct {
	Site        string
	ContentType string
	Fields      []models.FieldDescriptor
	Rows        []sheet.Row
	ExportedAt  time.Time
}

// Document is the json and yaml shape of a Table.
type Document struct {
	Site        string                   `json:"site" yaml:"site"`
	ContentType string                   `json:"content_type" yaml:"content_type"`
	ExportedAt  time.Time                `json:"exported_at" yaml:"exported_at"`
	Fields      []models.FieldDescriptor `json:"fields" yaml:"fields"`
	Items       []Record                 `json:"items" yaml:"items"`
}

// Record is one exported item.
type Record struct {
	Path      string            `json:"path" yaml:"path"`
	LockOwner string            `json:"lock_owner,omitempty" yaml:"lock_owner,omitempty"`
	Values    map[string]string `json:"values" yaml:"values"`
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "xlsx":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export file %s (expected .xlsx, .json or .yaml)", path)
	}
}

// Collect loads every page of the controller's current criteria and returns the working rows.
// Pending edits are part of the working rows, so they are exported as shown in the sheet.
func Collect(ctx context.Context, c *sheet.Controller) (Table, error) {
	if c.State().Query.Page != 0 {
		c.SetPage(0)
	}
	if err := c.Load(ctx); err != nil {
		return Table{}, fmt.Errorf("load page 1: %w", err)
	}

	st := c.State()
	table := Table{
		Site:        c.Site(),
		ContentType: st.Query.ContentType,
		Fields:      st.Fields,
		Rows:        append([]sheet.Row(nil), st.Working...),
		ExportedAt:  time.Now(),
	}

	pages := st.Query.PageCount(st.Total)
	for page := 1; page < pages; page++ {
		c.SetPage(page)
		if err := c.Load(ctx); err != nil {
			return Table{}, fmt.Errorf("load page %d: %w", page+1, err)
		}
		table.Rows = append(table.Rows, c.State().Working...)
	}

	logger.Infow("collected rows for export", "contentType", table.ContentType, "rows", len(table.Rows), "pages", pages)
	return table, nil
}

// Document returns the json and yaml shape of the table.
func (t Table) Document() Document {
	doc := Document{
		Site:        t.Site,
		ContentType: t.ContentType,
		ExportedAt:  t.ExportedAt,
		Fields:      t.Fields,
		Items:       make([]Record, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		rec := Record{Path: row.Path, LockOwner: row.LockOwner, Values: make(map[string]string, len(t.Fields))}
		for _, f := range t.Fields {
			rec.Values[f.FieldID] = row.Value(f.FieldID)
		}
		doc.Items = append(doc.Items, rec)
	}
	return doc
}

// WriteFile exports the table to path in the format its extension names.
func WriteFile(path string, t Table) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, format, t); err != nil {
		return err
	}
	return files.WriteFile(path, buf.Bytes())
}

// Write encodes the table to w.
func Write(w io.Writer, format Format, t Table) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(t.Document())
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(t.Document()); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteXLSX writes a workbook with one header row and one row per item.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	name := SheetName(t.ContentType)
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := Headers(t.Fields)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	for r, row := range t.Rows {
		for c, value := range Cells(row, t.Fields) {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, value); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(name, "A", lastCol, 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Headers returns the column titles: path, lock owner, then one per field.
func Headers(fields []models.FieldDescriptor) []string {
	headers := []string{pathHeader, lockHeader}
	for _, f := range fields {
		title := f.Title
		if title == "" {
			title = f.FieldID
		}
		headers = append(headers, title)
	}
	return headers
}

// Cells returns the row's values in Headers order.
func Cells(row sheet.Row, fields []models.FieldDescriptor) []string {
	cells := []string{row.Path, row.LockOwner}
	for _, f := range fields {
		cells = append(cells, row.Value(f.FieldID))
	}
	return cells
}

// SheetName derives a worksheet name from a content type such as /page/article.
func SheetName(contentType string) string {
	name := strings.Trim(contentType, "/")
	name = strings.NewReplacer("/", "-", "\\", "-", "?", "", "*", "", "[", "", "]", "", ":", "").Replace(name)
	if name == "" {
		name = "items"
	}
	if len(name) > maxSheetName {
		name = name[len(name)-maxSheetName:]
	}
	return name
}
