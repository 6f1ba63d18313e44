package search

import (
	"time"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// PresetInfo describes a named last-edit-date range offered by the filter dialog.
type PresetInfo struct {
	ID    string
	Label string
}

// Presets lists the named ranges in the order the filter dialog shows them.
var Presets = []PresetInfo{
	{ID: "today", Label: "Edited today"},
	{ID: "week", Label: "Edited in the last 7 days"},
	{ID: "month", Label: "Edited in the last month"},
	{ID: "year", Label: "Edited in the last year"},
}

// Preset resolves a named range relative to now.
func Preset(id string, now time.Time) (models.DateRange, bool) {
	dr := models.DateRange{ID: id, Max: now}
	switch id {
	case "today":
		y, m, d := now.Date()
		dr.Min = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case "week":
		dr.Min = now.AddDate(0, 0, -7)
	case "month":
		dr.Min = now.AddDate(0, -1, 0)
	case "year":
		dr.Min = now.AddDate(-1, 0, 0)
	default:
		return models.DateRange{}, false
	}
	return dr, true
}
