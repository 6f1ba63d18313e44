package models

import "time"

// ContentType is one entry of the site's content type listing.
type ContentType struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
}

// DateRange restricts a search to items last edited inside [Min, Max].
// A zero Min or Max leaves that side open.
type DateRange struct {
	ID  string    `json:"id" yaml:"id"`
	Min time.Time `json:"min" yaml:"min"`
	Max time.Time `json:"max" yaml:"max"`
}

// Criteria is what the type selector, search bar and filter dialog publish.
type Criteria struct {
	ContentType string
	Keyword     string
	DateFilter  *DateRange
}

// FindAction tells the sheet whether to only highlight matches or to replace them.
type FindAction int

const (
	ActionNone FindAction = iota
	ActionFind
	ActionReplace
)

func (a FindAction) String() string {
	switch a {
	case ActionFind:
		return "find"
	case ActionReplace:
		return "replace"
	default:
		return "none"
	}
}

// FindReplace is the payload published by the find and replace dialog.
type FindReplace struct {
	FindText    string
	ReplaceText string
	Action      FindAction
}

// ItemMeta is the subset of sandbox item metadata the sheet cares about.
type ItemMeta struct {
	LockOwner string
}

// SearchItem is one hit of a content search.
type SearchItem struct {
	Path         string    `json:"path"`
	Name         string    `json:"name,omitempty"`
	LastEditDate time.Time `json:"lastEditDate,omitempty"`
}

// SearchRequest asks for one page of items of a content type.
type SearchRequest struct {
	ContentType string
	Keyword     string
	DateFilter  *DateRange
	Offset      int
	Limit       int
}

// SearchResult is a page of search hits plus the total hit count.
type SearchResult struct {
	Total int
	Items []SearchItem
}
