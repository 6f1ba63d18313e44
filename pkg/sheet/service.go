// Package sheet holds the editable grid state: rows mapped from item documents,
// the ledger of pending edits, bulk find/replace and the save pipeline.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

var logger = logging.Logger("datasheet/sheet")

// ContentService is the remote content repository the sheet reads from and writes to.
type ContentService interface {
	FormDefinition(ctx context.Context, contentType string) (string, error)
	Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error)
	GetContent(ctx context.Context, path string) (string, error)
	WriteContent(ctx context.Context, path, content, contentType string) error
	ItemMeta(ctx context.Context, path string) (*models.ItemMeta, error)
	Unlock(ctx context.Context, path string) error
}

var (
	ErrNotReady       = errors.New("sheet is not ready")
	ErrNoContentType  = errors.New("no content type selected")
	ErrNoPendingEdits = errors.New("no pending edits")
	ErrUnknownRow     = errors.New("unknown row")
	ErrUnknownField   = errors.New("unknown field")
	ErrNoDocument     = errors.New("document not available")
	ErrNotLocked      = errors.New("item is not locked")
	ErrWriteInFlight  = errors.New("another save is in progress")
	ErrNotEditable    = errors.New("field cannot be edited as text")
)

// SaveError reports the items a bulk save could not write.
type SaveError struct {
	Failed []string
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %d item(s): %s", len(e.Failed), strings.Join(e.Failed, ", "))
}
