package drafts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	return store
}

func TestStore_SaveLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entries := []sheet.LedgerEntry{
		{Path: "/b", FieldID: "headline", Edit: sheet.Edit{Value: "B"}},
		{Path: "/a", FieldID: "links", Edit: sheet.Edit{Value: "x", Raw: "<links>x</links>", HasRaw: true}},
		{Path: "/a", FieldID: "empty", Edit: sheet.Edit{Value: ""}},
	}
	require.NoError(t, store.Save(ctx, "editorial", "/page/article", entries))

	got, err := store.Load(ctx, "editorial", "/page/article")
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	other, err := store.Load(ctx, "other-site", "/page/article")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_SaveReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s", "/page/article", []sheet.LedgerEntry{
		{Path: "/a", FieldID: "headline", Edit: sheet.Edit{Value: "old"}},
	}))
	require.NoError(t, store.Save(ctx, "s", "/page/article", []sheet.LedgerEntry{
		{Path: "/c", FieldID: "headline", Edit: sheet.Edit{Value: "new"}},
	}))

	got, err := store.Load(ctx, "s", "/page/article")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/c", got[0].Path)

	require.NoError(t, store.Save(ctx, "s", "/page/article", nil))
	got, err = store.Load(ctx, "s", "/page/article")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ListAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s", "/page/article", []sheet.LedgerEntry{
		{Path: "/a", FieldID: "headline", Edit: sheet.Edit{Value: "1"}},
		{Path: "/a", FieldID: "body", Edit: sheet.Edit{Value: "2"}},
		{Path: "/b", FieldID: "headline", Edit: sheet.Edit{Value: "3"}},
	}))
	require.NoError(t, store.Save(ctx, "s", "/component/feature", []sheet.LedgerEntry{
		{Path: "/f", FieldID: "title", Edit: sheet.Edit{Value: "4"}},
	}))

	list, err := store.List(ctx, "s")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, Summary{ContentType: "/component/feature", Items: 1, Fields: 1, UpdatedAt: time.Unix(1700000000, 0)}, list[0])
	assert.Equal(t, "/page/article", list[1].ContentType)
	assert.Equal(t, 2, list[1].Items)
	assert.Equal(t, 3, list[1].Fields)

	n, err := store.Clear(ctx, "s", "/page/article")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = store.Clear(ctx, "s", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = store.List(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_RestoreIntoLedger(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var ledger sheet.Ledger
	ledger = ledger.Restore([]sheet.LedgerEntry{
		{Path: "/a", FieldID: "headline", Edit: sheet.Edit{Value: "draft"}},
	})
	require.NoError(t, store.Save(ctx, "s", "/page/article", ledger.Entries()))

	entries, err := store.Load(ctx, "s", "/page/article")
	require.NoError(t, err)
	restored := sheet.Ledger{}.Restore(entries)
	assert.Equal(t, ledger.Entries(), restored.Entries())
}
