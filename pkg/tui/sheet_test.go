package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

func TestSheet_LoadsFirstPage(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	st := f.c.State()
	require.Len(t, st.Working, 2)
	assert.Equal(t, "/a", st.Working[0].Path)
	assert.Equal(t, articleType, f.m.draftsFor)

	view := f.m.View()
	assert.Contains(t, view, "Headline")
	assert.Contains(t, view, "Old Title")
	assert.Contains(t, view, "Body text", "rich text shows its text")
	assert.Contains(t, view, "Page 1/1")
}

func TestSheet_LoadFailureIsShown(t *testing.T) {
	svc := newArticleService()
	svc.SearchErr = errDenied
	f := newSheetFixture(t, svc)
	f.open(t)

	assert.Contains(t, f.m.View(), "Failed to load")
	assert.Contains(t, f.statuses(), "Failed to load /page/article: denied")
}

func TestSheet_InlineEdit(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("enter")
	require.True(t, f.m.cellEditor.Active())
	assert.Equal(t, "Old Title", f.m.cellEditor.input.Value())

	f.m.cellEditor.input.SetValue("New Title")
	f.press("enter")

	assert.False(t, f.m.cellEditor.Active())
	st := f.c.State()
	assert.True(t, st.Ledger.HasPending("/a"))
	assert.Equal(t, "New Title", st.Working[0].Value("headline"))
	assert.Contains(t, f.m.View(), "1 pending")
}

func TestSheet_InlineEditEscKeepsValue(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("enter")
	f.m.cellEditor.input.SetValue("Thrown away")
	f.press("esc")

	assert.False(t, f.m.cellEditor.Active())
	assert.Equal(t, 0, f.c.State().Ledger.Len())
}

func TestSheet_RichTextCellOpensMenu(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("l", "l", "enter")
	require.True(t, f.m.menu.Active())
	assert.False(t, f.m.cellEditor.Active())
	assert.Contains(t, f.m.View(), "Edit Body")

	// no editor configured
	f.press("e")
	assert.False(t, f.m.menu.Active())
	assert.Contains(t, f.statuses(), "Cannot open editor: no editor configured")
	assert.Nil(t, f.c.State().Selection)
}

func TestSheet_ViewAndYankCell(t *testing.T) {
	var copied string
	original := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = original })

	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("y")
	assert.Equal(t, "Old Title", copied)
	assert.Contains(t, f.statuses(), "Copied Headline of /a")

	f.press("l", "l", "v")
	require.True(t, f.m.detail.Active())
	view := f.m.View()
	assert.Contains(t, view, "Body text")
	assert.Contains(t, view, "HTML")

	f.press("y")
	assert.Equal(t, "<p>Body text</p>", copied)

	f.press("esc")
	assert.False(t, f.m.detail.Active())
}

func TestSheet_FindAndReplace(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("r")
	require.True(t, f.m.findReplace.Active())
	f.m.findReplace.find.SetValue("Old")
	f.m.findReplace.replace.SetValue("New")
	f.press("tab", "enter")

	assert.False(t, f.m.findReplace.Active())
	st := f.c.State()
	assert.Equal(t, "New Title", st.Working[0].Value("headline"))
	assert.Equal(t, "/static-assets/images/Old-banner.png", st.Working[0].Value("image"), "media is never rewritten")
	assert.Equal(t, 1, st.Ledger.Len())
	assert.Equal(t, "New", st.FindText, "replaced text is highlighted")

	// esc clears the highlight
	f.press("esc")
	assert.Empty(t, f.c.State().FindText)
}

func TestSheet_FindOnlyHighlights(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("r")
	f.m.findReplace.find.SetValue("Other")
	f.press("enter")

	st := f.c.State()
	assert.Equal(t, "Other", st.FindText)
	assert.Equal(t, 0, st.Ledger.Len())
	assert.NotEmpty(t, st.Matches())
	assert.Contains(t, f.m.View(), `find "Other"`)
}

func TestSheet_SaveAll(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	_, err := f.c.EditCell(0, "headline", "New Title")
	require.NoError(t, err)

	f.press("S")

	st := f.c.State()
	assert.Equal(t, sheet.PhaseReady, st.Phase)
	assert.Nil(t, st.Progress)
	assert.Equal(t, 0, st.Ledger.Len())
	assert.Equal(t, 1, f.svc.WriteCount("/a"))
	assert.Contains(t, f.svc.Doc("/a"), "<headline>New Title</headline>")
	assert.Equal(t, 0, f.svc.WriteCount("/b"))
	assert.Equal(t, 1, f.drafts.clearCount())
	assert.Contains(t, f.statuses(), "Saved 1 items")
}

func TestSheet_SaveAllWithFailures(t *testing.T) {
	svc := newArticleService()
	svc.FailWrite["/b"] = errDenied
	f := newSheetFixture(t, svc)
	f.open(t)

	_, err := f.c.EditCell(0, "headline", "A2")
	require.NoError(t, err)
	_, err = f.c.EditCell(1, "headline", "B2")
	require.NoError(t, err)

	f.press("S")

	st := f.c.State()
	assert.Equal(t, sheet.PhaseReady, st.Phase)
	require.NotNil(t, st.Progress)
	assert.Equal(t, []string{"/b"}, st.Progress.Failed)
	assert.False(t, st.Ledger.HasPending("/a"))
	assert.True(t, st.Ledger.HasPending("/b"))
	assert.Equal(t, 0, f.drafts.clearCount())
	assert.Contains(t, f.m.View(), "1 failed")
	assert.Contains(t, f.statuses(), "Saved 1 items, 1 failed")

	f.press("esc")
	assert.Nil(t, f.c.State().Progress)
}

func TestSheet_NothingToSave(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("S")
	assert.Equal(t, sheet.PhaseReady, f.c.State().Phase)
	assert.Empty(t, f.svc.Writes)
	require.NotEmpty(t, f.statuses())
	assert.Contains(t, f.statuses()[0], "Nothing to save")
}

func TestSheet_RowMenu(t *testing.T) {
	t.Run("unlock", func(t *testing.T) {
		svc := newArticleService()
		svc.Lock("/a", "jane")
		f := newSheetFixture(t, svc)
		f.open(t)
		assert.Contains(t, f.m.View(), "locked by jane")

		f.press("m")
		require.True(t, f.m.menu.Active())
		assert.Contains(t, f.m.View(), "Unlock (locked by jane)")

		f.press("u")
		assert.Equal(t, []string{"/a"}, f.svc.Unlocks)
		assert.False(t, f.c.State().Working[0].IsLocked())
		assert.Contains(t, f.statuses(), "Unlocked /a")
	})

	t.Run("save row", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.open(t)
		_, err := f.c.EditCell(0, "headline", "Row Title")
		require.NoError(t, err)
		_, err = f.c.EditCell(1, "headline", "Kept")
		require.NoError(t, err)

		f.press("m", "s")

		st := f.c.State()
		assert.Equal(t, 1, f.svc.WriteCount("/a"))
		assert.False(t, st.Ledger.HasPending("/a"))
		assert.True(t, st.Ledger.HasPending("/b"))
		assert.Contains(t, f.statuses(), "Saved /a")
	})

	t.Run("clear changes asks first", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.open(t)
		_, err := f.c.EditCell(0, "headline", "Draft")
		require.NoError(t, err)

		f.press("m", "c")
		require.True(t, f.m.confirm.Active())
		assert.Contains(t, f.m.View(), "Discard the changes to /a?")

		f.press("n")
		assert.True(t, f.c.State().Ledger.HasPending("/a"))
		assert.Nil(t, f.c.State().Selection)

		f.press("m", "c", "y")
		st := f.c.State()
		assert.False(t, st.Ledger.HasPending("/a"))
		assert.Equal(t, "Old Title", st.Working[0].Value("headline"))
	})

	t.Run("rows without edits offer no save", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.open(t)

		f.press("m")
		require.True(t, f.m.menu.Active())
		view := f.m.View()
		assert.Contains(t, view, "Edit item")
		assert.NotContains(t, view, "Save row")
		f.press("esc")
		assert.False(t, f.m.menu.Active())
	})
}

func TestSheet_CancelAll(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)
	_, err := f.c.EditCell(0, "headline", "Draft")
	require.NoError(t, err)

	f.press("X")
	require.True(t, f.m.confirm.Active())
	view := f.m.View()
	assert.Contains(t, view, "Cancel all changes")
	assert.Contains(t, view, "/a")

	f.press("n")
	assert.Equal(t, 1, f.c.State().Ledger.Len())

	f.press("X", "y")
	assert.Equal(t, 0, f.c.State().Ledger.Len())
	assert.Equal(t, "Old Title", f.c.State().Working[0].Value("headline"))
	assert.Equal(t, 1, f.drafts.clearCount())
}

func TestSheet_Paging(t *testing.T) {
	svc := newArticleService()
	manyArticles(svc, 10)
	f := newSheetFixture(t, svc)
	f.open(t)

	st := f.c.State()
	assert.Equal(t, 12, st.Total)
	assert.Len(t, st.Working, 9)
	assert.Contains(t, f.m.View(), "Page 1/2")

	// edits survive a page change
	_, err := f.c.EditCell(0, "headline", "Kept")
	require.NoError(t, err)

	f.press("]")
	st = f.c.State()
	assert.Equal(t, 1, st.Query.Page)
	assert.Len(t, st.Working, 3)
	assert.Contains(t, f.m.View(), "Page 2/2")
	assert.True(t, st.Ledger.HasPending("/a"))

	f.press("z")
	st = f.c.State()
	assert.Equal(t, 15, st.Query.PageSize)
	assert.Equal(t, 0, st.Query.Page)
	assert.Len(t, st.Working, 12)
	assert.Equal(t, "Kept", st.Working[0].Value("headline"))
}

func TestSheet_SearchAndFilter(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("f")
	require.True(t, f.m.filter.Active())
	f.press("j", "enter")
	require.NotNil(t, f.c.State().Query.DateFilter)
	assert.Equal(t, "today", f.c.State().Query.DateFilter.ID)

	f.press("/")
	require.True(t, f.m.search.Active())
	f.m.search.SetValue("Other")
	f.press("enter")

	st := f.c.State()
	assert.False(t, f.m.search.Active())
	assert.Equal(t, "Other", st.Query.Keyword)
	require.NotNil(t, st.Query.DateFilter, "the search keeps the filter")
	assert.Equal(t, "today", st.Query.DateFilter.ID)
	require.Len(t, st.Working, 1)
	assert.Equal(t, "/b", st.Working[0].Path)

	// the dialog opens on the current filter; one up is "No filter"
	f.press("f", "k", "enter")
	assert.Nil(t, f.c.State().Query.DateFilter)
	assert.Contains(t, f.statuses(), "Filter cleared")
}

func TestSheet_SearchError(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)

	f.press("/")
	f.m.search.SetValue("bogus:1")
	f.press("enter")

	assert.Empty(t, f.c.State().Query.Keyword)
	assert.Contains(t, f.statuses(), "unknown field: bogus")
}

func TestSheet_Drafts(t *testing.T) {
	t.Run("restored on first load", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.drafts.entries[draftKey(testSite, articleType)] = []sheet.LedgerEntry{
			{Path: "/a", FieldID: "headline", Edit: sheet.Edit{Value: "Draft Title"}},
			// equal to the stored value, so dropped
			{Path: "/b", FieldID: "headline", Edit: sheet.Edit{Value: "Other"}},
		}
		f.open(t)

		st := f.c.State()
		assert.Equal(t, "Draft Title", st.Working[0].Value("headline"))
		assert.Equal(t, 1, st.Ledger.Len())
		assert.Contains(t, f.statuses(), "Restored 2 unsaved edits of /page/article")
	})

	t.Run("persisted", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.open(t)
		_, err := f.c.EditCell(1, "headline", "Pending")
		require.NoError(t, err)

		f.m.persistDrafts()

		entries := f.drafts.get(articleType)
		require.Len(t, entries, 1)
		assert.Equal(t, "/b", entries[0].Path)
		assert.Equal(t, "Pending", entries[0].Edit.Value)
	})

	t.Run("not persisted when they could not be read", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.drafts.loadErr = errDenied
		f.open(t)
		_, err := f.c.EditCell(1, "headline", "Pending")
		require.NoError(t, err)

		f.m.persistDrafts()
		assert.Empty(t, f.drafts.get(articleType))
	})
}

func TestSheet_SaveAllWaitsForRowSave(t *testing.T) {
	f := newSheetFixture(t, newArticleService())
	f.open(t)
	_, err := f.c.EditCell(0, "headline", "New Title")
	require.NoError(t, err)
	_, err = f.c.EditCell(1, "headline", "Pending")
	require.NoError(t, err)

	target, err := f.c.BeginRowSave(0)
	require.NoError(t, err)
	f.press("S")

	assert.Contains(t, f.statuses(), "Cannot save all: /a is still being saved")
	assert.Equal(t, sheet.PhaseReady, f.c.State().Phase)
	assert.Equal(t, 0, f.svc.WriteCount("/b"))

	f.run(f.m.saveRow(target))
	f.press("S")
	assert.Equal(t, 1, f.svc.WriteCount("/a"))
	assert.Equal(t, 1, f.svc.WriteCount("/b"))
	assert.Equal(t, 0, f.c.State().Ledger.Len())
}

func TestSheet_DirectEdit(t *testing.T) {
	writeTemp := func(t *testing.T, content string) string {
		t.Helper()
		file := filepath.Join(t.TempDir(), "item.xml")
		require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
		return file
	}

	t.Run("changed file is written", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.open(t)
		req, err := f.c.DirectEditTarget(0, "", false)
		require.NoError(t, err)

		file := writeTemp(t, articleDoc("Edited Title"))
		f.send(editorClosedMsg{req: req, file: file, original: f.svc.Doc("/a")})

		assert.Equal(t, articleDoc("Edited Title"), f.svc.Doc("/a"))
		assert.Equal(t, "Edited Title", f.c.State().Working[0].Value("headline"))
		assert.Nil(t, f.c.State().Selection)
		assert.Contains(t, f.statuses(), "Saved /a")
		_, err = os.Stat(file)
		assert.True(t, os.IsNotExist(err), "temp file is removed")
	})

	t.Run("pending edits of other fields survive", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.open(t)
		_, err := f.c.EditCell(0, "headline", "Pending")
		require.NoError(t, err)
		req, err := f.c.DirectEditTarget(0, "body", false)
		require.NoError(t, err)

		original := f.svc.Doc("/a")
		edited := strings.Replace(original, "Body text", "Edited body", 1)
		f.send(editorClosedMsg{req: req, file: writeTemp(t, edited), original: original})

		st := f.c.State()
		assert.Empty(t, st.Writing)
		assert.Equal(t, map[string]sheet.Edit{"headline": {Value: "Pending"}}, st.Ledger.Edits("/a"))
		assert.Equal(t, "Pending", st.Working[0].Value("headline"))
		assert.Equal(t, "<p>Edited body</p>", st.Working[0].Value("body"))
	})

	t.Run("unchanged file is not written", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.open(t)
		req, err := f.c.DirectEditTarget(0, "", false)
		require.NoError(t, err)

		original := f.svc.Doc("/a")
		f.send(editorClosedMsg{req: req, file: writeTemp(t, original), original: original})

		assert.Empty(t, f.svc.Writes)
		assert.Contains(t, f.statuses(), "No changes to /a")
	})

	t.Run("readonly never writes", func(t *testing.T) {
		f := newSheetFixture(t, newArticleService())
		f.open(t)
		req, err := f.c.DirectEditTarget(0, "body", true)
		require.NoError(t, err)

		f.send(editorClosedMsg{req: req, file: writeTemp(t, articleDoc("Changed")), original: f.svc.Doc("/a")})

		assert.Empty(t, f.svc.Writes)
		assert.Equal(t, "Old Title", f.c.State().Working[0].Value("headline"))
	})

	t.Run("write failure keeps the row", func(t *testing.T) {
		svc := newArticleService()
		svc.FailWrite["/a"] = errDenied
		f := newSheetFixture(t, svc)
		f.open(t)
		req, err := f.c.DirectEditTarget(0, "", false)
		require.NoError(t, err)

		f.send(editorClosedMsg{req: req, file: writeTemp(t, articleDoc("Edited")), original: f.svc.Doc("/a")})

		assert.Equal(t, "Old Title", f.c.State().Working[0].Value("headline"))
		assert.Contains(t, f.statuses(), "failed to write /a: denied")
	})
}

func TestNextPageSize(t *testing.T) {
	options := []int{9, 15, 21}
	assert.Equal(t, 15, nextPageSize(options, 9))
	assert.Equal(t, 9, nextPageSize(options, 21))
	assert.Equal(t, 9, nextPageSize(options, 10))
	assert.Equal(t, 10, nextPageSize(nil, 10))
}
