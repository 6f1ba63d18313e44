package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articleRows() []Row {
	fields := articleFields()
	return []Row{
		MapRow(0, "/a", articleDoc("Old Title", "Contact"), fields, nil),
		MapRow(1, "/b", articleDoc("Other", "Contact"), fields, nil),
	}
}

func TestSubstitute(t *testing.T) {
	committed := articleRows()
	working, ledger := Substitute("Old", "New", committed, committed, articleFields(), Ledger{})

	assert.Equal(t, "New Title", working[0].Value("headline"))
	assert.Equal(t, "Other", working[1].Value("headline"))
	assert.Equal(t, "/static-assets/images/Old-banner.png", working[0].Value("image"), "media fields are not rewritten")
	assert.Equal(t, []string{"/a"}, ledger.Paths())
	assert.Equal(t, map[string]Edit{"headline": {Value: "New Title"}}, ledger.Edits("/a"))

	assert.Equal(t, "Old Title", committed[0].Value("headline"), "committed rows are untouched")
}

func TestSubstitute_EmptyFind(t *testing.T) {
	committed := articleRows()
	working, ledger := Substitute("", "x", committed, committed, articleFields(), Ledger{})
	assert.Equal(t, committed, working)
	assert.Equal(t, 0, ledger.Len())
}

func TestSubstitute_Idempotent(t *testing.T) {
	committed := articleRows()
	fields := articleFields()

	once, onceLedger := Substitute("Old", "New", committed, committed, fields, Ledger{})
	twice, twiceLedger := Substitute("Old", "New", once, committed, fields, onceLedger)

	assert.Equal(t, once, twice)
	assert.Equal(t, onceLedger.Entries(), twiceLedger.Entries())
}

func TestSubstitute_BackToCommittedClearsEntry(t *testing.T) {
	committed := articleRows()
	fields := articleFields()

	working, ledger := Substitute("Old", "New", committed, committed, fields, Ledger{})
	working, ledger = Substitute("New", "Old", working, committed, fields, ledger)

	assert.Equal(t, "Old Title", working[0].Value("headline"))
	assert.Equal(t, 0, ledger.Len())
}

func TestSubstitute_ReferenceList(t *testing.T) {
	committed := articleRows()
	fields := articleFields()

	working, ledger := Substitute("Contact", "About", committed, committed, fields, Ledger{})

	require.Equal(t, []string{"/a", "/b"}, ledger.Paths())
	edit := ledger.Edits("/a")["relatedLinks"]
	assert.True(t, edit.HasRaw)
	assert.Equal(t, relatedLinks("About"), edit.Raw)
	assert.Equal(t, "/site/website/About/index.xmlAbout", edit.Value)

	raw, _ := working[1].RawValue("relatedLinks")
	assert.Equal(t, relatedLinks("About"), raw)
}

func TestSubstitute_ReferenceListStaysWellFormed(t *testing.T) {
	committed := articleRows()
	working, ledger := Substitute("key", "k ey", committed, committed, articleFields(), Ledger{})

	assert.Equal(t, committed, working)
	assert.Equal(t, 0, ledger.Len())
}

func TestFindMatches(t *testing.T) {
	rows := articleRows()
	fields := articleFields()

	matches := FindMatches("Old", rows, fields)
	assert.Equal(t, []CellRef{{RowID: 0, Path: "/a", FieldID: "headline"}}, matches)

	matches = FindMatches("Contact", rows, fields)
	assert.Len(t, matches, 2)

	assert.Empty(t, FindMatches("", rows, fields))
	assert.Empty(t, FindMatches("missing", rows, fields))
}
