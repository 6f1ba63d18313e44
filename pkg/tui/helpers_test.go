package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/pluqqy/pluqqy-datasheet/pkg/events"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet/sheettest"
)

const articleType = "/page/article"

const articleDefinition = `<form>
  <sections>
    <section>
      <fields>
        <field><type>input</type><id>headline</id><title>Headline</title></field>
        <field><type>node-selector</type><id>relatedLinks</id><title>Related Links</title></field>
        <field><type>rte</type><id>body</id><title>Body</title></field>
        <field><type>image-picker</type><id>image</id><title>Image</title></field>
      </fields>
    </section>
  </sections>
</form>`

func articleDoc(headline string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<page>
  <content-type>/page/article</content-type>
  <headline>` + headline + `</headline>
  <relatedLinks item-list="true"><item><key>/site/website/contact/index.xml</key><value>Contact</value></item></relatedLinks>
  <body><![CDATA[<p>Body text</p>]]></body>
  <image>/static-assets/images/Old-banner.png</image>
</page>`
}

// newArticleService holds /a ("Old Title") and /b ("Other").
func newArticleService() *sheettest.Service {
	svc := sheettest.New()
	svc.SetDefinition(articleType, articleDefinition)
	svc.AddItem(articleType, "/a", articleDoc("Old Title"))
	svc.AddItem(articleType, "/b", articleDoc("Other"))
	return svc
}

// memoryDrafts is a DraftStore kept in memory
type memoryDrafts struct {
	mu      sync.Mutex
	entries map[string][]sheet.LedgerEntry
	clears  int
	saveErr error
	loadErr error
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{entries: map[string][]sheet.LedgerEntry{}}
}

func draftKey(site, contentType string) string {
	return site + "|" + contentType
}

func (d *memoryDrafts) Save(ctx context.Context, site, contentType string, entries []sheet.LedgerEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saveErr != nil {
		return d.saveErr
	}
	if len(entries) == 0 {
		delete(d.entries, draftKey(site, contentType))
		return nil
	}
	d.entries[draftKey(site, contentType)] = append([]sheet.LedgerEntry(nil), entries...)
	return nil
}

func (d *memoryDrafts) Load(ctx context.Context, site, contentType string) ([]sheet.LedgerEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return nil, d.loadErr
	}
	return append([]sheet.LedgerEntry(nil), d.entries[draftKey(site, contentType)]...), nil
}

func (d *memoryDrafts) Clear(ctx context.Context, site, contentType string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clears++
	n := int64(len(d.entries[draftKey(site, contentType)]))
	delete(d.entries, draftKey(site, contentType))
	return n, nil
}

func (d *memoryDrafts) Close() error {
	return nil
}

func (d *memoryDrafts) get(contentType string) []sheet.LedgerEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries[draftKey(testSite, contentType)]
}

func (d *memoryDrafts) clearCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clears
}

// staticTypes is a TypeLister with a fixed answer
type staticTypes struct {
	types []models.ContentType
	err   error
}

func (s staticTypes) ContentTypes(ctx context.Context) ([]models.ContentType, error) {
	return s.types, s.err
}

const testSite = "editorial"

type sheetFixture struct {
	svc    *sheettest.Service
	bus    *events.Bus
	c      *sheet.Controller
	drafts *memoryDrafts
	m      *SheetModel
	// every message the pump delivered
	msgs []tea.Msg
}

func newSheetFixture(t *testing.T, svc *sheettest.Service) *sheetFixture {
	t.Helper()
	bus := events.New()
	c := sheet.NewController(svc, sheet.Options{Site: testSite, PageSize: 9})
	c.Subscribe(bus)
	t.Cleanup(c.Close)

	store := newMemoryDrafts()
	m := NewSheetModel(context.Background(), Options{
		Controller:  c,
		Bus:         bus,
		Drafts:      store,
		PageSizes:   []int{9, 15, 21},
		ColumnWidth: 20,
	})
	m.SetSize(200, 50)
	return &sheetFixture{svc: svc, bus: bus, c: c, drafts: store, m: m}
}

// open selects the article type and waits for the first page
func (f *sheetFixture) open(t *testing.T) {
	t.Helper()
	f.bus.Publish(events.TopicCriteria, models.Criteria{ContentType: articleType})
	f.run(f.m.Enter(true))
	require.Equal(t, sheet.PhaseReady, f.c.State().Phase)
}

func (f *sheetFixture) run(cmd tea.Cmd) {
	f.msgs = append(f.msgs, pump(f.m, cmd)...)
}

func (f *sheetFixture) send(msg tea.Msg) {
	_, cmd := f.m.Update(msg)
	f.run(cmd)
}

func (f *sheetFixture) press(keys ...string) {
	for _, k := range keys {
		f.send(keyMsg(k))
	}
}

// statuses returns the status texts shown so far
func (f *sheetFixture) statuses() []string {
	var out []string
	for _, msg := range f.msgs {
		if s, ok := msg.(StatusMsg); ok {
			out = append(out, s.Text)
		}
	}
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// cmdWait bounds how long the pump waits on one command. Cursor blinks and
// status timeouts take longer and are dropped.
const cmdWait = 200 * time.Millisecond

// pump runs cmd and feeds the messages it produces back into m until no
// command is left. It returns every message delivered.
func pump(m tea.Model, cmd tea.Cmd) []tea.Msg {
	var delivered []tea.Msg
	pending := []tea.Cmd{cmd}
	for round := 0; round < 25 && len(pending) > 0; round++ {
		var msgs []tea.Msg
		for _, c := range pending {
			msgs = append(msgs, runCmd(c)...)
		}
		pending = nil
		for _, msg := range msgs {
			switch msg.(type) {
			case spinner.TickMsg, tea.QuitMsg:
				delivered = append(delivered, msg)
				continue
			}
			delivered = append(delivered, msg)
			var next tea.Cmd
			m, next = m.Update(msg)
			pending = append(pending, next)
		}
	}
	return delivered
}

// runCmd runs one command, expanding batches
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(cmdWait):
		return nil
	}

	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	}

	// batched commands run concurrently, as the runtime does
	results := make([][]tea.Msg, len(batch))
	var wg sync.WaitGroup
	for i, c := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runCmd(c)
		}()
	}
	wg.Wait()

	var out []tea.Msg
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

var errDenied = errors.New("denied")

// manyArticles adds n more articles named /item-00 and up
func manyArticles(svc *sheettest.Service, n int) {
	for i := 0; i < n; i++ {
		svc.AddItem(articleType, fmt.Sprintf("/item-%02d", i), articleDoc(fmt.Sprintf("Item %d", i)))
	}
}
