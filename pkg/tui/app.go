package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	logging "github.com/ipfs/go-log/v2"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/events"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

var logger = logging.Logger("datasheet/tui")

type sessionState int

const (
	typeSelectorView sessionState = iota
	sheetView
)

// TypeLister lists the content types offered by the selector
type TypeLister interface {
	ContentTypes(ctx context.Context) ([]models.ContentType, error)
}

// DraftStore keeps pending edits between sessions
type DraftStore interface {
	Save(ctx context.Context, site, contentType string, entries []sheet.LedgerEntry) error
	Load(ctx context.Context, site, contentType string) ([]sheet.LedgerEntry, error)
	Clear(ctx context.Context, site, contentType string) (int64, error)
	Close() error
}

// Options wires the app to its collaborators
type Options struct {
	Types      TypeLister
	Controller *sheet.Controller
	Bus        *events.Bus
	// Drafts may be nil, in which case edits live only as long as the session
	Drafts      DraftStore
	Editor      *cli.EditorLauncher
	PageSizes   []int
	ColumnWidth int
}

// Messages for communication between views
type (
	SwitchViewMsg struct {
		view sessionState
	}

	quitMsg struct{}
)

type App struct {
	state    sessionState
	selector *TypeSelectorModel
	sheet    *SheetModel

	bus    *events.Bus
	c      *sheet.Controller
	drafts DraftStore
	status *StatusManager

	width  int
	height int
	cancel context.CancelFunc
}

// New builds the app from already wired collaborators
func New(opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		state:    typeSelectorView,
		selector: NewTypeSelectorModel(ctx, opts.Types, opts.Controller.Site()),
		sheet:    NewSheetModel(ctx, opts),
		bus:      opts.Bus,
		c:        opts.Controller,
		drafts:   opts.Drafts,
		status:   NewStatusManager(),
		cancel:   cancel,
	}
}

// NewApp builds the app from the project settings
func NewApp(ctx *cli.CommandContext) (*App, error) {
	settings, err := ctx.LoadSettings()
	if err != nil {
		return nil, err
	}
	client, err := ctx.StudioClient()
	if err != nil {
		return nil, err
	}

	bus := events.New()
	controller := sheet.NewController(client, ctx.ControllerOptions())
	controller.Subscribe(bus)

	opts := Options{
		Types:       client,
		Controller:  controller,
		Bus:         bus,
		Editor:      cli.NewEditorLauncher(settings.Editor.Command),
		PageSizes:   settings.Sheet.PageSizeOptions,
		ColumnWidth: settings.Sheet.ColumnWidth,
	}

	store, err := ctx.OpenDrafts()
	if err != nil {
		logger.Warnw("drafts disabled for this session", "path", settings.Drafts.Path, "error", err)
	} else if store != nil {
		opts.Drafts = store
	}

	return New(opts), nil
}

// Close stops pending work and releases the controller and the drafts store
func (a *App) Close() {
	a.cancel()
	a.c.Close()
	if a.drafts != nil {
		if err := a.drafts.Close(); err != nil {
			logger.Warnw("failed to close drafts", "error", err)
		}
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.selector.Init(), a.sheet.Init())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// one line stays free for the status bar
		a.selector.SetSize(msg.Width, msg.Height-1)
		a.sheet.SetSize(msg.Width, msg.Height-1)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, a.quit()
		}

	case quitMsg:
		return a, a.quit()

	case StatusMsg:
		return a, a.status.Show(msg)

	case clearStatusMsg:
		a.status.Clear(msg.seq)
		return a, nil

	case SwitchViewMsg:
		switch msg.view {
		case typeSelectorView:
			a.state = typeSelectorView
		case sheetView:
			// nothing to go back to before a type was chosen
			if a.c.State().Query.ContentType != "" {
				a.state = sheetView
			}
		}
		return a, nil

	case typeChosenMsg:
		return a, a.openType(msg.contentType)
	}

	// Route updates to the active view
	var cmd tea.Cmd
	switch a.state {
	case typeSelectorView:
		_, cmd = a.selector.Update(msg)
	case sheetView:
		_, cmd = a.sheet.Update(msg)
	}

	// Results of sheet commands arrive whichever view is showing
	if a.state != sheetView && isSheetResult(msg) {
		_, sheetCmd := a.sheet.Update(msg)
		cmd = tea.Batch(cmd, sheetCmd)
	}
	return a, cmd
}

// openType shows the sheet for a content type. Drafts of the type being left
// are stored first, since the criteria change drops its ledger.
func (a *App) openType(contentType string) tea.Cmd {
	current := a.c.State().Query.Criteria
	changed := current.ContentType != contentType
	if changed {
		a.sheet.persistDrafts()
		a.bus.Publish(events.TopicCriteria, models.Criteria{ContentType: contentType})
	}
	a.state = sheetView
	return a.sheet.Enter(changed)
}

func (a *App) quit() tea.Cmd {
	a.sheet.persistDrafts()
	return tea.Quit
}

func isSheetResult(msg tea.Msg) bool {
	switch msg.(type) {
	case pageLoadedMsg, itemSavedMsg, saveHoldDoneMsg, unlockedMsg, discardedMsg,
		directEditReadyMsg, editorClosedMsg, directEditDoneMsg, spinner.TickMsg:
		return true
	}
	return false
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Loading..."
	}

	var content string
	switch a.state {
	case typeSelectorView:
		content = a.selector.View()
	case sheetView:
		content = a.sheet.View()
	default:
		content = "Unknown view"
	}

	// Add status bar if there's a message
	if text, statusType, ok := a.status.Current(); ok {
		statusStyle := lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)
		switch statusType {
		case StatusTypeError:
			statusStyle = statusStyle.Background(lipgloss.Color(ColorError))
		case StatusTypeWarning:
			statusStyle = statusStyle.Background(lipgloss.Color(ColorWarning)).Foreground(lipgloss.Color("0"))
		}
		content = lipgloss.JoinVertical(lipgloss.Top, content, statusStyle.Render(text))
	}

	return content
}
