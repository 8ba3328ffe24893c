// Package tui is a terminal browser for the case library: the home page
// with its featured section and filterable grid, and a detail page with
// the rendered body and an image carousel.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/starford/casefolio/internal/carousel"
	"github.com/starford/casefolio/internal/caseservice"
	"github.com/starford/casefolio/internal/filter"
	"github.com/starford/casefolio/internal/models"
	"github.com/starford/casefolio/internal/render"
	"github.com/starford/casefolio/internal/theme"
)

// Loader is the read side of the case service.
type Loader interface {
	ListCases(ctx context.Context) ([]models.CaseMeta, error)
	GetCase(ctx context.Context, slug string) (*caseservice.CaseDetail, error)
}

// Options configures the browser.
type Options struct {
	Theme           theme.Theme
	Sizes           render.SizeLookup // may be nil
	Interval        time.Duration
	TransitionDelay time.Duration
	// GlamourStyle is a glamour standard style name; "" or "auto" detects
	// from the terminal.
	GlamourStyle string
}

type page int

const (
	pageHome page = iota
	pageDetail
)

type (
	casesMsg struct {
		cases []models.CaseMeta
		err   error
	}
	detailMsg struct {
		detail *caseservice.CaseDetail
		err    error
	}
	slideMsg struct {
		done chan struct{}
	}
)

// Model is the bubbletea model of the browser. It is used by pointer.
type Model struct {
	ctx      context.Context
	loader   Loader
	opts     Options
	styles   Styles
	keys     keyMap
	help     help.Model
	renderer *render.Renderer

	width, height int
	page          page
	loaded        bool
	err           error

	featured []models.CaseMeta
	others   []models.CaseMeta
	filter   *filter.Filter
	cursor   int

	panelOpen   bool
	panelCursor int
	dismisser   *filter.Dismisser
	unsubscribe func()

	detail   *caseservice.CaseDetail
	viewport viewport.Model
	md       *glamour.TermRenderer
	mdWidth  int

	slides      *carousel.Carousel
	slide       carousel.State
	stopSlides  context.CancelFunc
	slideSignal chan struct{}
	slideDone   chan struct{}
}

// New creates the browser model. ctx bounds loads and carousel timers.
func New(ctx context.Context, loader Loader, opts Options) *Model {
	if opts.Theme.Colors.Accent == "" {
		opts.Theme = theme.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = carousel.DefaultInterval
	}
	if opts.TransitionDelay <= 0 {
		opts.TransitionDelay = carousel.DefaultTransitionDelay
	}
	return &Model{
		ctx:       ctx,
		loader:    loader,
		opts:      opts,
		styles:    NewStyles(opts.Theme),
		keys:      defaultKeys(),
		help:      help.New(),
		renderer:  render.New(),
		width:     80,
		height:    24,
		filter:    filter.New(),
		dismisser: filter.NewDismisser(),
		viewport:  viewport.New(80, 20),
	}
}

// Init loads the case list.
func (m *Model) Init() tea.Cmd {
	return m.loadCases
}

func (m *Model) loadCases() tea.Msg {
	cases, err := m.loader.ListCases(m.ctx)
	return casesMsg{cases: cases, err: err}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if m.page == pageDetail {
			m.layoutDetail(true)
		}
		return m, nil

	case casesMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.featured, m.others = caseservice.Split(msg.cases)
		m.clampCursor()
		return m, nil

	case detailMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		return m, m.showDetail(msg.detail)

	case slideMsg:
		if m.slides == nil || msg.done != m.slideDone {
			return m, nil
		}
		m.slide = m.slides.Snapshot()
		return m, waitForSlide(m.slideSignal, m.slideDone)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.Close()
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			if m.page == pageDetail {
				m.layoutDetail(false)
			}
			return m, nil
		}
		if m.page == pageDetail {
			return m, m.detailKey(msg)
		}
		return m, m.homeKey(msg)
	}

	if m.page == pageDetail {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.page == pageDetail {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	if m.dismisser.Dispatch(msg.X, msg.Y) > 0 {
		return nil
	}
	if m.panelOpen {
		if opt, ok := m.optionAt(msg.X, msg.Y); ok {
			m.panelCursor = opt
			m.toggleOption(opt)
		}
		return nil
	}
	if msg.Y == barRow {
		m.openPanel()
	}
	return nil
}

// View renders the current page.
func (m *Model) View() string {
	var body string
	if m.page == pageDetail {
		body = m.detailView()
	} else {
		body = m.homeView()
	}
	if m.err != nil {
		body += "\n" + m.styles.Error.Render("error: "+m.err.Error())
	}
	return body + "\n" + m.help.View(m.keys)
}

// Close releases the carousel and any open panel.
func (m *Model) Close() {
	m.closeSlides()
	m.closePanel()
}

// Run starts the browser on the terminal and blocks until the user quits
// or ctx is cancelled.
func Run(ctx context.Context, loader Loader, opts Options) error {
	m := New(ctx, loader, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
