package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/casefolio/internal/carousel"
	"github.com/starford/casefolio/internal/caseservice"
	"github.com/starford/casefolio/internal/parser"
	"github.com/starford/casefolio/internal/render"
)

func (m *Model) showDetail(d *caseservice.CaseDetail) tea.Cmd {
	m.closePanel()
	m.detail = d
	m.page = pageDetail

	var slides []carousel.Image
	if html, err := m.renderer.HTML(d.Content); err == nil {
		if media, err := render.ExtractMedia(html, m.opts.Sizes); err == nil {
			slides = render.Slides(media)
		}
	}
	cmd := m.openSlides(slides)
	m.viewport.GotoTop()
	m.layoutDetail(true)
	return cmd
}

func (m *Model) closeDetail() {
	m.closeSlides()
	m.detail = nil
	m.page = pageHome
}

func (m *Model) detailKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closeDetail()
		return nil
	case key.Matches(msg, m.keys.Prev):
		if m.slides != nil {
			m.slides.Prev()
			m.slide = m.slides.Snapshot()
		}
		return nil
	case key.Matches(msg, m.keys.Next):
		if m.slides != nil {
			m.slides.Next()
			m.slide = m.slides.Snapshot()
		}
		return nil
	}
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		if m.slides != nil {
			m.slides.Select(int(s[0] - '1'))
			m.slide = m.slides.Snapshot()
		}
		return nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// openSlides starts a carousel for the detail page. Carousel changes are
// coalesced into a one-slot signal channel and surfaced as slideMsg.
func (m *Model) openSlides(images []carousel.Image) tea.Cmd {
	m.closeSlides()

	signal := make(chan struct{}, 1)
	done := make(chan struct{})
	c := carousel.New(images,
		carousel.WithInterval(m.opts.Interval),
		carousel.WithTransitionDelay(m.opts.TransitionDelay),
		carousel.WithOnChange(func(carousel.State) {
			select {
			case signal <- struct{}{}:
			default:
			}
		}),
	)
	ctx, cancel := context.WithCancel(m.ctx)
	c.Start(ctx)

	m.slides, m.stopSlides = c, cancel
	m.slideSignal, m.slideDone = signal, done
	m.slide = c.Snapshot()
	return waitForSlide(signal, done)
}

func (m *Model) closeSlides() {
	if m.slides == nil {
		return
	}
	m.stopSlides()
	m.slides.Close()
	close(m.slideDone)
	m.slides, m.stopSlides = nil, nil
	m.slideSignal, m.slideDone = nil, nil
	m.slide = carousel.State{}
}

func waitForSlide(signal <-chan struct{}, done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-signal:
			return slideMsg{done: done}
		case <-done:
			return nil
		}
	}
}

func (m *Model) markdown(body string) string {
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	if m.md == nil || m.mdWidth != width {
		style := glamour.WithAutoStyle()
		if s := m.opts.GlamourStyle; s != "" && s != "auto" {
			style = glamour.WithStandardStyle(s)
		}
		r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
		if err != nil {
			return body
		}
		m.md, m.mdWidth = r, width
	}
	out, err := m.md.Render(body)
	if err != nil {
		return body
	}
	return out
}

func (m *Model) slideView() string {
	s := m.slide
	img, ok := s.Active()
	if !ok {
		return ""
	}
	label := img.Caption
	if label == "" {
		label = img.Alt
	}
	if label == "" {
		label = img.Src
	}

	dots := make([]string, len(s.Images))
	for i := range s.Images {
		dots[i] = "○"
		if i == s.Index {
			dots[i] = "●"
		}
	}
	line := fmt.Sprintf("%s  %d/%d  %s", strings.Join(dots, " "), s.Index+1, len(s.Images), label)
	if s.Phase != carousel.Steady && s.Previous >= 0 {
		line += m.styles.Muted.Render(fmt.Sprintf("  (%s from %d)", s.Phase, s.Previous+1))
	}
	clip := lipgloss.NewStyle().MaxWidth(m.width)
	return clip.Render(m.styles.Slide.Render(line)) + "\n" + clip.Render(m.styles.Muted.Render(img.Src))
}

func (m *Model) detailHeader() string {
	d := m.detail
	title := d.Title
	if title == "" {
		title = d.Slug
	}
	head := m.styles.Title.Render(title)
	if date := parser.DisplayDate(d.CaseMeta); date != "" {
		head += "  " + m.styles.Date.Render(date)
	}
	lines := []string{lipgloss.NewStyle().MaxWidth(m.width).Render(head)}
	if d.Summary != "" {
		lines = append(lines, lipgloss.NewStyle().MaxWidth(m.width).Render(m.styles.Summary.Render(d.Summary)))
	}
	if chips := m.chips(d.CaseMeta); chips != "" {
		lines = append(lines, lipgloss.NewStyle().MaxWidth(m.width).Render(chips))
	}
	if sv := m.slideView(); sv != "" {
		lines = append(lines, sv)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) layoutDetail(rerender bool) {
	if m.detail == nil {
		return
	}
	h := m.height - lipgloss.Height(m.detailHeader()) - lipgloss.Height(m.help.View(m.keys)) - 2
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	if rerender {
		m.viewport.SetContent(m.markdown(m.detail.Content))
	}
}

func (m *Model) detailView() string {
	return m.detailHeader() + "\n\n" + m.viewport.View()
}
