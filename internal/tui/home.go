package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/casefolio/internal/filter"
	"github.com/starford/casefolio/internal/models"
	"github.com/starford/casefolio/internal/parser"
)

// Rows of the fixed home header. The filter panel opens right below it.
const (
	barRow   = 1
	panelRow = 2
	cardRows = 5
)

type option struct {
	dim   filter.Dimension
	value string
}

type panelLine struct {
	text string
	opt  int // -1 for headings
}

// filterPanel adapts the open filter panel to the dismisser.
type filterPanel struct{ m *Model }

func (p filterPanel) Bounds() filter.Rect { return p.m.panelBounds() }

func (p filterPanel) Close() {
	p.m.panelOpen = false
	p.m.unsubscribe = nil
}

// items is the selectable card order: featured first, then the filtered grid.
func (m *Model) items() []models.CaseMeta {
	visible := m.filter.Visible(m.others)
	out := make([]models.CaseMeta, 0, len(m.featured)+len(visible))
	out = append(out, m.featured...)
	return append(out, visible...)
}

func (m *Model) clampCursor() {
	n := len(m.items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) homeKey(msg tea.KeyMsg) tea.Cmd {
	if m.panelOpen {
		opts := m.options()
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.panelCursor > 0 {
				m.panelCursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.panelCursor < len(opts)-1 {
				m.panelCursor++
			}
		case key.Matches(msg, m.keys.Open):
			m.toggleOption(m.panelCursor)
		case key.Matches(msg, m.keys.Reset):
			m.resetFilters()
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Filter):
			m.closePanel()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Open):
		items := m.items()
		if len(items) == 0 {
			return nil
		}
		return m.openCase(items[m.cursor].Slug)
	case key.Matches(msg, m.keys.Filter):
		m.openPanel()
	case key.Matches(msg, m.keys.Reset):
		m.resetFilters()
	}
	return nil
}

func (m *Model) openCase(slug string) tea.Cmd {
	return func() tea.Msg {
		d, err := m.loader.GetCase(m.ctx, slug)
		return detailMsg{detail: d, err: err}
	}
}

func (m *Model) options() []option {
	var out []option
	for _, d := range filter.Dimensions {
		for _, v := range filter.Vocabulary(m.others, d) {
			out = append(out, option{dim: d, value: v})
		}
	}
	return out
}

func (m *Model) toggleOption(i int) {
	opts := m.options()
	if i < 0 || i >= len(opts) {
		return
	}
	m.filter.Toggle(opts[i].dim, opts[i].value)
	m.clampCursor()
}

// resetFilters clears every selection and closes the panel.
func (m *Model) resetFilters() {
	m.filter.Reset()
	m.closePanel()
	m.clampCursor()
}

func (m *Model) openPanel() {
	if m.panelOpen {
		return
	}
	m.panelOpen = true
	m.panelCursor = 0
	m.unsubscribe = m.dismisser.Subscribe(filterPanel{m})
}

func (m *Model) closePanel() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.panelOpen = false
}

func dimLabel(d filter.Dimension) string {
	s := string(d)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (m *Model) panelLines() []panelLine {
	var (
		lines []panelLine
		last  filter.Dimension
	)
	for i, o := range m.options() {
		if o.dim != last {
			lines = append(lines, panelLine{text: m.styles.CardTitle.Render(dimLabel(o.dim)), opt: -1})
			last = o.dim
		}
		mark := "[ ]"
		if m.filter.IsSelected(o.dim, o.value) {
			mark = "[x]"
		}
		style, pointer := m.styles.Option, "  "
		if i == m.panelCursor {
			style, pointer = m.styles.OptionActive, "> "
		}
		lines = append(lines, panelLine{text: style.Render(pointer + mark + " " + o.value), opt: i})
	}
	if len(lines) == 0 {
		lines = append(lines, panelLine{text: m.styles.Muted.Render("No tags"), opt: -1})
	}
	return lines
}

func (m *Model) panelView() string {
	lines := m.panelLines()
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.text
	}
	return m.styles.Panel.Render(strings.Join(texts, "\n"))
}

func (m *Model) panelBounds() filter.Rect {
	v := m.panelView()
	return filter.Rect{X: 0, Y: panelRow, W: lipgloss.Width(v), H: lipgloss.Height(v)}
}

// optionAt maps a click inside the panel to an option index.
func (m *Model) optionAt(x, y int) (int, bool) {
	b := m.panelBounds()
	if !b.Contains(x, y) {
		return 0, false
	}
	lines := m.panelLines()
	row := y - b.Y - 1 // top border
	if row < 0 || row >= len(lines) || lines[row].opt < 0 {
		return 0, false
	}
	return lines[row].opt, true
}

func (m *Model) filterBar() string {
	text := "Filters: none · f to choose"
	if n := m.filter.ActiveCount(); n > 0 {
		var parts []string
		for _, d := range filter.Dimensions {
			if sel := m.filter.Selected(d); len(sel) > 0 {
				parts = append(parts, string(d)+" "+strings.Join(sel, ", "))
			}
		}
		text = fmt.Sprintf("Filters (%d): %s · r to reset", n, strings.Join(parts, "; "))
	}
	return m.styles.Bar.MaxWidth(m.width).Render(text)
}

func (m *Model) chips(c models.CaseMeta) string {
	var out []string
	for _, d := range filter.Dimensions {
		st := m.styles.Tag(string(d))
		for _, t := range c.Tags(string(d)) {
			out = append(out, st.Render(t))
		}
	}
	return strings.Join(out, " ")
}

func (m *Model) cardView(c models.CaseMeta, selected bool) string {
	inner := m.width - 4
	if inner < 10 {
		inner = 10
	}
	clip := lipgloss.NewStyle().MaxWidth(inner)

	title := c.Title
	if title == "" {
		title = c.Slug
	}
	head := m.styles.CardTitle.Render(title)
	if d := parser.DisplayDate(c); d != "" {
		head += "  " + m.styles.Date.Render(d)
	}
	body := strings.Join([]string{
		clip.Render(head),
		clip.Render(m.styles.Summary.Render(c.Summary)),
		clip.Render(m.chips(c)),
	}, "\n")

	st := m.styles.Card
	if selected {
		st = m.styles.CardSelected
	}
	return st.Width(inner + 2).Render(body)
}

func (m *Model) homeView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.MaxWidth(m.width).Render("Casefolio"))
	b.WriteString("\n")
	b.WriteString(m.filterBar())

	used := 2
	if m.panelOpen {
		p := m.panelView()
		b.WriteString("\n")
		b.WriteString(p)
		used += lipgloss.Height(p)
	}

	if !m.loaded {
		b.WriteString("\n\n" + m.styles.Muted.Render("Loading…"))
		return b.String()
	}

	items := m.items()
	if len(m.featured)+len(m.others) == 0 {
		b.WriteString("\n\n" + m.styles.Muted.Render("No cases yet."))
		return b.String()
	}

	avail := m.height - used - 4 - lipgloss.Height(m.help.View(m.keys))
	perPage := avail / cardRows
	if perPage < 1 {
		perPage = 1
	}
	start := 0
	if m.cursor >= perPage {
		start = m.cursor - perPage + 1
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	visibleOthers := len(items) - len(m.featured)
	for i := start; i < end; i++ {
		switch {
		case i == start && i < len(m.featured):
			b.WriteString("\n" + m.styles.Section.Render("Featured"))
		case i == len(m.featured) || (i == start && i > len(m.featured)):
			b.WriteString("\n" + m.styles.Section.Render(fmt.Sprintf("Work (%d of %d)", visibleOthers, len(m.others))))
		}
		b.WriteString("\n")
		b.WriteString(m.cardView(items[i], i == m.cursor))
	}
	if visibleOthers == 0 && m.filter.Active() && end == len(items) {
		b.WriteString("\n" + m.styles.Section.Render(fmt.Sprintf("Work (0 of %d)", len(m.others))))
		b.WriteString("\n" + m.styles.Muted.Render("No cases match the selected filters. Press r to reset."))
	}
	return b.String()
}
