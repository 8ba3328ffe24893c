package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/casefolio/internal/theme"
)

// Styles holds the lipgloss styles derived from a site theme.
type Styles struct {
	Title        lipgloss.Style
	Bar          lipgloss.Style
	Section      lipgloss.Style
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	CardTitle    lipgloss.Style
	Summary      lipgloss.Style
	Date         lipgloss.Style
	Muted        lipgloss.Style
	Panel        lipgloss.Style
	Option       lipgloss.Style
	OptionActive lipgloss.Style
	Slide        lipgloss.Style
	Error        lipgloss.Style

	tags map[string]lipgloss.Style
}

// NewStyles builds the terminal styles from t.
func NewStyles(t theme.Theme) Styles {
	c := t.Colors
	fg := lipgloss.Color(c.Foreground)
	accent := lipgloss.Color(c.Accent)
	border := lipgloss.Color(c.Border)

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	s := Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.AccentDark)),
		Bar:          lipgloss.NewStyle().Foreground(fg),
		Section:      lipgloss.NewStyle().Bold(true).Foreground(accent).MarginTop(1),
		Card:         card,
		CardSelected: card.BorderForeground(accent),
		CardTitle:    lipgloss.NewStyle().Bold(true).Foreground(fg),
		Summary:      lipgloss.NewStyle().Foreground(fg),
		Date:         lipgloss.NewStyle().Foreground(lipgloss.Color(c.AccentDark)),
		Muted:        lipgloss.NewStyle().Faint(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Option:       lipgloss.NewStyle().Foreground(fg),
		OptionActive: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Slide:        lipgloss.NewStyle().Foreground(lipgloss.Color(c.Role)),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")),
		tags:         make(map[string]lipgloss.Style),
	}
	for dim, ts := range t.Tags {
		s.tags[dim] = tagStyle(ts)
	}
	s.tags[""] = tagStyle(t.Tag(""))
	return s
}

func tagStyle(ts theme.TagStyle) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ts.Foreground)).
		Background(lipgloss.Color(ts.Background)).
		Padding(0, 1)
}

// Tag returns the chip style for a dimension.
func (s Styles) Tag(dimension string) lipgloss.Style {
	if st, ok := s.tags[dimension]; ok {
		return st
	}
	return s.tags[""]
}
