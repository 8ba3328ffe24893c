package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/goleak"

	"github.com/starford/casefolio/internal/apperr"
	"github.com/starford/casefolio/internal/carousel"
	"github.com/starford/casefolio/internal/caseservice"
	"github.com/starford/casefolio/internal/models"
)

type fakeLoader struct {
	cases   []models.CaseMeta
	details map[string]*caseservice.CaseDetail
	err     error
}

func (f fakeLoader) ListCases(context.Context) ([]models.CaseMeta, error) {
	return f.cases, f.err
}

func (f fakeLoader) GetCase(_ context.Context, slug string) (*caseservice.CaseDetail, error) {
	if d, ok := f.details[slug]; ok {
		return d, nil
	}
	return nil, apperr.ErrNotFound
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func sampleLoader() fakeLoader {
	year := 2021
	cases := []models.CaseMeta{
		{Slug: "lead", Title: "Lead story", Featured: true, Date: "2024-05-01"},
		{Slug: "clinic", Title: "Clinic intake", Summary: "Triage flows", Sector: []string{"Health"}, Role: []string{"Design"}, Date: "2023-02-10"},
		{Slug: "ledger", Title: "Ledger", Sector: []string{"Finance"}, Role: []string{"Research"}, Year: &year},
	}
	body := "Intro paragraph.\n\n![Flow chart](/uploads/flow.png)\n\n![Wireframe](/uploads/wire.png)\n"
	return fakeLoader{
		cases: cases,
		details: map[string]*caseservice.CaseDetail{
			"lead": {CaseEntry: models.CaseEntry{CaseMeta: cases[0], Content: body}},
		},
	}
}

func newTestModel(t *testing.T, loader Loader) *Model {
	t.Helper()
	m := New(context.Background(), loader, Options{
		Interval:     time.Hour,
		GlamourStyle: "notty",
	})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	m.Update(m.Init()())
	return m
}

func TestHomeView_FeaturedAndGrid(t *testing.T) {
	m := newTestModel(t, sampleLoader())

	view := m.View()
	for _, want := range []string{"Casefolio", "Featured", "Lead story", "Work (2 of 2)", "Clinic intake", "Feb 2023", "Ledger", "2021"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
	if strings.Index(view, "Clinic intake") > strings.Index(view, "Ledger") {
		t.Error("grid should keep loader order")
	}
}

func TestHomeView_LoadError(t *testing.T) {
	m := newTestModel(t, fakeLoader{err: errors.New("disk gone")})
	if !strings.Contains(m.View(), "disk gone") {
		t.Fatal("expected load error in view")
	}
}

func TestHomeView_Empty(t *testing.T) {
	m := newTestModel(t, fakeLoader{})
	if !strings.Contains(m.View(), "No cases yet.") {
		t.Fatal("expected empty state")
	}
}

func TestFilterPanel_ToggleAndReset(t *testing.T) {
	m := newTestModel(t, sampleLoader())

	m.Update(runes("f"))
	if !m.panelOpen || m.dismisser.Len() != 1 {
		t.Fatalf("panel should be open and subscribed")
	}
	// Options: sector Finance, sector Health, role Design, role Research.
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filter.IsSelected("sector", "Health") {
		t.Fatal("expected sector Health selected")
	}

	view := m.View()
	if !strings.Contains(view, "Work (1 of 2)") || strings.Contains(view, "Ledger") {
		t.Fatalf("grid not filtered:\n%s", view)
	}
	if !strings.Contains(view, "Lead story") {
		t.Fatal("featured cases ignore the filter")
	}

	m.Update(runes("r"))
	if m.filter.Active() || m.panelOpen || m.dismisser.Len() != 0 {
		t.Fatal("reset should clear selections and close the panel")
	}
}

func TestFilterPanel_NoMatches(t *testing.T) {
	m := newTestModel(t, sampleLoader())
	m.filter.Toggle("sector", "Health")
	m.filter.Toggle("role", "Research")

	view := m.View()
	if !strings.Contains(view, "No cases match the selected filters.") {
		t.Fatalf("expected no-match message:\n%s", view)
	}
}

func TestFilterPanel_ClickOutsideDismisses(t *testing.T) {
	m := newTestModel(t, sampleLoader())
	m.Update(runes("f"))

	b := m.panelBounds()
	m.Update(click(b.X+1, b.Y+2))
	if !m.panelOpen {
		t.Fatal("click inside should keep the panel open")
	}
	if !m.filter.IsSelected("sector", "Finance") {
		t.Fatal("click on an option should toggle it")
	}

	m.Update(click(b.X+b.W+5, b.Y+b.H+5))
	if m.panelOpen || m.dismisser.Len() != 0 {
		t.Fatal("click outside should close the panel")
	}
	if !m.filter.IsSelected("sector", "Finance") {
		t.Fatal("dismissal keeps selections")
	}
}

func TestFilterPanel_ClickBarOpens(t *testing.T) {
	m := newTestModel(t, sampleLoader())
	m.Update(click(2, barRow))
	if !m.panelOpen {
		t.Fatal("click on the filter bar should open the panel")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.panelOpen {
		t.Fatal("esc should close the panel")
	}
}

func TestCursorClampsAfterFilter(t *testing.T) {
	m := newTestModel(t, sampleLoader())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 2 {
		t.Fatalf("cursor = %d", m.cursor)
	}
	m.filter.Toggle("sector", "Health")
	m.clampCursor()
	if m.cursor != 1 {
		t.Fatalf("cursor should clamp to 1, got %d", m.cursor)
	}
}

func TestDetail_OpenCarouselAndBack(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := New(context.Background(), sampleLoader(), Options{Interval: time.Hour, GlamourStyle: "notty"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(m.Init()())

	cmd := m.homeKey(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected open command")
	}
	m.Update(cmd())
	if m.page != pageDetail {
		t.Fatal("expected detail page")
	}

	view := m.View()
	for _, want := range []string{"Lead story", "May 2024", "Intro paragraph.", "1/2", "Flow chart"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in detail view:\n%s", want, view)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.slide.Index != 1 || m.slide.Phase != carousel.Forward {
		t.Fatalf("unexpected slide state %+v", m.slide)
	}
	if !strings.Contains(m.View(), "2/2") {
		t.Fatal("expected second slide in view")
	}

	m.Update(runes("1"))
	if m.slide.Index != 0 {
		t.Fatalf("select should move to first slide, got %d", m.slide.Index)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.page != pageHome || m.slides != nil {
		t.Fatal("esc should return home and stop the carousel")
	}
	m.Close()
}

func TestDetail_SlideMessages(t *testing.T) {
	m := newTestModel(t, sampleLoader())
	m.Update(m.openCase("lead")())

	done := m.slideDone
	m.slides.Next()
	_, cmd := m.Update(slideMsg{done: done})
	if cmd == nil {
		t.Fatal("expected the next wait command")
	}
	if m.slide.Index != 1 {
		t.Fatalf("slide state not refreshed: %+v", m.slide)
	}

	stale := make(chan struct{})
	if _, cmd := m.Update(slideMsg{done: stale}); cmd != nil {
		t.Fatal("stale slide messages are ignored")
	}

	m.closeDetail()
	if msg := waitForSlide(make(chan struct{}), done)(); msg != nil {
		t.Fatal("closed carousel should end the wait")
	}
}

func TestDetail_NotFound(t *testing.T) {
	m := newTestModel(t, sampleLoader())
	m.Update(m.openCase("nope")())
	if m.page != pageHome || !strings.Contains(m.View(), "not found") {
		t.Fatal("missing case should surface an error on the home page")
	}
}

func TestQuitClosesCarousel(t *testing.T) {
	m := newTestModel(t, sampleLoader())
	m.Update(m.openCase("lead")())

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if m.slides != nil {
		t.Fatal("quit should stop the carousel")
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, sampleLoader())
	short := m.View()
	m.Update(runes("?"))
	if m.View() == short || !strings.Contains(m.View(), "reset filters") {
		t.Fatal("full help should list every binding")
	}
}
