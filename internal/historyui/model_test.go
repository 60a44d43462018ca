package historyui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/model"
)

type memLister struct {
	tests   []model.Result // newest first
	queries []model.PastTestsQuery
	err     error
}

func (l *memLister) ListTests(_ context.Context, q model.PastTestsQuery) (model.PastTestsPage, error) {
	l.queries = append(l.queries, q)
	if l.err != nil {
		return model.PastTestsPage{}, l.err
	}
	var out []model.Result
	for _, r := range l.tests {
		for _, f := range q.Filters {
			if f.Mode == r.Mode {
				out = append(out, r)
				break
			}
		}
	}
	return model.PastTestsPage{Tests: out}, nil
}

func sampleTests() []model.Result {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var out []model.Result
	for i, mode := range []model.Mode{model.ModeQuote, model.ModeTimed, model.ModeWordLimit} {
		out = append(out, model.Result{
			ID:        uuid.New(),
			Mode:      mode,
			TimeLimit: 60,
			WordLimit: 40,
			Score:     model.Score{CorrectChars: 50 * (i + 1), CorrectWords: 10, SecondsTaken: 30},
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		})
	}
	return out
}

func TestEnterSelectsNewestTest(t *testing.T) {
	lister := &memLister{tests: sampleTests()}
	m := NewModel(lister, Config{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected quit after selecting a test")
	}
	got, ok := m.Selected()
	if !ok {
		t.Fatalf("expected a selected test")
	}
	if got.ID != lister.tests[0].ID {
		t.Fatalf("expected newest test, got %s", got.Mode)
	}
}

func TestSelectedEmptyWithoutTests(t *testing.T) {
	m := NewModel(&memLister{}, Config{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatalf("expected enter to do nothing without tests")
	}
	if _, ok := m.Selected(); ok {
		t.Fatalf("expected no selection")
	}
	if !strings.Contains(m.View(), "No tests found.") {
		t.Fatalf("expected empty message")
	}
}

func TestApplyFilterReloads(t *testing.T) {
	lister := &memLister{tests: sampleTests()}
	m := NewModel(lister, Config{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.form.open {
		t.Fatalf("expected filter mode")
	}
	m.form.inputs[fieldModes].SetValue("timed")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.form.open {
		t.Fatalf("expected filter mode to close, error %q", m.form.err)
	}
	if len(m.report.Tests) != 1 || m.report.Tests[0].Mode != model.ModeTimed {
		t.Fatalf("expected only the timed test, got %+v", m.report.Tests)
	}
	last := lister.queries[len(lister.queries)-1]
	if len(last.Filters) != 1 || last.Filters[0].Mode != model.ModeTimed {
		t.Fatalf("unexpected filters %+v", last.Filters)
	}
}

func TestInvalidFilterKeepsForm(t *testing.T) {
	m := NewModel(&memLister{tests: sampleTests()}, Config{})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.form.inputs[fieldModes].SetValue("zen")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.form.open || m.form.err == "" {
		t.Fatalf("expected filter error, got mode=%v err=%q", m.form.open, m.form.err)
	}
}

func TestLoadErrorShown(t *testing.T) {
	m := NewModel(&memLister{err: errors.New("too many filters")}, Config{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "too many filters") {
		t.Fatalf("expected load error in view")
	}
}

func TestWindowKeys(t *testing.T) {
	m := NewModel(&memLister{tests: sampleTests()}, Config{Window: 5})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("=")})
	if m.cfg.Window != 10 {
		t.Fatalf("expected window 10, got %d", m.cfg.Window)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	if m.cfg.Window != 1 {
		t.Fatalf("expected window 1, got %d", m.cfg.Window)
	}
}

func TestSummaryCards(t *testing.T) {
	out := renderSummaryCards(newestFirst(sampleTests()), 5, 100)
	for _, want := range []string{"Tests", "Avg WPM", "Best WPM", "Trend"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q: %s", want, out)
		}
	}
}

func TestFilterFormLast(t *testing.T) {
	cases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "", want: 0},
		{input: "all", want: 0},
		{input: " 20 ", want: 20},
		{input: "-1", wantErr: true},
		{input: "ten", wantErr: true},
	}
	for _, tc := range cases {
		f := newFilterForm()
		f.show(Config{Filters: []model.PastTestFilter{{Mode: model.ModeQuote}}})
		f.inputs[fieldLast].SetValue(tc.input)
		cfg, err := f.parse(Config{Last: 7})
		if tc.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.input, err)
		}
		if cfg.Last != tc.want {
			t.Fatalf("expected last %d for %q, got %d", tc.want, tc.input, cfg.Last)
		}
	}
}

func TestStepWindow(t *testing.T) {
	cases := []struct {
		cur, dir, want int
	}{
		{cur: 1, dir: 1, want: 5},
		{cur: 7, dir: 1, want: 10},
		{cur: 50, dir: 1, want: 50},
		{cur: 7, dir: -1, want: 5},
		{cur: 1, dir: -1, want: 1},
	}
	for _, tc := range cases {
		if got := stepWindow(tc.cur, tc.dir); got != tc.want {
			t.Fatalf("stepWindow(%d, %d): expected %d, got %d", tc.cur, tc.dir, tc.want, got)
		}
	}
}
