package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/remote"
	"github.com/yetype/yetype/internal/session"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fixedSource struct {
	words   []string
	quoteID uuid.UUID
}

func (f fixedSource) Words(model.TestConfig) ([]string, uuid.UUID) {
	return f.words, f.quoteID
}

type memSaver struct {
	saved []model.Result
	err   error
}

func (s *memSaver) InsertTest(_ context.Context, r model.Result) (model.Result, error) {
	if s.err != nil {
		return model.Result{}, s.err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	s.saved = append(s.saved, r)
	return r, nil
}

func newTestModel(t *testing.T, cfg model.TestConfig, words []string) (*Model, *fakeClock, *memSaver) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	saver := &memSaver{}
	m, err := NewModel(Options{
		Config: cfg,
		Source: fixedSource{words: words, quoteID: uuid.New()},
		Store:  saver,
		Clock:  clock,
	})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, clock, saver
}

func typeKeys(m *Model, clock *fakeClock, text string) tea.Cmd {
	var last tea.Cmd
	for _, r := range text {
		clock.now = clock.now.Add(150 * time.Millisecond)
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		if r == ' ' {
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		}
		_, last = m.Update(msg)
	}
	return last
}

func TestTypingToExhaustionSavesResult(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeWordLimit, TimeLimit: 60, WordLimit: 10}
	m, clock, saver := newTestModel(t, cfg, []string{"a", "bb", "c"})

	typeKeys(m, clock, "a bx c ")
	if _, ok := m.sess.State().(session.Ended); !ok {
		t.Fatalf("expected ended state, got %T", m.sess.State())
	}
	if len(saver.saved) != 1 {
		t.Fatalf("expected 1 saved result, got %d", len(saver.saved))
	}
	res := saver.saved[0]
	if res.Words != "a bb c" {
		t.Fatalf("expected full word list, got %q", res.Words)
	}
	if res.Score.CorrectWords != 2 || res.Score.IncorrectWords != 1 {
		t.Fatalf("unexpected score %+v", res.Score)
	}
	if len(m.mistakes) != 1 || m.mistakes[0].Target != "bb" {
		t.Fatalf("expected one mistake on bb, got %+v", m.mistakes)
	}
	if m.status != "saved" {
		t.Fatalf("expected saved status, got %q", m.status)
	}
	if !strings.Contains(m.View(), "wpm") {
		t.Fatalf("expected result screen")
	}
}

func TestTimedTestEndsOnTimer(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeTimed, TimeLimit: 15, WordLimit: 40}
	m, clock, saver := newTestModel(t, cfg, []string{"one", "two", "three"})

	if cmd := typeKeys(m, clock, "o"); cmd == nil {
		t.Fatalf("expected timer to be scheduled on first keystroke")
	}
	typeKeys(m, clock, "ne ")
	clock.now = clock.now.Add(16 * time.Second)

	_, cmd := m.Update(timerMsg{gen: m.gen - 1})
	if cmd != nil {
		t.Fatalf("expected stale timer to be dropped")
	}
	if _, ok := m.sess.State().(session.InProgress); !ok {
		t.Fatalf("expected stale timer not to end the test")
	}
	m.Update(timerMsg{gen: m.gen})
	if _, ok := m.sess.State().(session.Ended); !ok {
		t.Fatalf("expected ended state, got %T", m.sess.State())
	}
	if len(saver.saved) != 1 || saver.saved[0].Score.SecondsTaken != 15 {
		t.Fatalf("expected one 15s result, got %+v", saver.saved)
	}
}

func TestNothingTypedIsNotSaved(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeTimed, TimeLimit: 15, WordLimit: 40}
	m, clock, saver := newTestModel(t, cfg, []string{"one", "two"})

	typeKeys(m, clock, "on")
	clock.now = clock.now.Add(20 * time.Second)
	m.Update(timerMsg{gen: m.gen})
	if len(saver.saved) != 0 {
		t.Fatalf("expected nothing saved, got %d", len(saver.saved))
	}
	if m.status != "nothing typed, not saved" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestTimeTravelPlaysBackAndFinishes(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeWordLimit, TimeLimit: 60, WordLimit: 10}
	m, clock, _ := newTestModel(t, cfg, []string{"a", "b"})
	typeKeys(m, clock, "a b ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if cmd == nil {
		t.Fatalf("expected playback to schedule a frame")
	}
	if !m.travelRunning() {
		t.Fatalf("expected running time travel")
	}

	stale := m.gen - 1
	m.Update(travelFrameMsg{gen: stale})
	if m.frame.Applied != 0 {
		t.Fatalf("expected stale frame to be ignored")
	}

	clock.now = clock.now.Add(time.Second)
	_, cmd = m.Update(travelFrameMsg{gen: m.gen})
	if cmd == nil {
		t.Fatalf("expected grace timer after the last record")
	}
	if got := strings.Join(m.frame.Done, " "); got != "a b" {
		t.Fatalf("expected replayed words, got %q", got)
	}
	m.Update(travelDoneMsg{gen: m.gen})
	if m.travelRunning() {
		t.Fatalf("expected playback to finish")
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")}); cmd == nil {
		t.Fatalf("expected finished playback to restart")
	}
}

func TestEscCancelsTimeTravel(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeWordLimit, TimeLimit: 60, WordLimit: 10}
	m, clock, _ := newTestModel(t, cfg, []string{"a", "b"})
	typeKeys(m, clock, "a b ")
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	gen := m.gen

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Fatalf("expected esc to stop playback without quitting")
	}
	if m.travelRunning() {
		t.Fatalf("expected playback to stop")
	}
	if _, cmd := m.Update(travelFrameMsg{gen: gen}); cmd != nil {
		t.Fatalf("expected frames of the cancelled playback to be dropped")
	}
}

func TestRepeatQuoteKeepsTarget(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeQuote, TimeLimit: 60, WordLimit: 40}
	m, clock, saver := newTestModel(t, cfg, []string{"to", "be"})
	typeKeys(m, clock, "to be ")
	if len(saver.saved) != 1 || saver.saved[0].QuoteID == uuid.Nil {
		t.Fatalf("expected a saved quote result, got %+v", saver.saved)
	}
	want := session.TargetOf(m.sess.State())

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if _, ok := m.sess.State().(session.BeforeStart); !ok {
		t.Fatalf("expected a fresh attempt, got %T", m.sess.State())
	}
	if got := session.TargetOf(m.sess.State()); got.QuoteID != want.QuoteID {
		t.Fatalf("expected the same quote, got %v", got.QuoteID)
	}
}

func TestCycleModeAndLimit(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeTimed, TimeLimit: 15, WordLimit: 40}
	m, _, _ := newTestModel(t, cfg, []string{"a"})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.cfg.TimeLimit != 60 {
		t.Fatalf("expected time limit 60, got %d", m.cfg.TimeLimit)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.cfg.Mode != model.ModeWordLimit || m.sess.Config().Mode != model.ModeWordLimit {
		t.Fatalf("expected word limit mode, got %s", m.cfg.Mode)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.cfg.WordLimit != 200 {
		t.Fatalf("expected word limit 200, got %d", m.cfg.WordLimit)
	}
}

func TestUploadOutcomeUpdatesStatus(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeWordLimit, TimeLimit: 60, WordLimit: 10}
	m, clock, _ := newTestModel(t, cfg, []string{"a"})
	typeKeys(m, clock, "a ")
	id := m.lastResult.ID.String()

	m.Update(uploadedMsg{id: id})
	if m.status != "saved and synced" {
		t.Fatalf("unexpected status %q", m.status)
	}
	m.Update(uploadedMsg{id: id, err: remote.ErrUnauthorized})
	if m.status != "sync token rejected, sync disabled" {
		t.Fatalf("unexpected status %q", m.status)
	}
	m.Update(uploadedMsg{id: uuid.NewString(), err: errors.New("boom")})
	if m.status != "sync token rejected, sync disabled" {
		t.Fatalf("expected stale upload failure to keep status, got %q", m.status)
	}
}

func TestReplayModelStartsPlayback(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	cfg := model.TestConfig{Mode: model.ModeWordLimit, TimeLimit: 60, WordLimit: 10}
	live, liveClock, saver := newTestModel(t, cfg, []string{"a", "b"})
	typeKeys(live, liveClock, "a b ")
	res := saver.saved[0]

	m, err := NewReplayModel(Options{Config: cfg, Source: fixedSource{words: []string{"x"}}, Clock: clock}, res, session.Target{Words: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("replay model: %v", err)
	}
	if cmd := m.Init(); cmd == nil {
		t.Fatalf("expected playback to start on init")
	}
	if !m.travelRunning() {
		t.Fatalf("expected running playback")
	}
}

func TestRenderCurrentWord(t *testing.T) {
	out := renderCurrentWord("ab", "a", true)
	want := correctStyle.Render("a") + cursorStyle.Render("b")
	if out != want {
		t.Fatalf("expected correct prefix and cursor, got %q", out)
	}
	out = renderCurrentWord("ab", "xbz", false)
	want = incorrectStyle.Render("a") + correctStyle.Render("b") + incorrectStyle.Render("z")
	if out != want {
		t.Fatalf("expected mistyped and extra runes, got %q", out)
	}
}

func TestRenderFooterListsKeys(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeQuote, TimeLimit: 60, WordLimit: 40}
	m, clock, _ := newTestModel(t, cfg, []string{"a"})
	if out := m.renderFooter(); !strings.Contains(out, "tab new test") {
		t.Fatalf("expected typing keys, got %s", out)
	}
	typeKeys(m, clock, "a ")
	out := m.renderFooter()
	for _, want := range []string{"n new test", "r repeat quote", "t time travel"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestLocalSaveFailureSkipsUpload(t *testing.T) {
	cfg := model.TestConfig{Mode: model.ModeWordLimit, TimeLimit: 60, WordLimit: 10}
	m, clock, saver := newTestModel(t, cfg, []string{"a"})
	saver.err = errors.New("disk full")

	if cmd := typeKeys(m, clock, "a "); cmd != nil {
		t.Fatalf("expected no upload after a failed local save")
	}
	if m.status != "local save failed" {
		t.Fatalf("unexpected status %q", m.status)
	}
}
