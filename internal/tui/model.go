// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/config"
	"github.com/yetype/yetype/internal/layout"
	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/remote"
	"github.com/yetype/yetype/internal/replay"
	"github.com/yetype/yetype/internal/review"
	"github.com/yetype/yetype/internal/session"
)

const (
	timerInterval = 200 * time.Millisecond
	uploadTimeout = 15 * time.Second
	mistakeLimit  = 5
)

// Saver persists finished tests locally.
type Saver interface {
	InsertTest(ctx context.Context, r model.Result) (model.Result, error)
}

// Options wires the typing UI to its collaborators. Only Source is required.
type Options struct {
	Config     model.TestConfig
	ConfigPath string // settings changes are written here when set
	Source     session.WordSource
	Store      Saver
	Remote     *remote.Client
	Logger     *log.Logger
	Clock      session.Clock
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	opts  Options
	cfg   model.TestConfig
	sess  *session.Session
	input textinput.Model

	window session.Window
	width  int
	height int

	// gen tags scheduled ticks; bumping it drops every pending one.
	gen    int
	player *replay.Player
	frame  replay.Frame

	mistakes   []review.Mistake
	status     string
	lastResult *model.Result
}

type timerMsg struct{ gen int }

type uploadedMsg struct {
	id  string
	err error
}

// NewModel starts a fresh practice test.
func NewModel(opts Options) (*Model, error) {
	m := newModel(opts)
	sess, err := session.Start(m.cfg, opts.Source, opts.Clock)
	if err != nil {
		return nil, err
	}
	m.sess = sess
	return m, nil
}

// NewReplayModel opens a stored result in time travel. Practice continues
// from the result screen with the configured settings.
func NewReplayModel(opts Options, r model.Result, target session.Target) (*Model, error) {
	m := newModel(opts)
	sess, err := session.NewTimeTravel(session.ConfigFromResult(r), target, r.Log, r.Score, opts.Clock)
	if err != nil {
		return nil, err
	}
	m.sess = sess
	// Playback starts from a finished state so Init can rewind it.
	m.sess.EndTimeTravel()
	m.lastResult = &r
	return m, nil
}

func newModel(opts Options) *Model {
	if opts.Clock == nil {
		opts.Clock = session.SystemClock()
	}
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorHide)
	input.Focus()
	return &Model{opts: opts, cfg: opts.Config, input: input}
}

// Session exposes the underlying attempt.
func (m *Model) Session() *session.Session { return m.sess }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if st, ok := m.sess.State().(session.TimeTravel); ok && st.Finished {
		return m.startTimeTravel()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.window.Reset()
		m.measure()
		return m, nil
	case timerMsg:
		return m, m.onTimer(msg)
	case travelFrameMsg:
		return m, m.onTravelFrame(msg)
	case travelDoneMsg:
		if msg.gen == m.gen {
			m.sess.EndTimeTravel()
		}
		return m, nil
	case uploadedMsg:
		m.onUploaded(msg)
		return m, nil
	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		if m.travelRunning() {
			m.cancelTimeTravel()
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyTab:
		m.newTest()
		return m, nil
	case tea.KeyCtrlN:
		m.cycleMode()
		return m, nil
	case tea.KeyCtrlL:
		m.cycleLimit()
		return m, nil
	}

	switch m.sess.State().(type) {
	case session.BeforeStart, session.InProgress:
		return m, m.onTyping(msg)
	case session.Ended:
		return m, m.onResultKey(msg.String())
	case session.TimeTravel:
		if m.travelRunning() {
			return m, nil
		}
		return m, m.onResultKey(msg.String())
	}
	return m, nil
}

func (m *Model) onResultKey(key string) tea.Cmd {
	switch key {
	case "n", "enter":
		m.newTest()
	case "r":
		m.repeatTest()
	case "t":
		return m.startTimeTravel()
	case "q":
		return tea.Quit
	}
	return nil
}

func (m *Model) onTyping(msg tea.KeyMsg) tea.Cmd {
	_, wasWaiting := m.sess.State().(session.BeforeStart)
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	snapshot := m.input.Value()
	if snapshot == before {
		return cmd
	}
	upd, err := m.sess.Keystroke(snapshot)
	if err != nil {
		m.logf("keystroke: %v", err)
		return cmd
	}
	m.input.SetValue(m.sess.Input())
	m.input.CursorEnd()
	if upd.Committed > 0 {
		m.scroll(len(m.sess.DoneWords()))
	}
	if upd.Ended {
		return tea.Batch(cmd, m.onEnded())
	}
	if wasWaiting && m.cfg.Mode == model.ModeTimed {
		return tea.Batch(cmd, m.scheduleTimer())
	}
	return cmd
}

func (m *Model) scheduleTimer() tea.Cmd {
	gen := m.gen
	return tea.Tick(timerInterval, func(time.Time) tea.Msg { return timerMsg{gen: gen} })
}

func (m *Model) onTimer(msg timerMsg) tea.Cmd {
	if msg.gen != m.gen {
		return nil
	}
	if _, ok := m.sess.State().(session.InProgress); !ok {
		return nil
	}
	if m.sess.Tick() {
		return m.onEnded()
	}
	return m.scheduleTimer()
}

// onEnded records the result of an attempt that just finished.
func (m *Model) onEnded() tea.Cmd {
	m.input.Reset()
	m.mistakes = review.Mistakes(m.sess.DoneWords(), session.TargetOf(m.sess.State()).Words, mistakeLimit)
	res, ok, err := m.sess.Result()
	if err != nil {
		m.logf("build result: %v", err)
		m.status = "result not saved"
		return nil
	}
	if !ok {
		m.status = "nothing typed, not saved"
		return nil
	}
	if m.opts.Store != nil {
		saved, err := m.opts.Store.InsertTest(context.Background(), res)
		if err != nil {
			m.logf("save test: %v", err)
			m.status = "local save failed"
			return nil
		}
		res = saved
	}
	m.lastResult = &res
	m.status = "saved"
	return m.upload(res)
}

func (m *Model) upload(r model.Result) tea.Cmd {
	client := m.opts.Remote
	if !client.Enabled() {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()
		return uploadedMsg{id: r.ID.String(), err: client.Save(ctx, r)}
	}
}

func (m *Model) onUploaded(msg uploadedMsg) {
	current := m.lastResult != nil && m.lastResult.ID.String() == msg.id
	switch {
	case msg.err == nil:
		if current {
			m.status = "saved and synced"
		}
	case errors.Is(msg.err, remote.ErrUnauthorized):
		m.logf("sync %s: %v", msg.id, msg.err)
		m.status = "sync token rejected, sync disabled"
	default:
		m.logf("sync %s: %v", msg.id, msg.err)
		if current {
			m.status = "saved, sync failed"
		}
	}
}

func (m *Model) newTest() {
	words, quoteID := m.opts.Source.Words(m.cfg)
	m.restart(session.Target{Words: words, QuoteID: quoteID})
}

// repeatTest retypes the same quote. Random modes draw new words.
func (m *Model) repeatTest() {
	target := session.TargetOf(m.sess.State())
	if m.cfg.Mode != model.ModeQuote || target.QuoteID == uuid.Nil || m.sess.Config().Mode != model.ModeQuote {
		m.newTest()
		return
	}
	m.restart(target)
}

func (m *Model) restart(target session.Target) {
	m.gen++
	if err := m.sess.Restart(m.cfg, target); err != nil {
		m.logf("restart: %v", err)
		m.status = err.Error()
		return
	}
	m.input.Reset()
	m.player = nil
	m.frame = replay.Frame{}
	m.mistakes = nil
	m.status = ""
	m.window.Reset()
	m.measure()
}

func (m *Model) cycleMode() {
	m.cfg.Mode = nextMode(m.cfg.Mode)
	m.settingsChanged()
}

func (m *Model) cycleLimit() {
	switch m.cfg.Mode {
	case model.ModeTimed:
		m.cfg.TimeLimit = nextInt(model.ValidTimeLimits, m.cfg.TimeLimit)
	case model.ModeWordLimit:
		m.cfg.WordLimit = nextInt(model.ValidWordLimits, m.cfg.WordLimit)
	default:
		return
	}
	m.settingsChanged()
}

func (m *Model) settingsChanged() {
	if m.opts.ConfigPath != "" {
		if err := config.SaveTest(m.opts.ConfigPath, m.cfg); err != nil {
			m.logf("save settings: %v", err)
		}
	}
	m.newTest()
}

// words returns the target list being shown.
func (m *Model) words() []string {
	return session.TargetOf(m.sess.State()).Words
}

func (m *Model) contentWidth() int {
	w := int(float64(m.width) * 0.70)
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) wrap() layout.Wrap {
	return layout.Wrap{Width: m.contentWidth()}
}

func (m *Model) measure() {
	if m.width == 0 {
		return
	}
	m.window.Measure(m.wrap(), m.words(), m.currentIndex())
}

// scroll moves the visible lines once done words are committed.
func (m *Model) scroll(done int) {
	if m.width == 0 {
		return
	}
	if m.window.Ends() == nil {
		m.window.Measure(m.wrap(), m.words(), done)
	}
	if err := m.window.Advance(done, m.words()); err != nil {
		m.logf("scroll: %v", err)
	}
	m.window.Measure(m.wrap(), m.words(), done)
}

func (m *Model) currentIndex() int {
	if _, ok := m.sess.State().(session.TimeTravel); ok {
		return len(m.frame.Done)
	}
	return len(m.sess.DoneWords())
}

func (m *Model) logf(format string, args ...any) {
	if m.opts.Logger == nil {
		return
	}
	m.opts.Logger.Printf(format, args...)
}

func nextMode(cur model.Mode) model.Mode {
	for i, mode := range model.Modes {
		if mode == cur {
			return model.Modes[(i+1)%len(model.Modes)]
		}
	}
	return model.Modes[0]
}

func nextInt(values []int, cur int) int {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}
