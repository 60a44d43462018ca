package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/editdiff"
	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/replaylog"
)

var (
	// ErrNotAccepting is returned for keystrokes outside BeforeStart and InProgress.
	ErrNotAccepting = errors.New("session is not accepting input")
	// ErrNotInProgress is returned when finishing a session that never started.
	ErrNotInProgress = errors.New("session is not in progress")
	// ErrNotEnded is returned when a finished attempt is required.
	ErrNotEnded = errors.New("session has not ended")
	// ErrMissingQuoteID reports a quote-mode attempt without a quote reference.
	ErrMissingQuoteID = errors.New("quote test has no quote id")
	// ErrEmptyWordList is returned when a session would start without words.
	ErrEmptyWordList = errors.New("word list is empty")
)

// WordSource builds the target list for a new attempt.
type WordSource interface {
	Words(cfg model.TestConfig) ([]string, uuid.UUID)
}

// Update describes the effect of one keystroke.
type Update struct {
	Record    replaylog.Record
	Recorded  bool
	Committed int // words committed by this keystroke
	Ended     bool
}

// Session owns one attempt: its state, committed words, the text field echo
// and the live replay log.
type Session struct {
	cfg   model.TestConfig
	clock Clock
	state State

	done      []string
	input     string
	text      string
	committed int
	live      replaylog.Log
}

// Start builds a BeforeStart session from src.
func Start(cfg model.TestConfig, src WordSource, clock Clock) (*Session, error) {
	words, quoteID := src.Words(cfg)
	return New(cfg, Target{Words: words, QuoteID: quoteID}, clock)
}

// New returns a BeforeStart session for target.
func New(cfg model.TestConfig, target Target, clock Clock) (*Session, error) {
	if len(target.Words) == 0 {
		return nil, ErrEmptyWordList
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Session{cfg: cfg, clock: clock, state: BeforeStart{Target: target}}, nil
}

// NewTimeTravel rebuilds a finished attempt for playback. The log must pass
// validation; a corrupt log is rejected before any state is created.
func NewTimeTravel(cfg model.TestConfig, target Target, log replaylog.Log, score model.Score, clock Clock) (*Session, error) {
	if len(target.Words) == 0 {
		return nil, ErrEmptyWordList
	}
	if err := log.Check(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Session{
		cfg:   cfg,
		clock: clock,
		state: TimeTravel{Target: target, Log: log.Clone(), StartedAt: clock.Now(), Score: score},
	}, nil
}

// Restart discards all progress and installs a fresh BeforeStart.
func (s *Session) Restart(cfg model.TestConfig, target Target) error {
	fresh, err := New(cfg, target, s.clock)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Config returns the settings the session was started with.
func (s *Session) Config() model.TestConfig { return s.cfg }

// State returns the current state.
func (s *Session) State() State { return s.state }

// DoneWords returns the committed words typed so far.
func (s *Session) DoneWords() []string {
	out := make([]string, len(s.done))
	copy(out, s.done)
	return out
}

// Correct reports, per committed word, whether it matched its target.
func (s *Session) Correct() []bool {
	return Compare(s.done, s.state.target().Words)
}

// Input returns the word currently in the text field.
func (s *Session) Input() string { return s.input }

// Text returns everything typed so far, committed words included.
func (s *Session) Text() string { return s.text }

// Keystroke applies a new snapshot of the text field. The first keystroke
// starts the clock. The change since the previous snapshot is recorded in the
// live log, completed words are committed and the session ends once the
// mode's completion policy is met.
func (s *Session) Keystroke(snapshot string) (Update, error) {
	var ip InProgress
	switch st := s.state.(type) {
	case BeforeStart:
		ip = InProgress{Target: st.Target, StartedAt: s.clock.Now()}
		s.state = ip
	case InProgress:
		ip = st
	default:
		return Update{}, ErrNotAccepting
	}

	now := s.clock.Now()
	if s.isDone(ip, now) {
		s.finish(ip, now)
		return Update{Ended: true}, nil
	}

	snapshot = strings.TrimLeftFunc(snapshot, unicode.IsSpace)
	if snapshot == s.input {
		return Update{}, nil
	}
	elapsed := now.Sub(ip.StartedAt).Milliseconds()
	rec := replaylog.FromEdit(editdiff.Diff(s.input, snapshot), s.committed, elapsed)
	s.live = append(s.live, rec)
	s.text = rec.Apply(s.text)
	upd := Update{Record: rec, Recorded: true}

	tokens := SplitWords(snapshot)
	current := tokens[len(tokens)-1]
	for _, word := range tokens[:len(tokens)-1] {
		s.done = append(s.done, word)
		upd.Committed++
		if len(s.done) == len(ip.Words) {
			s.finish(ip, now)
			upd.Ended = true
			return upd, nil
		}
	}
	s.committed += runeLen(snapshot) - runeLen(current)
	s.input = current

	if s.isDone(ip, now) {
		s.finish(ip, now)
		upd.Ended = true
	}
	return upd, nil
}

// Tick re-evaluates the completion policy, ending a timed test whose limit
// has passed. It reports whether the session ended.
func (s *Session) Tick() bool {
	ip, ok := s.state.(InProgress)
	if !ok {
		return false
	}
	now := s.clock.Now()
	if !s.isDone(ip, now) {
		return false
	}
	s.finish(ip, now)
	return true
}

// Finish ends an in-progress attempt immediately.
func (s *Session) Finish() error {
	ip, ok := s.state.(InProgress)
	if !ok {
		return ErrNotInProgress
	}
	s.finish(ip, s.clock.Now())
	return nil
}

func (s *Session) finish(ip InProgress, now time.Time) {
	s.state = Ended{Target: ip.Target, Log: s.live, StartedAt: ip.StartedAt, EndedAt: now}
	s.live = nil
	s.input = ""
}

func (s *Session) isDone(ip InProgress, now time.Time) bool {
	if len(s.done) >= len(ip.Words) {
		return true
	}
	switch s.cfg.Mode {
	case model.ModeTimed:
		return !now.Before(ip.StartedAt.Add(time.Duration(s.cfg.TimeLimit) * time.Second))
	case model.ModeWordLimit:
		return len(s.done) >= s.cfg.WordLimit
	}
	return false
}

// EnterTimeTravel starts playback of an ended attempt, or restarts a
// finished playback. The score shown during playback is frozen here.
func (s *Session) EnterTimeTravel() error {
	now := s.clock.Now()
	switch st := s.state.(type) {
	case Ended:
		score, err := s.Score()
		if err != nil {
			return err
		}
		s.state = TimeTravel{Target: st.Target, Log: st.Log, StartedAt: now, Score: score}
	case TimeTravel:
		if !st.Finished {
			return fmt.Errorf("time travel already running: %w", ErrNotEnded)
		}
		st.Finished = false
		st.StartedAt = now
		s.state = st
	default:
		return ErrNotEnded
	}
	s.done = nil
	s.input = ""
	return nil
}

// EndTimeTravel moves a running playback to its terminal state. It is used
// both when playback completes and when it is cancelled.
func (s *Session) EndTimeTravel() bool {
	st, ok := s.state.(TimeTravel)
	if !ok || st.Finished {
		return false
	}
	st.Finished = true
	s.state = st
	return true
}

// Result builds the persistence payload of an ended attempt. It reports
// false when no word was committed, in which case nothing should be saved.
func (s *Session) Result() (model.Result, bool, error) {
	st, ok := s.state.(Ended)
	if !ok {
		return model.Result{}, false, ErrNotEnded
	}
	if len(s.done) == 0 {
		return model.Result{}, false, nil
	}
	score, err := s.Score()
	if err != nil {
		return model.Result{}, false, err
	}
	r := model.Result{
		Mode:      s.cfg.Mode,
		TimeLimit: s.cfg.TimeLimit,
		WordLimit: s.cfg.WordLimit,
		Score:     score,
		Log:       st.Log,
		CreatedAt: st.EndedAt,
	}
	if s.cfg.Mode == model.ModeQuote {
		if st.QuoteID == uuid.Nil {
			return model.Result{}, false, ErrMissingQuoteID
		}
		r.QuoteID = st.QuoteID
	} else {
		r.Words = strings.Join(st.Words, " ")
	}
	return r, true, nil
}

// Compare reports, per typed word, whether it equals the target word at the
// same position.
func Compare(typed, target []string) []bool {
	out := make([]bool, len(typed))
	for i, w := range typed {
		out[i] = i < len(target) && w == target[i]
	}
	return out
}
