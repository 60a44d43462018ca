// Package session implements the lifecycle of a single typing test attempt.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/replaylog"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Target is the fixed word list of an attempt. QuoteID is uuid.Nil for
// random word lists.
type Target struct {
	Words   []string
	QuoteID uuid.UUID
}

// State is one of BeforeStart, InProgress, Ended or TimeTravel.
type State interface {
	target() Target
}

// BeforeStart waits for the first keystroke.
type BeforeStart struct {
	Target
}

// InProgress is a live attempt.
type InProgress struct {
	Target
	StartedAt time.Time
}

// Ended is a finished attempt with its frozen replay log.
type Ended struct {
	Target
	Log       replaylog.Log
	StartedAt time.Time
	EndedAt   time.Time
}

// TimeTravel plays back an ended attempt on its own clock. Score is the
// summary captured when playback began; Finished is terminal.
type TimeTravel struct {
	Target
	Log       replaylog.Log
	StartedAt time.Time
	Finished  bool
	Score     model.Score
}

func (s BeforeStart) target() Target { return s.Target }
func (s InProgress) target() Target  { return s.Target }
func (s Ended) target() Target       { return s.Target }
func (s TimeTravel) target() Target  { return s.Target }

// TargetOf returns the word list of any state.
func TargetOf(s State) Target {
	return s.target()
}

// QuoteLookup resolves a quote id to its text.
type QuoteLookup interface {
	Get(id uuid.UUID) (model.Quote, bool)
}

// TargetFromResult rebuilds the word list a stored result was typed against.
func TargetFromResult(r model.Result, quotes QuoteLookup) (Target, error) {
	if r.Mode == model.ModeQuote {
		if quotes == nil {
			return Target{}, fmt.Errorf("quote %s: no catalog", r.QuoteID)
		}
		q, ok := quotes.Get(r.QuoteID)
		if !ok {
			return Target{}, fmt.Errorf("quote %s: not in catalog", r.QuoteID)
		}
		return Target{Words: q.Words(), QuoteID: q.ID}, nil
	}
	words := strings.Fields(r.Words)
	if len(words) == 0 {
		return Target{}, ErrEmptyWordList
	}
	return Target{Words: words}, nil
}

// ConfigFromResult returns the settings a stored result was taken with.
func ConfigFromResult(r model.Result) model.TestConfig {
	return model.TestConfig{Mode: r.Mode, TimeLimit: r.TimeLimit, WordLimit: r.WordLimit}
}
