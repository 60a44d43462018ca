// Package model defines shared data structures.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/replaylog"
)

// Limits shared by word generation and result validation.
const (
	MaxWords      = 2000
	MaxCharacters = 10000
)

// Mode selects how a test ends.
type Mode string

// Test modes.
const (
	ModeTimed     Mode = "timed"
	ModeWordLimit Mode = "wordLimit"
	ModeQuote     Mode = "quote"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeTimed, ModeWordLimit, ModeQuote}

// ValidTimeLimits are the selectable time limits in seconds.
var ValidTimeLimits = []int{15, 60, 120}

// ValidWordLimits are the selectable word limits.
var ValidWordLimits = []int{10, 40, 200}

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timed", "time":
		return ModeTimed, nil
	case "wordlimit", "words":
		return ModeWordLimit, nil
	case "quote":
		return ModeQuote, nil
	}
	return "", fmt.Errorf("unknown mode %q (want timed, words or quote)", s)
}

// TestConfig defines the active test settings. Both limits are always carried
// so switching modes keeps earlier choices.
type TestConfig struct {
	Mode      Mode
	TimeLimit int
	WordLimit int
}

// DefaultTestConfig returns the settings used when nothing is configured.
func DefaultTestConfig() TestConfig {
	return TestConfig{Mode: ModeQuote, TimeLimit: 60, WordLimit: 40}
}

// Validate checks the mode and both limits.
func (c TestConfig) Validate() error {
	switch c.Mode {
	case ModeTimed, ModeWordLimit, ModeQuote:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if !containsInt(ValidTimeLimits, c.TimeLimit) {
		return fmt.Errorf("time limit must be one of %v", ValidTimeLimits)
	}
	if !containsInt(ValidWordLimits, c.WordLimit) {
		return fmt.Errorf("word limit must be one of %v", ValidWordLimits)
	}
	return nil
}

// Quote is a fixed literary text.
type Quote struct {
	ID   uuid.UUID
	Text string
}

// Words splits the quote on whitespace.
func (q Quote) Words() []string {
	return strings.Fields(q.Text)
}

// Score holds the correctness counters of a finished attempt.
type Score struct {
	CorrectChars   int
	IncorrectChars int
	CorrectWords   int
	IncorrectWords int
	SecondsTaken   float64
}

// TotalChars returns correct plus incorrect characters.
func (s Score) TotalChars() int {
	return s.CorrectChars + s.IncorrectChars
}

// TotalWords returns correct plus incorrect words.
func (s Score) TotalWords() int {
	return s.CorrectWords + s.IncorrectWords
}

// WPM returns floor(correct characters * 12 / seconds), i.e. five characters
// per word. It is 0 when no time was taken.
func (s Score) WPM() int {
	if s.SecondsTaken <= 0 {
		return 0
	}
	return int(math.Floor(float64(s.CorrectChars) * 12 / s.SecondsTaken))
}

// Accuracy returns the share of correct characters as a percentage rounded to
// two decimals, or 0 when nothing was typed.
func (s Score) Accuracy() float64 {
	total := s.TotalChars()
	if total == 0 {
		return 0
	}
	return math.Round(float64(s.CorrectChars)/float64(total)*10000) / 100
}

// Result is a finished test handed to persistence.
type Result struct {
	ID        uuid.UUID
	Mode      Mode
	Words     string // full target word list joined by spaces, random modes only
	QuoteID   uuid.UUID
	TimeLimit int
	WordLimit int
	Score     Score
	Log       replaylog.Log
	CreatedAt time.Time
}

// Validate applies the bounds accepted for stored results.
func (r Result) Validate() error {
	s := r.Score
	switch {
	case s.CorrectChars < 0 || s.CorrectChars > MaxCharacters:
		return fmt.Errorf("correct characters out of range")
	case s.IncorrectChars < 0 || s.IncorrectChars > MaxCharacters:
		return fmt.Errorf("incorrect characters out of range")
	case s.CorrectWords < 0 || s.CorrectWords > MaxWords:
		return fmt.Errorf("correct words out of range")
	case s.IncorrectWords < 0 || s.IncorrectWords > MaxWords:
		return fmt.Errorf("incorrect words out of range")
	case s.SecondsTaken < 1 || s.SecondsTaken > replaylog.MaxTestSeconds:
		return fmt.Errorf("seconds taken out of range")
	}
	switch r.Mode {
	case ModeTimed:
		if r.TimeLimit < 1 || r.TimeLimit > replaylog.MaxTestSeconds {
			return fmt.Errorf("time limit out of range")
		}
		if err := validateWords(r.Words); err != nil {
			return err
		}
	case ModeWordLimit:
		if !IsValidWordLimit(r.WordLimit) {
			return fmt.Errorf("word limit out of range")
		}
		if err := validateWords(r.Words); err != nil {
			return err
		}
	case ModeQuote:
		if r.QuoteID == uuid.Nil {
			return fmt.Errorf("missing quote id")
		}
	default:
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
	return r.Log.Check()
}

func validateWords(words string) error {
	if len(words) < 1 || len(words) > MaxCharacters {
		return fmt.Errorf("words out of range")
	}
	return nil
}

// CursorDirection selects which side of the cursor time to page.
type CursorDirection string

// Cursor directions.
const (
	CursorBefore CursorDirection = "before"
	CursorAfter  CursorDirection = "after"
)

// Cursor pages past tests by creation time.
type Cursor struct {
	Direction CursorDirection
	Time      time.Time
}

// PastTestFilter includes tests of one mode. A zero Limit or Nil QuoteID
// matches any value within the mode.
type PastTestFilter struct {
	Mode    Mode
	Limit   int
	QuoteID uuid.UUID
}

// PastTestsQuery selects past tests matching any of the filters.
type PastTestsQuery struct {
	Cursor  *Cursor
	Filters []PastTestFilter
}

// PastTestsPage is one page of past tests, newest first.
type PastTestsPage struct {
	Tests   []Result
	HasMore bool
	Skipped int // rows dropped because their replay log was corrupt
}

// IsValidWordLimit reports whether n is a selectable word limit.
func IsValidWordLimit(n int) bool {
	return containsInt(ValidWordLimits, n)
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
