package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/yetype/yetype/internal/model"
)

// ErrNoScore is returned when the state carries no score.
var ErrNoScore = errors.New("score is only available after a test ends")

// Score returns the result summary. Ended derives it from the committed
// words; TimeTravel returns the summary captured when playback began.
func (s *Session) Score() (model.Score, error) {
	switch st := s.state.(type) {
	case Ended:
		score := Tally(s.done, st.Words)
		if s.cfg.Mode == model.ModeTimed {
			score.SecondsTaken = float64(s.cfg.TimeLimit)
		} else {
			score.SecondsTaken = st.EndedAt.Sub(st.StartedAt).Seconds()
		}
		return score, nil
	case TimeTravel:
		return st.Score, nil
	}
	return model.Score{}, ErrNoScore
}

// Tally counts characters and words of typed against target. Characters are
// counted from the target word plus one for the separator that committed it,
// so the tally never exceeds the length of the word list.
func Tally(typed, target []string) model.Score {
	var score model.Score
	for i, word := range typed {
		chars := 0
		if i < len(target) {
			chars = runeLen(target[i]) + 1
		}
		if i < len(target) && word == target[i] {
			score.CorrectChars += chars
			score.CorrectWords++
			continue
		}
		score.IncorrectChars += chars
		score.IncorrectWords++
	}
	return score
}

// DisplayInfo returns the progress label: seconds left for timed tests,
// "n/limit" otherwise.
func (s *Session) DisplayInfo() string {
	return s.DisplayInfoFor(len(s.done))
}

// DisplayInfoFor is DisplayInfo with an explicit committed word count, used
// while playback drives the word list.
func (s *Session) DisplayInfoFor(done int) string {
	return displayInfo(s.cfg, s.state, done, s.clock.Now())
}

func displayInfo(cfg model.TestConfig, state State, done int, now time.Time) string {
	switch cfg.Mode {
	case model.ModeTimed:
		switch st := state.(type) {
		case BeforeStart:
			return strconv.Itoa(cfg.TimeLimit)
		case InProgress:
			left := time.Duration(cfg.TimeLimit)*time.Second - now.Sub(st.StartedAt)
			return strconv.Itoa(int(math.Ceil(math.Max(0, left.Seconds()))))
		case Ended:
			return "0"
		case TimeTravel:
			if st.Finished {
				return "0"
			}
			left := time.Duration(cfg.TimeLimit)*time.Second - now.Sub(st.StartedAt)
			return strconv.Itoa(int(math.Ceil(math.Max(0, left.Seconds()))))
		}
		return ""
	case model.ModeWordLimit:
		return fmt.Sprintf("%d/%d", done, cfg.WordLimit)
	}
	return fmt.Sprintf("%d/%d", done, len(state.target().Words))
}
