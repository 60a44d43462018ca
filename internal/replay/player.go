// Package replay reconstructs typed text from a recorded log for playback.
package replay

import (
	"github.com/yetype/yetype/internal/replaylog"
	"github.com/yetype/yetype/internal/session"
)

// Frame is the reconstructed view at one moment of playback.
type Frame struct {
	Text    string
	Done    []string
	Correct []bool
	Input   string
	Applied int // records applied so far
}

// Player applies a log in order. Playback only moves forward.
type Player struct {
	words []string
	log   replaylog.Log
	last  int
	text  string
}

// NewPlayer returns a player positioned before the first record.
func NewPlayer(words []string, log replaylog.Log) *Player {
	return &Player{words: words, log: log, last: -1}
}

// Advance applies every record due at elapsedMs. It reports false when no
// record became due.
func (p *Player) Advance(elapsedMs int64) (Frame, bool) {
	k := p.last
	for k+1 < len(p.log) && p.log[k+1].Elapsed <= elapsedMs {
		k++
	}
	if k == p.last {
		return p.Frame(), false
	}
	for i := p.last + 1; i <= k; i++ {
		p.text = p.log[i].Apply(p.text)
	}
	p.last = k
	return p.Frame(), true
}

// Frame returns the current reconstruction.
func (p *Player) Frame() Frame {
	f := Frame{Text: p.text, Applied: p.last + 1}
	if p.text == "" {
		return f
	}
	tokens := session.SplitWords(p.text)
	f.Done = tokens[:len(tokens)-1]
	f.Input = tokens[len(tokens)-1]
	f.Correct = session.Compare(f.Done, p.words)
	return f
}

// Done reports whether every record has been applied.
func (p *Player) Done() bool {
	return p.last == len(p.log)-1
}

// Next returns the elapsed time of the next pending record.
func (p *Player) Next() (int64, bool) {
	if p.Done() {
		return 0, false
	}
	return p.log[p.last+1].Elapsed, true
}
