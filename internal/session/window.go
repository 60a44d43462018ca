package session

import "errors"

// VisibleLines is how many lines of the word list are shown at once.
const VisibleLines = 3

// ErrLayoutNotMeasured is returned by Window.Advance before Measure.
var ErrLayoutNotMeasured = errors.New("word layout has not been measured")

// Layout maps a word list onto display lines.
type Layout interface {
	// LineEnds returns the absolute index of the last word of each line,
	// starting with words[first], for at most maxLines lines.
	LineEnds(words []string, first, maxLines int) []int
}

// Window tracks which lines of the word list are visible. First is the index
// of the first visible word.
type Window struct {
	First int
	ends  []int
}

// Reset shows the word list from the top.
func (w *Window) Reset() {
	w.First = 0
	w.ends = nil
}

// Measure lays out the visible lines. When every visible line is full and
// the current word is past the first one, the current word becomes the first
// visible word.
func (w *Window) Measure(l Layout, words []string, current int) []int {
	if current < w.First {
		w.First = current
	}
	ends := l.LineEnds(words, w.First, VisibleLines)
	if len(ends) == VisibleLines && w.First != current && current > ends[0] {
		w.First = current
		ends = l.LineEnds(words, w.First, VisibleLines)
	}
	w.ends = ends
	return ends
}

// Ends returns the last measurement, or nil.
func (w *Window) Ends() []int { return w.ends }

// Advance scrolls the first visible line away once done moves past its end.
// Nothing scrolls when the last word is already visible. A scroll clears the
// measurement, which must be redone before the next Advance.
func (w *Window) Advance(done int, words []string) error {
	if w.ends == nil {
		return ErrLayoutNotMeasured
	}
	if len(w.ends) == 0 || w.ends[len(w.ends)-1] >= len(words)-1 {
		return nil
	}
	if done > w.ends[0] {
		w.First = w.ends[0] + 1
		w.ends = nil
	}
	return nil
}
