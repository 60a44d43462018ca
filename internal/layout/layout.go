// Package layout wraps word lists into fixed-width terminal lines.
package layout

import "github.com/mattn/go-runewidth"

// Wrap greedily fills lines of at most Width cells, one space between words.
// A word wider than Width gets a line of its own.
type Wrap struct {
	Width int
}

// LineEnds returns the index of the last word on each line starting at
// words[first], for at most maxLines lines. When the words run out before
// maxLines lines are filled, the final entry is len(words)-1.
func (w Wrap) LineEnds(words []string, first, maxLines int) []int {
	var ends []int
	lineWidth := 0
	for i := first; i < len(words); i++ {
		ww := runewidth.StringWidth(words[i])
		if lineWidth > 0 && w.Width > 0 && lineWidth+1+ww > w.Width {
			ends = append(ends, i-1)
			if len(ends) == maxLines {
				return ends
			}
			lineWidth = 0
		}
		if lineWidth > 0 {
			lineWidth++
		}
		lineWidth += ww
	}
	if len(words) > first {
		ends = append(ends, len(words)-1)
	}
	return ends
}

// Lines splits words[first:] into at most maxLines lines using LineEnds.
func (w Wrap) Lines(words []string, first, maxLines int) [][]string {
	ends := w.LineEnds(words, first, maxLines)
	lines := make([][]string, 0, len(ends))
	start := first
	for _, end := range ends {
		lines = append(lines, words[start:end+1])
		start = end + 1
	}
	return lines
}
