// Package review lists the mistyped words of an attempt with character diffs.
package review

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind classifies a diff segment.
type Kind int

// Segment kinds.
const (
	Match   Kind = iota // typed as expected
	Missing             // expected but not typed
	Extra               // typed but not expected
)

// Segment is a run of characters of one kind.
type Segment struct {
	Kind Kind
	Text string
}

// Mistake is one committed word that differs from its target.
type Mistake struct {
	Index    int
	Target   string
	Typed    string
	Segments []Segment
}

// Mistakes compares typed words against target words and returns the
// mismatches in order, at most limit of them when limit > 0.
func Mistakes(typed, target []string, limit int) []Mistake {
	dmp := diffmatchpatch.New()
	var out []Mistake
	for i, word := range typed {
		want := ""
		if i < len(target) {
			want = target[i]
		}
		if word == want {
			continue
		}
		out = append(out, Mistake{
			Index:    i,
			Target:   want,
			Typed:    word,
			Segments: segments(dmp, want, word),
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func segments(dmp *diffmatchpatch.DiffMatchPatch, want, got string) []Segment {
	diffs := dmp.DiffMain(want, got, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	out := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		var kind Kind
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = Match
		case diffmatchpatch.DiffDelete:
			kind = Missing
		case diffmatchpatch.DiffInsert:
			kind = Extra
		}
		out = append(out, Segment{Kind: kind, Text: d.Text})
	}
	return out
}
