package review

import (
	"reflect"
	"testing"
)

func TestMistakes(t *testing.T) {
	typed := []string{"the", "qiuck", "brown", "fx"}
	target := []string{"the", "quick", "brown", "fox"}
	got := Mistakes(typed, target, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 mistakes, got %d", len(got))
	}
	if got[0].Index != 1 || got[1].Index != 3 {
		t.Fatalf("unexpected indices %+v", got)
	}
	want := []Segment{{Kind: Match, Text: "f"}, {Kind: Missing, Text: "o"}, {Kind: Match, Text: "x"}}
	if !reflect.DeepEqual(got[1].Segments, want) {
		t.Fatalf("expected %+v, got %+v", want, got[1].Segments)
	}
}

func TestMistakesSegmentsRebuildBothWords(t *testing.T) {
	got := Mistakes([]string{"wrold"}, []string{"world"}, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 mistake, got %d", len(got))
	}
	var want, typed string
	for _, s := range got[0].Segments {
		if s.Kind != Extra {
			want += s.Text
		}
		if s.Kind != Missing {
			typed += s.Text
		}
	}
	if want != "world" || typed != "wrold" {
		t.Fatalf("segments do not rebuild words: %q %q", want, typed)
	}
}

func TestMistakesLimitAndOverflow(t *testing.T) {
	got := Mistakes([]string{"a", "b", "c"}, []string{"x"}, 2)
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
	if got[1].Target != "" || got[1].Segments[0].Kind != Extra {
		t.Fatalf("expected word past the target to be extra, got %+v", got[1])
	}
}
