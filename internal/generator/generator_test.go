package generator

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/model"
)

func TestWordsRespectsCount(t *testing.T) {
	g := NewWithSeed(1)
	words := g.Words([]string{"a", "bb", "ccc"}, 10, model.MaxCharacters)
	if len(words) != 10 {
		t.Fatalf("expected 10 words, got %d", len(words))
	}
}

func TestWordsStopsAtCharacterBudget(t *testing.T) {
	g := NewWithSeed(2)
	words := g.Words([]string{"abcd"}, 100, 14)
	// "abcd abcd abcd" is 14 characters; a fourth word would need 19.
	if len(words) != 3 {
		t.Fatalf("expected 3 words within budget, got %d", len(words))
	}
}

func TestWordsEmptyPool(t *testing.T) {
	if words := NewWithSeed(3).Words(nil, 5, 100); words != nil {
		t.Fatalf("expected nil for empty pool, got %v", words)
	}
}

func TestSourceByMode(t *testing.T) {
	q := model.Quote{ID: uuid.MustParse("0b6c2f3e-3c1d-4a55-9a1e-5f4d7c2b8e10"), Text: "to be or not"}
	src := Source{Gen: NewWithSeed(4), Pool: []string{"x", "y"}, Quotes: []model.Quote{q}}

	words, id := src.Words(model.TestConfig{Mode: model.ModeWordLimit, TimeLimit: 60, WordLimit: 10})
	if len(words) != 10 || id != uuid.Nil {
		t.Fatalf("unexpected word-limit list: %d words, id %s", len(words), id)
	}

	words, id = src.Words(model.TestConfig{Mode: model.ModeTimed, TimeLimit: 15, WordLimit: 10})
	if len(words) != model.MaxWords || id != uuid.Nil {
		t.Fatalf("expected %d timed words, got %d", model.MaxWords, len(words))
	}

	words, id = src.Words(model.TestConfig{Mode: model.ModeQuote, TimeLimit: 15, WordLimit: 10})
	if id != q.ID || len(words) != 4 || words[3] != "not" {
		t.Fatalf("unexpected quote list: %v %s", words, id)
	}
}
