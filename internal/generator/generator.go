// Package generator builds target word lists for typing tests.
package generator

import (
	"math/rand"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/model"
)

// Generator produces randomized word lists.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Words selects up to count words uniformly from pool. It stops early once
// the next word would push the total length (words plus one separator between
// each pair) past maxChars, so the result may be shorter than count.
func (g *Generator) Words(pool []string, count, maxChars int) []string {
	if len(pool) == 0 || count <= 0 {
		return nil
	}
	result := make([]string, 0, minInt(count, 256))
	chars := 0
	for len(result) < count {
		word := pool[g.rnd.Intn(len(pool))]
		next := chars + utf8.RuneCountInString(word)
		if len(result) > 0 {
			next++
		}
		if next > maxChars {
			break
		}
		result = append(result, word)
		chars = next
	}
	return result
}

// Quote selects a quote uniformly.
func (g *Generator) Quote(quotes []model.Quote) (model.Quote, bool) {
	if len(quotes) == 0 {
		return model.Quote{}, false
	}
	return quotes[g.rnd.Intn(len(quotes))], true
}

// Source builds word lists for each test mode.
type Source struct {
	Gen    *Generator
	Pool   []string
	Quotes []model.Quote
}

// Words returns the target list for cfg and, in quote mode, the quote id.
// Timed tests draw the largest list the character budget allows.
func (s Source) Words(cfg model.TestConfig) ([]string, uuid.UUID) {
	switch cfg.Mode {
	case model.ModeTimed:
		return s.Gen.Words(s.Pool, model.MaxWords, model.MaxCharacters), uuid.Nil
	case model.ModeWordLimit:
		return s.Gen.Words(s.Pool, cfg.WordLimit, model.MaxCharacters), uuid.Nil
	default:
		q, ok := s.Gen.Quote(s.Quotes)
		if !ok {
			return nil, uuid.Nil
		}
		return q.Words(), q.ID
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
