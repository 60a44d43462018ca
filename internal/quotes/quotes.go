// Package quotes provides the built-in quote catalog.
package quotes

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yetype/yetype/internal/model"
)

//go:embed quotes.yaml
var catalogYAML []byte

type yamlQuote struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// Catalog is a read-only set of quotes indexed by id.
type Catalog struct {
	quotes []model.Quote
	byID   map[uuid.UUID]model.Quote
}

// Builtin parses the embedded catalog.
func Builtin() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse reads a YAML list of {id, text} entries.
func Parse(data []byte) (*Catalog, error) {
	var raw []yamlQuote
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse quotes yaml: %w", err)
	}
	c := &Catalog{byID: make(map[uuid.UUID]model.Quote, len(raw))}
	for i, item := range raw {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, fmt.Errorf("quote %d: invalid id: %w", i, err)
		}
		text := strings.TrimSpace(item.Text)
		if text == "" {
			return nil, fmt.Errorf("quote %s: empty text", id)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("quote %s: duplicate id", id)
		}
		q := model.Quote{ID: id, Text: text}
		c.quotes = append(c.quotes, q)
		c.byID[id] = q
	}
	if len(c.quotes) == 0 {
		return nil, fmt.Errorf("quote catalog is empty")
	}
	return c, nil
}

// All returns the quotes in catalog order.
func (c *Catalog) All() []model.Quote {
	out := make([]model.Quote, len(c.quotes))
	copy(out, c.quotes)
	return out
}

// Get looks a quote up by id.
func (c *Catalog) Get(id uuid.UUID) (model.Quote, bool) {
	q, ok := c.byID[id]
	return q, ok
}
