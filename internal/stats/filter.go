package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yetype/yetype/internal/model"
)

// ParseFilters reads a comma separated list of mode[:limit] terms, e.g.
// "timed:60, words, quote". A quote term may carry a quote id instead of a
// limit. An empty input selects every mode.
func ParseFilters(input string) ([]model.PastTestFilter, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return AllModes(), nil
	}
	var out []model.PastTestFilter
	for _, term := range strings.Split(input, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		name, arg, _ := strings.Cut(term, ":")
		mode, err := model.ParseMode(name)
		if err != nil {
			return nil, err
		}
		f := model.PastTestFilter{Mode: mode}
		arg = strings.TrimSpace(arg)
		switch {
		case arg == "":
		case mode == model.ModeQuote:
			id, err := uuid.Parse(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid quote id %q", arg)
			}
			f.QuoteID = id
		default:
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid limit %q", arg)
			}
			f.Limit = n
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return AllModes(), nil
	}
	return out, nil
}

// AllModes matches every stored test.
func AllModes() []model.PastTestFilter {
	out := make([]model.PastTestFilter, len(model.Modes))
	for i, mode := range model.Modes {
		out[i] = model.PastTestFilter{Mode: mode}
	}
	return out
}

// FormatFilters is the inverse of ParseFilters.
func FormatFilters(filters []model.PastTestFilter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		name := string(f.Mode)
		if f.Mode == model.ModeWordLimit {
			name = "words"
		}
		switch {
		case f.QuoteID != uuid.Nil:
			name += ":" + f.QuoteID.String()
		case f.Limit > 0:
			name += ":" + strconv.Itoa(f.Limit)
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, ", ")
}
