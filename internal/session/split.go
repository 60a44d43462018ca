package session

import (
	"unicode"
	"unicode/utf8"
)

// SplitWords splits text on runs of whitespace. Unlike strings.Fields it keeps
// an empty leading token when text starts with whitespace and an empty
// trailing token when it ends with whitespace, so the last element is always
// the word still being typed.
func SplitWords(text string) []string {
	var out []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		switch {
		case space && !inSpace:
			out = append(out, text[start:i])
			inSpace = true
		case !space && inSpace:
			start = i
			inSpace = false
		}
	}
	if inSpace {
		return append(out, "")
	}
	return append(out, text[start:])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
