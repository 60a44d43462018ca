// Package editdiff computes the single contiguous edit between two input snapshots.
package editdiff

// Edit replaces the rune range [Start, End) of a text with Insert.
type Edit struct {
	Start  int
	End    int
	Insert string
}

// Diff returns the edit that turns before into after. It assumes the two
// snapshots differ by one contiguous change (typing, deleting or pasting at a
// single cursor position). Indices count runes.
//
// The common prefix is matched first and the common suffix second, so for
// repeated characters ("200" -> "20") the edit lands as far right as the
// prefix allows.
func Diff(before, after string) Edit {
	if before == "" {
		return Edit{Insert: after}
	}
	b := []rune(before)
	a := []rune(after)

	prefix := -1
	for i := range b {
		if i >= len(a) {
			return Edit{Start: len(a), End: len(b)}
		}
		if b[i] != a[i] {
			prefix = i
			break
		}
	}
	if prefix == -1 {
		return Edit{Start: len(b), End: len(b), Insert: string(a[len(b):])}
	}

	suffix := -1
	for i := range b {
		if i >= len(a) {
			return Edit{Start: 0, End: len(b) - len(a)}
		}
		if b[len(b)-i-1] != a[len(a)-i-1] {
			suffix = i
			break
		}
	}
	if suffix == -1 {
		return Edit{Insert: string(a[:len(a)-len(b)])}
	}

	switch {
	case len(b) > len(a) && prefix+suffix > len(a):
		// Prefix and suffix overlap inside after: pure deletion.
		return Edit{Start: prefix, End: prefix + len(b) - len(a)}
	case len(a) > len(b) && prefix+suffix > len(b):
		// Prefix and suffix overlap inside before: pure insertion.
		return Edit{Start: prefix, End: prefix, Insert: string(a[prefix : prefix+len(a)-len(b)])}
	}
	return Edit{
		Start:  prefix,
		End:    len(b) - suffix,
		Insert: string(a[prefix : len(a)-suffix]),
	}
}

// Apply replaces text[e.Start:e.End] (in runes) with e.Insert.
func Apply(text string, e Edit) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes)-(e.End-e.Start)+len(e.Insert))
	out = append(out, runes[:e.Start]...)
	out = append(out, []rune(e.Insert)...)
	out = append(out, runes[e.End:]...)
	return string(out)
}
