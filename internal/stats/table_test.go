package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	cols := []column{{title: "Mode"}, {title: "WPM", numeric: true}, {title: "Accuracy", numeric: true}}
	rows := [][]string{
		{"quote", "97", "98.5%"},
		{"timed 15s", "8", "100%"},
	}

	lines := formatTable(cols, rows)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Mode      WPM Accuracy" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "quote      97    98.5%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "timed 15s   8     100%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]column{{title: "A"}}, [][]string{{"日本"}})
	if lines[0] != "A   " {
		t.Fatalf("expected header padded to two wide runes, got %q", lines[0])
	}
	if lines[1] != "日本" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
