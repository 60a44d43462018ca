package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yetype/yetype/internal/model"
)

func TestRenderSummary(t *testing.T) {
	tests := []model.Result{
		{Mode: model.ModeTimed, TimeLimit: 15, Score: model.Score{CorrectChars: 50, IncorrectChars: 0, SecondsTaken: 15}},
		{Mode: model.ModeQuote, Score: model.Score{CorrectChars: 90, IncorrectChars: 10, SecondsTaken: 20}},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, tests, 2); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Tests: 2", "Avg WPM: 47.00", "Best WPM: 54", "Avg Accuracy: 95.00%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q: %s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil, 5); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No tests found.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 5, 10}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6}, 2)
	want := []float64{2, 3, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestFormatters(t *testing.T) {
	r := model.Result{Mode: model.ModeWordLimit, WordLimit: 40}
	if got := ModeLabel(r); got != "words 40" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := FormatAccuracy(97.5); got != "97.5%" {
		t.Fatalf("unexpected accuracy %q", got)
	}
	if got := FormatSeconds(12.3456); got != "12.35s" {
		t.Fatalf("unexpected seconds %q", got)
	}
}
