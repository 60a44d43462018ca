// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/yetype/yetype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// ModeLabel describes the test settings, e.g. "timed 60s" or "words 40".
func ModeLabel(r model.Result) string {
	switch r.Mode {
	case model.ModeTimed:
		return fmt.Sprintf("timed %ds", r.TimeLimit)
	case model.ModeWordLimit:
		return fmt.Sprintf("words %d", r.WordLimit)
	}
	return string(r.Mode)
}

// FormatAccuracy prints an accuracy percentage without trailing zeros.
func FormatAccuracy(acc float64) string {
	return strconv.FormatFloat(acc, 'f', -1, 64) + "%"
}

// FormatSeconds prints seconds taken with at most two decimals.
func FormatSeconds(s float64) string {
	return strconv.FormatFloat(math.Round(s*100)/100, 'f', -1, 64) + "s"
}

// RenderSummary prints aggregate numbers and a WPM trend for tests.
func RenderSummary(w io.Writer, tests []model.Result, window int) error {
	if len(tests) == 0 {
		_, err := fmt.Fprintln(w, "No tests found.")
		return err
	}
	var totalWPM, totalAcc float64
	best := 0
	wpms := make([]float64, len(tests))
	for i, r := range tests {
		wpm := r.Score.WPM()
		wpms[i] = float64(wpm)
		totalWPM += float64(wpm)
		totalAcc += r.Score.Accuracy()
		best = max(best, wpm)
	}
	count := float64(len(tests))
	lines := []string{
		"Summary",
		fmt.Sprintf("Tests: %d", len(tests)),
		fmt.Sprintf("Avg WPM: %.2f", totalWPM/count),
		fmt.Sprintf("Best WPM: %d", best),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count),
		fmt.Sprintf("Trend: %s", Sparkline(MovingAverage(wpms, window))),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

var historyColumns = []column{
	{title: "ID"},
	{title: "Date"},
	{title: "Mode"},
	{title: "WPM", numeric: true},
	{title: "Accuracy", numeric: true},
	{title: "Time", numeric: true},
	{title: "Chars", numeric: true},
	{title: "Words", numeric: true},
}

// RenderHistory prints one row per test, newest last.
func RenderHistory(w io.Writer, tests []model.Result) error {
	if len(tests) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(tests))
	for _, r := range tests {
		s := r.Score
		rows = append(rows, []string{
			r.ID.String()[:8],
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			ModeLabel(r),
			strconv.Itoa(s.WPM()),
			FormatAccuracy(s.Accuracy()),
			FormatSeconds(s.SecondsTaken),
			fmt.Sprintf("%d/%d", s.CorrectChars, s.IncorrectChars),
			fmt.Sprintf("%d/%d", s.CorrectWords, s.IncorrectWords),
		})
	}
	for _, line := range formatTable(historyColumns, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
