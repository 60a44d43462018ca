package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/review"
	"github.com/yetype/yetype/internal/session"
	"github.com/yetype/yetype/internal/stats"
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	infoStyle        = currentWordStyle.Bold(true)
	cardStyle        = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch st := m.sess.State().(type) {
	case session.Ended:
		content = m.renderResult()
	case session.TimeTravel:
		if st.Finished {
			content = m.renderResult()
		} else {
			content = m.renderPlayback()
		}
	default:
		content = m.renderTyping()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderTyping() string {
	done := m.sess.DoneWords()
	info := infoStyle.Render(m.sess.DisplayInfo())
	text := m.renderWords(done, m.sess.Correct(), m.sess.Input(), true)
	return lipgloss.JoinVertical(lipgloss.Left, info, "", text)
}

func (m *Model) renderPlayback() string {
	info := infoStyle.Render(m.sess.DisplayInfoFor(len(m.frame.Done)) + "  replay")
	text := m.renderWords(m.frame.Done, m.frame.Correct, m.frame.Input, true)
	return lipgloss.JoinVertical(lipgloss.Left, info, "", text)
}

// renderWords draws the visible lines of the target list. Committed words
// are coloured by correctness, the current word per character.
func (m *Model) renderWords(done []string, correct []bool, input string, showCursor bool) string {
	words := m.words()
	first := 0
	var lines [][]string
	if m.width > 0 {
		first = m.window.First
		lines = m.wrap().Lines(words, first, session.VisibleLines)
	} else {
		lines = [][]string{words}
	}
	out := make([]string, 0, len(lines))
	idx := first
	for _, line := range lines {
		parts := make([]string, 0, len(line))
		for _, word := range line {
			switch {
			case idx < len(done):
				parts = append(parts, renderDoneWord(word, idx < len(correct) && correct[idx]))
			case idx == len(done):
				parts = append(parts, renderCurrentWord(word, input, showCursor))
			default:
				parts = append(parts, pendingStyle.Render(word))
			}
			idx++
		}
		out = append(out, strings.Join(parts, " "))
	}
	return strings.Join(out, "\n")
}

func renderDoneWord(word string, correct bool) string {
	if correct {
		return correctStyle.Render(word)
	}
	return incorrectStyle.Render(word)
}

// renderCurrentWord compares the typed prefix rune by rune. Runes typed past
// the end of the target are shown as extra, in the incorrect style.
func renderCurrentWord(target, typed string, showCursor bool) string {
	want := []rune(target)
	got := []rune(typed)
	var b strings.Builder
	for i, r := range want {
		switch {
		case i < len(got) && got[i] == r:
			b.WriteString(correctStyle.Render(string(r)))
		case i < len(got):
			b.WriteString(incorrectStyle.Render(string(r)))
		case i == len(got) && showCursor:
			b.WriteString(cursorStyle.Render(string(r)))
		default:
			b.WriteString(currentWordStyle.Render(string(r)))
		}
	}
	if len(got) > len(want) {
		b.WriteString(incorrectStyle.Render(string(got[len(want):])))
	}
	return b.String()
}

func (m *Model) renderResult() string {
	score, err := m.sess.Score()
	if err != nil {
		return incorrectStyle.Render(err.Error())
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("wpm", fmt.Sprintf("%d", score.WPM())),
		metricCard("accuracy", stats.FormatAccuracy(score.Accuracy())),
		metricCard("time", stats.FormatSeconds(score.SecondsTaken)),
		metricCard("chars", fmt.Sprintf("%d/%d", score.CorrectChars, score.IncorrectChars)),
		metricCard("words", fmt.Sprintf("%d/%d", score.CorrectWords, score.IncorrectWords)),
	)
	sections := []string{cardTitleStyle.Render(m.modeLabel()), cards}
	if len(m.mistakes) > 0 {
		sections = append(sections, "", renderMistakes(m.mistakes))
	}
	if m.status != "" {
		sections = append(sections, "", footerStyle.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func metricCard(title, value string) string {
	body := cardTitleStyle.Render(title) + "\n" + cardValueStyle.Render(value)
	return cardStyle.Render(body)
}

func renderMistakes(mistakes []review.Mistake) string {
	lines := []string{cardTitleStyle.Render("mistakes")}
	for _, mk := range mistakes {
		var typed strings.Builder
		for _, seg := range mk.Segments {
			switch seg.Kind {
			case review.Match:
				typed.WriteString(correctStyle.Render(seg.Text))
			case review.Missing:
				typed.WriteString(pendingStyle.Strikethrough(true).Render(seg.Text))
			case review.Extra:
				typed.WriteString(incorrectStyle.Render(seg.Text))
			}
		}
		lines = append(lines, fmt.Sprintf("%s  %s", pendingStyle.Render(mk.Target), typed.String()))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) modeLabel() string {
	cfg := m.sess.Config()
	return stats.ModeLabel(model.Result{Mode: cfg.Mode, TimeLimit: cfg.TimeLimit, WordLimit: cfg.WordLimit})
}

func (m *Model) renderFooter() string {
	var segments []string
	switch st := m.sess.State().(type) {
	case session.BeforeStart, session.InProgress:
		segments = []string{m.modeLabel(), "tab new test", "ctrl+n mode", "ctrl+l limit", "esc quit"}
	case session.TimeTravel:
		if !st.Finished {
			segments = []string{"replaying", "esc stop"}
			break
		}
		segments = m.resultKeys()
	default:
		segments = m.resultKeys()
	}
	return footerStyle.Render(strings.Join(segments, " · "))
}

func (m *Model) resultKeys() []string {
	keys := []string{"n new test"}
	if m.sess.Config().Mode == model.ModeQuote {
		keys = append(keys, "r repeat quote")
	}
	return append(keys, "t time travel", "q quit")
}
