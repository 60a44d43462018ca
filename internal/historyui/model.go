// Package historyui provides the Bubble Tea history browser.
package historyui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/yetype/yetype/internal/model"
	"github.com/yetype/yetype/internal/stats"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = activeNavStyle.
				Bold(false).
				Foreground(lipgloss.Color("#B0B0B0")).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle      = inactiveNavStyle.Foreground(lipgloss.NoColor{})
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	rowStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// windowSteps are the trend window sizes cycled with - and =.
var windowSteps = []int{1, 5, 10, 20, 50}

const defaultWindow = 5

// Config selects which tests are listed.
type Config struct {
	Filters []model.PastTestFilter
	Last    int
	Window  int // moving average window of the trend line
}

// Model lists past tests and lets the user pick one to play back.
type Model struct {
	lister stats.Lister
	cfg    Config

	report  stats.Report
	rows    []model.Result // table order, newest first
	loadErr string

	onSummary bool
	table     table.Model
	summary   viewport.Model
	form      filterForm

	width  int
	height int

	selected *model.Result
}

// NewModel loads the first report and returns the browser.
func NewModel(l stats.Lister, cfg Config) *Model {
	if len(cfg.Filters) == 0 {
		cfg.Filters = stats.AllModes()
	}
	if cfg.Window < 1 {
		cfg.Window = defaultWindow
	}
	m := &Model{
		lister:  l,
		cfg:     cfg,
		summary: viewport.New(0, 0),
		form:    newFilterForm(),
		table: table.New(
			table.WithColumns(testColumns),
			table.WithStyles(tableStyles()),
			table.WithFocused(true),
		),
	}
	m.reload()
	return m
}

// Selected returns the test chosen for playback, if any.
func (m *Model) Selected() (model.Result, bool) {
	if m.selected == nil {
		return model.Result{}, false
	}
	return *m.selected, true
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.form.open {
			changed, cmd := m.form.update(msg, &m.cfg)
			if changed {
				m.reload()
			}
			return m, cmd
		}
		return m.onKey(msg)
	}
	return m, nil
}

func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.onSummary = !m.onSummary
		if m.onSummary {
			m.table.Blur()
		} else {
			m.table.Focus()
		}
		return m, tea.ClearScreen
	case "=", "+":
		m.cfg.Window = stepWindow(m.cfg.Window, 1)
		m.renderSummary()
		return m, nil
	case "-":
		m.cfg.Window = stepWindow(m.cfg.Window, -1)
		m.renderSummary()
		return m, nil
	case "/":
		return m, m.form.show(m.cfg)
	case "enter":
		if m.onSummary {
			return m, nil
		}
		idx := m.table.Cursor()
		if idx < 0 || idx >= len(m.rows) {
			return m, nil
		}
		r := m.rows[idx]
		m.selected = &r
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.onSummary {
		switch msg.String() {
		case "g", "home":
			m.summary.GotoTop()
		case "G", "end":
			m.summary.GotoBottom()
		default:
			m.summary, cmd = m.summary.Update(msg)
		}
		return m, cmd
	}
	switch msg.String() {
	case "g", "home":
		m.table.GotoTop()
	case "G", "end":
		m.table.GotoBottom()
	default:
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(1, m.height-lipgloss.Height(header)-lipgloss.Height(footer))

	var body string
	switch {
	case m.form.open:
		body = m.form.view()
	case m.onSummary:
		body = m.summary.View()
	case len(m.rows) == 0:
		body = "No tests found."
	default:
		body = rowStyle.Render(m.table.View())
	}
	body = lipgloss.NewStyle().MaxWidth(m.width).Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	bodyHeight := max(1, m.height-lipgloss.Height(m.renderHeader())-lipgloss.Height(m.renderFooter()))
	m.summary.Width = m.width
	m.summary.Height = bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(1, bodyHeight-1))
	m.form.setWidth(m.width)
	m.renderSummary()
}

func (m *Model) reload() {
	report, err := stats.BuildReport(context.Background(), m.lister, m.cfg.Filters, m.cfg.Last)
	m.loadErr = ""
	if err != nil {
		m.loadErr = err.Error()
		report = stats.Report{}
	}
	m.report = report
	m.rows = newestFirst(report.Tests)
	m.table.SetRows(testRows(m.rows))
	m.table.GotoTop()
	m.resize()
	m.renderSummary()
}

func (m *Model) renderSummary() {
	if m.loadErr != "" {
		m.summary.SetContent("Failed to load tests.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.summary.SetContent(renderSummaryCards(m.report.Tests, m.cfg.Window, width))
}

func (m *Model) renderHeader() string {
	tests, summary := activeNavStyle, inactiveNavStyle
	if m.onSummary {
		tests, summary = summary, tests
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, tests.Render("Tests"), summary.Render("Summary"))

	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	line := fmt.Sprintf("Filters: %s  last=%s  window=%d", stats.FormatFilters(m.cfg.Filters), last, m.cfg.Window)
	if m.report.Skipped > 0 {
		line += fmt.Sprintf("  skipped=%d", m.report.Skipped)
	}
	if m.width > 0 {
		line = runewidth.Truncate(line, m.width, "...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabs, headerStyle.Render(line))
}

func (m *Model) renderFooter() string {
	if m.form.open {
		return headerStyle.Render("tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Replay: enter  Window: -/=  Filters: /  Quit: q")
	if m.loadErr != "" {
		return help + "\n" + errorStyle.Render(m.loadErr)
	}
	return help
}

func renderSummaryCards(tests []model.Result, window, width int) string {
	if len(tests) == 0 {
		return "No tests found."
	}
	var sumWPM, sumAcc float64
	best := 0
	wpms := make([]float64, len(tests))
	for i, r := range tests {
		wpm := r.Score.WPM()
		wpms[i] = float64(wpm)
		sumWPM += float64(wpm)
		sumAcc += r.Score.Accuracy()
		best = max(best, wpm)
	}
	n := float64(len(tests))
	cards := []string{
		metricCard("Tests", strconv.Itoa(len(tests))),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", sumWPM/n)),
		metricCard("Best WPM", strconv.Itoa(best)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", sumAcc/n)),
	}
	trend := cardTitleStyle.Render("Trend ") + stats.Sparkline(stats.MovingAverage(wpms, window))
	if width < 80 {
		return strings.Join(append(cards, trend), "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Top, cards...), "", trend)
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

var testColumns = []table.Column{
	{Title: "Date", Width: 16},
	{Title: "Mode", Width: 10},
	{Title: "WPM", Width: 5},
	{Title: "Accuracy", Width: 9},
	{Title: "Time", Width: 8},
	{Title: "Chars", Width: 9},
	{Title: "Words", Width: 9},
}

func testRows(tests []model.Result) []table.Row {
	rows := make([]table.Row, 0, len(tests))
	for _, r := range tests {
		s := r.Score
		rows = append(rows, table.Row{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			stats.ModeLabel(r),
			strconv.Itoa(s.WPM()),
			stats.FormatAccuracy(s.Accuracy()),
			stats.FormatSeconds(s.SecondsTaken),
			fmt.Sprintf("%d/%d", s.CorrectChars, s.IncorrectChars),
			fmt.Sprintf("%d/%d", s.CorrectWords, s.IncorrectWords),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1, 0, 0)
	s.Cell = s.Cell.Padding(0, 1, 0, 0)
	s.Selected = s.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	return s
}

// newestFirst reverses a report, which is kept oldest first for the trend.
func newestFirst(tests []model.Result) []model.Result {
	out := make([]model.Result, len(tests))
	for i, r := range tests {
		out[len(tests)-1-i] = r
	}
	return out
}

// stepWindow moves to the neighbouring entry of windowSteps. Values between
// steps snap to the nearest step in the direction of travel.
func stepWindow(cur, dir int) int {
	if dir > 0 {
		for _, s := range windowSteps {
			if s > cur {
				return s
			}
		}
		return windowSteps[len(windowSteps)-1]
	}
	for i := len(windowSteps) - 1; i >= 0; i-- {
		if windowSteps[i] < cur {
			return windowSteps[i]
		}
	}
	return windowSteps[0]
}
