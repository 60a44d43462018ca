package historyui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yetype/yetype/internal/stats"
)

const (
	fieldModes = iota
	fieldLast
)

// filterForm edits the filters and the last-N limit in place of the body.
type filterForm struct {
	open   bool
	inputs [2]textinput.Model
	focus  int
	err    string
}

func newFilterForm() filterForm {
	var f filterForm
	for i, prompt := range []string{"Modes: ", "Last: "} {
		in := textinput.New()
		in.Prompt = prompt
		in.Cursor.SetMode(cursor.CursorBlink)
		f.inputs[i] = in
	}
	f.inputs[fieldModes].Placeholder = "timed:60, words, quote"
	f.inputs[fieldLast].Placeholder = "all"
	return f
}

// show opens the form prefilled with cfg.
func (f *filterForm) show(cfg Config) tea.Cmd {
	f.open = true
	f.err = ""
	f.inputs[fieldModes].SetValue(stats.FormatFilters(cfg.Filters))
	last := ""
	if cfg.Last > 0 {
		last = strconv.Itoa(cfg.Last)
	}
	f.inputs[fieldLast].SetValue(last)
	return f.focusField(fieldModes)
}

func (f *filterForm) hide() {
	f.open = false
	f.err = ""
}

func (f *filterForm) focusField(idx int) tea.Cmd {
	f.focus = (idx + len(f.inputs)) % len(f.inputs)
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

func (f *filterForm) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(10, width-len(f.inputs[i].Prompt)-2)
	}
}

// update handles a key while the form is open. It reports whether cfg
// changed and the list must be reloaded.
func (f *filterForm) update(msg tea.KeyMsg, cfg *Config) (bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.hide()
		return false, nil
	case tea.KeyEnter:
		next, err := f.parse(*cfg)
		if err != nil {
			f.err = err.Error()
			return false, nil
		}
		*cfg = next
		f.hide()
		return true, nil
	case tea.KeyTab, tea.KeyDown:
		return false, f.focusField(f.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return false, f.focusField(f.focus - 1)
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return false, cmd
}

func (f *filterForm) parse(cfg Config) (Config, error) {
	filters, err := stats.ParseFilters(f.inputs[fieldModes].Value())
	if err != nil {
		return cfg, err
	}
	last := 0
	if raw := strings.TrimSpace(f.inputs[fieldLast].Value()); raw != "" && raw != "all" {
		last, err = strconv.Atoi(raw)
		if err != nil || last < 0 {
			return cfg, fmt.Errorf("last must be a number of tests, or empty for all")
		}
	}
	cfg.Filters = filters
	cfg.Last = last
	return cfg, nil
}

func (f *filterForm) view() string {
	lines := []string{headerStyle.Render("Filter past tests")}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, "", errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}
