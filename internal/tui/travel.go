package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yetype/yetype/internal/replay"
	"github.com/yetype/yetype/internal/session"
)

type travelFrameMsg struct{ gen int }

type travelDoneMsg struct{ gen int }

// startTimeTravel replays the ended attempt from its first record.
func (m *Model) startTimeTravel() tea.Cmd {
	if err := m.sess.EnterTimeTravel(); err != nil {
		m.logf("time travel: %v", err)
		return nil
	}
	st := m.sess.State().(session.TimeTravel)
	m.gen++
	m.player = replay.NewPlayer(st.Words, st.Log)
	m.frame = replay.Frame{}
	m.window.Reset()
	m.measure()
	return m.scheduleFrame()
}

func (m *Model) travelRunning() bool {
	st, ok := m.sess.State().(session.TimeTravel)
	return ok && !st.Finished
}

func (m *Model) cancelTimeTravel() {
	m.gen++
	m.sess.EndTimeTravel()
}

func (m *Model) scheduleFrame() tea.Cmd {
	gen := m.gen
	return tea.Tick(replay.DefaultFrameInterval, func(time.Time) tea.Msg { return travelFrameMsg{gen: gen} })
}

func (m *Model) onTravelFrame(msg travelFrameMsg) tea.Cmd {
	if msg.gen != m.gen || m.player == nil || !m.travelRunning() {
		return nil
	}
	st := m.sess.State().(session.TimeTravel)
	elapsed := m.opts.Clock.Now().Sub(st.StartedAt).Milliseconds()
	if frame, changed := m.player.Advance(elapsed); changed {
		grew := len(frame.Done) != len(m.frame.Done)
		m.frame = frame
		if grew {
			m.scroll(len(frame.Done))
		}
	}
	if m.player.Done() {
		gen := m.gen
		return tea.Tick(replay.DefaultGrace, func(time.Time) tea.Msg { return travelDoneMsg{gen: gen} })
	}
	return m.scheduleFrame()
}
