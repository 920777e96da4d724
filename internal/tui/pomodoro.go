package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/litera/internal/pomodoro"
	"github.com/sadopc/litera/internal/productivity"
)

type pomodoroModel struct {
	engine  *pomodoro.Engine
	tracker *productivity.Tracker
	now     func() time.Time
	width   int
	height  int
}

func newPomodoroModel(e *pomodoro.Engine, tr *productivity.Tracker, now func() time.Time) pomodoroModel {
	return pomodoroModel{engine: e, tracker: tr, now: now}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

// update forwards timer commands to the engine. The engine ticks on its own
// scheduler, so tickMsg needs no handling here beyond a re-render.
func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch {
	case key.Matches(km, keys.Start):
		if !p.engine.Snapshot().Running {
			p.engine.Start()
			return p, statusCmd("Timer started")
		}
	case key.Matches(km, keys.Pause):
		if p.engine.Snapshot().Running {
			p.engine.Pause()
			return p, statusCmd("Timer paused")
		}
		p.engine.Start()
		return p, statusCmd("Timer resumed")
	case key.Matches(km, keys.Reset):
		p.engine.Reset()
		return p, statusCmd("Timer reset")
	}
	return p, nil
}

func (p pomodoroModel) view() string {
	w := p.width - 4
	st := p.engine.Snapshot()

	title := titleStyle.Render("Pomodoro Timer")

	clock := pomodoro.FormatClock(st.TimeLeft)
	var timeDisplay, phaseLabel string
	style := accentStyle
	label := "WORK"
	if st.Current == pomodoro.Break {
		style = successStyle
		label = "BREAK"
	}

	switch {
	case st.Running:
		timeDisplay = style.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(clock)
		phaseLabel = style.Bold(true).Render(label)
	case st.Paused:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(clock)
		phaseLabel = warningStyle.Render(label + " (paused)")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(clock)
		phaseLabel = mutedStyle.Render(label + " · ready")
	}

	barWidth := min(40, max(10, w-20))
	progress := style.Render(bar(p.engine.Progress(), barWidth)) +
		mutedStyle.Render(fmt.Sprintf(" %3.0f%%", p.engine.Progress()*100))

	sessions, minutes := p.tracker.PomodoroStats().Today(p.now().Format(pomodoro.DayLayout))
	stats := fmt.Sprintf("Today: %s sessions  %s focus   ·   %s",
		highlightStyle.Render(fmt.Sprint(sessions)),
		highlightStyle.Render(formatMinutes(minutes)),
		mutedStyle.Render(fmt.Sprintf("%dm work / %dm break", st.WorkMinutes, st.BreakMinutes)),
	)

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		"",
		progress,
		"",
		stats,
	)

	var controls string
	switch {
	case st.Running:
		controls = mutedStyle.Render("space: pause  R: reset")
	case st.Paused:
		controls = mutedStyle.Render("space/s: resume  R: reset")
	default:
		controls = mutedStyle.Render("s: start  R: reset")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}
