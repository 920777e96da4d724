package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/litera/internal/reminder"
)

// notices carries alerts from background goroutines, such as the Pomodoro
// ticker, into the Bubble Tea loop. push never blocks; when the buffer is
// full the alert is dropped.
type notices chan string

func newNotices() notices { return make(notices, 16) }

func (n notices) push(msg string) {
	select {
	case n <- msg:
	default:
	}
}

// wait returns a command that delivers the next alert.
func (n notices) wait() tea.Cmd {
	return func() tea.Msg { return noticeMsg(<-n) }
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

const reminderInterval = time.Minute

func reminderTickCmd() tea.Cmd {
	return tea.Tick(reminderInterval, func(time.Time) tea.Msg { return reminderCheckMsg{} })
}

// checkReminder runs one reminder check.
func checkReminder(c *reminder.Checker) tea.Cmd {
	return func() tea.Msg {
		msg, err := c.Check()
		if err != nil {
			return statusMsg{text: "Reminder: " + err.Error(), isError: true}
		}
		if msg == "" {
			return nil
		}
		return reminderMsg(msg)
	}
}
