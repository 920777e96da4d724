package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/litera/internal/library"
	"github.com/sadopc/litera/internal/productivity"
)

type dashboardModel struct {
	tracker *productivity.Tracker
	library *library.Service
	now     func() time.Time
	width   int
	height  int

	summary    productivity.Dashboard
	activities []productivity.Activity
	books      library.Stats
	err        error
}

func newDashboardModel(tr *productivity.Tracker, lib *library.Service, now func() time.Time) dashboardModel {
	return dashboardModel{tracker: tr, library: lib, now: now}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	summary    productivity.Dashboard
	activities []productivity.Activity
	books      library.Stats
	err        error
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		msg := dashboardDataMsg{
			summary:    d.tracker.Dashboard(d.now()),
			activities: d.tracker.Activities(),
		}
		res, err := d.library.View(library.Params{Filter: library.FilterAll})
		if err != nil {
			msg.err = err
		}
		msg.books = res.Stats
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.summary = msg.summary
		d.activities = msg.activities
		d.books = msg.books
		d.err = msg.err
		return d, nil
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderOverview(w),
		d.renderActivity(w),
	)
}

func (d dashboardModel) renderOverview(w int) string {
	s := d.summary
	cards := []struct{ label, value string }{
		{"Spent this month", formatMoney(s.MonthlyExpenses)},
		{"Balance", formatMoney(s.Balance)},
		{"Pending assignments", fmt.Sprintf("%d (%d overdue)", s.PendingAssignments, s.OverdueAssignments)},
		{"Tasks done", fmt.Sprintf("%d / %d", s.CompletedTodos, s.TotalTodos)},
		{"Pomodoros today", fmt.Sprintf("%d (%s)", s.PomodoroSessions, formatMinutes(s.StudyMinutes))},
		{"Books", fmt.Sprintf("%d (%d read-days)", d.books.Total, d.books.TotalReadDays)},
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Overview"))
	for _, c := range cards {
		label := mutedStyle.Width(22).Render(c.label)
		value := highlightStyle.Render(c.value)
		if c.label == "Balance" && s.Balance < 0 {
			value = errorStyle.Render(c.value)
		}
		rows = append(rows, "  "+label+value)
	}
	if d.err != nil {
		rows = append(rows, "", errorStyle.Render("  Library unavailable: "+d.err.Error()))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderActivity(w int) string {
	title := titleStyle.Render("Recent Activity")
	if len(d.activities) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No activity yet"),
		))
	}

	now := d.now()
	rows := []string{title}
	for _, a := range d.activities {
		icon := activityIcon(a.Kind)
		when := mutedStyle.Width(10).Render(timeAgo(a.At, now))
		rows = append(rows, fmt.Sprintf("  %s %s %s", icon, when, truncate(a.Message, w-20)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func activityIcon(k productivity.ActivityKind) string {
	switch k {
	case productivity.ActivityExpense:
		return warningStyle.Render("$")
	case productivity.ActivityAssignment:
		return highlightStyle.Render("◆")
	case productivity.ActivityTodo:
		return successStyle.Render("✓")
	case productivity.ActivityPomodoro:
		return accentStyle.Render("●")
	}
	return "·"
}
