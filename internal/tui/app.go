package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/litera/internal/export"
	"github.com/sadopc/litera/internal/library"
	"github.com/sadopc/litera/internal/pomodoro"
	"github.com/sadopc/litera/internal/productivity"
	"github.com/sadopc/litera/internal/reminder"
	"github.com/sadopc/litera/internal/store"
)

// Services are the dependencies the UI runs against.
type Services struct {
	Store     *store.Store
	Tracker   *productivity.Tracker
	Library   *library.Service
	Reminder  *reminder.Checker
	Scheduler pomodoro.Scheduler
	Logger    *zap.Logger
	ExportDir string
	// Now defaults to time.Now.
	Now func() time.Time
}

type exportFormat int

const (
	exportBooksJSON exportFormat = iota
	exportBooksCSV
	exportExpensesCSV
)

var exportFormats = []string{"Books (JSON)", "Books (CSV)", "Expenses (CSV)"}

// App is the root Bubble Tea model.
type App struct {
	svc     Services
	engine  *pomodoro.Engine
	notices notices
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	dashboard dashboardModel
	budget    budgetModel
	tasks     tasksModel
	pomodoro  pomodoroModel
	library   libraryModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(svc Services) App {
	if svc.Now == nil {
		svc.Now = time.Now
	}
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}
	if svc.Scheduler == nil {
		svc.Scheduler = pomodoro.TickerScheduler{}
	}

	applyTheme(svc.Store.GetSettingOr(store.SettingTheme, themeLight))

	n := newNotices()
	engine := pomodoro.New(
		settingInt(svc.Store, store.SettingPomodoroWork, 25),
		settingInt(svc.Store, store.SettingPomodoroBreak, 5),
		svc.Scheduler,
		svc.Tracker,
		pomodoro.WithClock(svc.Now),
		pomodoro.WithNotifier(svc.Tracker.PomodoroNotifier(n.push)),
		pomodoro.WithLogger(svc.Logger),
	)

	h := help.New()
	h.ShowAll = false

	return App{
		svc:        svc,
		engine:     engine,
		notices:    n,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(svc.Tracker, svc.Library, svc.Now),
		budget:     newBudgetModel(svc.Tracker, svc.Now),
		tasks:      newTasksModel(svc.Tracker, svc.Now),
		pomodoro:   newPomodoroModel(engine, svc.Tracker, svc.Now),
		library:    newLibraryModel(svc.Library, svc.Now, svc.ExportDir),
		settings:   newSettingsModel(svc.Store, engine, svc.Tracker),
		help:       h,
	}
}

func settingInt(s *store.Store, key string, fallback int) int {
	n, err := strconv.Atoi(s.GetSettingOr(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// Engine returns the Pomodoro engine driven by the UI.
func (a App) Engine() *pomodoro.Engine { return a.engine }

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.dashboard.Init(),
		tickCmd(),
		a.notices.wait(),
	}
	if a.svc.Reminder != nil {
		cmds = append(cmds, checkReminder(a.svc.Reminder), reminderTickCmd())
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.budget.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.pomodoro.setSize(a.width, contentHeight)
		a.library.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.engine.Pause()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewBudget)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewTasks)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewPomodoro)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewLibrary)
		case key.Matches(msg, keys.Tab6):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		// The engine ticks on its own scheduler; this only keeps the clock
		// on screen current.
		return a, tickCmd()

	case noticeMsg:
		a.status = "🔔 " + string(msg) + " \a"
		a.statusError = false
		return a, tea.Batch(a.notices.wait(), a.refreshAll())

	case reminderCheckMsg:
		return a, tea.Batch(checkReminder(a.svc.Reminder), reminderTickCmd())

	case reminderMsg:
		a.status = "📚 " + string(msg) + " \a"
		a.statusError = false
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case dataChangedMsg:
		return a, a.refreshAll()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	case dashboardDataMsg:
		a.dashboard, _ = a.dashboard.update(msg)
		return a, nil
	case budgetDataMsg:
		a.budget, _ = a.budget.update(msg)
		return a, nil
	case tasksDataMsg:
		a.tasks, _ = a.tasks.update(msg)
		return a, nil
	case libraryDataMsg:
		var cmd tea.Cmd
		a.library, cmd = a.library.update(msg)
		return a, cmd
	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewBudget:
		a.budget, cmd = a.budget.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewPomodoro:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewLibrary:
		a.library, cmd = a.library.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewBudget:
		return a.budget.formActive
	case viewTasks:
		return a.tasks.formActive
	case viewLibrary:
		return a.library.inputActive()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewBudget:
		return a.budget.refresh()
	case viewTasks:
		return a.tasks.refresh()
	case viewLibrary:
		return a.library.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

// refreshAll reloads every view that caches data.
func (a App) refreshAll() tea.Cmd {
	return tea.Batch(
		a.dashboard.loadData(),
		a.budget.refresh(),
		a.tasks.refresh(),
		a.library.refresh(),
	)
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewBudget:
		content = a.budget.view()
	case viewTasks:
		content = a.tasks.view()
	case viewPomodoro:
		content = a.pomodoro.view()
	case viewLibrary:
		content = a.library.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("litera")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if st := a.engine.Snapshot(); st.Running || st.Paused {
		clock := pomodoro.FormatClock(st.TimeLeft)
		timerInfo = successStyle.Render(fmt.Sprintf(" ● %s %s", st.Current, clock))
		if st.Paused {
			timerInfo = warningStyle.Render(fmt.Sprintf(" ⏸ %s %s", st.Current, clock))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  to "+a.svc.ExportDir))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormat(a.exportCursor))
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format exportFormat) tea.Cmd {
	return func() tea.Msg {
		if err := os.MkdirAll(a.svc.ExportDir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		var path string
		switch format {
		case exportBooksJSON, exportBooksCSV:
			books, err := a.svc.Library.Export()
			if errors.Is(err, library.ErrEmptyLibrary) {
				return statusMsg{text: "No books to export", isError: true}
			}
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			if format == exportBooksJSON {
				path = filepath.Join(a.svc.ExportDir, export.DefaultBooksFile)
				err = export.BooksToJSON(books, path)
			} else {
				path = filepath.Join(a.svc.ExportDir, "my_library.csv")
				err = export.BooksToCSV(books, path)
			}
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
		case exportExpensesCSV:
			dateStr := a.svc.Now().Format("2006-01-02")
			path = filepath.Join(a.svc.ExportDir, fmt.Sprintf("litera-expenses-%s.csv", dateStr))
			if err := export.ExpensesToCSV(a.svc.Tracker.RecentExpenses(0), path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		}

		a.svc.Logger.Info("exported", zap.String("path", path))
		return exportDoneMsg{path: path}
	}
}
