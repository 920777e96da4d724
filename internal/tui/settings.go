package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/litera/internal/pomodoro"
	"github.com/sadopc/litera/internal/productivity"
	"github.com/sadopc/litera/internal/reminder"
	"github.com/sadopc/litera/internal/store"
)

type settingsModel struct {
	store   *store.Store
	engine  *pomodoro.Engine
	tracker *productivity.Tracker
	width   int
	height  int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	pomodoroWork  *string
	pomodoroBreak *string
	reminderTime  *string
	theme         *string
	budget        *string
}

func newSettingsModel(s *store.Store, e *pomodoro.Engine, tr *productivity.Tracker) settingsModel {
	pw, pb, rt, th, bg := "", "", "", "", ""
	return settingsModel{
		store:         s,
		engine:        e,
		tracker:       tr,
		pomodoroWork:  &pw,
		pomodoroBreak: &pb,
		reminderTime:  &rt,
		theme:         &th,
		budget:        &bg,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func validateMinutes(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return errors.New("enter a whole number of minutes")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	st := s.engine.Snapshot()
	*s.pomodoroWork = strconv.Itoa(st.WorkMinutes)
	*s.pomodoroBreak = strconv.Itoa(st.BreakMinutes)
	*s.reminderTime = s.store.GetSettingOr(store.SettingReminderTime, reminder.DefaultTime)
	*s.theme = s.store.GetSettingOr(store.SettingTheme, themeLight)
	*s.budget = strconv.FormatFloat(s.tracker.Data().Budget, 'f', -1, 64)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Work session (min)").Value(s.pomodoroWork).Validate(validateMinutes),
			huh.NewInput().Title("Break (min)").Value(s.pomodoroBreak).Validate(validateMinutes),
		).Title("Pomodoro"),
		huh.NewGroup(
			huh.NewInput().Title("Daily reading reminder (HH:MM)").Value(s.reminderTime).Validate(func(v string) error {
				_, _, err := reminder.ParseTime(strings.TrimSpace(v))
				return err
			}),
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Light", themeLight),
					huh.NewOption("Dark", themeDark),
				).Value(s.theme),
			huh.NewInput().Title("Monthly budget").Value(s.budget).Validate(validateAmount),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, tea.Batch(errorCmd(err), s.refresh())
		}
		return s, tea.Batch(
			statusCmd("Settings saved"),
			s.refresh(),
			func() tea.Msg { return dataChangedMsg{} },
		)
	}

	return s, cmd
}

// saveSettings persists the form and applies it to the running engine,
// the tracker and the styles.
func (s settingsModel) saveSettings() error {
	work, _ := strconv.Atoi(strings.TrimSpace(*s.pomodoroWork))
	brk, _ := strconv.Atoi(strings.TrimSpace(*s.pomodoroBreak))
	budget, _ := strconv.ParseFloat(strings.TrimSpace(*s.budget), 64)

	values := []store.Setting{
		{Key: store.SettingPomodoroWork, Value: strconv.Itoa(work)},
		{Key: store.SettingPomodoroBreak, Value: strconv.Itoa(brk)},
		{Key: store.SettingReminderTime, Value: strings.TrimSpace(*s.reminderTime)},
		{Key: store.SettingTheme, Value: *s.theme},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.Key, v.Value); err != nil {
			return err
		}
	}

	s.engine.Configure(work, brk)
	applyTheme(*s.theme)
	if budget != s.tracker.Data().Budget {
		if err := s.tracker.SetBudget(budget); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}
	rows = append(rows, fmt.Sprintf("  %s %s",
		lipgloss.NewStyle().Width(24).Render("budget"),
		highlightStyle.Render(formatMoney(s.tracker.Data().Budget))))

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingPomodoroWork, store.SettingPomodoroBreak:
		if mins, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", mins)
		}
	case store.SettingLastReminderDate:
		if v == "" {
			return "never"
		}
	}
	return v
}
