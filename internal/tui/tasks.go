package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/litera/internal/productivity"
)

const dueLayout = "2006-01-02 15:04"

var assignmentFilters = []productivity.AssignmentFilter{
	productivity.AssignmentsAll,
	productivity.AssignmentsPending,
	productivity.AssignmentsCompleted,
	productivity.AssignmentsOverdue,
}

var todoFilters = []productivity.TodoFilter{
	productivity.TodosAll,
	productivity.TodoFilter(productivity.PriorityHigh),
	productivity.TodoFilter(productivity.PriorityMedium),
	productivity.TodoFilter(productivity.PriorityLow),
}

type tasksModel struct {
	tracker *productivity.Tracker
	now     func() time.Time
	width   int
	height  int

	assignments []productivity.Assignment
	todos       []productivity.Todo
	cursor      int
	showTodos   bool // false = assignments
	aFilter     int
	tFilter     int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formTitle    *string
	formSubject  *string
	formPriority *productivity.Priority
	formDue      *string
}

func newTasksModel(tr *productivity.Tracker, now func() time.Time) tasksModel {
	title, subject, due := "", "", ""
	prio := productivity.PriorityMedium
	return tasksModel{
		tracker:      tr,
		now:          now,
		formTitle:    &title,
		formSubject:  &subject,
		formPriority: &prio,
		formDue:      &due,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tasksDataMsg struct {
	assignments []productivity.Assignment
	todos       []productivity.Todo
}

func (t tasksModel) refresh() tea.Cmd {
	af := assignmentFilters[t.aFilter]
	tf := todoFilters[t.tFilter]
	return func() tea.Msg {
		return tasksDataMsg{
			assignments: t.tracker.Assignments(af, t.now()),
			todos:       t.tracker.Todos(tf),
		}
	}
}

func (t tasksModel) count() int {
	if t.showTodos {
		return len(t.todos)
	}
	return len(t.assignments)
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		t.assignments = msg.assignments
		t.todos = msg.todos
		if t.cursor >= t.count() {
			t.cursor = max(0, t.count()-1)
		}
		return t, nil

	case tea.KeyMsg:
		return t.updateList(msg)
	}
	return t, nil
}

func (t tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		t.showTodos = !t.showTodos
		t.cursor = 0
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < t.count()-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Filter):
		if t.showTodos {
			t.tFilter = (t.tFilter + 1) % len(todoFilters)
		} else {
			t.aFilter = (t.aFilter + 1) % len(assignmentFilters)
		}
		t.cursor = 0
		return t, t.refresh()
	case key.Matches(msg, keys.New):
		return t.showNewForm()
	case key.Matches(msg, keys.Complete):
		if t.count() > 0 {
			return t, t.mutateSelected(true)
		}
	case key.Matches(msg, keys.Delete):
		if t.count() > 0 {
			return t, t.mutateSelected(false)
		}
	}
	return t, nil
}

// mutateSelected completes or deletes the item under the cursor.
func (t tasksModel) mutateSelected(complete bool) tea.Cmd {
	var err error
	switch {
	case t.showTodos && complete:
		err = t.tracker.CompleteTodo(t.todos[t.cursor].ID)
	case t.showTodos:
		err = t.tracker.DeleteTodo(t.todos[t.cursor].ID)
	case complete:
		err = t.tracker.CompleteAssignment(t.assignments[t.cursor].ID)
	default:
		err = t.tracker.DeleteAssignment(t.assignments[t.cursor].ID)
	}
	if err != nil {
		return errorCmd(err)
	}
	return func() tea.Msg { return dataChangedMsg{} }
}

func (t tasksModel) showNewForm() (tasksModel, tea.Cmd) {
	*t.formTitle = ""
	*t.formSubject = ""
	*t.formPriority = productivity.PriorityMedium
	*t.formDue = ""

	prioOptions := make([]huh.Option[productivity.Priority], len(productivity.Priorities))
	for i, p := range productivity.Priorities {
		prioOptions[i] = huh.NewOption(string(p), p)
	}

	var fields []huh.Field
	fields = append(fields, huh.NewInput().Title("Title").Value(t.formTitle))
	if t.showTodos {
		fields = append(fields,
			huh.NewInput().Title("Category").Value(t.formSubject),
			huh.NewSelect[productivity.Priority]().Title("Priority").Options(prioOptions...).Value(t.formPriority),
			huh.NewInput().Title("Due (YYYY-MM-DD HH:MM, optional)").Value(t.formDue).Validate(validateDue(false)),
		)
	} else {
		*t.formDue = t.now().Add(24 * time.Hour).Format(dueLayout)
		fields = append(fields,
			huh.NewInput().Title("Subject").Value(t.formSubject),
			huh.NewSelect[productivity.Priority]().Title("Priority").Options(prioOptions...).Value(t.formPriority),
			huh.NewInput().Title("Due (YYYY-MM-DD HH:MM)").Value(t.formDue).Validate(validateDue(true)),
		)
	}

	t.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	t.formActive = true
	return t, t.form.Init()
}

func validateDue(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" && !required {
			return nil
		}
		if _, err := time.ParseInLocation(dueLayout, s, time.Local); err != nil {
			return fmt.Errorf("use YYYY-MM-DD HH:MM")
		}
		return nil
	}
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		return t, t.submitForm()
	}
	return t, cmd
}

func (t tasksModel) submitForm() tea.Cmd {
	var due *time.Time
	if s := strings.TrimSpace(*t.formDue); s != "" {
		d, err := time.ParseInLocation(dueLayout, s, time.Local)
		if err != nil {
			return errorCmd(err)
		}
		due = &d
	}

	var err error
	if t.showTodos {
		_, err = t.tracker.AddTodo(productivity.TodoInput{
			Title:    *t.formTitle,
			Priority: *t.formPriority,
			Category: *t.formSubject,
			DueDate:  due,
		})
	} else {
		in := productivity.AssignmentInput{
			Title:    *t.formTitle,
			Subject:  *t.formSubject,
			Priority: *t.formPriority,
		}
		if due != nil {
			in.DueDate = *due
		}
		_, err = t.tracker.AddAssignment(in)
	}
	if err != nil {
		return errorCmd(err)
	}
	return tea.Batch(
		statusCmd("Added "+strings.TrimSpace(*t.formTitle)),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func (t tasksModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Assignment")
		if t.showTodos {
			title = titleStyle.Render("New To-Do")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View()),
		)
	}

	aTab, tTab := selectedItemStyle.Render("Assignments"), mutedStyle.Render("To-Dos")
	filter := string(assignmentFilters[t.aFilter])
	if t.showTodos {
		aTab, tTab = mutedStyle.Render("Assignments"), selectedItemStyle.Render("To-Dos")
		filter = string(todoFilters[t.tFilter])
	}
	header := fmt.Sprintf("%s  %s   %s", aTab, tTab, mutedStyle.Render("filter: "+filter))

	var body []string
	if t.showTodos {
		body = t.renderTodos()
	} else {
		body = t.renderAssignments()
	}

	rows := append([]string{header, ""}, body...)
	rows = append(rows, "", mutedStyle.Render("  ←/→: switch  f: filter  n: new  c: complete  d: delete"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t tasksModel) renderAssignments() []string {
	if len(t.assignments) == 0 {
		return []string{mutedStyle.Render("No assignments. Press n to add one.")}
	}
	now := t.now()
	var rows []string
	for i, a := range t.assignments {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "[ ]"
		if a.Completed {
			check = successStyle.Render("[✓]")
		}
		due := a.DueDate.Local().Format("Jan 02 15:04")
		switch {
		case a.Overdue(now):
			due = errorStyle.Render(due + " overdue")
		case a.DueSoon(now) && !a.Completed:
			due = warningStyle.Render(due + " soon")
		default:
			due = mutedStyle.Render(due)
		}
		rows = append(rows, fmt.Sprintf("%s %s %s %s %s",
			style.Render(cursor+check),
			style.Render(fmt.Sprintf("%-26s", truncate(a.Title, 26))),
			mutedStyle.Render(fmt.Sprintf("%-14s", truncate(a.Subject, 14))),
			priorityStyle(string(a.Priority)).Render(fmt.Sprintf("%-6s", a.Priority)),
			due,
		))
	}
	return rows
}

func (t tasksModel) renderTodos() []string {
	if len(t.todos) == 0 {
		return []string{mutedStyle.Render("No to-dos. Press n to add one.")}
	}
	var rows []string
	for i, td := range t.todos {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "[ ]"
		if td.Completed {
			check = successStyle.Render("[✓]")
		}
		due := ""
		if td.DueDate != nil {
			due = mutedStyle.Render(td.DueDate.Local().Format("Jan 02 15:04"))
		}
		rows = append(rows, fmt.Sprintf("%s %s %s %s %s",
			style.Render(cursor+check),
			style.Render(fmt.Sprintf("%-26s", truncate(td.Title, 26))),
			mutedStyle.Render(fmt.Sprintf("%-14s", truncate(td.Category, 14))),
			priorityStyle(string(td.Priority)).Render(fmt.Sprintf("%-6s", td.Priority)),
			due,
		))
	}
	return rows
}
