package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/litera/internal/productivity"
)

const (
	budgetFormExpense = "expense"
	budgetFormBudget  = "budget"
)

type budgetModel struct {
	tracker *productivity.Tracker
	now     func() time.Time
	width   int
	height  int

	overview productivity.BudgetOverview
	totals   []productivity.CategoryTotal
	expenses []productivity.Expense

	formActive bool
	form       *huh.Form
	formType   string

	// Form field pointers (survive value copies)
	formAmount      *string
	formDescription *string
	formCategory    *productivity.Category
	formDate        *string
}

func newBudgetModel(tr *productivity.Tracker, now func() time.Time) budgetModel {
	amount, desc, date := "", "", ""
	cat := productivity.CategoryFood
	return budgetModel{
		tracker:         tr,
		now:             now,
		formAmount:      &amount,
		formDescription: &desc,
		formCategory:    &cat,
		formDate:        &date,
	}
}

func (b *budgetModel) setSize(w, h int) {
	b.width = w
	b.height = h
}

type budgetDataMsg struct {
	overview productivity.BudgetOverview
	totals   []productivity.CategoryTotal
	expenses []productivity.Expense
}

func (b budgetModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return budgetDataMsg{
			overview: b.tracker.BudgetOverview(b.now()),
			totals:   b.tracker.CategoryTotals(),
			expenses: b.tracker.RecentExpenses(0),
		}
	}
}

func (b budgetModel) update(msg tea.Msg) (budgetModel, tea.Cmd) {
	if b.formActive && b.form != nil {
		return b.updateForm(msg)
	}

	switch msg := msg.(type) {
	case budgetDataMsg:
		b.overview = msg.overview
		b.totals = msg.totals
		b.expenses = msg.expenses
		return b, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.New):
			return b.showExpenseForm()
		case key.Matches(msg, keys.Budget):
			return b.showBudgetForm()
		}
	}
	return b, nil
}

func validateAmount(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("enter a positive amount")
	}
	return nil
}

func (b budgetModel) showExpenseForm() (budgetModel, tea.Cmd) {
	*b.formAmount = ""
	*b.formDescription = ""
	*b.formCategory = productivity.CategoryFood
	*b.formDate = b.now().Format("2006-01-02")
	b.formType = budgetFormExpense

	catOptions := make([]huh.Option[productivity.Category], len(productivity.Categories))
	for i, c := range productivity.Categories {
		catOptions[i] = huh.NewOption(string(c), c)
	}

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Amount").Value(b.formAmount).Validate(validateAmount),
			huh.NewInput().Title("Description").Value(b.formDescription),
			huh.NewSelect[productivity.Category]().Title("Category").Options(catOptions...).Value(b.formCategory),
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(b.formDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b budgetModel) showBudgetForm() (budgetModel, tea.Cmd) {
	*b.formAmount = strconv.FormatFloat(b.overview.Budget, 'f', -1, 64)
	b.formType = budgetFormBudget

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Monthly budget").Value(b.formAmount).Validate(validateAmount),
		),
	).WithShowHelp(true).WithShowErrors(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b budgetModel) updateForm(msg tea.Msg) (budgetModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			b.formActive = false
			b.form = nil
			return b, nil
		}
	}

	form, cmd := b.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		b.form = f
	}

	if b.form.State == huh.StateCompleted {
		b.formActive = false
		b.form = nil
		return b, b.submitForm()
	}
	return b, cmd
}

// submitForm saves the completed form and asks every view to reload.
func (b budgetModel) submitForm() tea.Cmd {
	amount, _ := strconv.ParseFloat(strings.TrimSpace(*b.formAmount), 64)

	switch b.formType {
	case budgetFormExpense:
		e, err := b.tracker.AddExpense(productivity.ExpenseInput{
			Amount:      amount,
			Description: *b.formDescription,
			Category:    *b.formCategory,
			Date:        strings.TrimSpace(*b.formDate),
		})
		if err != nil {
			return errorCmd(err)
		}
		return tea.Batch(
			statusCmd(fmt.Sprintf("Added %s for %s", formatMoney(e.Amount), e.Description)),
			func() tea.Msg { return dataChangedMsg{} },
		)
	case budgetFormBudget:
		if err := b.tracker.SetBudget(amount); err != nil {
			return errorCmd(err)
		}
		return tea.Batch(
			statusCmd("Budget set to "+formatMoney(amount)),
			func() tea.Msg { return dataChangedMsg{} },
		)
	}
	return nil
}

func (b budgetModel) view() string {
	w := b.width - 4

	if b.formActive && b.form != nil {
		title := titleStyle.Render("New Expense")
		if b.formType == budgetFormBudget {
			title = titleStyle.Render("Monthly Budget")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", b.form.View()),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		b.renderOverview(w),
		b.renderExpenses(w),
	)
}

func (b budgetModel) renderOverview(w int) string {
	o := b.overview
	title := titleStyle.Render("This Month")

	gaugeStyle := successStyle
	switch {
	case o.Percent >= 100:
		gaugeStyle = errorStyle
	case o.Percent >= 80:
		gaugeStyle = warningStyle
	}
	gauge := gaugeStyle.Render(bar(o.Percent/100, min(40, max(10, w-30))))

	rows := []string{
		title,
		fmt.Sprintf("  %s %s  %s", gauge, gaugeStyle.Render(fmt.Sprintf("%.0f%%", o.Percent)), mutedStyle.Render("of "+formatMoney(o.Budget))),
		fmt.Sprintf("  Spent %s   Remaining %s", highlightStyle.Render(formatMoney(o.Spent)), highlightStyle.Render(formatMoney(o.Remaining))),
	}

	if len(b.totals) > 0 {
		rows = append(rows, "", subtitleStyle.Render("By category"))
		for _, t := range b.totals {
			rows = append(rows, fmt.Sprintf("  %-14s %10s", t.Category, formatMoney(t.Amount)))
		}
	}

	rows = append(rows, "", mutedStyle.Render("  n: new expense  b: set budget"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (b budgetModel) renderExpenses(w int) string {
	title := titleStyle.Render("Expenses")
	if len(b.expenses) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No expenses yet. Press n to add one."),
		))
	}

	limit := len(b.expenses)
	if b.height > 0 {
		limit = min(limit, max(3, b.height-20))
	}

	rows := []string{title}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-14s %-28s %10s", "Date", "Category", "Description", "Amount")))
	for _, e := range b.expenses[:limit] {
		rows = append(rows, fmt.Sprintf("  %-12s %-14s %-28s %10s",
			e.Date, e.Category, truncate(e.Description, 28), formatMoney(e.Amount)))
	}
	if limit < len(b.expenses) {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  … %d more", len(b.expenses)-limit)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
