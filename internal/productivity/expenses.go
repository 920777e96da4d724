package productivity

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type ExpenseInput struct {
	Amount      float64
	Description string
	Category    Category
	// Date is a calendar date, YYYY-MM-DD.
	Date string
}

func (in ExpenseInput) validate() error {
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if !slices.Contains(Categories, in.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return nil
}

func (t *Tracker) AddExpense(in ExpenseInput) (Expense, error) {
	if err := in.validate(); err != nil {
		return Expense{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e := Expense{
		ID:          t.nextID(),
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Date:        in.Date,
		CreatedAt:   t.now().UTC(),
	}
	err := t.mutate(func(d *Data) error {
		d.Expenses = append(d.Expenses, e)
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	t.addActivityLocked(ActivityExpense, fmt.Sprintf("Added expense: %s - $%.2f", e.Description, e.Amount))
	return e, nil
}

func (t *Tracker) SetBudget(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrValidation)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mutate(func(d *Data) error {
		d.Budget = amount
		return nil
	})
}

// BudgetOverview sums the expenses dated in now's month.
func (t *Tracker) BudgetOverview(now time.Time) BudgetOverview {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.budgetOverviewLocked(now)
}

func (t *Tracker) budgetOverviewLocked(now time.Time) BudgetOverview {
	var spent float64
	for _, e := range t.data.Expenses {
		d, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			continue
		}
		if d.Year() == now.Year() && d.Month() == now.Month() {
			spent += e.Amount
		}
	}
	o := BudgetOverview{
		Budget:    t.data.Budget,
		Spent:     spent,
		Remaining: t.data.Budget - spent,
	}
	if t.data.Budget > 0 {
		o.Percent = min(spent/t.data.Budget*100, 100)
	}
	return o
}

// CategoryTotals returns the total per category that has any expense, in
// category order.
func (t *Tracker) CategoryTotals() []CategoryTotal {
	t.mu.Lock()
	defer t.mu.Unlock()

	sums := make(map[Category]float64)
	for _, e := range t.data.Expenses {
		sums[e.Category] += e.Amount
	}
	var totals []CategoryTotal
	for _, c := range Categories {
		if amt, ok := sums[c]; ok {
			totals = append(totals, CategoryTotal{Category: c, Amount: amt})
		}
	}
	return totals
}

// RecentExpenses returns up to n expenses, newest date first.
func (t *Tracker) RecentExpenses(n int) []Expense {
	t.mu.Lock()
	sorted := append([]Expense(nil), t.data.Expenses...)
	t.mu.Unlock()

	slices.SortStableFunc(sorted, func(a, b Expense) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
