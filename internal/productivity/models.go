package productivity

import (
	"time"

	"github.com/sadopc/litera/internal/pomodoro"
)

// DataKey is the blob key the whole Data object is stored under.
const DataKey = "studentProductivityData"

const defaultBudget = 1000.0

type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryEducation     Category = "education"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryOther         Category = "other"
)

// Categories lists expense categories in display order.
var Categories = []Category{
	CategoryFood, CategoryTransport, CategoryEducation,
	CategoryEntertainment, CategoryUtilities, CategoryOther,
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Expense struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"timestamp"`
}

type Assignment struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"dueDate"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Todo struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Data is the root object persisted as one blob.
type Data struct {
	Expenses      []Expense      `json:"expenses"`
	Assignments   []Assignment   `json:"assignments"`
	Todos         []Todo         `json:"todos"`
	Budget        float64        `json:"budget"`
	PomodoroStats pomodoro.Stats `json:"pomodoroStats"`
}

func defaultData() Data {
	return Data{
		Expenses:    []Expense{},
		Assignments: []Assignment{},
		Todos:       []Todo{},
		Budget:      defaultBudget,
	}
}

type ActivityKind string

const (
	ActivityExpense    ActivityKind = "expense"
	ActivityAssignment ActivityKind = "assignment"
	ActivityTodo       ActivityKind = "todo"
	ActivityPomodoro   ActivityKind = "pomodoro"
)

type Activity struct {
	Kind    ActivityKind
	Message string
	At      time.Time
}

// BudgetOverview summarizes spending for the current month.
type BudgetOverview struct {
	Budget    float64
	Spent     float64
	Remaining float64
	// Percent of the budget spent, capped at 100.
	Percent float64
}

type CategoryTotal struct {
	Category Category
	Amount   float64
}

// Dashboard aggregates the headline numbers shown on the dashboard.
type Dashboard struct {
	MonthlyExpenses    float64
	Balance            float64
	PendingAssignments int
	OverdueAssignments int
	TotalTodos         int
	CompletedTodos     int
	PomodoroSessions   int
	StudyMinutes       int
}
