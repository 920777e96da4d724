package productivity

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

type AssignmentFilter string

const (
	AssignmentsAll       AssignmentFilter = "all"
	AssignmentsPending   AssignmentFilter = "pending"
	AssignmentsCompleted AssignmentFilter = "completed"
	AssignmentsOverdue   AssignmentFilter = "overdue"
)

// Overdue reports whether a is unfinished and past due.
func (a Assignment) Overdue(now time.Time) bool {
	return !a.Completed && a.DueDate.Before(now)
}

// DueSoon reports whether a is due within the next 24 hours.
func (a Assignment) DueSoon(now time.Time) bool {
	return a.DueDate.After(now) && a.DueDate.Sub(now) < 24*time.Hour
}

type AssignmentInput struct {
	Title       string
	Subject     string
	Description string
	DueDate     time.Time
	Priority    Priority
}

func validPriority(p Priority) bool {
	return slices.Contains(Priorities, p)
}

func (t *Tracker) AddAssignment(in AssignmentInput) (Assignment, error) {
	title := strings.TrimSpace(in.Title)
	subject := strings.TrimSpace(in.Subject)
	switch {
	case title == "":
		return Assignment{}, fmt.Errorf("%w: title is required", ErrValidation)
	case subject == "":
		return Assignment{}, fmt.Errorf("%w: subject is required", ErrValidation)
	case in.DueDate.IsZero():
		return Assignment{}, fmt.Errorf("%w: due date is required", ErrValidation)
	case !validPriority(in.Priority):
		return Assignment{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	a := Assignment{
		ID:          t.nextID(),
		Title:       title,
		Subject:     subject,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		CreatedAt:   t.now().UTC(),
	}
	err := t.mutate(func(d *Data) error {
		d.Assignments = append(d.Assignments, a)
		return nil
	})
	if err != nil {
		return Assignment{}, err
	}
	t.addActivityLocked(ActivityAssignment, "Added assignment: "+a.Title)
	return a, nil
}

// CompleteAssignment marks the assignment done. Completing twice is allowed
// and leaves it completed.
func (t *Tracker) CompleteAssignment(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var title string
	err := t.mutate(func(d *Data) error {
		i := slices.IndexFunc(d.Assignments, func(a Assignment) bool { return a.ID == id })
		if i < 0 {
			return fmt.Errorf("complete assignment %d: %w", id, ErrNotFound)
		}
		d.Assignments[i].Completed = true
		title = d.Assignments[i].Title
		return nil
	})
	if err != nil {
		return err
	}
	t.addActivityLocked(ActivityAssignment, "Completed assignment: "+title)
	return nil
}

func (t *Tracker) DeleteAssignment(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mutate(func(d *Data) error {
		n := len(d.Assignments)
		d.Assignments = slices.DeleteFunc(d.Assignments, func(a Assignment) bool { return a.ID == id })
		if len(d.Assignments) == n {
			return fmt.Errorf("delete assignment %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Assignments returns the assignments matching filter, earliest due first.
func (t *Tracker) Assignments(filter AssignmentFilter, now time.Time) []Assignment {
	t.mu.Lock()
	all := append([]Assignment(nil), t.data.Assignments...)
	t.mu.Unlock()

	var out []Assignment
	for _, a := range all {
		keep := true
		switch filter {
		case AssignmentsPending:
			keep = !a.Completed && !a.DueDate.Before(now)
		case AssignmentsCompleted:
			keep = a.Completed
		case AssignmentsOverdue:
			keep = a.Overdue(now)
		}
		if keep {
			out = append(out, a)
		}
	}
	slices.SortStableFunc(out, func(a, b Assignment) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// TodoFilter is "all" or one of the priorities.
type TodoFilter string

const TodosAll TodoFilter = "all"

type TodoInput struct {
	Title       string
	Description string
	Priority    Priority
	Category    string
	DueDate     *time.Time
}

func (t *Tracker) AddTodo(in TodoInput) (Todo, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Todo{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !validPriority(in.Priority) {
		return Todo{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	td := Todo{
		ID:          t.nextID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    in.Priority,
		Category:    strings.TrimSpace(in.Category),
		DueDate:     in.DueDate,
		CreatedAt:   t.now().UTC(),
	}
	err := t.mutate(func(d *Data) error {
		d.Todos = append(d.Todos, td)
		return nil
	})
	if err != nil {
		return Todo{}, err
	}
	t.addActivityLocked(ActivityTodo, "Added task: "+td.Title)
	return td, nil
}

func (t *Tracker) CompleteTodo(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var title string
	err := t.mutate(func(d *Data) error {
		i := slices.IndexFunc(d.Todos, func(td Todo) bool { return td.ID == id })
		if i < 0 {
			return fmt.Errorf("complete todo %d: %w", id, ErrNotFound)
		}
		d.Todos[i].Completed = true
		title = d.Todos[i].Title
		return nil
	})
	if err != nil {
		return err
	}
	t.addActivityLocked(ActivityTodo, "Completed task: "+title)
	return nil
}

func (t *Tracker) DeleteTodo(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mutate(func(d *Data) error {
		n := len(d.Todos)
		d.Todos = slices.DeleteFunc(d.Todos, func(td Todo) bool { return td.ID == id })
		if len(d.Todos) == n {
			return fmt.Errorf("delete todo %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Todos returns the to-dos matching filter: open ones first, then by
// priority from high to low, then oldest first.
func (t *Tracker) Todos(filter TodoFilter) []Todo {
	t.mu.Lock()
	all := append([]Todo(nil), t.data.Todos...)
	t.mu.Unlock()

	var out []Todo
	for _, td := range all {
		if filter == "" || filter == TodosAll || Priority(filter) == td.Priority {
			out = append(out, td)
		}
	}
	slices.SortStableFunc(out, func(a, b Todo) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(b.Priority.rank(), a.Priority.rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
