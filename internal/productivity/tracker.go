// Package productivity owns the student productivity data: expenses and
// budget, assignments, to-dos, the activity feed and the persisted
// Pomodoro statistics.
package productivity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/litera/internal/pomodoro"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
)

const maxActivities = 10

// BlobStore is the key-value durability boundary.
type BlobStore interface {
	LoadBlob(key string) ([]byte, error)
	SaveBlob(key string, data []byte) error
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// Tracker is the single owner of Data. Every mutation is persisted before
// it becomes visible; a failed save leaves the previous state in place.
type Tracker struct {
	mu         sync.Mutex
	store      BlobStore
	data       Data
	activities []Activity
	lastID     int64

	now    func() time.Time
	logger *zap.Logger
}

// Open loads the saved data, merging it over the defaults.
func Open(store BlobStore, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:  store,
		data:   defaultData(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	raw, err := store.LoadBlob(DataKey)
	if err != nil {
		return nil, fmt.Errorf("load productivity data: %w", err)
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &t.data); err != nil {
			return nil, fmt.Errorf("decode productivity data: %w", err)
		}
	}
	t.normalize()
	return t, nil
}

func (t *Tracker) normalize() {
	if t.data.Expenses == nil {
		t.data.Expenses = []Expense{}
	}
	if t.data.Assignments == nil {
		t.data.Assignments = []Assignment{}
	}
	if t.data.Todos == nil {
		t.data.Todos = []Todo{}
	}
	for _, e := range t.data.Expenses {
		t.lastID = max(t.lastID, e.ID)
	}
	for _, a := range t.data.Assignments {
		t.lastID = max(t.lastID, a.ID)
	}
	for _, td := range t.data.Todos {
		t.lastID = max(t.lastID, td.ID)
	}
}

// Data returns a copy of the current root object.
func (t *Tracker) Data() Data {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.clone()
}

func (d Data) clone() Data {
	c := d
	c.Expenses = cloneSlice(d.Expenses)
	c.Assignments = cloneSlice(d.Assignments)
	c.Todos = cloneSlice(d.Todos)
	return c
}

// cloneSlice copies s; the copy is never nil so empty collections encode
// as [].
func cloneSlice[T any](s []T) []T {
	return append(make([]T, 0, len(s)), s...)
}

// mutate applies fn to a copy of the data, saves it, and swaps it in.
// Callers must hold t.mu.
func (t *Tracker) mutate(fn func(d *Data) error) error {
	next := t.data.clone()
	if err := fn(&next); err != nil {
		return err
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode productivity data: %w", err)
	}
	if err := t.store.SaveBlob(DataKey, raw); err != nil {
		t.logger.Error("save productivity data", zap.Error(err))
		return fmt.Errorf("save productivity data: %w", err)
	}
	t.data = next
	return nil
}

// nextID returns a creation-time id that is strictly greater than every
// id handed out before.
func (t *Tracker) nextID() int64 {
	id := t.now().UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	t.lastID = id
	return id
}

// AddActivity prepends an entry to the feed, keeping the newest ten.
func (t *Tracker) AddActivity(kind ActivityKind, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addActivityLocked(kind, msg)
}

func (t *Tracker) addActivityLocked(kind ActivityKind, msg string) {
	a := Activity{Kind: kind, Message: msg, At: t.now()}
	t.activities = append([]Activity{a}, t.activities...)
	if len(t.activities) > maxActivities {
		t.activities = t.activities[:maxActivities]
	}
	t.logger.Info("activity", zap.String("kind", string(kind)), zap.String("message", msg))
}

// Activities returns the feed, newest first.
func (t *Tracker) Activities() []Activity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Activity(nil), t.activities...)
}

// PomodoroStats implements pomodoro.StatsStore.
func (t *Tracker) PomodoroStats() pomodoro.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.PomodoroStats
}

// SavePomodoroStats implements pomodoro.StatsStore.
func (t *Tracker) SavePomodoroStats(s pomodoro.Stats) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mutate(func(d *Data) error {
		d.PomodoroStats = s
		return nil
	})
}

// PomodoroNotifier adapts the tracker's activity feed to the engine.
// Completion notices are passed to notify, which may be nil.
func (t *Tracker) PomodoroNotifier(notify func(string)) pomodoro.Notifier {
	return pomodoroNotifier{t: t, notify: notify}
}

type pomodoroNotifier struct {
	t      *Tracker
	notify func(string)
}

func (n pomodoroNotifier) Activity(msg string) { n.t.AddActivity(ActivityPomodoro, msg) }

func (n pomodoroNotifier) Notify(msg string) {
	if n.notify != nil {
		n.notify(msg)
	}
}

// Dashboard computes the dashboard summary as of now.
func (t *Tracker) Dashboard(now time.Time) Dashboard {
	t.mu.Lock()
	defer t.mu.Unlock()

	overview := t.budgetOverviewLocked(now)
	d := Dashboard{
		MonthlyExpenses: overview.Spent,
		Balance:         overview.Remaining,
		TotalTodos:      len(t.data.Todos),
	}
	for _, a := range t.data.Assignments {
		if a.Completed {
			continue
		}
		d.PendingAssignments++
		if a.Overdue(now) {
			d.OverdueAssignments++
		}
	}
	for _, td := range t.data.Todos {
		if td.Completed {
			d.CompletedTodos++
		}
	}
	d.PomodoroSessions, d.StudyMinutes = t.data.PomodoroStats.Today(now.Format(pomodoro.DayLayout))
	return d
}
