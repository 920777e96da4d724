package pomodoro

import (
	"sync"
	"time"
)

// Task is a running repeating job.
type Task interface {
	// Stop cancels the task. It is safe to call more than once and from
	// inside the task's own callback.
	Stop()
}

// Scheduler starts repeating tasks.
type Scheduler interface {
	Every(d time.Duration, fn func()) Task
}

// TickerScheduler runs each task on its own goroutine driven by a time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(d time.Duration, fn func()) Task {
	t := &tickerTask{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) run(fn func()) {
	defer t.ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// Stop may race with a pending tick.
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.done) })
}

// ManualScheduler never fires on its own; Fire runs the active task once.
// It lets callers drive an Engine deterministically.
type ManualScheduler struct {
	mu     sync.Mutex
	active *manualTask
	starts int
}

func (m *ManualScheduler) Every(_ time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	m.active = &manualTask{fn: fn, owner: m}
	return m.active
}

// Fire runs the active task n times, stopping early if it is cancelled.
func (m *ManualScheduler) Fire(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		t := m.active
		m.mu.Unlock()
		if t == nil {
			return
		}
		t.fn()
	}
}

// Active reports whether a task is currently scheduled.
func (m *ManualScheduler) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// Starts returns how many tasks have been scheduled so far.
func (m *ManualScheduler) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

type manualTask struct {
	fn    func()
	owner *ManualScheduler
}

func (t *manualTask) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.owner.active == t {
		t.owner.active = nil
	}
}
