// Package pomodoro implements the work/break countdown engine and the
// focus statistics it accumulates.
package pomodoro

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Session string

const (
	Work  Session = "work"
	Break Session = "break"
)

// State is a point-in-time copy of the engine. TimeLeft is in seconds,
// durations and focus time in minutes.
type State struct {
	Running           bool
	Paused            bool
	Current           Session
	TimeLeft          int
	WorkMinutes       int
	BreakMinutes      int
	SessionsCompleted int
	TotalFocusTime    int
}

// StatsStore persists the cumulative stats.
type StatsStore interface {
	PomodoroStats() Stats
	SavePomodoroStats(Stats) error
}

// Notifier receives the engine's side effects. Implementations must not
// block.
type Notifier interface {
	// Activity is called on every state transition.
	Activity(msg string)
	// Notify is called when a session runs to completion.
	Notify(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Activity(string) {}
func (nopNotifier) Notify(string)   {}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is the Pomodoro countdown. Ticks arrive from the injected
// Scheduler; all methods are safe for concurrent use.
type Engine struct {
	mu    sync.Mutex
	state State
	task  Task
	// run identifies the current scheduled task; callbacks from earlier
	// tasks are dropped.
	run uint64

	sched    Scheduler
	stats    StatsStore
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

type event struct {
	activity string
	notify   string
}

// New returns an idle engine positioned at the start of a work session.
// Durations are not validated.
func New(workMinutes, breakMinutes int, sched Scheduler, stats StatsStore, opts ...Option) *Engine {
	e := &Engine{
		state: State{
			Current:      Work,
			TimeLeft:     workMinutes * 60,
			WorkMinutes:  workMinutes,
			BreakMinutes: breakMinutes,
		},
		sched:    sched,
		stats:    stats,
		notifier: nopNotifier{},
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Progress returns the elapsed fraction of the current session in [0, 1].
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := e.durationLocked(e.state.Current) * 60
	if total <= 0 {
		return 0
	}
	p := float64(total-e.state.TimeLeft) / float64(total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Start begins ticking once per second. It is a no-op while running.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state.Running {
		e.mu.Unlock()
		return
	}
	e.state.Running = true
	e.state.Paused = false
	e.run++
	e.task = e.sched.Every(time.Second, e.scheduledTick(e.run))
	ev := event{activity: fmt.Sprintf("Started %s session (%s left)", e.state.Current, FormatClock(e.state.TimeLeft))}
	e.mu.Unlock()

	e.emit(ev)
}

// Pause stops ticking and keeps the remaining time. It is a no-op unless
// running.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.state.Running {
		e.mu.Unlock()
		return
	}
	e.stopLocked()
	e.state.Paused = true
	ev := event{activity: fmt.Sprintf("Paused %s session at %s", e.state.Current, FormatClock(e.state.TimeLeft))}
	e.mu.Unlock()

	e.emit(ev)
}

// Reset stops ticking and rewinds the current session to its full
// duration. The session type is unchanged.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.stopLocked()
	e.state.Paused = false
	e.state.TimeLeft = e.durationLocked(e.state.Current) * 60
	ev := event{activity: fmt.Sprintf("Reset %s session", e.state.Current)}
	e.mu.Unlock()

	e.emit(ev)
}

// Configure updates the durations. While not running, a change to the
// current session's duration rewinds TimeLeft to the new value.
func (e *Engine) Configure(workMinutes, breakMinutes int) {
	e.mu.Lock()
	prevWork, prevBreak := e.state.WorkMinutes, e.state.BreakMinutes
	e.state.WorkMinutes = workMinutes
	e.state.BreakMinutes = breakMinutes

	if !e.state.Running {
		switch {
		case e.state.Current == Work && workMinutes != prevWork:
			e.state.TimeLeft = workMinutes * 60
		case e.state.Current == Break && breakMinutes != prevBreak:
			e.state.TimeLeft = breakMinutes * 60
		}
	}
	ev := event{activity: fmt.Sprintf("Configured work %dm, break %dm", workMinutes, breakMinutes)}
	e.mu.Unlock()

	e.emit(ev)
}

// Tick advances the countdown by one second. Ticks that arrive while the
// engine is not running are ignored.
func (e *Engine) Tick() {
	e.mu.Lock()
	ev, done := e.tickLocked()
	e.mu.Unlock()

	if done {
		e.emit(ev)
	}
}

// scheduledTick returns the callback for the task started as run. A stopped
// task can deliver one more tick after a new run has started.
func (e *Engine) scheduledTick(run uint64) func() {
	return func() {
		e.mu.Lock()
		if run != e.run {
			e.mu.Unlock()
			return
		}
		ev, done := e.tickLocked()
		e.mu.Unlock()

		if done {
			e.emit(ev)
		}
	}
}

// tickLocked reports whether the tick finished the session.
func (e *Engine) tickLocked() (event, bool) {
	if !e.state.Running {
		return event{}, false
	}
	if e.state.TimeLeft > 0 {
		e.state.TimeLeft--
	}
	if e.state.TimeLeft > 0 {
		return event{}, false
	}
	return e.completeLocked(), true
}

func (e *Engine) completeLocked() event {
	e.stopLocked()
	e.state.Paused = false

	finished := e.state.Current
	var ev event
	if finished == Work {
		e.state.SessionsCompleted++
		e.state.TotalFocusTime += e.state.WorkMinutes
		e.recordLocked()

		e.state.Current = Break
		e.state.TimeLeft = e.state.BreakMinutes * 60
		ev.activity = fmt.Sprintf("Completed work session (%d minutes)", e.state.WorkMinutes)
		ev.notify = "Work session completed!"
	} else {
		e.state.Current = Work
		e.state.TimeLeft = e.state.WorkMinutes * 60
		ev.activity = fmt.Sprintf("Completed break session (%d minutes)", e.state.BreakMinutes)
		ev.notify = "Break completed!"
	}
	e.logger.Info("pomodoro session completed",
		zap.String("session", string(finished)),
		zap.Int("sessions_completed", e.state.SessionsCompleted),
	)
	return ev
}

func (e *Engine) recordLocked() {
	if e.stats == nil {
		return
	}
	day := e.now().Format(DayLayout)
	updated := e.stats.PomodoroStats().Record(day, e.state.WorkMinutes)
	if err := e.stats.SavePomodoroStats(updated); err != nil {
		e.logger.Error("save pomodoro stats", zap.Error(err))
	}
}

func (e *Engine) stopLocked() {
	if e.task != nil {
		e.task.Stop()
		e.task = nil
	}
	e.state.Running = false
}

func (e *Engine) durationLocked(s Session) int {
	if s == Break {
		return e.state.BreakMinutes
	}
	return e.state.WorkMinutes
}

func (e *Engine) emit(ev event) {
	if ev.activity != "" {
		e.logger.Debug("pomodoro activity", zap.String("message", ev.activity))
		e.notifier.Activity(ev.activity)
	}
	if ev.notify != "" {
		e.notifier.Notify(ev.notify)
	}
}

// FormatClock renders seconds as MM:SS.
func FormatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
