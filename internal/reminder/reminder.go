// Package reminder decides when to nudge the user to read. A reminder
// fires at most once per calendar day, once the configured time of day
// has passed, and only when the library has books.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/litera/internal/store"
)

// DefaultTime is used when no reminder time is configured.
const DefaultTime = "20:00"

const dayLayout = "2006-01-02"

var ErrInvalidTime = errors.New("reminder time must be HH:MM")

// ParseTime validates a 24-hour HH:MM time of day.
func ParseTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t.Hour(), t.Minute(), nil
}

// Due reports whether a reminder set for at should fire at now, given the
// date it last fired (YYYY-MM-DD, or empty if never).
func Due(now time.Time, at, lastDate string) (bool, error) {
	h, m, err := ParseTime(at)
	if err != nil {
		return false, err
	}
	if lastDate == now.Format(dayLayout) {
		return false, nil
	}
	fireAt := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	return !now.Before(fireAt), nil
}

// Settings is the slice of the store the checker needs.
type Settings interface {
	GetSettingOr(key, fallback string) string
	SetSetting(key, value string) error
	CountBooks() (int, error)
}

type Option func(*Checker)

func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

type Checker struct {
	settings Settings
	now      func() time.Time
	logger   *zap.Logger
}

func NewChecker(settings Settings, opts ...Option) *Checker {
	c := &Checker{settings: settings, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check returns the reminder message when one is due, and records today as
// the last reminder date. It returns "" when nothing is due.
func (c *Checker) Check() (string, error) {
	now := c.now()
	at := c.settings.GetSettingOr(store.SettingReminderTime, DefaultTime)
	last := c.settings.GetSettingOr(store.SettingLastReminderDate, "")

	due, err := Due(now, at, last)
	if err != nil || !due {
		return "", err
	}
	n, err := c.settings.CountBooks()
	if err != nil {
		return "", fmt.Errorf("count books: %w", err)
	}
	if n == 0 {
		return "", nil
	}
	if err := c.settings.SetSetting(store.SettingLastReminderDate, now.Format(dayLayout)); err != nil {
		return "", err
	}
	c.logger.Info("reading reminder fired", zap.String("at", at), zap.Int("books", n))
	return Message(n), nil
}

// Message is the reminder text for a library of n books.
func Message(n int) string {
	if n == 1 {
		return "Time to read! You have 1 book in your library."
	}
	return fmt.Sprintf("Time to read! You have %d books in your library.", n)
}

// Run checks once immediately and then on every interval until ctx is
// done, passing each reminder to notify.
func (c *Checker) Run(ctx context.Context, interval time.Duration, notify func(string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		msg, err := c.Check()
		if err != nil {
			c.logger.Error("reminder check", zap.Error(err))
		} else if msg != "" {
			notify(msg)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
