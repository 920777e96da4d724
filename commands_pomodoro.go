package main

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sadopc/litera/internal/pomodoro"
	"github.com/sadopc/litera/internal/productivity"
	"github.com/sadopc/litera/internal/store"
)

func (c *cli) pomodoroCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pomodoro",
		Short: "Run focus sessions and show focus statistics",
	}
	cmd.AddCommand(c.pomodoroRunCmd())
	cmd.AddCommand(c.pomodoroStatsCmd())
	return cmd
}

// printNotifier records activities in the tracker, echoes them to out and
// signals done on the first completed session.
type printNotifier struct {
	pomodoro.Notifier
	out  io.Writer
	mu   sync.Mutex
	once sync.Once
	done chan struct{}
}

func newPrintNotifier(tr *productivity.Tracker, out io.Writer) *printNotifier {
	return &printNotifier{
		Notifier: tr.PomodoroNotifier(nil),
		out:      out,
		done:     make(chan struct{}),
	}
}

func (n *printNotifier) Activity(msg string) {
	n.Notifier.Activity(msg)
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, mutedStyle.Render("· "+msg))
}

func (n *printNotifier) Notify(msg string) {
	n.mu.Lock()
	fmt.Fprintln(n.out, successStyle.Render("🔔 "+msg))
	n.mu.Unlock()
	n.once.Do(func() { close(n.done) })
}

func (c *cli) settingMinutes(key string, fallback int) int {
	n, err := strconv.Atoi(c.store.GetSettingOr(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func (c *cli) pomodoroRunCmd() *cobra.Command {
	var work, brk int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one session in the foreground",
		Long: `Run starts the current session (work, unless a break is due) and blocks
until it completes or the command is interrupted. Completed work sessions
count towards today's statistics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("work") {
				work = c.settingMinutes(store.SettingPomodoroWork, 25)
			}
			if !cmd.Flags().Changed("break") {
				brk = c.settingMinutes(store.SettingPomodoroBreak, 5)
			}

			n := newPrintNotifier(c.tracker, cmd.OutOrStdout())
			engine := pomodoro.New(work, brk, c.sched, c.tracker,
				pomodoro.WithClock(c.now),
				pomodoro.WithNotifier(n),
				pomodoro.WithLogger(c.logger.Named("pomodoro")),
			)

			engine.Start()
			select {
			case <-n.done:
				return nil
			case <-cmd.Context().Done():
				engine.Pause()
				fmt.Fprintln(cmd.OutOrStdout(), "Interrupted.")
				return nil
			}
		},
	}
	cmd.Flags().IntVar(&work, "work", 25, "work session length in minutes")
	cmd.Flags().IntVar(&brk, "break", 5, "break length in minutes")
	return cmd
}

func (c *cli) pomodoroStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show focus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats := c.tracker.PomodoroStats()
			sessions, minutes := stats.Today(c.now().Format(pomodoro.DayLayout))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Focus statistics"))
			fmt.Fprintf(out, "Today: %d sessions, %d minutes\n", sessions, minutes)
			fmt.Fprintf(out, "Total: %d sessions, %d minutes\n", stats.TotalSessions, stats.TotalFocusTime)
			return nil
		},
	}
}
