package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sadopc/litera/internal/config"
	"github.com/sadopc/litera/internal/library"
	"github.com/sadopc/litera/internal/pomodoro"
	"github.com/sadopc/litera/internal/productivity"
	"github.com/sadopc/litera/internal/reminder"
	"github.com/sadopc/litera/internal/store"
	"github.com/sadopc/litera/internal/tui"
)

var version = "dev"

// cli holds what every command shares once initConfig has run.
type cli struct {
	v       *viper.Viper
	cfgFile string

	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	tracker *productivity.Tracker
	library *library.Service

	now   func() time.Time
	sched pomodoro.Scheduler
}

func newRootCmd() *cobra.Command {
	c := &cli{
		v:     viper.New(),
		now:   time.Now,
		sched: pomodoro.TickerScheduler{},
	}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "litera",
		Short: "Student productivity and reading tracker",
		Long: `litera tracks a student's budget, assignments, to-dos and focus sessions,
and keeps a personal library with daily reading records.

Run without a subcommand to open the terminal UI.`,
		Version:            version,
		SilenceUsage:       true,
		PersistentPreRunE:  c.initConfig,
		PersistentPostRunE: c.close,
		RunE:               c.runTUI,
	}

	// Global flags
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: $HOME/.config/litera/config.yaml)")
	root.PersistentFlags().String("db", "", "database path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-file", "", "log file path")
	root.PersistentFlags().String("export-dir", "", "directory for exported files")

	// Bind flags to viper
	_ = c.v.BindPFlag(config.KeyDBPath, root.PersistentFlags().Lookup("db"))
	_ = c.v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))
	_ = c.v.BindPFlag(config.KeyLogFile, root.PersistentFlags().Lookup("log-file"))
	_ = c.v.BindPFlag(config.KeyExportDir, root.PersistentFlags().Lookup("export-dir"))

	root.AddCommand(c.booksCmd())
	root.AddCommand(c.pomodoroCmd())
	root.AddCommand(c.remindCmd())
	return root
}

func main() {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *cli) initConfig(_ *cobra.Command, _ []string) error {
	if err := config.SetDefaults(c.v); err != nil {
		return err
	}
	if err := config.Read(c.v, c.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		logger.Sync()
		return fmt.Errorf("open database: %w", err)
	}
	if err := cfg.ApplySettings(s); err != nil {
		s.Close()
		logger.Sync()
		return fmt.Errorf("apply settings: %w", err)
	}

	tracker, err := productivity.Open(s,
		productivity.WithClock(c.now),
		productivity.WithLogger(logger.Named("productivity")),
	)
	if err != nil {
		s.Close()
		logger.Sync()
		return err
	}

	c.cfg = cfg
	c.logger = logger
	c.store = s
	c.tracker = tracker
	c.library = library.NewService(s, library.WithLogger(logger.Named("library")))
	logger.Debug("config loaded",
		zap.String("db", cfg.DBPath),
		zap.String("config", c.v.ConfigFileUsed()),
	)
	return nil
}

func (c *cli) close(_ *cobra.Command, _ []string) error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	_ = c.logger.Sync()
	return err
}

func (c *cli) checker() *reminder.Checker {
	return reminder.NewChecker(c.store,
		reminder.WithClock(c.now),
		reminder.WithLogger(c.logger.Named("reminder")),
	)
}

func (c *cli) runTUI(_ *cobra.Command, _ []string) error {
	app := tui.NewApp(tui.Services{
		Store:     c.store,
		Tracker:   c.tracker,
		Library:   c.library,
		Reminder:  c.checker(),
		Scheduler: c.sched,
		Logger:    c.logger.Named("tui"),
		ExportDir: c.cfg.ExportDir,
		Now:       c.now,
	})
	defer app.Engine().Pause()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
