package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/sadopc/litera/internal/library"
	"github.com/sadopc/litera/internal/pomodoro"
)

var testNow = time.Date(2024, 3, 15, 21, 0, 0, 0, time.Local)

type testEnv struct {
	dir     string
	cfgFile string
	dbPath  string
	sched   pomodoro.Scheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	cfg := "export:\n  dir: " + filepath.Join(dir, "exports") + "\nlog:\n  level: debug\n"
	if err := os.WriteFile(cfgFile, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "exports"), 0o755); err != nil {
		t.Fatal(err)
	}
	return &testEnv{
		dir:     dir,
		cfgFile: cfgFile,
		dbPath:  filepath.Join(dir, "litera.db"),
		sched:   pomodoro.TickerScheduler{},
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return e.runContext(context.Background(), t, args...)
}

func (e *testEnv) runContext(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := &cli{
		v:     viper.New(),
		now:   func() time.Time { return testNow },
		sched: e.sched,
	}
	root := c.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args,
		"--config", e.cfgFile,
		"--db", e.dbPath,
		"--log-file", filepath.Join(e.dir, "litera.log"),
	))
	err := root.ExecuteContext(ctx)
	// PostRun is skipped when RunE fails.
	_ = c.close(nil, nil)
	return out.String(), err
}

func mustRun(t *testing.T, e *testEnv, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

// ============================================================
// books
// ============================================================

func TestBooksAddAndList(t *testing.T) {
	e := newTestEnv(t)
	mustRun(t, e, "books", "add", "--title", "Dune", "--author", "Frank Herbert", "--rating", "4.5")
	mustRun(t, e, "books", "add", "--title", "Neuromancer", "--type", "online")

	out := mustRun(t, e, "books", "list")
	for _, want := range []string{"Dune", "Neuromancer", "2 books (1 online, 1 offline)", "average rating 4.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, e, "books", "list", "--filter", "online")
	if strings.Contains(out, "Dune") || !strings.Contains(out, "Neuromancer") {
		t.Fatalf("online filter output:\n%s", out)
	}

	out = mustRun(t, e, "books", "list", "--search", "herbert")
	if !strings.Contains(out, "Dune") || strings.Contains(out, "Neuromancer") {
		t.Fatalf("search output:\n%s", out)
	}
}

func TestBooksListEmpty(t *testing.T) {
	e := newTestEnv(t)
	out := mustRun(t, e, "books", "list")
	if !strings.Contains(out, "No books found.") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestBooksAddValidation(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.run(t, "books", "add", "--author", "Nobody"); err == nil {
		t.Fatal("missing title should fail")
	}
	_, err := e.run(t, "books", "add", "--title", "Dune", "--rating", "7")
	if !errors.Is(err, library.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	_, err = e.run(t, "books", "add", "--title", "Dune", "--rating", "NaN")
	if !errors.Is(err, library.ErrValidation) {
		t.Fatalf("NaN rating: expected ErrValidation, got %v", err)
	}
	_, err = e.run(t, "books", "add", "--title", "Dune", "--type", "audio")
	if !errors.Is(err, library.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBooksRead(t *testing.T) {
	e := newTestEnv(t)
	mustRun(t, e, "books", "add", "--title", "Dune")

	out := mustRun(t, e, "books", "read", "1")
	if !strings.Contains(out, "Marked as read today") {
		t.Fatalf("output:\n%s", out)
	}
	out = mustRun(t, e, "books", "read", "1")
	if !strings.Contains(out, "Already marked") {
		t.Fatalf("output:\n%s", out)
	}

	out = mustRun(t, e, "books", "list")
	if !strings.Contains(out, "2024-03-15") {
		t.Fatalf("histogram missing today:\n%s", out)
	}
}

func TestBooksReadUnknown(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run(t, "books", "read", "42")
	if !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := e.run(t, "books", "read", "abc"); err == nil {
		t.Fatal("non-numeric id should fail")
	}
}

func TestBooksDelete(t *testing.T) {
	e := newTestEnv(t)
	mustRun(t, e, "books", "add", "--title", "Dune")

	out := mustRun(t, e, "books", "delete", "1", "--yes")
	if !strings.Contains(out, "Book 1 deleted") {
		t.Fatalf("output:\n%s", out)
	}
	_, err := e.run(t, "books", "delete", "1", "--yes")
	if !errors.Is(err, library.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBooksExportImportRoundTrip(t *testing.T) {
	src := newTestEnv(t)
	mustRun(t, src, "books", "add", "--title", "Dune", "--notes", "spice")
	mustRun(t, src, "books", "read", "1")

	out := mustRun(t, src, "books", "export")
	path := filepath.Join(src.dir, "exports", "my_library.json")
	if !strings.Contains(out, path) {
		t.Fatalf("export output:\n%s", out)
	}

	dst := newTestEnv(t)
	mustRun(t, dst, "books", "add", "--title", "Replaced")
	out = mustRun(t, dst, "books", "import", path, "--yes")
	if !strings.Contains(out, "Imported 1 books") {
		t.Fatalf("import output:\n%s", out)
	}

	out = mustRun(t, dst, "books", "list")
	if !strings.Contains(out, "Dune") || strings.Contains(out, "Replaced") {
		t.Fatalf("list after import:\n%s", out)
	}
	if !strings.Contains(out, "1 reading days") {
		t.Fatalf("read days not imported:\n%s", out)
	}
}

func TestBooksExportCSV(t *testing.T) {
	e := newTestEnv(t)
	mustRun(t, e, "books", "add", "--title", "Dune")

	path := filepath.Join(e.dir, "books.csv")
	mustRun(t, e, "books", "export", path, "--format", "csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "ID,Title,Author") || !strings.Contains(string(data), "Dune") {
		t.Fatalf("csv:\n%s", data)
	}

	if _, err := e.run(t, "books", "export", "--format", "xml"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestBooksExportEmpty(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run(t, "books", "export")
	if !errors.Is(err, library.ErrEmptyLibrary) {
		t.Fatalf("expected ErrEmptyLibrary, got %v", err)
	}
}

func TestBooksImportMalformed(t *testing.T) {
	e := newTestEnv(t)
	mustRun(t, e, "books", "add", "--title", "Keep")

	path := filepath.Join(e.dir, "bad.json")
	os.WriteFile(path, []byte(`{"title": "not a list"}`), 0o644)

	_, err := e.run(t, "books", "import", path, "--yes")
	if !errors.Is(err, library.ErrMalformedImport) {
		t.Fatalf("expected ErrMalformedImport, got %v", err)
	}
	out := mustRun(t, e, "books", "list")
	if !strings.Contains(out, "Keep") {
		t.Fatal("malformed import changed the library")
	}
}

// ============================================================
// pomodoro
// ============================================================

func TestPomodoroStatsEmpty(t *testing.T) {
	e := newTestEnv(t)
	out := mustRun(t, e, "pomodoro", "stats")
	if !strings.Contains(out, "Today: 0 sessions, 0 minutes") {
		t.Fatalf("output:\n%s", out)
	}
}

func waitActive(t *testing.T, s *pomodoro.ManualScheduler) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !s.Active() {
		if time.Now().After(deadline) {
			t.Fatal("engine never started")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPomodoroRunCompletes(t *testing.T) {
	e := newTestEnv(t)
	sched := &pomodoro.ManualScheduler{}
	e.sched = sched

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := e.run(t, "pomodoro", "run", "--work", "1")
		done <- result{out, err}
	}()

	waitActive(t, sched)
	sched.Fire(60)

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the session completed")
	}
	if res.err != nil {
		t.Fatal(res.err)
	}
	for _, want := range []string{"Started work session (01:00 left)", "Completed work session (1 minutes)", "Work session completed!"} {
		if !strings.Contains(res.out, want) {
			t.Errorf("run output missing %q:\n%s", want, res.out)
		}
	}

	out := mustRun(t, e, "pomodoro", "stats")
	if !strings.Contains(out, "Today: 1 sessions, 1 minutes") {
		t.Fatalf("stats output:\n%s", out)
	}
}

func TestPomodoroRunInterrupted(t *testing.T) {
	e := newTestEnv(t)
	sched := &pomodoro.ManualScheduler{}
	e.sched = sched

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan string, 1)
	go func() {
		out, _ := e.runContext(ctx, t, "pomodoro", "run")
		done <- out
	}()

	waitActive(t, sched)
	cancel()

	select {
	case out := <-done:
		if !strings.Contains(out, "Interrupted.") {
			t.Fatalf("output:\n%s", out)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run ignored cancellation")
	}
	if sched.Active() {
		t.Fatal("engine still ticking after interrupt")
	}
}

// ============================================================
// remind and config
// ============================================================

func TestRemind(t *testing.T) {
	e := newTestEnv(t)
	out := mustRun(t, e, "remind")
	if !strings.Contains(out, "No reminder due.") {
		t.Fatalf("empty library output:\n%s", out)
	}

	mustRun(t, e, "books", "add", "--title", "Dune")
	out = mustRun(t, e, "remind")
	if !strings.Contains(out, "Time to read! You have 1 book in your library.") {
		t.Fatalf("output:\n%s", out)
	}
	out = mustRun(t, e, "remind")
	if !strings.Contains(out, "No reminder due.") {
		t.Fatalf("second reminder on the same day:\n%s", out)
	}
}

func TestRemindWatch(t *testing.T) {
	e := newTestEnv(t)
	mustRun(t, e, "books", "add", "--title", "Dune")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	out, err := e.runContext(ctx, t, "remind", "--watch", "--interval", "10ms")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "Time to read!"); n != 1 {
		t.Fatalf("reminder fired %d times while watching:\n%s", n, out)
	}

	if _, err := e.run(t, "remind", "--watch", "--interval", "0s"); err == nil {
		t.Fatal("zero interval should fail")
	}
}

func TestConfiguredReminderTimeApplied(t *testing.T) {
	e := newTestEnv(t)
	cfg := "reminder:\n  time: \"22:30\"\n"
	if err := os.WriteFile(e.cfgFile, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, e, "books", "add", "--title", "Dune")

	out := mustRun(t, e, "remind")
	if !strings.Contains(out, "No reminder due.") {
		t.Fatalf("reminder fired before the configured time:\n%s", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	e := newTestEnv(t)
	os.WriteFile(e.cfgFile, []byte("theme: purple\n"), 0o644)
	if _, err := e.run(t, "books", "list"); err == nil {
		t.Fatal("invalid theme should fail")
	}
}
