package jobmanager_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/nixpig/jobshell/internal/jobmanager"
)

func newTestLauncher(
	t *testing.T,
	terminal jobmanager.Streams,
) (*jobmanager.Launcher, *jobmanager.Table) {
	t.Helper()

	table := jobmanager.NewTable()
	logger := slog.New(slog.DiscardHandler)

	return jobmanager.NewLauncher(table, terminal, logger), table
}

func awaitTestJob(t *testing.T, table *jobmanager.Table, job *jobmanager.Job) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	monitor := jobmanager.NewMonitor(
		table,
		jobmanager.NewNotifier(&strings.Builder{}, logger),
		logger,
	)

	if _, err := monitor.Await(job); err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}
}

func testFileContent(t *testing.T, path string, want string) {
	t.Helper()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected not to receive error: got '%v'", err)
	}

	if string(got) != want {
		t.Errorf("expected file content: got '%s', want '%s'", got, want)
	}
}

func TestLauncher(t *testing.T) {
	t.Parallel()

	t.Run("Test foreground job is registered", func(t *testing.T) {
		t.Parallel()

		launcher, table := newTestLauncher(t, jobmanager.Streams{})

		job, err := launcher.Launch(jobmanager.Command{
			Program: "true",
			State:   jobmanager.JobStateForeground,
			Line:    "true",
		})
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if got, ok := table.PID(job.ID()); !ok || got != job.PID() {
			t.Errorf("expected pid: got '%d', want '%d'", got, job.PID())
		}

		if got, ok := table.Foreground(); !ok || got != job.ID() {
			t.Errorf("expected foreground job: got '%d', want '%d'", got, job.ID())
		}

		awaitTestJob(t, table, job)

		if got := table.Len(); got != 0 {
			t.Errorf("expected table length: got '%d', want '0'", got)
		}
	})

	t.Run("Test foreground job uses terminal", func(t *testing.T) {
		t.Parallel()

		var stdout strings.Builder

		launcher, table := newTestLauncher(t, jobmanager.Streams{
			Stdin:  strings.NewReader("Hello, world!"),
			Stdout: &stdout,
		})

		job, err := launcher.Launch(jobmanager.Command{
			Program: "cat",
			State:   jobmanager.JobStateForeground,
			Line:    "cat",
		})
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		awaitTestJob(t, table, job)

		if got := stdout.String(); got != "Hello, world!" {
			t.Errorf("expected output: got '%s', want 'Hello, world!'", got)
		}
	})

	t.Run("Test background job discards output", func(t *testing.T) {
		t.Parallel()

		var stdout strings.Builder

		launcher, table := newTestLauncher(t, jobmanager.Streams{
			Stdin:  strings.NewReader("Hello, world!"),
			Stdout: &stdout,
		})

		job, err := launcher.Launch(jobmanager.Command{
			Program: "cat",
			State:   jobmanager.JobStateBackground,
			Line:    "cat &",
		})
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if got, _ := table.State(job.ID()); got != jobmanager.JobStateBackground {
			t.Errorf("expected state: got '%s', want 'Background'", got)
		}

		awaitTestJob(t, table, job)

		if got := stdout.String(); got != "" {
			t.Errorf("expected no output: got '%s'", got)
		}
	})

	t.Run("Test redirects", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		inPath := filepath.Join(dir, "in.txt")
		outPath := filepath.Join(dir, "out.txt")

		if err := os.WriteFile(inPath, []byte("Hello, world!\n"), 0644); err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		// Existing content must be truncated.
		if err := os.WriteFile(outPath, []byte("stale stale stale\n"), 0644); err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		launcher, table := newTestLauncher(t, jobmanager.Streams{})

		job, err := launcher.Launch(jobmanager.Command{
			Program:    "cat",
			State:      jobmanager.JobStateBackground,
			InputPath:  inPath,
			OutputPath: outPath,
			Line:       "cat < in.txt > out.txt &",
		})
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		awaitTestJob(t, table, job)

		testFileContent(t, outPath, "Hello, world!\n")
	})

	t.Run("Test missing input redirect", func(t *testing.T) {
		t.Parallel()

		launcher, table := newTestLauncher(t, jobmanager.Streams{})

		_, err := launcher.Launch(jobmanager.Command{
			Program:   "cat",
			State:     jobmanager.JobStateForeground,
			InputPath: filepath.Join(t.TempDir(), "missing.txt"),
			Line:      "cat < missing.txt",
		})

		var redirectErr *jobmanager.RedirectError
		if !errors.As(err, &redirectErr) {
			t.Fatalf("expected to receive RedirectError: got '%v'", err)
		}

		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected to wrap ErrNotExist: got '%v'", err)
		}

		if got := table.Len(); got != 0 {
			t.Errorf("expected table length: got '%d', want '0'", got)
		}
	})

	t.Run("Test unwritable output redirect", func(t *testing.T) {
		t.Parallel()

		launcher, table := newTestLauncher(t, jobmanager.Streams{})

		outPath := filepath.Join(t.TempDir(), "missing", "out.txt")

		_, err := launcher.Launch(jobmanager.Command{
			Program:    "echo",
			Args:       []string{"hello"},
			State:      jobmanager.JobStateForeground,
			OutputPath: outPath,
			Line:       "echo hello > missing/out.txt",
		})
		if !errors.As(err, new(*jobmanager.RedirectError)) {
			t.Fatalf("expected to receive RedirectError: got '%v'", err)
		}

		if got := table.Len(); got != 0 {
			t.Errorf("expected table length: got '%d', want '0'", got)
		}
	})

	t.Run("Test non-existent program", func(t *testing.T) {
		t.Parallel()

		launcher, table := newTestLauncher(t, jobmanager.Streams{})

		_, err := launcher.Launch(jobmanager.Command{
			Program: "non-existent-program",
			State:   jobmanager.JobStateForeground,
			Line:    "non-existent-program",
		})
		if !errors.As(err, new(*jobmanager.SpawnError)) {
			t.Fatalf("expected to receive SpawnError: got '%v'", err)
		}

		if !strings.HasPrefix(err.Error(), "non-existent-program errored: ") {
			t.Errorf("expected error message: got '%s'", err.Error())
		}

		if got := table.Len(); got != 0 {
			t.Errorf("expected table length: got '%d', want '0'", got)
		}
	})

	t.Run("Test empty program", func(t *testing.T) {
		t.Parallel()

		launcher, _ := newTestLauncher(t, jobmanager.Streams{})

		if _, err := launcher.Launch(jobmanager.Command{
			State: jobmanager.JobStateForeground,
		}); !errors.Is(err, jobmanager.ErrEmptyProgram) {
			t.Errorf("expected to receive ErrEmptyProgram: got '%v'", err)
		}
	})

	t.Run("Test foreground conflict kills and reaps", func(t *testing.T) {
		t.Parallel()

		launcher, table := newTestLauncher(t, jobmanager.Streams{})

		if _, err := table.Add(
			999999,
			jobmanager.JobStateForeground,
			"pending",
		); err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		_, err := launcher.Launch(jobmanager.Command{
			Program: "sleep",
			Args:    []string{"30"},
			State:   jobmanager.JobStateForeground,
			Line:    "sleep 30",
		})
		if !errors.Is(err, jobmanager.ErrForegroundConflict) {
			t.Fatalf("expected to receive ErrForegroundConflict: got '%v'", err)
		}

		var registerErr *jobmanager.RegisterError
		if !errors.As(err, &registerErr) {
			t.Fatalf("expected to receive RegisterError: got '%v'", err)
		}

		// A reaped process no longer exists, not even as a zombie.
		if err := syscall.Kill(registerErr.PID, 0); !errors.Is(err, syscall.ESRCH) {
			t.Errorf("expected process to be reaped: got '%v'", err)
		}

		if got := table.Len(); got != 1 {
			t.Errorf("expected table length: got '%d', want '1'", got)
		}

		if got, _ := table.CommandLine(0); got != "pending" {
			t.Errorf("expected cmdline: got '%s', want 'pending'", got)
		}
	})
}
