package jobmanager

import (
	"errors"
	"io"
	"log/slog"
	"os"
)

// Launcher starts the process for a Command and registers it in a Table.
type Launcher struct {
	table    *Table
	terminal Streams
	logger   *slog.Logger
}

// NewLauncher creates a Launcher registering jobs in table. Foreground jobs
// without redirects are attached to terminal.
func NewLauncher(
	table *Table,
	terminal Streams,
	logger *slog.Logger,
) *Launcher {
	return &Launcher{table: table, terminal: terminal, logger: logger}
}

// Launch opens the redirect targets of c, starts its process and registers it
// in the Table. The returned Job must be handed to a monitor.
//
// If the process started but could not be registered, it is killed and
// reaped before Launch returns a RegisterError.
func (l *Launcher) Launch(c Command) (*Job, error) {
	if c.Program == "" {
		return nil, ErrEmptyProgram
	}

	stdin, stdout, closeRedirects, err := l.openStreams(c)
	if err != nil {
		return nil, err
	}

	// The child holds its own descriptors once started, so the parent's copies
	// are closed whatever the outcome.
	defer closeRedirects()

	job, err := NewJob(c.Program, c.Args, stdin, stdout, l.terminal.Stderr)
	if err != nil {
		return nil, err
	}

	if err := job.Start(); err != nil {
		return nil, &SpawnError{Program: c.Program, Err: err}
	}

	pid := job.PID()

	id, err := l.table.Add(pid, c.State, c.Line)
	if err != nil {
		l.logger.Warn(
			"register job, killing process",
			"pid", pid,
			"cmdline", c.Line,
			"err", err,
		)

		if err := job.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			l.logger.Error("kill unregistered process", "pid", pid, "err", err)
		}

		if _, err := job.Wait(); err != nil {
			return nil, &ReapError{PID: pid, Err: err}
		}

		return nil, &RegisterError{PID: pid, Err: err}
	}

	job.id = id
	job.state = c.State
	job.cmdline = c.Line

	l.logger.Debug(
		"registered job",
		"jid", id,
		"pid", pid,
		"state", c.State,
		"cmdline", c.Line,
	)

	return job, nil
}

// openStreams resolves stdin and stdout for c. The returned func closes any
// redirect files that were opened.
func (l *Launcher) openStreams(
	c Command,
) (io.Reader, io.Writer, func(), error) {
	var files []*os.File

	closeAll := func() {
		for _, f := range files {
			if err := f.Close(); err != nil {
				l.logger.Warn("close redirect", "path", f.Name(), "err", err)
			}
		}
	}

	// Background jobs get nil streams by default, which exec connects to the
	// null device.
	var stdin io.Reader
	var stdout io.Writer

	if c.State == JobStateForeground {
		stdin = l.terminal.Stdin
		stdout = l.terminal.Stdout
	}

	if c.InputPath != "" {
		f, err := os.Open(c.InputPath)
		if err != nil {
			return nil, nil, nil, &RedirectError{Path: c.InputPath, Err: err}
		}

		files = append(files, f)
		stdin = f
	}

	if c.OutputPath != "" {
		f, err := os.Create(c.OutputPath)
		if err != nil {
			closeAll()
			return nil, nil, nil, &RedirectError{Path: c.OutputPath, Err: err}
		}

		files = append(files, f)
		stdout = f
	}

	return stdin, stdout, closeAll, nil
}
