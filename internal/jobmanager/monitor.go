package jobmanager

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Notifier serialises lifecycle notices and other shell output written to a
// single io.Writer from concurrent monitors.
type Notifier struct {
	w      io.Writer
	logger *slog.Logger
	mu     sync.Mutex
}

// NewNotifier creates a Notifier writing to w. Notices that can't be written
// are logged to logger.
func NewNotifier(w io.Writer, logger *slog.Logger) *Notifier {
	return &Notifier{w: w, logger: logger}
}

// Printf writes a formatted notice in a single call to the underlying writer.
// A notice that fails to write is logged and otherwise dropped, so a broken
// terminal never stops a monitor from removing its job.
func (n *Notifier) Printf(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := fmt.Fprintf(n.w, format, args...); err != nil {
		n.logger.Warn(
			"write notice",
			"notice", fmt.Sprintf(format, args...),
			"err", err,
		)
	}
}

// Write implements io.Writer so the Notifier can be used as the shell's
// output sink.
func (n *Notifier) Write(p []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.w.Write(p)
}

// Monitor awaits the exit of registered jobs and removes them from the Table.
type Monitor struct {
	table    *Table
	notifier *Notifier
	logger   *slog.Logger
}

func NewMonitor(table *Table, notifier *Notifier, logger *slog.Logger) *Monitor {
	return &Monitor{table: table, notifier: notifier, logger: logger}
}

// Started prints the notice for a newly registered background job.
func (m *Monitor) Started(job *Job) {
	m.notifier.Printf("[%d] (%d) %s\n", job.ID(), job.PID(), job.CommandLine())
}

// Await blocks until the process of job exits, then deletes the job from the
// Table. For a background job a termination notice is printed first.
//
// The Table is never locked while waiting.
func (m *Monitor) Await(job *Job) (*os.ProcessState, error) {
	id, pid := job.ID(), job.PID()

	ps, err := job.Wait()
	if err != nil {
		m.table.Delete(id)
		return nil, &ReapError{JobID: id, PID: pid, Registered: true, Err: err}
	}

	if job.State() == JobStateBackground {
		cmdline, _ := m.table.CommandLine(id)

		m.logger.Info(
			"background job exited",
			"jid", id,
			"pid", pid,
			"cmdline", cmdline,
			"exit_code", ps.ExitCode(),
		)

		m.notifier.Printf("Job [%d] (%d) terminated\n", id, pid)
	} else {
		m.logger.Debug(
			"foreground job exited",
			"jid", id,
			"pid", pid,
			"exit_code", ps.ExitCode(),
		)
	}

	if !m.table.Delete(id) {
		m.logger.Warn("job already removed from table", "jid", id, "pid", pid)
	}

	return ps, nil
}
