package jobmanager

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Manager ties a Table, Launcher and Monitor together. It runs foreground
// jobs to completion on the calling goroutine and background jobs on their
// own goroutines.
type Manager struct {
	table    *Table
	launcher *Launcher
	monitor  *Monitor
	logger   *slog.Logger

	// fatal is called when a background monitor fails to reap its process.
	fatal func(error)

	monitors     sync.WaitGroup
	shutdown     chan struct{}
	shutdownOnce sync.Once

	killErrs *multierror.Error
	mu       sync.Mutex
}

// NewManager creates a Manager that registers jobs in table, attaches
// foreground jobs to terminal and writes notices through notifier.
func NewManager(
	table *Table,
	terminal Streams,
	notifier *Notifier,
	logger *slog.Logger,
) *Manager {
	m := &Manager{
		table:    table,
		launcher: NewLauncher(table, terminal, logger),
		monitor:  NewMonitor(table, notifier, logger),
		logger:   logger,
		shutdown: make(chan struct{}),
	}

	m.fatal = func(err error) {
		m.logger.Error("invariant violated", "err", err)
		panic(err)
	}

	return m
}

// OnFatal replaces the handler called when a background job can't be reaped.
// The default logs the error and panics.
func (m *Manager) OnFatal(fn func(error)) {
	m.fatal = fn
}

// Table returns the Manager's job Table.
func (m *Manager) Table() *Table {
	return m.table
}

// Run launches c and returns its job id.
//
// A foreground job is awaited before Run returns. A background job is handed
// to a new monitor goroutine and Run returns immediately.
func (m *Manager) Run(c Command) (uint, error) {
	job, err := m.launcher.Launch(c)
	if err != nil {
		return 0, err
	}

	if job.State() == JobStateForeground {
		if _, err := m.monitor.Await(job); err != nil {
			return job.ID(), err
		}

		return job.ID(), nil
	}

	m.monitor.Started(job)

	m.monitors.Go(func() {
		m.monitorBackground(job)
	})

	return job.ID(), nil
}

func (m *Manager) monitorBackground(job *Job) {
	watched := make(chan struct{})

	go func() {
		defer close(watched)

		select {
		case <-m.shutdown:
			if err := job.Kill(); err != nil &&
				!errors.Is(err, os.ErrProcessDone) {
				m.mu.Lock()
				m.killErrs = multierror.Append(
					m.killErrs,
					fmt.Errorf("kill job [%d] (%d): %w", job.ID(), job.PID(), err),
				)
				m.mu.Unlock()
			}
		case <-job.Done():
		}
	}()

	_, err := m.monitor.Await(job)

	// Await closes job.Done, so the watcher is guaranteed to return.
	<-watched

	if err != nil {
		m.fatal(err)
	}
}

// ListJobs writes the job listing to w.
func (m *Manager) ListJobs(w io.Writer) error {
	return m.table.List(w)
}

// Wait blocks until every background monitor has finished.
//
// Wait must not be called concurrently with Run, since a monitor added while
// Wait is blocked races the wait. Call it from the goroutine that calls Run,
// or use Shutdown.
func (m *Manager) Wait() {
	m.monitors.Wait()
}

// Shutdown kills any running background jobs and waits for their monitors to
// reap them. Errors from killing individual jobs are aggregated.
func (m *Manager) Shutdown() error {
	m.shutdownOnce.Do(func() {
		close(m.shutdown)
	})

	m.monitors.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.killErrs.ErrorOrNil()
}
