package jobmanager

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
)

type entry struct {
	pid     int
	state   JobState
	cmdline string
}

// Table is the registry of in-flight jobs shared by the shell loop and every
// job monitor. All methods are safe for concurrent use and none of them block
// on anything other than the Table's own mutex.
type Table struct {
	jobs map[uint]entry

	// NOTE: Job ids are a watermark, not a freelist. Deleting the job holding
	// the highest id lowers the watermark to the next highest remaining id;
	// deleting any other job leaves a gap that is not refilled.
	maxID    uint
	hasMaxID bool

	fgID    uint
	hasFgID bool

	mu sync.Mutex
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{jobs: make(map[uint]entry)}
}

// Add registers the process pid with the given state and command line and
// returns its job id. Adding a foreground job while one is already registered
// returns ErrForegroundConflict and leaves the Table unchanged.
func (t *Table) Add(pid int, state JobState, cmdline string) (uint, error) {
	if state != JobStateForeground && state != JobStateBackground {
		return 0, fmt.Errorf("add job with invalid state: %s", state)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if state == JobStateForeground && t.hasFgID {
		return 0, ErrForegroundConflict
	}

	var id uint
	if t.hasMaxID {
		id = t.maxID + 1
	}

	t.jobs[id] = entry{pid: pid, state: state, cmdline: cmdline}
	t.maxID, t.hasMaxID = id, true

	if state == JobStateForeground {
		t.fgID, t.hasFgID = id, true
	}

	return id, nil
}

// Delete removes the job with the given id and reports whether it existed.
func (t *Table) Delete(id uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.jobs[id]; !exists {
		return false
	}

	delete(t.jobs, id)

	if t.hasMaxID && t.maxID == id {
		t.hasMaxID = len(t.jobs) > 0
		t.maxID = 0

		for jid := range t.jobs {
			t.maxID = max(t.maxID, jid)
		}
	}

	if t.hasFgID && t.fgID == id {
		t.fgID, t.hasFgID = 0, false
	}

	return true
}

// State returns the state of the job with the given id.
func (t *Table) State(id uint) (JobState, bool) {
	e, ok := t.get(id)
	return e.state, ok
}

// PID returns the OS process id of the job with the given id.
func (t *Table) PID(id uint) (int, bool) {
	e, ok := t.get(id)
	return e.pid, ok
}

// CommandLine returns the command line the job with the given id was started
// with.
func (t *Table) CommandLine(id uint) (string, bool) {
	e, ok := t.get(id)
	return e.cmdline, ok
}

// Foreground returns the id of the current foreground job, if any.
func (t *Table) Foreground() (uint, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.fgID, t.hasFgID
}

// JobID returns the id of the job tracking the OS process pid.
func (t *Table) JobID(pid int) (uint, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, e := range t.jobs {
		if e.pid == pid {
			return id, true
		}
	}

	return 0, false
}

// Len returns the number of registered jobs.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.jobs)
}

// List writes one line per registered job to w, formatted as
// `[<id>] (<pid>) <state> <command line>`.
//
// The lines are written from a snapshot taken under the lock, so a slow w
// never holds up monitors deleting their jobs.
func (t *Table) List(w io.Writer) error {
	t.mu.Lock()
	snapshot := maps.Clone(t.jobs)
	t.mu.Unlock()

	for _, id := range slices.Sorted(maps.Keys(snapshot)) {
		e := snapshot[id]

		if _, err := fmt.Fprintf(
			w,
			"[%d] (%d) %s %s\n",
			id,
			e.pid,
			e.state,
			e.cmdline,
		); err != nil {
			return fmt.Errorf("write job %d: %w", id, err)
		}
	}

	return nil
}

func (t *Table) get(id uint) (entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.jobs[id]
	return e, ok
}
