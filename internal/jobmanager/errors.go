package jobmanager

import (
	"errors"
	"fmt"
)

var (
	// ErrForegroundConflict is returned by Table.Add when a foreground job is
	// added while another foreground job is still registered.
	ErrForegroundConflict = errors.New(
		"Can't add a foreground job if a foreground job already exists",
	)

	ErrEmptyProgram = errors.New("program cannot be empty")
)

// RedirectError is returned when a redirect target for a Command could not be
// opened. Nothing is spawned.
type RedirectError struct {
	Path string
	Err  error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("cannot redirect: %v", e.Err)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// SpawnError is returned when the OS refused to start the process of a
// Command. The Table is not touched.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s errored: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// RegisterError is returned when a spawned process could not be added to the
// Table. By the time it is returned the process has been killed and reaped.
type RegisterError struct {
	PID int
	Err error
}

func (e *RegisterError) Error() string {
	return e.Err.Error()
}

func (e *RegisterError) Unwrap() error {
	return e.Err
}

// ReapError is returned when waiting on a spawned process fails for a reason
// other than the process exiting unsuccessfully. A spawned process must always
// be waitable by its monitor, so this is an invariant violation.
//
// JobID is only meaningful if Registered is set. A process that was killed
// because it could not be registered never had a job id.
type ReapError struct {
	JobID      uint
	PID        int
	Registered bool
	Err        error
}

func (e *ReapError) Error() string {
	if !e.Registered {
		return fmt.Sprintf("reap unregistered process (%d): %v", e.PID, e.Err)
	}

	return fmt.Sprintf("reap job [%d] (%d): %v", e.JobID, e.PID, e.Err)
}

func (e *ReapError) Unwrap() error {
	return e.Err
}
