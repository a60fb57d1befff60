package jobmanager

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Job is the handle to a spawned process. It is owned by exactly one monitor
// once registered, and by the Launcher before that.
type Job struct {
	id      uint
	state   JobState
	cmdline string

	cmd *exec.Cmd

	done     chan struct{}
	doneOnce sync.Once
}

// NewJob creates a Job for program and args with the given standard streams.
// A nil stream is connected to the null device.
func NewJob(
	program string,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
) (*Job, error) {
	if program == "" {
		return nil, ErrEmptyProgram
	}

	cmd := exec.Command(program, args...)

	// Leaving a stream unset makes exec connect it to os.DevNull.
	if stdin != nil {
		cmd.Stdin = stdin
	}

	if stdout != nil {
		cmd.Stdout = stdout
	}

	if stderr != nil {
		cmd.Stderr = stderr
	}

	return &Job{
		cmd:  cmd,
		done: make(chan struct{}),
	}, nil
}

// Start starts the process.
func (j *Job) Start() error {
	return j.cmd.Start()
}

// Kill sends SIGKILL to the process. Killing a process that has already been
// reaped returns os.ErrProcessDone.
func (j *Job) Kill() error {
	return j.cmd.Process.Kill()
}

// Wait blocks until the process exits and returns its state. An unsuccessful
// exit status is not an error; any other failure to wait is.
func (j *Job) Wait() (*os.ProcessState, error) {
	defer j.doneOnce.Do(func() { close(j.done) })

	if err := j.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}

	return j.cmd.ProcessState, nil
}

// Done returns a channel that is closed once Wait has returned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// ID returns the job id assigned on registration.
func (j *Job) ID() uint {
	return j.id
}

// PID returns the OS process id, or -1 if the process hasn't been started.
func (j *Job) PID() int {
	if j.cmd.Process == nil {
		return -1
	}

	return j.cmd.Process.Pid
}

// State returns the state the Job was registered with.
func (j *Job) State() JobState {
	return j.state
}

// CommandLine returns the original command line of the Job.
func (j *Job) CommandLine() string {
	return j.cmdline
}
