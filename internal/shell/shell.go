// Package shell is the interactive front end of the job-control core. It
// reads command lines, handles the `jobs` and `exit` builtins and hands
// everything else to a jobmanager.Manager.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/nixpig/jobshell/internal/jobmanager"
)

// Shell reads command lines from in and runs them with a Manager.
type Shell struct {
	manager    *jobmanager.Manager
	in         *bufio.Reader
	out        *jobmanager.Notifier
	logger     *slog.Logger
	showPrompt bool
}

// New creates a Shell. Prompts and builtin output are written to out, which
// should be the same Notifier the Manager prints job notices through.
func New(
	manager *jobmanager.Manager,
	in io.Reader,
	out *jobmanager.Notifier,
	logger *slog.Logger,
	showPrompt bool,
) *Shell {
	return &Shell{
		manager:    manager,
		in:         bufio.NewReader(in),
		out:        out,
		logger:     logger,
		showPrompt: showPrompt,
	}
}

// Run reads and executes command lines until EOF, the `exit` builtin or ctx
// is cancelled. Remaining background jobs are then killed and reaped.
//
// Failures of individual commands are printed and don't stop the loop. Run
// only returns an error if a job could not be reaped or shutdown failed.
func (s *Shell) Run(ctx context.Context) error {
	err := s.loop(ctx)

	if shutdownErr := s.manager.Shutdown(); shutdownErr != nil {
		s.logger.Error("shutdown", "err", shutdownErr)
		return multierror.Append(err, shutdownErr).ErrorOrNil()
	}

	return err
}

type readResult struct {
	line string
	err  error
}

func (s *Shell) loop(ctx context.Context) error {
	for ctx.Err() == nil {
		if s.showPrompt {
			s.out.Printf("%s", prompt())
		}

		r, ok := s.readLine(ctx)
		if !ok {
			return nil
		}

		line, readErr := r.line, r.err

		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("read command line: %w", readErr)
		}

		if line != "" {
			exit, err := s.execute(line)
			if err != nil {
				return err
			}

			if exit {
				return nil
			}
		}

		if readErr == io.EOF {
			if s.showPrompt {
				s.out.Printf("\n")
			}

			return nil
		}
	}

	return nil
}

// readLine reads the next command line, returning ok=false if ctx is
// cancelled before or while the line is read. A line that arrives after
// cancellation is dropped.
//
// Reading only starts when the shell is ready for a line, so a foreground job
// sharing stdin never competes with the shell for input.
// NOTE: On cancellation the reading goroutine stays blocked until the read
// returns. The shell exits right after, so it's not reclaimed.
func (s *Shell) readLine(ctx context.Context) (readResult, bool) {
	result := make(chan readResult, 1)

	go func() {
		line, err := s.in.ReadString('\n')
		result <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return readResult{}, false
	case r := <-result:
		if ctx.Err() != nil {
			s.logger.Debug("drop command line read after cancel", "line", r.line)
			return readResult{}, false
		}

		return r, true
	}
}

// execute runs a single command line and reports whether the shell should
// exit. Only a failure to reap a foreground job is returned as an error.
func (s *Shell) execute(line string) (bool, error) {
	c, err := Parse(line)
	if err != nil {
		s.out.Printf("jobsh: %v\n", err)
		return false, nil
	}

	switch c.Program {
	case "":
		return false, nil
	case "exit":
		return true, nil
	case "jobs":
		s.jobs(c.OutputPath)
		return false, nil
	}

	if _, err := s.manager.Run(c); err != nil {
		if errors.As(err, new(*jobmanager.ReapError)) {
			return false, err
		}

		s.logger.Debug("run command", "cmdline", c.Line, "err", err)
		s.out.Printf("%v\n", err)
	}

	return false, nil
}

// jobs lists the job table to outputPath, or to the shell's output if empty.
func (s *Shell) jobs(outputPath string) {
	if outputPath == "" {
		if err := s.manager.ListJobs(s.out); err != nil {
			s.logger.Warn("list jobs", "err", err)
		}

		return
	}

	f, err := os.Create(outputPath)
	if err != nil {
		s.out.Printf("jobs: %v\n", err)
		return
	}

	defer f.Close()

	if err := s.manager.ListJobs(f); err != nil {
		s.out.Printf("jobs: %v\n", err)
	}
}
