// Package jobmanager provides the job-control core of an interactive shell.
//
// A Table is the shared registry of in-flight child processes, keyed by a
// shell-scoped job id. A Launcher resolves a Command's redirects, starts the
// process and registers it in the Table. Every registered Job is then owned
// by exactly one monitor, which waits for the process to exit and removes
// the job from the Table.
//
// Foreground jobs are monitored on the caller's goroutine, so the caller
// blocks until the job has settled. Background jobs are monitored on their
// own goroutines and a Manager can join them with Wait.
package jobmanager
