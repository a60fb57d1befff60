package jobmanager

import (
	"io"
	"os"
)

// Command is a parsed command line ready to be launched.
type Command struct {
	Program string
	Args    []string
	State   JobState

	// InputPath and OutputPath are redirect targets. Empty means no redirect.
	InputPath  string
	OutputPath string

	// Line is the verbatim command line, kept for reporting only.
	Line string
}

// Streams are the standard streams of the controlling terminal. Foreground
// jobs without redirects are attached to them.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// TerminalStreams returns the Streams of the current process.
func TerminalStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}
