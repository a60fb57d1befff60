package shell

import (
	"errors"
	"strings"

	"github.com/nixpig/jobshell/internal/jobmanager"
)

var ErrMissingRedirectTarget = errors.New("missing redirection target")

// Parse splits line on whitespace into a Command. A `<` or `>` token takes
// the following token as the input or output redirect target, and a trailing
// `&` token makes the Command a background job.
//
// An empty or blank line returns a Command with an empty Program.
func Parse(line string) (jobmanager.Command, error) {
	c := jobmanager.Command{
		State: jobmanager.JobStateForeground,
		Line:  strings.TrimSpace(line),
	}

	tokens := strings.Fields(line)

	if n := len(tokens); n > 0 && tokens[n-1] == "&" {
		c.State = jobmanager.JobStateBackground
		tokens = tokens[:n-1]
	}

	var words []string

	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "<", ">":
			if i+1 >= len(tokens) {
				return jobmanager.Command{}, ErrMissingRedirectTarget
			}

			if tokens[i] == "<" {
				c.InputPath = tokens[i+1]
			} else {
				c.OutputPath = tokens[i+1]
			}

			i++
		default:
			words = append(words, tokens[i])
		}
	}

	if len(words) > 0 {
		c.Program = words[0]
		c.Args = words[1:]
	}

	return c, nil
}
