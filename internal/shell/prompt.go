package shell

import (
	"fmt"
	"os"
	"os/user"
)

// prompt returns the `user@host cwd $ ` prompt. Any part that can't be
// resolved is shown as `?`.
func prompt() string {
	username := "?"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "?"
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "?"
	}

	return fmt.Sprintf("%s@%s %s $ ", username, hostname, cwd)
}
