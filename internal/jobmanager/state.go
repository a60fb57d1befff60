package jobmanager

type JobState int

const (
	// JobStateForeground indicates the shell is waiting synchronously for the
	// job to exit. At most one job is in this state at a time.
	JobStateForeground JobState = iota + 1

	// JobStateBackground indicates the job is awaited concurrently while the
	// shell keeps accepting input.
	JobStateBackground
)

// NOTE: This slice needs to be kept in sync with the JobState values. Index 0
// is the zero value, which is never stored in a Table.
var jobStates = []string{
	"Unknown",
	"Foreground",
	"Background",
}

// String implements the Stringer interface for JobState and returns a string
// representation of the JobState by using the int value to index into a slice.
func (s JobState) String() string {
	if int(s) < 0 || int(s) >= len(jobStates) {
		return jobStates[0]
	}

	return jobStates[s]
}
