package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchedulerNotFound means sbatch could not be resolved.
	ErrSchedulerNotFound = errors.New("sbatch not found")

	// ErrJobIDParseFailed is logged when sbatch succeeded but printed no job id.
	ErrJobIDParseFailed = errors.New("no job id in sbatch output")
)

// SubmissionError is returned when the scheduler rejects a batch script.
// The script stays at ScriptPath so it can be inspected or resubmitted.
type SubmissionError struct {
	Scheduler  string
	ScriptPath string
	Output     string // what the scheduler printed, usually the rejection reason
	Err        error  // exit status from the submit command
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("%s rejected %s: %v", e.Scheduler, e.ScriptPath, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// NewSubmissionError wraps a failed submit of scriptPath.
func NewSubmissionError(scheduler, scriptPath, output string, err error) *SubmissionError {
	return &SubmissionError{
		Scheduler:  scheduler,
		ScriptPath: scriptPath,
		Output:     output,
		Err:        err,
	}
}

// IsSubmissionError reports whether err is, or wraps, a *SubmissionError.
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}
