// Package scheduler hands rendered batch scripts to the cluster job queue
package scheduler

import (
	"os"
	"os/exec"
	"time"
)

// SchedulerInfo holds information about the detected scheduler
type SchedulerInfo struct {
	Type      string // Scheduler type (e.g., "SLURM")
	Binary    string // Path to scheduler binary (e.g., "/usr/bin/sbatch")
	Version   string // Scheduler version (if available)
	InJob     bool   // Whether we're currently inside a scheduled job
	Available bool   // Whether scheduler is available for job submission
}

// SubmitOptions are command-line overrides passed to the submit command.
// They take precedence over the directives embedded in the script.
type SubmitOptions struct {
	Time time.Duration // Wall-clock limit; 0 leaves the script directive alone
	CPUs int           // CPUs per task; <= 0 leaves the script directive alone
}

// Submission is what the scheduler told us after accepting a script.
type Submission struct {
	JobID  string // Empty when the output could not be parsed
	Output string // Raw scheduler output
}

// Scheduler submits batch scripts. Only acceptance is reported; the job's
// lifecycle after that belongs to the cluster.
type Scheduler interface {
	// Submit queues scriptPath with the given overrides. args are passed to
	// the script as positional parameters ($1, $2, ...).
	Submit(scriptPath string, opts SubmitOptions, args []string) (*Submission, error)

	// GetInfo returns information about the scheduler
	GetInfo() *SchedulerInfo
}

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// IsInsideJob checks if we're currently running inside a SLURM job.
// Submitting from inside an allocation works but is usually a mistake.
func IsInsideJob() bool {
	_, ok := os.LookupEnv("SLURM_JOB_ID")
	return ok
}
