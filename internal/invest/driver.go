package invest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/natcap/invest-submit/internal/scheduler"
	"github.com/natcap/invest-submit/internal/utils"
)

// Submitter writes rendered scripts to scratch and queues them.
type Submitter struct {
	Scheduler scheduler.Scheduler
	// Getenv resolves the scratch location; defaults to os.Getenv.
	Getenv func(string) string
}

// Result describes a prepared or submitted job.
type Result struct {
	ScriptPath string
	Script     string
	Submission *scheduler.Submission // nil until submitted
}

// NewSubmitter creates a Submitter reading the real environment.
func NewSubmitter(s scheduler.Scheduler) *Submitter {
	return &Submitter{Scheduler: s, Getenv: os.Getenv}
}

// ScratchDir resolves the directory the script is written to.
func (s *Submitter) ScratchDir(r *SubmissionRequest) (string, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	key := r.Options.ScratchEnv
	dir := strings.TrimSpace(getenv(key))
	if dir == "" {
		return "", NewConfigurationError("$"+key, "is not set; it must point at a scratch directory")
	}
	return dir, nil
}

// Prepare validates and renders the request and picks the script path.
// Nothing is written.
func (s *Submitter) Prepare(r *SubmissionRequest) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	dir, err := s.ScratchDir(r)
	if err != nil {
		return nil, err
	}
	script, err := Render(r)
	if err != nil {
		return nil, err
	}
	return &Result{
		ScriptPath: filepath.Join(dir, r.ScriptFilename()),
		Script:     script,
	}, nil
}

// Submit writes the script and makes a single submission attempt.
// Errors are *ValidationError, *ConfigurationError, *ScriptWriteError or
// *scheduler.SubmissionError.
func (s *Submitter) Submit(r *SubmissionRequest) (*Result, error) {
	res, err := s.Prepare(r)
	if err != nil {
		return nil, err
	}

	if err := utils.WriteNewFile(res.ScriptPath, []byte(res.Script), utils.PermExec); err != nil {
		return res, NewScriptWriteError(res.ScriptPath, err)
	}
	utils.PrintDebug("Batch script written to %s", utils.StylePath(res.ScriptPath))

	opts := scheduler.SubmitOptions{Time: r.Runtime, CPUs: r.CPUs()}
	sub, err := s.Scheduler.Submit(res.ScriptPath, opts, r.PositionalArgs())
	if err != nil {
		return res, err
	}
	res.Submission = sub
	return res, nil
}

// Guidance lists the status-check hints shown after a successful submit.
func Guidance(r *SubmissionRequest, res *Result, dashboardURL string) []string {
	var lines []string
	if res != nil && res.Submission != nil && res.Submission.JobID != "" {
		lines = append(lines, "Check on this job with `squeue -j "+res.Submission.JobID+"`")
	}
	if r.Username != "" {
		lines = append(lines, "Check on your job status with `squeue -u "+r.Username+"`")
	}
	if dashboardURL != "" {
		lines = append(lines, "Alternatively, view your jobs at "+dashboardURL)
	}
	return lines
}
