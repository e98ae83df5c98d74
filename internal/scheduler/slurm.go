package scheduler

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/natcap/invest-submit/internal/utils"
)

// SlurmScheduler implements the Scheduler interface for SLURM
type SlurmScheduler struct {
	sbatchBin string
	runner    Runner
	jobIDRe   *regexp.Regexp
}

// NewSlurmScheduler creates a SLURM scheduler. An empty sbatchBin means
// "sbatch" is looked up in PATH.
func NewSlurmScheduler(sbatchBin string) (*SlurmScheduler, error) {
	binPath := sbatchBin
	if binPath == "" {
		var err error
		binPath, err = exec.LookPath("sbatch")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
	} else {
		if absPath, err := filepath.Abs(binPath); err == nil {
			binPath = absPath
		}
		info, err := os.Stat(binPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrSchedulerNotFound, binPath)
		}
	}

	return newSlurm(binPath, ExecRunner{}), nil
}

func newSlurm(bin string, runner Runner) *SlurmScheduler {
	return &SlurmScheduler{
		sbatchBin: bin,
		runner:    runner,
		jobIDRe:   regexp.MustCompile(`Submitted batch job (\d+)`),
	}
}

// Binary returns the resolved sbatch path.
func (s *SlurmScheduler) Binary() string {
	return s.sbatchBin
}

// GetInfo returns information about the SLURM scheduler
func (s *SlurmScheduler) GetInfo() *SchedulerInfo {
	inJob := IsInsideJob()
	info := &SchedulerInfo{
		Type:      "SLURM",
		Binary:    s.sbatchBin,
		InJob:     inJob,
		Available: s.sbatchBin != "",
	}
	if version, err := s.getSlurmVersion(); err == nil {
		info.Version = version
	}
	return info
}

// getSlurmVersion parses output like "slurm 23.02.6"
func (s *SlurmScheduler) getSlurmVersion() (string, error) {
	output, err := s.runner.Run(s.sbatchBin, "--version")
	if err != nil {
		return "", err
	}
	versionStr := strings.TrimSpace(string(output))
	parts := strings.Fields(versionStr)
	if len(parts) >= 2 {
		return parts[1], nil
	}
	return versionStr, nil
}

// BuildArgs returns the sbatch argument vector for a submission.
func BuildArgs(scriptPath string, opts SubmitOptions, args []string) []string {
	argv := make([]string, 0, len(args)+3)
	if opts.Time > 0 {
		argv = append(argv, "--time="+FormatTime(opts.Time))
	}
	if opts.CPUs > 0 {
		argv = append(argv, fmt.Sprintf("--cpus-per-task=%d", opts.CPUs))
	}
	argv = append(argv, scriptPath)
	return append(argv, args...)
}

// Submit submits a SLURM job. A non-zero exit from sbatch is returned as a
// *SubmissionError carrying the scheduler output.
func (s *SlurmScheduler) Submit(scriptPath string, opts SubmitOptions, args []string) (*Submission, error) {
	argv := BuildArgs(scriptPath, opts, args)
	utils.PrintDebug("Executing: %s %s", s.sbatchBin, strings.Join(argv, " "))

	output, err := s.runner.Run(s.sbatchBin, argv...)
	out := strings.TrimSpace(string(output))
	if err != nil {
		return nil, NewSubmissionError("SLURM", scriptPath, out, err)
	}

	sub := &Submission{Output: out}
	if m := s.jobIDRe.FindStringSubmatch(out); len(m) == 2 {
		sub.JobID = m[1]
	} else {
		utils.PrintDebug("%v: %s", ErrJobIDParseFailed, out)
	}
	return sub, nil
}

// FormatTime renders a duration the way sbatch --time accepts it:
// HH:MM:SS, or D-HH:MM:SS once it reaches a day.
func FormatTime(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int64(d / time.Second)
	days := total / (24 * 3600)
	rem := total % (24 * 3600)
	hours := rem / 3600
	minutes := rem % 3600 / 60
	seconds := rem % 60
	if days > 0 {
		return fmt.Sprintf("%d-%02d:%02d:%02d", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
