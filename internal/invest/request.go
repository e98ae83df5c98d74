// Package invest turns an InVEST model run into a SLURM batch submission.
package invest

import (
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/natcap/invest-submit/internal/config"
	"github.com/natcap/invest-submit/internal/utils"
)

// SyncWorkers is the n_workers value that makes InVEST run every task
// synchronously in the main process.
const SyncWorkers = -1

// MinRuntime is the shortest wall-clock limit that renders as non-zero.
const MinRuntime = time.Second

const timestampLayout = "2006-01-02--15-04-05"

var (
	envNameRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	directiveRe = regexp.MustCompile(`^[^\s]*$`)
	mailUserRe  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+$`)
)

// ScriptOptions are the cluster-specific knobs of the rendered script.
type ScriptOptions struct {
	Partition    string
	MemPerCPU    string
	MailDomain   string
	MailType     string
	ContainerBin string
	ImageRepo    string
	GDALCacheMax int    // 0 drops the GDAL_CACHEMAX override
	ScratchEnv   string // where the datastack is extracted
	WorkspaceEnv string // node-local dir the model writes its workspace into
}

// OptionsFromConfig copies the script settings out of a loaded config.
func OptionsFromConfig(c config.Config) ScriptOptions {
	return ScriptOptions{
		Partition:    c.Script.Partition,
		MemPerCPU:    c.Script.MemPerCPU,
		MailDomain:   c.Script.MailDomain,
		MailType:     c.Script.MailType,
		ContainerBin: c.Container.Bin,
		ImageRepo:    c.Container.ImageRepo,
		GDALCacheMax: c.Container.GDALCacheMax,
		ScratchEnv:   c.ScratchEnv,
		WorkspaceEnv: c.WorkspaceEnv,
	}
}

// SubmissionRequest is one model run to submit. Username, Timestamp and
// Nonce are captured once by NewRequest so every name derived from the
// request agrees.
type SubmissionRequest struct {
	ModelName     string
	SourceArchive string
	Destination   string
	Version       string
	Runtime       time.Duration
	NWorkers      int

	Username  string
	Timestamp time.Time
	Nonce     string

	Options ScriptOptions
}

// NewRequest builds a request with the default version, runtime and a
// synchronous worker count.
func NewRequest(model, source, destination string, opts ScriptOptions) *SubmissionRequest {
	return &SubmissionRequest{
		ModelName:     model,
		SourceArchive: source,
		Destination:   destination,
		Version:       config.MinInvestVersion,
		Runtime:       30 * time.Minute,
		NWorkers:      SyncWorkers,
		Username:      currentUsername(),
		Timestamp:     time.Now(),
		Nonce:         strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Options:       opts,
	}
}

func currentUsername() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// Validate reports the first field that would produce a broken submission.
func (r *SubmissionRequest) Validate() error {
	required := []struct{ field, value string }{
		{"model name", r.ModelName},
		{"source datastack", r.SourceArchive},
		{"destination", r.Destination},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return newValidationError(f.field, "", "must not be empty")
		}
	}

	if r.NWorkers < SyncWorkers {
		return newValidationError("n_workers", strconv.Itoa(r.NWorkers), "must be -1 or greater")
	}
	// sbatch reads --time=00:00:00 as no limit
	if r.Runtime < MinRuntime {
		return newValidationError("runtime", r.Runtime.String(), "must be at least "+MinRuntime.String())
	}
	if err := checkVersion(r.Version); err != nil {
		return err
	}

	o := r.Options
	for _, env := range []struct{ field, value string }{
		{"scratch env", o.ScratchEnv},
		{"workspace env", o.WorkspaceEnv},
	} {
		if !envNameRe.MatchString(env.value) {
			return newValidationError(env.field, env.value, "must be a shell variable name")
		}
	}
	for _, d := range []struct{ field, value string }{
		{"partition", o.Partition},
		{"mem per cpu", o.MemPerCPU},
		{"mail type", o.MailType},
		{"mail domain", o.MailDomain},
	} {
		if !directiveRe.MatchString(d.value) {
			return newValidationError(d.field, d.value, "must not contain whitespace")
		}
	}
	if o.ContainerBin == "" {
		return newValidationError("container bin", "", "must not be empty")
	}
	if o.ImageRepo == "" {
		return newValidationError("image repo", "", "must not be empty")
	}
	if o.GDALCacheMax < 0 {
		return newValidationError("gdal cachemax", strconv.Itoa(o.GDALCacheMax), "must not be negative")
	}
	return nil
}

// checkVersion enforces the oldest InVEST release with datastack support.
func checkVersion(version string) error {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return newValidationError("invest version", version, "not a semantic version")
	}
	if semver.Compare(v, "v"+config.MinInvestVersion) < 0 {
		return newValidationError("invest version", version,
			fmt.Sprintf("must be at least %s", config.MinInvestVersion))
	}
	return nil
}

// CPUs is the number of CPUs to request: one per worker, and one for a
// synchronous run.
func (r *SubmissionRequest) CPUs() int {
	if r.NWorkers < 1 {
		return 1
	}
	return r.NWorkers
}

// PatchesWorkers reports whether the datastack parameters need an
// explicit n_workers. -1 is InVEST's own default.
func (r *SubmissionRequest) PatchesWorkers() bool {
	return r.NWorkers != SyncWorkers
}

// SafeModelName is the model name reduced to filename-safe characters.
func (r *SubmissionRequest) SafeModelName() string {
	return utils.SafeName(r.ModelName)
}

// TimestampString formats the captured timestamp for file and dir names.
func (r *SubmissionRequest) TimestampString() string {
	return r.Timestamp.Format(timestampLayout)
}

// JobName is the scheduler-visible job name.
func (r *SubmissionRequest) JobName() string {
	return "InVEST-" + r.SafeModelName()
}

// ScriptFilename is unique per request: the timestamp has one-second
// resolution, so the nonce separates submissions made in the same second.
func (r *SubmissionRequest) ScriptFilename() string {
	return fmt.Sprintf("InVEST-%s-%s-%s.sbatch", r.SafeModelName(), r.TimestampString(), r.Nonce)
}

// DatastackDirName is the scratch directory the archive is extracted into.
func (r *SubmissionRequest) DatastackDirName() string {
	return fmt.Sprintf("InVEST-%s-inputs-%s-%s", r.SafeModelName(), r.TimestampString(), r.Nonce)
}

// MailUser is the notification address, or "" when it cannot be formed.
func (r *SubmissionRequest) MailUser() string {
	if r.Username == "" || r.Options.MailDomain == "" {
		return ""
	}
	addr := r.Username + "@" + r.Options.MailDomain
	if !mailUserRe.MatchString(addr) {
		return ""
	}
	return addr
}

// PositionalArgs are passed to the script as $1..$5. The script ignores $5
// and keeps its rendered n_workers, which matches --cpus-per-task.
func (r *SubmissionRequest) PositionalArgs() []string {
	return []string{
		r.Version,
		r.ModelName,
		r.SourceArchive,
		r.Destination,
		strconv.Itoa(r.NWorkers),
	}
}
