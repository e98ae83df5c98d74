package invest

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/natcap/invest-submit/internal/config"
)

// newTestRequest returns the carbon example with deterministic identity fields.
func newTestRequest() *SubmissionRequest {
	config.LoadDefaults()
	r := NewRequest("carbon", "/tmp/carbon-inputs.tar.gz", "/data/out", OptionsFromConfig(config.Global))
	r.Username = "jdoe"
	r.Timestamp = time.Date(2026, 10, 19, 14, 5, 9, 0, time.UTC)
	r.Nonce = "abcd1234"
	return r
}

func TestNewRequestDefaults(t *testing.T) {
	t.Setenv("USER", "someone")
	config.LoadDefaults()
	r := NewRequest("carbon", "a.tgz", "/out", OptionsFromConfig(config.Global))

	if r.Version != "3.14.1" {
		t.Errorf("Version = %q; want 3.14.1", r.Version)
	}
	if r.Runtime != 30*time.Minute {
		t.Errorf("Runtime = %v; want 30m", r.Runtime)
	}
	if r.NWorkers != -1 {
		t.Errorf("NWorkers = %d; want -1", r.NWorkers)
	}
	if r.Username != "someone" {
		t.Errorf("Username = %q; want someone", r.Username)
	}
	if len(r.Nonce) != 8 {
		t.Errorf("Nonce = %q; want 8 characters", r.Nonce)
	}
	if r.Timestamp.IsZero() {
		t.Error("Timestamp not captured")
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() on defaults: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *SubmissionRequest)
		wantErr bool
	}{
		{"valid", func(r *SubmissionRequest) {}, false},
		{"empty model", func(r *SubmissionRequest) { r.ModelName = "" }, true},
		{"blank source", func(r *SubmissionRequest) { r.SourceArchive = "   " }, true},
		{"empty destination", func(r *SubmissionRequest) { r.Destination = "" }, true},
		{"workers -1", func(r *SubmissionRequest) { r.NWorkers = -1 }, false},
		{"workers 0", func(r *SubmissionRequest) { r.NWorkers = 0 }, false},
		{"workers 16", func(r *SubmissionRequest) { r.NWorkers = 16 }, false},
		{"workers -2", func(r *SubmissionRequest) { r.NWorkers = -2 }, true},
		{"zero runtime", func(r *SubmissionRequest) { r.Runtime = 0 }, true},
		{"negative runtime", func(r *SubmissionRequest) { r.Runtime = -time.Minute }, true},
		{"sub-second runtime", func(r *SubmissionRequest) { r.Runtime = 500 * time.Millisecond }, true},
		{"one second runtime", func(r *SubmissionRequest) { r.Runtime = time.Second }, false},
		{"newer version", func(r *SubmissionRequest) { r.Version = "3.15.0" }, false},
		{"v-prefixed version", func(r *SubmissionRequest) { r.Version = "v3.14.2" }, false},
		{"old version", func(r *SubmissionRequest) { r.Version = "3.13.0" }, true},
		{"non-semver version", func(r *SubmissionRequest) { r.Version = "latest" }, true},
		{"version with shell", func(r *SubmissionRequest) { r.Version = "3.14.1; id" }, true},
		{"bad scratch env", func(r *SubmissionRequest) { r.Options.ScratchEnv = "SCRATCH}; id; #" }, true},
		{"bad workspace env", func(r *SubmissionRequest) { r.Options.WorkspaceEnv = "1X" }, true},
		{"partition with newline", func(r *SubmissionRequest) { r.Options.Partition = "normal\nrm -rf ~" }, true},
		{"empty partition", func(r *SubmissionRequest) { r.Options.Partition = "" }, false},
		{"no container bin", func(r *SubmissionRequest) { r.Options.ContainerBin = "" }, true},
		{"no image repo", func(r *SubmissionRequest) { r.Options.ImageRepo = "" }, true},
		{"negative cache", func(r *SubmissionRequest) { r.Options.GDALCacheMax = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRequest()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err != nil && !IsValidationError(err) {
				t.Errorf("error %T is not a ValidationError", err)
			}
		})
	}
}

func TestCPUs(t *testing.T) {
	tests := []struct {
		workers int
		want    int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{4, 4},
		{32, 32},
	}
	for _, tt := range tests {
		r := newTestRequest()
		r.NWorkers = tt.workers
		if got := r.CPUs(); got != tt.want {
			t.Errorf("CPUs() with n_workers=%d = %d; want %d", tt.workers, got, tt.want)
		}
	}
}

func TestDerivedNames(t *testing.T) {
	r := newTestRequest()

	if got, want := r.ScriptFilename(), "InVEST-carbon-2026-10-19--14-05-09-abcd1234.sbatch"; got != want {
		t.Errorf("ScriptFilename() = %q; want %q", got, want)
	}
	if got, want := r.DatastackDirName(), "InVEST-carbon-inputs-2026-10-19--14-05-09-abcd1234"; got != want {
		t.Errorf("DatastackDirName() = %q; want %q", got, want)
	}
	if got := r.JobName(); got != "InVEST-carbon" {
		t.Errorf("JobName() = %q", got)
	}
	if got := r.MailUser(); got != "jdoe@stanford.edu" {
		t.Errorf("MailUser() = %q", got)
	}

	r.ModelName = "../../etc/passwd"
	if name := r.ScriptFilename(); strings.Contains(name, "/") {
		t.Errorf("ScriptFilename() leaks a path separator: %q", name)
	}
}

func TestScriptFilenameDistinctWithinSameSecond(t *testing.T) {
	config.LoadDefaults()
	opts := OptionsFromConfig(config.Global)
	stamp := time.Date(2026, 10, 19, 14, 5, 9, 0, time.UTC)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		r := NewRequest("carbon", "a.tgz", "/out", opts)
		r.Timestamp = stamp
		name := r.ScriptFilename()
		if seen[name] {
			t.Fatalf("duplicate script filename %q", name)
		}
		seen[name] = true
	}
}

func TestMailUserOmittedWhenUnusable(t *testing.T) {
	r := newTestRequest()
	r.Username = ""
	if got := r.MailUser(); got != "" {
		t.Errorf("MailUser() with no username = %q", got)
	}
	r.Username = "bad user"
	if got := r.MailUser(); got != "" {
		t.Errorf("MailUser() with whitespace = %q", got)
	}
}

func TestPositionalArgs(t *testing.T) {
	r := newTestRequest()
	want := []string{"3.14.1", "carbon", "/tmp/carbon-inputs.tar.gz", "/data/out", "-1"}
	if got := r.PositionalArgs(); !reflect.DeepEqual(got, want) {
		t.Errorf("PositionalArgs() = %q; want %q", got, want)
	}
}
