package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// isolate points the user config lookup at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	LoadDefaults()
	return dir
}

func TestLoadDefaults(t *testing.T) {
	LoadDefaults()
	if Global.ScratchEnv != "SCRATCH" {
		t.Errorf("ScratchEnv = %q; want SCRATCH", Global.ScratchEnv)
	}
	if Global.DefaultInvestVersion != "3.14.1" {
		t.Errorf("DefaultInvestVersion = %q; want 3.14.1", Global.DefaultInvestVersion)
	}
	if Global.DefaultRuntime != 30*time.Minute {
		t.Errorf("DefaultRuntime = %v; want 30m", Global.DefaultRuntime)
	}
	if Global.Container.GDALCacheMax != 128 {
		t.Errorf("GDALCacheMax = %d; want 128", Global.Container.GDALCacheMax)
	}
}

func TestInitViperWithoutConfigFile(t *testing.T) {
	isolate(t)

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper() error: %v", err)
	}
	LoadFromViper()

	if Global.Script.Partition != "hns,normal" {
		t.Errorf("Partition = %q; want hns,normal", Global.Script.Partition)
	}
	if got := viper.GetString("default_runtime"); got != "00:30:00" {
		t.Errorf("default_runtime = %q; want 00:30:00", got)
	}
}

func TestInitViperReadsUserConfig(t *testing.T) {
	dir := isolate(t)

	cfgDir := filepath.Join(dir, appDirName)
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `script:
  partition: serc
  mail_domain: example.org
container:
  bin: apptainer
  gdal_cachemax: 0
default_runtime: "2:00:00"
`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper() error: %v", err)
	}
	LoadFromViper()

	if Global.Script.Partition != "serc" {
		t.Errorf("Partition = %q; want serc", Global.Script.Partition)
	}
	if Global.Script.MailDomain != "example.org" {
		t.Errorf("MailDomain = %q; want example.org", Global.Script.MailDomain)
	}
	if Global.Container.Bin != "apptainer" {
		t.Errorf("Container.Bin = %q; want apptainer", Global.Container.Bin)
	}
	if Global.Container.GDALCacheMax != 0 {
		t.Errorf("GDALCacheMax = %d; want 0", Global.Container.GDALCacheMax)
	}
	if Global.DefaultRuntime != 2*time.Hour {
		t.Errorf("DefaultRuntime = %v; want 2h", Global.DefaultRuntime)
	}
	// untouched keys keep their defaults
	if Global.Script.MemPerCPU != "4G" {
		t.Errorf("MemPerCPU = %q; want 4G", Global.Script.MemPerCPU)
	}
}

func TestEnvOverridesNestedKey(t *testing.T) {
	isolate(t)
	t.Setenv("INVEST_SUBMIT_SCRIPT_PARTITION", "owners")
	t.Setenv("INVEST_SUBMIT_SCRATCH_ENV", "GROUP_SCRATCH")

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper() error: %v", err)
	}
	LoadFromViper()

	if Global.Script.Partition != "owners" {
		t.Errorf("Partition = %q; want owners", Global.Script.Partition)
	}
	if Global.ScratchEnv != "GROUP_SCRATCH" {
		t.Errorf("ScratchEnv = %q; want GROUP_SCRATCH", Global.ScratchEnv)
	}
}

func TestInvalidRuntimeKeepsDefault(t *testing.T) {
	isolate(t)
	t.Setenv("INVEST_SUBMIT_DEFAULT_RUNTIME", "whenever")

	if err := InitViper(); err != nil {
		t.Fatalf("InitViper() error: %v", err)
	}
	LoadFromViper()

	if Global.DefaultRuntime != 30*time.Minute {
		t.Errorf("DefaultRuntime = %v; want 30m", Global.DefaultRuntime)
	}
}

func TestSaveConfigWritesUserFile(t *testing.T) {
	isolate(t)
	if err := InitViper(); err != nil {
		t.Fatal(err)
	}
	viper.Set("script.partition", "serc")

	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	path, err := GetUserConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("config file is empty")
	}
}

func TestEnvVarName(t *testing.T) {
	tests := map[string]string{
		"scratch_env":             "INVEST_SUBMIT_SCRATCH_ENV",
		"script.partition":        "INVEST_SUBMIT_SCRIPT_PARTITION",
		"container.gdal_cachemax": "INVEST_SUBMIT_CONTAINER_GDAL_CACHEMAX",
	}
	for key, want := range tests {
		if got := EnvVarName(key); got != want {
			t.Errorf("EnvVarName(%q) = %q; want %q", key, got, want)
		}
	}
}
