package config

import "time"

const VERSION = "0.3.0"

// MinInvestVersion is the oldest InVEST release whose container image
// supports `natcap.invest run --datastack`.
const MinInvestVersion = "3.14.1"

// Config holds global application settings
type Config struct {
	Debug   bool
	Version string

	SbatchBin    string // empty means look up "sbatch" in PATH
	ScratchEnv   string // env var naming the fast scratch filesystem
	WorkspaceEnv string // env var naming node-local scratch on the compute node
	DashboardURL string

	DefaultInvestVersion string
	DefaultRuntime       time.Duration

	Script    ScriptConfig
	Container ContainerConfig
}

// ScriptConfig holds #SBATCH directive defaults.
type ScriptConfig struct {
	Partition  string
	MemPerCPU  string
	MailDomain string
	MailType   string
}

// ContainerConfig describes how the model container is launched on the node.
type ContainerConfig struct {
	Bin          string // singularity or apptainer
	ImageRepo    string
	GDALCacheMax int // 0 disables the GDAL_CACHEMAX override
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to the built-in defaults for Sherlock.
func LoadDefaults() {
	Global = Config{
		Debug:   false,
		Version: VERSION,

		SbatchBin:    "",
		ScratchEnv:   "SCRATCH",
		WorkspaceEnv: "L_SCRATCH",
		DashboardURL: "https://ondemand.sherlock.stanford.edu/pun/sys/dashboard/activejobs",

		DefaultInvestVersion: MinInvestVersion,
		DefaultRuntime:       30 * time.Minute,

		Script: ScriptConfig{
			Partition:  "hns,normal",
			MemPerCPU:  "4G",
			MailDomain: "stanford.edu",
			MailType:   "ALL",
		},
		Container: ContainerConfig{
			Bin:          "singularity",
			ImageRepo:    "docker://ghcr.io/natcap/invest",
			GDALCacheMax: 128,
		},
	}
}
