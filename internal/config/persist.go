package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/natcap/invest-submit/internal/utils"
	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// EnvPrefix is prepended to every environment override (INVEST_SUBMIT_SCRIPT_PARTITION, ...)
const EnvPrefix = "INVEST_SUBMIT"

const appDirName = "invest-submit"

// envKeyReplacer maps nested keys to env names: script.partition -> SCRIPT_PARTITION
var envKeyReplacer = strings.NewReplacer(".", "_")

// Keys lists every known configuration key.
var Keys = []string{
	"sbatch_bin",
	"scratch_env",
	"workspace_env",
	"dashboard_url",
	"default_version",
	"default_runtime",
	"script.partition",
	"script.mem_per_cpu",
	"script.mail_domain",
	"script.mail_type",
	"container.bin",
	"container.image_repo",
	"container.gdal_cachemax",
}

// EnvVarName returns the environment variable that overrides key.
func EnvVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(key))
}

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (INVEST_SUBMIT_*)
// 3. User config file (~/.config/invest-submit/config.yaml)
// 4. System config file (/etc/invest-submit/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, appDirName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, "."+appDirName))
	}
	viper.AddConfigPath(filepath.Join("/etc", appDirName))

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	utils.PrintDebug("Using config file: %s", utils.StylePath(viper.ConfigFileUsed()))
	return nil
}

// setDefaults mirrors LoadDefaults so that `config show` and env overrides
// see every key even without a config file.
func setDefaults() {
	d := Global
	viper.SetDefault("sbatch_bin", d.SbatchBin)
	viper.SetDefault("scratch_env", d.ScratchEnv)
	viper.SetDefault("workspace_env", d.WorkspaceEnv)
	viper.SetDefault("dashboard_url", d.DashboardURL)
	viper.SetDefault("default_version", d.DefaultInvestVersion)
	viper.SetDefault("default_runtime", utils.FormatHMS(d.DefaultRuntime))

	viper.SetDefault("script.partition", d.Script.Partition)
	viper.SetDefault("script.mem_per_cpu", d.Script.MemPerCPU)
	viper.SetDefault("script.mail_domain", d.Script.MailDomain)
	viper.SetDefault("script.mail_type", d.Script.MailType)

	viper.SetDefault("container.bin", d.Container.Bin)
	viper.SetDefault("container.image_repo", d.Container.ImageRepo)
	viper.SetDefault("container.gdal_cachemax", d.Container.GDALCacheMax)
}

// LoadFromViper loads config from Viper into Global struct.
// Invalid values are reported and the default is kept.
func LoadFromViper() {
	if bin := viper.GetString("sbatch_bin"); bin != "" {
		Global.SbatchBin = bin
	}
	if v := viper.GetString("scratch_env"); v != "" {
		Global.ScratchEnv = v
	}
	if v := viper.GetString("workspace_env"); v != "" {
		Global.WorkspaceEnv = v
	}
	if v := viper.GetString("dashboard_url"); v != "" {
		Global.DashboardURL = v
	}
	if v := viper.GetString("default_version"); v != "" {
		Global.DefaultInvestVersion = v
	}
	if v := viper.GetString("default_runtime"); v != "" {
		if dur, err := utils.ParseDuration(v); err == nil && dur >= time.Second {
			Global.DefaultRuntime = dur
		} else {
			utils.PrintWarning("Ignoring invalid default_runtime %q", v)
		}
	}

	if v := viper.GetString("script.partition"); v != "" {
		Global.Script.Partition = v
	}
	if v := viper.GetString("script.mem_per_cpu"); v != "" {
		Global.Script.MemPerCPU = v
	}
	if v := viper.GetString("script.mail_domain"); v != "" {
		Global.Script.MailDomain = v
	}
	if v := viper.GetString("script.mail_type"); v != "" {
		Global.Script.MailType = v
	}

	if v := viper.GetString("container.bin"); v != "" {
		Global.Container.Bin = v
	}
	if v := viper.GetString("container.image_repo"); v != "" {
		Global.Container.ImageRepo = v
	}
	if viper.IsSet("container.gdal_cachemax") {
		if n := viper.GetInt("container.gdal_cachemax"); n >= 0 {
			Global.Container.GDALCacheMax = n
		}
	}
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "."+appDirName, ConfigFilename+"."+ConfigType), nil
	}
	return filepath.Join(userConfigDir, appDirName, ConfigFilename+"."+ConfigType), nil
}

// SaveConfig saves current Viper config to user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), utils.PermDir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DetectSbatchBin returns the absolute path of sbatch in PATH, or "".
func DetectSbatchBin() string {
	if path, err := exec.LookPath("sbatch"); err == nil {
		return path
	}
	return ""
}

// DetectContainerBin finds apptainer or singularity in PATH.
// Login nodes often lack both, so an empty result is not an error.
func DetectContainerBin() string {
	for _, candidate := range []string{"singularity", "apptainer"} {
		if _, err := exec.LookPath(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
