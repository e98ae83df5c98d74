package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/natcap/invest-submit/internal/config"
	"github.com/natcap/invest-submit/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initForce bool

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.Keys, cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletion(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configValueCompletion returns suggested values for a config key
func configValueCompletion(key string) []string {
	switch key {
	case "container.bin":
		return []string{"singularity", "apptainer"}
	case "container.gdal_cachemax":
		return []string{"0", "128", "512", "1024"}
	case "script.mail_type":
		return []string{"ALL", "BEGIN,END,FAIL", "END,FAIL", "NONE"}
	case "script.mem_per_cpu":
		return []string{"2G", "4G", "8G"}
	case "default_runtime":
		return []string{"0:30:00", "2:00:00", "12:00:00", "1-00:00:00"}
	case "scratch_env", "workspace_env":
		return []string{"SCRATCH", "L_SCRATCH", "GROUP_SCRATCH"}
	default:
		return nil
	}
}

// getConfigEnvVars returns the env var that overrides each known key
func getConfigEnvVars() []string {
	vars := make([]string, 0, len(config.Keys))
	for _, key := range config.Keys {
		vars = append(vars, config.EnvVarName(key))
	}
	sort.Strings(vars)
	return vars
}

// validateConfigValue rejects values LoadFromViper would ignore.
func validateConfigValue(key, value string) error {
	known := false
	for _, k := range config.Keys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key %q", key)
	}

	switch key {
	case "default_runtime":
		d, err := utils.ParseDuration(value)
		if err != nil {
			return err
		}
		if d < time.Second {
			return fmt.Errorf("runtime must be at least one second: %s", value)
		}
	case "container.gdal_cachemax":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("gdal_cachemax must be a non-negative integer (MB): %s", value)
		}
	case "scratch_env", "workspace_env":
		if value == "" || strings.ContainsAny(value, " ${}") {
			return fmt.Errorf("%s must be an environment variable name, not a path: %s", key, value)
		}
	}
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage invest-submit configuration",
	Long: `Manage invest-submit configuration settings.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (INVEST_SUBMIT_*)
  3. User config file (~/.config/invest-submit/config.yaml)
  4. System config file (/etc/invest-submit/config.yaml)
  5. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		out := utils.Stdout

		fmt.Fprintln(out, utils.StyleTitle("Config File:"))
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "  %s %s\n", utils.StylePath(used), utils.StyleSuccess("← in use"))
		} else {
			fmt.Fprintf(out, "  %s (use 'invest-submit config init' to create)\n", utils.StyleWarning("No config file found"))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Current Configuration:"))
		for _, key := range config.Keys {
			fmt.Fprintf(out, "  %-24s %v\n", key+":", viper.Get(key))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Detected:"))
		scratchEnv := config.Global.ScratchEnv
		if dir := os.Getenv(scratchEnv); dir != "" {
			fmt.Fprintf(out, "  $%-23s %s\n", scratchEnv, utils.StylePath(dir))
		} else {
			fmt.Fprintf(out, "  $%-23s %s\n", scratchEnv, utils.StyleError("not set (submission will fail)"))
		}
		if bin := config.DetectSbatchBin(); bin != "" {
			fmt.Fprintf(out, "  %-24s %s\n", "sbatch:", utils.StylePath(bin))
		} else {
			fmt.Fprintf(out, "  %-24s %s\n", "sbatch:", utils.StyleWarning("not in PATH"))
		}
		if bin := config.DetectContainerBin(); bin != "" {
			fmt.Fprintf(out, "  %-24s %s\n", "container runtime:", utils.StyleInfo(bin))
		} else {
			fmt.Fprintf(out, "  %-24s %s\n", "container runtime:", utils.StyleInfo("not on this node"))
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, utils.StyleTitle("Environment Variable Overrides:"))
		hasEnvOverrides := false
		for _, envVar := range getConfigEnvVars() {
			if val := os.Getenv(envVar); val != "" {
				fmt.Fprintf(out, "  %s=%s\n", envVar, val)
				hasEnvOverrides = true
			}
		}
		if !hasEnvOverrides {
			fmt.Fprintf(out, "  %s\n", utils.StyleInfo("none"))
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		fmt.Fprintln(utils.Stdout, configPath)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Example: `  invest-submit config get script.partition
  invest-submit config get container.gdal_cachemax`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: configKeysCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := viper.Get(args[0])
		if value == nil {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		fmt.Fprintln(utils.Stdout, value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save it to the user config file.

Examples:
  invest-submit config set script.partition serc
  invest-submit config set default_runtime 2:00:00
  invest-submit config set container.gdal_cachemax 0`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeysCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := validateConfigValue(key, value); err != nil {
			return err
		}

		viper.Set(key, value)
		if err := config.SaveConfig(); err != nil {
			return err
		}

		configPath, _ := config.GetUserConfigPath()
		utils.PrintSuccess("Set %s = %s", utils.StyleInfo(key), utils.StyleInfo(value))
		utils.PrintMessage("Config saved to: %s", utils.StylePath(configPath))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a user config file with defaults",
	Long: `Create ~/.config/invest-submit/config.yaml with the built-in defaults.

The path of sbatch is detected and recorded when it is in PATH.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		if utils.FileExists(configPath) && !initForce {
			utils.PrintHint("Use %s to overwrite it", utils.StyleCommand("invest-submit config init --force"))
			return fmt.Errorf("config file already exists: %s", configPath)
		}

		if bin := config.DetectSbatchBin(); bin != "" {
			viper.Set("sbatch_bin", bin)
			utils.PrintMessage("Detected sbatch: %s", utils.StylePath(bin))
		}
		if err := config.SaveConfig(); err != nil {
			return err
		}
		utils.PrintSuccess("Config file created: %s", utils.StylePath(configPath))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
