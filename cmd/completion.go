package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// investModels are the model names `natcap.invest run` accepts.
// Used for completion only; unknown names are still submitted.
var investModels = []string{
	"annual_water_yield",
	"carbon",
	"coastal_blue_carbon",
	"coastal_vulnerability",
	"crop_production_percentile",
	"crop_production_regression",
	"delineateit",
	"forest_carbon_edge_effect",
	"habitat_quality",
	"habitat_risk_assessment",
	"ndr",
	"pollination",
	"recreation",
	"routedem",
	"scenario_generator_proximity",
	"scenic_quality",
	"sdr",
	"seasonal_water_yield",
	"stormwater",
	"urban_cooling_model",
	"urban_flood_risk_mitigation",
	"urban_nature_access",
	"wave_energy",
	"wind_energy",
}

// detectShell auto-detects the current shell from environment
func detectShell() string {
	shellLower := strings.ToLower(os.Getenv("SHELL"))
	switch {
	case strings.Contains(shellLower, "fish"):
		return "fish"
	case strings.Contains(shellLower, "zsh"):
		return "zsh"
	case strings.Contains(shellLower, "pwsh"), strings.Contains(shellLower, "powershell"):
		return "powershell"
	}
	return "bash"
}

// submitArgsCompletion completes <model> <datastack.tar.gz> <destination>.
func submitArgsCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		var out []string
		for _, m := range investModels {
			if strings.HasPrefix(m, toComplete) {
				out = append(out, m)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	case 1:
		return []string{"gz", "tgz"}, cobra.ShellCompDirectiveFilterFileExt
	case 2:
		return nil, cobra.ShellCompDirectiveFilterDirs
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for invest-submit.

If no shell is specified, ` + detectShell() + ` will be used (auto-detected from $SHELL).

To load completions:

Bash:
  $ source <(invest-submit completion bash)

Zsh:
  $ invest-submit completion zsh > "${fpath[1]}/_invest-submit"

Fish:
  $ invest-submit completion fish > ~/.config/fish/completions/invest-submit.fish

PowerShell:
  PS> invest-submit completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := detectShell()
		if len(args) > 0 {
			shell = args[0]
		}

		out := cmd.OutOrStdout()
		switch shell {
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		default:
			return cmd.Root().GenBashCompletionV2(out, true)
		}
	},
}

func init() {
	rootCmd.ValidArgsFunction = submitArgsCompletion
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
