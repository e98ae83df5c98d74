package cmd

import (
	"fmt"

	"github.com/natcap/invest-submit/internal/config"
	"github.com/natcap/invest-submit/internal/scheduler"
	"github.com/natcap/invest-submit/internal/utils"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:     "scheduler",
	Aliases: []string{"sched"},
	Short:   "Display scheduler information",
	Long: `Display information about the SLURM installation used for submission.

Shows the sbatch binary, its version, and whether submission is possible from here.`,
	Example: `  invest-submit scheduler
  invest-submit sched`,
	Args: cobra.NoArgs,
	Run:  runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) {
	sched, err := scheduler.NewSlurmScheduler(config.Global.SbatchBin)
	if err != nil {
		utils.PrintMessage("Scheduler Status: %s", utils.StyleError("Not Found"))
		utils.PrintMessage("")
		utils.PrintMessage("%v", err)
		utils.PrintHint("Run this on a login node, or set %s", utils.StyleCommand(config.EnvVarName("sbatch_bin")))
		return
	}

	info := sched.GetInfo()
	out := utils.Stdout

	// no [INV] prefix for structured output
	fmt.Fprintln(out, "Scheduler Information:")
	fmt.Fprintf(out, "  Type:      %s\n", utils.StyleInfo(info.Type))
	fmt.Fprintf(out, "  Binary:    %s\n", utils.StylePath(info.Binary))
	if info.Version != "" {
		fmt.Fprintf(out, "  Version:   %s\n", utils.StyleNumber(info.Version))
	}

	switch {
	case info.InJob:
		fmt.Fprintf(out, "  Status:    %s (inside job)\n", utils.StyleWarning("Available"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "You are inside a SLURM job; new submissions are queued as separate jobs.")
	case info.Available:
		fmt.Fprintf(out, "  Status:    %s\n", utils.StyleSuccess("Available"))
	default:
		fmt.Fprintf(out, "  Status:    %s\n", utils.StyleError("Unavailable"))
	}
}
