package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/natcap/invest-submit/internal/config"
	"github.com/natcap/invest-submit/internal/invest"
	"github.com/natcap/invest-submit/internal/scheduler"
	"github.com/natcap/invest-submit/internal/utils"
	"github.com/spf13/cobra"
)

var (
	debugMode     bool
	quietMode     bool
	dryRun        bool
	investVersion string
	runtimeFlag   string
	nWorkers      int
	partition     string
	gdalCacheMax  int
)

var rootCmd = &cobra.Command{
	Use:   "invest-submit <model> <datastack.tar.gz> <destination>",
	Short: "Submit an InVEST model run to SLURM",
	Long: `Submit an InVEST model run to the SLURM queue.

The datastack archive is extracted into scratch on the compute node, the
model runs inside the InVEST container, and the workspace is copied to the
destination when the run finishes.`,
	Example: `  invest-submit carbon $SCRATCH/carbon-inputs.tar.gz $OAK/results
  invest-submit --n_workers 4 --runtime 2:00:00 ndr ndr.tar.gz $HOME/out
  invest-submit --dry-run carbon carbon.tar.gz $HOME/out   # print the script only`,
	Version:       config.VERSION,
	Args:          cobra.ExactArgs(3),
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Step 1: built-in defaults
		config.LoadDefaults()

		// Step 2: config file and INVEST_SUBMIT_* env vars
		if err := config.InitViper(); err != nil {
			utils.PrintWarning("%v", err)
		}
		config.LoadFromViper()

		// Step 3: command-line flags
		utils.QuietMode = quietMode
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("invest-submit Version: %s", utils.StyleInfo(config.VERSION))
			utils.PrintDebug("Scratch Env: $%s", config.Global.ScratchEnv)
			utils.PrintDebug("Container: %s %s", config.Global.Container.Bin, config.Global.Container.ImageRepo)
			if config.Global.SbatchBin != "" {
				utils.PrintDebug("Sbatch Binary: %s", config.Global.SbatchBin)
			}
		}
	},
	RunE: runSubmit,
}

// Execute runs the root command and exits non-zero on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		utils.PrintError("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Only print errors, warnings and the job ID")

	flags := rootCmd.Flags()
	flags.StringVar(&investVersion, "invest_version", config.MinInvestVersion, "InVEST version (container image tag) to run")
	flags.StringVar(&runtimeFlag, "runtime", "0:30:00", "Wall-clock limit (H:MM:SS, D-HH:MM:SS or 90m)")
	flags.IntVar(&nWorkers, "n_workers", invest.SyncWorkers, "InVEST n_workers; -1 runs synchronously on one CPU")
	flags.BoolVarP(&dryRun, "dry-run", "n", false, "Print the batch script without writing or submitting it")
	flags.StringVarP(&partition, "partition", "p", "", "SLURM partition(s); overrides the configured default")
	flags.IntVar(&gdalCacheMax, "gdal-cachemax", 0, "GDAL_CACHEMAX in MB inside the container; 0 disables the override")
}

// buildRequest turns positional args and flags into a submission request.
// Flags left unset fall back to config.Global.
func buildRequest(cmd *cobra.Command, args []string) (*invest.SubmissionRequest, error) {
	opts := invest.OptionsFromConfig(config.Global)
	if cmd.Flags().Changed("partition") {
		opts.Partition = partition
	}
	if cmd.Flags().Changed("gdal-cachemax") {
		opts.GDALCacheMax = gdalCacheMax
	}

	req := invest.NewRequest(args[0], args[1], args[2], opts)

	req.Version = config.Global.DefaultInvestVersion
	if cmd.Flags().Changed("invest_version") {
		req.Version = investVersion
	}
	// image tags carry no "v"
	req.Version = strings.TrimPrefix(strings.TrimSpace(req.Version), "v")

	req.Runtime = config.Global.DefaultRuntime
	if cmd.Flags().Changed("runtime") {
		d, err := utils.ParseDuration(runtimeFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --runtime %q: %w", runtimeFlag, err)
		}
		req.Runtime = d
	}

	req.NWorkers = nWorkers
	return req, req.Validate()
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if scheduler.IsInsideJob() {
		utils.PrintWarning("Running inside SLURM job %s; the new job is submitted separately.",
			utils.StyleNumber(os.Getenv("SLURM_JOB_ID")))
	}

	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}

	if dryRun {
		res, err := invest.NewSubmitter(nil).Prepare(req)
		if err != nil {
			return err
		}
		fmt.Fprint(utils.Stdout, res.Script)
		utils.PrintHint("Dry run: would write %s and call sbatch with %s",
			utils.StylePath(res.ScriptPath),
			utils.StyleCommand(strings.Join(scheduler.BuildArgs(res.ScriptPath,
				scheduler.SubmitOptions{Time: req.Runtime, CPUs: req.CPUs()}, req.PositionalArgs()), " ")))
		return nil
	}

	sched, err := scheduler.NewSlurmScheduler(config.Global.SbatchBin)
	if err != nil {
		return err
	}

	res, err := invest.NewSubmitter(sched).Submit(req)
	if err != nil {
		if res != nil && res.ScriptPath != "" && !invest.IsScriptWriteError(err) {
			utils.PrintHint("Batch script left at %s", utils.StylePath(res.ScriptPath))
		}
		return err
	}

	reportSubmission(req, res)
	return nil
}

// reportSubmission prints the accepted job. In quiet mode only the job ID
// (or the raw sbatch output) is printed, for use in shell pipelines.
func reportSubmission(req *invest.SubmissionRequest, res *invest.Result) {
	if utils.QuietMode {
		if res.Submission.JobID != "" {
			fmt.Fprintln(utils.Stdout, res.Submission.JobID)
		} else {
			fmt.Fprintln(utils.Stdout, res.Submission.Output)
		}
		return
	}

	utils.PrintMessage("Batch script: %s", utils.StylePath(res.ScriptPath))
	if res.Submission.JobID != "" {
		utils.PrintSuccess("Submitted %s as job %s", utils.StyleName(req.JobName()), utils.StyleNumber(res.Submission.JobID))
	} else {
		utils.PrintSuccess("Submitted %s: %s", utils.StyleName(req.JobName()), res.Submission.Output)
	}
	for _, line := range invest.Guidance(req, res, config.Global.DashboardURL) {
		utils.PrintHint("%s", line)
	}
}
