package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir   string
	storeKind string
	verbose   bool
	logger    = zap.NewNop()

	configFile string
	preset     string
	dt         float64
	tEnd       float64
	seed       uint64
	method     string
	scheme     string
	adaptive   bool
	tolerance  float64
	backend    string
	interval   float64
	maxRuntime string

	ensembleSize int
	metricsFile  string
	noSave       bool
	outFile      string
	axis         int
	theme        string
	profilePts   int

	sweepParam  string
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int
	parallel    int
	tuneGrid    []string
	tuneMetric  string
	svgWidth    int
	svgHeight   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridpde",
		Short: "finite-difference pde simulations on structured grids",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gridpde", "data directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "dir", "run store: dir or sqlite")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation from a config file or preset",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&ensembleSize, "ensemble", 0, "run this many seeds concurrently and report their spread")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "ocean", "color theme")
	liveCmd.Flags().IntVar(&profilePts, "profile", 120, "points of the live profile (0 disables it)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the final field and its range over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "moments, decay rate and dominant wavelength of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&axis, "axis", 0, "axis of the spectrum")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export sampled states to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [pde]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	opsCmd := &cobra.Command{
		Use:   "ops",
		Short: "check which differential operators the configured grid supports",
		Args:  cobra.NoArgs,
		RunE:  checkOperators,
	}
	addRunFlags(opsCmd)

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the final field of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 640, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 320, "image height of profiles")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a scenario file in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a configuration over a range of one equation parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "equation parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (0 for all)")
	sweepCmd.MarkFlagRequired("param")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search equation parameters for the smallest metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneGrid, "grid", nil, "parameter values as name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "fluctuation", "metric to minimize")
	tuneCmd.MarkFlagRequired("grid")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd,
		presetsCmd, opsCmd, scenarioCmd, sweepCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset as pde/name, e.g. diffusion/line")
	cmd.Flags().Float64Var(&dt, "dt", 0, "initial time step")
	cmd.Flags().Float64Var(&tEnd, "t-end", 0, "end time")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "noise seed")
	cmd.Flags().StringVar(&method, "solver", "", "solver: explicit or delegated")
	cmd.Flags().StringVar(&scheme, "scheme", "", "scheme: euler, runge-kutta or rk4")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adapt the time step")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "error tolerance of adaptive steps")
	cmd.Flags().StringVar(&backend, "backend", "", "backend: serial, parallel or auto")
	cmd.Flags().Float64Var(&interval, "interval", 0, "time between stored samples")
	cmd.Flags().StringVar(&maxRuntime, "max-runtime", "", "wall-clock limit, e.g. 30s")
}
