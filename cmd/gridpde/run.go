package main

import (
	"context"
	"fmt"
	"maps"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/gridpde/internal/analysis"
	"github.com/san-kum/gridpde/internal/config"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/experiment"
	"github.com/san-kum/gridpde/internal/metrics"
	"github.com/san-kum/gridpde/internal/storage"
	"github.com/san-kum/gridpde/internal/tracker"
	"github.com/san-kum/gridpde/internal/viz"
)

// loadConfig resolves --config or --preset and applies the flags the user
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "" && preset != "":
		return nil, fmt.Errorf("--config and --preset are exclusive")
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		c, err := config.ResolvePreset(preset)
		if err != nil {
			return nil, err
		}
		cfg = c
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("t-end") {
		if len(cfg.TRange) == 2 {
			cfg.TRange[1] = tEnd
		} else {
			cfg.TRange = []float64{tEnd}
		}
	}
	if flags.Changed("seed") {
		cfg.Solver.Seed = seed
	}
	if flags.Changed("solver") {
		cfg.Solver.Method = method
	}
	if flags.Changed("scheme") {
		cfg.Solver.Scheme = scheme
	}
	if flags.Changed("adaptive") {
		cfg.Solver.Adaptive = adaptive
	}
	if flags.Changed("tolerance") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("backend") {
		cfg.Solver.Backend = backend
	}
	if flags.Changed("interval") {
		cfg.Interval = interval
	}
	if flags.Changed("max-runtime") {
		d, err := time.ParseDuration(maxRuntime)
		if err != nil {
			return nil, fmt.Errorf("--max-runtime: %w", err)
		}
		cfg.MaxRuntime = d
	}
	return cfg, cfg.Validate()
}

func openStore() (storage.Store, error) {
	switch storeKind {
	case "dir":
		st := storage.NewDirStore(dataDir)
		if err := st.Init(); err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, err
		}
		return storage.NewSQLiteStore(filepath.Join(dataDir, "runs.db"))
	}
	return nil, fmt.Errorf("unknown store %q (want dir or sqlite)", storeKind)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if ensembleSize > 0 {
		return runEnsemble(ctx, exp)
	}

	mem := tracker.NewMemory()
	values := tracker.NewMetrics(exp.Metrics()...)
	prom := metrics.NewPrometheus()

	fmt.Printf("running %s on %s...\n", exp.PDE().Name(), exp.Grid().Name())
	start := time.Now()
	_, info, runErr := exp.Run(ctx, tracker.Multi{mem, values}, prom)
	elapsed := time.Since(start)

	if metricsFile != "" {
		if err := prom.WriteTextfile(metricsFile); err != nil {
			logger.Warn("metrics textfile not written", zap.String("path", metricsFile), zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("completed in %v (%s)\n", elapsed.Round(time.Millisecond), info.StopReason)
	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		runID, err := st.Save(exp.Metadata(info, values.Values()), mem.Times(), mem.States())
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "steps\t%d (%d accepted, %d rejected)\n", info.Steps, info.Accepted, info.Rejected)
	fmt.Fprintf(w, "evaluations\t%d\n", info.Evaluations)
	fmt.Fprintf(w, "last dt\t%.4g\n", info.Dt)
	fmt.Fprintf(w, "samples\t%d\n", mem.Len())
	fmt.Fprintln(w, "\nmetrics:")
	vals := values.Values()
	for _, name := range slices.Sorted(maps.Keys(vals)) {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, vals[name])
	}
	return w.Flush()
}

func runEnsemble(ctx context.Context, exp *experiment.Experiment) error {
	fmt.Printf("running %d members of %s...\n", ensembleSize, exp.PDE().Name())
	results, err := exp.Ensemble(ctx, ensembleSize, 0)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tSEED\tSTEPS\tMEAN\tSTD\tMIN\tMAX")
	means := make([]float64, len(results))
	for i, r := range results {
		s := analysis.Summarize(exp.Grid(), r.State, r.Info.TFinal)
		means[i] = s.Mean
		fmt.Fprintf(w, "%d\t%d\t%d\t%.6g\t%.6g\t%.6g\t%.6g\n",
			i, exp.Config().Solver.Seed+uint64(i), r.Info.Steps, s.Mean, s.Std, s.Min, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	mean, spread := meanStd(means)
	fmt.Printf("\nensemble mean %.6g, spread %.6g\n", mean, spread)
	return nil
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	v := 0.0
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(v / float64(len(xs)))
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	samples := make(chan tracker.Sample, 1)
	done := make(chan viz.DoneMsg, 1)
	go func() {
		_, info, err := exp.Run(ctx, tracker.NewProgress(samples).WithProfile(profilePts))
		close(samples)
		done <- viz.DoneMsg{Info: info, Err: err}
	}()

	m := viz.NewLive(exp.PDE().Name(), cfg.TStart(), cfg.TEnd(), samples, done, cancel)
	m.SetTheme(theme)
	return viz.RunLive(m)
}

func listPresets(cmd *cobra.Command, args []string) error {
	pdes := experiment.NewRegistry().ListPDEs()
	if len(args) == 1 {
		pdes = args[:1]
	}
	for _, pde := range pdes {
		presets := config.ListPresets(pde)
		if len(presets) == 0 {
			fmt.Printf("no presets for pde: %s\n", pde)
			continue
		}
		fmt.Printf("presets for %s:\n", pde)
		for _, p := range presets {
			c := config.GetPreset(pde, p)
			fmt.Printf("  %-12s %s %v, t=%g\n", p, c.Grid.Kind, c.Grid.Shape, c.TEnd())
		}
	}
	return nil
}

// infoFromMap rebuilds the counters stored with a run.
func infoFromMap(m map[string]any) dynamo.Info {
	num := func(key string) float64 {
		switch v := m[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
		return 0
	}
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}
	return dynamo.Info{
		Solver:     str("solver"),
		Scheme:     str("scheme"),
		Steps:      int(num("steps")),
		Accepted:   int(num("steps_accepted")),
		Rejected:   int(num("steps_rejected")),
		TFinal:     num("t_final"),
		StopReason: str("stop_reason"),
	}
}
