package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/gridpde/internal/automation"
	"github.com/san-kum/gridpde/internal/experiment"
	"github.com/san-kum/gridpde/internal/export"
	"github.com/san-kum/gridpde/internal/optim"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry(), logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tSTEPS\tT\tSTOP\tINTEGRAL\tEXTREMUM")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.4g\t%s\t%.6g\t%.6g\n",
			r.Step, r.Name, r.Info.Steps, r.Info.TFinal, r.Info.StopReason, r.Metrics["integral"], r.Metrics["extremum"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.ParameterSweep{
		Base:   cfg,
		Param:  sweepParam,
		Min:    sweepFrom,
		Max:    sweepTo,
		Points: sweepPoints,
		Limit:  parallel,
	}
	fmt.Printf("sweeping %s over %d values...\n", sweepParam, sweepPoints)
	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tSTEPS\tMEAN\tSTD\tMIN\tMAX\tDRIFT\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%.6g\t%d\t%.6g\t%.6g\t%.6g\t%.6g\t%.3g\n",
			r.Value, r.Info.Steps, r.Final.Mean, r.Final.Std, r.Final.Min, r.Final.Max, r.Metrics["integral_drift"])
	}
	return w.Flush()
}

// parseGrid reads name=v1,v2,... entries.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, e := range entries {
		name, list, ok := strings.Cut(e, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("--grid wants name=v1,v2,..., got %q", e)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("--grid %s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(tuneGrid)
	if err != nil {
		return err
	}
	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("searching %d combinations for the smallest %s...\n", search.Size(), tuneMetric)
	best, trials, err := search.Search(ctx, optim.ParamBuilder(cfg, experiment.NewRegistry(), logger), tuneMetric)
	if err != nil {
		return err
	}

	sort.SliceStable(trials, func(i, j int) bool {
		return trials[i].Err == nil && (trials[j].Err != nil || trials[i].Value < trials[j].Value)
	})
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(tuneMetric))
	for _, t := range trials {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(t.Params[n], 'g', 6, 64)
		}
		result := strconv.FormatFloat(t.Value, 'g', 6, 64)
		if t.Err != nil {
			result = "failed: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), result)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: %v with %s = %.6g\n", best.Params, tuneMetric, best.Value)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, g, states, _, err := loadRun(args[0])
	if err != nil {
		return err
	}
	svg, err := export.FieldToSVG(g, states[len(states)-1], svgWidth, svgHeight)
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, svg); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Printf("exported to %s\n", outFile)
	}
	return nil
}
