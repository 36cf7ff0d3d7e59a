package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/gridpde/internal/analysis"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/experiment"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/operators"
	"github.com/san-kum/gridpde/internal/storage"
	"github.com/san-kum/gridpde/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPDE\tSHAPE\tSCHEME\tSTEPS\tSTOP\tTIMESTAMP")
	for _, r := range runs {
		info := infoFromMap(r.Info)
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\t%d\t%s\t%s\n",
			r.ID, r.Name, r.PDE, r.Shape, r.Scheme, info.Steps, info.StopReason,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// loadRun returns the metadata, the rebuilt grid and the samples of a
// stored run.
func loadRun(runID string) (*storage.RunMetadata, *grid.Structured, []dynamo.State, []float64, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer st.Close()

	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	g, err := grid.New(meta.GridKind, meta.Bounds, meta.Shape, meta.Periodic)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return meta, g, states, times, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, g, states, times, err := loadRun(args[0])
	if err != nil {
		return err
	}
	summaries, err := analysis.Trajectory(g, times, states)
	if err != nil {
		return err
	}

	last := len(states) - 1
	field, err := viz.RenderField(g, states[last], 72, 20)
	if err != nil {
		return err
	}
	fmt.Printf("%s, %s, t=%.4g\n\n", meta.PDE, meta.Grid, times[last])
	fmt.Println(field)

	lo := make([]float64, len(summaries))
	hi := make([]float64, len(summaries))
	for i, s := range summaries {
		lo[i], hi[i] = s.Min, s.Max
	}
	fmt.Println()
	fmt.Println(viz.PlotSeries("min and max over samples", 72, 12, hi, lo))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, g, states, times, err := loadRun(args[0])
	if err != nil {
		return err
	}
	summaries, err := analysis.Trajectory(g, times, states)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %s on %s\n\n", meta.ID, meta.PDE, meta.Grid)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\tMEAN\tSTD\tMIN\tMAX")
	stds := make([]float64, len(summaries))
	for i, s := range summaries {
		stds[i] = s.Std
		fmt.Fprintf(w, "%.4g\t%.6g\t%.6g\t%.6g\t%.6g\n", s.T, s.Mean, s.Std, s.Min, s.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	if rate, err := analysis.DecayRate(times, stds); err != nil {
		fmt.Printf("decay rate: n/a (%v)\n", err)
	} else {
		fmt.Printf("decay rate of std: %.6g\n", rate)
	}
	last := states[len(states)-1]
	if l, err := analysis.DominantWavelength(g, last, axis); err != nil {
		fmt.Printf("dominant wavelength: n/a (%v)\n", err)
	} else {
		fmt.Printf("dominant wavelength along axis %d: %.6g\n", axis, l)
	}
	return nil
}

// output returns the destination of an export and a function that closes it.
func output() (io.Writer, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, *meta, times, states); err != nil {
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

func exportCSV(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(w, times, states); err != nil {
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

func checkOperators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	fmt.Printf("%s with %s\n\n", exp.Grid(), exp.Conditions())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATOR\tRANKS\tSTATUS")
	for _, name := range operators.Kinds() {
		kind, err := operators.ParseKind(name)
		if err != nil {
			return err
		}
		status := "ok"
		bcs, err := exp.Conditions().ForRank(kind.InRank())
		if err == nil {
			_, err = operators.BuildNamed(name, bcs, operators.WithBackend(exp.Backend()), operators.WithLogger(logger))
		}
		if err != nil {
			status = err.Error()
		}
		fmt.Fprintf(w, "%s\t%d -> %d\t%s\n", name, kind.InRank(), kind.OutRank(), status)
	}
	return w.Flush()
}
