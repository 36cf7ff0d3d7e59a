package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
)

// Summary holds the volume-weighted moments of one sample.
type Summary struct {
	T    float64 `json:"t"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

func Summarize(g grid.Grid, x dynamo.State, t float64) Summary {
	values := x[:g.NumCells()]
	mean, std := stat.PopMeanStdDev(values, g.CellVolumes())
	return Summary{
		T:    t,
		Mean: mean,
		Std:  std,
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
}

func Trajectory(g grid.Grid, times []float64, states []dynamo.State) ([]Summary, error) {
	if len(times) != len(states) {
		return nil, dynamo.ErrDimensionMismatch
	}
	out := make([]Summary, len(states))
	for i, x := range states {
		if len(x) < g.NumCells() {
			return nil, dynamo.ErrDimensionMismatch
		}
		out[i] = Summarize(g, x, times[i])
	}
	return out, nil
}

// Profile averages the scalar field x over every axis except axis,
// weighting by cell volume.
func Profile(g grid.Grid, x dynamo.State, axis int) ([]float64, error) {
	if axis < 0 || axis >= g.NumAxes() {
		return nil, dynamo.Configf("profile", "axis %d out of range for %d axes", axis, g.NumAxes())
	}
	if len(x) != g.NumCells() {
		return nil, dynamo.ErrDimensionMismatch
	}
	n := g.Shape()[axis]
	sum := make([]float64, n)
	weight := make([]float64, n)
	for k, v := range x {
		i := g.Unravel(k)[axis]
		w := g.CellVolume(k)
		sum[i] += w * v
		weight[i] += w
	}
	for i := range sum {
		sum[i] /= weight[i]
	}
	return sum, nil
}

// DecayRate fits |a(t)| = A exp(-rate t) by least squares on the
// logarithm.
func DecayRate(times, amplitudes []float64) (float64, error) {
	if len(times) != len(amplitudes) {
		return 0, dynamo.ErrDimensionMismatch
	}
	if len(times) < 2 {
		return 0, dynamo.Configf("decay rate", "need at least two samples, got %d", len(times))
	}
	logs := make([]float64, len(amplitudes))
	for i, a := range amplitudes {
		if a == 0 || math.IsNaN(a) {
			return 0, dynamo.Configf("decay rate", "amplitude %d is %g", i, a)
		}
		logs[i] = math.Log(math.Abs(a))
	}
	_, slope := stat.LinearRegression(times, logs, nil, false)
	return -slope, nil
}
