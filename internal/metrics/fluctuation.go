package metrics

import (
	"math"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/field"
	"github.com/san-kum/gridpde/internal/grid"
)

// Fluctuation averages the volume-weighted standard deviation of a scalar
// field over the observed states, e.g. the interface roughness of a KPZ
// run.
type Fluctuation struct {
	name    string
	grid    grid.Grid
	sum     float64
	samples int
}

func NewFluctuation(g grid.Grid) *Fluctuation {
	return &Fluctuation{
		name: "fluctuation",
		grid: g,
	}
}

func (f *Fluctuation) Name() string {
	return f.name
}

func (f *Fluctuation) Observe(x dynamo.State, t float64) {
	n := f.grid.NumCells()
	if len(x) < n {
		return
	}
	mean := field.Average(f.grid, x)
	variance := 0.0
	for k := 0; k < n; k++ {
		d := x[k] - mean
		variance += f.grid.CellVolume(k) * d * d
	}
	f.sum += math.Sqrt(variance / f.grid.Volume())
	f.samples++
}

func (f *Fluctuation) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return f.sum / float64(f.samples)
}

func (f *Fluctuation) Reset() {
	f.sum = 0
	f.samples = 0
}
