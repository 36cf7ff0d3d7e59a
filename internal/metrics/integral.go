package metrics

import (
	"math"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/field"
	"github.com/san-kum/gridpde/internal/grid"
)

// Integral reports the volume integral of the last observed scalar field.
type Integral struct {
	name    string
	grid    grid.Grid
	value   float64
	samples int
}

func NewIntegral(g grid.Grid) *Integral {
	return &Integral{
		name: "integral",
		grid: g,
	}
}

func (m *Integral) Name() string { return m.name }

func (m *Integral) Observe(x dynamo.State, t float64) {
	if len(x) < m.grid.NumCells() {
		return
	}
	m.value = field.Integral(m.grid, x)
	m.samples++
}

func (m *Integral) Value() float64 {
	return m.value
}

func (m *Integral) Reset() {
	m.value = 0
	m.samples = 0
}

// IntegralDrift tracks the largest relative change of the volume integral
// since the first observation. Conserved quantities keep it near zero.
type IntegralDrift struct {
	name     string
	grid     grid.Grid
	initial  float64
	maxDrift float64
	samples  int
}

func NewIntegralDrift(g grid.Grid) *IntegralDrift {
	return &IntegralDrift{
		name: "integral_drift",
		grid: g,
	}
}

func (m *IntegralDrift) Name() string { return m.name }

func (m *IntegralDrift) Observe(x dynamo.State, t float64) {
	if len(x) < m.grid.NumCells() {
		return
	}
	total := field.Integral(m.grid, x)

	if m.samples == 0 {
		m.initial = total
	}
	m.samples++

	drift := math.Abs(total - m.initial)
	if m.initial != 0 {
		drift /= math.Abs(m.initial)
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *IntegralDrift) Value() float64 {
	return m.maxDrift
}

func (m *IntegralDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}
