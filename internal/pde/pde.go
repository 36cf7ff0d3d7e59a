// Package pde provides evolution rates for fields on structured grids.
//
// Every equation implements [dynamo.RHS]; equations with additive white
// noise also implement [dynamo.Stochastic]. The noise parameter is the
// variance per unit volume and time, so the per-cell amplitude is
// sqrt(noise / cellVolume).
package pde

import (
	"math"

	"github.com/san-kum/gridpde/internal/boundary"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/operators"
)

// PDE is a named evolution rate.
type PDE interface {
	dynamo.RHS
	Name() string
}

func noiseAmplitude(g grid.Grid, noise float64) []float64 {
	if noise == 0 {
		return nil
	}
	amp := make([]float64, g.NumCells())
	for k := range amp {
		amp[k] = math.Sqrt(noise / g.CellVolume(k))
	}
	return amp
}

func scalarConditions(bcs *boundary.Set) error {
	if bcs == nil {
		return dynamo.Configf("pde", "boundary conditions are required")
	}
	if bcs.Rank() != 0 {
		return dynamo.Configf("pde", "scalar equation needs rank 0 conditions, got rank %d", bcs.Rank())
	}
	return nil
}

// Diffusion is dc/dt = D laplace(c) + eta.
type Diffusion struct {
	Diffusivity float64
	Noise       float64

	laplace *operators.Operator
	amp     []float64
}

func NewDiffusion(bcs *boundary.Set, diffusivity, noise float64, opts ...operators.Option) (*Diffusion, error) {
	if err := scalarConditions(bcs); err != nil {
		return nil, err
	}
	if noise < 0 {
		return nil, dynamo.Configf("diffusion", "noise variance must be non-negative, got %g", noise)
	}
	lap, err := operators.Build(operators.Laplace, bcs, opts...)
	if err != nil {
		return nil, err
	}
	return &Diffusion{
		Diffusivity: diffusivity,
		Noise:       noise,
		laplace:     lap,
		amp:         noiseAmplitude(bcs.Grid(), noise),
	}, nil
}

func (d *Diffusion) Name() string { return "diffusion" }

func (d *Diffusion) Evolve(x dynamo.State, _ float64, out dynamo.State) {
	d.laplace.ApplyTo(x, out)
	for i := range out {
		out[i] *= d.Diffusivity
	}
}

func (d *Diffusion) NoiseAmplitude() []float64 { return d.amp }

// AllenCahn is dc/dt = M (gamma laplace(c) - c^3 + c).
type AllenCahn struct {
	Interface float64
	Mobility  float64

	laplace *operators.Operator
}

func NewAllenCahn(bcs *boundary.Set, interfaceWidth, mobility float64, opts ...operators.Option) (*AllenCahn, error) {
	if err := scalarConditions(bcs); err != nil {
		return nil, err
	}
	lap, err := operators.Build(operators.Laplace, bcs, opts...)
	if err != nil {
		return nil, err
	}
	return &AllenCahn{Interface: interfaceWidth, Mobility: mobility, laplace: lap}, nil
}

func (a *AllenCahn) Name() string { return "allen-cahn" }

func (a *AllenCahn) Evolve(x dynamo.State, _ float64, out dynamo.State) {
	a.laplace.ApplyTo(x, out)
	for i, c := range x {
		out[i] = a.Mobility * (a.Interface*out[i] - c*c*c + c)
	}
}

// KPZ is the interface growth equation dh/dt = nu laplace(h) +
// lambda |grad h|^2 + eta.
type KPZ struct {
	Nu     float64
	Lambda float64
	Noise  float64

	laplace *operators.Operator
	gradSq  *operators.Operator
	scratch *dynamo.Pool
	amp     []float64
}

func NewKPZ(bcs *boundary.Set, nu, lambda, noise float64, opts ...operators.Option) (*KPZ, error) {
	if err := scalarConditions(bcs); err != nil {
		return nil, err
	}
	if noise < 0 {
		return nil, dynamo.Configf("kpz", "noise variance must be non-negative, got %g", noise)
	}
	lap, err := operators.Build(operators.Laplace, bcs, opts...)
	if err != nil {
		return nil, err
	}
	gs, err := operators.Build(operators.GradientSquared, bcs, opts...)
	if err != nil {
		return nil, err
	}
	return &KPZ{
		Nu:      nu,
		Lambda:  lambda,
		Noise:   noise,
		laplace: lap,
		gradSq:  gs,
		scratch: dynamo.NewPool(bcs.Grid().NumCells()),
		amp:     noiseAmplitude(bcs.Grid(), noise),
	}, nil
}

func (k *KPZ) Name() string { return "kpz" }

func (k *KPZ) Evolve(x dynamo.State, _ float64, out dynamo.State) {
	k.laplace.ApplyTo(x, out)
	sq := k.scratch.Get()
	k.gradSq.ApplyTo(x, sq)
	for i := range out {
		out[i] = k.Nu*out[i] + k.Lambda*sq[i]
	}
	k.scratch.Put(sq)
}

func (k *KPZ) NoiseAmplitude() []float64 { return k.amp }

// Func wraps a plain rate function, optionally with a noise amplitude per
// state entry.
type Func struct {
	Label     string
	Rate      func(x dynamo.State, t float64, out dynamo.State)
	Amplitude []float64
}

func (f *Func) Name() string {
	if f.Label == "" {
		return "func"
	}
	return f.Label
}

func (f *Func) Evolve(x dynamo.State, t float64, out dynamo.State) { f.Rate(x, t, out) }

func (f *Func) NoiseAmplitude() []float64 { return f.Amplitude }

// Bounded clips the state of an equation to [Min, Max] after every step.
type Bounded struct {
	PDE
	Min, Max float64
}

func (b *Bounded) Name() string { return b.PDE.Name() + "+bounded" }

// NoiseAmplitude forwards the wrapped amplitude, if any.
func (b *Bounded) NoiseAmplitude() []float64 {
	if s, ok := b.PDE.(dynamo.Stochastic); ok {
		return s.NoiseAmplitude()
	}
	return nil
}

func (b *Bounded) ModifyAfterStep(x dynamo.State) float64 {
	total := 0.0
	for i, v := range x {
		switch {
		case v < b.Min:
			total += b.Min - v
			x[i] = b.Min
		case v > b.Max:
			total += v - b.Max
			x[i] = b.Max
		}
	}
	return total
}
