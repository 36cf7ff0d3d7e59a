package operators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridpde/internal/boundary"
	"github.com/san-kum/gridpde/internal/dynamo"
)

// MaxPoissonCells bounds the size of the dense system a PoissonSolver
// factorizes.
const MaxPoissonCells = 4096

// compatibilityTol is the relative size of the volume integral of a
// source below which it counts as balanced.
const compatibilityTol = 1e-8

// PoissonOption configures NewPoissonSolver.
type PoissonOption func(*PoissonSolver)

// WithRegularization removes the volume-weighted mean of incompatible
// sources instead of rejecting them.
func WithRegularization() PoissonOption {
	return func(p *PoissonSolver) { p.regularize = true }
}

// PoissonSolver inverts the laplace operator under fixed boundary
// conditions. Without a side that fixes the level of the solution the
// problem is singular; the solver then returns the solution with zero
// volume-weighted mean and requires sources whose integral balances the
// boundary flux.
type PoissonSolver struct {
	laplace    *Operator
	n          int
	offset     []float64 // image of the zero field
	volumes    []float64
	singular   bool
	regularize bool
	lu         mat.LU
}

// NewPoissonSolver assembles and factorizes the laplacian for bcs.
func NewPoissonSolver(bcs *boundary.Set, opts ...PoissonOption) (*PoissonSolver, error) {
	lap, err := Build(Laplace, bcs)
	if err != nil {
		return nil, err
	}
	n := bcs.Grid().NumCells()
	if n > MaxPoissonCells {
		return nil, dynamo.Configf("poisson solver", "%d cells exceed the dense limit of %d", n, MaxPoissonCells)
	}
	p := &PoissonSolver{
		laplace:  lap,
		n:        n,
		volumes:  bcs.Grid().CellVolumes(),
		singular: !bcs.Fixes(),
	}
	for _, opt := range opts {
		opt(p)
	}

	size := n
	if p.singular {
		size = n + 1
	}
	a := mat.NewDense(size, size, nil)

	probe := make(dynamo.State, n)
	p.offset = lap.Apply(probe)
	col := make(dynamo.State, n)
	for j := 0; j < n; j++ {
		probe[j] = 1
		lap.ApplyTo(probe, col)
		probe[j] = 0
		for i := 0; i < n; i++ {
			if v := col[i] - p.offset[i]; v != 0 {
				a.Set(i, j, v)
			}
		}
	}
	if p.singular {
		for i := 0; i < n; i++ {
			a.Set(i, n, 1)
			a.Set(n, i, p.volumes[i])
		}
	}

	p.lu.Factorize(a)
	if c := p.lu.Cond(); math.IsInf(c, 1) {
		return nil, dynamo.Configf("poisson solver", "laplacian is singular for %s", bcs)
	}
	return p, nil
}

// Singular reports whether solutions are only defined up to a constant.
func (p *PoissonSolver) Singular() bool { return p.singular }

// Solve returns u with laplace(u) = src.
func (p *PoissonSolver) Solve(src dynamo.State) (dynamo.State, error) {
	if len(src) != p.n {
		return nil, fmt.Errorf("poisson solver: source has %d values, want %d: %w", len(src), p.n, dynamo.ErrDimensionMismatch)
	}
	size := p.n
	if p.singular {
		size++
	}
	rhs := mat.NewVecDense(size, nil)
	for i := 0; i < p.n; i++ {
		rhs.SetVec(i, src[i]-p.offset[i])
	}

	if p.singular {
		total, scale, vol := 0.0, 0.0, 0.0
		for i := 0; i < p.n; i++ {
			total += p.volumes[i] * rhs.AtVec(i)
			scale += p.volumes[i] * math.Abs(rhs.AtVec(i))
			vol += p.volumes[i]
		}
		if math.Abs(total) > compatibilityTol*scale {
			if !p.regularize {
				return nil, dynamo.Configf("poisson solver",
					"source integral %g does not balance the boundary flux; use regularization", total)
			}
			mean := total / vol
			for i := 0; i < p.n; i++ {
				rhs.SetVec(i, rhs.AtVec(i)-mean)
			}
		}
	}

	var x mat.VecDense
	if err := p.lu.SolveVecTo(&x, false, rhs); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, fmt.Errorf("poisson solver: %w", err)
		}
	}
	out := make(dynamo.State, p.n)
	for i := range out {
		out[i] = x.AtVec(i)
	}
	if !out.IsValid() {
		return nil, fmt.Errorf("poisson solver: %w", dynamo.ErrNumericalInstability)
	}
	return out, nil
}
