package operators

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/gridpde/internal/boundary"
	"github.com/san-kum/gridpde/internal/compute"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
)

type options struct {
	central bool
	backend compute.Backend
	logger  *zap.Logger
}

// Option configures Build.
type Option func(*options)

// WithCentral selects the squared central difference for GradientSquared
// (the default). With false the squares of the one-sided differences are
// averaged instead.
func WithCentral(central bool) Option {
	return func(o *options) { o.central = central }
}

// WithBackend runs the cell loop on b.
func WithBackend(b compute.Backend) Option {
	return func(o *options) { o.backend = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Operator is a compiled differential operator. It maps an interior field
// of rank InRank to an interior field of rank OutRank and never modifies
// its input.
type Operator struct {
	kind    Kind
	bcs     *boundary.Set
	grid    grid.Grid
	layout  *grid.Layout
	backend compute.Backend
	pool    *dynamo.Pool
	run     kernel

	inComps, outComps int
}

// Build compiles an operator of kind against bcs. The rank of bcs must
// match the input rank of kind.
func Build(kind Kind, bcs *boundary.Set, opts ...Option) (*Operator, error) {
	o := options{central: true, backend: compute.Default, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if bcs == nil {
		return nil, dynamo.Configf("operator", "%s needs boundary conditions", kind)
	}
	if kind < Gradient || kind > VectorLaplace {
		return nil, dynamo.Configf("operator", "unknown operator kind %d", int(kind))
	}
	if bcs.Rank() != kind.InRank() {
		return nil, dynamo.Configf("operator", "%s acts on rank %d fields, boundary conditions are for rank %d", kind, kind.InRank(), bcs.Rank())
	}

	g := bcs.Grid()
	st := newStencils(g, bcs.Layout())
	op := &Operator{
		kind:     kind,
		bcs:      bcs,
		grid:     g,
		layout:   bcs.Layout(),
		backend:  o.backend,
		inComps:  components(g, kind.InRank()),
		outComps: components(g, kind.OutRank()),
	}

	switch kind {
	case Gradient:
		op.run = st.gradientKernel()
	case Divergence:
		op.run = st.divergenceKernel()
	case Laplace:
		op.run = st.laplaceKernel()
	case TensorDivergence:
		op.run = st.tensorDivergenceKernel(g.TensorTerms())
	case GradientSquared:
		op.run = st.gradientSquaredKernel(o.central)
	case VectorGradient:
		if g.RadialAxis() >= 0 {
			return nil, dynamo.Configf("operator", "%s is not available on %s grids", kind, g.Name())
		}
		op.run = st.vectorGradientKernel()
	case VectorLaplace:
		terms, ok := g.VectorTerms()
		if !ok {
			return nil, dynamo.Configf("operator", "%s is not available on %s grids", kind, g.Name())
		}
		op.run = st.vectorLaplaceKernel(terms)
	}

	op.pool = dynamo.NewPool(op.inComps * op.layout.Size)
	o.logger.Debug("operator built",
		zap.Stringer("kind", kind),
		zap.String("grid", g.Name()),
		zap.Int("cells", g.NumCells()),
		zap.String("backend", o.backend.Name()),
	)
	return op, nil
}

// BuildNamed is Build with the kind given by name.
func BuildNamed(name string, bcs *boundary.Set, opts ...Option) (*Operator, error) {
	kind, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return Build(kind, bcs, opts...)
}

func components(g grid.Grid, rank int) int {
	n := 1
	for i := 0; i < rank; i++ {
		n *= g.Dim()
	}
	return n
}

func (o *Operator) Kind() Kind                { return o.kind }
func (o *Operator) Grid() grid.Grid           { return o.grid }
func (o *Operator) Conditions() *boundary.Set { return o.bcs }
func (o *Operator) InRank() int               { return o.kind.InRank() }
func (o *Operator) OutRank() int              { return o.kind.OutRank() }
func (o *Operator) InSize() int               { return o.inComps * o.grid.NumCells() }
func (o *Operator) OutSize() int              { return o.outComps * o.grid.NumCells() }

// Apply returns the operator image of in in a new slice.
func (o *Operator) Apply(in dynamo.State) dynamo.State {
	out := make(dynamo.State, o.OutSize())
	o.ApplyTo(in, out)
	return out
}

// ApplyTo writes the operator image of in into out. It panics when the
// lengths do not match the operator.
func (o *Operator) ApplyTo(in, out dynamo.State) {
	if len(in) != o.InSize() || len(out) != o.OutSize() {
		panic(fmt.Sprintf("operators: %s expects %d -> %d values, got %d -> %d",
			o.kind, o.InSize(), o.OutSize(), len(in), len(out)))
	}
	n := o.grid.NumCells()
	buf := o.pool.Get()
	for c := 0; c < o.inComps; c++ {
		o.layout.Scatter(in[c*n:(c+1)*n], buf[c*o.layout.Size:(c+1)*o.layout.Size])
	}
	o.bcs.FillGhosts(buf)
	o.backend.For(n, func(lo, hi int) {
		o.run(buf, out, lo, hi)
	})
	o.pool.Put(buf)
}
