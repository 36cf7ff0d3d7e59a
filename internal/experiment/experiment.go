// Package experiment assembles runnable simulations from configuration.
package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/gridpde/internal/boundary"
	"github.com/san-kum/gridpde/internal/compute"
	"github.com/san-kum/gridpde/internal/config"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/integrators"
	"github.com/san-kum/gridpde/internal/operators"
	"github.com/san-kum/gridpde/internal/pde"
	"github.com/san-kum/gridpde/internal/sim"
	"github.com/san-kum/gridpde/internal/solver"
	"github.com/san-kum/gridpde/internal/storage"
)

// Experiment is a configuration resolved into a grid, its boundary
// conditions and an equation.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	logger   *zap.Logger

	grid    *grid.Structured
	bcs     *boundary.Set
	pde     pde.PDE
	backend compute.Backend
}

// New validates cfg and builds everything but the solver, which is created
// per run.
func New(cfg *config.Config, registry *Registry, logger *zap.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bounds := make([][2]float64, len(cfg.Grid.Bounds))
	for i, b := range cfg.Grid.Bounds {
		bounds[i] = [2]float64{b[0], b[1]}
	}
	var periodic []bool
	if len(cfg.Grid.Periodic) > 0 {
		periodic = cfg.Grid.Periodic
	}
	g, err := grid.New(cfg.Grid.Kind, bounds, cfg.Grid.Shape, periodic)
	if err != nil {
		return nil, err
	}

	bcs, err := boundary.NewSet(g, cfg.BC, 0)
	if err != nil {
		return nil, err
	}

	backend, err := compute.ParseBackend(cfg.Solver.Backend)
	if err != nil {
		return nil, err
	}

	p, err := registry.GetPDE(cfg.PDE.Name, bcs, cfg.PDE,
		operators.WithBackend(backend),
		operators.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("experiment ready",
		zap.String("name", cfg.Name),
		zap.String("pde", p.Name()),
		zap.Stringer("grid", g),
		zap.Stringer("bc", bcs),
		zap.String("backend", backend.Name()),
	)
	return &Experiment{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		grid:     g,
		bcs:      bcs,
		pde:      p,
		backend:  backend,
	}, nil
}

func (e *Experiment) Config() *config.Config    { return e.cfg }
func (e *Experiment) Grid() grid.Grid           { return e.grid }
func (e *Experiment) Conditions() *boundary.Set { return e.bcs }
func (e *Experiment) PDE() pde.PDE              { return e.pde }
func (e *Experiment) Backend() compute.Backend  { return e.backend }
func (e *Experiment) Metrics() []dynamo.Metric  { return e.registry.DefaultMetrics(e.grid) }

func (e *Experiment) InitialState() (dynamo.State, error) {
	return e.registry.GetInitial(e.grid, e.cfg.Initial)
}

// NewSolver builds the configured solver with the given noise seed.
func (e *Experiment) NewSolver(seed uint64) (solver.Solver, error) {
	sc := e.cfg.Solver
	switch sc.Method {
	case "explicit":
		scheme, err := integrators.ParseScheme(sc.Scheme)
		if err != nil {
			return nil, err
		}
		return solver.NewExplicit(e.pde, solver.Config{
			Scheme:    scheme,
			Adaptive:  sc.Adaptive,
			Tolerance: sc.Tolerance,
			Seed:      seed,
			Backend:   e.backend,
			Logger:    e.logger,
		})
	case "delegated":
		dc := solver.DelegatedConfig{Substeps: sc.Substeps, Logger: e.logger}
		if sc.Scheme != "" {
			scheme, err := integrators.ParseScheme(sc.Scheme)
			if err != nil {
				return nil, err
			}
			dc.Integrator = integrators.New(scheme)
		}
		return solver.NewDelegated(e.pde, dc)
	}
	return nil, dynamo.Configf("experiment", "unknown solver method %q", sc.Method)
}

// NewController builds a controller around a fresh solver.
func (e *Experiment) NewController(seed uint64) (*sim.Controller, error) {
	s, err := e.NewSolver(seed)
	if err != nil {
		return nil, err
	}
	c, err := sim.New(s, sim.Config{
		TStart:     e.cfg.TStart(),
		TEnd:       e.cfg.TEnd(),
		Interval:   e.cfg.Interval,
		MaxSteps:   e.cfg.MaxSteps,
		MaxRuntime: e.cfg.MaxRuntime,
	})
	if err != nil {
		return nil, err
	}
	c.SetLogger(e.logger)
	return c, nil
}

// Run integrates the initial state over the configured time range.
func (e *Experiment) Run(ctx context.Context, tr dynamo.Tracker, observers ...sim.StepObserver) (dynamo.State, dynamo.Info, error) {
	x0, err := e.InitialState()
	if err != nil {
		return nil, dynamo.Info{}, err
	}
	return e.RunFrom(ctx, x0, tr, observers...)
}

// RunFrom integrates x0 instead of the configured initial state.
func (e *Experiment) RunFrom(ctx context.Context, x0 dynamo.State, tr dynamo.Tracker, observers ...sim.StepObserver) (dynamo.State, dynamo.Info, error) {
	if len(x0) != e.grid.NumCells() {
		return nil, dynamo.Info{}, fmt.Errorf("experiment: initial state has %d values, grid has %d cells: %w",
			len(x0), e.grid.NumCells(), dynamo.ErrDimensionMismatch)
	}
	c, err := e.NewController(e.cfg.Solver.Seed)
	if err != nil {
		return nil, dynamo.Info{}, err
	}
	if tr != nil {
		c.SetTracker(tr)
	}
	for _, o := range observers {
		c.AddObserver(o)
	}
	x, err := c.Run(ctx, x0, e.cfg.Dt)
	return x, c.Info(), err
}

// Ensemble runs size copies of the experiment, member i seeded with
// Seed+i.
func (e *Experiment) Ensemble(ctx context.Context, size, limit int) ([]sim.Result, error) {
	x0, err := e.InitialState()
	if err != nil {
		return nil, err
	}
	ens := sim.NewEnsemble(size, func(member int) (*sim.Controller, error) {
		return e.NewController(e.cfg.Solver.Seed + uint64(member))
	})
	if limit > 0 {
		ens.SetLimit(limit)
	}
	return ens.Run(ctx, x0, e.cfg.Dt)
}

// Metadata describes a finished run for storage.
func (e *Experiment) Metadata(info dynamo.Info, values map[string]float64) storage.RunMetadata {
	name := e.cfg.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s", e.pde.Name(), e.grid.Name())
	}
	bounds := make([][2]float64, e.grid.NumAxes())
	periodic := make([]bool, e.grid.NumAxes())
	for i := range bounds {
		a := e.grid.Axis(i)
		bounds[i] = [2]float64{a.Min, a.Max}
		periodic[i] = a.Periodic
	}
	return storage.RunMetadata{
		Name:     name,
		PDE:      e.pde.Name(),
		Grid:     e.grid.String(),
		GridKind: e.cfg.Grid.Kind,
		Bounds:   bounds,
		Shape:    e.grid.Shape(),
		Periodic: periodic,
		Seed:     e.cfg.Solver.Seed,
		Dt:       e.cfg.Dt,
		TStart:   e.cfg.TStart(),
		TEnd:     e.cfg.TEnd(),
		Solver:   info.Solver,
		Scheme:   info.Scheme,
		Adaptive: info.Adaptive,
		Info:     info.Map(),
		Metrics:  values,
	}
}
