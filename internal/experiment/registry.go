package experiment

import (
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/gridpde/internal/boundary"
	"github.com/san-kum/gridpde/internal/config"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/field"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/metrics"
	"github.com/san-kum/gridpde/internal/operators"
	"github.com/san-kum/gridpde/internal/pde"
)

// PDEFactory builds an equation from its configuration section.
type PDEFactory func(bcs *boundary.Set, cfg config.PDEConfig, opts ...operators.Option) (pde.PDE, error)

// InitialFactory builds the starting field of a run.
type InitialFactory func(g grid.Grid, cfg config.InitialConfig) (dynamo.State, error)

type Registry struct {
	pdes     map[string]PDEFactory
	initials map[string]InitialFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		pdes:     make(map[string]PDEFactory),
		initials: make(map[string]InitialFactory),
	}

	r.pdes["diffusion"] = func(bcs *boundary.Set, cfg config.PDEConfig, opts ...operators.Option) (pde.PDE, error) {
		return pde.NewDiffusion(bcs, param(cfg.Params, "diffusivity", 1), cfg.Noise, opts...)
	}
	r.pdes["allen-cahn"] = func(bcs *boundary.Set, cfg config.PDEConfig, opts ...operators.Option) (pde.PDE, error) {
		if cfg.Noise != 0 {
			return nil, dynamo.Configf("allen-cahn", "equation has no noise term")
		}
		return pde.NewAllenCahn(bcs, param(cfg.Params, "interface_width", 1), param(cfg.Params, "mobility", 1), opts...)
	}
	r.pdes["kpz"] = func(bcs *boundary.Set, cfg config.PDEConfig, opts ...operators.Option) (pde.PDE, error) {
		return pde.NewKPZ(bcs, param(cfg.Params, "nu", 0.5), param(cfg.Params, "lambda", 1), cfg.Noise, opts...)
	}

	r.initials["constant"] = func(g grid.Grid, cfg config.InitialConfig) (dynamo.State, error) {
		v := param(cfg.Params, "value", 0)
		return field.Scalar(g, func([]float64) float64 { return v }), nil
	}
	r.initials["uniform"] = func(g grid.Grid, cfg config.InitialConfig) (dynamo.State, error) {
		lo, hi := param(cfg.Params, "min", 0), param(cfg.Params, "max", 1)
		if hi < lo {
			return nil, dynamo.Configf("initial", "uniform range is empty: [%g, %g]", lo, hi)
		}
		return field.Uniform(g, lo, hi, cfg.Seed), nil
	}
	r.initials["normal"] = func(g grid.Grid, cfg config.InitialConfig) (dynamo.State, error) {
		std := param(cfg.Params, "std", 1)
		if std < 0 {
			return nil, dynamo.Configf("initial", "standard deviation must not be negative, got %g", std)
		}
		return field.Normal(g, param(cfg.Params, "mean", 0), std, cfg.Seed), nil
	}
	r.initials["harmonic"] = func(g grid.Grid, cfg config.InitialConfig) (dynamo.State, error) {
		modes := cfg.Modes
		if len(modes) == 0 {
			modes = []int{1}
		}
		if len(modes) > g.NumAxes() {
			return nil, dynamo.Configf("initial", "%d modes for %d axes", len(modes), g.NumAxes())
		}
		return field.Harmonic(g, modes), nil
	}
	r.initials["gaussian"] = func(g grid.Grid, cfg config.InitialConfig) (dynamo.State, error) {
		sigma := param(cfg.Params, "sigma", 0.1)
		if sigma <= 0 {
			return nil, dynamo.Configf("initial", "gaussian width must be positive, got %g", sigma)
		}
		center := cfg.Center
		if len(center) == 0 {
			center = make([]float64, g.NumAxes())
			for i := range center {
				a := g.Axis(i)
				center[i] = (a.Min + a.Max) / 2
			}
		}
		return field.Gaussian(g, center, sigma), nil
	}

	return r
}

func param(params map[string]float64, name string, def float64) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return def
}

// RegisterPDE adds or replaces an equation.
func (r *Registry) RegisterPDE(name string, f PDEFactory) { r.pdes[name] = f }

func (r *Registry) RegisterInitial(name string, f InitialFactory) { r.initials[name] = f }

func (r *Registry) GetPDE(name string, bcs *boundary.Set, cfg config.PDEConfig, opts ...operators.Option) (pde.PDE, error) {
	fn, ok := r.pdes[name]
	if !ok {
		return nil, dynamo.Configf("registry", "unknown pde: %s", name)
	}
	p, err := fn(bcs, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("pde %s: %w", name, err)
	}
	if len(cfg.Clip) == 2 {
		p = &pde.Bounded{PDE: p, Min: cfg.Clip[0], Max: cfg.Clip[1]}
	}
	return p, nil
}

func (r *Registry) GetInitial(g grid.Grid, cfg config.InitialConfig) (dynamo.State, error) {
	fn, ok := r.initials[cfg.Kind]
	if !ok {
		return nil, dynamo.Configf("registry", "unknown initial condition: %s", cfg.Kind)
	}
	return fn(g, cfg)
}

func (r *Registry) ListPDEs() []string {
	return slices.Sorted(maps.Keys(r.pdes))
}

func (r *Registry) ListInitials() []string {
	return slices.Sorted(maps.Keys(r.initials))
}

// DefaultMetrics are the summaries recorded for every stored run.
func (r *Registry) DefaultMetrics(g grid.Grid) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewIntegral(g),
		metrics.NewIntegralDrift(g),
		metrics.NewStability(1e6),
		metrics.NewExtremum(),
		metrics.NewFluctuation(g),
	}
}
