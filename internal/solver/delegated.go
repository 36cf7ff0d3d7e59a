package solver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/integrators"
)

type DelegatedConfig struct {
	// Integrator receives every interval. Defaults to classic RK4.
	Integrator integrators.Integrator
	// Substeps splits each interval into equal sub-steps.
	Substeps int
	Logger   *zap.Logger
}

// Delegated hands each interval it is asked to step over to an external
// integrator and accepts the result unconditionally. It has no notion of
// noise, so stochastic right-hand sides are rejected by Prepare.
type Delegated struct {
	rhs      dynamo.RHS
	integ    integrators.Integrator
	substeps int
	logger   *zap.Logger
	info     dynamo.Info
}

func NewDelegated(rhs dynamo.RHS, cfg DelegatedConfig) (*Delegated, error) {
	if rhs == nil {
		return nil, dynamo.Configf("delegated solver", "no right-hand side")
	}
	if cfg.Substeps < 0 {
		return nil, dynamo.Configf("delegated solver", "substeps must not be negative, got %d", cfg.Substeps)
	}
	d := &Delegated{
		rhs:      rhs,
		integ:    cfg.Integrator,
		substeps: cfg.Substeps,
		logger:   cfg.Logger,
	}
	if d.integ == nil {
		d.integ = integrators.NewRK4()
	}
	if d.substeps == 0 {
		d.substeps = 1
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d, nil
}

func (d *Delegated) Name() string      { return "delegated" }
func (d *Delegated) Info() dynamo.Info { return d.info }

func (d *Delegated) Prepare(x dynamo.State, t0, dt float64) (Stepper, error) {
	if dynamo.IsStochastic(d.rhs) {
		return nil, fmt.Errorf("noise with the delegated solver: %w", dynamo.ErrIncompatible)
	}
	if len(x) == 0 {
		return nil, dynamo.Configf("delegated solver", "empty initial state")
	}
	if !(dt > 0) {
		return nil, dynamo.Configf("delegated solver", "dt must be positive, got %g", dt)
	}
	d.info = dynamo.Info{
		Solver:  d.Name(),
		Scheme:  d.integ.Name(),
		Backend: "delegated",
		Dt:      dt,
		DtNext:  dt,
		TFinal:  t0,
	}
	d.logger.Debug("delegated solver prepared",
		zap.String("integrator", d.integ.Name()),
		zap.Int("substeps", d.substeps),
	)
	return &delegatedStepper{solver: d}, nil
}

type delegatedStepper struct {
	solver *Delegated
	out    buffers
	sub    buffers
}

func (st *delegatedStepper) Step(x dynamo.State, t, dt float64) (dynamo.State, float64, bool, float64, error) {
	d := st.solver
	if !(dt > 0) {
		return x, t, false, dt, dynamo.Configf("delegated solver", "dt must be positive, got %g", dt)
	}
	d.info.Steps++
	d.info.Dt = dt

	h := dt / float64(d.substeps)
	cur := x
	for i := 0; i < d.substeps; i++ {
		var next dynamo.State
		if i == d.substeps-1 {
			next = st.out.target(x)
		} else {
			next = st.sub.target(cur)
		}
		d.info.Evaluations += d.integ.Step(d.rhs, cur, t+float64(i)*h, h, next, nil)
		cur = next
	}
	if !cur.IsValid() {
		return x, t, false, dt, instability(d.info.Steps, t, x)
	}
	if m, ok := d.rhs.(dynamo.Modifier); ok {
		d.info.Modifications += m.ModifyAfterStep(cur)
	}
	d.info.Accepted++
	d.info.DtNext = dt
	d.info.TFinal = t + dt
	return cur, t + dt, true, dt, nil
}
