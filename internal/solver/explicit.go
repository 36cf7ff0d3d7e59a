package solver

import (
	"fmt"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/integrators"
)

// Explicit integrates with a one-step explicit scheme. In adaptive mode
// the local error comes from the embedded pair of the Runge-Kutta scheme
// or, for schemes without one, from step doubling.
type Explicit struct {
	rhs  dynamo.RHS
	cfg  Config
	info dynamo.Info
}

// NewExplicit checks cfg eagerly; incompatibilities with the state or
// the noise of rhs are only detected by Prepare.
func NewExplicit(rhs dynamo.RHS, cfg Config) (*Explicit, error) {
	if rhs == nil {
		return nil, dynamo.Configf("solver", "no right-hand side")
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if _, err := integrators.ParseScheme(cfg.Scheme.String()); err != nil {
		return nil, err
	}
	return &Explicit{rhs: rhs, cfg: cfg}, nil
}

func (e *Explicit) Name() string      { return "explicit" }
func (e *Explicit) Config() Config    { return e.cfg }
func (e *Explicit) Info() dynamo.Info { return e.info }
func (e *Explicit) RHS() dynamo.RHS   { return e.rhs }

func (e *Explicit) Prepare(x dynamo.State, t0, dt float64) (Stepper, error) {
	if len(x) == 0 {
		return nil, dynamo.Configf("solver", "empty initial state")
	}
	if !(dt > 0) {
		return nil, dynamo.Configf("solver", "dt must be positive, got %g", dt)
	}

	e.info = dynamo.Info{
		Solver:   e.Name(),
		Scheme:   e.cfg.Scheme.String(),
		Backend:  e.cfg.Backend.Name(),
		Adaptive: e.cfg.Adaptive,
		Dt:       dt,
		DtNext:   dt,
		TFinal:   t0,
	}

	st := &explicitStepper{
		solver: e,
		integ:  integrators.New(e.cfg.Scheme),
	}
	if m, ok := e.rhs.(dynamo.Modifier); ok {
		st.modifier = m
	}

	if dynamo.IsStochastic(e.rhs) {
		if e.cfg.Scheme != integrators.SchemeEuler {
			return nil, fmt.Errorf("noise with the %s scheme: %w", e.cfg.Scheme, dynamo.ErrIncompatible)
		}
		if e.cfg.Adaptive {
			return nil, fmt.Errorf("noise with adaptive stepping: %w", dynamo.ErrIncompatible)
		}
		amp := e.rhs.(dynamo.Stochastic).NoiseAmplitude()
		if len(amp) != len(x) {
			return nil, fmt.Errorf("noise amplitude has %d values, state has %d: %w", len(amp), len(x), dynamo.ErrDimensionMismatch)
		}
		st.noise = amp
		seed := e.cfg.Seed
		st.normal = distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	}

	st.errOrder = st.integ.Order()
	if st.integ.Embedded() {
		st.errOrder--
	}

	e.cfg.Logger.Debug("solver prepared",
		zap.String("scheme", e.info.Scheme),
		zap.Bool("adaptive", e.cfg.Adaptive),
		zap.Bool("noise", st.noise != nil),
		zap.Int("size", len(x)),
		zap.Float64("dt", dt),
	)
	return st, nil
}

type explicitStepper struct {
	solver   *Explicit
	integ    integrators.Integrator
	modifier dynamo.Modifier
	out      buffers

	// order of the local error estimate
	errOrder int
	errEst   dynamo.State
	coarse   dynamo.State
	half     dynamo.State

	noise  []float64
	normal distuv.Normal
}

func (st *explicitStepper) Step(x dynamo.State, t, dt float64) (dynamo.State, float64, bool, float64, error) {
	e := st.solver
	info := &e.info
	if !(dt > 0) || math.IsInf(dt, 0) {
		return x, t, false, dt, dynamo.Configf("solver", "dt must be positive and finite, got %g", dt)
	}
	info.Steps++
	info.Dt = dt
	next := st.out.target(x)

	if !e.cfg.Adaptive {
		info.Evaluations += st.integ.Step(e.rhs, x, t, dt, next, nil)
		if !next.IsValid() {
			return x, t, false, dt, st.fail(t, x)
		}
		st.finish(next, dt)
		info.Accepted++
		info.DtNext = dt
		info.TFinal = t + dt
		return next, t + dt, true, dt, nil
	}

	errNorm := st.estimate(x, t, dt, next)
	if !next.IsValid() || math.IsNaN(errNorm) {
		return x, t, false, dt, st.fail(t, x)
	}

	factor := e.cfg.Grow
	if errNorm > 0 {
		factor = e.cfg.Safety * math.Pow(errNorm, -1/float64(st.errOrder+1))
	}

	if errNorm > 1 {
		info.Rejected++
		dtNext := dt * math.Max(e.cfg.Shrink, math.Min(factor, e.cfg.Safety))
		info.DtNext = dtNext
		if dtNext < e.cfg.MinDt {
			return x, t, false, dtNext, &dynamo.SimulationError{
				Step:    info.Steps,
				Time:    t,
				State:   x.Clone(),
				Wrapped: fmt.Errorf("step size %g below minimum %g: %w", dtNext, e.cfg.MinDt, dynamo.ErrConvergence),
			}
		}
		return x, t, false, dtNext, nil
	}

	st.finish(next, dt)
	dtNext := dt * math.Min(e.cfg.Grow, math.Max(e.cfg.Shrink, factor))
	if e.cfg.MaxDt > 0 {
		dtNext = math.Min(dtNext, e.cfg.MaxDt)
	}
	info.Accepted++
	info.DtNext = dtNext
	info.TFinal = t + dt
	return next, t + dt, true, dtNext, nil
}

// estimate writes the solution at t+dt into next and returns the local
// error scaled by the tolerance.
func (st *explicitStepper) estimate(x dynamo.State, t, dt float64, next dynamo.State) float64 {
	e := st.solver
	n := len(x)
	if len(st.errEst) != n {
		st.errEst = make(dynamo.State, n)
		st.coarse = make(dynamo.State, n)
		st.half = make(dynamo.State, n)
	}

	if st.integ.Embedded() {
		e.info.Evaluations += st.integ.Step(e.rhs, x, t, dt, next, st.errEst)
	} else {
		e.info.Evaluations += st.integ.Step(e.rhs, x, t, dt, st.coarse, nil)
		e.info.Evaluations += st.integ.Step(e.rhs, x, t, dt/2, st.half, nil)
		e.info.Evaluations += st.integ.Step(e.rhs, st.half, t+dt/2, dt/2, next, nil)

		// Richardson extrapolation of the two half steps
		w := math.Pow(2, float64(st.integ.Order())) - 1
		e.cfg.Backend.For(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				d := (next[i] - st.coarse[i]) / w
				st.errEst[i] = d
				next[i] += d
			}
		})
	}

	worst := 0.0
	for i := 0; i < n; i++ {
		scale := 1 + math.Max(math.Abs(x[i]), math.Abs(next[i]))
		v := math.Abs(st.errEst[i]) / scale
		if math.IsNaN(v) {
			return math.NaN()
		}
		worst = math.Max(worst, v)
	}
	return worst / e.cfg.Tolerance
}

// finish applies noise and the state modifier to an accepted step.
func (st *explicitStepper) finish(next dynamo.State, dt float64) {
	info := &st.solver.info
	if st.noise != nil {
		sq := math.Sqrt(dt)
		for i, amp := range st.noise {
			if amp != 0 {
				next[i] += sq * amp * st.normal.Rand()
			}
		}
		info.Stochastic = true
	}
	if st.modifier != nil {
		info.Modifications += st.modifier.ModifyAfterStep(next)
	}
}

func (st *explicitStepper) fail(t float64, x dynamo.State) error {
	e := st.solver
	e.cfg.Logger.Warn("non-finite state",
		zap.Int("step", e.info.Steps),
		zap.Float64("t", t),
	)
	return instability(e.info.Steps, t, x)
}
