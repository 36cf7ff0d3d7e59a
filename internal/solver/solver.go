// Package solver advances a [dynamo.RHS] by single time steps, with
// optional error-controlled step sizes and additive noise.
package solver

import (
	"github.com/san-kum/gridpde/internal/dynamo"
)

// Solver is configured once and prepared for every run.
type Solver interface {
	Name() string
	// Prepare validates the solver against the initial state of a run and
	// resets the diagnostics. Combinations of features that cannot work
	// together are reported here with dynamo.ErrIncompatible.
	Prepare(x dynamo.State, t0, dt float64) (Stepper, error)
	// Info returns a snapshot of the diagnostics of the current run.
	Info() dynamo.Info
}

// Stepper performs single steps for one run. It never modifies x. The
// returned state may be an internal buffer that stays valid until the
// next call to Step; callers that keep it longer must clone it.
type Stepper interface {
	// Step attempts to advance x from t by dt. A rejected step returns x
	// and t unchanged together with a smaller dt to retry with.
	Step(x dynamo.State, t, dt float64) (next dynamo.State, tNext float64, accepted bool, dtNext float64, err error)
}

// buffers alternates between two scratch states so the output of a step
// never aliases its input.
type buffers [2]dynamo.State

func (b *buffers) target(x dynamo.State) dynamo.State {
	if len(b[0]) != len(x) {
		b[0] = make(dynamo.State, len(x))
		b[1] = make(dynamo.State, len(x))
	}
	if len(x) > 0 && &b[0][0] == &x[0] {
		return b[1]
	}
	return b[0]
}

func instability(step int, t float64, x dynamo.State) error {
	return &dynamo.SimulationError{
		Step:    step,
		Time:    t,
		State:   x.Clone(),
		Wrapped: dynamo.ErrNumericalInstability,
	}
}
