// Package integrators implements explicit one-step schemes over a
// [dynamo.RHS].
//
// Integrators keep scratch buffers between calls and must not be shared
// between goroutines.
package integrators

import (
	"strings"

	"github.com/san-kum/gridpde/internal/dynamo"
)

type Integrator interface {
	Name() string
	// Order is the convergence order of the propagated solution.
	Order() int
	// Embedded reports whether Step produces a local error estimate.
	Embedded() bool
	// Step writes the state at t+dt into out. Embedded schemes also write
	// the local error estimate into errEst, which may be nil otherwise.
	// It returns the number of rhs evaluations.
	Step(rhs dynamo.RHS, x dynamo.State, t, dt float64, out, errEst dynamo.State) int
}

// Scheme enumerates the available integrators.
type Scheme int

const (
	SchemeEuler Scheme = iota
	SchemeRungeKutta
	SchemeRK4
)

func (s Scheme) String() string {
	switch s {
	case SchemeEuler:
		return "euler"
	case SchemeRungeKutta:
		return "runge-kutta"
	case SchemeRK4:
		return "rk4"
	}
	return "unknown"
}

// ParseScheme resolves a scheme name. "rk", "rk45" and "dopri" select the
// embedded Runge-Kutta pair.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "euler":
		return SchemeEuler, nil
	case "runge-kutta", "rk", "rk45", "dopri":
		return SchemeRungeKutta, nil
	case "rk4":
		return SchemeRK4, nil
	}
	return 0, dynamo.Configf("integrator", "unknown scheme %q", name)
}

// New returns a fresh integrator for s.
func New(s Scheme) Integrator {
	switch s {
	case SchemeRungeKutta:
		return NewRK45()
	case SchemeRK4:
		return NewRK4()
	}
	return NewEuler()
}
