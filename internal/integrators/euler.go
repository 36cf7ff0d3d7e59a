package integrators

import "github.com/san-kum/gridpde/internal/dynamo"

type Euler struct {
	k dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string   { return "euler" }
func (e *Euler) Order() int     { return 1 }
func (e *Euler) Embedded() bool { return false }

func (e *Euler) Step(rhs dynamo.RHS, x dynamo.State, t, dt float64, out, _ dynamo.State) int {
	if len(e.k) != len(x) {
		e.k = make(dynamo.State, len(x))
	}
	rhs.Evolve(x, t, e.k)
	for i := range x {
		out[i] = x[i] + dt*e.k[i]
	}
	return 1
}
