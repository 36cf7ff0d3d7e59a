package dynamo

import (
	"math"
)

// State is the flat data of a discretized field. Vector and tensor fields
// store their components back to back.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// AddScaled adds factor*other to s in place.
func (s State) AddScaled(factor float64, other State) {
	for i := range s {
		s[i] += factor * other[i]
	}
}

// RHS evaluates the evolution rate of a field. Evolve writes dState/dt
// into out, which has the same length as x. Implementations must not
// retain or modify x.
type RHS interface {
	Evolve(x State, t float64, out State)
}

// RHSFunc adapts a plain function to the [RHS] interface.
type RHSFunc func(x State, t float64, out State)

func (f RHSFunc) Evolve(x State, t float64, out State) { f(x, t, out) }

// Stochastic is implemented by evaluators with additive white noise.
// NoiseAmplitude returns the standard deviation per unit square-root time
// for every entry of the state, or nil when the evaluator is deterministic.
type Stochastic interface {
	NoiseAmplitude() []float64
}

// IsStochastic reports whether rhs carries a nonzero noise amplitude.
func IsStochastic(rhs RHS) bool {
	s, ok := rhs.(Stochastic)
	if !ok {
		return false
	}
	for _, v := range s.NoiseAmplitude() {
		if v != 0 {
			return true
		}
	}
	return false
}

// Modifier is implemented by evaluators that correct the state after
// every accepted step, for instance to clip it to a physical range. The
// returned value measures the size of the correction.
type Modifier interface {
	ModifyAfterStep(x State) float64
}

// Tracker is offered sampled states during a run. Returning
// ErrStopIteration ends the run early without error; any other error
// aborts it. x is the stepper's working buffer: it is only valid for the
// duration of the call and must be cloned if kept.
type Tracker interface {
	Handle(x State, t float64) error
}

// TrackerFunc adapts a plain function to the [Tracker] interface.
type TrackerFunc func(x State, t float64) error

func (f TrackerFunc) Handle(x State, t float64) error { return f(x, t) }

// Metric accumulates a scalar summary of the states it observes.
type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}
