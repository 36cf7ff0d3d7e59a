package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for grid, operator and solver operations.
var (
	// ErrConfiguration indicates a malformed grid, boundary or operator request.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrNumericalInstability indicates a step produced NaN or Inf values.
	ErrNumericalInstability = errors.New("dynamo: numerical instability (NaN or Inf detected)")

	// ErrConvergence indicates adaptive stepping could not reach the end of
	// the time range within its limits.
	ErrConvergence = errors.New("dynamo: no convergence within step limits")

	// ErrIncompatible indicates a combination of solver features that cannot
	// be used together, such as noise with a Runge-Kutta scheme.
	ErrIncompatible = errors.New("dynamo: incompatible solver configuration")

	// ErrStopIteration is returned by trackers to end a run early.
	ErrStopIteration = errors.New("dynamo: stop iteration")

	// ErrDimensionMismatch indicates mismatched state/field dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and grid")
)

// ConfigurationError describes a rejected construction request.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// Configf builds a [ConfigurationError] for component.
func Configf(component, format string, args ...any) error {
	return &ConfigurationError{Component: component, Reason: fmt.Sprintf(format, args...)}
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
