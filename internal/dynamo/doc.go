// Package dynamo provides the core value types shared by the grid,
// operator and solver packages.
//
// The package defines the contracts that connect a discretized field to a
// time stepper:
//
//   - [State]: flat field data (scalar, vector or rank-2 tensor valued)
//   - [RHS]: evaluator of the evolution rate dState/dt
//   - [Stochastic]: optional additive noise exposed by an [RHS]
//   - [Tracker]: sink that is offered sampled states during a run
//   - [Info]: solver diagnostics collected during a run
//
// # Errors
//
// Failures are reported through a small taxonomy of sentinel errors that
// callers match with errors.Is:
//
//	_, err := ctrl.Run(ctx, x0, dt)
//	if errors.Is(err, dynamo.ErrNumericalInstability) {
//	    // the state diverged
//	}
//
// # Thread Safety
//
// States are plain slices and carry no synchronization. A [Pool] may be
// shared between goroutines.
package dynamo
