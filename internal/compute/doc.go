// Package compute provides execution backends for operator kernels and
// solver updates.
//
// A backend decides how a loop over grid cells is executed:
//
//   - serial: a single plain loop (default)
//   - parallel: the cell range is split into chunks evaluated by goroutines
//
// Backends are selected once by name when an operator or solver is built:
//
//	backend, err := compute.ParseBackend("parallel")
//	backend.For(n, func(lo, hi int) { ... })
//
// The parallel backend only pays off for grids with many thousands of
// cells; small loops always run serially.
package compute
