// Package operators compiles differential operators on structured grids.
//
// Building an operator is a two-phase contract. [Build] derives per-axis
// stencil coefficients from the grid metric and the boundary conditions
// once; the returned [Operator] is then applied many times:
//
//	bcs, _ := boundary.NewSet(g, "natural", 0)
//	lap, _ := operators.Build(operators.Laplace, bcs)
//	out := lap.Apply(x)
//
// Every operator uses a finite-volume form: along axis a with face areas
// A and cell measures V the laplacian reads
//
//	sum_a [A+ (u+ - u) - A- (u - u-)] / (dx V)
//
// which integrates exactly to the boundary flux and needs no special case
// at a coordinate origin, where the face area vanishes.
//
// Operators are safe for concurrent use; padded work buffers come from a
// pool and the ghost layer is refilled on every call.
package operators
