// Package boundary resolves boundary conditions against a grid and fills
// the ghost layer of padded field arrays.
//
// A condition starts as shorthand, parsed once into a [Spec]:
//
//	spec, err := boundary.Parse(map[string]any{"value": 1})
//	spec, err := boundary.Parse([]any{"periodic", map[string]any{"derivative": 0}})
//	spec, err := boundary.Parse("natural")
//
// [NewSet] binds a Spec to a grid and a field rank. The resulting [Set]
// holds one [Rule] per (axis, side) and turns every rule into an affine
// ghost update g = alpha*u + beta, evaluated fresh on every call of
// [Set.FillGhosts].
package boundary
