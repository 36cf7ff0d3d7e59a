// Package grid defines structured discretizations of space.
//
// Every grid is a [Structured] product of [Axis] values with uniform cell
// spacing. Curvilinear grids are rotationally symmetric: only the radial
// (and, for cylinders, the axial) coordinate is discretized, and the grid
// reports the metric factors that operators need:
//
//   - [NewCartesian], [NewUnit]: any number of axes, optionally periodic
//   - [NewPolar]: disk or annulus in two dimensions
//   - [NewSpherical]: ball or spherical shell in three dimensions
//   - [NewCylindrical]: axisymmetric (r, z) discretization of a cylinder
//
// Operators never switch on the concrete geometry. They read face areas,
// cell measures, the origin flag and the cross-component terms through the
// [Grid] interface:
//
//	g, _ := grid.NewPolar(0, 1, 32)
//	areas := g.FaceAreas(0)      // r^1 at every face
//	measures := g.CellMeasures(0) // (r_hi^2 - r_lo^2) / 2
//
// Grids are immutable after construction and safe for concurrent use.
package grid
