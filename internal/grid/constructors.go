package grid

import "github.com/san-kum/gridpde/internal/dynamo"

var cartesianLabels = []string{"x", "y", "z"}

// NewCartesian builds a rectangular grid. bounds and shape give one entry
// per axis; periodic may be nil (no periodic axes) or have one entry per
// axis.
func NewCartesian(bounds [][2]float64, shape []int, periodic []bool) (*Structured, error) {
	if len(bounds) != len(shape) {
		return nil, dynamo.Configf("cartesian grid", "%d bounds for %d axes", len(bounds), len(shape))
	}
	if periodic != nil && len(periodic) != len(shape) {
		return nil, dynamo.Configf("cartesian grid", "%d periodic flags for %d axes", len(periodic), len(shape))
	}
	axes := make([]Axis, len(shape))
	for i := range shape {
		label := "x" + string(rune('0'+i))
		if len(shape) <= len(cartesianLabels) {
			label = cartesianLabels[i]
		}
		axes[i] = Axis{Label: label, Min: bounds[i][0], Max: bounds[i][1], Cells: shape[i]}
		if periodic != nil {
			axes[i].Periodic = periodic[i]
		}
	}
	return newStructured(cartesian{}, axes)
}

// NewUnit builds a Cartesian grid whose cells have unit spacing.
func NewUnit(shape []int, periodic []bool) (*Structured, error) {
	bounds := make([][2]float64, len(shape))
	for i, n := range shape {
		bounds[i] = [2]float64{0, float64(n)}
	}
	return NewCartesian(bounds, shape, periodic)
}

// NewPolar builds a disk (rInner == 0) or an annulus.
func NewPolar(rInner, rOuter float64, cells int) (*Structured, error) {
	return newStructured(polar{}, []Axis{{Label: "r", Min: rInner, Max: rOuter, Cells: cells}})
}

// NewSpherical builds a ball (rInner == 0) or a spherical shell.
func NewSpherical(rInner, rOuter float64, cells int) (*Structured, error) {
	return newStructured(spherical{}, []Axis{{Label: "r", Min: rInner, Max: rOuter, Cells: cells}})
}

// NewCylindrical builds an axisymmetric cylinder of radius rOuter
// discretized in (r, z).
func NewCylindrical(rOuter, zMin, zMax float64, rCells, zCells int, periodicZ bool) (*Structured, error) {
	return newStructured(cylindrical{}, []Axis{
		{Label: "r", Min: 0, Max: rOuter, Cells: rCells},
		{Label: "z", Min: zMin, Max: zMax, Cells: zCells, Periodic: periodicZ},
	})
}

// New builds a grid by geometry name. It backs configuration files.
func New(kind string, bounds [][2]float64, shape []int, periodic []bool) (*Structured, error) {
	switch kind {
	case "", "cartesian":
		return NewCartesian(bounds, shape, periodic)
	case "unit":
		return NewUnit(shape, periodic)
	case "polar", "spherical":
		if len(bounds) != 1 || len(shape) != 1 {
			return nil, dynamo.Configf(kind+" grid", "needs exactly one radial axis")
		}
		if kind == "polar" {
			return NewPolar(bounds[0][0], bounds[0][1], shape[0])
		}
		return NewSpherical(bounds[0][0], bounds[0][1], shape[0])
	case "cylindrical":
		if len(bounds) != 2 || len(shape) != 2 {
			return nil, dynamo.Configf("cylindrical grid", "needs radial and axial bounds")
		}
		if bounds[0][0] != 0 {
			return nil, dynamo.Configf("cylindrical grid", "radial axis must start at 0, got %g", bounds[0][0])
		}
		pz := len(periodic) == 2 && periodic[1]
		return NewCylindrical(bounds[0][1], bounds[1][0], bounds[1][1], shape[0], shape[1], pz)
	default:
		return nil, dynamo.Configf("grid", "unknown geometry %q", kind)
	}
}
