package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/gridpde/internal/dynamo"
)

// Axis is one discretized coordinate direction with uniform spacing.
type Axis struct {
	Label    string
	Min, Max float64
	Cells    int
	Periodic bool
}

func (a Axis) Spacing() float64 {
	return (a.Max - a.Min) / float64(a.Cells)
}

// Centers returns the coordinates of the cell centres.
func (a Axis) Centers() []float64 {
	dx := a.Spacing()
	c := make([]float64, a.Cells)
	for i := range c {
		c[i] = a.Min + (float64(i)+0.5)*dx
	}
	return c
}

// Faces returns the Cells+1 coordinates of the cell faces.
func (a Axis) Faces() []float64 {
	dx := a.Spacing()
	f := make([]float64, a.Cells+1)
	for i := range f {
		f[i] = a.Min + float64(i)*dx
	}
	f[a.Cells] = a.Max
	return f
}

// Grid is the capability interface operators are built against.
type Grid interface {
	Name() string
	NumAxes() int
	// Dim is the number of components of a vector field on the grid.
	Dim() int
	Shape() []int
	NumCells() int
	Axis(i int) Axis
	Periodic(i int) bool
	Spacing(i int) float64
	CellCoords(i int) []float64

	// FaceAreas returns the Cells+1 area factors of the faces normal to
	// axis i. CellMeasures returns the matching one-dimensional volumes,
	// so that a flux difference divided by the measure is a divergence.
	FaceAreas(i int) []float64
	CellMeasures(i int) []float64
	// HasOrigin reports whether the lower end of axis i is a coordinate
	// singularity.
	HasOrigin(i int) bool
	// RadialAxis is the index of the curvilinear axis, or -1.
	RadialAxis() int
	// RadialPower is the exponent p of the Jacobian r^p of the radial
	// axis, or 0 on flat grids.
	RadialPower() int
	TensorTerms() []TensorTerm
	VectorTerms() ([]VectorTerm, bool)

	CellVolume(k int) float64
	CellVolumes() []float64
	Volume() float64

	// Ravel maps per-axis cell indices to a flat row-major index.
	Ravel(idx []int) int
	Unravel(k int) []int
}

// Structured is the single implementation of [Grid]; the geometry decides
// its metric.
type Structured struct {
	geom    Geometry
	axes    []Axis
	shape   []int
	strides []int
	size    int

	coords   [][]float64
	areas    [][]float64
	measures [][]float64
	volumes  []float64
}

var _ Grid = (*Structured)(nil)

func newStructured(geom Geometry, axes []Axis) (*Structured, error) {
	name := geom.Name() + " grid"
	if len(axes) == 0 {
		return nil, dynamo.Configf(name, "at least one axis is required")
	}
	for i, a := range axes {
		if a.Cells < 1 {
			return nil, dynamo.Configf(name, "axis %d (%s) needs at least one cell, got %d", i, a.Label, a.Cells)
		}
		if math.IsNaN(a.Min) || math.IsNaN(a.Max) || math.IsInf(a.Min, 0) || math.IsInf(a.Max, 0) {
			return nil, dynamo.Configf(name, "axis %d (%s) has non-finite bounds", i, a.Label)
		}
		if !(a.Max > a.Min) {
			return nil, dynamo.Configf(name, "axis %d (%s) needs max > min, got [%g, %g]", i, a.Label, a.Min, a.Max)
		}
	}
	if geom.RadialPower() > 0 {
		if axes[0].Min < 0 {
			return nil, dynamo.Configf(name, "radius must be non-negative, got %g", axes[0].Min)
		}
		if axes[0].Periodic {
			return nil, dynamo.Configf(name, "radial axis cannot be periodic")
		}
	}

	g := &Structured{
		geom:    geom,
		axes:    append([]Axis(nil), axes...),
		shape:   make([]int, len(axes)),
		strides: make([]int, len(axes)),
	}
	g.size = 1
	for i := len(axes) - 1; i >= 0; i-- {
		g.shape[i] = axes[i].Cells
		g.strides[i] = g.size
		g.size *= axes[i].Cells
	}

	g.coords = make([][]float64, len(axes))
	g.areas = make([][]float64, len(axes))
	g.measures = make([][]float64, len(axes))
	for i, a := range axes {
		g.coords[i] = a.Centers()
		p := 0
		if i == 0 {
			p = geom.RadialPower()
		}
		g.areas[i], g.measures[i] = metric(a, p)
	}

	g.volumes = make([]float64, g.size)
	ang := geom.AngularFactor()
	for k := range g.volumes {
		v := ang
		for i := range axes {
			v *= g.measures[i][(k/g.strides[i])%g.shape[i]]
		}
		g.volumes[k] = v
	}
	return g, nil
}

// metric returns face areas r^p and cell measures
// (r_hi^(p+1) - r_lo^(p+1)) / (p+1) for an axis with Jacobian r^p.
func metric(a Axis, p int) (areas, measures []float64) {
	faces := a.Faces()
	areas = make([]float64, len(faces))
	for i, f := range faces {
		areas[i] = math.Pow(f, float64(p))
	}
	measures = make([]float64, a.Cells)
	for i := range measures {
		lo, hi := faces[i], faces[i+1]
		if p == 0 {
			measures[i] = hi - lo
			continue
		}
		q := float64(p + 1)
		measures[i] = (math.Pow(hi, q) - math.Pow(lo, q)) / q
	}
	return areas, measures
}

func (g *Structured) Name() string                      { return g.geom.Name() }
func (g *Structured) Geometry() Geometry                { return g.geom }
func (g *Structured) NumAxes() int                      { return len(g.axes) }
func (g *Structured) Dim() int                          { return g.geom.Dim(len(g.axes)) }
func (g *Structured) Shape() []int                      { return append([]int(nil), g.shape...) }
func (g *Structured) NumCells() int                     { return g.size }
func (g *Structured) Axis(i int) Axis                   { return g.axes[i] }
func (g *Structured) Periodic(i int) bool               { return g.axes[i].Periodic }
func (g *Structured) Spacing(i int) float64             { return g.axes[i].Spacing() }
func (g *Structured) CellCoords(i int) []float64        { return g.coords[i] }
func (g *Structured) FaceAreas(i int) []float64         { return g.areas[i] }
func (g *Structured) CellMeasures(i int) []float64      { return g.measures[i] }
func (g *Structured) TensorTerms() []TensorTerm         { return g.geom.TensorTerms() }
func (g *Structured) VectorTerms() ([]VectorTerm, bool) { return g.geom.VectorTerms() }
func (g *Structured) CellVolume(k int) float64          { return g.volumes[k] }
func (g *Structured) CellVolumes() []float64            { return g.volumes }

func (g *Structured) HasOrigin(i int) bool {
	return i == 0 && g.geom.RadialPower() > 0 && g.axes[0].Min == 0
}

func (g *Structured) RadialPower() int { return g.geom.RadialPower() }

func (g *Structured) RadialAxis() int {
	if g.geom.RadialPower() > 0 {
		return 0
	}
	return -1
}

func (g *Structured) Volume() float64 {
	sum := 0.0
	for _, v := range g.volumes {
		sum += v
	}
	return sum
}

func (g *Structured) Ravel(idx []int) int {
	k := 0
	for i, j := range idx {
		k += j * g.strides[i]
	}
	return k
}

func (g *Structured) Unravel(k int) []int {
	idx := make([]int, len(g.shape))
	for i := range g.shape {
		idx[i] = (k / g.strides[i]) % g.shape[i]
	}
	return idx
}

// Coords returns the cell-centre coordinates of flat cell k.
func (g *Structured) Coords(k int) []float64 {
	c := make([]float64, len(g.shape))
	for i := range g.shape {
		c[i] = g.coords[i][(k/g.strides[i])%g.shape[i]]
	}
	return c
}

func (g *Structured) String() string {
	s := g.geom.Name() + "("
	for i, a := range g.axes {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=[%g, %g]x%d", a.Label, a.Min, a.Max, a.Cells)
		if a.Periodic {
			s += " periodic"
		}
	}
	return s + ")"
}
