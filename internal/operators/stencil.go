package operators

import "github.com/san-kum/gridpde/internal/grid"

// axisStencil holds the coefficients of one axis, indexed by the cell
// position i along that axis.
type axisStencil struct {
	stride int // padded stride
	step   int // stride of the flat interior index
	n      int

	invDx  float64
	inv2Dx float64
	// laplace: lapHi[i]*(u+ - u) - lapLo[i]*(u - u-)
	lapLo, lapHi []float64
}

func (s *axisStencil) index(k int) int { return (k / s.step) % s.n }

type stencils struct {
	grid   grid.Grid
	layout *grid.Layout
	axes   []axisStencil
	cells  int
	size   int // padded block size

	// invR[i] = 1/r at radial cell i; nil on flat grids.
	invR    []float64
	radial  int
	power   float64
	dim     int
	numAxes int
}

func newStencils(g grid.Grid, l *grid.Layout) *stencils {
	st := &stencils{
		grid:    g,
		layout:  l,
		axes:    make([]axisStencil, g.NumAxes()),
		cells:   g.NumCells(),
		size:    l.Size,
		radial:  g.RadialAxis(),
		power:   float64(g.RadialPower()),
		dim:     g.Dim(),
		numAxes: g.NumAxes(),
	}
	step := 1
	for a := g.NumAxes() - 1; a >= 0; a-- {
		n := g.Axis(a).Cells
		dx := g.Spacing(a)
		areas, measures := g.FaceAreas(a), g.CellMeasures(a)
		s := axisStencil{
			stride: l.Strides[a],
			step:   step,
			n:      n,
			invDx:  1 / dx,
			inv2Dx: 1 / (2 * dx),
			lapLo:  make([]float64, n),
			lapHi:  make([]float64, n),
		}
		for i := 0; i < n; i++ {
			s.lapLo[i] = areas[i] / (dx * measures[i])
			s.lapHi[i] = areas[i+1] / (dx * measures[i])
		}
		st.axes[a] = s
		step *= n
	}
	if st.radial >= 0 {
		r := g.CellCoords(st.radial)
		st.invR = make([]float64, len(r))
		for i, v := range r {
			st.invR[i] = 1 / v
		}
	}
	return st
}

// kernel evaluates cells [lo, hi) of out from the padded input blocks in buf.
type kernel func(buf, out []float64, lo, hi int)

func (st *stencils) laplace(buf []float64, p, k int) float64 {
	u := buf[p]
	sum := 0.0
	for a := range st.axes {
		s := &st.axes[a]
		i := s.index(k)
		sum += s.lapHi[i]*(buf[p+s.stride]-u) - s.lapLo[i]*(u-buf[p-s.stride])
	}
	return sum
}

func (st *stencils) radius(k int) float64 {
	return st.invR[st.axes[st.radial].index(k)]
}

func (st *stencils) laplaceKernel() kernel {
	return func(buf, out []float64, lo, hi int) {
		for k := lo; k < hi; k++ {
			out[k] = st.laplace(buf, st.layout.Interior[k], k)
		}
	}
}

func (st *stencils) gradientKernel() kernel {
	return func(buf, out []float64, lo, hi int) {
		n := st.cells
		for k := lo; k < hi; k++ {
			p := st.layout.Interior[k]
			for a := range st.axes {
				s := &st.axes[a]
				out[a*n+k] = (buf[p+s.stride] - buf[p-s.stride]) * s.inv2Dx
			}
			for c := st.numAxes; c < st.dim; c++ {
				out[c*n+k] = 0
			}
		}
	}
}

func (st *stencils) gradientSquaredKernel(central bool) kernel {
	if central {
		return func(buf, out []float64, lo, hi int) {
			for k := lo; k < hi; k++ {
				p := st.layout.Interior[k]
				sum := 0.0
				for a := range st.axes {
					s := &st.axes[a]
					d := (buf[p+s.stride] - buf[p-s.stride]) * s.inv2Dx
					sum += d * d
				}
				out[k] = sum
			}
		}
	}
	return func(buf, out []float64, lo, hi int) {
		for k := lo; k < hi; k++ {
			p := st.layout.Interior[k]
			u := buf[p]
			sum := 0.0
			for a := range st.axes {
				s := &st.axes[a]
				dl := (u - buf[p-s.stride]) * s.invDx
				dh := (buf[p+s.stride] - u) * s.invDx
				sum += 0.5 * (dl*dl + dh*dh)
			}
			out[k] = sum
		}
	}
}

// divergence of the vector stored in blocks base, base+1, ... of buf,
// taking component a along axis a. The radial component adds p*v/r.
func (st *stencils) divergence(buf []float64, base, p, k int) float64 {
	sum := 0.0
	for a := range st.axes {
		s := &st.axes[a]
		q := (base+a)*st.size + p
		sum += (buf[q+s.stride] - buf[q-s.stride]) * s.inv2Dx
		if a == st.radial {
			sum += st.power * buf[q] * st.radius(k)
		}
	}
	return sum
}

func (st *stencils) divergenceKernel() kernel {
	return func(buf, out []float64, lo, hi int) {
		for k := lo; k < hi; k++ {
			out[k] = st.divergence(buf, 0, st.layout.Interior[k], k)
		}
	}
}

func (st *stencils) tensorDivergenceKernel(terms []grid.TensorTerm) kernel {
	dim := st.dim
	return func(buf, out []float64, lo, hi int) {
		n := st.cells
		for k := lo; k < hi; k++ {
			p := st.layout.Interior[k]
			for i := 0; i < dim; i++ {
				out[i*n+k] = st.divergence(buf, i*dim, p, k)
			}
			if len(terms) == 0 {
				continue
			}
			invR := st.radius(k)
			for _, t := range terms {
				out[t.Out*n+k] += t.Coef * buf[(t.Row*dim+t.Col)*st.size+p] * invR
			}
		}
	}
}

func (st *stencils) vectorGradientKernel() kernel {
	dim := st.dim
	return func(buf, out []float64, lo, hi int) {
		n := st.cells
		for k := lo; k < hi; k++ {
			p := st.layout.Interior[k]
			for i := 0; i < dim; i++ {
				q := i*st.size + p
				for a := range st.axes {
					s := &st.axes[a]
					out[(i*dim+a)*n+k] = (buf[q+s.stride] - buf[q-s.stride]) * s.inv2Dx
				}
			}
		}
	}
}

func (st *stencils) vectorLaplaceKernel(terms []grid.VectorTerm) kernel {
	dim := st.dim
	return func(buf, out []float64, lo, hi int) {
		n := st.cells
		for k := lo; k < hi; k++ {
			p := st.layout.Interior[k]
			for i := 0; i < dim; i++ {
				out[i*n+k] = st.laplace(buf, i*st.size+p, k)
			}
			if len(terms) == 0 {
				continue
			}
			invR := st.radius(k)
			invR2 := invR * invR
			for _, t := range terms {
				out[t.Out*n+k] += t.Coef * buf[t.In*st.size+p] * invR2
			}
		}
	}
}
