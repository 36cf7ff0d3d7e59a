// Package field builds and summarizes discretized field data.
package field

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
)

// Coords returns the cell-centre coordinates of flat cell k of g.
func Coords(g grid.Grid, k int) []float64 {
	idx := g.Unravel(k)
	c := make([]float64, len(idx))
	for i, j := range idx {
		c[i] = g.CellCoords(i)[j]
	}
	return c
}

// Components returns the number of components of a rank-r field on g.
func Components(g grid.Grid, rank int) int {
	n := 1
	for i := 0; i < rank; i++ {
		n *= g.Dim()
	}
	return n
}

// Zeros allocates a rank-r field on g.
func Zeros(g grid.Grid, rank int) dynamo.State {
	return make(dynamo.State, Components(g, rank)*g.NumCells())
}

// Scalar samples fn at every cell centre.
func Scalar(g grid.Grid, fn func(coords []float64) float64) dynamo.State {
	x := make(dynamo.State, g.NumCells())
	for k := range x {
		x[k] = fn(Coords(g, k))
	}
	return x
}

// Vector samples fn at every cell centre. fn returns Dim components.
func Vector(g grid.Grid, fn func(coords []float64) []float64) dynamo.State {
	n, dim := g.NumCells(), g.Dim()
	x := make(dynamo.State, dim*n)
	for k := 0; k < n; k++ {
		v := fn(Coords(g, k))
		for c := 0; c < dim; c++ {
			x[c*n+k] = v[c]
		}
	}
	return x
}

// Component returns a view of component c of a multi-component field.
func Component(g grid.Grid, x dynamo.State, c int) dynamo.State {
	n := g.NumCells()
	return x[c*n : (c+1)*n]
}

// Uniform draws every cell from U(lo, hi).
func Uniform(g grid.Grid, lo, hi float64, seed uint64) dynamo.State {
	d := distuv.Uniform{Min: lo, Max: hi, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	x := make(dynamo.State, g.NumCells())
	for k := range x {
		x[k] = d.Rand()
	}
	return x
}

// Normal draws every cell from N(mean, std^2).
func Normal(g grid.Grid, mean, std float64, seed uint64) dynamo.State {
	d := distuv.Normal{Mu: mean, Sigma: std, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	x := make(dynamo.State, g.NumCells())
	for k := range x {
		x[k] = d.Rand()
	}
	return x
}

// Harmonic is a product of cosines with the given number of half waves
// per axis, which satisfies zero-flux conditions on every face.
func Harmonic(g grid.Grid, modes []int) dynamo.State {
	return Scalar(g, func(c []float64) float64 {
		v := 1.0
		for i, m := range modes {
			if i >= len(c) {
				break
			}
			a := g.Axis(i)
			v *= math.Cos(math.Pi * float64(m) * (c[i] - a.Min) / (a.Max - a.Min))
		}
		return v
	})
}

// Gaussian is a bump of width sigma centred at center.
func Gaussian(g grid.Grid, center []float64, sigma float64) dynamo.State {
	return Scalar(g, func(c []float64) float64 {
		r2 := 0.0
		for i := range c {
			if i < len(center) {
				d := c[i] - center[i]
				r2 += d * d
			}
		}
		return math.Exp(-r2 / (2 * sigma * sigma))
	})
}

// Integral returns the volume integral of a scalar field.
func Integral(g grid.Grid, x dynamo.State) float64 {
	sum := 0.0
	for k, v := range x[:g.NumCells()] {
		sum += g.CellVolume(k) * v
	}
	return sum
}

// Average returns the volume average of a scalar field.
func Average(g grid.Grid, x dynamo.State) float64 {
	return Integral(g, x) / g.Volume()
}
