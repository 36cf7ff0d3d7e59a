package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
)

// PowerSpectrum returns |c_k|^2 / n for k = 0 .. n/2. Any length works.
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	coeff := fourier.NewFFT(n).Coefficients(nil, data)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		a := cmplx.Abs(c)
		ps[i] = a * a / float64(n)
	}
	return ps
}

// StructureFactor averages the power spectrum of every line of the scalar
// field x running along axis. k holds the matching wavenumbers 2*pi*i/L.
func StructureFactor(g grid.Grid, x dynamo.State, axis int) (k, s []float64, err error) {
	if axis < 0 || axis >= g.NumAxes() {
		return nil, nil, dynamo.Configf("structure factor", "axis %d out of range for %d axes", axis, g.NumAxes())
	}
	if len(x) != g.NumCells() {
		return nil, nil, dynamo.ErrDimensionMismatch
	}

	shape := g.Shape()
	n := shape[axis]
	fft := fourier.NewFFT(n)
	line := make([]float64, n)
	var coeff []complex128
	s = make([]float64, n/2+1)
	lines := 0

	for cell := 0; cell < g.NumCells(); cell++ {
		idx := g.Unravel(cell)
		if idx[axis] != 0 {
			continue
		}
		for i := 0; i < n; i++ {
			idx[axis] = i
			line[i] = x[g.Ravel(idx)]
		}
		coeff = fft.Coefficients(coeff, line)
		for i, c := range coeff {
			a := cmplx.Abs(c)
			s[i] += a * a / float64(n)
		}
		lines++
	}
	for i := range s {
		s[i] /= float64(lines)
	}

	a := g.Axis(axis)
	length := a.Max - a.Min
	k = make([]float64, len(s))
	for i := range k {
		k[i] = 2 * math.Pi * float64(i) / length
	}
	return k, s, nil
}

// DominantWavelength returns 2*pi/k of the strongest mode with k > 0. It
// is +Inf for a uniform field.
func DominantWavelength(g grid.Grid, x dynamo.State, axis int) (float64, error) {
	k, s, err := StructureFactor(g, x, axis)
	if err != nil {
		return 0, err
	}
	if len(s) < 2 {
		return math.Inf(1), nil
	}
	best := 1
	for i := 2; i < len(s); i++ {
		if s[i] > s[best] {
			best = i
		}
	}
	if s[best] <= 1e-300 {
		return math.Inf(1), nil
	}
	return 2 * math.Pi / k[best], nil
}
