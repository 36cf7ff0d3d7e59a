package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
)

// shades maps a normalized value to a character, darkest first.
var shades = []rune(" .:-=+*#%@")

// PlotSeries draws one line per series against sample index.
func PlotSeries(caption string, width, height int, series ...[]float64) string {
	data := make([][]float64, 0, len(series))
	for _, s := range series {
		if len(s) > 0 {
			data = append(data, finite(s))
		}
	}
	if len(data) == 0 {
		return ""
	}
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderField draws a scalar field: a line plot along a single axis, a
// shaded map for two axes and the mid-plane for three.
func RenderField(g grid.Grid, x dynamo.State, width, height int) (string, error) {
	if len(x) < g.NumCells() {
		return "", dynamo.ErrDimensionMismatch
	}
	values := x[:g.NumCells()]
	lo, hi := bounds(values)
	switch g.NumAxes() {
	case 1:
		a := g.Axis(0)
		return asciigraph.Plot(finite(values),
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(fmt.Sprintf("%s in [%g, %g]", a.Label, a.Min, a.Max)),
		), nil
	case 2:
		return shade(g, values, 0, lo, hi), nil
	case 3:
		shape := g.Shape()
		plane := shape[2] / 2
		return shade(g, values, plane, lo, hi), nil
	}
	return "", dynamo.Configf("viz", "cannot draw fields on %d axes", g.NumAxes())
}

// shade renders the first two axes of g at index plane of the third axis,
// one character per cell with the first axis running down.
func shade(g grid.Grid, values []float64, plane int, lo, hi float64) string {
	shape := g.Shape()
	idx := make([]int, len(shape))
	if len(idx) > 2 {
		idx[2] = plane
	}
	var b strings.Builder
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			idx[0], idx[1] = i, j
			b.WriteRune(shadeOf(values[g.Ravel(idx)], lo, hi))
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s down, %s across, range [%.4g, %.4g]\n", g.Axis(0).Label, g.Axis(1).Label, lo, hi)
	return b.String()
}

func shadeOf(v, lo, hi float64) rune {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return '?'
	}
	if hi <= lo {
		return shades[len(shades)/2]
	}
	i := int((v - lo) / (hi - lo) * float64(len(shades)-1))
	return shades[min(max(i, 0), len(shades)-1)]
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// finite replaces non-finite entries by zero; asciigraph cannot scale them.
func finite(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}
