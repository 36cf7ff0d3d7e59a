// Package export renders fields and canvases as SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/gridpde/internal/analysis"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG draws every lit dot of a Braille canvas as a circle.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	w, h := canvas.Dots()

	var sb strings.Builder
	header(&sb, float64(w)*scale, float64(h)*scale)
	sb.WriteString("<g fill=\"#00ff00\">\n")
	r := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ProfileToSVG draws the volume-averaged profile of x along axis as a
// single path, with 10% padding around the data range.
func ProfileToSVG(g grid.Grid, x dynamo.State, axis, width, height int, stroke string) (string, error) {
	values, err := analysis.Profile(g, x, axis)
	if err != nil {
		return "", err
	}
	if len(values) < 2 {
		return "", dynamo.Configf("svg profile", "need at least two cells along axis %d", axis)
	}
	coords := g.CellCoords(axis)

	minX, maxX := coords[0], coords[len(coords)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		minY, maxY = math.Min(minY, v), math.Max(maxY, v)
	}
	if math.IsInf(minY, 0) || math.IsInf(maxY, 0) || math.IsNaN(minY) || math.IsNaN(maxY) {
		return "", fmt.Errorf("svg profile: %w", dynamo.ErrNumericalInstability)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	for i, v := range values {
		px := (coords[i] - minX) / rangeX * float64(width)
		py := float64(height) - (v-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", px, py)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", px, py)
		}
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String(), nil
}

// HeatmapToSVG draws one rectangle per cell of the first two axes, at the
// mid-plane of a third axis, colored from blue (minimum) to red (maximum).
func HeatmapToSVG(g grid.Grid, x dynamo.State, cellSize float64) (string, error) {
	if g.NumAxes() < 2 {
		return "", dynamo.Configf("svg heatmap", "needs at least two axes, got %d", g.NumAxes())
	}
	if len(x) < g.NumCells() {
		return "", dynamo.ErrDimensionMismatch
	}
	shape := g.Shape()
	values := x[:g.NumCells()]
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}

	idx := make([]int, len(shape))
	if len(idx) > 2 {
		idx[2] = shape[2] / 2
	}
	var sb strings.Builder
	header(&sb, float64(shape[1])*cellSize, float64(shape[0])*cellSize)
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			idx[0], idx[1] = i, j
			fmt.Fprintf(&sb, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"%s\"/>\n",
				float64(j)*cellSize, float64(i)*cellSize, cellSize, cellSize, color(values[g.Ravel(idx)], lo, hi))
		}
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}

// FieldToSVG picks a profile for one axis and a heatmap otherwise.
func FieldToSVG(g grid.Grid, x dynamo.State, width, height int) (string, error) {
	if g.NumAxes() == 1 {
		return ProfileToSVG(g, x, 0, width, height, "#00ff00")
	}
	cell := math.Max(1, math.Floor(float64(width)/float64(g.Shape()[1])))
	return HeatmapToSVG(g, x, cell)
}

func color(v, lo, hi float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "#ffffff"
	}
	f := 0.5
	if hi > lo {
		f = (v - lo) / (hi - lo)
	}
	f = math.Min(math.Max(f, 0), 1)
	return fmt.Sprintf("#%02x%02x%02x", int(255*f), 32, int(255*(1-f)))
}
