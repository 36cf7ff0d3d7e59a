package operators_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gridpde/internal/compute"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/field"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/operators"
)

// convolveLaplace applies [1, -2, 1]/dx^2 along every axis, wrapping on
// periodic axes and reflecting otherwise.
func convolveLaplace(g grid.Grid, x []float64) []float64 {
	out := make([]float64, len(x))
	for k := range x {
		idx := g.Unravel(k)
		for a := 0; a < g.NumAxes(); a++ {
			n := g.Axis(a).Cells
			neighbor := func(j int) float64 {
				switch {
				case j < 0 && g.Periodic(a):
					j += n
				case j >= n && g.Periodic(a):
					j -= n
				case j < 0:
					j = 0
				case j >= n:
					j = n - 1
				}
				nb := append([]int(nil), idx...)
				nb[a] = j
				return x[g.Ravel(nb)]
			}
			dx := g.Spacing(a)
			out[k] += (neighbor(idx[a]-1) - 2*x[k] + neighbor(idx[a]+1)) / (dx * dx)
		}
	}
	return out
}

var _ = Describe("Cartesian operators", func() {
	DescribeTable("laplace should match the centred convolution",
		func(bounds [][2]float64, shape []int, periodic bool) {
			flags := make([]bool, len(shape))
			for i := range flags {
				flags[i] = periodic
			}
			g, err := grid.NewCartesian(bounds, shape, flags)
			Expect(err).ToNot(HaveOccurred())
			x := field.Uniform(g, 0, 1, 11)

			got := apply(operators.Laplace, g, "auto_periodic_neumann", x)

			expectClose(got, convolveLaplace(g, x), 1e-10)
		},
		Entry("1d bounded", [][2]float64{{0, 3.3}}, []int{4}, false),
		Entry("1d periodic", [][2]float64{{0, 3.3}}, []int{4}, true),
		Entry("2d non-uniform bounded", [][2]float64{{0, 2.4}, {0, 1.5}}, []int{3, 4}, false),
		Entry("2d non-uniform periodic", [][2]float64{{0, 2.4}, {0, 1.5}}, []int{3, 4}, true),
		Entry("3d bounded", [][2]float64{{0, 3}, {0, 2}, {0, 4}}, []int{3, 2, 4}, false),
		Entry("3d periodic", [][2]float64{{0, 3}, {0, 2}, {0, 4}}, []int{3, 2, 4}, true),
	)

	It("should not depend on singular dimensions", func() {
		g1, _ := grid.NewUnit([]int{4}, nil)
		g2, _ := grid.NewUnit([]int{4, 1}, nil)
		g3, _ := grid.NewUnit([]int{1, 1, 4}, nil)
		x := field.Uniform(g1, 0, 1, 3)

		want := apply(operators.Laplace, g1, "natural", x)
		expectClose(apply(operators.Laplace, g2, "natural", x), want, 1e-12)
		expectClose(apply(operators.Laplace, g3, "natural", x), want, 1e-12)
	})

	It("should honour derivative and value conditions in the gradient", func() {
		g, err := grid.NewUnit([]int{5}, nil)
		Expect(err).ToNot(HaveOccurred())
		x := dynamo.State{0.5, 1.5, 2.5, 3.5, 4.5}

		bcs := []any{[]any{
			map[string]any{"type": "derivative", "value": -1},
			map[string]any{"type": "derivative", "value": 1},
		}}
		expectClose(apply(operators.Gradient, g, bcs, x), []float64{1, 1, 1, 1, 1}, 1e-12)

		c := dynamo.State{3, 3, 3, 3, 3}
		expectClose(apply(operators.Gradient, g, map[string]any{"value": 3}, c), make([]float64, 5), 1e-12)
	})

	Context("div grad", func() {
		var g *grid.Structured

		BeforeEach(func() {
			var err error
			g, err = grid.NewCartesian([][2]float64{{-1, 1}}, []int{32}, nil)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should vanish for constants", func() {
			y := field.Scalar(g, func([]float64) float64 { return 3 })
			for _, bc := range []any{map[string]any{"derivative": 0}, map[string]any{"value": 3}} {
				expectClose(apply(operators.Laplace, g, bc, y), make([]float64, 32), 1e-10)
				grad := apply(operators.Gradient, g, bc, y)
				expectClose(apply(operators.Divergence, g, "natural", grad), make([]float64, 32), 1e-10)
			}
		})

		It("should vanish for linear fields", func() {
			y := field.Scalar(g, func(c []float64) float64 { return 1.7 * c[0] })
			bc := []any{[]any{map[string]any{"neumann": -1.7}, map[string]any{"neumann": 1.7}}}

			expectClose(apply(operators.Laplace, g, bc, y), make([]float64, 32), 1e-9)
			grad := apply(operators.Gradient, g, bc, y)
			expectClose(grad, field.Scalar(g, func([]float64) float64 { return 1.7 }), 1e-9)
		})

		It("should give 2 for x^2", func() {
			y := field.Scalar(g, func(c []float64) float64 { return c[0] * c[0] })
			bc := map[string]any{"derivative": 2}
			two := field.Scalar(g, func([]float64) float64 { return 2 })

			expectClose(apply(operators.Laplace, g, bc, y), two, 1e-9)
			grad := apply(operators.Gradient, g, bc, y)
			vbc := []any{[]any{map[string]any{"value": -2}, map[string]any{"value": 2}}}
			expectClose(apply(operators.Divergence, g, vbc, grad), two, 1e-9)
		})
	})

	It("should apply the scalar stencil per component", func() {
		g, err := grid.NewCartesian([][2]float64{{0, 2}, {0, 3}}, []int{4, 5}, []bool{true, false})
		Expect(err).ToNot(HaveOccurred())
		v := append(field.Uniform(g, -1, 1, 1), field.Uniform(g, -1, 1, 2)...)
		n := g.NumCells()

		lap := apply(operators.VectorLaplace, g, "natural", v)
		expectClose(lap[:n], apply(operators.Laplace, g, "natural", v[:n]), 1e-12)
		expectClose(lap[n:], apply(operators.Laplace, g, "natural", v[n:]), 1e-12)

		vg := apply(operators.VectorGradient, g, "natural", v)
		Expect(vg).To(HaveLen(4 * n))
		gy := apply(operators.Gradient, g, "natural", v[n:])
		expectClose(vg[2*n:], gy, 1e-12)

		t := append(append(dynamo.State{}, v...), v...)
		div := apply(operators.TensorDivergence, g, "natural", t)
		want := apply(operators.Divergence, g, "natural", v)
		expectClose(div[:n], want, 1e-12)
		expectClose(div[n:], want, 1e-12)
	})

	It("should agree between serial and parallel backends", func() {
		g, err := grid.NewUnit([]int{33, 17}, []bool{true, false})
		Expect(err).ToNot(HaveOccurred())
		x := field.Uniform(g, 0, 1, 5)
		par := compute.NewParallel().WithWorkers(4, 16)

		for _, kind := range []operators.Kind{operators.Laplace, operators.Gradient, operators.GradientSquared} {
			serial := apply(kind, g, "natural", x)
			parallel := apply(kind, g, "natural", x, operators.WithBackend(par))
			Expect(parallel).To(Equal(serial), kind.String())
		}
	})

	It("should leave its input untouched and be reusable", func() {
		g, _ := grid.NewUnit([]int{8}, []bool{true})
		op := mustBuild(operators.Laplace, mustSet(g, "periodic", 0))
		x := field.Uniform(g, 0, 1, 9)
		orig := x.Clone()

		first := op.Apply(x)
		second := op.Apply(x)

		Expect(x).To(Equal(orig))
		Expect(second).To(Equal(first))
		Expect(func() { op.ApplyTo(x[:3], make(dynamo.State, 8)) }).To(Panic())
	})

	It("should reject boundary conditions of the wrong rank", func() {
		g, _ := grid.NewUnit([]int{4}, nil)
		_, err := operators.Build(operators.Divergence, mustSet(g, "natural", 0))
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

		_, err = operators.BuildNamed("curl", mustSet(g, "natural", 0))
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

		op, err := operators.BuildNamed("laplacian", mustSet(g, "natural", 0))
		Expect(err).ToNot(HaveOccurred())
		Expect(op.Kind()).To(Equal(operators.Laplace))
	})

	It("should keep the two gradient_squared variants distinct", func() {
		g, _ := grid.NewCartesian([][2]float64{{0, 2 * math.Pi}}, []int{64}, []bool{true})
		x := field.Scalar(g, func(c []float64) float64 { return math.Sin(c[0]) })

		central := apply(operators.GradientSquared, g, "periodic", x)
		sided := apply(operators.GradientSquared, g, "periodic", x, operators.WithCentral(false))
		exact := field.Scalar(g, func(c []float64) float64 { return math.Pow(math.Cos(c[0]), 2) })

		expectClose(central, exact, 0.01)
		expectClose(sided, exact, 0.01)
		Expect(central).ToNot(Equal(sided))
	})
})
