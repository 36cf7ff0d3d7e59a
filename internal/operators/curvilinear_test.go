package operators_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/field"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/operators"
)

func norm(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ = Describe("Curvilinear operators", func() {
	Context("polar grid", func() {
		var (
			g *grid.Structured
			s dynamo.State
		)

		BeforeEach(func() {
			var err error
			g, err = grid.NewPolar(0, 1.5, 3)
			Expect(err).ToNot(HaveOccurred())
			s = dynamo.State{1, 2, 4}
		})

		It("should difference across the origin", func() {
			Expect(g.Spacing(0)).To(Equal(0.5))

			grad := apply(operators.Gradient, g, "dirichlet", s)
			expectClose(grad[:3], []float64{1, 3, -6}, 1e-12)
			expectClose(grad[3:], []float64{0, 0, 0}, 0)

			grad = apply(operators.Gradient, g, "neumann", s)
			expectClose(grad[:3], []float64{1, 3, 2}, 1e-12)
		})

		It("should add the metric term to the divergence", func() {
			v := append(s.Clone(), 0, 0, 0)
			r2 := g.CellCoords(0)[2]

			expectClose(apply(operators.Divergence, g, "dirichlet", v), []float64{5, 17.0 / 3, -6 + 4/r2}, 1e-12)
			expectClose(apply(operators.Divergence, g, "neumann", v), []float64{5, 17.0 / 3, 2 + 4/r2}, 1e-12)
		})

		It("should reproduce the laplacian of r^2 exactly", func() {
			gg, err := grid.NewPolar(0, 2, 10)
			Expect(err).ToNot(HaveOccurred())
			u := field.Scalar(gg, func(c []float64) float64 { return c[0] * c[0] })

			lap := apply(operators.Laplace, gg, map[string]any{"derivative": 4}, u)

			expectClose(lap, field.Scalar(gg, func([]float64) float64 { return 4 }), 1e-10)
		})

		It("should agree with div grad away from the boundary", func() {
			gg, err := grid.NewPolar(0, 2*math.Pi, 16)
			Expect(err).ToNot(HaveOccurred())
			u := field.Scalar(gg, func(c []float64) float64 { return math.Cos(c[0]) })
			want := field.Scalar(gg, func(c []float64) float64 { return -math.Sin(c[0])/c[0] - math.Cos(c[0]) })

			lap := apply(operators.Laplace, gg, "neumann", u)
			divGrad := apply(operators.Divergence, gg, "dirichlet", apply(operators.Gradient, gg, "neumann", u))

			for i := 1; i < 15; i++ {
				Expect(lap[i]).To(BeNumerically("~", want[i], 0.1+0.1*math.Abs(want[i])))
				Expect(divGrad[i]).To(BeNumerically("~", want[i], 0.1+0.1*math.Abs(want[i])))
			}
		})

		DescribeTable("should converge to the disk on a small annulus",
			func(kind operators.Kind) {
				grids := make([]grid.Grid, 3)
				for i, inner := range []float64{0, 1e-8, 0.1} {
					gg, err := grid.NewPolar(inner, 1, 8)
					Expect(err).ToNot(HaveOccurred())
					grids[i] = gg
				}
				comps := 1
				for r := 0; r < kind.InRank(); r++ {
					comps *= 2
				}
				x := make(dynamo.State, 0, 8*comps)
				for c := 0; c < comps; c++ {
					x = append(x, field.Uniform(grids[0], 0, 1, uint64(c+1))...)
				}

				res := make([]dynamo.State, 3)
				for i, gg := range grids {
					res[i] = apply(kind, gg, "natural", x)
				}

				expectClose(res[1], res[0], 1.5e-5)
				Expect(norm(res[0], res[2])).To(BeNumerically(">", 1e-3))
			},
			Entry("laplace", operators.Laplace),
			Entry("divergence", operators.Divergence),
			Entry("gradient", operators.Gradient),
			Entry("tensor_divergence", operators.TensorDivergence),
		)

		DescribeTable("gradient_squared variants should approximate |grad|^2",
			func(inner float64) {
				gg, err := grid.NewPolar(inner, 5, 64)
				Expect(err).ToNot(HaveOccurred())
				u := field.Harmonic(gg, []int{1})

				grad := apply(operators.Gradient, gg, "natural", u)
				s1 := make([]float64, 64)
				for i := range s1 {
					s1[i] = grad[i]*grad[i] + grad[64+i]*grad[64+i]
				}
				s2 := apply(operators.GradientSquared, gg, "natural", u, operators.WithCentral(true))
				s3 := apply(operators.GradientSquared, gg, "natural", u, operators.WithCentral(false))

				for i := range s1 {
					Expect(s2[i]).To(BeNumerically("~", s1[i], 0.1+0.1*math.Abs(s1[i])))
					Expect(s3[i]).To(BeNumerically("~", s1[i], 0.1+0.1*math.Abs(s1[i])))
				}
				Expect(s2).ToNot(Equal(s3))
			},
			Entry("disk", 0.0),
			Entry("annulus", 1.0),
		)

		It("should add the hoop terms to the tensor divergence", func() {
			gg, err := grid.NewPolar(1, 2, 4)
			Expect(err).ToNot(HaveOccurred())
			n := gg.NumCells()
			// T = diag(0, 1): (div T)_r = -T_phiphi / r
			t := make(dynamo.State, 4*n)
			for k := 0; k < n; k++ {
				t[3*n+k] = 1
			}

			out := apply(operators.TensorDivergence, gg, "natural", t)

			for k, r := range gg.CellCoords(0) {
				Expect(out[k]).To(BeNumerically("~", -1/r, 1e-12))
				Expect(out[n+k]).To(BeNumerically("~", 0, 1e-12))
			}
		})
	})

	Context("spherical grid", func() {
		It("should reproduce the laplacian of r^2 exactly", func() {
			g, err := grid.NewSpherical(0, 3, 12)
			Expect(err).ToNot(HaveOccurred())
			u := field.Scalar(g, func(c []float64) float64 { return c[0] * c[0] })

			lap := apply(operators.Laplace, g, map[string]any{"derivative": 6}, u)

			expectClose(lap, field.Scalar(g, func([]float64) float64 { return 6 }), 1e-10)
		})

		It("should take the divergence of a radial field", func() {
			g, err := grid.NewSpherical(0, 2, 8)
			Expect(err).ToNot(HaveOccurred())
			n := g.NumCells()
			v := make(dynamo.State, 3*n)
			copy(v, g.CellCoords(0))

			div := apply(operators.Divergence, g, map[string]any{"derivative": 1}, v)

			for k := 1; k < n; k++ {
				Expect(div[k]).To(BeNumerically("~", 3, 1e-12))
			}
		})

		It("should not offer a vector laplacian", func() {
			g, _ := grid.NewSpherical(0, 1, 4)
			_, err := operators.Build(operators.VectorLaplace, mustSet(g, "natural", 1))
			Expect(err).To(MatchError(ContainSubstring("not available")))
		})
	})

	Context("cylindrical grid", func() {
		It("should reproduce the laplacian of r^2 + z^2 exactly", func() {
			g, err := grid.NewCylindrical(2, -1, 3, 8, 10, false)
			Expect(err).ToNot(HaveOccurred())
			u := field.Scalar(g, func(c []float64) float64 { return c[0]*c[0] + c[1]*c[1] })
			bc := map[string]any{
				"r+": map[string]any{"derivative": 4},
				"z-": map[string]any{"derivative": 2},
				"z+": map[string]any{"derivative": 6},
			}

			lap := apply(operators.Laplace, g, bc, u)

			expectClose(lap, field.Scalar(g, func([]float64) float64 { return 6 }), 1e-9)
		})

		It("should reject the vector gradient", func() {
			g, _ := grid.NewCylindrical(1, 0, 1, 4, 4, true)
			_, err := operators.Build(operators.VectorGradient, mustSet(g, "natural", 1))
			Expect(err).To(HaveOccurred())
		})
	})

	DescribeTable("laplace should conserve the integral under natural conditions",
		func(build func() (*grid.Structured, error)) {
			g, err := build()
			Expect(err).ToNot(HaveOccurred())
			x := field.Uniform(g, 0, 1, 42)

			lap := apply(operators.Laplace, g, "natural", x)

			scale := lap.MaxAbs() * g.Volume()
			Expect(math.Abs(field.Integral(g, lap))).To(BeNumerically("<", 1e-10*scale))
		},
		Entry("cartesian", func() (*grid.Structured, error) {
			return grid.NewCartesian([][2]float64{{0, 2}, {-1, 1}}, []int{7, 9}, []bool{false, true})
		}),
		Entry("disk", func() (*grid.Structured, error) { return grid.NewPolar(0, 1.5, 8) }),
		Entry("annulus", func() (*grid.Structured, error) { return grid.NewPolar(0.5, 1.5, 8) }),
		Entry("ball", func() (*grid.Structured, error) { return grid.NewSpherical(0, 2, 16) }),
		Entry("shell", func() (*grid.Structured, error) { return grid.NewSpherical(1, 2, 16) }),
		Entry("cylinder", func() (*grid.Structured, error) { return grid.NewCylindrical(1, 0, 2, 6, 5, false) }),
		Entry("periodic cylinder", func() (*grid.Structured, error) { return grid.NewCylindrical(1, 0, 2, 6, 5, true) }),
	)
})
