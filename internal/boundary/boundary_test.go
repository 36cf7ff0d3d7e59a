package boundary_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gridpde/internal/boundary"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
)

// padded1D returns a padded array [ghost, in..., ghost] after filling.
func padded1D(set *boundary.Set, in []float64) []float64 {
	l := set.Layout()
	buf := make([]float64, l.Size)
	l.Scatter(in, buf)
	set.FillGhosts(buf)
	return buf
}

var _ = Describe("Parse", func() {
	It("should accept named shorthand", func() {
		for _, name := range []string{"natural", "auto_periodic_neumann", "auto_periodic_dirichlet", "neumann", "dirichlet", "periodic"} {
			spec, err := boundary.Parse(name)
			Expect(err).ToNot(HaveOccurred(), name)
			Expect(spec.All).ToNot(BeNil())
		}
	})

	It("should parse rule maps", func() {
		spec, err := boundary.Parse(map[string]any{"value": 1})
		Expect(err).ToNot(HaveOccurred())
		Expect(*spec.All).To(Equal(boundary.Value(1)))

		spec, err = boundary.Parse(map[string]any{"neumann": -2.5})
		Expect(err).ToNot(HaveOccurred())
		Expect(*spec.All).To(Equal(boundary.Derivative(-2.5)))

		spec, err = boundary.Parse(map[string]any{"mixed": 2, "const": 3})
		Expect(err).ToNot(HaveOccurred())
		Expect(*spec.All).To(Equal(boundary.Mixed(2, 1, 3)))

		spec, err = boundary.Parse(map[string]any{"type": "derivative", "value": 4})
		Expect(err).ToNot(HaveOccurred())
		Expect(*spec.All).To(Equal(boundary.Derivative(4)))
	})

	It("should parse per-axis lists and pairs", func() {
		spec, err := boundary.Parse([]any{"periodic", []any{map[string]any{"value": 1}, "neumann"}})
		Expect(err).ToNot(HaveOccurred())
		Expect(spec.Axes).To(HaveLen(2))
		Expect(*spec.Axes[0][0]).To(Equal(boundary.Periodic()))
		Expect(*spec.Axes[1][0]).To(Equal(boundary.Value(1)))
		Expect(*spec.Axes[1][1]).To(Equal(boundary.Derivative(0)))
	})

	It("should parse side maps", func() {
		spec, err := boundary.Parse(map[string]any{"x-": map[string]any{"value": 1}, "x+": "neumann"})
		Expect(err).ToNot(HaveOccurred())
		Expect(spec.Sides).To(HaveKeyWithValue("x-", boundary.Value(1)))
		Expect(spec.Sides).To(HaveKeyWithValue("x+", boundary.Derivative(0)))
	})

	DescribeTable("should reject unknown shorthand",
		func(spec any) {
			_, err := boundary.Parse(spec)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		},
		Entry("unknown name", "sticky"),
		Entry("unknown type", map[string]any{"type": "sticky"}),
		Entry("ambiguous map", map[string]any{"value": 1, "derivative": 2}),
		Entry("non-numeric value", map[string]any{"value": "one"}),
		Entry("bad pair", []any{[]any{"neumann"}}),
		Entry("unsupported type", 42),
	)
})

var _ = Describe("Set", func() {
	var g *grid.Structured

	BeforeEach(func() {
		var err error
		g, err = grid.NewCartesian([][2]float64{{0, 1}}, []int{4}, nil)
		Expect(err).ToNot(HaveOccurred())
	})

	It("should place the face value of a dirichlet condition", func() {
		set, err := boundary.NewSet(g, map[string]any{"value": 3}, 0)
		Expect(err).ToNot(HaveOccurred())

		buf := padded1D(set, []float64{1, 2, 3, 4})

		Expect((buf[0] + buf[1]) / 2).To(BeNumerically("~", 3, 1e-14))
		Expect((buf[4] + buf[5]) / 2).To(BeNumerically("~", 3, 1e-14))
	})

	It("should use the outward normal derivative", func() {
		set, err := boundary.NewSet(g, map[string]any{"derivative": 2}, 0)
		Expect(err).ToNot(HaveOccurred())

		buf := padded1D(set, []float64{1, 2, 3, 4})
		dx := g.Spacing(0)

		Expect((buf[0] - buf[1]) / dx).To(BeNumerically("~", 2, 1e-12))
		Expect((buf[5] - buf[4]) / dx).To(BeNumerically("~", 2, 1e-12))
	})

	It("should satisfy a mixed condition at the face", func() {
		set, err := boundary.NewSet(g, boundary.Mixed(2, 0.5, 1), 0)
		Expect(err).ToNot(HaveOccurred())

		buf := padded1D(set, []float64{1, 2, 3, 4})
		dx := g.Spacing(0)
		face := (buf[4] + buf[5]) / 2
		dn := (buf[5] - buf[4]) / dx

		Expect(2*face + 0.5*dn).To(BeNumerically("~", 1, 1e-12))
	})

	It("should evaluate function-valued rules at the face", func() {
		g2, err := grid.NewUnit([]int{2, 3}, nil)
		Expect(err).ToNot(HaveOccurred())
		set, err := boundary.NewSet(g2, map[string]any{
			"x": boundary.ValueFunc(func(c []float64) float64 { return c[0] + 10*c[1] }),
			"y": "neumann",
		}, 0)
		Expect(err).ToNot(HaveOccurred())

		l := set.Layout()
		buf := make([]float64, l.Size)
		l.Scatter(make([]float64, 6), buf)
		set.FillGhosts(buf)

		for _, f := range l.Faces(0, true) {
			y := g2.CellCoords(1)[g2.Unravel(f.Cell)[1]]
			Expect(buf[f.Ghost]).To(BeNumerically("~", 2*(2+10*y), 1e-12))
		}
	})

	It("should wrap periodic axes", func() {
		gp, err := grid.NewUnit([]int{4}, []bool{true})
		Expect(err).ToNot(HaveOccurred())
		set, err := boundary.NewSet(gp, "natural", 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(set.Rule(0, false).Kind).To(Equal(boundary.KindPeriodic))

		buf := padded1D(set, []float64{1, 2, 3, 4})
		Expect(buf[0]).To(Equal(4.0))
		Expect(buf[5]).To(Equal(1.0))
	})

	It("should fill every component block", func() {
		set, err := boundary.NewSet(g, map[string]any{"value": 0}, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(set.Components()).To(Equal(1))

		l := set.Layout()
		buf := make([]float64, 2*l.Size)
		l.Scatter([]float64{1, 1, 1, 1}, buf[:l.Size])
		l.Scatter([]float64{2, 2, 2, 2}, buf[l.Size:])
		set.FillGhosts(buf)

		Expect(buf[0]).To(Equal(-1.0))
		Expect(buf[l.Size]).To(Equal(-2.0))
	})

	It("should resolve precedence of sides over axes over all", func() {
		g2, err := grid.NewUnit([]int{2, 2}, nil)
		Expect(err).ToNot(HaveOccurred())
		set, err := boundary.NewSet(g2, map[string]any{"x-": map[string]any{"value": 1}, "x": "neumann", "y": "dirichlet"}, 0)
		Expect(err).To(HaveOccurred())

		set, err = boundary.NewSet(g2, map[string]any{"x-": map[string]any{"value": 1}, "x+": "neumann", "y": "dirichlet"}, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(set.Rule(0, false)).To(Equal(boundary.Value(1)))
		Expect(set.Rule(0, true)).To(Equal(boundary.Derivative(0)))
		Expect(set.Rule(1, true)).To(Equal(boundary.Value(0)))
		Expect(set.Fixes()).To(BeTrue())
	})

	Context("on curvilinear grids", func() {
		It("should force symmetry at the origin", func() {
			gp, err := grid.NewPolar(0, 1, 4)
			Expect(err).ToNot(HaveOccurred())

			set, err := boundary.NewSet(gp, map[string]any{"value": 1}, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(set.Rule(0, false).Kind).To(Equal(boundary.KindSymmetry))
			Expect(set.Rule(0, true)).To(Equal(boundary.Value(1)))

			_, err = boundary.NewSet(gp, map[string]any{"r-": map[string]any{"value": 1}, "r+": "neumann"}, 0)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})

		It("should require the inner side of an annulus", func() {
			ga, err := grid.NewPolar(0.5, 1, 4)
			Expect(err).ToNot(HaveOccurred())

			_, err = boundary.NewSet(ga, map[string]any{"r+": "neumann"}, 0)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})
	})

	DescribeTable("should reject inconsistent conditions",
		func(spec any, periodic bool) {
			gg, err := grid.NewUnit([]int{3}, []bool{periodic})
			Expect(err).ToNot(HaveOccurred())
			_, err = boundary.NewSet(gg, spec, 0)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		},
		Entry("periodic on a bounded axis", "periodic", false),
		Entry("value on a periodic axis", map[string]any{"value": 1}, true),
		Entry("wrong axis count", []any{"neumann", "neumann"}, false),
		Entry("unknown side label", map[string]any{"q-": "neumann"}, false),
		Entry("missing side", map[string]any{"x-": "neumann"}, false),
	)
})
