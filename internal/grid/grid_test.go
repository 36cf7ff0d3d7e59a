package grid_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
)

var _ = Describe("Grid", func() {
	Context("cartesian", func() {
		It("should report shape, spacing and centres", func() {
			g, err := grid.NewCartesian([][2]float64{{0, 1}, {-2, 2}}, []int{4, 8}, []bool{false, true})
			Expect(err).ToNot(HaveOccurred())

			Expect(g.Name()).To(Equal("cartesian"))
			Expect(g.NumAxes()).To(Equal(2))
			Expect(g.Dim()).To(Equal(2))
			Expect(g.Shape()).To(Equal([]int{4, 8}))
			Expect(g.NumCells()).To(Equal(32))
			Expect(g.Spacing(0)).To(BeNumerically("~", 0.25, 1e-15))
			Expect(g.Spacing(1)).To(BeNumerically("~", 0.5, 1e-15))
			Expect(g.CellCoords(0)).To(Equal([]float64{0.125, 0.375, 0.625, 0.875}))
			Expect(g.Periodic(0)).To(BeFalse())
			Expect(g.Periodic(1)).To(BeTrue())
			Expect(g.RadialAxis()).To(Equal(-1))
			Expect(g.HasOrigin(0)).To(BeFalse())
			Expect(g.Volume()).To(BeNumerically("~", 4, 1e-12))
		})

		It("should round-trip flat indices", func() {
			g, err := grid.NewUnit([]int{3, 4, 5}, nil)
			Expect(err).ToNot(HaveOccurred())

			for k := 0; k < g.NumCells(); k++ {
				Expect(g.Ravel(g.Unravel(k))).To(Equal(k))
			}
			Expect(g.Unravel(1)).To(Equal([]int{0, 0, 1}))
			Expect(g.Coords(5)).To(Equal([]float64{0.5, 1.5, 0.5}))
		})
	})

	Context("polar", func() {
		It("should carry the radial metric", func() {
			g, err := grid.NewPolar(0, 2, 4)
			Expect(err).ToNot(HaveOccurred())

			Expect(g.Dim()).To(Equal(2))
			Expect(g.HasOrigin(0)).To(BeTrue())
			Expect(g.RadialAxis()).To(Equal(0))
			Expect(g.FaceAreas(0)).To(Equal([]float64{0, 0.5, 1, 1.5, 2}))
			Expect(g.CellMeasures(0)[0]).To(BeNumerically("~", 0.125, 1e-15))
			Expect(g.Volume()).To(BeNumerically("~", 4*math.Pi, 1e-12))
		})

		It("should not report an origin for an annulus", func() {
			g, err := grid.NewPolar(1e-8, 1, 8)
			Expect(err).ToNot(HaveOccurred())
			Expect(g.HasOrigin(0)).To(BeFalse())
			Expect(g.Volume()).To(BeNumerically("~", math.Pi, 1e-12))
		})
	})

	Context("spherical", func() {
		It("should integrate to the ball volume", func() {
			g, err := grid.NewSpherical(0, 3, 7)
			Expect(err).ToNot(HaveOccurred())
			Expect(g.Dim()).To(Equal(3))
			Expect(g.Volume()).To(BeNumerically("~", 4.0/3.0*math.Pi*27, 1e-9))
			_, ok := g.VectorTerms()
			Expect(ok).To(BeFalse())
		})
	})

	Context("cylindrical", func() {
		It("should integrate to the cylinder volume", func() {
			g, err := grid.NewCylindrical(2, -1, 3, 8, 16, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(g.NumAxes()).To(Equal(2))
			Expect(g.Dim()).To(Equal(3))
			Expect(g.Periodic(1)).To(BeTrue())
			Expect(g.HasOrigin(0)).To(BeTrue())
			Expect(g.HasOrigin(1)).To(BeFalse())
			Expect(g.Volume()).To(BeNumerically("~", math.Pi*4*4, 1e-9))
			Expect(g.TensorTerms()).To(HaveLen(2))
		})
	})

	DescribeTable("should reject invalid construction",
		func(build func() error) {
			err := build()
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
			var cfgErr *dynamo.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
		},
		Entry("no axes", func() error { _, err := grid.NewCartesian(nil, nil, nil); return err }),
		Entry("zero cells", func() error { _, err := grid.NewUnit([]int{0}, nil); return err }),
		Entry("inverted bounds", func() error {
			_, err := grid.NewCartesian([][2]float64{{1, 0}}, []int{3}, nil)
			return err
		}),
		Entry("periodic flag count", func() error { _, err := grid.NewUnit([]int{3, 3}, []bool{true}); return err }),
		Entry("negative radius", func() error { _, err := grid.NewPolar(-1, 1, 3); return err }),
		Entry("unknown geometry", func() error { _, err := grid.New("hexagonal", nil, nil, nil); return err }),
		Entry("offset cylinder", func() error {
			_, err := grid.New("cylindrical", [][2]float64{{1, 2}, {0, 1}}, []int{2, 2}, nil)
			return err
		}),
	)
})

var _ = Describe("Layout", func() {
	It("should map interior cells into the padded array", func() {
		l := grid.NewLayout([]int{2, 3})

		Expect(l.Padded).To(Equal([]int{4, 5}))
		Expect(l.Strides).To(Equal([]int{5, 1}))
		Expect(l.Size).To(Equal(20))
		Expect(l.Interior).To(Equal([]int{6, 7, 8, 11, 12, 13}))
	})

	It("should link ghosts to inner and opposite cells", func() {
		l := grid.NewLayout([]int{2, 3})

		lower := l.Faces(1, false)
		Expect(lower).To(HaveLen(2))
		Expect(lower[0]).To(Equal(grid.Face{Ghost: 5, Inner: 6, Opposite: 8, Cell: 0}))
		Expect(lower[1]).To(Equal(grid.Face{Ghost: 10, Inner: 11, Opposite: 13, Cell: 3}))

		upper := l.Faces(0, true)
		Expect(upper).To(HaveLen(3))
		Expect(upper[0]).To(Equal(grid.Face{Ghost: 16, Inner: 11, Opposite: 6, Cell: 3}))
	})

	It("should scatter and gather without loss", func() {
		l := grid.NewLayout([]int{3, 2, 2})
		in := make([]float64, 12)
		for i := range in {
			in[i] = float64(i) + 0.5
		}
		padded := make([]float64, l.Size)
		out := make([]float64, 12)

		l.Scatter(in, padded)
		l.Gather(padded, out)

		Expect(out).To(Equal(in))
	})
})
