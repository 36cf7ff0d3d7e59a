package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/sim"
	"github.com/san-kum/gridpde/internal/solver"
)

var _ = Describe("Ensemble", func() {
	var (
		g       grid.Grid
		running goleak.Option
	)

	BeforeEach(func() {
		running = goleak.IgnoreCurrent()
		var err error
		g, err = grid.NewUnit([]int{8}, []bool{true})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		goleak.VerifyNone(GinkgoT(), running)
	})

	member := func(noise float64) func(int) (*sim.Controller, error) {
		return func(i int) (*sim.Controller, error) {
			s, err := solver.NewExplicit(diffusion(g, noise), solver.Config{Seed: uint64(i)})
			if err != nil {
				return nil, err
			}
			return sim.New(s, sim.Config{TEnd: 0.5})
		}
	}

	It("runs members with independent noise", func() {
		e := sim.NewEnsemble(4, member(0.01))
		e.SetLimit(2)

		results, err := e.Run(context.Background(), make(dynamo.State, g.NumCells()), 0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		for i, r := range results {
			Expect(r.Info.Stochastic).To(BeTrue())
			Expect(r.Info.TFinal).To(Equal(0.5))
			for j := 0; j < i; j++ {
				Expect(r.State).NotTo(Equal(results[j].State))
			}
		}
	})

	It("gives identical members identical results without noise", func() {
		x0 := make(dynamo.State, g.NumCells())
		for k := range x0 {
			x0[k] = math.Sin(2 * math.Pi * float64(k) / 8)
		}
		results, err := sim.NewEnsemble(3, member(0)).Run(context.Background(), x0, 0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[1].State).To(Equal(results[0].State))
		Expect(results[2].State).To(Equal(results[0].State))
	})

	It("cancels the remaining members after a failure", func() {
		e := sim.NewEnsemble(4, func(i int) (*sim.Controller, error) {
			rhs := dynamo.RHSFunc(func(x dynamo.State, t float64, out dynamo.State) {
				copy(out, x)
				if i == 2 {
					out[0] = math.NaN()
				}
			})
			s, err := solver.NewExplicit(rhs, solver.Config{})
			if err != nil {
				return nil, err
			}
			return sim.New(s, sim.Config{TEnd: 1})
		})
		_, err := e.Run(context.Background(), dynamo.State{1}, 1e-4)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, dynamo.ErrNumericalInstability) || errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("reports build failures before starting", func() {
		boom := errors.New("no such preset")
		e := sim.NewEnsemble(3, func(i int) (*sim.Controller, error) {
			if i == 1 {
				return nil, boom
			}
			return member(0)(i)
		})
		_, err := e.Run(context.Background(), make(dynamo.State, g.NumCells()), 0.01)
		Expect(err).To(MatchError(boom))
	})

	It("rejects empty ensembles", func() {
		_, err := sim.NewEnsemble(0, member(0)).Run(context.Background(), dynamo.State{1}, 0.1)
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	})
})
