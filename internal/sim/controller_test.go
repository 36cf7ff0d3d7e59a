package sim_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/san-kum/gridpde/internal/boundary"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/field"
	"github.com/san-kum/gridpde/internal/grid"
	"github.com/san-kum/gridpde/internal/integrators"
	"github.com/san-kum/gridpde/internal/pde"
	"github.com/san-kum/gridpde/internal/sim"
	"github.com/san-kum/gridpde/internal/solver"
	"github.com/san-kum/gridpde/internal/tracker"
)

var growth = dynamo.RHSFunc(func(x dynamo.State, _ float64, out dynamo.State) {
	copy(out, x)
})

func explicit(rhs dynamo.RHS, cfg solver.Config) *solver.Explicit {
	s, err := solver.NewExplicit(rhs, cfg)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func controller(s solver.Solver, cfg sim.Config) *sim.Controller {
	c, err := sim.New(s, cfg)
	Expect(err).NotTo(HaveOccurred())
	return c
}

func diffusion(g grid.Grid, noise float64) *pde.Diffusion {
	bcs, err := boundary.NewSet(g, "auto_periodic_neumann", 0)
	Expect(err).NotTo(HaveOccurred())
	eq, err := pde.NewDiffusion(bcs, 1, noise)
	Expect(err).NotTo(HaveOccurred())
	return eq
}

var _ = Describe("Controller", func() {
	var (
		mockCtrl *gomock.Controller
		ctx      context.Context
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		ctx = context.Background()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	DescribeTable("exponential growth up to t=10",
		func(scheme integrators.Scheme, adaptive bool, dt float64) {
			s := explicit(growth, solver.Config{Scheme: scheme, Adaptive: adaptive})
			c := controller(s, sim.Config{TEnd: 10})

			x, err := c.Run(ctx, dynamo.State{1, 1, 1, 1}, dt)
			Expect(err).NotTo(HaveOccurred())
			for _, v := range x {
				Expect(v).To(BeNumerically("~", math.Exp(10), 0.1*math.Exp(10)))
			}

			info := c.Info()
			Expect(info.TFinal).To(Equal(10.0))
			Expect(info.StopReason).To(Equal(sim.StopEnd))
			if adaptive {
				Expect(info.Steps).NotTo(BeNumerically("~", 10/dt, 1))
			} else {
				Expect(info.Steps).To(BeNumerically("~", 10/dt, 1))
				Expect(info.Rejected).To(BeZero())
			}
		},
		Entry("fixed euler", integrators.SchemeEuler, false, 1e-3),
		Entry("adaptive euler", integrators.SchemeEuler, true, 1e-3),
		Entry("fixed runge-kutta", integrators.SchemeRungeKutta, false, 1e-2),
		Entry("adaptive runge-kutta", integrators.SchemeRungeKutta, true, 1e-2),
	)

	DescribeTable("forced relaxation against the analytic solution",
		func(scheme integrators.Scheme, adaptive bool, dt float64) {
			rhs := dynamo.RHSFunc(func(x dynamo.State, t float64, out dynamo.State) {
				out[0] = 2*math.Sin(t) - x[0]
			})
			s := explicit(rhs, solver.Config{Scheme: scheme, Adaptive: adaptive})
			c := controller(s, sim.Config{TEnd: 20, Interval: 1})
			mem := tracker.NewMemory()
			c.SetTracker(mem)

			_, err := c.Run(ctx, dynamo.State{1}, dt)
			Expect(err).NotTo(HaveOccurred())

			times, states := mem.Times(), mem.States()
			Expect(len(times)).To(BeNumerically(">=", 15))
			Expect(times[0]).To(Equal(0.0))
			Expect(times[len(times)-1]).To(Equal(20.0))
			for i, t := range times {
				want := 2*math.Exp(-t) - math.Cos(t) + math.Sin(t)
				Expect(states[i][0]).To(BeNumerically("~", want, 0.05))
				if i > 0 {
					Expect(t).To(BeNumerically(">", times[i-1]))
				}
			}
			if adaptive {
				Expect(c.Info().Steps).To(BeNumerically("<", 20/dt))
			}
		},
		Entry("fixed euler", integrators.SchemeEuler, false, 1e-3),
		Entry("adaptive euler", integrators.SchemeEuler, true, 1e-3),
		Entry("fixed runge-kutta", integrators.SchemeRungeKutta, false, 1e-2),
		Entry("adaptive runge-kutta", integrators.SchemeRungeKutta, true, 1e-2),
	)

	Context("on a periodic diffusion problem", func() {
		var (
			g  grid.Grid
			x0 dynamo.State
		)

		BeforeEach(func() {
			var err error
			g, err = grid.NewUnit([]int{16, 16}, []bool{true, true})
			Expect(err).NotTo(HaveOccurred())
			x0 = field.Uniform(g, 0, 1, 1)
		})

		run := func(eq dynamo.RHS, cfg solver.Config, dt float64) (dynamo.State, dynamo.Info) {
			c := controller(explicit(eq, cfg), sim.Config{TEnd: 0.1})
			x, err := c.Run(ctx, x0, dt)
			Expect(err).NotTo(HaveOccurred())
			return x, c.Info()
		}

		It("agrees between schemes and step controls", func() {
			eq := diffusion(g, 0)
			ref, _ := run(eq, solver.Config{}, 1e-4)

			for _, tc := range []struct {
				cfg solver.Config
				dt  float64
			}{
				{solver.Config{Adaptive: true}, 1e-4},
				{solver.Config{Scheme: integrators.SchemeRungeKutta}, 1e-3},
				{solver.Config{Scheme: integrators.SchemeRungeKutta, Adaptive: true}, 1e-3},
				{solver.Config{Scheme: integrators.SchemeRK4}, 1e-3},
			} {
				x, _ := run(eq, tc.cfg, tc.dt)
				for i := range x {
					Expect(x[i]).To(BeNumerically("~", ref[i], 1e-2))
				}
			}
		})

		It("conserves the integral", func() {
			eq := diffusion(g, 0)
			x, _ := run(eq, solver.Config{Scheme: integrators.SchemeRungeKutta, Adaptive: true}, 1e-3)
			Expect(field.Integral(g, x)).To(BeNumerically("~", field.Integral(g, x0), 1e-9))
		})

		It("reproduces the deterministic trajectory without noise", func() {
			det, detInfo := run(diffusion(g, 0), solver.Config{Seed: 1}, 1e-3)
			quiet, quietInfo := run(&pde.Func{Rate: diffusion(g, 0).Evolve, Amplitude: make([]float64, g.NumCells())}, solver.Config{Seed: 1}, 1e-3)
			noisy, noisyInfo := run(diffusion(g, 1e-12), solver.Config{Seed: 1}, 1e-3)

			Expect(quiet).To(Equal(det))
			Expect(detInfo.Stochastic).To(BeFalse())
			Expect(quietInfo.Stochastic).To(BeFalse())
			Expect(noisyInfo.Stochastic).To(BeTrue())
			Expect(noisyInfo.Map()["stochastic"]).To(Equal(true))
			Expect(noisy).NotTo(Equal(det))
			for i := range det {
				Expect(noisy[i]).To(BeNumerically("~", det[i], 1e-4))
			}
		})
	})

	Describe("stochastic incompatibility", func() {
		var noisy *pde.Func

		BeforeEach(func() {
			noisy = &pde.Func{Rate: growth, Amplitude: []float64{1}}
		})

		It("fails at solve time for runge-kutta", func() {
			s, err := solver.NewExplicit(noisy, solver.Config{Scheme: integrators.SchemeRungeKutta})
			Expect(err).NotTo(HaveOccurred())
			c := controller(s, sim.Config{TEnd: 1})

			_, err = c.Run(ctx, dynamo.State{1}, 0.1)
			Expect(errors.Is(err, dynamo.ErrIncompatible)).To(BeTrue())
		})

		It("fails at solve time for the delegated solver", func() {
			s, err := solver.NewDelegated(noisy, solver.DelegatedConfig{})
			Expect(err).NotTo(HaveOccurred())
			c := controller(s, sim.Config{TEnd: 1})

			_, err = c.Run(ctx, dynamo.State{1}, 0.1)
			Expect(errors.Is(err, dynamo.ErrIncompatible)).To(BeTrue())
		})

		It("runs the delegated solver on deterministic problems", func() {
			s, err := solver.NewDelegated(growth, solver.DelegatedConfig{Substeps: 4})
			Expect(err).NotTo(HaveOccurred())
			c := controller(s, sim.Config{TEnd: 1})

			x, err := c.Run(ctx, dynamo.State{1}, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(x[0]).To(BeNumerically("~", math.E, 1e-6))
			Expect(c.Info().Solver).To(Equal("delegated"))
		})
	})

	Describe("tracking", func() {
		It("offers the start, every elapsed interval and the end once", func() {
			tr := NewMockTracker(mockCtrl)
			var times []float64
			tr.EXPECT().Handle(gomock.Any(), gomock.Any()).
				DoAndReturn(func(x dynamo.State, t float64) error {
					times = append(times, t)
					return nil
				}).Times(5)

			c := controller(explicit(growth, solver.Config{}), sim.Config{TEnd: 1, Interval: 0.25})
			c.SetTracker(tr)
			_, err := c.Run(ctx, dynamo.State{1}, 0.1)
			Expect(err).NotTo(HaveOccurred())

			want := []float64{0, 0.3, 0.5, 0.8, 1}
			Expect(times).To(HaveLen(len(want)))
			for i := range want {
				Expect(times[i]).To(BeNumerically("~", want[i], 1e-9))
			}
		})

		It("never sees rejected steps", func() {
			tr := NewMockTracker(mockCtrl)
			var times []float64
			tr.EXPECT().Handle(gomock.Any(), gomock.Any()).
				DoAndReturn(func(x dynamo.State, t float64) error {
					Expect(x[0]).To(BeNumerically("~", math.Exp(t), 1e-5*math.Exp(t)))
					times = append(times, t)
					return nil
				}).AnyTimes()

			s := explicit(growth, solver.Config{Scheme: integrators.SchemeRungeKutta, Adaptive: true, Tolerance: 1e-8})
			c := controller(s, sim.Config{TEnd: 1})
			c.SetTracker(tr)
			_, err := c.Run(ctx, dynamo.State{1}, 1)
			Expect(err).NotTo(HaveOccurred())

			info := c.Info()
			Expect(info.Rejected).To(BeNumerically(">", 0))
			Expect(times).To(HaveLen(info.Accepted + 1))
			for i := 1; i < len(times); i++ {
				Expect(times[i]).To(BeNumerically(">", times[i-1]))
			}
		})

		It("stops cleanly on request", func() {
			tr := dynamo.TrackerFunc(func(x dynamo.State, t float64) error {
				if t >= 0.5-1e-9 {
					return dynamo.ErrStopIteration
				}
				return nil
			})
			c := controller(explicit(growth, solver.Config{}), sim.Config{TEnd: 1})
			c.SetTracker(tr)

			x, err := c.Run(ctx, dynamo.State{1}, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(x[0]).To(BeNumerically("~", math.Pow(1.1, 5), 1e-12))
			Expect(c.Info().StopReason).To(Equal(sim.StopTracker))
			Expect(c.Info().TFinal).To(BeNumerically("~", 0.5, 1e-9))
		})

		It("aborts on tracker failures", func() {
			boom := errors.New("disk full")
			tr := NewMockTracker(mockCtrl)
			gomock.InOrder(
				tr.EXPECT().Handle(gomock.Any(), 0.0).Return(nil),
				tr.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(boom),
			)
			c := controller(explicit(growth, solver.Config{}), sim.Config{TEnd: 1})
			c.SetTracker(tr)

			_, err := c.Run(ctx, dynamo.State{1}, 0.1)
			Expect(errors.Is(err, boom)).To(BeTrue())
			Expect(c.Info().StopReason).To(Equal(sim.StopError))
		})
	})

	It("reports every attempt to observers", func() {
		obs := NewMockStepObserver(mockCtrl)
		obs.EXPECT().OnStep(gomock.Any(), gomock.Any(), true).Times(10)
		obs.EXPECT().OnFinish(gomock.Any()).Do(func(info dynamo.Info) {
			Expect(info.StopReason).To(Equal(sim.StopEnd))
			Expect(info.Steps).To(Equal(10))
		})

		c := controller(explicit(growth, solver.Config{}), sim.Config{TEnd: 1})
		c.AddObserver(obs)
		_, err := c.Run(ctx, dynamo.State{1}, 0.1)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("failures", func() {
		It("enforces the step ceiling", func() {
			c := controller(explicit(growth, solver.Config{}), sim.Config{TEnd: 1, MaxSteps: 10})
			_, err := c.Run(ctx, dynamo.State{1}, 0.01)
			Expect(errors.Is(err, dynamo.ErrConvergence)).To(BeTrue())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(10))
		})

		It("aborts on non-finite states", func() {
			blowup := dynamo.RHSFunc(func(x dynamo.State, t float64, out dynamo.State) {
				out[0] = x[0]
				if t > 0.25 {
					out[0] = math.NaN()
				}
			})
			c := controller(explicit(blowup, solver.Config{}), sim.Config{TEnd: 1})
			_, err := c.Run(ctx, dynamo.State{1}, 0.1)
			Expect(errors.Is(err, dynamo.ErrNumericalInstability)).To(BeTrue())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.State.IsValid()).To(BeTrue())
			Expect(c.Info().StopReason).To(Equal(sim.StopError))
		})

		It("stops without error after the runtime limit", func() {
			slow := dynamo.RHSFunc(func(x dynamo.State, _ float64, out dynamo.State) {
				time.Sleep(time.Millisecond)
				out[0] = 0
			})
			c := controller(explicit(slow, solver.Config{}), sim.Config{TEnd: 1e6, MaxRuntime: 10 * time.Millisecond})
			_, err := c.Run(ctx, dynamo.State{1}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Info().StopReason).To(Equal(sim.StopMaxRuntime))
			Expect(c.Info().TFinal).To(BeNumerically("<", 1e6))
		})

		It("honours cancellation between steps", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			c := controller(explicit(growth, solver.Config{}), sim.Config{TEnd: 1})
			_, err := c.Run(cctx, dynamo.State{1}, 0.1)
			Expect(err).To(MatchError(context.Canceled))
			Expect(c.Info().StopReason).To(Equal(sim.StopCanceled))
		})

		It("rejects invalid runs", func() {
			c := controller(explicit(growth, solver.Config{}), sim.Config{TEnd: 1})
			_, err := c.Run(ctx, dynamo.State{1}, 0)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

			_, err = c.Run(ctx, dynamo.State{math.Inf(1)}, 0.1)
			Expect(errors.Is(err, dynamo.ErrNumericalInstability)).To(BeTrue())
		})
	})

	DescribeTable("configuration",
		func(cfg sim.Config) {
			_, err := sim.New(explicit(growth, solver.Config{}), cfg)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		},
		Entry("reversed range", sim.Config{TStart: 2, TEnd: 1}),
		Entry("negative interval", sim.Config{TEnd: 1, Interval: -1}),
		Entry("negative step limit", sim.Config{TEnd: 1, MaxSteps: -1}),
		Entry("infinite end", sim.Config{TEnd: math.Inf(1)}),
	)

	It("accepts a single end time or a pair as time range", func() {
		cfg, err := sim.TRange(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(sim.Config{TEnd: 5}))

		cfg, err = sim.TRange(1, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(sim.Config{TStart: 1, TEnd: 5}))

		_, err = sim.TRange(1, 2, 3)
		Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
	})

	It("starts at TStart", func() {
		c := controller(explicit(growth, solver.Config{}), sim.Config{TStart: 2, TEnd: 3})
		mem := tracker.NewMemory()
		c.SetTracker(mem)
		_, err := c.Run(ctx, dynamo.State{1}, 0.5)
		Expect(err).NotTo(HaveOccurred())
		Expect(mem.Times()).To(Equal([]float64{2, 2.5, 3}))
	})
})
