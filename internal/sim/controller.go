// Package sim drives solvers over a time range.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/solver"
	"github.com/san-kum/gridpde/internal/tracker"
)

// DefaultMaxSteps bounds the attempted steps of a run that sets no limit.
const DefaultMaxSteps = 10_000_000

// Stop reasons recorded in dynamo.Info.
const (
	StopEnd        = "t_end"
	StopTracker    = "stop_iteration"
	StopMaxRuntime = "max_runtime"
	StopCanceled   = "canceled"
	StopError      = "error"
)

type Config struct {
	TStart float64
	TEnd   float64
	// Interval between tracker samples in simulation time. Zero offers
	// every accepted step.
	Interval float64
	MaxSteps int
	// MaxRuntime ends the run early, without error, once exceeded.
	MaxRuntime time.Duration
}

// StepObserver is told about every attempted step and the end of a run.
type StepObserver interface {
	OnStep(t, dt float64, accepted bool)
	OnFinish(info dynamo.Info)
}

// Controller runs a solver from TStart to TEnd. A controller must not run
// concurrently with itself; use separate controllers for concurrent runs.
type Controller struct {
	solver    solver.Solver
	cfg       Config
	tracker   dynamo.Tracker
	observers []StepObserver
	logger    *zap.Logger
	info      dynamo.Info
}

func New(s solver.Solver, cfg Config) (*Controller, error) {
	if s == nil {
		return nil, dynamo.Configf("controller", "no solver")
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Controller{
		solver:    s,
		cfg:       cfg,
		observers: make([]StepObserver, 0),
		logger:    zap.NewNop(),
	}, nil
}

// TRange converts a single end time or a [start, end] pair to a Config
// with default limits.
func TRange(tRange ...float64) (Config, error) {
	switch len(tRange) {
	case 1:
		return Config{TEnd: tRange[0]}, nil
	case 2:
		return Config{TStart: tRange[0], TEnd: tRange[1]}, nil
	}
	return Config{}, dynamo.Configf("controller", "time range needs one or two values, got %d", len(tRange))
}

func validateConfig(cfg Config) error {
	if math.IsNaN(cfg.TStart) || math.IsInf(cfg.TStart, 0) || math.IsNaN(cfg.TEnd) || math.IsInf(cfg.TEnd, 0) {
		return dynamo.Configf("controller", "time range must be finite, got [%g, %g]", cfg.TStart, cfg.TEnd)
	}
	if cfg.TEnd < cfg.TStart {
		return dynamo.Configf("controller", "time range ends before it starts: [%g, %g]", cfg.TStart, cfg.TEnd)
	}
	if cfg.Interval < 0 {
		return dynamo.Configf("controller", "tracker interval must not be negative, got %g", cfg.Interval)
	}
	if cfg.MaxSteps < 0 {
		return dynamo.Configf("controller", "step limit must not be negative, got %d", cfg.MaxSteps)
	}
	if cfg.MaxRuntime < 0 {
		return dynamo.Configf("controller", "runtime limit must not be negative, got %s", cfg.MaxRuntime)
	}
	return nil
}

func (c *Controller) SetTracker(tr dynamo.Tracker) { c.tracker = tr }
func (c *Controller) AddObserver(o StepObserver)   { c.observers = append(c.observers, o) }
func (c *Controller) Config() Config               { return c.cfg }
func (c *Controller) Solver() solver.Solver        { return c.solver }
func (c *Controller) Info() dynamo.Info            { return c.info }

func (c *Controller) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.logger = l
}

// Run integrates x0 over the configured time range starting with step dt
// and returns the final state. x0 is not modified.
func (c *Controller) Run(ctx context.Context, x0 dynamo.State, dt float64) (dynamo.State, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, dynamo.Configf("controller", "dt must be positive and finite, got %g", dt)
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("initial state: %w", dynamo.ErrNumericalInstability)
	}

	start := time.Now()
	c.info = dynamo.Info{}
	stepper, err := c.solver.Prepare(x0, c.cfg.TStart, dt)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("run started",
		zap.String("solver", c.solver.Name()),
		zap.Float64("t_start", c.cfg.TStart),
		zap.Float64("t_end", c.cfg.TEnd),
		zap.Float64("dt", dt),
		zap.Int("size", len(x0)),
	)

	x := x0.Clone()
	t := c.cfg.TStart
	eps := timeEpsilon(c.cfg.TEnd)
	schedule := tracker.NewInterval(t, c.cfg.Interval)
	tracked := math.NaN()
	attempts := 0
	reason := StopEnd

	offer := func() (bool, error) {
		if c.tracker == nil || t == tracked {
			return false, nil
		}
		tracked = t
		if err := c.tracker.Handle(x, t); err != nil {
			if errors.Is(err, dynamo.ErrStopIteration) {
				return true, nil
			}
			return false, fmt.Errorf("tracker at t=%g: %w", t, err)
		}
		return false, nil
	}

	stopped := false
	if schedule.Due(t) {
		if stopped, err = offer(); err != nil {
			return nil, c.fail(start, t, err)
		}
		if stopped {
			reason = StopTracker
		}
	}

	for !stopped {
		remaining := c.cfg.TEnd - t
		if remaining <= eps {
			t = c.cfg.TEnd
			break
		}

		select {
		case <-ctx.Done():
			c.finish(start, t, StopCanceled)
			return nil, ctx.Err()
		default:
		}

		if c.cfg.MaxRuntime > 0 && time.Since(start) > c.cfg.MaxRuntime {
			reason = StopMaxRuntime
			break
		}
		if attempts >= c.cfg.MaxSteps {
			err := &dynamo.SimulationError{
				Step:    attempts,
				Time:    t,
				State:   x.Clone(),
				Wrapped: fmt.Errorf("%d steps without reaching t=%g: %w", attempts, c.cfg.TEnd, dynamo.ErrConvergence),
			}
			return nil, c.fail(start, t, err)
		}

		step := dt
		if remaining-step < eps {
			step = remaining
		}
		next, tNext, accepted, dtNext, err := stepper.Step(x, t, step)
		attempts++
		for _, obs := range c.observers {
			obs.OnStep(tNext, step, accepted)
		}
		if err != nil {
			return nil, c.fail(start, t, err)
		}
		if dtNext > 0 {
			dt = dtNext
		}
		if !accepted {
			continue
		}

		x, t = next, tNext
		if c.cfg.TEnd-t <= eps {
			t = c.cfg.TEnd
		}
		if schedule.Due(t) {
			if stopped, err = offer(); err != nil {
				return nil, c.fail(start, t, err)
			}
			if stopped {
				reason = StopTracker
			}
		}
	}

	if reason != StopTracker {
		if _, err := offer(); err != nil {
			return nil, c.fail(start, t, err)
		}
	}
	c.finish(start, t, reason)
	c.logger.Info("run finished",
		zap.String("reason", reason),
		zap.Float64("t", t),
		zap.Int("steps", c.info.Steps),
		zap.Int("rejected", c.info.Rejected),
		zap.Duration("duration", c.info.Duration),
	)
	return x.Clone(), nil
}

func (c *Controller) finish(start time.Time, t float64, reason string) {
	c.info = c.solver.Info()
	c.info.TFinal = t
	c.info.Duration = time.Since(start)
	c.info.StopReason = reason
	for _, obs := range c.observers {
		obs.OnFinish(c.info)
	}
}

func (c *Controller) fail(start time.Time, t float64, err error) error {
	c.finish(start, t, StopError)
	c.logger.Error("run failed", zap.Float64("t", t), zap.Error(err))
	return err
}

func timeEpsilon(t float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(t))
}
