package solver

import (
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/gridpde/internal/compute"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/integrators"
)

// DefaultTolerance is the error tolerance of adaptive runs that do not
// set one.
const DefaultTolerance = 1e-4

type Config struct {
	Scheme   integrators.Scheme
	Adaptive bool
	// Tolerance bounds the local error per step, relative to 1+|x|.
	Tolerance float64
	MinDt     float64
	// MaxDt caps adaptive steps; zero means unbounded.
	MaxDt float64
	// Safety scales the step size proposed by the error controller.
	Safety float64
	// Shrink and Grow bound the factor between consecutive step sizes.
	Shrink float64
	Grow   float64
	Seed   uint64

	Backend compute.Backend
	Logger  *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		Scheme:    integrators.SchemeEuler,
		Tolerance: DefaultTolerance,
		MinDt:     1e-10,
		Safety:    0.9,
		Shrink:    0.2,
		Grow:      5,
		Backend:   compute.Default,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Tolerance == 0 {
		c.Tolerance = d.Tolerance
	}
	if c.MinDt == 0 {
		c.MinDt = d.MinDt
	}
	if c.Safety == 0 {
		c.Safety = d.Safety
	}
	if c.Shrink == 0 {
		c.Shrink = d.Shrink
	}
	if c.Grow == 0 {
		c.Grow = d.Grow
	}
	if c.Backend == nil {
		c.Backend = d.Backend
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

func (c Config) validate() error {
	switch {
	case !(c.Tolerance > 0) || math.IsInf(c.Tolerance, 0):
		return dynamo.Configf("solver", "tolerance must be positive, got %g", c.Tolerance)
	case c.MinDt < 0:
		return dynamo.Configf("solver", "minimum step must not be negative, got %g", c.MinDt)
	case c.MaxDt < 0 || (c.MaxDt > 0 && c.MaxDt < c.MinDt):
		return dynamo.Configf("solver", "maximum step %g is below the minimum %g", c.MaxDt, c.MinDt)
	case c.Safety <= 0 || c.Safety > 1:
		return dynamo.Configf("solver", "safety factor must be in (0, 1], got %g", c.Safety)
	case c.Shrink <= 0 || c.Shrink >= 1:
		return dynamo.Configf("solver", "shrink factor must be in (0, 1), got %g", c.Shrink)
	case c.Grow <= 1:
		return dynamo.Configf("solver", "grow factor must exceed 1, got %g", c.Grow)
	}
	return nil
}
