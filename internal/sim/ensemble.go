package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gridpde/internal/dynamo"
)

// Ensemble runs independent members concurrently, for instance the same
// stochastic equation with different seeds.
type Ensemble struct {
	size  int
	limit int
	build func(member int) (*Controller, error)
}

// NewEnsemble prepares size members. build is called once per member and
// must return a controller that shares no mutable state with the others.
func NewEnsemble(size int, build func(member int) (*Controller, error)) *Ensemble {
	return &Ensemble{size: size, limit: -1, build: build}
}

// SetLimit bounds the number of members running at once.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Result is the outcome of one member.
type Result struct {
	State dynamo.State
	Info  dynamo.Info
}

// Run starts every member from x0 and waits for all of them. The first
// failure cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, x0 dynamo.State, dt float64) ([]Result, error) {
	if e.size <= 0 {
		return nil, dynamo.Configf("ensemble", "size must be positive, got %d", e.size)
	}
	controllers := make([]*Controller, e.size)
	for i := range controllers {
		c, err := e.build(i)
		if err != nil {
			return nil, err
		}
		controllers[i] = c
	}

	results := make([]Result, e.size)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, c := range controllers {
		g.Go(func() error {
			x, err := c.Run(ctx, x0, dt)
			if err != nil {
				return err
			}
			results[i] = Result{State: x, Info: c.Info()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
