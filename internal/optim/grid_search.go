// Package optim searches equation parameters for the run that minimizes a
// metric.
package optim

import (
	"context"
	"fmt"
	"maps"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/gridpde/internal/config"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/experiment"
	"github.com/san-kum/gridpde/internal/tracker"
)

// BuildFunc returns the experiment for one combination of parameters.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, dynamo.Configf("grid search", "%d parameters for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, dynamo.Configf("grid search", "no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of runs a search performs.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Trial is one evaluated combination.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs every combination and returns the one with the smallest
// value of metricName. Combinations that fail to build or run are
// recorded in trials and skipped; Search fails only when all of them do
// or ctx is cancelled.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (best Trial, trials []Trial, err error) {
	best.Value = math.Inf(1)
	trials = make([]Trial, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, &trials); err != nil {
		return best, trials, err
	}

	var lastErr error
	for _, t := range trials {
		if t.Err != nil {
			lastErr = t.Err
			continue
		}
		if best.Params == nil || t.Value < best.Value {
			best = t
		}
	}
	if best.Params == nil {
		return best, trials, fmt.Errorf("grid search: every trial failed: %w", lastErr)
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildFunc,
	metricName string,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		*trials = append(*trials, evaluate(ctx, maps.Clone(current), build, metricName))
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, build, metricName, trials); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

func evaluate(ctx context.Context, params map[string]float64, build BuildFunc, metricName string) Trial {
	t := Trial{Params: params, Value: math.NaN()}
	exp, err := build(params)
	if err != nil {
		t.Err = err
		return t
	}
	m := tracker.NewMetrics(exp.Metrics()...)
	if _, _, err := exp.Run(ctx, m); err != nil {
		t.Err = err
		return t
	}
	val, ok := m.Values()[metricName]
	if !ok {
		t.Err = dynamo.Configf("grid search", "unknown metric %q", metricName)
		return t
	}
	t.Value = val
	return t
}

// ParamBuilder returns a build function that sets the searched values as
// equation parameters of a copy of base.
func ParamBuilder(base *config.Config, registry *experiment.Registry, logger *zap.Logger) BuildFunc {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		if cfg.PDE.Params == nil {
			cfg.PDE.Params = make(map[string]float64, len(params))
		}
		maps.Copy(cfg.PDE.Params, params)
		return experiment.New(cfg, registry, logger)
	}
}
