// Package automation runs scripted sequences of simulations and parameter
// sweeps.
package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gridpde/internal/analysis"
	"github.com/san-kum/gridpde/internal/config"
	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/experiment"
	"github.com/san-kum/gridpde/internal/tracker"
)

var validate = validator.New()

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps" validate:"min=1,dive"`

	dir string
}

// ScenarioStep is a single run. It starts from a preset ("pde/name") or a
// config file, resolved relative to the scenario file.
type ScenarioStep struct {
	Preset string             `yaml:"preset" validate:"required_without=Config"`
	Config string             `yaml:"config"`
	Params map[string]float64 `yaml:"params"`
	TEnd   float64            `yaml:"t_end" validate:"gte=0"`
	Dt     float64            `yaml:"dt" validate:"gte=0"`
	Seed   uint64             `yaml:"seed"`

	// Continue starts from the final state of the previous step.
	Continue bool `yaml:"continue"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step    int
	Name    string
	Info    dynamo.Info
	Metrics map[string]float64
	Final   dynamo.State
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, dynamo.Configf("scenario", "%v", err)
	}
	if err := validate.Struct(&sc); err != nil {
		return nil, dynamo.Configf("scenario", "%v", err)
	}
	if len(sc.Steps) > 0 && sc.Steps[0].Continue {
		return nil, dynamo.Configf("scenario", "the first step has nothing to continue from")
	}
	return &sc, nil
}

func (sc *Scenario) stepConfig(step ScenarioStep) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if step.Preset != "" {
		cfg, err = config.ResolvePreset(step.Preset)
	} else {
		path := step.Config
		if !filepath.IsAbs(path) {
			path = filepath.Join(sc.dir, path)
		}
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}

	if len(step.Params) > 0 && cfg.PDE.Params == nil {
		cfg.PDE.Params = make(map[string]float64, len(step.Params))
	}
	for k, v := range step.Params {
		cfg.PDE.Params[k] = v
	}
	if step.TEnd > 0 {
		cfg.TRange = []float64{cfg.TStart(), step.TEnd}
	}
	if step.Dt > 0 {
		cfg.Dt = step.Dt
	}
	if step.Seed != 0 {
		cfg.Solver.Seed = step.Seed
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, sc *Scenario, registry *experiment.Registry, logger *zap.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]StepResult, 0, len(sc.Steps))
	var last dynamo.State

	for i, step := range sc.Steps {
		cfg, err := sc.stepConfig(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(cfg, registry, logger)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step",
			zap.String("scenario", sc.Name),
			zap.Int("step", i+1),
			zap.String("pde", exp.PDE().Name()),
			zap.Bool("continue", step.Continue),
		)

		values := tracker.NewMetrics(exp.Metrics()...)
		var final dynamo.State
		var info dynamo.Info
		if step.Continue {
			final, info, err = exp.RunFrom(ctx, last, values)
		} else {
			final, info, err = exp.Run(ctx, values)
		}
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{
			Step:    i + 1,
			Name:    cfg.Name,
			Info:    info,
			Metrics: values.Values(),
			Final:   final,
		})
		last = final
	}
	return results, nil
}

// ParameterSweep runs Base once for each of Points evenly spaced values of
// the equation parameter Param in [Min, Max].
type ParameterSweep struct {
	Base   *config.Config `validate:"required"`
	Param  string         `validate:"required"`
	Min    float64
	Max    float64 `validate:"gtefield=Min"`
	Points int     `validate:"gt=0"`

	// Limit bounds the number of concurrent runs; 0 means unbounded.
	Limit int `validate:"gte=0"`
}

// SweepResult holds one point of a sweep.
type SweepResult struct {
	Value   float64
	Info    dynamo.Info
	Metrics map[string]float64
	Final   analysis.Summary
}

// Values returns the parameter values of the sweep.
func (s *ParameterSweep) Values() []float64 {
	if s.Points == 1 {
		return []float64{s.Min}
	}
	out := make([]float64, s.Points)
	step := (s.Max - s.Min) / float64(s.Points-1)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

// RunSweep runs every point of the sweep concurrently. Results are in
// parameter order.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *zap.Logger) ([]SweepResult, error) {
	if err := validate.Struct(sweep); err != nil {
		return nil, dynamo.Configf("sweep", "%v", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	values := sweep.Values()
	results := make([]SweepResult, len(values))
	g, gctx := errgroup.WithContext(ctx)
	if sweep.Limit > 0 {
		g.SetLimit(sweep.Limit)
	}
	for i, v := range values {
		g.Go(func() error {
			cfg := sweep.Base.Clone()
			if cfg.PDE.Params == nil {
				cfg.PDE.Params = make(map[string]float64)
			}
			cfg.PDE.Params[sweep.Param] = v
			exp, err := experiment.New(cfg, registry, logger)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
			}
			m := tracker.NewMetrics(exp.Metrics()...)
			final, info, err := exp.Run(gctx, m)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
			}
			results[i] = SweepResult{
				Value:   v,
				Info:    info,
				Metrics: m.Values(),
				Final:   analysis.Summarize(exp.Grid(), final, info.TFinal),
			}
			logger.Debug("sweep point done", zap.String("param", sweep.Param), zap.Float64("value", v))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
