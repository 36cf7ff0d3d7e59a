// Package config loads and validates YAML run configurations.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/gridpde/internal/dynamo"
)

const (
	DefaultDt        = 1e-3
	DefaultTEnd      = 1.0
	DefaultInterval  = 0.1
	DefaultCells     = 32
	DefaultTolerance = 1e-4
)

var validate = validator.New()

type Config struct {
	Name       string        `yaml:"name,omitempty"`
	Grid       GridConfig    `yaml:"grid"`
	BC         any           `yaml:"bc,omitempty"`
	PDE        PDEConfig     `yaml:"pde"`
	Solver     SolverConfig  `yaml:"solver"`
	Initial    InitialConfig `yaml:"initial"`
	TRange     []float64     `yaml:"t_range" validate:"min=1,max=2"`
	Dt         float64       `yaml:"dt" validate:"gt=0"`
	Interval   float64       `yaml:"interval" validate:"gte=0"`
	MaxSteps   int           `yaml:"max_steps,omitempty" validate:"gte=0"`
	MaxRuntime time.Duration `yaml:"max_runtime,omitempty" validate:"gte=0"` // e.g. "30s"
}

type GridConfig struct {
	Kind     string      `yaml:"kind" validate:"oneof=cartesian unit polar spherical cylindrical"`
	Bounds   [][]float64 `yaml:"bounds,omitempty" validate:"dive,len=2"`
	Shape    []int       `yaml:"shape" validate:"min=1,max=3,dive,gt=0"`
	Periodic []bool      `yaml:"periodic,omitempty"`
}

type PDEConfig struct {
	Name   string             `yaml:"name" validate:"required"`
	Params map[string]float64 `yaml:"params,omitempty"`
	Noise  float64            `yaml:"noise,omitempty" validate:"gte=0"`

	// Clip bounds the state to [min, max] after every step.
	Clip []float64 `yaml:"clip,omitempty" validate:"omitempty,len=2"`
}

type SolverConfig struct {
	Method    string  `yaml:"method" validate:"oneof=explicit delegated"`
	Scheme    string  `yaml:"scheme,omitempty" validate:"omitempty,oneof=euler runge-kutta rk rk45 dopri rk4"`
	Adaptive  bool    `yaml:"adaptive,omitempty"`
	Tolerance float64 `yaml:"tolerance,omitempty" validate:"gte=0"`
	Backend   string  `yaml:"backend,omitempty" validate:"omitempty,oneof=serial parallel auto"` // also runs the operators
	Seed      uint64  `yaml:"seed,omitempty"`
	Substeps  int     `yaml:"substeps,omitempty" validate:"gte=0"`
}

type InitialConfig struct {
	Kind   string             `yaml:"kind" validate:"required"`
	Params map[string]float64 `yaml:"params,omitempty"`
	Modes  []int              `yaml:"modes,omitempty"`
	Center []float64          `yaml:"center,omitempty"`
	Seed   uint64             `yaml:"seed,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Grid: GridConfig{
			Kind:     "cartesian",
			Bounds:   [][]float64{{0, 1}},
			Shape:    []int{DefaultCells},
			Periodic: []bool{true},
		},
		BC: "auto_periodic_neumann",
		PDE: PDEConfig{
			Name:   "diffusion",
			Params: map[string]float64{"diffusivity": 0.01},
		},
		Solver: SolverConfig{
			Method:    "explicit",
			Scheme:    "euler",
			Tolerance: DefaultTolerance,
			Backend:   "serial",
		},
		Initial: InitialConfig{
			Kind:  "harmonic",
			Modes: []int{2},
		},
		TRange:   []float64{DefaultTEnd},
		Dt:       DefaultDt,
		Interval: DefaultInterval,
	}
}

// Load reads a YAML file, fills unset fields and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills the fields a file may leave out. Slices and maps are
// only set when absent so that loading never merges with defaults.
func (c *Config) applyDefaults() {
	if c.Grid.Kind == "" {
		c.Grid.Kind = "cartesian"
	}
	if len(c.Grid.Shape) == 0 {
		c.Grid.Shape = []int{DefaultCells}
	}
	if c.Grid.Bounds == nil && c.Grid.Kind != "unit" {
		c.Grid.Bounds = make([][]float64, len(c.Grid.Shape))
		for i := range c.Grid.Bounds {
			c.Grid.Bounds[i] = []float64{0, 1}
		}
	}
	if c.PDE.Name == "" {
		c.PDE.Name = "diffusion"
	}
	if c.Solver.Method == "" {
		c.Solver.Method = "explicit"
	}
	if c.Initial.Kind == "" {
		c.Initial.Kind = "constant"
	}
	if len(c.TRange) == 0 {
		c.TRange = []float64{DefaultTEnd}
	}
	if c.Dt == 0 {
		c.Dt = DefaultDt
	}
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the struct tags and the constraints between fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return dynamo.Configf("config", "%s", strings.Join(msgs, "; "))
		}
		return dynamo.Configf("config", "%v", err)
	}

	if len(c.TRange) == 2 && c.TRange[1] < c.TRange[0] {
		return dynamo.Configf("config", "t_range ends before it starts: %v", c.TRange)
	}
	if c.Grid.Bounds != nil && len(c.Grid.Bounds) != len(c.Grid.Shape) {
		return dynamo.Configf("config", "%d grid bounds for %d axes", len(c.Grid.Bounds), len(c.Grid.Shape))
	}
	if c.Grid.Periodic != nil && len(c.Grid.Periodic) != len(c.Grid.Shape) {
		return dynamo.Configf("config", "%d periodic flags for %d axes", len(c.Grid.Periodic), len(c.Grid.Shape))
	}
	if len(c.PDE.Clip) == 2 && c.PDE.Clip[1] < c.PDE.Clip[0] {
		return dynamo.Configf("config", "clip range is empty: %v", c.PDE.Clip)
	}
	return nil
}

// TStart and TEnd resolve the one- or two-value t_range.
func (c *Config) TStart() float64 {
	if len(c.TRange) == 2 {
		return c.TRange[0]
	}
	return 0
}

func (c *Config) TEnd() float64 {
	if len(c.TRange) == 0 {
		return DefaultTEnd
	}
	return c.TRange[len(c.TRange)-1]
}

// Param returns a named PDE parameter or def.
func (c *Config) Param(name string, def float64) float64 {
	if v, ok := c.PDE.Params[name]; ok {
		return v
	}
	return def
}

// Clone copies c. The boundary shorthand is shared and must be treated
// as read-only.
func (c *Config) Clone() *Config {
	out := *c
	out.Grid.Bounds = make([][]float64, len(c.Grid.Bounds))
	for i, b := range c.Grid.Bounds {
		out.Grid.Bounds[i] = append([]float64(nil), b...)
	}
	if c.Grid.Bounds == nil {
		out.Grid.Bounds = nil
	}
	out.Grid.Shape = append([]int(nil), c.Grid.Shape...)
	out.Grid.Periodic = append([]bool(nil), c.Grid.Periodic...)
	out.PDE.Params = cloneMap(c.PDE.Params)
	out.PDE.Clip = append([]float64(nil), c.PDE.Clip...)
	out.Initial.Params = cloneMap(c.Initial.Params)
	out.Initial.Modes = append([]int(nil), c.Initial.Modes...)
	out.Initial.Center = append([]float64(nil), c.Initial.Center...)
	out.TRange = append([]float64(nil), c.TRange...)
	return &out
}

func cloneMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
