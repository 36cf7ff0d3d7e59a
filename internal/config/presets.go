package config

import (
	"maps"
	"slices"
	"strings"

	"github.com/san-kum/gridpde/internal/dynamo"
)

// Presets holds ready-made runs keyed by equation and preset name.
var Presets = map[string]map[string]*Config{
	"diffusion": {
		"line": {
			Name: "diffusion-line",
			Grid: GridConfig{Kind: "cartesian", Bounds: [][]float64{{0, 1}}, Shape: []int{64}, Periodic: []bool{false}},
			BC:   "neumann",
			PDE:  PDEConfig{Name: "diffusion", Params: map[string]float64{"diffusivity": 0.01}},
			Solver: SolverConfig{
				Method: "explicit", Scheme: "runge-kutta", Adaptive: true, Tolerance: 1e-5, Backend: "serial",
			},
			Initial:  InitialConfig{Kind: "gaussian", Center: []float64{0.5}, Params: map[string]float64{"sigma": 0.05}},
			TRange:   []float64{1},
			Dt:       1e-3,
			Interval: 0.1,
		},
		"square": {
			Name: "diffusion-square",
			Grid: GridConfig{Kind: "cartesian", Bounds: [][]float64{{0, 1}, {0, 1}}, Shape: []int{32, 32}, Periodic: []bool{true, true}},
			BC:   "auto_periodic_neumann",
			PDE:  PDEConfig{Name: "diffusion", Params: map[string]float64{"diffusivity": 0.005}},
			Solver: SolverConfig{
				Method: "explicit", Scheme: "euler", Tolerance: DefaultTolerance, Backend: "auto",
			},
			Initial:  InitialConfig{Kind: "gaussian", Center: []float64{0.5, 0.5}, Params: map[string]float64{"sigma": 0.1}},
			TRange:   []float64{2},
			Dt:       1e-3,
			Interval: 0.2,
		},
		"noisy": {
			Name: "diffusion-noisy",
			Grid: GridConfig{Kind: "unit", Shape: []int{64}, Periodic: []bool{true}},
			BC:   "periodic",
			PDE:  PDEConfig{Name: "diffusion", Params: map[string]float64{"diffusivity": 1}, Noise: 0.01},
			Solver: SolverConfig{
				Method: "explicit", Scheme: "euler", Backend: "serial", Seed: 7,
			},
			Initial:  InitialConfig{Kind: "constant"},
			TRange:   []float64{10},
			Dt:       0.05,
			Interval: 1,
		},
		"disk": {
			Name: "diffusion-disk",
			Grid: GridConfig{Kind: "polar", Bounds: [][]float64{{0, 1}}, Shape: []int{32}},
			BC:   map[string]any{"value": 0.0},
			PDE:  PDEConfig{Name: "diffusion", Params: map[string]float64{"diffusivity": 0.05}},
			Solver: SolverConfig{
				Method: "explicit", Scheme: "runge-kutta", Adaptive: true, Tolerance: 1e-5, Backend: "serial",
			},
			Initial:  InitialConfig{Kind: "constant", Params: map[string]float64{"value": 1}},
			TRange:   []float64{1},
			Dt:       1e-3,
			Interval: 0.1,
		},
		"ball": {
			Name: "diffusion-ball",
			Grid: GridConfig{Kind: "spherical", Bounds: [][]float64{{0, 1}}, Shape: []int{32}},
			BC:   "neumann",
			PDE:  PDEConfig{Name: "diffusion", Params: map[string]float64{"diffusivity": 0.05}},
			Solver: SolverConfig{
				Method: "delegated", Scheme: "rk4", Substeps: 20, Backend: "serial",
			},
			Initial:  InitialConfig{Kind: "gaussian", Center: []float64{0}, Params: map[string]float64{"sigma": 0.2}},
			TRange:   []float64{1},
			Dt:       1e-3,
			Interval: 0.1,
		},
	},
	"allen-cahn": {
		"coarsening": {
			Name: "allen-cahn-coarsening",
			Grid: GridConfig{Kind: "unit", Shape: []int{48, 48}, Periodic: []bool{true, true}},
			BC:   "auto_periodic_neumann",
			PDE: PDEConfig{
				Name:   "allen-cahn",
				Params: map[string]float64{"interface_width": 1, "mobility": 1},
				Clip:   []float64{-1, 1},
			},
			Solver: SolverConfig{
				Method: "explicit", Scheme: "euler", Adaptive: true, Tolerance: 1e-3, Backend: "auto",
			},
			Initial:  InitialConfig{Kind: "uniform", Params: map[string]float64{"min": -0.1, "max": 0.1}, Seed: 1},
			TRange:   []float64{20},
			Dt:       0.01,
			Interval: 1,
		},
		"front": {
			Name: "allen-cahn-front",
			Grid: GridConfig{Kind: "cartesian", Bounds: [][]float64{{-10, 10}}, Shape: []int{128}, Periodic: []bool{false}},
			BC:   []any{map[string]any{"value": -1.0}, map[string]any{"value": 1.0}},
			PDE: PDEConfig{
				Name:   "allen-cahn",
				Params: map[string]float64{"interface_width": 1, "mobility": 1},
			},
			Solver: SolverConfig{
				Method: "explicit", Scheme: "runge-kutta", Adaptive: true, Tolerance: 1e-5, Backend: "serial",
			},
			Initial:  InitialConfig{Kind: "normal", Params: map[string]float64{"mean": 0, "std": 0.1}, Seed: 3},
			TRange:   []float64{5},
			Dt:       0.01,
			Interval: 0.5,
		},
	},
	"kpz": {
		"interface": {
			Name: "kpz-interface",
			Grid: GridConfig{Kind: "unit", Shape: []int{128}, Periodic: []bool{true}},
			BC:   "periodic",
			PDE: PDEConfig{
				Name:   "kpz",
				Params: map[string]float64{"nu": 0.5, "lambda": 1},
				Noise:  1,
			},
			Solver: SolverConfig{
				Method: "explicit", Scheme: "euler", Backend: "serial", Seed: 11,
			},
			Initial:  InitialConfig{Kind: "constant"},
			TRange:   []float64{50},
			Dt:       0.05,
			Interval: 5,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(pde, preset string) *Config {
	pdePresets, ok := Presets[pde]
	if !ok {
		return nil
	}
	cfg, ok := pdePresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the sorted preset names of an equation, or nil.
func ListPresets(pde string) []string {
	pdePresets, ok := Presets[pde]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(pdePresets))
}

// ResolvePreset looks up a preset given as "pde/name".
func ResolvePreset(ref string) (*Config, error) {
	pde, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, dynamo.Configf("preset", "want pde/name, got %q", ref)
	}
	cfg := GetPreset(pde, name)
	if cfg == nil {
		return nil, dynamo.Configf("preset", "unknown preset %s (available: %v)", ref, ListPresets(pde))
	}
	return cfg, nil
}
