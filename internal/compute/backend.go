package compute

import (
	"runtime"
	"strings"

	"github.com/san-kum/gridpde/internal/dynamo"
)

type Backend interface {
	Name() string
	// For calls fn over disjoint sub-ranges covering [0, n).
	For(n int, fn func(lo, hi int))
}

// Default is the backend used when none is requested.
var Default Backend = Serial{}

// ParseBackend resolves a backend name. The empty string and "auto" pick a
// parallel backend on multi-core machines.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "serial":
		return Serial{}, nil
	case "parallel":
		return NewParallel(), nil
	case "", "auto":
		return AutoSelectBackend(), nil
	default:
		return nil, dynamo.Configf("backend", "unknown backend %q", name)
	}
}

func AutoSelectBackend() Backend {
	if runtime.NumCPU() > 1 {
		return NewParallel()
	}
	return Serial{}
}

type Serial struct{}

func (Serial) Name() string { return "serial" }

func (Serial) For(n int, fn func(lo, hi int)) {
	if n > 0 {
		fn(0, n)
	}
}
