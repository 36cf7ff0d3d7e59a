package boundary

import "fmt"

// Kind enumerates the rule variants.
type Kind int

const (
	KindPeriodic Kind = iota
	KindValue
	KindDerivative
	KindMixed
	// KindSymmetry mirrors the adjacent cell. It is the only rule allowed
	// at a coordinate origin.
	KindSymmetry

	// Placeholders resolved per axis by NewSet: periodic on periodic
	// axes, a zero derivative or zero value otherwise.
	kindAutoNeumann
	kindAutoDirichlet
)

var kindNames = map[Kind]string{
	KindPeriodic:      "periodic",
	KindValue:         "value",
	KindDerivative:    "derivative",
	KindMixed:         "mixed",
	KindSymmetry:      "symmetry",
	kindAutoNeumann:   "auto_periodic_neumann",
	kindAutoDirichlet: "auto_periodic_dirichlet",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Rule is a boundary condition on one side of an axis. Value and
// derivative rules prescribe C; mixed rules prescribe A*u + B*du/dn = C.
// Derivatives are taken along the outward normal. When Func is set it
// replaces C and receives the coordinates of the boundary face.
type Rule struct {
	Kind    Kind
	A, B, C float64
	Func    func(coords []float64) float64
}

func Periodic() Rule { return Rule{Kind: KindPeriodic} }

// Natural is a zero flux condition that turns periodic on periodic axes.
func Natural() Rule { return Rule{Kind: kindAutoNeumann} }

// AutoDirichlet is a zero value condition that turns periodic on periodic
// axes.
func AutoDirichlet() Rule { return Rule{Kind: kindAutoDirichlet} }

func Value(v float64) Rule { return Rule{Kind: KindValue, A: 1, C: v} }

func ValueFunc(f func(coords []float64) float64) Rule {
	return Rule{Kind: KindValue, A: 1, Func: f}
}

func Derivative(v float64) Rule { return Rule{Kind: KindDerivative, B: 1, C: v} }

func DerivativeFunc(f func(coords []float64) float64) Rule {
	return Rule{Kind: KindDerivative, B: 1, Func: f}
}

// Mixed prescribes a*u + b*du/dn = c.
func Mixed(a, b, c float64) Rule { return Rule{Kind: KindMixed, A: a, B: b, C: c} }

func Symmetry() Rule { return Rule{Kind: KindSymmetry} }

// Fixes reports whether the rule pins the level of the solution, which a
// pure flux condition does not.
func (r Rule) Fixes() bool {
	switch r.Kind {
	case KindValue:
		return true
	case KindMixed:
		return r.A != 0
	}
	return false
}

func (r Rule) String() string {
	c := fmt.Sprintf("%g", r.C)
	if r.Func != nil {
		c = "f(x)"
	}
	switch r.Kind {
	case KindValue, KindDerivative:
		return fmt.Sprintf("%s=%s", r.Kind, c)
	case KindMixed:
		return fmt.Sprintf("mixed(%g*u + %g*du/dn = %s)", r.A, r.B, c)
	}
	return r.Kind.String()
}
