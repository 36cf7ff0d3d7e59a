package grid

import "math"

// TensorTerm is a cross-component contribution to the divergence of a
// rank-2 tensor: out[Out] += Coef * T[Row][Col] / r.
type TensorTerm struct {
	Out, Row, Col int
	Coef          float64
}

// VectorTerm is a cross-component contribution to the vector laplacian:
// out[Out] += Coef * v[In] / r^2.
type VectorTerm struct {
	Out, In int
	Coef    float64
}

// Geometry supplies the metric of a grid family. The radial axis of a
// curvilinear geometry is always axis 0.
type Geometry interface {
	Name() string
	// Dim returns the number of vector components for a grid with the
	// given number of axes.
	Dim(numAxes int) int
	// RadialPower is the exponent p of the Jacobian r^p of axis 0, or 0
	// for flat geometries.
	RadialPower() int
	// AngularFactor is the constant measure of the symmetric directions.
	AngularFactor() float64
	TensorTerms() []TensorTerm
	// VectorTerms reports false when the vector laplacian has no
	// representation on the geometry.
	VectorTerms() ([]VectorTerm, bool)
}

type cartesian struct{}

func (cartesian) Name() string                      { return "cartesian" }
func (cartesian) Dim(numAxes int) int               { return numAxes }
func (cartesian) RadialPower() int                  { return 0 }
func (cartesian) AngularFactor() float64            { return 1 }
func (cartesian) TensorTerms() []TensorTerm         { return nil }
func (cartesian) VectorTerms() ([]VectorTerm, bool) { return nil, true }

// Components: (r, phi).
type polar struct{}

func (polar) Name() string           { return "polar" }
func (polar) Dim(int) int            { return 2 }
func (polar) RadialPower() int       { return 1 }
func (polar) AngularFactor() float64 { return 2 * math.Pi }

func (polar) TensorTerms() []TensorTerm {
	return []TensorTerm{
		{Out: 0, Row: 1, Col: 1, Coef: -1},
		{Out: 1, Row: 0, Col: 1, Coef: 1},
	}
}

func (polar) VectorTerms() ([]VectorTerm, bool) {
	return []VectorTerm{
		{Out: 0, In: 0, Coef: -1},
		{Out: 1, In: 1, Coef: -1},
	}, true
}

// Components: (r, theta, phi).
type spherical struct{}

func (spherical) Name() string           { return "spherical" }
func (spherical) Dim(int) int            { return 3 }
func (spherical) RadialPower() int       { return 2 }
func (spherical) AngularFactor() float64 { return 4 * math.Pi }

func (spherical) TensorTerms() []TensorTerm {
	return []TensorTerm{
		{Out: 0, Row: 1, Col: 1, Coef: -1},
		{Out: 0, Row: 2, Col: 2, Coef: -1},
		{Out: 1, Row: 0, Col: 1, Coef: 1},
		{Out: 2, Row: 0, Col: 2, Coef: 1},
	}
}

// The angular components pick up cot(theta) terms that a radially
// symmetric discretization cannot represent.
func (spherical) VectorTerms() ([]VectorTerm, bool) { return nil, false }

// Components: (r, z, phi).
type cylindrical struct{}

func (cylindrical) Name() string           { return "cylindrical" }
func (cylindrical) Dim(int) int            { return 3 }
func (cylindrical) RadialPower() int       { return 1 }
func (cylindrical) AngularFactor() float64 { return 2 * math.Pi }

func (cylindrical) TensorTerms() []TensorTerm {
	return []TensorTerm{
		{Out: 0, Row: 2, Col: 2, Coef: -1},
		{Out: 2, Row: 0, Col: 2, Coef: 1},
	}
}

func (cylindrical) VectorTerms() ([]VectorTerm, bool) {
	return []VectorTerm{
		{Out: 0, In: 0, Coef: -1},
		{Out: 2, In: 2, Coef: -1},
	}, true
}
