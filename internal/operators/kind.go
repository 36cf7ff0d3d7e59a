package operators

import (
	"strings"

	"github.com/san-kum/gridpde/internal/dynamo"
)

// Kind enumerates the operators Build can compile.
type Kind int

const (
	Gradient Kind = iota
	Divergence
	Laplace
	TensorDivergence
	GradientSquared
	VectorGradient
	VectorLaplace
)

var kindNames = []string{
	Gradient:         "gradient",
	Divergence:       "divergence",
	Laplace:          "laplace",
	TensorDivergence: "tensor_divergence",
	GradientSquared:  "gradient_squared",
	VectorGradient:   "vector_gradient",
	VectorLaplace:    "vector_laplace",
}

// kindRanks holds the input and output field rank of every kind.
var kindRanks = [][2]int{
	Gradient:         {0, 1},
	Divergence:       {1, 0},
	Laplace:          {0, 0},
	TensorDivergence: {2, 1},
	GradientSquared:  {0, 0},
	VectorGradient:   {1, 2},
	VectorLaplace:    {1, 1},
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) InRank() int  { return kindRanks[k][0] }
func (k Kind) OutRank() int { return kindRanks[k][1] }

// ParseKind resolves an operator name. "laplacian" is accepted for
// "laplace".
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "laplacian" {
		n = "laplace"
	}
	for k, s := range kindNames {
		if s == n {
			return Kind(k), nil
		}
	}
	return 0, dynamo.Configf("operator", "unknown operator %q", name)
}

// Kinds lists every operator name in declaration order.
func Kinds() []string {
	return append([]string(nil), kindNames...)
}
