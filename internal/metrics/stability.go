package metrics

import (
	"math"

	"github.com/san-kum/gridpde/internal/dynamo"
)

// Stability is the fraction of observed states whose entries all stay
// within the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.samples++
	for _, val := range x {
		if math.IsNaN(val) || math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Extremum is the largest absolute entry seen in any observed state.
type Extremum struct {
	max float64
}

func NewExtremum() *Extremum { return &Extremum{} }

func (e *Extremum) Name() string { return "extremum" }

func (e *Extremum) Observe(x dynamo.State, t float64) {
	e.max = math.Max(e.max, x.MaxAbs())
}

func (e *Extremum) Value() float64 { return e.max }
func (e *Extremum) Reset()         { e.max = 0 }
