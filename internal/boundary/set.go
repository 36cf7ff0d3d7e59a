package boundary

import (
	"fmt"
	"strings"

	"github.com/san-kum/gridpde/internal/dynamo"
	"github.com/san-kum/gridpde/internal/grid"
)

// side is the affine ghost update of one boundary, g = alpha*u + beta[f]
// for face f. Periodic sides copy the opposite cell instead.
type side struct {
	rule     Rule
	periodic bool
	alpha    float64
	beta     []float64
	faces    []grid.Face
}

// Set is a complete, immutable assignment of rules to the sides of a grid
// for fields of a given rank.
type Set struct {
	grid   grid.Grid
	rank   int
	layout *grid.Layout
	sides  [][2]side
}

// NewSet binds spec (anything [Parse] accepts) to g for fields of rank
// 0 (scalar), 1 (vector) or 2 (tensor).
func NewSet(g grid.Grid, spec any, rank int) (*Set, error) {
	if rank < 0 || rank > 2 {
		return nil, dynamo.Configf("boundary", "unsupported field rank %d", rank)
	}
	s, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	if s.Axes != nil && len(s.Axes) != g.NumAxes() {
		return nil, dynamo.Configf("boundary", "%d axis conditions for a grid with %d axes", len(s.Axes), g.NumAxes())
	}

	bySide := make(map[[2]int]Rule, len(s.Sides))
	for key, r := range s.Sides {
		ax, sd, err := resolveSideKey(g, key)
		if err != nil {
			return nil, err
		}
		for _, u := range sd {
			if _, dup := bySide[[2]int{ax, u}]; dup {
				return nil, dynamo.Configf("boundary", "side %q set twice", key)
			}
			bySide[[2]int{ax, u}] = r
		}
	}

	set := &Set{
		grid:   g,
		rank:   rank,
		layout: grid.NewLayout(g.Shape()),
		sides:  make([][2]side, g.NumAxes()),
	}
	for ax := 0; ax < g.NumAxes(); ax++ {
		label := g.Axis(ax).Label
		for u := 0; u < 2; u++ {
			name := label + "-"
			if u == 1 {
				name = label + "+"
			}
			var (
				r        Rule
				explicit bool
				ok       bool
			)
			if r, ok = bySide[[2]int{ax, u}]; ok {
				explicit = true
			} else if s.Axes != nil && s.Axes[ax][u] != nil {
				r, ok = *s.Axes[ax][u], true
			} else if s.All != nil {
				r, ok = *s.All, true
			}

			if u == 0 && g.HasOrigin(ax) {
				if explicit && r.Kind != KindSymmetry {
					return nil, dynamo.Configf("boundary", "side %s is a coordinate origin and cannot carry %s", name, r)
				}
				r, ok = Symmetry(), true
			}
			if !ok {
				if !g.Periodic(ax) {
					return nil, dynamo.Configf("boundary", "no condition for side %s", name)
				}
				r = Periodic()
			}

			r, err = resolveAuto(r, g.Periodic(ax))
			if err != nil {
				return nil, fmt.Errorf("side %s: %w", name, err)
			}
			set.sides[ax][u], err = set.compile(ax, u == 1, r)
			if err != nil {
				return nil, fmt.Errorf("side %s: %w", name, err)
			}
		}
	}
	return set, nil
}

func resolveSideKey(g grid.Grid, key string) (int, []int, error) {
	label, sides := key, []int{0, 1}
	switch {
	case strings.HasSuffix(key, "-"):
		label, sides = strings.TrimSuffix(key, "-"), []int{0}
	case strings.HasSuffix(key, "+"):
		label, sides = strings.TrimSuffix(key, "+"), []int{1}
	}
	for ax := 0; ax < g.NumAxes(); ax++ {
		if g.Axis(ax).Label == label {
			return ax, sides, nil
		}
	}
	return 0, nil, dynamo.Configf("boundary", "unknown side %q for %s grid", key, g.Name())
}

func resolveAuto(r Rule, periodic bool) (Rule, error) {
	switch r.Kind {
	case kindAutoNeumann:
		if periodic {
			return Periodic(), nil
		}
		return Derivative(0), nil
	case kindAutoDirichlet:
		if periodic {
			return Periodic(), nil
		}
		return Value(0), nil
	case KindPeriodic:
		if !periodic {
			return r, dynamo.Configf("boundary", "periodic condition on a non-periodic axis")
		}
	default:
		if periodic {
			return r, dynamo.Configf("boundary", "%s condition on a periodic axis", r)
		}
	}
	return r, nil
}

func (s *Set) compile(ax int, upper bool, r Rule) (side, error) {
	faces := s.layout.Faces(ax, upper)
	sd := side{rule: r, faces: faces}
	if r.Kind == KindPeriodic {
		sd.periodic = true
		return sd, nil
	}

	dx := s.grid.Spacing(ax)
	var alpha, scale float64
	switch r.Kind {
	case KindSymmetry:
		alpha, scale = 1, 0
	case KindValue:
		alpha, scale = -1, 2
	case KindDerivative:
		alpha, scale = 1, dx
	case KindMixed:
		den := r.A/2 + r.B/dx
		if den == 0 {
			return sd, dynamo.Configf("boundary", "degenerate mixed condition %s", r)
		}
		alpha, scale = (r.B/dx-r.A/2)/den, 1/den
	default:
		return sd, dynamo.Configf("boundary", "unresolved condition %s", r)
	}
	sd.alpha = alpha
	sd.beta = make([]float64, len(faces))
	if scale == 0 {
		return sd, nil
	}

	var pos float64
	if upper {
		pos = s.grid.Axis(ax).Max
	} else {
		pos = s.grid.Axis(ax).Min
	}
	for i, f := range faces {
		c := r.C
		if r.Func != nil {
			c = r.Func(s.faceCoords(f.Cell, ax, pos))
		}
		sd.beta[i] = scale * c
	}
	return sd, nil
}

func (s *Set) faceCoords(cell, ax int, pos float64) []float64 {
	idx := s.grid.Unravel(cell)
	coords := make([]float64, len(idx))
	for i, j := range idx {
		coords[i] = s.grid.CellCoords(i)[j]
	}
	coords[ax] = pos
	return coords
}

func (s *Set) Grid() grid.Grid      { return s.grid }
func (s *Set) Rank() int            { return s.rank }
func (s *Set) Layout() *grid.Layout { return s.layout }

// Rule returns the resolved rule of one side of axis ax.
func (s *Set) Rule(ax int, upper bool) Rule {
	if upper {
		return s.sides[ax][1].rule
	}
	return s.sides[ax][0].rule
}

// Components is the number of field components, Dim^rank.
func (s *Set) Components() int {
	n := 1
	for i := 0; i < s.rank; i++ {
		n *= s.grid.Dim()
	}
	return n
}

// ForRank returns the same conditions bound to fields of another rank.
func (s *Set) ForRank(rank int) (*Set, error) {
	if rank < 0 || rank > 2 {
		return nil, dynamo.Configf("boundary", "unsupported field rank %d", rank)
	}
	c := *s
	c.rank = rank
	return &c, nil
}

// Fixes reports whether any side pins the level of a scalar solution.
func (s *Set) Fixes() bool {
	for _, sd := range s.sides {
		if sd[0].rule.Fixes() || sd[1].rule.Fixes() {
			return true
		}
	}
	return false
}

// FillGhosts sets the ghost layer of every component block of padded from
// its current interior values. padded holds Components() blocks of
// Layout().Size values.
func (s *Set) FillGhosts(padded []float64) {
	n := s.layout.Size
	for off := 0; off+n <= len(padded); off += n {
		block := padded[off : off+n]
		for ax := range s.sides {
			for u := 0; u < 2; u++ {
				sd := &s.sides[ax][u]
				if sd.periodic {
					for _, f := range sd.faces {
						block[f.Ghost] = block[f.Opposite]
					}
					continue
				}
				for i, f := range sd.faces {
					block[f.Ghost] = sd.alpha*block[f.Inner] + sd.beta[i]
				}
			}
		}
	}
}

func (s *Set) String() string {
	var b strings.Builder
	for ax := range s.sides {
		if ax > 0 {
			b.WriteString(", ")
		}
		label := s.grid.Axis(ax).Label
		fmt.Fprintf(&b, "%s-: %s, %s+: %s", label, s.sides[ax][0].rule, label, s.sides[ax][1].rule)
	}
	return b.String()
}
