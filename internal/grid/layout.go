package grid

// Layout describes a field padded with one ghost layer on every side of
// every axis. Padded arrays are row-major with the last axis fastest.
type Layout struct {
	Shape  []int
	Padded []int
	// Strides of the padded array, per axis.
	Strides []int
	// Size is the length of a padded array holding one component.
	Size int
	// Interior maps flat interior cell k to its offset in the padded array.
	Interior []int

	faces [][2][]Face
}

// Face links a ghost cell to the interior cells that determine it.
type Face struct {
	Ghost    int // padded offset of the ghost cell
	Inner    int // padded offset of the adjacent interior cell
	Opposite int // padded offset of the interior cell at the other end
	Cell     int // flat interior index of the adjacent cell
}

// NewLayout precomputes interior and ghost offsets for shape.
func NewLayout(shape []int) *Layout {
	n := len(shape)
	l := &Layout{
		Shape:   append([]int(nil), shape...),
		Padded:  make([]int, n),
		Strides: make([]int, n),
	}
	l.Size = 1
	for i := n - 1; i >= 0; i-- {
		l.Padded[i] = shape[i] + 2
		l.Strides[i] = l.Size
		l.Size *= l.Padded[i]
	}

	cells := 1
	for _, s := range shape {
		cells *= s
	}
	l.Interior = make([]int, cells)
	idx := make([]int, n)
	for k := range l.Interior {
		off := 0
		for i := range idx {
			off += (idx[i] + 1) * l.Strides[i]
		}
		l.Interior[k] = off
		for i := n - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
	}

	l.faces = make([][2][]Face, n)
	for k, off := range l.Interior {
		rem := k
		for i := n - 1; i >= 0; i-- {
			j := rem % shape[i]
			rem /= shape[i]
			s := l.Strides[i]
			span := (shape[i] - 1) * s
			if j == 0 {
				l.faces[i][0] = append(l.faces[i][0], Face{Ghost: off - s, Inner: off, Opposite: off + span, Cell: k})
			}
			if j == shape[i]-1 {
				l.faces[i][1] = append(l.faces[i][1], Face{Ghost: off + s, Inner: off, Opposite: off - span, Cell: k})
			}
		}
	}
	return l
}

// Faces returns the boundary faces of axis on the lower (upper == false)
// or upper side, ordered by interior cell.
func (l *Layout) Faces(axis int, upper bool) []Face {
	if upper {
		return l.faces[axis][1]
	}
	return l.faces[axis][0]
}

// Scatter copies a flat interior array into the interior of padded.
func (l *Layout) Scatter(interior, padded []float64) {
	for k, off := range l.Interior {
		padded[off] = interior[k]
	}
}

// Gather copies the interior of padded into a flat array.
func (l *Layout) Gather(padded, interior []float64) {
	for k, off := range l.Interior {
		interior[k] = padded[off]
	}
}
