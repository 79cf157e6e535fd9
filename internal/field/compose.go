package field

import (
	"math"

	"github.com/RyanHill92/rootzone/internal/cone"
)

// Source is one tree's cone placed at its plan position and base elevation.
type Source struct {
	Cone cone.Cone
	X, Y float64
	Z    float64
}

// Compose starts every cell at start and lowers it to the deepest elevation
// any source reaches there. The fold is an element-wise minimum, so the
// order of sources never changes the result.
func Compose(g Grid, start float64, sources []Source) Surface {
	s := NewSurface(g, start)
	for _, src := range sources {
		apply(s, src)
	}
	return s
}

func apply(s Surface, src Source) {
	if src.Cone.Degenerate() {
		return
	}
	for j, y := range s.Y {
		row := s.Z[j]
		dy := y - src.Y
		for i, x := range s.X {
			depth, ok := src.Cone.Eval(math.Hypot(x-src.X, dy))
			if !ok {
				continue
			}
			if candidate := src.Z + depth; candidate < row[i] {
				row[i] = candidate
			}
		}
	}
}
