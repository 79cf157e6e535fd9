package field

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Surface is an elevation grid. Z is indexed [row][col], rows following Y
// and columns following X.
type Surface struct {
	X []float64   `json:"x"`
	Y []float64   `json:"y"`
	Z [][]float64 `json:"z"`
}

// NewSurface fills a grid with a constant elevation.
func NewSurface(g Grid, elevation float64) Surface {
	z := make([][]float64, len(g.Y))
	for j := range z {
		row := make([]float64, len(g.X))
		for i := range row {
			row[i] = elevation
		}
		z[j] = row
	}
	return Surface{X: g.X, Y: g.Y, Z: z}
}

// Dims returns the number of columns and rows.
func (s Surface) Dims() (c, r int) {
	return len(s.X), len(s.Y)
}

// Value returns the elevation at column c and row r.
// It panics if c or r are out of range.
func (s Surface) Value(c, r int) float64 {
	return s.Z[r][c]
}

// Range returns the lowest and highest elevations on the surface.
func (s Surface) Range() (lo, hi float64) {
	if len(s.Z) == 0 || len(s.Z[0]) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range s.Z {
		lo = math.Min(lo, floats.Min(row))
		hi = math.Max(hi, floats.Max(row))
	}
	return lo, hi
}

// At interpolates the surface bilinearly at (x, y). ok is false outside the
// grid, where the result is NaN.
func (s Surface) At(x, y float64) (float64, bool) {
	i, tx, okX := locate(s.X, x)
	j, ty, okY := locate(s.Y, y)
	if !okX || !okY {
		return math.NaN(), false
	}
	z00 := s.Z[j][i]
	z10 := s.Z[j][i+1]
	z01 := s.Z[j+1][i]
	z11 := s.Z[j+1][i+1]
	bottom := z00 + (z10-z00)*tx
	top := z01 + (z11-z01)*tx
	return bottom + (top-bottom)*ty, true
}

// locate finds the cell [axis[i], axis[i+1]] containing v and the fractional
// position of v inside it.
func locate(axis []float64, v float64) (i int, t float64, ok bool) {
	n := len(axis)
	if n < 2 || math.IsNaN(v) || v < axis[0] || v > axis[n-1] {
		return 0, 0, false
	}
	i = sort.SearchFloat64s(axis, v) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	w := axis[i+1] - axis[i]
	if w == 0 {
		return i, 0, true
	}
	return i, (v - axis[i]) / w, true
}
