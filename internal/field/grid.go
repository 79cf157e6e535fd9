// Package field composes per-tree root-influence cones into a single
// elevation surface over a regular plan grid and samples that surface along
// section lines.
package field

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Default extent and sampling used when a site has no trees yet.
const (
	DefaultResolution = 200
	DefaultPadding    = 50.0
	DefaultExtentMin  = 0.0
	DefaultExtentMax  = 100.0
)

// Point is a plan position.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Grid holds the ascending axis coordinates of a regular plan grid.
type Grid struct {
	X []float64
	Y []float64
}

// ComputeGrid spans the bounding box of points, grown by padding on every
// side, with resolution samples per axis. ok is false for an empty point set;
// the caller decides whether to fall back to DefaultGrid.
func ComputeGrid(points []Point, resolution int, padding float64) (Grid, bool) {
	if len(points) == 0 {
		return Grid{}, false
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	padding = math.Abs(padding)
	return Grid{
		X: span(minX-padding, maxX+padding, resolution),
		Y: span(minY-padding, maxY+padding, resolution),
	}, true
}

// DefaultGrid is the fixed extent for sites without trees.
func DefaultGrid(resolution int) Grid {
	return Grid{
		X: span(DefaultExtentMin, DefaultExtentMax, resolution),
		Y: span(DefaultExtentMin, DefaultExtentMax, resolution),
	}
}

// span returns n evenly spaced values from lo to hi. An empty interval is
// widened by one unit each way so cells never have zero size.
func span(lo, hi float64, n int) []float64 {
	if n < 2 {
		n = 2
	}
	if hi-lo == 0 {
		lo, hi = lo-1, hi+1
	}
	return floats.Span(make([]float64, n), lo, hi)
}
