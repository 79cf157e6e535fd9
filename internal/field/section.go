package field

import (
	"bytes"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// DefaultSamples is the number of points taken along a section line.
const DefaultSamples = 200

// Samples is a series that may contain gaps, stored as NaN. It encodes gaps
// as JSON null.
type Samples []float64

// MarshalJSON implements json.Marshaler.
func (s Samples) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.Write(strconv.AppendFloat(nil, v, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Gaps counts the undefined samples.
func (s Samples) Gaps() int {
	n := 0
	for _, v := range s {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Profile is a surface sampled along a straight line.
type Profile struct {
	Distance  []float64 `json:"distance"`
	Elevation Samples   `json:"elevation"`
}

// Section samples the surface at n evenly spaced points from start to end.
// Points outside the grid are NaN. A zero-length line yields a single
// sample at distance 0; n <= 0 means DefaultSamples.
func (s Surface) Section(start, end Point, n int) Profile {
	if n <= 0 {
		n = DefaultSamples
	}
	if start == end || n == 1 {
		z, _ := s.At(start.X, start.Y)
		return Profile{Distance: []float64{0}, Elevation: Samples{z}}
	}

	xs := floats.Span(make([]float64, n), start.X, end.X)
	ys := floats.Span(make([]float64, n), start.Y, end.Y)
	p := Profile{
		Distance:  make([]float64, n),
		Elevation: make(Samples, n),
	}
	for k := range xs {
		p.Distance[k] = math.Hypot(xs[k]-start.X, ys[k]-start.Y)
		p.Elevation[k], _ = s.At(xs[k], ys[k])
	}
	return p
}
