package field

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultLevelStep is the contour interval in elevation units.
const DefaultLevelStep = 0.3

const maxLevels = 200

// greens runs from the deepest (dark) to the shallowest (pale) elevation.
var greens = []colorful.Color{
	mustHex("#00441b"),
	mustHex("#238b45"),
	mustHex("#74c476"),
	mustHex("#c7e9c0"),
	mustHex("#f7fcf5"),
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Level is one contour line with its fill colour.
type Level struct {
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Levels lays contour lines from one step below the lowest elevation to one
// step above the highest. Very tall surfaces get a coarser step so the count
// stays bounded.
func Levels(s Surface, step float64) []Level {
	lo, hi := s.Range()
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return nil
	}
	if !(step > 0) {
		step = DefaultLevelStep
	}
	start, end := lo-step, hi+step
	if (end-start)/step > maxLevels {
		step = (end - start) / maxLevels
	}

	n := int(math.Floor((end-start)/step+1e-9)) + 1
	levels := make([]Level, n)
	for k := range levels {
		v := start + float64(k)*step
		t := 0.0
		if n > 1 {
			t = float64(k) / float64(n-1)
		}
		levels[k] = Level{Value: v, Color: Ramp(t).Hex()}
	}
	return levels
}

// Ramp returns the colour at t in [0, 1] along the reversed greens scale.
func Ramp(t float64) colorful.Color {
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(greens)-1)
	k := int(math.Floor(pos))
	if k >= len(greens)-1 {
		return greens[len(greens)-1]
	}
	frac := pos - float64(k)
	if frac == 0 {
		return greens[k]
	}
	return greens[k].BlendLab(greens[k+1], frac).Clamped()
}
