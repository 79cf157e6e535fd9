// Package cone models the depth of root influence around a single tree as a
// function of radial distance from its trunk.
//
// A cone is a small immutable record: the curve row it was built from plus the
// constants derived from the tree and the soil. Evaluation is a pure method,
// so cones can be tested on their own and shared between goroutines.
package cone

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanHill92/rootzone/internal/reference"
)

// DefaultShallowDepth is the flat depth of the near-trunk segment of a
// three-segment curve.
const DefaultShallowDepth = 2.5

// ErrInvalidCurve reports a curve row that cannot define a cone.
var ErrInvalidCurve = errors.New("invalid curve parameters")

// Cone is the depth-vs-radius profile of one tree.
type Cone struct {
	curve        reference.Curve
	height       float64
	lateralLimit float64
	floor        float64
	shallow      float64
	degenerate   bool
}

// Option adjusts cone construction.
type Option func(*Cone)

// WithShallowDepth overrides the flat near-trunk depth of three-segment
// curves. The value is a positive magnitude.
func WithShallowDepth(depth float64) Option {
	return func(c *Cone) {
		c.shallow = math.Abs(depth)
	}
}

// Floor returns the most negative depth a cone may report on the given soil.
func Floor(soil reference.Plasticity) float64 {
	switch soil {
	case reference.PlasticityMedium:
		return -0.9
	case reference.PlasticityLow:
		return -0.75
	}
	return -1.0
}

// LateralRatio returns the lateral limit as a multiple of mature height.
func LateralRatio(demand reference.WaterDemand) float64 {
	switch demand {
	case reference.DemandHigh:
		return 1.25
	case reference.DemandMedium:
		return 0.75
	case reference.DemandLow:
		return 0.5
	}
	return 0
}

// Build makes the cone for one tree. heightToUse scales the distance ratio
// and matureHeight sets the lateral limit. A non-positive height gives a
// degenerate cone that never contributes; that is not an error. A curve whose
// breakpoints would divide by zero is.
func Build(curve reference.Curve, heightToUse, matureHeight float64, soil reference.Plasticity, opts ...Option) (Cone, error) {
	c := Cone{
		curve:   curve,
		height:  heightToUse,
		floor:   Floor(soil),
		shallow: DefaultShallowDepth,
	}
	for _, opt := range opts {
		opt(&c)
	}

	if !(heightToUse > 0) || !(matureHeight > 0) {
		c.degenerate = true
		return c, nil
	}

	if !(curve.X2 > 0) || math.IsInf(curve.X2, 0) {
		return Cone{}, fmt.Errorf("%w: x2=%v", ErrInvalidCurve, curve.X2)
	}
	if curve.X1 != nil && !(*curve.X1 >= 0 && *curve.X1 < curve.X2) {
		return Cone{}, fmt.Errorf("%w: x1=%v x2=%v", ErrInvalidCurve, *curve.X1, curve.X2)
	}

	c.lateralLimit = LateralRatio(curve.WaterDemand) * matureHeight
	return c, nil
}

// Degenerate reports whether the cone was built from a non-positive height.
func (c Cone) Degenerate() bool {
	return c.degenerate
}

// LateralLimit is the furthest radius with modelled influence.
func (c Cone) LateralLimit() float64 {
	return c.lateralLimit
}

// Eval returns the depth at radius r. ok is false when the tree has no
// influence there: negative or NaN radius, beyond the lateral limit, or a
// degenerate cone. The depth is 0 whenever ok is false.
func (c Cone) Eval(r float64) (depth float64, ok bool) {
	if c.degenerate || math.IsNaN(r) || r < 0 || r > c.lateralLimit {
		return 0, false
	}

	d := r / c.height
	x2 := c.curve.X2

	if !c.curve.ThreeSegment() {
		if d <= x2 {
			slope := (1 - c.curve.Y1) / x2
			return c.clamp(slope*d + c.curve.Y1), true
		}
		return c.floor, true
	}

	// The near-trunk segments may reach below the floor; only the two-segment
	// curve is clamped.
	x1 := *c.curve.X1
	switch {
	case d < x1:
		return -c.shallow, true
	case d <= x2:
		slope := (1 - c.shallow) / (x2 - x1)
		return -(slope*(d-x1) + c.shallow), true
	}
	return c.floor, true
}

// clamp turns a positive depth fraction into a depth no deeper than the floor.
func (c Cone) clamp(raw float64) float64 {
	return -math.Min(raw, math.Abs(c.floor))
}
