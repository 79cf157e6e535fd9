// Package reference holds the species and curve-parameter tables that feed
// the root-influence cone model.
package reference

import (
	"fmt"
	"strings"
)

// Plasticity is the volume-change potential of the site soil.
type Plasticity int

// Recognised soil plasticity categories.
const (
	PlasticityUnknown Plasticity = iota
	PlasticityLow
	PlasticityMedium
	PlasticityHigh
)

// ParsePlasticity reads a plasticity label. Full names and single letters are
// accepted in any case; anything else is PlasticityUnknown.
func ParsePlasticity(s string) Plasticity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "h":
		return PlasticityHigh
	case "medium", "m":
		return PlasticityMedium
	case "low", "l":
		return PlasticityLow
	}
	return PlasticityUnknown
}

func (p Plasticity) String() string {
	switch p {
	case PlasticityHigh:
		return "High"
	case PlasticityMedium:
		return "Medium"
	case PlasticityLow:
		return "Low"
	}
	return "Unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (p Plasticity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Plasticity) UnmarshalText(text []byte) error {
	*p = ParsePlasticity(string(text))
	return nil
}

// WaterDemand is a species' water demand category.
type WaterDemand int

// Recognised water demand categories.
const (
	DemandUnknown WaterDemand = iota
	DemandLow
	DemandMedium
	DemandHigh
)

// ParseWaterDemand reads a water demand label. The reference spreadsheets use
// H/M/L while the glossary uses High/Medium/Low, so both are accepted.
func ParseWaterDemand(s string) WaterDemand {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "h":
		return DemandHigh
	case "medium", "moderate", "m":
		return DemandMedium
	case "low", "l":
		return DemandLow
	}
	return DemandUnknown
}

func (d WaterDemand) String() string {
	switch d {
	case DemandHigh:
		return "High"
	case DemandMedium:
		return "Medium"
	case DemandLow:
		return "Low"
	}
	return "Unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (d WaterDemand) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *WaterDemand) UnmarshalText(text []byte) error {
	*d = ParseWaterDemand(string(text))
	return nil
}

// Species describes the biology of a tree species.
type Species struct {
	Name         string      `yaml:"name" json:"name"`
	MatureHeight float64     `yaml:"mature_height" json:"matureHeight"`
	Coniferous   bool        `yaml:"coniferous" json:"coniferous"`
	WaterDemand  WaterDemand `yaml:"water_demand" json:"waterDemand"`
}

// Curve is one row of the cone shape table. X1 is nil for two-segment cones.
type Curve struct {
	Soil        Plasticity  `yaml:"soil" json:"soil"`
	Coniferous  bool        `yaml:"coniferous" json:"coniferous"`
	WaterDemand WaterDemand `yaml:"water_demand" json:"waterDemand"`
	X1          *float64    `yaml:"x1,omitempty" json:"x1,omitempty"`
	X2          float64     `yaml:"x2" json:"x2"`
	Y1          float64     `yaml:"y1" json:"y1"`
}

// ThreeSegment reports whether the curve has a flat shallow segment.
func (c Curve) ThreeSegment() bool {
	return c.X1 != nil
}

func (c Curve) validate() error {
	if c.Soil == PlasticityUnknown {
		return fmt.Errorf("soil plasticity not recognised")
	}
	if c.WaterDemand == DemandUnknown {
		return fmt.Errorf("water demand not recognised")
	}
	if !(c.X2 > 0) {
		return fmt.Errorf("x2 must be positive, got %v", c.X2)
	}
	if c.X1 != nil && !(*c.X1 >= 0 && *c.X1 < c.X2) {
		return fmt.Errorf("x1 must lie in [0, x2), got %v", *c.X1)
	}
	return nil
}

func (s Species) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !(s.MatureHeight > 0) {
		return fmt.Errorf("mature height must be positive, got %v", s.MatureHeight)
	}
	if s.WaterDemand == DemandUnknown {
		return fmt.Errorf("water demand not recognised")
	}
	return nil
}
