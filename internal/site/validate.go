package site

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidInput reports input rejected at the boundary. Nothing is stored
// when it is returned.
var ErrInvalidInput = errors.New("invalid input")

// Input limits.
const (
	MaxResolution     = 2000
	MaxSectionSamples = 10000
)

var namedColors = map[string]string{
	"black":  "#000000",
	"blue":   "#0000ff",
	"brown":  "#a52a2a",
	"green":  "#008000",
	"grey":   "#808080",
	"gray":   "#808080",
	"orange": "#ffa500",
	"purple": "#800080",
	"red":    "#ff0000",
	"white":  "#ffffff",
	"yellow": "#ffff00",
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateParams checks global parameters and fills an empty removal policy.
func ValidateParams(p *Params) error {
	if strings.TrimSpace(p.SoilPlasticity) == "" {
		return invalid("soil plasticity must not be empty")
	}
	if !finite(p.FFL) {
		return invalid("finished floor level must be a number")
	}
	if !finite(p.MinDepth) || p.MinDepth < 0 {
		return invalid("minimum depth must be a non-negative number")
	}
	if !finite(p.Padding) || p.Padding < 0 {
		return invalid("padding must be a non-negative number")
	}
	if p.Resolution < 2 || p.Resolution > MaxResolution {
		return invalid("resolution must be between 2 and %d", MaxResolution)
	}
	if p.SectionSamples < 1 || p.SectionSamples > MaxSectionSamples {
		return invalid("section samples must be between 1 and %d", MaxSectionSamples)
	}
	if !finite(p.ShallowDepth) || p.ShallowDepth <= 0 {
		return invalid("shallow depth must be a positive number")
	}
	switch p.RemovalPolicy {
	case "":
		p.RemovalPolicy = RemovalMature
	case RemovalMature, RemovalCurrent:
	default:
		return invalid("removal policy must be %q or %q", RemovalMature, RemovalCurrent)
	}
	return nil
}

// ValidateTree checks a tree before it is stored.
func ValidateTree(t *Tree) error {
	t.Species = strings.TrimSpace(t.Species)
	if t.Species == "" {
		return invalid("must specify a non-empty species")
	}
	if !finite(t.X) || !finite(t.Y) {
		return invalid("tree coordinates must be numbers")
	}
	if !finite(t.Z) {
		return invalid("tree base elevation must be a number")
	}
	if t.CurrentHeight != nil && (!finite(*t.CurrentHeight) || *t.CurrentHeight <= 0) {
		return invalid("current height must be a positive number")
	}
	return nil
}

// ValidatePoint checks a plan position.
func ValidatePoint(x, y float64) error {
	if !finite(x) || !finite(y) {
		return invalid("coordinates must be numbers")
	}
	return nil
}

// ValidateSection checks a section line and normalises its colour to hex.
// Empty labels and colours are left for the caller to default.
func ValidateSection(s *Section) error {
	if err := ValidatePoint(s.Start.X, s.Start.Y); err != nil {
		return err
	}
	if err := ValidatePoint(s.End.X, s.End.Y); err != nil {
		return err
	}
	s.Label = strings.TrimSpace(s.Label)
	if s.Color == "" {
		return nil
	}
	c, err := NormalizeColor(s.Color)
	if err != nil {
		return err
	}
	s.Color = c
	return nil
}

// NormalizeColor accepts a few colour names or any hex colour and returns
// the lower-case #rrggbb form.
func NormalizeColor(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := namedColors[s]; ok {
		return hex, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return "", invalid("unrecognised colour %q", s)
	}
	return c.Hex(), nil
}
