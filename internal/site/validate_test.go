package site

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanHill92/rootzone/internal/field"
)

func TestValidateParams(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, ValidateParams(&p))

	p.RemovalPolicy = ""
	require.NoError(t, ValidateParams(&p))
	assert.Equal(t, RemovalMature, p.RemovalPolicy)

	bad := map[string]func(*Params){
		"empty soil":       func(p *Params) { p.SoilPlasticity = "  " },
		"nan ffl":          func(p *Params) { p.FFL = math.NaN() },
		"inf ffl":          func(p *Params) { p.FFL = math.Inf(1) },
		"negative depth":   func(p *Params) { p.MinDepth = -1 },
		"negative padding": func(p *Params) { p.Padding = -5 },
		"tiny resolution":  func(p *Params) { p.Resolution = 1 },
		"huge resolution":  func(p *Params) { p.Resolution = MaxResolution + 1 },
		"no samples":       func(p *Params) { p.SectionSamples = 0 },
		"zero shallow":     func(p *Params) { p.ShallowDepth = 0 },
		"unknown policy":   func(p *Params) { p.RemovalPolicy = "sometimes" },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			err := ValidateParams(&p)
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestValidateTree(t *testing.T) {
	tree := Tree{Species: "  Ash ", X: -10, Y: 3, Z: 12}
	require.NoError(t, ValidateTree(&tree))
	assert.Equal(t, "Ash", tree.Species)

	bad := []Tree{
		{Species: "", X: 1, Y: 1},
		{Species: "Ash", X: math.NaN(), Y: 1},
		{Species: "Ash", X: 1, Y: math.Inf(-1)},
		{Species: "Ash", X: 1, Y: 1, Z: math.NaN()},
		{Species: "Ash", X: 1, Y: 1, CurrentHeight: height(0)},
		{Species: "Ash", X: 1, Y: 1, CurrentHeight: height(math.NaN())},
	}
	for _, tree := range bad {
		assert.True(t, errors.Is(ValidateTree(&tree), ErrInvalidInput), "tree %+v", tree)
	}
}

func TestValidateSection(t *testing.T) {
	s := Section{Label: " A-A' ", Color: "Red", Start: field.Point{X: 0, Y: 0}, End: field.Point{X: 1, Y: 1}}
	require.NoError(t, ValidateSection(&s))
	assert.Equal(t, "A-A'", s.Label)
	assert.Equal(t, "#ff0000", s.Color)

	s.Color = "00FF00"
	require.NoError(t, ValidateSection(&s))
	assert.Equal(t, "#00ff00", s.Color)

	s.Color = "#abc"
	require.NoError(t, ValidateSection(&s))
	assert.Equal(t, "#aabbcc", s.Color)

	s.Color = "chartreuse-ish"
	assert.True(t, errors.Is(ValidateSection(&s), ErrInvalidInput))

	s.Color = ""
	s.End.X = math.NaN()
	assert.True(t, errors.Is(ValidateSection(&s), ErrInvalidInput))
}
