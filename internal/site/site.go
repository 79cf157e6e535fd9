// Package site holds the per-session state of the influence model: a site
// with its global parameters, the trees placed on it, and the section lines
// drawn across it. Sites never share state; everything is keyed by site ID.
package site

import (
	"time"

	"github.com/RyanHill92/rootzone/internal/cone"
	"github.com/RyanHill92/rootzone/internal/field"
)

// Removal policies decide which height drives the cone of a tree marked for
// removal.
const (
	RemovalMature  = "mature"
	RemovalCurrent = "current"
)

// Site is a plot where a foundation is being designed near trees.
type Site struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Params    Params    `json:"params"`
	CreatedAt time.Time `json:"createdAt"`
}

// Params are the global parameters of a site.
type Params struct {
	SoilPlasticity string  `json:"soilPlasticity" yaml:"soil_plasticity"`
	FFL            float64 `json:"ffl" yaml:"ffl"`
	MinDepth       float64 `json:"minDepth" yaml:"min_depth"`
	Padding        float64 `json:"padding" yaml:"padding"`
	Resolution     int     `json:"resolution" yaml:"resolution"`
	SectionSamples int     `json:"sectionSamples" yaml:"section_samples"`
	RemovalPolicy  string  `json:"removalPolicy" yaml:"removal_policy"`
	ShallowDepth   float64 `json:"shallowDepth" yaml:"shallow_depth"`
}

// DefaultParams mirrors the starting values of the design worksheet.
func DefaultParams() Params {
	return Params{
		SoilPlasticity: "High",
		FFL:            13,
		MinDepth:       1,
		Padding:        field.DefaultPadding,
		Resolution:     field.DefaultResolution,
		SectionSamples: field.DefaultSamples,
		RemovalPolicy:  RemovalMature,
		ShallowDepth:   cone.DefaultShallowDepth,
	}
}

// StartingElevation is the surface level before any tree is applied.
func (p Params) StartingElevation() float64 {
	return p.FFL - p.MinDepth
}
