package site

import (
	"strings"

	"github.com/RyanHill92/rootzone/internal/field"
)

// Tree is a tree placed on a site plan.
type Tree struct {
	ID            int64    `json:"id" yaml:"-"`
	Species       string   `json:"species" yaml:"species"`
	X             float64  `json:"x" yaml:"x"`
	Y             float64  `json:"y" yaml:"y"`
	Z             float64  `json:"z" yaml:"z"`
	Remove        bool     `json:"remove" yaml:"remove"`
	CurrentHeight *float64 `json:"currentHeight,omitempty" yaml:"current_height,omitempty"`
}

// Position returns the plan position of the trunk.
func (t Tree) Position() field.Point {
	return field.Point{X: t.X, Y: t.Y}
}

// Section is a line across the site along which the surface is profiled.
type Section struct {
	ID    int64       `json:"id" yaml:"-"`
	Label string      `json:"label" yaml:"label"`
	Color string      `json:"color" yaml:"color"`
	Start field.Point `json:"start" yaml:"start"`
	End   field.Point `json:"end" yaml:"end"`
}

// Click is a pending plan point; two of them make a section.
type Click struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// DefaultSectionColor is used for sections made from clicks.
const DefaultSectionColor = "#ff0000"

// SectionLabel names the n-th section: A-A', B-B', ..., Z-Z', AA-AA', ...
func SectionLabel(n int) string {
	if n < 0 {
		n = 0
	}
	var letters []byte
	for n >= 0 {
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n = n/26 - 1
	}
	s := string(letters)
	return s + "-" + s + "'"
}

// NextSectionLabel names the section that follows the highest of labels.
// Labels not of the A-A' form are ignored.
func NextSectionLabel(labels []string) string {
	next := 0
	for _, label := range labels {
		if n, ok := sectionIndex(label); ok && n >= next {
			next = n + 1
		}
	}
	return SectionLabel(next)
}

// sectionIndex inverts SectionLabel.
func sectionIndex(label string) (int, bool) {
	s, primed, ok := strings.Cut(label, "-")
	if !ok || s == "" || len(s) > 6 || primed != s+"'" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return 0, false
		}
		n = n*26 + int(ch-'A') + 1
	}
	return n - 1, true
}

func (c Click) point() field.Point {
	return field.Point{X: c.X, Y: c.Y}
}
