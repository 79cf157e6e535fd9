package site

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RyanHill92/rootzone/internal/cone"
	"github.com/RyanHill92/rootzone/internal/field"
	"github.com/RyanHill92/rootzone/internal/reference"
)

// Skip explains why a tree was left out of the surface.
type Skip struct {
	TreeID  int64  `json:"treeId"`
	Species string `json:"species"`
	Reason  string `json:"reason"`
}

// SectionProfile is a section line with its sampled elevations.
type SectionProfile struct {
	Label string      `json:"label"`
	Color string      `json:"color"`
	Start field.Point `json:"start"`
	End   field.Point `json:"end"`
	field.Profile
	// Gaps counts the samples that fell outside the grid.
	Gaps int `json:"gaps"`
}

// Result is one full computation for a site.
type Result struct {
	Start    float64          `json:"startingElevation"`
	Surface  field.Surface    `json:"surface"`
	Min      float64          `json:"min"`
	Max      float64          `json:"max"`
	Levels   []field.Level    `json:"levels"`
	Skipped  []Skip           `json:"skipped"`
	Profiles []SectionProfile `json:"profiles"`
}

// Model turns trees into cones and composes them. It holds no per-site
// state, so one Model serves every site.
type Model struct {
	catalog reference.Catalog
	log     *zap.Logger
}

// NewModel returns a model over the given reference data.
func NewModel(catalog reference.Catalog, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	return &Model{catalog: catalog, log: log}
}

// Catalog exposes the reference data the model resolves against.
func (m *Model) Catalog() reference.Catalog {
	return m.catalog
}

// HeightToUse picks the height that scales a tree's cone. Under the current
// policy a removed tree with a known current height uses that height.
func HeightToUse(t Tree, matureHeight float64, policy string) float64 {
	if policy == RemovalCurrent && t.Remove && t.CurrentHeight != nil && *t.CurrentHeight > 0 {
		return *t.CurrentHeight
	}
	return matureHeight
}

// Sources resolves every tree into a placed cone. Trees whose species or
// curve cannot be resolved are skipped with a reason and logged; the rest
// are still returned.
func (m *Model) Sources(p Params, trees []Tree) ([]field.Source, []Skip) {
	soil := reference.ParsePlasticity(p.SoilPlasticity)
	var opts []cone.Option
	if p.ShallowDepth > 0 {
		opts = append(opts, cone.WithShallowDepth(p.ShallowDepth))
	}

	sources := make([]field.Source, 0, len(trees))
	skipped := []Skip{}
	for _, t := range trees {
		c, err := m.build(t, soil, p.RemovalPolicy, opts)
		if err != nil {
			m.log.Warn("skipping tree",
				zap.Int64("tree", t.ID),
				zap.String("species", t.Species),
				zap.Error(err))
			skipped = append(skipped, Skip{TreeID: t.ID, Species: t.Species, Reason: err.Error()})
			continue
		}
		if c.Degenerate() {
			m.log.Debug("tree has no height; no influence", zap.Int64("tree", t.ID))
		}
		sources = append(sources, field.Source{Cone: c, X: t.X, Y: t.Y, Z: t.Z})
	}
	return sources, skipped
}

func (m *Model) build(t Tree, soil reference.Plasticity, policy string, opts []cone.Option) (cone.Cone, error) {
	species, err := m.catalog.Species(t.Species)
	if err != nil {
		return cone.Cone{}, err
	}
	curve, err := m.catalog.Curve(soil, species.Coniferous, species.WaterDemand)
	if err != nil {
		return cone.Cone{}, err
	}
	// the species sets the lateral limit; a curve row's own demand label
	// only selects the row
	curve.WaterDemand = species.WaterDemand
	c, err := cone.Build(curve, HeightToUse(t, species.MatureHeight, policy), species.MatureHeight, soil, opts...)
	if err != nil {
		return cone.Cone{}, fmt.Errorf("species %q: %w", species.Name, err)
	}
	return c, nil
}

// Grid derives the plan grid from tree positions, falling back to the
// default extent for a site without trees.
func Grid(p Params, trees []Tree) field.Grid {
	points := make([]field.Point, len(trees))
	for i, t := range trees {
		points[i] = t.Position()
	}
	if g, ok := field.ComputeGrid(points, p.Resolution, p.Padding); ok {
		return g
	}
	return field.DefaultGrid(p.Resolution)
}

// Surface composes the influence surface of a site from scratch.
func (m *Model) Surface(p Params, trees []Tree) (field.Surface, []Skip) {
	sources, skipped := m.Sources(p, trees)
	return field.Compose(Grid(p, trees), p.StartingElevation(), sources), skipped
}

// Profiles samples the surface along every section. Sections are sampled
// concurrently; the result keeps their order.
func Profiles(ctx context.Context, s field.Surface, sections []Section, samples int) ([]SectionProfile, error) {
	out := make([]SectionProfile, len(sections))
	g, ctx := errgroup.WithContext(ctx)
	for i, sec := range sections {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			prof := s.Section(sec.Start, sec.End, samples)
			out[i] = SectionProfile{
				Label:   sec.Label,
				Color:   sec.Color,
				Start:   sec.Start,
				End:     sec.End,
				Profile: prof,
				Gaps:    prof.Elevation.Gaps(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Compute runs the whole pipeline for one site: surface, contour levels and
// section profiles.
func (m *Model) Compute(ctx context.Context, p Params, trees []Tree, sections []Section) (Result, error) {
	surface, skipped := m.Surface(p, trees)
	profiles, err := Profiles(ctx, surface, sections, p.SectionSamples)
	if err != nil {
		return Result{}, err
	}
	lo, hi := surface.Range()
	m.log.Debug("surface composed",
		zap.Int("trees", len(trees)),
		zap.Int("skipped", len(skipped)),
		zap.Float64("min", lo),
		zap.Float64("max", hi))
	return Result{
		Start:    p.StartingElevation(),
		Surface:  surface,
		Min:      lo,
		Max:      hi,
		Levels:   field.Levels(surface, field.DefaultLevelStep),
		Skipped:  skipped,
		Profiles: profiles,
	}, nil
}
