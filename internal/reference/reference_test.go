package reference

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabels(t *testing.T) {
	tests := []struct {
		in         string
		plasticity Plasticity
		demand     WaterDemand
	}{
		{"High", PlasticityHigh, DemandHigh},
		{" h ", PlasticityHigh, DemandHigh},
		{"medium", PlasticityMedium, DemandMedium},
		{"M", PlasticityMedium, DemandMedium},
		{"LOW", PlasticityLow, DemandLow},
		{"clay", PlasticityUnknown, DemandUnknown},
		{"", PlasticityUnknown, DemandUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.plasticity, ParsePlasticity(tt.in))
			assert.Equal(t, tt.demand, ParseWaterDemand(tt.in))
		})
	}
}

func TestDefaultTablesLoad(t *testing.T) {
	tables := Default()
	require.NotEmpty(t, tables.Species)

	cat := NewCatalog(tables)
	oak, err := cat.Species("oak (english)")
	require.NoError(t, err)
	assert.Equal(t, 20.0, oak.MatureHeight)
	assert.Equal(t, DemandHigh, oak.WaterDemand)
	assert.False(t, oak.Coniferous)

	// every species must have a curve on every recognised soil
	for _, name := range cat.SpeciesNames() {
		s, err := cat.Species(name)
		require.NoError(t, err)
		for _, soil := range []Plasticity{PlasticityHigh, PlasticityMedium, PlasticityLow} {
			_, err := cat.Curve(soil, s.Coniferous, s.WaterDemand)
			assert.NoError(t, err, "species %s soil %s", name, soil)
		}
	}
}

func TestCatalogLookupFailures(t *testing.T) {
	cat := NewCatalog(Tables{
		Species: []Species{{Name: "Oak", MatureHeight: 20, WaterDemand: DemandHigh}},
	})

	_, err := cat.Species("Baobab")
	assert.True(t, errors.Is(err, ErrUnknownSpecies))

	_, err = cat.Curve(PlasticityHigh, false, DemandHigh)
	assert.True(t, errors.Is(err, ErrNoCurve))
}

func TestCatalogFirstRowWins(t *testing.T) {
	cat := NewCatalog(Tables{
		Species: []Species{
			{Name: "Oak", MatureHeight: 20, WaterDemand: DemandHigh},
			{Name: "OAK", MatureHeight: 99, WaterDemand: DemandLow},
		},
		Curves: []Curve{
			{Soil: PlasticityHigh, WaterDemand: DemandHigh, X2: 0.5, Y1: 0.2},
			{Soil: PlasticityHigh, WaterDemand: DemandHigh, X2: 0.9, Y1: 0.9},
		},
	})

	s, err := cat.Species("oak")
	require.NoError(t, err)
	assert.Equal(t, 20.0, s.MatureHeight)
	assert.Equal(t, []string{"Oak"}, cat.SpeciesNames())

	c, err := cat.Curve(PlasticityHigh, false, DemandHigh)
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.X2)
}

func TestParseRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no species", "species: []"},
		{"zero height", "species: [{name: Oak, mature_height: 0, water_demand: H}]"},
		{"unknown demand", "species: [{name: Oak, mature_height: 20, water_demand: X}]"},
		{"missing x2", `
species: [{name: Oak, mature_height: 20, water_demand: H}]
curves: [{soil: High, coniferous: false, water_demand: H, y1: 0.2}]`},
		{"x1 past x2", `
species: [{name: Oak, mature_height: 20, water_demand: H}]
curves: [{soil: High, coniferous: false, water_demand: H, x1: 0.6, x2: 0.5, y1: 0.2}]`},
		{"unknown soil", `
species: [{name: Oak, mature_height: 20, water_demand: H}]
curves: [{soil: Sandy, coniferous: false, water_demand: H, x2: 0.5, y1: 0.2}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	data := `
species:
  - {name: Oak, mature_height: 20, coniferous: false, water_demand: High}
curves:
  - {soil: H, coniferous: false, water_demand: H, x1: 0.1, x2: 0.5, y1: 0.2}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	tables, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tables.Curves, 1)
	require.NotNil(t, tables.Curves[0].X1)
	assert.Equal(t, 0.1, *tables.Curves[0].X1)
	assert.True(t, tables.Curves[0].ThreeSegment())
	assert.Equal(t, PlasticityHigh, tables.Curves[0].Soil)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
