package reference

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownSpecies reports a species name missing from the species table.
	ErrUnknownSpecies = errors.New("species not found in reference data")
	// ErrNoCurve reports that no curve row matches a soil/coniferous/demand key.
	ErrNoCurve = errors.New("no curve parameters match")
)

// Catalog resolves species and curve parameters.
type Catalog interface {
	Species(name string) (Species, error)
	Curve(soil Plasticity, coniferous bool, demand WaterDemand) (Curve, error)
	SpeciesNames() []string
}

type curveKey struct {
	soil       Plasticity
	coniferous bool
	demand     WaterDemand
}

// TableCatalog is an immutable, indexed view of Tables. Lookups never touch
// the source rows again after construction.
type TableCatalog struct {
	species map[string]Species
	curves  map[curveKey]Curve
	names   []string
}

// NewCatalog indexes the tables. When a key appears twice the first row wins.
func NewCatalog(t Tables) *TableCatalog {
	c := &TableCatalog{
		species: make(map[string]Species, len(t.Species)),
		curves:  make(map[curveKey]Curve, len(t.Curves)),
	}
	for _, s := range t.Species {
		key := speciesKey(s.Name)
		if _, ok := c.species[key]; ok {
			continue
		}
		c.species[key] = s
		c.names = append(c.names, s.Name)
	}
	for _, row := range t.Curves {
		key := curveKey{soil: row.Soil, coniferous: row.Coniferous, demand: row.WaterDemand}
		if _, ok := c.curves[key]; ok {
			continue
		}
		c.curves[key] = row
	}
	sort.Strings(c.names)
	return c
}

// Species looks a species up by name, ignoring case and surrounding space.
func (c *TableCatalog) Species(name string) (Species, error) {
	s, ok := c.species[speciesKey(name)]
	if !ok {
		return Species{}, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
	}
	return s, nil
}

// Curve returns the curve row for the key.
func (c *TableCatalog) Curve(soil Plasticity, coniferous bool, demand WaterDemand) (Curve, error) {
	row, ok := c.curves[curveKey{soil: soil, coniferous: coniferous, demand: demand}]
	if !ok {
		return Curve{}, fmt.Errorf("%w: soil=%s coniferous=%t demand=%s", ErrNoCurve, soil, coniferous, demand)
	}
	return row, nil
}

// SpeciesNames lists the species in name order.
func (c *TableCatalog) SpeciesNames() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func speciesKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
