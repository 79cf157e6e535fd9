package reference

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTables []byte

// Tables is the raw reference dataset.
type Tables struct {
	Species []Species `yaml:"species"`
	Curves  []Curve   `yaml:"curves"`
}

// Parse decodes and validates a YAML dataset.
func Parse(data []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("failed to parse reference data: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Load reads a YAML dataset from path.
func Load(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read reference data: %w", err)
	}
	return Parse(data)
}

// Default returns the dataset compiled into the binary.
func Default() Tables {
	t, err := Parse(defaultTables)
	if err != nil {
		panic(fmt.Sprintf("reference: embedded dataset is invalid: %v", err))
	}
	return t
}

// Validate checks every row and names the first bad one.
func (t Tables) Validate() error {
	if len(t.Species) == 0 {
		return fmt.Errorf("reference data has no species")
	}
	for i, s := range t.Species {
		if err := s.validate(); err != nil {
			return fmt.Errorf("species row %d (%q): %w", i+1, s.Name, err)
		}
	}
	for i, c := range t.Curves {
		if err := c.validate(); err != nil {
			return fmt.Errorf("curve row %d: %w", i+1, err)
		}
	}
	return nil
}
