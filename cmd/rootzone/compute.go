package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/RyanHill92/rootzone/internal/site"
)

var (
	outPath string
	ascPath string
)

// siteFile is one site described in YAML. Params missing from the file
// take the configured model defaults.
type siteFile struct {
	Name     string         `yaml:"name"`
	Params   site.Params    `yaml:"params"`
	Trees    []site.Tree    `yaml:"trees"`
	Sections []site.Section `yaml:"sections"`
}

var computeCmd = &cobra.Command{
	Use:   "compute <site.yaml>",
	Short: "Compute the influence surface of one site file",
	Long: `Reads a site (params, trees and section lines) from YAML, composes its
influence surface and samples every section.

The JSON result goes to stdout unless --out is set. --asc also writes the
surface as an ESRI ASCII grid.

Example site file:

  name: Plot 7
  params:
    soil_plasticity: High
    ffl: 13
  trees:
    - {species: Oak (English), x: 4, y: 12, z: 11.6}
  sections:
    - {label: A-A', start: {x: 0, y: 0}, end: {x: 30, y: 0}}`,
	Args: cobra.ExactArgs(1),
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the JSON result to this file")
	computeCmd.Flags().StringVar(&ascPath, "asc", "", "write the surface as an ESRI ASCII grid to this file")
}

func readSiteFile(path string) (siteFile, error) {
	sf := siteFile{Params: cfg.Model}

	data, err := os.ReadFile(path)
	if err != nil {
		return sf, fmt.Errorf("failed to read site file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("failed to parse site file: %w", err)
	}

	if err := site.ValidateParams(&sf.Params); err != nil {
		return sf, err
	}
	for i := range sf.Trees {
		if err := site.ValidateTree(&sf.Trees[i]); err != nil {
			return sf, fmt.Errorf("tree %d: %w", i+1, err)
		}
		sf.Trees[i].ID = int64(i + 1)
	}
	labels := make([]string, 0, len(sf.Sections))
	for i := range sf.Sections {
		sec := &sf.Sections[i]
		if err := site.ValidateSection(sec); err != nil {
			return sf, fmt.Errorf("section %d: %w", i+1, err)
		}
		sec.ID = int64(i + 1)
		if sec.Label == "" {
			sec.Label = site.NextSectionLabel(labels)
		}
		labels = append(labels, sec.Label)
		if sec.Color == "" {
			sec.Color = site.DefaultSectionColor
		}
	}
	return sf, nil
}

func runCompute(cmd *cobra.Command, args []string) error {
	sf, err := readSiteFile(args[0])
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.Reference.Path)
	if err != nil {
		return fmt.Errorf("error loading reference data: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	model := site.NewModel(catalog, logger)
	res, err := model.Compute(ctx, sf.Params, sf.Trees, sf.Sections)
	if err != nil {
		return err
	}
	for _, skip := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped tree %d (%s): %s\n", skip.TreeID, skip.Species, skip.Reason)
	}

	if ascPath != "" {
		if err := writeFile(ascPath, res.Surface.WriteASCII); err != nil {
			return fmt.Errorf("failed to write grid: %w", err)
		}
		logger.Info("grid written", zap.String("path", ascPath))
	}

	writeJSON := func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if outPath == "" {
		return writeJSON(cmd.OutOrStdout())
	}
	if err := writeFile(outPath, writeJSON); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	logger.Info("result written", zap.String("site", sf.Name), zap.String("path", outPath))
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
