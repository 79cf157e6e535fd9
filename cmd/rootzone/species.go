package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var speciesCmd = &cobra.Command{
	Use:   "species",
	Short: "List the reference species table",
	Args:  cobra.NoArgs,
	RunE:  runSpecies,
}

func runSpecies(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(cfg.Reference.Path)
	if err != nil {
		return fmt.Errorf("error loading reference data: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPECIES\tMATURE HEIGHT\tCONIFEROUS\tWATER DEMAND")
	for _, name := range catalog.SpeciesNames() {
		sp, err := catalog.Species(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%g\t%t\t%s\n", sp.Name, sp.MatureHeight, sp.Coniferous, sp.WaterDemand)
	}
	return tw.Flush()
}
