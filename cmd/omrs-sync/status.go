package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
	"github.com/ashokraman/ocl-omrs/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts of the store",
	Long: `Display how many rows of each entity kind the store holds:
concepts, names, descriptions, numeric rows, reference sources, terms,
reference maps, Q&A answers and set members.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, nil)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		store, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		counts, err := store.Counts(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", ui.RenderAccent("Store"), a.cfg.DB.DSN, store.Driver())
		ui.PrintSummary(cmd.OutOrStdout(), "Rows", countRows(counts))
		return nil
	},
}

func countRows(c *model.Counts) []ui.Row {
	return []ui.Row{
		{Label: "Concepts", Value: c.Concepts},
		{Label: "Names", Value: c.Names},
		{Label: "Descriptions", Value: c.Descriptions},
		{Label: "Numeric rows", Value: c.Numerics},
		{Label: "Reference sources", Value: c.Sources},
		{Label: "Reference terms", Value: c.Terms},
		{Label: "Reference maps", Value: c.ReferenceMaps},
		{Label: "Answers", Value: c.Answers},
		{Label: "Set members", Value: c.SetMembers},
	}
}
