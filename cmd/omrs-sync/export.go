package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashokraman/ocl-omrs/internal/config"
	"github.com/ashokraman/ocl-omrs/internal/omrs/db"
	"github.com/ashokraman/ocl-omrs/internal/omrs/jsonl"
	"github.com/ashokraman/ocl-omrs/internal/omrs/model"
	"github.com/ashokraman/ocl-omrs/internal/omrs/sync"
	"github.com/ashokraman/ocl-omrs/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the store as concept and mapping files",
	Long: `Export concepts from the relational store as interchange files.

Each concept is written to --concept_file; its reference maps, Q&A answers
and set members are written to --mapping_file. With --retired, only the ids
of retired concepts are written to --retired_file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, (*config.Config).ValidateExport)
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

		start := time.Now()
		res, err := a.runExport(ctx, store)
		a.observe("export", res, start, err)
		if err != nil {
			return err
		}

		a.printSummary(cmd, "Export", res)
		if a.cfg.Verbosity >= 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s Export complete in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("concept_file", "", "concept interchange file to write")
	exportCmd.Flags().String("mapping_file", "", "mapping interchange file to write")
	exportCmd.Flags().String("concept_id", "", "only export this concept")
	exportCmd.Flags().Bool("retired", false, "write the ids of retired concepts instead")
	exportCmd.Flags().String("retired_file", "", "file for --retired output")
}

// runExport writes the configured output files from store.
func (a *app) runExport(ctx context.Context, store *db.DB) (*sync.Result, error) {
	classifier, err := a.classifier()
	if err != nil {
		return nil, err
	}

	var filter model.ConceptFilter
	if a.cfg.ConceptID != "" {
		id, err := strconv.ParseInt(a.cfg.ConceptID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid concept id %q: %w", a.cfg.ConceptID, err)
		}
		filter.ConceptID = &id
	}

	ex := sync.NewExporter(store, classifier, a.logger)

	if a.cfg.Retired {
		ids, res, err := ex.ExportRetired(ctx, filter)
		if err != nil {
			return res, err
		}
		return res, jsonl.WriteRetired(a.cfg.RetiredFile, ids)
	}

	out, err := ex.Export(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := jsonl.WriteConcepts(a.cfg.ConceptFile, out.Concepts); err != nil {
		return &out.Result, err
	}
	if err := jsonl.WriteMappings(a.cfg.MappingFile, out.Mappings); err != nil {
		return &out.Result, err
	}
	return &out.Result, nil
}
