package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashokraman/ocl-omrs/internal/config"
	"github.com/ashokraman/ocl-omrs/internal/omrs/db"
	"github.com/ashokraman/ocl-omrs/internal/omrs/jsonl"
	"github.com/ashokraman/ocl-omrs/internal/omrs/sync"
	"github.com/ashokraman/ocl-omrs/internal/omrs/upsert"
	"github.com/ashokraman/ocl-omrs/internal/ui"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import concept and mapping files into the store",
	Long: `Import interchange files into the relational store.

The import runs in two phases:
  1. Every concept in --concept_file is found or created, with its names,
     descriptions and numeric metadata
  2. Every mapping in --mapping_file is resolved against the concepts from
     phase 1 and becomes a reference map, a Q&A answer or a set member

Mappings from a concept to itself are counted and skipped. Re-running the
same import creates nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, (*config.Config).ValidateImport)
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
		res, err := a.runImport(ctx, store)
		a.observe("import", res, start, err)
		if err != nil {
			return err
		}

		a.printSummary(cmd, "Import", res)
		if a.cfg.Verbosity >= 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s Import complete in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	addImportFlags(importCmd)
}

func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().String("concept_file", "", "concept interchange file (required)")
	cmd.Flags().String("mapping_file", "", "mapping interchange file (required)")
	cmd.Flags().String("concept_id", "", "only import this concept and its mappings")
	cmd.Flags().String("cross-ref", "", "also cross-reference internal mappings in this source (e.g. CIEL)")
	cmd.Flags().String("cross-ref-type", "SAME-AS", "map type of the extra cross-references")
}

// runImport reads both input files and imports them into store.
func (a *app) runImport(ctx context.Context, store *db.DB) (*sync.Result, error) {
	concepts, err := jsonl.ReadConcepts(a.cfg.ConceptFile)
	if err != nil {
		return nil, err
	}
	mappings, err := jsonl.ReadMappings(a.cfg.MappingFile)
	if err != nil {
		return nil, err
	}
	a.logger.Info("read input files", "concepts", len(concepts), "mappings", len(mappings))

	classifier, err := a.classifier()
	if err != nil {
		return nil, err
	}

	var opts []sync.ImportOption
	if a.cfg.ConceptID != "" {
		opts = append(opts, sync.WithConceptFilter(a.cfg.ConceptID))
	}
	if a.cfg.Import.CrossReferenceSource != "" {
		opts = append(opts, sync.WithMappingHook(sync.CrossReferenceHook{
			Source:  a.cfg.Import.CrossReferenceSource,
			MapType: a.cfg.Import.CrossReferenceMapType,
		}))
	}

	engine := upsert.New(store, upsert.WithCreator(a.cfg.Creator))
	im := sync.NewImporter(store, engine, classifier, a.logger, opts...)
	return im.Import(ctx, concepts, mappings)
}
