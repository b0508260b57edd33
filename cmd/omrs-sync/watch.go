package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashokraman/ocl-omrs/internal/config"
	"github.com/ashokraman/ocl-omrs/internal/omrs/daemon"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-import whenever the concept or mapping file changes",
	Long: `Run an import, then watch --concept_file and --mapping_file and import
again each time they change. Changes are debounced so a file written in
several steps triggers a single run. Runs never overlap.

A failing run is logged and the watch continues; fix the input and save it
again to retry. Stop with Ctrl-C.`,
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

		run := func(ctx context.Context) error {
			start := time.Now()
			res, err := a.runImport(ctx, store)
			a.observe("import", res, start, err)
			if err != nil {
				return err
			}
			a.logger.Info("import complete", res.Fields()...)
			return nil
		}

		d, err := daemon.New(run, []string{a.cfg.ConceptFile, a.cfg.MappingFile}, daemon.Config{
			Debounce: a.cfg.Watch.Debounce,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
		return d.Start(ctx)
	},
}

func init() {
	addImportFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "quiet period before a change triggers a run")
}
