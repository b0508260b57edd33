package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ashokraman/ocl-omrs/internal/config"
	"github.com/ashokraman/ocl-omrs/internal/omrs/directory"
	"github.com/ashokraman/ocl-omrs/internal/omrs/validate"
	"github.com/ashokraman/ocl-omrs/internal/ui"
)

var checkSourcesCmd = &cobra.Command{
	Use:   "check-sources",
	Short: "Verify reference sources against the source directory and registry",
	Long: `Check every non-retired reference source in the store.

Each source must have an entry in the source directory. When --token is
given, the registry is also asked whether the organization and source exist
(HEAD {env}/orgs/{org}/sources/{source}/). Without a token that check is
skipped.

The check stops at the first unrecognized source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, (*config.Config).ValidateCheck)
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

		dir, err := directory.Load(a.cfg.DirectoryFile)
		if err != nil {
			return err
		}

		v, err := validate.New(store, dir, validate.Config{
			Env:           a.cfg.Env,
			Token:         a.cfg.Token,
			RatePerSecond: a.cfg.Check.RatePerSecond,
			Timeout:       a.cfg.Check.Timeout,
		}, a.logger)
		if err != nil {
			return err
		}

		statuses, err := v.Check(ctx)
		if a.cfg.Verbosity >= 1 {
			out := cmd.OutOrStdout()
			for _, st := range statuses {
				mark := ui.RenderPass("✓")
				note := "found in registry"
				if !st.Probed {
					mark = ui.RenderWarn("⚠")
					note = "no api token provided, registry check skipped"
				}
				fmt.Fprintf(out, "%s %s -> %s/%s %s\n", mark, st.Name, st.OrgID, st.SourceID, ui.RenderMuted(note))
			}
		}
		if err != nil {
			return err
		}

		if a.cfg.Verbosity >= 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d reference sources recognized\n", ui.RenderPass("✓"), len(statuses))
		}
		return nil
	},
}

func init() {
	checkSourcesCmd.Flags().String("env", "production", "registry environment: dev, staging or production")
	checkSourcesCmd.Flags().String("token", "", "registry API token")
	checkSourcesCmd.Flags().Float64("rate", 5, "maximum registry probes per second")
	checkSourcesCmd.Flags().Duration("timeout", 0, "timeout for each registry probe (default 30s)")
}
