package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashokraman/ocl-omrs/internal/config"
	"github.com/ashokraman/ocl-omrs/internal/logging"
	"github.com/ashokraman/ocl-omrs/internal/omrs/classify"
	"github.com/ashokraman/ocl-omrs/internal/omrs/db"
	"github.com/ashokraman/ocl-omrs/internal/omrs/directory"
	"github.com/ashokraman/ocl-omrs/internal/omrs/metrics"
	"github.com/ashokraman/ocl-omrs/internal/omrs/sync"
	"github.com/ashokraman/ocl-omrs/internal/ui"
)

// app holds what every command needs once flags are parsed.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	recorder *metrics.Recorder
}

// newApp loads and validates configuration for cmd and builds the logger.
func newApp(cmd *cobra.Command, validate func(*config.Config) error) (*app, error) {
	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}

	logger := logging.New(logging.Options{
		Verbosity:  cfg.Verbosity,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	return &app{cfg: cfg, logger: logger, recorder: metrics.New()}, nil
}

func (a *app) close() {
	a.logger.Sync()
}

// openStore opens the configured store and makes sure the schema exists.
func (a *app) openStore(ctx context.Context) (*db.DB, error) {
	store, err := db.Open(a.cfg.DB.Driver, a.cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.InitSchemaContext(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (a *app) classifier() (*classify.Classifier, error) {
	dir, err := directory.Load(a.cfg.DirectoryFile)
	if err != nil {
		return nil, err
	}
	return &classify.Classifier{OrgID: a.cfg.OrgID, SourceID: a.cfg.SourceID, Directory: dir}, nil
}

// observe records a finished run and refreshes the metrics textfile.
func (a *app) observe(operation string, res *sync.Result, start time.Time, runErr error) {
	a.recorder.ObserveRun(operation, res, time.Since(start), runErr)
	if a.cfg.MetricsFile == "" {
		return
	}
	if err := a.recorder.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.logger.Warn("failed to write metrics", "error", err)
	}
}

// printSummary prints the run counters unless verbosity is 0.
func (a *app) printSummary(cmd *cobra.Command, title string, res *sync.Result) {
	if a.cfg.Verbosity < logging.Summary || res == nil {
		return
	}
	ui.PrintSummary(cmd.OutOrStdout(), title, summaryRows(res))
}

var summaryLabels = map[string]string{
	"concepts_processed":    "Concepts processed",
	"concepts_created":      "Concepts created",
	"names_created":         "Names created",
	"descriptions_created":  "Descriptions created",
	"numerics_created":      "Numeric rows created",
	"retired_concepts":      "Retired concepts",
	"mappings_processed":    "Mappings processed",
	"mappings_created":      "Mappings created",
	"internal_mappings":     "Internal mappings",
	"external_mappings":     "External mappings",
	"ignored_self_mappings": "Ignored self mappings",
	"questions":             "Questions",
	"answers":               "Answers",
	"concept_sets":          "Concept sets",
	"set_members":           "Set members",
	"hook_mappings":         "Cross-references added",
}

func summaryRows(res *sync.Result) []ui.Row {
	fields := res.Fields()
	rows := make([]ui.Row, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		n, _ := fields[i+1].(int)
		label, ok := summaryLabels[key]
		if !ok {
			label = key
		}
		rows = append(rows, ui.Row{Label: label, Value: n})
	}
	return rows
}
