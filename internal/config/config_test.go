package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
	"github.com/ashokraman/ocl-omrs/internal/omrs/db"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 1, cfg.Verbosity)
	assert.Equal(t, int64(1), cfg.Creator)
	assert.Equal(t, db.DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, omrs.MapTypeSameAs, cfg.Import.CrossReferenceMapType)
	assert.Equal(t, 30*time.Second, cfg.Check.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "omrs-sync.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
org_id: FileOrg
source_id: FileSource
db:
  driver: pgx
  dsn: postgres://localhost/openmrs
watch:
  debounce: 2s
`), 0644))

	t.Setenv("OMRS_SYNC_SOURCE_ID", "EnvSource")
	t.Setenv("OMRS_SYNC_DB_DSN", "postgres://env/openmrs")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("org_id", "", "")
	flags.String("db", "", "")
	require.NoError(t, flags.Parse([]string{"--org_id", "FlagOrg"}))

	cfg, err := Load(flags, file)
	require.NoError(t, err)

	assert.Equal(t, "FlagOrg", cfg.OrgID, "flag beats file")
	assert.Equal(t, "EnvSource", cfg.SourceID, "env beats file")
	assert.Equal(t, "postgres://env/openmrs", cfg.DB.DSN, "env beats unset flag")
	assert.Equal(t, db.DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
}

func TestLoad_TOMLFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "omrs-sync.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
org_id = "MyOrg"
source_id = "MySource"

[import]
cross_reference_source = "CIEL"
`), 0644))

	cfg, err := Load(nil, file)
	require.NoError(t, err)
	assert.Equal(t, "MyOrg", cfg.OrgID)
	assert.Equal(t, "CIEL", cfg.Import.CrossReferenceSource)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, omrs.ErrInvalidConfig)
}

func validImport(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	cfg.ConceptFile = touch(t, filepath.Join(dir, "concepts.jsonl"))
	cfg.MappingFile = touch(t, filepath.Join(dir, "mappings.jsonl"))
	cfg.OrgID = "MyOrg"
	cfg.SourceID = "MySource"
	return cfg
}

func TestValidateImport(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "valid", mutate: func(*Config) {}, ok: true},
		{name: "missing concept file", mutate: func(c *Config) { c.ConceptFile = "" }},
		{name: "nonexistent mapping file", mutate: func(c *Config) { c.MappingFile = "/nonexistent/mappings.jsonl" }},
		{name: "missing org", mutate: func(c *Config) { c.OrgID = "" }},
		{name: "non-numeric concept id", mutate: func(c *Config) { c.ConceptID = "abc" }},
		{name: "numeric concept id", mutate: func(c *Config) { c.ConceptID = "5088" }, ok: true},
		{name: "unknown driver", mutate: func(c *Config) { c.DB.Driver = "mysql" }},
		{name: "verbosity out of range", mutate: func(c *Config) { c.Verbosity = 3 }},
		{name: "zero creator", mutate: func(c *Config) { c.Creator = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validImport(t)
			tt.mutate(cfg)
			err := cfg.ValidateImport()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, omrs.ErrInvalidConfig)
			}
		})
	}
}

func TestValidateExport(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	cfg.OrgID, cfg.SourceID = "MyOrg", "MySource"

	assert.ErrorIs(t, cfg.ValidateExport(), omrs.ErrInvalidConfig, "file names required")

	cfg.ConceptFile, cfg.MappingFile = "out/concepts.jsonl", "out/mappings.jsonl"
	assert.NoError(t, cfg.ValidateExport(), "export files need not exist yet")

	cfg.Retired = true
	assert.ErrorIs(t, cfg.ValidateExport(), omrs.ErrInvalidConfig, "retired needs retired_file")

	cfg.RetiredFile = "out/retired.txt"
	assert.NoError(t, cfg.ValidateExport())
}

func TestValidateCheck(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateCheck())

	cfg.Env = "qa"
	assert.ErrorIs(t, cfg.ValidateCheck(), omrs.ErrInvalidConfig)

	cfg.Env = "staging"
	cfg.Check.RatePerSecond = -1
	assert.ErrorIs(t, cfg.ValidateCheck(), omrs.ErrInvalidConfig)
}
