// Package config loads omrs-sync settings from flags, environment and an
// optional config file.
//
// Precedence, highest first: command-line flag, OMRS_SYNC_* environment
// variable, config file, default. Nested keys map to environment variables
// with dots replaced by underscores, so db.dsn is OMRS_SYNC_DB_DSN.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ashokraman/ocl-omrs/internal/omrs"
	"github.com/ashokraman/ocl-omrs/internal/omrs/db"
	"github.com/ashokraman/ocl-omrs/internal/omrs/validate"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "OMRS_SYNC"

// Config is the resolved configuration of one command invocation.
type Config struct {
	ConceptFile string `mapstructure:"concept_file"`
	MappingFile string `mapstructure:"mapping_file"`
	RetiredFile string `mapstructure:"retired_file"`
	ConceptID   string `mapstructure:"concept_id"`
	Retired     bool   `mapstructure:"retired"`

	OrgID    string `mapstructure:"org_id"`
	SourceID string `mapstructure:"source_id"`

	Env   string `mapstructure:"env"`
	Token string `mapstructure:"token"`

	Verbosity     int    `mapstructure:"verbosity"`
	DirectoryFile string `mapstructure:"directory_file"`
	MetricsFile   string `mapstructure:"metrics_file"`
	Creator       int64  `mapstructure:"creator"`

	DB     DBConfig     `mapstructure:"db"`
	Log    LogConfig    `mapstructure:"log"`
	Import ImportConfig `mapstructure:"import"`
	Check  CheckConfig  `mapstructure:"check"`
	Watch  WatchConfig  `mapstructure:"watch"`
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig controls the optional log file.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// ImportConfig enables the secondary cross-reference on internal mappings.
type ImportConfig struct {
	CrossReferenceSource  string `mapstructure:"cross_reference_source"`
	CrossReferenceMapType string `mapstructure:"cross_reference_map_type"`
}

// CheckConfig paces the reference source probe.
type CheckConfig struct {
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"db":             "db.dsn",
	"driver":         "db.driver",
	"log-file":       "log.file",
	"metrics-file":   "metrics_file",
	"debounce":       "watch.debounce",
	"rate":           "check.rate_per_second",
	"timeout":        "check.timeout",
	"cross-ref":      "import.cross_reference_source",
	"cross-ref-type": "import.cross_reference_map_type",
}

// KeyForFlag returns the config key a flag is bound to.
func KeyForFlag(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return name
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", validate.EnvProduction)
	v.SetDefault("verbosity", 1)
	v.SetDefault("creator", 1)
	v.SetDefault("db.driver", db.DriverSQLite)
	v.SetDefault("db.dsn", "omrs.db")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("import.cross_reference_map_type", omrs.MapTypeSameAs)
	v.SetDefault("check.rate_per_second", 5.0)
	v.SetDefault("check.timeout", 30*time.Second)
	v.SetDefault("watch.debounce", 500*time.Millisecond)
}

// Load resolves configuration from flags, environment and configFile.
// flags and configFile may be empty.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about; bind the ones without
	// defaults so their environment variables are read too.
	for _, key := range []string{"concept_file", "mapping_file", "retired_file", "concept_id", "retired",
		"org_id", "source_id", "token", "directory_file", "metrics_file", "log.file",
		"import.cross_reference_source"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config file %s: %v", omrs.ErrInvalidConfig, configFile, err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" || f.Name == "help" || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(KeyForFlag(f.Name), f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", omrs.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", omrs.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func (c *Config) validateCommon() error {
	switch c.DB.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return invalid("unknown db driver %q (want %s or %s)", c.DB.Driver, db.DriverSQLite, db.DriverPostgres)
	}
	if c.DB.DSN == "" {
		return invalid("db dsn is required")
	}
	if c.Verbosity < 0 || c.Verbosity > 2 {
		return invalid("verbosity must be 0, 1 or 2, got %d", c.Verbosity)
	}
	return nil
}

func (c *Config) validateDictionary() error {
	if c.OrgID == "" || c.SourceID == "" {
		return invalid("org_id and source_id are required")
	}
	if c.ConceptID != "" {
		if _, err := strconv.ParseInt(c.ConceptID, 10, 64); err != nil {
			return invalid("concept_id must be an integer, got %q", c.ConceptID)
		}
	}
	return nil
}

// ValidateImport checks the settings needed by the import and watch commands.
func (c *Config) ValidateImport() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if c.ConceptFile == "" || c.MappingFile == "" {
		return invalid("concept and mapping file names are required")
	}
	for _, path := range []string{c.ConceptFile, c.MappingFile} {
		if _, err := os.Stat(path); err != nil {
			return invalid("cannot read %s: %v", path, err)
		}
	}
	if err := c.validateDictionary(); err != nil {
		return err
	}
	if c.Creator <= 0 {
		return invalid("creator must be a positive user id, got %d", c.Creator)
	}
	if c.Watch.Debounce < 0 {
		return invalid("watch debounce must not be negative")
	}
	return nil
}

// ValidateExport checks the settings needed by the export command.
func (c *Config) ValidateExport() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if c.Retired {
		if c.RetiredFile == "" {
			return invalid("retired_file is required with --retired")
		}
	} else if c.ConceptFile == "" || c.MappingFile == "" {
		return invalid("concept and mapping file names are required")
	}
	return c.validateDictionary()
}

// ValidateCheck checks the settings needed by the check-sources command.
func (c *Config) ValidateCheck() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if _, err := validate.BaseURL(c.Env); err != nil {
		return err
	}
	if c.Check.RatePerSecond < 0 {
		return invalid("check rate must not be negative")
	}
	return nil
}
