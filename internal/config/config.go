// =============================================================================
// Sales Loader - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the loader's
// configuration.
//
// SOURCES (later wins):
//   1. Built-in defaults (SetDefaults)
//   2. The YAML config file (salesloader.yaml, or --config)
//   3. A .env file in the working directory, if present
//   4. Environment variables prefixed SALESLOADER_ (database.user becomes
//      SALESLOADER_DATABASE_USER)
//   5. Command line flags bound by the cmd package
//
// The defaults reproduce the loader's historical command line defaults: a
// local MySQL server, database online_sales, table online_retail_raw and
// batches of 10000 rows.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFile is read when no --config flag is given and the file exists.
const DefaultFile = "salesloader.yaml"

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "SALESLOADER"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the whole loader configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Load     LoadConfig     `yaml:"load" mapstructure:"load"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// =============================================================================
// SOURCE SETTINGS
// =============================================================================

// SourceConfig describes the input file.
type SourceConfig struct {
	// File is the path to the .xlsx/.xlsm workbook or .csv file.
	File string `yaml:"file" mapstructure:"file"`

	// Sheets restricts loading to the named sheets. Empty loads every sheet.
	Sheets []string `yaml:"sheets,omitempty" mapstructure:"sheets"`

	// SkipBlankRows drops data rows whose cells are all blank.
	// Default: false (a blank row loads as a record with zero quantity/price)
	SkipBlankRows bool `yaml:"skip_blank_rows" mapstructure:"skip_blank_rows"`

	// CSV holds settings used only for .csv sources.
	CSV CSVSettings `yaml:"csv" mapstructure:"csv"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" or "pipe", "tab", ";" or "semicolon"
	// Default: ","
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`

	// Encoding is the character encoding of the file, by WHATWG name.
	// Common values: "utf-8", "windows-1252", "iso-8859-1"
	// Default: "utf-8"
	Encoding string `yaml:"encoding" mapstructure:"encoding"`

	// HeaderRows is the number of header rows. Multi-line headers are merged
	// column by column.
	// Default: 1
	HeaderRows int `yaml:"header_rows" mapstructure:"header_rows"`

	// SkipBlankRows mirrors SourceConfig.SkipBlankRows.
	SkipBlankRows bool `yaml:"-" mapstructure:"-"`
}

// =============================================================================
// DATABASE SETTINGS
// =============================================================================

// DatabaseConfig describes the target store.
type DatabaseConfig struct {
	// Driver selects the storage backend.
	// Valid values: "mysql", "postgres", "sqlite", "sqlserver"
	// Default: "mysql"
	Driver string `yaml:"driver" mapstructure:"driver"`

	// DSN, when set, is used as-is and the connection fields below are
	// ignored. For sqlite it is the database file path.
	DSN string `yaml:"dsn,omitempty" mapstructure:"dsn"`

	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`

	// Name is the database (schema) to create and load into.
	// Default: "online_sales"
	Name string `yaml:"name" mapstructure:"name"`

	// Table is the target table. It is dropped and recreated on every load
	// unless load.keep_table is set.
	// Default: "online_retail_raw"
	Table string `yaml:"table" mapstructure:"table"`
}

// =============================================================================
// LOAD SETTINGS
// =============================================================================

// LoadConfig controls batching and post-load behaviour.
type LoadConfig struct {
	// BatchSize is the number of rows per insert transaction. Must be > 0.
	// Default: 10000
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`

	// ProgressEvery logs a progress line every N records. 0 means once per
	// batch.
	ProgressEvery int `yaml:"progress_every" mapstructure:"progress_every"`

	// KeepTable skips dropping and recreating the target table.
	KeepTable bool `yaml:"keep_table" mapstructure:"keep_table"`

	// Verify counts the table rows after the load and compares them with
	// the number inserted.
	Verify bool `yaml:"verify" mapstructure:"verify"`

	// Summary is an optional path for a YAML run summary.
	Summary string `yaml:"summary,omitempty" mapstructure:"summary"`
}

// =============================================================================
// LOGGING AND METRICS SETTINGS
// =============================================================================

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	// Level: "debug", "info", "warn", "error". Default: "info"
	Level string `yaml:"level" mapstructure:"level"`

	// Format: "text" or "json". Default: "text"
	Format string `yaml:"format" mapstructure:"format"`
}

// MetricsConfig controls the optional Prometheus push at the end of a run.
type MetricsConfig struct {
	// PushgatewayURL enables the push when set.
	PushgatewayURL string `yaml:"pushgateway_url,omitempty" mapstructure:"pushgateway_url"`

	// Job is the push job name. Default: "salesloader"
	Job string `yaml:"job" mapstructure:"job"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// SetDefaults registers every default with v. Registering a default also
// makes the key visible to environment variable lookups.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.file", "")
	v.SetDefault("source.sheets", []string{})
	v.SetDefault("source.skip_blank_rows", false)
	v.SetDefault("source.csv.delimiter", ",")
	v.SetDefault("source.csv.encoding", "utf-8")
	v.SetDefault("source.csv.header_rows", 1)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "online_sales")
	v.SetDefault("database.table", "online_retail_raw")

	v.SetDefault("load.batch_size", 10000)
	v.SetDefault("load.progress_every", 0)
	v.SetDefault("load.keep_table", false)
	v.SetDefault("load.verify", false)
	v.SetDefault("load.summary", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "salesloader")
}

// Default returns the configuration with nothing but defaults applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshalling plain defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	cfg.Source.CSV.SkipBlankRows = cfg.Source.SkipBlankRows
	return &cfg
}

// =============================================================================
// LOADING
// =============================================================================

// Prepare sets up v for Load: defaults, the config file and environment
// lookups. Flags are bound by the caller between Prepare and Load.
//
// PARAMETERS:
//   - v: The viper instance to configure.
//   - configPath: An explicit config file. "" falls back to DefaultFile,
//     which may be absent; an explicit file must exist.
//
// RETURNS:
//   - The config file actually used ("" if none).
//   - An error if a file exists but cannot be read or parsed.
func Prepare(v *viper.Viper, configPath string) (string, error) {
	SetDefaults(v)

	if err := loadDotEnv(".env"); err != nil {
		return "", err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := configPath
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return "", nil
		}
		path = DefaultFile
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return path, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.Source.CSV.SkipBlankRows = cfg.Source.SkipBlankRows

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads a .env file into the process environment. Variables that
// are already set are left alone. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

var (
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validFormats = []string{"text", "json"}
)

// Validate checks the configuration. Every failure wraps ErrInvalid.
func (c *Config) Validate() error {
	var errs []error

	if c.Load.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("load.batch_size must be positive, got %d", c.Load.BatchSize))
	}
	if c.Load.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("load.progress_every must not be negative, got %d", c.Load.ProgressEvery))
	}
	if c.Source.CSV.HeaderRows < 1 {
		errs = append(errs, fmt.Errorf("source.csv.header_rows must be at least 1, got %d", c.Source.CSV.HeaderRows))
	}
	if c.Database.Driver == "" {
		errs = append(errs, errors.New("database.driver is required"))
	}
	if c.Database.Table == "" {
		errs = append(errs, errors.New("database.table is required"))
	}
	if c.Database.DSN == "" && c.Database.Driver != "sqlite" {
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Errorf("database.port out of range: %d", c.Database.Port))
		}
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn (the database file) is required for sqlite"))
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of %v", c.Logging.Level, validLevels))
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Logging.Format)) {
		errs = append(errs, fmt.Errorf("logging.format %q is not one of %v", c.Logging.Format, validFormats))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

const redacted = "********"

// Redacted returns a copy safe to print: the password and any DSN are masked.
func (c Config) Redacted() Config {
	if c.Database.Password != "" {
		c.Database.Password = redacted
	}
	if c.Database.DSN != "" && c.Database.Driver != "sqlite" {
		c.Database.DSN = redacted
	}
	c.Source.Sheets = slices.Clone(c.Source.Sheets)
	return c
}
