// Package config defines the configuration model for csvload and loads it
// with viper from, in increasing precedence: built-in defaults, an optional
// config file, CSVLOAD_* environment variables and command-line flags.
//
// Example file (yaml):
//
//	input:
//	  path: data/users.csv
//	  delimiter: ";"
//	table: users
//	load:
//	  batch_size: 5000
//	  max_retries: 5
//	storage:
//	  kind: postgres
//	  dsn: postgres://user@localhost/db
//	  create_table: true
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CSVLOAD_STORAGE_DSN.
const EnvPrefix = "CSVLOAD"

// Config is the complete run configuration.
type Config struct {
	Input     Input      `mapstructure:"input"`
	Table     string     `mapstructure:"table"`
	Inference Inference  `mapstructure:"inference"`
	Load      LoadConfig `mapstructure:"load"`
	Storage   Storage    `mapstructure:"storage"`
	Metrics   Metrics    `mapstructure:"metrics"`
	Log       Log        `mapstructure:"log"`

	// DryRun infers and prints the schema and DDL without touching storage.
	DryRun bool `mapstructure:"dry_run"`
}

// Input describes the delimited source file.
type Input struct {
	Path string `mapstructure:"path"`

	// Delimiter is ",", "\t" or "tab", "|", ";" or any other single character.
	Delimiter string `mapstructure:"delimiter"`

	HasHeader bool `mapstructure:"has_header"`

	// NormalizeHeaders rewrites header names to lower snake case ASCII.
	NormalizeHeaders bool `mapstructure:"normalize_headers"`
}

// Inference controls the schema sampling pass.
type Inference struct {
	SampleSize int `mapstructure:"sample_size"`
}

// LoadConfig controls batching and retries.
type LoadConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// Storage selects the destination backend.
type Storage struct {
	// Kind is one of postgres, mysql, mssql, sqlite.
	Kind string `mapstructure:"kind"`
	DSN  string `mapstructure:"dsn"`

	CreateTable bool `mapstructure:"create_table"`
	DropTable   bool `mapstructure:"drop_table"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `mapstructure:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	DatadogAddr    string `mapstructure:"datadog_addr"`
	Job            string `mapstructure:"job"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TableName returns Table, or the input file name without its extension.
func (c Config) TableName() string {
	if c.Table != "" {
		return c.Table
	}
	base := filepath.Base(c.Input.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.has_header", true)
	v.SetDefault("input.normalize_headers", false)
	v.SetDefault("inference.sample_size", 1000)
	v.SetDefault("load.batch_size", 10_000)
	v.SetDefault("load.max_retries", 3)
	v.SetDefault("load.initial_backoff", time.Second)
	v.SetDefault("load.max_backoff", 60*time.Second)
	v.SetDefault("storage.kind", "postgres")
	v.SetDefault("storage.create_table", false)
	v.SetDefault("storage.drop_table", false)
	v.SetDefault("metrics.backend", "none")
	v.SetDefault("metrics.job", "csvload")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("dry_run", false)
}

// flagKeys maps command-line flags to config keys.
var flagKeys = []struct{ flag, key string }{
	{"input", "input.path"},
	{"delimiter", "input.delimiter"},
	{"has-header", "input.has_header"},
	{"normalize-headers", "input.normalize_headers"},
	{"table", "table"},
	{"sample-size", "inference.sample_size"},
	{"batch-size", "load.batch_size"},
	{"max-retries", "load.max_retries"},
	{"initial-backoff", "load.initial_backoff"},
	{"max-backoff", "load.max_backoff"},
	{"storage", "storage.kind"},
	{"dsn", "storage.dsn"},
	{"create-table", "storage.create_table"},
	{"drop-table", "storage.drop_table"},
	{"metrics", "metrics.backend"},
	{"pushgateway-url", "metrics.pushgateway_url"},
	{"datadog-addr", "metrics.datadog_addr"},
	{"job", "metrics.job"},
	{"log-level", "log.level"},
	{"log-format", "log.format"},
	{"dry-run", "dry_run"},
}

// NewFlagSet declares the command-line flags. Defaults live in SetDefaults,
// so flags only override when set.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "config file (yaml, json or toml)")
	fs.StringP("input", "i", "", "input file (or pass it as the first argument)")
	fs.StringP("delimiter", "d", ",", `field delimiter: ",", "\t"/"tab", "|", ";" or any single character`)
	fs.Bool("has-header", true, "first record holds column names")
	fs.Bool("normalize-headers", false, "rewrite header names to lower snake case ASCII")
	fs.StringP("table", "t", "", "destination table (default: input file name without extension)")
	fs.Int("sample-size", 1000, "rows sampled for schema inference")
	fs.Int("batch-size", 10_000, "rows per batch")
	fs.Int("max-retries", 3, "retries per failed batch")
	fs.Duration("initial-backoff", time.Second, "wait before the first retry")
	fs.Duration("max-backoff", 60*time.Second, "upper bound for the retry wait")
	fs.String("storage", "postgres", "storage backend: postgres, mysql, mssql, sqlite")
	fs.String("dsn", "", "storage connection string")
	fs.Bool("create-table", false, "create the table when it does not exist")
	fs.Bool("drop-table", false, "drop the table before loading")
	fs.String("metrics", "none", "metrics backend: none, pushgateway, datadog")
	fs.String("pushgateway-url", "", "Prometheus Pushgateway URL")
	fs.String("datadog-addr", "", "DogStatsD address")
	fs.String("job", "csvload", "job name for metrics")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-format", "text", "log format: text, json")
	fs.Bool("dry-run", false, "print the inferred schema and DDL without loading")
	return fs
}

// Load parses args and resolves the configuration. A single positional
// argument is taken as the input path when --input is not given.
func Load(args []string) (Config, error) {
	fs := NewFlagSet("csvload")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 1 {
		return Config{}, fmt.Errorf("config: expected at most one input file, got %d arguments", fs.NArg())
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, fk := range flagKeys {
		if err := v.BindPFlag(fk.key, fs.Lookup(fk.flag)); err != nil {
			return Config{}, fmt.Errorf("config: bind flag %s: %w", fk.flag, err)
		}
	}
	if fs.NArg() == 1 && !fs.Changed("input") {
		v.Set("input.path", fs.Arg(0))
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// IsHelp reports whether err came from a help request.
func IsHelp(err error) bool { return errors.Is(err, pflag.ErrHelp) }
