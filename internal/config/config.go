package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"

	SinkFile     = "file"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// InputConfig describes where the category trees come from
type InputConfig struct {
	Path                 string   `mapstructure:"path"`     // dataset root given on the command line
	DataDir              string   `mapstructure:"data_dir"` // directory under Path holding one tree per file
	Pattern              string   `mapstructure:"pattern"`
	URLs                 []string `mapstructure:"urls"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
}

// OutputConfig describes where the consolidated dataset goes
type OutputConfig struct {
	Dir    string   `mapstructure:"dir"`
	Format string   `mapstructure:"format"` // json or jsonl
	Sinks  []string `mapstructure:"sinks"`  // file, postgres, redis
}

// PipelineConfig controls how input units are processed
type PipelineConfig struct {
	Workers int  `mapstructure:"workers"`
	Strict  bool `mapstructure:"strict"` // abort the run on the first failing unit
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	Debug bool   `mapstructure:"debug"`
}

// MetricsConfig holds the prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Table    string `mapstructure:"table"`
}

// DSN returns the connection string for pgx
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// Addr returns host:port for the redis client
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads .env, an optional config.yaml, CONSOLIDATE_* environment
// variables and the command line, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()
	return load(afero.NewOsFs(), args)
}

func load(fs afero.Fs, args []string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	setDefaults(v)

	flags := NewFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 1 {
		return nil, fmt.Errorf("expected a single data path, got %d arguments", flags.NArg())
	}
	if flags.NArg() == 1 {
		v.Set("input.path", flags.Arg(0))
	}

	for key, name := range map[string]string{
		"log.debug":        "debug",
		"output.dir":       "output",
		"output.format":    "format",
		"pipeline.workers": "workers",
		"pipeline.strict":  "strict",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	v.SetEnvPrefix("consolidate")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	configFile, _ := flags.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.Output.Dir == "" {
		config.Output.Dir = defaultOutputDir(config.Input.Path)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings that have no usable fallback
func (c *Config) Validate() error {
	if c.Input.Path == "" && len(c.Input.URLs) == 0 {
		return errors.New("no input: pass a data path or configure input.urls")
	}
	if c.Output.Format != FormatJSON && c.Output.Format != FormatJSONL {
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	for _, sink := range c.Output.Sinks {
		switch sink {
		case SinkFile, SinkPostgres, SinkRedis:
		default:
			return fmt.Errorf("unknown sink %q", sink)
		}
	}
	return nil
}

func defaultOutputDir(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if path == "" || base == "." || base == string(filepath.Separator) {
		return "prepared-dataset"
	}
	return "prepared-" + base
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", "")
	v.SetDefault("input.data_dir", "data")
	v.SetDefault("input.pattern", "*.json")
	v.SetDefault("input.urls", []string{})
	v.SetDefault("input.timeout", 30)
	v.SetDefault("input.max_requests_per_second", 5)

	v.SetDefault("output.dir", "")
	v.SetDefault("output.format", FormatJSON)
	v.SetDefault("output.sinks", []string{SinkFile})

	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("pipeline.strict", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.debug", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", "9090")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "catalog")
	v.SetDefault("database.user", "catalog_user")
	v.SetDefault("database.password", "catalog_pass")
	v.SetDefault("database.table", "catalog_records")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.stream", "catalog:stream:records")
	v.SetDefault("redis.max_len", 0)
}

// NewFlagSet declares the command line of the consolidator
func NewFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("consolidate", pflag.ContinueOnError)
	flags.BoolP("debug", "d", false, "Debugging messages")
	flags.StringP("config", "c", "", "Path to a config file (default ./config.yaml if present)")
	flags.StringP("output", "o", "", "Output dataset directory (default prepared-<data dir name>)")
	flags.StringP("format", "f", FormatJSON, "Output format: json or jsonl")
	flags.IntP("workers", "w", 1, "Number of input files walked concurrently")
	flags.Bool("strict", true, "Abort on the first input file that fails")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: consolidate [flags] path_to_data\n\n%s\n\nFlags:\n", documentation)
		flags.PrintDefaults()
	}
	return flags
}

const documentation = `Consolidate per-category product trees into a single flat dataset.

The data path must contain a data/ directory of JSON files. Each file maps one
category id (e.g. 976759_976794_7981173) to pages ("1", "2", ...) of products
keyed by product id. Products are tagged with their category id, their
shortDescription is stripped of HTML, missing keys are filled with null and
nested objects are flattened into underscore-joined columns.`
