// Package config resolves clink settings.
//
// Precedence, lowest first:
//
//	defaults
//	YAML file (explicit path, $CLINK_CONFIG, or ./clink.yaml when present)
//	environment (CLINK_*), with a .env file filling unset variables
//	command-line flags (applied by the CLI)
//
// The merged result is validated against the embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource []byte

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "clink.yaml"

// Environment variables.
const (
	EnvConfig      = "CLINK_CONFIG"
	EnvDatabase    = "CLINK_DB"
	EnvBackend     = "CLINK_BACKEND"
	EnvTrace       = "CLINK_TRACE"
	EnvFormat      = "CLINK_FORMAT"
	EnvColor       = "CLINK_COLOR"
	EnvCacheSize   = "CLINK_CACHE_SIZE"
	EnvMetricsFile = "CLINK_METRICS_FILE"
)

// Config holds every setting the CLI reads.
type Config struct {
	Database    string `yaml:"database" json:"database"`
	Backend     string `yaml:"backend" json:"backend"`
	Trace       bool   `yaml:"trace" json:"trace"`
	Format      string `yaml:"format" json:"format"`
	Color       string `yaml:"color" json:"color"`
	CacheSize   int    `yaml:"cache_size" json:"cache_size"`
	MetricsFile string `yaml:"metrics_file" json:"metrics_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:  "db.links",
		Format:    "text",
		Color:     "auto",
		CacheSize: 256,
	}
}

// Loader reads configuration from files and the environment.
type Loader struct {
	// Path is an explicit config file. It must exist when set.
	Path string
	// EnvFile is the dotenv file; ".env" when empty. A missing file is ignored.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load is shorthand for (&Loader{Path: path}).Load().
func Load(path string) (Config, error) {
	return (&Loader{Path: path}).Load()
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (Config, error) {
	cfg := Default()

	env, err := l.environment()
	if err != nil {
		return cfg, err
	}

	path, required := l.Path, l.Path != ""
	if path == "" {
		if p, ok := env(EnvConfig); ok && p != "" {
			path, required = p, true
		} else {
			path = DefaultFile
		}
	}
	if err := readFile(path, required, &cfg); err != nil {
		return cfg, err
	}

	if err := applyEnv(&cfg, env); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// environment returns a lookup over the process environment, falling back
// to the dotenv file.
func (l *Loader) environment() (func(string) (string, bool), error) {
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	envFile := l.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
		dotenv = nil
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

func readFile(path string, required bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, env func(string) (string, bool)) error {
	if v, ok := env(EnvDatabase); ok {
		cfg.Database = v
	}
	if v, ok := env(EnvBackend); ok {
		cfg.Backend = v
	}
	if v, ok := env(EnvTrace); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTrace, err)
		}
		cfg.Trace = b
	}
	if v, ok := env(EnvFormat); ok {
		cfg.Format = v
	}
	if v, ok := env(EnvColor); ok {
		cfg.Color = v
	}
	if v, ok := env(EnvCacheSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheSize, err)
		}
		cfg.CacheSize = n
	}
	if v, ok := env(EnvMetricsFile); ok {
		cfg.MetricsFile = v
	}
	return nil
}

// Validate checks cfg against the #Config schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := def.Unify(ctx.Encode(c))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
