package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.pgdatadiff/pgdatadiff.yaml"

	DefaultChunkSize = 10000
)

// Config is the top-level configuration. Every field has a matching CLI
// flag; flags override file values.
type Config struct {
	Version       int       `yaml:"version"`
	FirstDB       string    `yaml:"firstdb"`
	SecondDB      string    `yaml:"seconddb"`
	Schema        string    `yaml:"schema,omitempty"`
	ChunkSize     int       `yaml:"chunk_size,omitempty"`
	CountOnly     bool      `yaml:"count_only,omitempty"`
	CheckColumns  []string  `yaml:"check_columns,omitempty"`
	OnlyData      bool      `yaml:"only_data,omitempty"`
	OnlySequences bool      `yaml:"only_sequences,omitempty"`
	ReportPath    string    `yaml:"report_path,omitempty"`
	Logging       LogConfig `yaml:"logging,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.pgdatadiff/logs/
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Schema == "" {
		c.Schema = "public"
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.pgdatadiff/logs/")
	}
}

// Validate checks the configuration for a runnable comparison.
func (c *Config) Validate() error {
	if err := ValidateConnString(c.FirstDB); err != nil {
		return fmt.Errorf("firstdb: %w", err)
	}
	if err := ValidateConnString(c.SecondDB); err != nil {
		return fmt.Errorf("seconddb: %w", err)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be a positive integer, got %d", c.ChunkSize)
	}
	if c.OnlyData && c.OnlySequences {
		return fmt.Errorf("--only-data and --only-sequences are mutually exclusive")
	}
	return nil
}

// ValidateConnString performs the basic scheme check. Only PostgreSQL
// databases are supported.
func ValidateConnString(conn string) error {
	if conn == "" {
		return fmt.Errorf("connection string is required")
	}
	if !strings.HasPrefix(conn, "postgres://") && !strings.HasPrefix(conn, "postgresql://") {
		return fmt.Errorf("only PostgreSQL connection strings are supported (postgres:// or postgresql://)")
	}
	return nil
}

var secretPattern = regexp.MustCompile(`\$\{ENV:([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.FirstDB, err = ResolveValue(c.FirstDB)
	if err != nil {
		return fmt.Errorf("firstdb: %w", err)
	}
	c.SecondDB, err = ResolveValue(c.SecondDB)
	if err != nil {
		return fmt.Errorf("seconddb: %w", err)
	}
	return nil
}

// ResolveValue resolves ${ENV:NAME} references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	name := matches[1]
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("environment variable %s not set", name)
	}
	return secretPattern.ReplaceAllString(val, v), nil
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
