package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath  string
	TestPath     string
	ScriptSuffix string

	// Output settings
	OutputJSONFile string
	OutputJSONDir  string

	// Execution settings
	DefaultTimeout  time.Duration
	PromoteFailures bool
	Variables       map[string]string

	// HistoryDSN points at the MySQL run history; empty disables it
	HistoryDSN string

	// Definition is the loaded suite definition, if any
	Definition *Definition

	// Paths to ignore when scanning
	PathsToIgnore []string

	// Command flags
	Flags Flags
}

// Flags holds command-line flags
type Flags struct {
	ProjectPath    string
	TestPath       string
	NameFilter     string
	TestCases      bool
	FailFast       bool
	OnlyFailed     bool
	OpenFailures   bool
	Verbose        bool
	ShardIndex     int
	ShardCount     int
	JUnitPath      string
	HistoryDSN     string
	HistoryLimit   int
	Timeout        time.Duration
	DefinitionPath string
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		TestPath:       DefaultTestPath,
		ScriptSuffix:   DefaultScriptSuffix,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		DefaultTimeout: DefaultTimeout,
		Variables:      map[string]string{},
		Flags:          Flags{ShardCount: 1, HistoryLimit: DefaultHistoryLimit},
	}
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load creates a config from defaults, the project .env file, the suite
// definition and finally the flags, each overriding the previous
func Load(flags Flags) (*Config, error) {
	cfg := New()
	cfg.Flags = flags
	if flags.ProjectPath != "" {
		cfg.ProjectPath = flags.ProjectPath
	}
	if cfg.Flags.ShardCount == 0 {
		cfg.Flags.ShardCount = 1
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.loadDefinition(); err != nil {
		return nil, err
	}

	if flags.Timeout > 0 {
		cfg.DefaultTimeout = flags.Timeout
	}
	if flags.HistoryDSN != "" {
		cfg.HistoryDSN = flags.HistoryDSN
	}

	return cfg, nil
}

// loadEnv reads the project .env file, without overriding variables already
// set in the process
func (c *Config) loadEnv() error {
	envFile := filepath.Join(c.ProjectPath, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	if value := os.Getenv(EnvTimeout); value != "" {
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil || ms < 0 {
			return fmt.Errorf("invalid %s %q: expected milliseconds", EnvTimeout, value)
		}
		c.DefaultTimeout = time.Duration(ms) * time.Millisecond
	}
	if value := os.Getenv(EnvPromoteFailures); value != "" {
		promote, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPromoteFailures, value, err)
		}
		c.PromoteFailures = promote
	}
	c.HistoryDSN = os.Getenv(EnvHistoryDSN)

	return nil
}

// loadDefinition applies the suite definition. An explicit definition path
// must exist; the default one is optional.
func (c *Config) loadDefinition() error {
	path := c.Flags.DefinitionPath
	explicit := path != ""
	if !explicit {
		path = filepath.Join(c.ProjectPath, DefaultDefinitionFile)
	}

	def, err := LoadDefinition(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	c.Definition = def
	if def.TestPath != "" {
		c.TestPath = def.TestPath
	}
	if def.TimeoutMillis > 0 {
		c.DefaultTimeout = time.Duration(def.TimeoutMillis) * time.Millisecond
	}
	if def.PromoteFailures {
		c.PromoteFailures = true
	}
	if def.StopOnFailure {
		c.Flags.FailFast = true
	}
	if c.Flags.NameFilter == "" {
		c.Flags.NameFilter = def.Filter
	}
	c.PathsToIgnore = append(c.PathsToIgnore, def.Exclude...)
	for name, value := range def.VariableMap() {
		c.Variables[name] = value
	}

	return nil
}

// GetTestPath returns the test path, using flag if provided
func (c *Config) GetTestPath() string {
	if c.Flags.TestPath != "" {
		if filepath.IsAbs(c.Flags.TestPath) {
			return c.Flags.TestPath
		}
		return filepath.Join(c.ProjectPath, c.Flags.TestPath)
	}
	if filepath.IsAbs(c.TestPath) {
		return c.TestPath
	}
	return filepath.Join(c.ProjectPath, c.TestPath)
}

// GetOutputPath returns the absolute path of the JSON results file, so run
// and failures agree regardless of the working directory
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetJUnitPath returns where the JUnit report is written, or "" when disabled
func (c *Config) GetJUnitPath() string {
	if c.Flags.JUnitPath == "" || filepath.IsAbs(c.Flags.JUnitPath) {
		return c.Flags.JUnitPath
	}
	return filepath.Join(c.ProjectPath, c.Flags.JUnitPath)
}

// SuiteTitle names the run in reports
func (c *Config) SuiteTitle() string {
	if c.Definition != nil && c.Definition.Name != "" {
		return c.Definition.Name
	}
	return "scriptunit"
}
