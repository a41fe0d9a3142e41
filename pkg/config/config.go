// Package config provides configuration management for todd. Settings come from a YAML
// file, then from TODD_* environment variables, then from command line flags.
package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/fsutil"
	"github.com/glorpus-work/todd/pkg/model"
	"github.com/glorpus-work/todd/pkg/platform"
	"github.com/glorpus-work/todd/pkg/workspace"
)

// EnvPrefix prefixes every environment override, e.g. TODD_ROOT or TODD_HTTP_TIMEOUT.
const EnvPrefix = "todd"

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Install settings
	Root   string `yaml:"root"`
	Repo   string `yaml:"repo"`
	Env    string `yaml:"env"`
	Jobs   int    `yaml:"jobs"`
	Target string `yaml:"target"`

	// Scratch workspace
	BuildDir string `yaml:"build_dir" split_words:"true"`
	FakeRoot string `yaml:"fake_root" split_words:"true"`

	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout" split_words:"true"`
	HTTPRetries int           `yaml:"http_retries" split_words:"true"`

	// Index settings
	TransferOwnership bool `yaml:"transfer_ownership" split_words:"true"`

	LogLevel  string `yaml:"log_level" split_words:"true"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format" split_words:"true"` // text, json
}

// Default configuration values.
const (
	DefaultRoot        = "/"
	DefaultRepo        = "."
	DefaultHTTPTimeout = 10 * time.Minute
	DefaultHTTPRetries = 3
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			Root:        DefaultRoot,
			Repo:        DefaultRepo,
			Jobs:        runtime.NumCPU(),
			Target:      platform.DefaultTarget(model.DefaultTarget),
			BuildDir:    workspace.DefaultBuildDir,
			FakeRoot:    workspace.DefaultFakeRoot,
			HTTPTimeout: DefaultHTTPTimeout,
			HTTPRetries: DefaultHTTPRetries,
			LogLevel:    DefaultLogLevel,
			LogFormat:   DefaultLogFormat,
		},
	}
}

// Load reads the config file at path (defaults when it does not exist), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}
	return cfg, nil
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return config, nil
}

// ApplyEnv overrides settings from TODD_* environment variables. Unset variables leave
// the current value alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, &c.Settings); err != nil {
		return errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	return nil
}

// SaveConfig saves configuration to a file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(absPath, data, fsutil.FileModeDefault)
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var sb strings.Builder
	encoder := yaml.NewEncoder(&sb)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return []byte(sb.String()), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	s := c.Settings

	if s.Root != "" && !filepath.IsAbs(s.Root) {
		return errors.Wrapf(errors.ErrConfigValidation, "root must be an absolute path, got %q", s.Root)
	}
	for name, dir := range map[string]string{"build_dir": s.BuildDir, "fake_root": s.FakeRoot} {
		if dir != "" && !filepath.IsAbs(dir) {
			return errors.Wrapf(errors.ErrConfigValidation, "%s must be an absolute path, got %q", name, dir)
		}
	}
	if s.Target != "" {
		if _, err := platform.ParseTriple(s.Target); err != nil {
			return errors.Wrap(errors.ErrConfigValidation, err.Error())
		}
	}
	if s.Jobs < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "jobs cannot be negative, got %d", s.Jobs)
	}
	if s.HTTPTimeout < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "http_timeout cannot be negative")
	}
	if s.HTTPRetries < 0 {
		return errors.Wrapf(errors.ErrConfigValidation, "http_retries cannot be negative")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q (valid: debug, info, warn, error)", s.LogLevel)
	}
	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log format %q (valid: text, json)", s.LogFormat)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig().Settings

	if c.Settings.Root == "" {
		c.Settings.Root = defaults.Root
	}
	if c.Settings.Repo == "" {
		c.Settings.Repo = defaults.Repo
	}
	if c.Settings.Jobs == 0 {
		c.Settings.Jobs = defaults.Jobs
	}
	if c.Settings.Target == "" {
		c.Settings.Target = defaults.Target
	}
	if c.Settings.BuildDir == "" {
		c.Settings.BuildDir = defaults.BuildDir
	}
	if c.Settings.FakeRoot == "" {
		c.Settings.FakeRoot = defaults.FakeRoot
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.HTTPTimeout
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.LogFormat
	}
}
