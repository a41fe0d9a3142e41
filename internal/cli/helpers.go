package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/config"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
)

func getConfigPath() (string, error) {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath, nil
	}
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get default config path: %w", err)
	}
	return path, nil
}

// loadConfig reads the config file and TODD_* overrides, then sets up logging from the result.
func loadConfig() (*config.Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	initLogging(cfg)
	return cfg, nil
}

func initLogging(cfg *config.Config) {
	level := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	logger.InitLogger(level, logger.ParseFormat(cfg.Settings.LogFormat))
}

// addRootFlag registers --root; resolveRoot applies it on top of the configured root.
func addRootFlag(cmd *cobra.Command, root *string) {
	cmd.Flags().StringVar(root, "root", "", "Install root (defaults to config)")
}

func resolveRoot(cmd *cobra.Command, cfg *config.Config, root string) (string, error) {
	if cmd.Flags().Changed("root") {
		cfg.Settings.Root = root
	}
	abs, err := filepath.Abs(cfg.Settings.Root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve install root %q: %w", cfg.Settings.Root, err)
	}
	return abs, nil
}
