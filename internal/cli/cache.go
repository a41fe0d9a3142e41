package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the source cache",
		Long:  "Clean, show information about, and locate the source cache of an install root",
	}

	cmd.PersistentFlags().StringVar(&root, "root", "", "Install root (defaults to config)")

	cmd.AddCommand(
		newCacheCleanCmd(&root),
		newCacheInfoCmd(&root),
		newCacheDirCmd(&root),
	)

	return cmd
}

func newCacheCleanCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Clean the source cache",
		Long:  "Remove every cached source to free up disk space",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := cacheManager(cmd, *root)
			if err != nil {
				return err
			}
			result, err := m.Clean()
			if err != nil {
				return err
			}
			logger.Success("Cache cleaning completed", logger.Fields{
				"files": result.Files,
				"freed": cache.FormatBytes(result.Freed),
			})
			return nil
		},
	}
}

func newCacheInfoCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display the size of the source cache, broken down per package version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := cacheManager(cmd, *root)
			if err != nil {
				return err
			}
			info, err := m.Info()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Cache Directory: %s\n", info.Directory)
			_, _ = fmt.Fprintf(out, "Total Size: %s (%d files)\n", cache.FormatBytes(info.TotalSize), info.Files)
			for _, p := range info.Packages {
				_, _ = fmt.Fprintf(out, "  %s %s: %s (%d files)\n", p.Name, p.Version, cache.FormatBytes(p.Size), p.Files)
			}
			return nil
		},
	}
}

func newCacheDirCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the source cache directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := cacheManager(cmd, *root)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), m.Directory())
			return nil
		},
	}
}

// cacheManager only inspects or removes files, so it needs no fetcher.
func cacheManager(cmd *cobra.Command, rootFlag string) (*cache.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	root, err := resolveRoot(cmd, cfg, rootFlag)
	if err != nil {
		return nil, err
	}
	return cache.ForRoot(root, nil), nil
}
