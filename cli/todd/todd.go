package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/todd/internal/cli"
)

var (
	configPath string
	verbose    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todd",
		Short: "A minimal package manager for bootstrapping a Linux system",
		Long: `todd builds packages from source into an install root and records which
files each package installed:
- install: fetch, verify, build and install packages pass by pass
- blame: find the package that installed a file
- list, search, cache, config: inspect and manage the installation
- hook: scaffold pre-build and post-build hook scripts`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output, including build logs")

	cli.ConfigPath = &configPath
	cli.Verbose = &verbose

	cmd.AddCommand(
		cli.NewInstallCmd(),
		cli.NewBlameCmd(),
		cli.NewListCmd(),
		cli.NewSearchCmd(),
		cli.NewConfigCmd(),
		cli.NewCacheCmd(),
		cli.NewHookCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
