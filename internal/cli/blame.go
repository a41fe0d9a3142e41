package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/todd/pkg/index"
)

// NewBlameCmd creates the blame command.
func NewBlameCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "blame FILE",
		Short: "Show which package installed a file",
		Long: `Look up the installed package that owns FILE.

FILE is made absolute against the current directory before the lookup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlame(cmd, args[0], root)
		},
	}

	addRootFlag(cmd, &root)

	return cmd
}

func runBlame(cmd *cobra.Command, file, rootFlag string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := resolveRoot(cmd, cfg, rootFlag)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", file, err)
	}

	idx, err := index.Read(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if owner, ok := idx.Owner(path); ok {
		_, _ = fmt.Fprintf(out, "Found in package: %s\n", owner)
		return nil
	}
	_, _ = fmt.Fprintln(out, "No such file in file index")
	return nil
}
