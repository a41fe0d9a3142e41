package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/todd/pkg/index"
	"github.com/glorpus-work/todd/pkg/model"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		root       string
		nameFilter string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Long: `List all packages recorded in the package index of the install root.

Use --name to filter packages by name.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, root, nameFilter)
		},
	}

	addRootFlag(cmd, &root)
	cmd.Flags().StringVar(&nameFilter, "name", "", "Filter packages by name (partial match)")

	return cmd
}

func runList(cmd *cobra.Command, rootFlag, nameFilter string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := resolveRoot(cmd, cfg, rootFlag)
	if err != nil {
		return err
	}

	idx, err := index.Read(root)
	if err != nil {
		return err
	}

	var entries []*model.IndexEntry
	for _, e := range idx.Entries() {
		if nameFilter == "" || strings.Contains(e.Name, nameFilter) {
			entries = append(entries, e)
		}
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No packages installed")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PACKAGE\tVERSION\tPASS\tFILES")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Name, e.Version, passLabel(e.PassIdx), len(e.Files))
	}
	return tw.Flush()
}

func passLabel(pass int) string {
	if pass == model.SinglePass {
		return "-"
	}
	return strconv.Itoa(pass)
}
