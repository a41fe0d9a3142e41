package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/todd/pkg/catalog"
	"github.com/glorpus-work/todd/pkg/index"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	var (
		repo string
		root string
	)

	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search the package catalog",
		Long: `List the packages of the repository catalog whose name contains QUERY.

Every pass is listed on its own line, with the pass already installed in the install root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return runSearch(cmd, query, repo, root)
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository directory containing the package catalog")
	addRootFlag(cmd, &root)

	return cmd
}

func runSearch(cmd *cobra.Command, query, repo, rootFlag string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("repo") {
		cfg.Settings.Repo = repo
	}
	root, err := resolveRoot(cmd, cfg, rootFlag)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Settings.Repo)
	if err != nil {
		return err
	}
	idx, err := index.Read(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	matches := 0
	for _, pkg := range cat.Packages() {
		if !strings.Contains(pkg.Name, query) {
			continue
		}
		if matches == 0 {
			_, _ = fmt.Fprintln(tw, "PACKAGE\tVERSION\tPASS\tENV\tINSTALLED")
		}
		matches++

		installed := "-"
		if entry, ok := idx.Get(pkg.Name); ok {
			installed = entry.Version + " pass " + passLabel(entry.PassIdx)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", pkg.Name, pkg.Version, passLabel(pkg.PassIdx), pkg.Env, installed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if matches == 0 {
		_, _ = fmt.Fprintf(out, "No packages found matching '%s'\n", query)
	}
	return nil
}
