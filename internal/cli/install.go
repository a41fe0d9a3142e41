package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/builder"
	"github.com/glorpus-work/todd/pkg/cache"
	"github.com/glorpus-work/todd/pkg/catalog"
	"github.com/glorpus-work/todd/pkg/config"
	"github.com/glorpus-work/todd/pkg/download"
	"github.com/glorpus-work/todd/pkg/index"
	"github.com/glorpus-work/todd/pkg/model"
	"github.com/glorpus-work/todd/pkg/orchestrator"
	"github.com/glorpus-work/todd/pkg/workspace"
)

type installFlags struct {
	repo   string
	env    string
	root   string
	jobs   int
	dryRun bool
}

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "install NAME[:PASS]...",
		Short: "Build and install packages",
		Long: `Build and install packages from the repository, in the order given.

Each argument names a package and, for multi-pass packages, the pass to build.
Installation stops at the first failure; packages installed before it stay installed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.repo, "repo", "", "Repository directory containing the package catalog")
	cmd.Flags().StringVar(&flags.env, "env", "", "Build environment packages must target")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "Parallel make jobs passed to build scripts")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Resolve and check packages without building")
	addRootFlag(cmd, &flags.root)

	return cmd
}

func runInstall(cmd *cobra.Command, args []string, flags installFlags) error {
	ids, err := model.ParseIdents(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyInstallFlags(cmd, cfg, flags)

	root, err := resolveRoot(cmd, cfg, flags.root)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Settings.Repo)
	if err != nil {
		return err
	}
	logger.Debug("Loaded package catalog", logger.Fields{"repo": cat.Dir(), "packages": cat.Len()})

	var idx *index.Index
	if flags.dryRun {
		idx, err = index.Read(root)
	} else {
		lock, lockErr := index.AcquireLock(root)
		if lockErr != nil {
			return lockErr
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("Failed to release index lock", logger.Fields{"path": lock.Path(), "error": err})
			}
		}()
		idx, err = index.Load(root)
	}
	if err != nil {
		return err
	}
	idx.SetTransferOwnership(cfg.Settings.TransferOwnership)

	dl := download.NewManager(cfg.Settings.HTTPTimeout, cfg.Settings.HTTPRetries, "")
	orch := orchestrator.New(
		cat,
		idx,
		cache.ForRoot(root, dl),
		workspace.New(cfg.Settings.BuildDir, cfg.Settings.FakeRoot),
		builder.NewScriptBuilder(),
	)
	orch.Hooks = orchestrator.Hooks{OnEvent: printEvent(cmd.OutOrStdout())}

	opts := orchestrator.InstallOptions{
		Env:     cfg.Settings.Env,
		Root:    root,
		Target:  cfg.Settings.Target,
		Jobs:    cfg.Settings.Jobs,
		Verbose: Verbose != nil && *Verbose,
		DryRun:  flags.dryRun,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := orch.Install(ctx, ids, opts)
	if err != nil {
		fields := logger.Fields{"error": err}
		if res != nil {
			fields["installed"] = identList(res.Installed)
			fields["skipped"] = identList(res.Skipped)
		}
		logger.Error("Installation aborted", fields)
		return fmt.Errorf("failed to install packages: %w", err)
	}

	logger.Success("Installation complete", logger.Fields{
		"installed": len(res.Installed),
		"skipped":   len(res.Skipped),
	})
	return nil
}

func applyInstallFlags(cmd *cobra.Command, cfg *config.Config, flags installFlags) {
	if cmd.Flags().Changed("repo") {
		cfg.Settings.Repo = flags.repo
	}
	if cmd.Flags().Changed("env") {
		cfg.Settings.Env = flags.env
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Settings.Jobs = flags.jobs
	}
}

func printEvent(w io.Writer) func(orchestrator.Event) {
	return func(e orchestrator.Event) {
		switch {
		case e.ID != "" && e.Msg != "":
			_, _ = fmt.Fprintf(w, "%s: %s (%s)\n", e.Phase, e.Msg, e.ID)
		case e.ID != "":
			_, _ = fmt.Fprintf(w, "%s: %s\n", e.Phase, e.ID)
		case e.Msg != "":
			_, _ = fmt.Fprintf(w, "%s: %s\n", e.Phase, e.Msg)
		default:
			_, _ = fmt.Fprintln(w, e.Phase)
		}
	}
}

func identList(ids []model.Ident) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
