// Package orchestrator installs catalog packages into an install root one pass at a time.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-version"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/archive"
	"github.com/glorpus-work/todd/pkg/builder"
	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/hooks"
	"github.com/glorpus-work/todd/pkg/index"
	"github.com/glorpus-work/todd/pkg/model"
	"github.com/glorpus-work/todd/pkg/workspace"
)

// New creates an orchestrator with the default hook executor and unpacker.
func New(cat Catalog, idx *index.Index, cache SourceCache, ws *workspace.Workspace, b builder.Builder) *Orchestrator {
	return &Orchestrator{
		Catalog:   cat,
		Index:     idx,
		Cache:     cache,
		Workspace: ws,
		Builder:   b,
		HookExec:  hooks.NewTengoExecutor(),
		Unpacker:  archive.NewManager(),
	}
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// action is what the pass pre-condition decided for one identifier.
type action int

const (
	actionAdd action = iota
	actionAugment
	actionSkip
)

// Install processes ids strictly in order and stops at the first failure. Packages committed
// before a failure stay installed; the returned Result reports them.
func (o *Orchestrator) Install(ctx context.Context, ids []model.Ident, opts InstallOptions) (*Result, error) {
	if err := o.validate(opts); err != nil {
		return nil, err
	}

	idx := o.Index
	if opts.DryRun {
		idx = o.Index.Clone()
	}

	res := &Result{}
	for _, id := range ids {
		act, err := o.installOne(ctx, idx, id, opts)
		if err != nil {
			emit(o.Hooks, Event{Phase: PhaseError, ID: id.String(), Msg: err.Error()})
			return res, err
		}
		if act == actionSkip {
			res.Skipped = append(res.Skipped, id)
		} else {
			res.Installed = append(res.Installed, id)
		}
	}

	msg := ""
	if opts.DryRun {
		msg = "dry-run"
	}
	emit(o.Hooks, Event{Phase: PhaseDone, Msg: msg})
	return res, nil
}

func (o *Orchestrator) validate(opts InstallOptions) error {
	switch {
	case o.Catalog == nil:
		return fmt.Errorf("catalog is not configured")
	case o.Index == nil:
		return fmt.Errorf("package index is not configured")
	case opts.DryRun:
		return nil
	case o.Cache == nil:
		return fmt.Errorf("source cache is not configured")
	case o.Workspace == nil:
		return fmt.Errorf("workspace is not configured")
	case o.Builder == nil:
		return fmt.Errorf("builder is not configured")
	case !filepath.IsAbs(opts.Root):
		return fmt.Errorf("install root must be absolute: %q: %w", opts.Root, errors.ErrInvalidPath)
	}
	return nil
}

func (o *Orchestrator) installOne(ctx context.Context, idx *index.Index, id model.Ident, opts InstallOptions) (action, error) {
	emit(o.Hooks, Event{Phase: PhaseResolving, ID: id.String()})
	pkg, ok := o.Catalog.Get(id)
	if !ok {
		return 0, fmt.Errorf("package %s: %w", id, errors.ErrNotFound)
	}
	if pkg.Env != opts.Env {
		return 0, fmt.Errorf("package %s targets environment %q, not %q: %w", id, pkg.Env, opts.Env, errors.ErrEnvironmentMismatch)
	}

	act, err := checkPass(idx, pkg)
	if err != nil {
		return 0, err
	}
	if act == actionSkip {
		emit(o.Hooks, Event{Phase: PhaseSkipped, ID: id.String(), Msg: "already installed"})
		return act, nil
	}
	if act == actionAugment {
		warnVersionDrift(idx, pkg)
	}

	if opts.DryRun {
		return act, commit(idx, pkg, act, nil)
	}

	emit(o.Hooks, Event{Phase: PhasePreparing, ID: id.String(), Msg: fmt.Sprintf("preparing %s for pass %d", pkg.Name, pkg.PassIdx)})
	if err := o.Workspace.Prepare(); err != nil {
		return 0, err
	}
	if err := o.stageSources(ctx, pkg); err != nil {
		return 0, err
	}

	emit(o.Hooks, Event{Phase: PhaseBuilding, ID: id.String(), Msg: fmt.Sprintf("building %s %s", pkg.Name, pkg.Version)})
	if err := o.build(ctx, pkg, opts); err != nil {
		return 0, err
	}

	emit(o.Hooks, Event{Phase: PhaseInstalling, ID: id.String(), Msg: fmt.Sprintf("installing %s into %s", pkg.Name, opts.Root)})
	if err := o.install(idx, pkg, act, opts.Root); err != nil {
		return 0, err
	}
	return act, nil
}

// checkPass decides whether pkg is added, augmented or skipped given the index state.
func checkPass(idx *index.Index, pkg *model.Package) (action, error) {
	entry, ok := idx.Get(pkg.Name)
	if !ok {
		if model.FirstPass(pkg.PassIdx) {
			return actionAdd, nil
		}
		return 0, fmt.Errorf("%s pass %d requested but no earlier pass is installed: %w", pkg.Name, pkg.PassIdx, errors.ErrSequencing)
	}

	switch {
	case entry.PassIdx >= pkg.PassIdx:
		return actionSkip, nil
	case entry.PassIdx < pkg.PassIdx-1:
		return 0, fmt.Errorf("%s pass %d requested but only pass %d is installed: %w",
			pkg.Name, pkg.PassIdx, entry.PassIdx, errors.ErrSequencing)
	default:
		return actionAugment, nil
	}
}

func warnVersionDrift(idx *index.Index, pkg *model.Package) {
	entry, ok := idx.Get(pkg.Name)
	if !ok || entry.Version == pkg.Version {
		return
	}
	fields := logger.Fields{"package": pkg.Name, "installed": entry.Version, "catalog": pkg.Version}
	installed, err1 := version.NewVersion(entry.Version)
	wanted := pkg.GetVersion()
	if err1 == nil && wanted != nil {
		fields["newer"] = wanted.GreaterThan(installed)
	}
	logger.Warn("Installed version differs from catalog", fields)
}

func (o *Orchestrator) stageSources(ctx context.Context, pkg *model.Package) error {
	id := pkg.Ident().String()
	if !o.Cache.IsCached(pkg) {
		emit(o.Hooks, Event{Phase: PhaseFetching, ID: id, Msg: fmt.Sprintf("fetching %d source(s)", len(pkg.Sources))})
		if err := o.Cache.FetchAll(ctx, pkg); err != nil {
			return err
		}
	}

	buildDir := o.Workspace.BuildDir()
	if err := o.Cache.CopyTo(pkg, buildDir); err != nil {
		return err
	}

	if pkg.Unpack && o.Unpacker != nil {
		staged := make([]string, 0, len(pkg.Sources))
		for _, src := range pkg.Sources {
			staged = append(staged, filepath.Join(buildDir, src.FileName()))
		}
		n, err := o.Unpacker.UnpackAll(ctx, staged, buildDir)
		if err != nil {
			return errors.Wrapf(err, "failed to unpack sources of %s", id)
		}
		logger.Debug("Unpacked sources", logger.Fields{"package": pkg.Name, "archives": n})
	}
	return nil
}

func (o *Orchestrator) build(ctx context.Context, pkg *model.Package, opts InstallOptions) error {
	env := model.BuildEnv{
		Package:     pkg,
		BuildDir:    o.Workspace.BuildDir(),
		FakeRoot:    o.Workspace.FakeRoot(),
		InstallRoot: opts.Root,
		Target:      opts.Target,
		Jobs:        opts.Jobs,
		Verbose:     opts.Verbose,
	}

	if err := o.runHook(ctx, hooks.PreBuild, env); err != nil {
		return err
	}
	if err := o.Builder.Run(ctx, env); err != nil {
		return err
	}
	return o.runHook(ctx, hooks.PostBuild, env)
}

func (o *Orchestrator) runHook(ctx context.Context, hookType hooks.HookType, env model.BuildEnv) error {
	script := env.Package.Hooks[string(hookType)]
	if script == "" || o.HookExec == nil {
		return nil
	}
	target := env.Target
	if target == "" {
		target = model.DefaultTarget
	}
	hc := hooks.HookContext{
		PackageName:    env.Package.Name,
		PackageVersion: env.Package.Version,
		PassIdx:        env.Package.PassIdx,
		BuildDir:       env.BuildDir,
		FakeRoot:       env.FakeRoot,
		InstallRoot:    env.InstallRoot,
		Vars: map[string]interface{}{
			"buildEnv": env.Package.Env,
			"target":   target,
			"jobs":     env.Jobs,
		},
	}
	if err := o.HookExec.Execute(ctx, hookType, script, hc); err != nil {
		return fmt.Errorf("%s hook of %s: %w: %w", hookType, env.Package.Ident(), errors.ErrBuildFailed, err)
	}
	return nil
}

// install enumerates the fake root, overlays it onto root and commits the manifest.
func (o *Orchestrator) install(idx *index.Index, pkg *model.Package, act action, root string) error {
	files, err := o.Workspace.Manifest()
	if err != nil {
		return err
	}

	if conflicts := idx.Conflicts(pkg.Name, files); len(conflicts) > 0 {
		for _, c := range conflicts {
			logger.Debug("File owned by another package", logger.Fields{"path": c.Path, "owner": c.Owner, "package": pkg.Name})
		}
		if err := checkConflicts(idx, pkg, files); err != nil {
			return err
		}
	}

	if err := o.Workspace.Install(root); err != nil {
		return err
	}
	if err := commit(idx, pkg, act, files); err != nil {
		return err
	}
	if err := idx.Persist(); err != nil {
		return err
	}
	logger.Debug("Committed package to index", logger.Fields{"package": pkg.Name, "pass": pkg.PassIdx, "files": len(files)})
	return nil
}

// checkConflicts rejects the install before anything is copied when the index would refuse
// the manifest. A simulation on a copy of the index applies the same ownership policy.
func checkConflicts(idx *index.Index, pkg *model.Package, files []string) error {
	act, err := checkPass(idx, pkg)
	if err != nil {
		return err
	}
	return commit(idx.Clone(), pkg, act, files)
}

func commit(idx *index.Index, pkg *model.Package, act action, files []string) error {
	if act == actionAugment {
		return idx.Augment(pkg.Name, pkg.PassIdx, files)
	}
	return idx.Add(model.NewIndexEntry(pkg.Name, pkg.Version, pkg.PassIdx, files))
}
