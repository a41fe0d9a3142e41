//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . SourceCache,Unpacker

package orchestrator

import (
	"context"

	"github.com/glorpus-work/todd/pkg/builder"
	"github.com/glorpus-work/todd/pkg/hooks"
	"github.com/glorpus-work/todd/pkg/index"
	"github.com/glorpus-work/todd/pkg/model"
	"github.com/glorpus-work/todd/pkg/workspace"
)

// Catalog is the subset of the package catalog used by the orchestrator.
type Catalog interface {
	Get(id model.Ident) (*model.Package, bool)
}

// SourceCache is the subset of the source cache used by the orchestrator.
type SourceCache interface {
	IsCached(pkg *model.Package) bool
	FetchAll(ctx context.Context, pkg *model.Package) error
	CopyTo(pkg *model.Package, dir string) error
}

// Unpacker extracts staged source archives.
type Unpacker interface {
	UnpackAll(ctx context.Context, files []string, destDir string) (int, error)
}

// Orchestrator ties the catalog, source cache, builder and index together for installs.
type Orchestrator struct {
	Catalog   Catalog
	Index     *index.Index
	Cache     SourceCache
	Workspace *workspace.Workspace
	Builder   builder.Builder
	HookExec  hooks.Executor
	Unpacker  Unpacker
	Hooks     Hooks // Hooks for progress and event notifications
}

// Event phases.
const (
	PhaseResolving  = "resolving"
	PhasePreparing  = "preparing"
	PhaseFetching   = "fetching"
	PhaseBuilding   = "building"
	PhaseInstalling = "installing"
	PhaseSkipped    = "skipped"
	PhaseDone       = "done"
	PhaseError      = "error"
)

// Event represents a simple progress notification.
type Event struct {
	Phase string
	ID    string // package identifier, name:pass
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// InstallOptions control orchestrator install execution.
type InstallOptions struct {
	Env     string
	Root    string
	Target  string
	Jobs    int
	Verbose bool
	DryRun  bool
}

// Result lists what a batch did before it finished or aborted.
type Result struct {
	Installed []model.Ident
	Skipped   []model.Ident
}
