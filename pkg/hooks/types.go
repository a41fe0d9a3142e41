package hooks

import "context"

// HookType names the point in a build a hook runs at.
type HookType string

// Supported hook types.
const (
	PreBuild  HookType = "pre-build"
	PostBuild HookType = "post-build"
)

// Types lists the hook types in execution order.
var Types = []HookType{PreBuild, PostBuild}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// HookContext contains information passed to hooks.
type HookContext struct {
	PackageName    string
	PackageVersion string
	PassIdx        int
	BuildDir       string
	FakeRoot       string
	InstallRoot    string
	Vars           map[string]interface{}
}

//go:generate mockgen -destination=../orchestrator/mocks/hooks.go -package=mocks . Executor

// Executor runs a hook script file.
type Executor interface {
	Execute(ctx context.Context, hookType HookType, scriptPath string, hc HookContext) error
}
