package hooks

import (
	"context"
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/todd/internal/logger"
)

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	modules *tengo.ModuleMap
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		modules: stdlib.GetModuleMap("fmt", "os", "text", "times", "json"),
	}
}

// Execute runs the hook script at scriptPath with the build context bound as variables.
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, scriptPath string, hc HookContext) error {
	if !hookType.Valid() {
		return ErrUnsupportedHookType(hookType)
	}
	source, err := LoadScript(scriptPath)
	if err != nil {
		return err
	}

	logger.Debug("Running hook", logger.Fields{"type": string(hookType), "script": scriptPath, "package": hc.PackageName})
	return e.run(ctx, hookType, source, hc)
}

func (e *TengoExecutor) run(ctx context.Context, hookType HookType, source []byte, hc HookContext) error {
	script := tengo.NewScript(source)
	script.SetImports(e.modules)

	vars := map[string]interface{}{
		"packageName":    hc.PackageName,
		"packageVersion": hc.PackageVersion,
		"passIdx":        hc.PassIdx,
		"buildDir":       hc.BuildDir,
		"fakeRoot":       hc.FakeRoot,
		"installRoot":    hc.InstallRoot,
		"err":            "",
	}
	for k, v := range hc.Vars {
		vars[k] = v
	}
	for k, v := range vars {
		if err := script.Add(k, v); err != nil {
			return fmt.Errorf("failed to add variable '%s' to script: %w", k, err)
		}
	}

	compiled, err := script.RunContext(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", hookType, ErrHookExecution, err)
	}

	errVar := compiled.Get("err")
	if errVar == nil {
		return nil
	}
	switch v := errVar.Value().(type) {
	case nil:
		return nil
	case error:
		return fmt.Errorf("%s: %w: %w", hookType, ErrHookScript, v)
	case string:
		if v != "" {
			return fmt.Errorf("%s: %w: %s", hookType, ErrHookScript, v)
		}
	case bool:
		if v {
			return fmt.Errorf("%s: %w", hookType, ErrHookScript)
		}
	}
	return nil
}
