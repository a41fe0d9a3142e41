package hooks

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/todd/pkg/errors"
)

// HookFileExtension is the extension of hook scripts.
const HookFileExtension = ".tengo"

// LoadScript reads a hook script from disk.
func LoadScript(path string) ([]byte, error) {
	if ext := filepath.Ext(path); ext != HookFileExtension {
		return nil, errors.Wrapf(ErrHookLoad, "%s: unsupported hook file extension %q", path, ext)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrHookLoad, "error reading hook file %s: %v", path, err)
	}
	return content, nil
}

// HookTemplate generates a template for a hook script.
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PreBuild:
		return `// Pre-build hook
// Runs after the sources are staged in the build directory, before the build script.
// Available variables:
// - packageName, packageVersion: string
// - passIdx: int, -1 for single-pass packages
// - buildDir, fakeRoot, installRoot: string
// - buildEnv, target: string
// - jobs: int
// Set err to a non-empty string to abort the installation.

/*
fmt := import("fmt")
if passIdx > 0 {
    fmt.println("rebuilding " + packageName)
}
*/`

	case PostBuild:
		return `// Post-build hook
// Runs after the build script, before the fake root is copied into the install root.
// Available variables: same as pre-build hooks

/*
os := import("os")
if is_error(os.stat(fakeRoot + "/usr/bin")) {
    err = "build produced no binaries"
}
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
