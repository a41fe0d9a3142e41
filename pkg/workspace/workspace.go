// Package workspace manages the scratch build directory and the fake root a build installs into.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/fsutil"
)

// Default scratch locations.
const (
	DefaultBuildDir = "/tmp/todd_linux_build"
	DefaultFakeRoot = "/tmp/todd_linux_fake_root"
)

// Workspace is a pair of scratch directories reset before every build.
type Workspace struct {
	buildDir string
	fakeRoot string
}

// New creates a workspace. Empty arguments select the default locations.
func New(buildDir, fakeRoot string) *Workspace {
	if buildDir == "" {
		buildDir = DefaultBuildDir
	}
	if fakeRoot == "" {
		fakeRoot = DefaultFakeRoot
	}
	return &Workspace{buildDir: buildDir, fakeRoot: fakeRoot}
}

// BuildDir returns the directory sources are staged and compiled in.
func (w *Workspace) BuildDir() string { return w.buildDir }

// FakeRoot returns the directory a build installs its outputs into.
func (w *Workspace) FakeRoot() string { return w.fakeRoot }

// Prepare removes any previous contents and recreates both directories empty.
func (w *Workspace) Prepare() error {
	for _, dir := range []string{w.buildDir, w.fakeRoot} {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("workspace directory must be absolute: %s: %w", dir, errors.ErrInvalidPath)
		}
		if err := fsutil.ResetDir(dir); err != nil {
			return errors.Wrapf(err, "failed to reset %s", dir)
		}
	}
	return nil
}

// Manifest lists every file and symlink under the fake root as an absolute path
// relative to the install root, sorted. Entries Install cannot place fail the manifest.
func (w *Workspace) Manifest() ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, w.fakeRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !fsutil.Placeable(d.Type()) {
			return fmt.Errorf("%s (%s): %w", path, d.Type(), fsutil.ErrUnsupportedFileType)
		}
		rel, err := filepath.Rel(w.fakeRoot, path)
		if err != nil {
			return err
		}
		mu.Lock()
		files = append(files, "/"+filepath.ToSlash(rel))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to enumerate %s", w.fakeRoot)
	}

	slices.Sort(files)
	return files, nil
}

// Install overlays the fake root onto root.
func (w *Workspace) Install(root string) error {
	if _, err := os.Stat(root); err != nil {
		return errors.Wrapf(err, "install root %s", root)
	}
	if err := fsutil.CopyTree(w.fakeRoot, root); err != nil {
		return errors.Wrapf(err, "failed to install into %s", root)
	}
	return nil
}
