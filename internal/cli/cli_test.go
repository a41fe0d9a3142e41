package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/fsutil"
	"github.com/glorpus-work/todd/pkg/hooks"
	"github.com/glorpus-work/todd/pkg/index"
	"github.com/glorpus-work/todd/test/testutil"
)

const zlibTarball = "zlib source tarball"

const zlibScript = `#!/bin/sh
set -e
mkdir -p "$TODD_FAKE_ROOT_DIR/usr/lib" "$TODD_FAKE_ROOT_DIR/usr/include"
cp "$TODD_BUILD_DIR/zlib-1.3.1.tar.gz" "$TODD_FAKE_ROOT_DIR/usr/lib/libz.so"
echo "$TODD_PACKAGE $TODD_VERSION" > "$TODD_FAKE_ROOT_DIR/usr/include/zlib.h"
`

type testEnv struct {
	srv     *testutil.SourceServer
	dir     string
	root    string
	repo    string
	cfgPath string
}

// newTestEnv serves one source over HTTP and writes a catalog and config pointing at it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.SetTestOutput(io.Discard)
	t.Cleanup(logger.UnsetTestOutput)

	srv := testutil.NewSourceServer(t, map[string]string{"zlib-1.3.1.tar.gz": zlibTarball})

	dir := t.TempDir()
	env := &testEnv{
		srv:     srv,
		dir:     dir,
		root:    filepath.Join(dir, "root"),
		repo:    filepath.Join(dir, "repo"),
		cfgPath: filepath.Join(dir, "config.yaml"),
	}
	require.NoError(t, os.MkdirAll(env.repo, 0o755))

	catalog := fmt.Sprintf(`{"packages": [
  {"name": "zlib", "version": "1.3.1", "env": "chroot",
   "src_urls": [{"url": %q, "checksum": %q}]}
]}`, srv.SourceURL("zlib-1.3.1.tar.gz"), testutil.SHA256(zlibTarball))
	require.NoError(t, os.WriteFile(filepath.Join(env.repo, "packages.json"), []byte(catalog), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(env.repo, "zlib.sh"), []byte(zlibScript), 0o755))

	cfg := fmt.Sprintf(`settings:
  root: %s
  repo: %s
  env: chroot
  jobs: 2
  build_dir: %s
  fake_root: %s
  http_retries: 0
  log_level: error
`, env.root, env.repo, filepath.Join(dir, "build"), filepath.Join(dir, "fake_root"))
	require.NoError(t, os.WriteFile(env.cfgPath, []byte(cfg), 0o644))

	verbose := false
	ConfigPath = &env.cfgPath
	Verbose = &verbose
	t.Cleanup(func() {
		ConfigPath = nil
		Verbose = nil
	})
	return env
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInstallThenBlame(t *testing.T) {
	env := newTestEnv(t)

	out, err := run(t, NewInstallCmd(), "zlib")
	require.NoError(t, err)
	assert.Contains(t, out, "preparing zlib for pass -1")
	assert.Contains(t, out, "done")

	data, err := os.ReadFile(filepath.Join(env.root, "usr/lib/libz.so"))
	require.NoError(t, err)
	assert.Equal(t, zlibTarball, string(data))

	idx, err := index.Read(env.root)
	require.NoError(t, err)
	entry, ok := idx.Get("zlib")
	require.True(t, ok)
	assert.Equal(t, []string{"/usr/include/zlib.h", "/usr/lib/libz.so"}, entry.SortedFiles())

	out, err = run(t, NewBlameCmd(), "/usr/lib/libz.so")
	require.NoError(t, err)
	assert.Equal(t, "Found in package: zlib\n", out)

	out, err = run(t, NewBlameCmd(), "/usr/lib/libbz2.so")
	require.NoError(t, err)
	assert.Equal(t, "No such file in file index\n", out)

	out, err = run(t, NewListCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "zlib")
	assert.Contains(t, out, "1.3.1")

	out, err = run(t, NewInstallCmd(), "zlib")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped: already installed (zlib)")
	assert.Equal(t, 1, env.srv.Hits("zlib-1.3.1.tar.gz"))
}

func TestInstall_FlagsOverrideConfig(t *testing.T) {
	env := newTestEnv(t)

	_, err := run(t, NewInstallCmd(), "--env", "host", "zlib")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEnvironmentMismatch)

	other := filepath.Join(env.dir, "other-root")
	_, err = run(t, NewInstallCmd(), "--root", other, "zlib")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(other, "usr/lib/libz.so"))
	assert.NoFileExists(t, filepath.Join(env.root, "usr/lib/libz.so"))
}

func TestInstall_DryRunLeavesRootUntouched(t *testing.T) {
	env := newTestEnv(t)

	out, err := run(t, NewInstallCmd(), "--dry-run", "zlib")
	require.NoError(t, err)
	assert.Contains(t, out, "done: dry-run")

	_, err = os.Stat(fsutil.IndexFile(env.root))
	assert.True(t, os.IsNotExist(err))
	assert.NoDirExists(t, fsutil.CacheDir(env.root))
}

func TestInstall_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "unknown package", args: []string{"bzip2"}, wantErr: errors.ErrNotFound},
		{name: "unknown pass", args: []string{"zlib:2"}, wantErr: errors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestEnv(t)
			_, err := run(t, NewInstallCmd(), tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("invalid identifier", func(t *testing.T) {
		newTestEnv(t)
		_, err := run(t, NewInstallCmd(), "zlib:x")
		assert.Error(t, err)
	})
}

func TestInstall_AbortLogsJSON(t *testing.T) {
	env := newTestEnv(t)
	f, err := os.OpenFile(env.cfgPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("  log_format: json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var logs bytes.Buffer
	logger.SetTestOutput(&logs)

	_, err = run(t, NewInstallCmd(), "bzip2")
	require.Error(t, err)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "Installation aborted", record["msg"])
	assert.Contains(t, record["error"], "bzip2")
}

func TestInstall_Locked(t *testing.T) {
	env := newTestEnv(t)

	lock, err := index.AcquireLock(env.root)
	require.NoError(t, err)
	defer func() { _ = lock.Unlock() }()

	_, err = run(t, NewInstallCmd(), "zlib")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLocked)
}

func TestList_Empty(t *testing.T) {
	newTestEnv(t)

	out, err := run(t, NewListCmd())
	require.NoError(t, err)
	assert.Equal(t, "No packages installed\n", out)
}

func TestSearch(t *testing.T) {
	newTestEnv(t)

	out, err := run(t, NewSearchCmd(), "zl")
	require.NoError(t, err)
	assert.Contains(t, out, "zlib")
	assert.Contains(t, out, "chroot")

	_, err = run(t, NewInstallCmd(), "zlib")
	require.NoError(t, err)
	out, err = run(t, NewSearchCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "1.3.1 pass -")

	out, err = run(t, NewSearchCmd(), "bzip2")
	require.NoError(t, err)
	assert.Equal(t, "No packages found matching 'bzip2'\n", out)
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)
	_, err := run(t, NewInstallCmd(), "zlib")
	require.NoError(t, err)

	out, err := run(t, NewCacheCmd(), "dir")
	require.NoError(t, err)
	assert.Equal(t, fsutil.CacheDir(env.root)+"\n", out)

	out, err = run(t, NewCacheCmd(), "info")
	require.NoError(t, err)
	assert.Contains(t, out, "zlib 1.3.1")
	assert.Contains(t, out, "(1 files)")

	_, err = run(t, NewCacheCmd(), "clean")
	require.NoError(t, err)
	assert.NoDirExists(t, fsutil.CacheDir(env.root))
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)

	out, err := run(t, NewConfigCmd(), "get", "env")
	require.NoError(t, err)
	assert.Equal(t, "chroot\n", out)

	_, err = run(t, NewConfigCmd(), "set", "jobs", "8")
	require.NoError(t, err)
	out, err = run(t, NewConfigCmd(), "get", "jobs")
	require.NoError(t, err)
	assert.Equal(t, "8\n", out)

	_, err = run(t, NewConfigCmd(), "set", "jobs", "many")
	assert.Error(t, err)
	_, err = run(t, NewConfigCmd(), "get", "nope")
	assert.Error(t, err)

	out, err = run(t, NewConfigCmd(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "build_dir")
	assert.Contains(t, out, env.repo)

	_, err = run(t, NewConfigCmd(), "init")
	assert.ErrorIs(t, err, errors.ErrConfigFileExists)
	_, err = run(t, NewConfigCmd(), "init", "--force")
	require.NoError(t, err)
	out, err = run(t, NewConfigCmd(), "get", "root")
	require.NoError(t, err)
	assert.Equal(t, "/\n", out)
}

func TestHookTemplateCmd(t *testing.T) {
	out, err := run(t, NewHookCmd(), "template", "pre-build")
	require.NoError(t, err)
	assert.Contains(t, out, "// Pre-build hook")

	_, err = run(t, NewHookCmd(), "template", "post-install")
	assert.ErrorIs(t, err, hooks.ErrHookExecution)

	dir := t.TempDir()
	_, err = run(t, NewHookCmd(), "template", "post-build", "--output", filepath.Join(dir, "post.txt"))
	assert.ErrorIs(t, err, errors.ErrInvalidPath)

	logger.SetTestOutput(io.Discard)
	t.Cleanup(logger.UnsetTestOutput)
	path := filepath.Join(dir, "post.tengo")
	_, err = run(t, NewHookCmd(), "template", "post-build", "--output", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, hooks.HookTemplate(hooks.PostBuild)+"\n", string(data))

	_, err = run(t, NewHookCmd(), "template", "post-build", "--output", path)
	assert.ErrorIs(t, err, os.ErrExist)
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, NewVersionCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "todd version "+Version)
}
