package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return dir
}

const lfsCatalog = `{
  "packages": [
    {
      "name": "zlib",
      "version": "1.3",
      "src_urls": [{"url": "https://x/zlib-1.tar.gz", "checksum": "c935d5e4fbb0a5dc6bd6e5a8c5bf5d93a1e3e0e6b9a5f1b8c2d4e6f8a0b2c4d6"}],
      "env": "chroot"
    },
    {
      "name": "gcc",
      "version": "13.2.0",
      "pass_idx": 1,
      "src_urls": [
        {"url": "https://ftp.gnu.org/gnu/gcc/gcc-13.2.0.tar.xz", "checksum": "e0e48554cc6e4f261d55ddee9ab69075"},
        {"url": "https://ftp.gnu.org/gnu/mpfr/mpfr-4.2.0.tar.xz", "checksum": "a25091f337f25830c16d2054d74b5af7"}
      ],
      "env": "chroot",
      "build_script": "gcc-pass1.sh"
    },
    {
      "name": "gcc",
      "version": "13.2.0",
      "pass_idx": 0,
      "src_urls": [],
      "env": "cross",
      "unpack": true,
      "hooks": {"post-build": "hooks/strip.tengo"}
    }
  ]
}`

func TestLoad_JSON(t *testing.T) {
	dir := writeCatalog(t, "packages.json", lfsCatalog)

	cat, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, dir, cat.Dir())

	zlib, ok := cat.Get(model.Ident{Name: "zlib", Pass: model.SinglePass})
	require.True(t, ok, "pass_idx defaults to single pass")
	assert.Equal(t, "1.3", zlib.Version)
	assert.Equal(t, "chroot", zlib.Env)
	assert.Equal(t, filepath.Join(dir, "zlib.sh"), zlib.BuildScript)
	assert.Equal(t, []model.PackageSource{{URL: "https://x/zlib-1.tar.gz", Checksum: "c935d5e4fbb0a5dc6bd6e5a8c5bf5d93a1e3e0e6b9a5f1b8c2d4e6f8a0b2c4d6"}}, zlib.Sources)

	gcc1, ok := cat.Get(model.Ident{Name: "gcc", Pass: 1})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "gcc-pass1.sh"), gcc1.BuildScript)
	require.Len(t, gcc1.Sources, 2)
	assert.Equal(t, "mpfr-4.2.0.tar.xz", gcc1.Sources[1].FileName(), "source order is preserved")

	gcc0, ok := cat.Get(model.Ident{Name: "gcc", Pass: 0})
	require.True(t, ok)
	assert.True(t, gcc0.Unpack)
	assert.Empty(t, gcc0.Sources)
	assert.Equal(t, filepath.Join(dir, "hooks", "strip.tengo"), gcc0.Hooks["post-build"])

	_, ok = cat.Get(model.Ident{Name: "gcc", Pass: 2})
	assert.False(t, ok)
}

func TestLoad_YAML(t *testing.T) {
	dir := writeCatalog(t, "packages.yaml", `
packages:
  - name: binutils
    version: "2.41"
    pass_idx: 0
    env: cross
    src_urls:
      - url: https://ftp.gnu.org/gnu/binutils/binutils-2.41.tar.xz
        checksum: 256d7e0ad998e423030c84483a7c1e30
`)

	cat, err := Load(dir)
	require.NoError(t, err)
	pkg, ok := cat.Get(model.Ident{Name: "binutils", Pass: 0})
	require.True(t, ok)
	assert.Equal(t, "2.41", pkg.Version)
	assert.Equal(t, "binutils-2.41.tar.xz", pkg.Sources[0].FileName())
}

func TestLoad_JSONPreferredOverYAML(t *testing.T) {
	dir := writeCatalog(t, "packages.json", `{"packages": []}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "packages.yaml"), []byte("not: [valid"), 0o644))

	cat, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"packages": [`},
		{"missing name", `{"packages": [{"version": "1", "src_urls": [], "env": "e"}]}`},
		{"missing version", `{"packages": [{"name": "a", "src_urls": [], "env": "e"}]}`},
		{"missing src_urls", `{"packages": [{"name": "a", "version": "1", "env": "e"}]}`},
		{"missing env", `{"packages": [{"name": "a", "version": "1", "src_urls": []}]}`},
		{"source without checksum", `{"packages": [{"name": "a", "version": "1", "env": "e", "src_urls": [{"url": "https://x/a.tgz"}]}]}`},
		{"short checksum", `{"packages": [{"name": "a", "version": "1", "env": "e", "src_urls": [{"url": "https://x/a.tgz", "checksum": "abc123"}]}]}`},
		{"non-hex checksum", `{"packages": [{"name": "a", "version": "1", "env": "e", "src_urls": [{"url": "https://x/a.tgz", "checksum": "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"}]}]}`},
		{"same file name twice", `{"packages": [{"name": "a", "version": "1", "env": "e", "src_urls": [
			{"url": "https://mirror-a/a.tgz", "checksum": "e0e48554cc6e4f261d55ddee9ab69075"},
			{"url": "https://mirror-b/pub/a.tgz?x=1", "checksum": "a25091f337f25830c16d2054d74b5af7"}]}]}`},
		{"url without file name", `{"packages": [{"name": "a", "version": "1", "env": "e", "src_urls": [{"url": "https://x/", "checksum": "e0e48554cc6e4f261d55ddee9ab69075"}]}]}`},
		{"unknown hook", `{"packages": [{"name": "a", "version": "1", "env": "e", "src_urls": [], "hooks": {"post-install": "a.tengo"}}]}`},
		{"invalid pass", `{"packages": [{"name": "a", "version": "1", "env": "e", "src_urls": [], "pass_idx": -3}]}`},
		{"duplicate single pass", `{"packages": [
			{"name": "a", "version": "1", "env": "e", "src_urls": []},
			{"name": "a", "version": "2", "env": "e", "src_urls": [], "pass_idx": -1}]}`},
		{"duplicate pass", `{"packages": [
			{"name": "a", "version": "1", "env": "e", "src_urls": [], "pass_idx": 0},
			{"name": "a", "version": "1", "env": "f", "src_urls": [], "pass_idx": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCatalog(t, "packages.json", tt.content)
			_, err := Load(dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrCatalog)
		})
	}
}

func TestLoad_NoCatalog(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, errors.ErrCatalog)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse(t.TempDir(), ".toml", []byte(""))
	assert.ErrorIs(t, err, errors.ErrCatalog)
}

func TestPackages_Sorted(t *testing.T) {
	dir := writeCatalog(t, "packages.json", lfsCatalog)
	cat, err := Load(dir)
	require.NoError(t, err)

	var ids []model.Ident
	for _, p := range cat.Packages() {
		ids = append(ids, p.Ident())
	}
	assert.Equal(t, []model.Ident{
		{Name: "gcc", Pass: 0},
		{Name: "gcc", Pass: 1},
		{Name: "zlib", Pass: model.SinglePass},
	}, ids)
}
