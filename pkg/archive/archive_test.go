package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTarGz packs sourceDir into a gzip-compressed tarball at archivePath.
func createTarGz(t *testing.T, sourceDir, archivePath string) {
	t.Helper()
	ctx := context.Background()

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		sourceDir + string(os.PathSeparator): "",
	})
	require.NoError(t, err)

	out, err := os.Create(archivePath)
	require.NoError(t, err)
	defer func() { _ = out.Close() }()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	require.NoError(t, format.Archive(ctx, out, files))
}

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestManager_ExtractAll(t *testing.T) {
	tempDir := t.TempDir()
	testFiles := map[string]string{
		"zlib-1.3.1/configure":      "#!/bin/sh\n",
		"zlib-1.3.1/zlib.h":         "header",
		"zlib-1.3.1/contrib/README": "contrib",
	}
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, testFiles)

	archivePath := filepath.Join(tempDir, "zlib-1.3.1.tar.gz")
	createTarGz(t, sourceDir, archivePath)

	am := NewManager()
	extractDir := filepath.Join(tempDir, "extracted")
	require.NoError(t, am.ExtractAll(context.Background(), archivePath, extractDir))

	for path, expected := range testFiles {
		content, err := os.ReadFile(filepath.Join(extractDir, path))
		require.NoError(t, err, path)
		assert.Equal(t, expected, string(content))
	}
}

func TestManager_IsArchive(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, map[string]string{"a.txt": "a"})

	tarball := filepath.Join(tempDir, "a.tar.gz")
	createTarGz(t, sourceDir, tarball)

	patch := filepath.Join(tempDir, "fix.patch")
	require.NoError(t, os.WriteFile(patch, []byte("--- a\n+++ b\n"), 0o644))

	am := NewManager()

	ok, err := am.IsArchive(context.Background(), tarball)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = am.IsArchive(context.Background(), patch)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = am.IsArchive(context.Background(), filepath.Join(tempDir, "missing.tar"))
	assert.Error(t, err)
}

func TestManager_UnpackAll(t *testing.T) {
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	writeTree(t, sourceDir, map[string]string{"xz-5.4.6/configure": "#!/bin/sh\n"})

	buildDir := filepath.Join(tempDir, "build")
	require.NoError(t, os.MkdirAll(buildDir, 0o755))
	tarball := filepath.Join(buildDir, "xz-5.4.6.tar.gz")
	createTarGz(t, sourceDir, tarball)
	patch := filepath.Join(buildDir, "xz-fix.patch")
	require.NoError(t, os.WriteFile(patch, []byte("diff\n"), 0o644))

	n, err := NewManager().UnpackAll(context.Background(), []string{tarball, patch}, buildDir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, filepath.Join(buildDir, "xz-5.4.6", "configure"))
	assert.FileExists(t, patch)
}
