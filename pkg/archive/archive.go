// Package archive unpacks source archives into a build directory.
package archive

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mholt/archives"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/fsutil"
)

// Manager handles archive extraction.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// IsArchive reports whether path holds a format that can be extracted, such as a
// plain or compressed tarball or a zip file. A bare compressed file is not an archive.
func (am *Manager) IsArchive(ctx context.Context, path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	format, _, err := archives.Identify(ctx, filepath.Base(path), f)
	if goerrors.Is(err, archives.NoMatch) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to identify %s: %w", path, err)
	}
	_, ok := format.(archives.Extractor)
	return ok, nil
}

// UnpackAll extracts every archive among files into destDir and returns how many were extracted.
// Files that are not archives are left alone.
func (am *Manager) UnpackAll(ctx context.Context, files []string, destDir string) (int, error) {
	extracted := 0
	for _, path := range files {
		ok, err := am.IsArchive(ctx, path)
		if err != nil {
			return extracted, err
		}
		if !ok {
			logger.Debug("Not an archive, leaving as is", logger.Fields{"file": path})
			continue
		}
		logger.Debug("Unpacking source", logger.Fields{"file": path, "dest": destDir})
		if err := am.ExtractAll(ctx, path, destDir); err != nil {
			return extracted, err
		}
		extracted++
	}
	return extracted, nil
}

// ExtractAll extracts all files from an archive to the specified destination directory.
func (am *Manager) ExtractAll(ctx context.Context, archivePath, destDir string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(destDir); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return am.extractEntry(fsys, path, destDir, d)
	}

	if err := fs.WalkDir(fsys, ".", walkFn); err != nil {
		return fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}
	return nil
}

// extractEntry processes a single archive entry and writes it to destDir.
func (am *Manager) extractEntry(fsys fs.FS, path, destDir string, d fs.DirEntry) error {
	if path == "." {
		return nil
	}

	targetPath := filepath.Join(destDir, filepath.FromSlash(path))

	if d.IsDir() {
		return os.MkdirAll(targetPath, fsutil.DirModeDefault)
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info for %s: %w", path, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return am.writeSymlink(fsys, path, targetPath, info)
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return am.writeRegularFile(fsys, path, targetPath, info)
}

// writeSymlink recreates the symlink of the archive entry at targetPath.
func (am *Manager) writeSymlink(fsys fs.FS, path, targetPath string, info fs.FileInfo) error {
	var linkTarget string
	if fi, ok := info.(archives.FileInfo); ok && fi.LinkTarget != "" {
		linkTarget = fi.LinkTarget
	} else {
		f, err := fsys.Open(path)
		if err != nil {
			return fmt.Errorf("failed to read symlink %s: %w", path, err)
		}
		targetBytes, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to read symlink target %s: %w", path, err)
		}
		linkTarget = string(targetBytes)
	}

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for symlink %s: %w", path, err)
	}
	_ = os.Remove(targetPath)
	return os.Symlink(linkTarget, targetPath)
}

// writeRegularFile writes a regular file from the archive entry to targetPath and preserves metadata.
func (am *Manager) writeRegularFile(fsys fs.FS, path, targetPath string, info fs.FileInfo) error {
	srcFile, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	dstFile, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy file %s: %w", path, err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", targetPath, err)
	}

	if err := os.Chmod(targetPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", targetPath, err)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}
