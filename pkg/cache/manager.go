// Package cache keeps downloaded package sources under the install root, keyed by
// package name and version, and verifies them against the catalog checksums.
package cache

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/fsutil"
	"github.com/glorpus-work/todd/pkg/model"
)

// Manager is the source cache.
type Manager struct {
	directory string
	fetcher   Fetcher
}

// NewManager creates a cache rooted at directory. fetcher may be nil for callers that only
// inspect or clean the cache.
func NewManager(directory string, fetcher Fetcher) *Manager {
	return &Manager{
		directory: directory,
		fetcher:   fetcher,
	}
}

// ForRoot creates a cache at the conventional location below an install root.
func ForRoot(root string, fetcher Fetcher) *Manager {
	return NewManager(fsutil.CacheDir(root), fetcher)
}

// Directory returns the cache root.
func (m *Manager) Directory() string {
	return m.directory
}

// Dir returns the directory holding the sources of pkg.
func (m *Manager) Dir(pkg *model.Package) string {
	return filepath.Join(m.directory, pkg.Name, pkg.Version)
}

// SourcePath returns the cached location of src.
func (m *Manager) SourcePath(pkg *model.Package, src model.PackageSource) string {
	return filepath.Join(m.Dir(pkg), src.FileName())
}

// IsSourceCached reports whether src is present with a matching checksum.
func (m *Manager) IsSourceCached(pkg *model.Package, src model.PackageSource) bool {
	return checksumMatches(m.SourcePath(pkg, src), src.Checksum)
}

// IsCached reports whether every source of pkg is present and verified.
func (m *Manager) IsCached(pkg *model.Package) bool {
	for _, src := range pkg.Sources {
		if !m.IsSourceCached(pkg, src) {
			return false
		}
	}
	return true
}

// FetchAll downloads every source of pkg that is not already cached. It stops at the
// first failure; sources fetched before it stay in the cache.
func (m *Manager) FetchAll(ctx context.Context, pkg *model.Package) error {
	if err := fsutil.EnsureDir(m.Dir(pkg)); err != nil {
		return fmt.Errorf("failed to create cache directory for %s: %w: %w", pkg.Name, errors.ErrFetchFailed, err)
	}

	for _, src := range pkg.Sources {
		dest := m.SourcePath(pkg, src)
		if m.IsSourceCached(pkg, src) {
			logger.Debug("Source already cached", logger.Fields{"package": pkg.Name, "file": dest})
			continue
		}
		if m.fetcher == nil {
			return fmt.Errorf("no fetcher configured for %s: %w", src.URL, errors.ErrFetchFailed)
		}

		logger.Info("Fetching source", logger.Fields{"package": pkg.Name, "url": src.URL})
		if err := m.fetcher.Fetch(ctx, src.URL, dest); err != nil {
			return fmt.Errorf("fetching %s: %w: %w", src.URL, errors.ErrFetchFailed, err)
		}

		actual, err := fileChecksum(dest, src.Checksum)
		if err != nil {
			_ = os.Remove(dest)
			return fmt.Errorf("verifying %s: %w: %w", dest, errors.ErrChecksumMismatch, err)
		}
		if !strings.EqualFold(actual, src.Checksum) {
			_ = os.Remove(dest)
			return fmt.Errorf("%s: expected %s, got %s: %w", src.URL, src.Checksum, actual, errors.ErrChecksumMismatch)
		}
	}
	return nil
}

// CopyTo copies every cached source of pkg into dir.
func (m *Manager) CopyTo(pkg *model.Package, dir string) error {
	for _, src := range pkg.Sources {
		dst := filepath.Join(dir, src.FileName())
		if err := fsutil.Copy(m.SourcePath(pkg, src), dst); err != nil {
			return errors.Wrapf(err, "failed to stage %s", src.FileName())
		}
	}
	return nil
}

// Clean removes the whole cache and reports what was freed.
func (m *Manager) Clean() (*CleanResult, error) {
	size, files, err := getDirSizeAndFiles(m.directory)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(m.directory); err != nil {
		return nil, errors.Wrapf(err, "failed to remove directory %s", m.directory)
	}
	return &CleanResult{Freed: size, Files: files}, nil
}

// Info returns information about the cache.
func (m *Manager) Info() (*Info, error) {
	info := &Info{Directory: m.directory}
	perPackage := make(map[string]*PackageInfo)

	if _, err := os.Stat(m.directory); os.IsNotExist(err) {
		return info, nil
	}

	err := filepath.WalkDir(m.directory, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}

		info.TotalSize += fi.Size()
		info.Files++

		rel, err := filepath.Rel(m.directory, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		key := parts[0] + "/" + parts[1]
		p, ok := perPackage[key]
		if !ok {
			p = &PackageInfo{Name: parts[0], Version: parts[1]}
			perPackage[key] = p
		}
		p.Size += fi.Size()
		p.Files++
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error walking directory %s", m.directory)
	}

	for _, p := range perPackage {
		info.Packages = append(info.Packages, *p)
	}
	sort.Slice(info.Packages, func(i, j int) bool {
		if info.Packages[i].Name != info.Packages[j].Name {
			return info.Packages[i].Name < info.Packages[j].Name
		}
		return info.Packages[i].Version < info.Packages[j].Version
	})
	return info, nil
}

// getDirSizeAndFiles calculates directory size and file count.
func getDirSizeAndFiles(dir string) (size int64, count int, err error) {
	if _, err = os.Stat(dir); os.IsNotExist(err) {
		return 0, 0, nil
	}

	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		size += fi.Size()
		count++
		return nil
	})
	if err != nil {
		err = errors.Wrapf(err, "error walking directory %s", dir)
	}
	return size, count, err
}

// FormatBytes converts bytes to a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}
