package cache

import "context"

// Fetcher transfers the bytes behind a URL into a local file.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	Freed int64
	Files int
}

// PackageInfo describes the cached sources of one package version.
type PackageInfo struct {
	Name    string
	Version string
	Size    int64
	Files   int
}

// Info represents cache information.
type Info struct {
	Directory string
	TotalSize int64
	Files     int
	Packages  []PackageInfo
}
