package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "todd"

	// IndexDirPath is where the package index lives, relative to the install root.
	IndexDirPath = "var/lib/todd"
	// IndexFileName is the package index document inside IndexDirPath.
	IndexFileName = "status.json"
	// LockFileName is the advisory lock guarding the package index.
	LockFileName = "status.lock"
	// CacheDirPath is the source cache root, relative to the install root.
	CacheDirPath = "var/cache/todd"
)

// IndexDir returns the directory holding the package index for an install root.
func IndexDir(root string) string {
	return filepath.Join(root, IndexDirPath)
}

// IndexFile returns the path of the package index document for an install root.
func IndexFile(root string) string {
	return filepath.Join(IndexDir(root), IndexFileName)
}

// LockFile returns the path of the index lock file for an install root.
func LockFile(root string) string {
	return filepath.Join(IndexDir(root), LockFileName)
}

// CacheDir returns the source cache root for an install root.
func CacheDir(root string) string {
	return filepath.Join(root, CacheDirPath)
}

// GetConfigDir returns the configuration directory for the application.
// Uses XDG_CONFIG_HOME with fallback to ~/.config.
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}
