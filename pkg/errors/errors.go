// Package errors defines the error taxonomy shared by every todd component.
// Callers match on the sentinels with errors.Is; context is added with Wrap and Wrapf.
package errors

import "fmt"

// Installation errors. Every one of them aborts an install batch.
var (
	// ErrCatalog is returned when the package catalog is malformed or contains duplicates.
	ErrCatalog = fmt.Errorf("invalid package catalog")

	// ErrNotFound is returned when a requested package/pass is absent from the catalog.
	ErrNotFound = fmt.Errorf("package not found")

	// ErrEnvironmentMismatch is returned when a package targets a different environment.
	ErrEnvironmentMismatch = fmt.Errorf("environment mismatch")

	// ErrSequencing is returned when an earlier pass of a package has not been installed.
	ErrSequencing = fmt.Errorf("pass sequencing violation")

	// ErrFetchFailed is returned when a package source cannot be downloaded.
	ErrFetchFailed = fmt.Errorf("failed to fetch package source")

	// ErrChecksumMismatch is returned when a fetched source does not match its checksum.
	ErrChecksumMismatch = fmt.Errorf("checksum mismatch")

	// ErrBuildFailed is returned when a build script or hook fails.
	ErrBuildFailed = fmt.Errorf("build failed")

	// ErrIndexCorruption is returned when the persisted package index cannot be parsed.
	ErrIndexCorruption = fmt.Errorf("package index is corrupt")
)

// Index mutation errors.
var (
	ErrAlreadyInstalled = fmt.Errorf("package already present in index")
	ErrNotInstalled     = fmt.Errorf("package not present in index")
	ErrFileConflict     = fmt.Errorf("file already owned by another package")
	ErrLocked           = fmt.Errorf("package index is locked by another process")
)

// Transport and filesystem errors.
var (
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrInvalidPath    = fmt.Errorf("invalid path")
)

// Config errors.
var (
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists (use --force to overwrite)")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
