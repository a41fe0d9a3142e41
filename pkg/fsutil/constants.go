// Package fsutil provides file system helpers and permission constants shared by todd components.
package fsutil

// File and directory permission constants.
const (
	// File modes.
	FileModeDefault = 0o644 // -rw-r--r--: Default for regular files
	FileModeSecure  = 0o640 // -rw-r-----: For state files (owner read/write, group read)
	FileModeExec    = 0o755 // -rwxr-xr-x: For executable files

	// Directory modes.
	DirModeDefault = 0o755 // drwxr-xr-x: Default for directories
	DirModeSecure  = 0o750 // drwxr-x---: For state directories
	DirModePrivate = 0o700 // drwx------: For private directories (owner only)
)
