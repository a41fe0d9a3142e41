// Package model provides the data structures shared by the catalog, cache, index and orchestrator.
package model

import (
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"github.com/hashicorp/go-version"
)

// SinglePass marks a package that is built once, without bootstrap staging.
const SinglePass = -1

// PackageSource identifies one downloadable artifact and its expected content hash.
type PackageSource struct {
	URL      string `json:"url" yaml:"url"`
	Checksum string `json:"checksum" yaml:"checksum"`
}

// FileName returns the local file name of the source inside the cache, the last URL path segment.
func (s PackageSource) FileName() string {
	if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	raw := strings.SplitN(s.URL, "?", 2)[0]
	return raw[strings.LastIndex(raw, "/")+1:]
}

// HasValidChecksum reports whether Checksum is a hex MD5 (32 digits) or SHA-256 (64 digits) digest.
func (s PackageSource) HasValidChecksum() bool {
	if len(s.Checksum) != 32 && len(s.Checksum) != 64 {
		return false
	}
	_, err := hex.DecodeString(s.Checksum)
	return err == nil
}

// Package is a catalog entry: one buildable pass of a named package.
type Package struct {
	Name        string
	Version     string
	PassIdx     int
	Sources     []PackageSource
	Env         string
	BuildScript string
	// Unpack extracts archive sources into the build directory after staging.
	Unpack bool
	// Hooks maps a hook type (pre-build, post-build) to a script path.
	Hooks map[string]string
}

// Ident returns the catalog key of the package.
func (p *Package) Ident() Ident {
	return Ident{Name: p.Name, Pass: p.PassIdx}
}

// GetVersion returns the parsed version of this package, or nil when it is not semver-like.
func (p *Package) GetVersion() *version.Version {
	v, err := version.NewVersion(p.Version)
	if err != nil {
		return nil
	}
	return v
}

// FirstPass reports whether pass is the first one a package can be installed with.
func FirstPass(pass int) bool {
	return pass == SinglePass || pass == 0
}
