// Package catalog loads the package repository description (packages.json or packages.yaml)
// into in-memory Package definitions keyed by (name, pass).
package catalog

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/glorpus-work/todd/internal/logger"
	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/hooks"
	"github.com/glorpus-work/todd/pkg/model"
	"gopkg.in/yaml.v3"
)

// Catalog file names, probed in this order.
var catalogFiles = []string{"packages.json", "packages.yaml", "packages.yml"}

// Catalog is the set of packages available in one repository directory.
type Catalog struct {
	dir      string
	packages map[model.Ident]*model.Package
}

type rawCatalog struct {
	Packages []rawPackage `json:"packages" yaml:"packages"`
}

// rawPackage uses pointers so missing required fields can be told apart from zero values.
type rawPackage struct {
	Name        *string           `json:"name" yaml:"name"`
	Version     *string           `json:"version" yaml:"version"`
	PassIdx     *int              `json:"pass_idx" yaml:"pass_idx"`
	SrcURLs     *[]rawSource      `json:"src_urls" yaml:"src_urls"`
	Env         *string           `json:"env" yaml:"env"`
	BuildScript string            `json:"build_script" yaml:"build_script"`
	Unpack      bool              `json:"unpack" yaml:"unpack"`
	Hooks       map[string]string `json:"hooks" yaml:"hooks"`
}

type rawSource struct {
	URL      *string `json:"url" yaml:"url"`
	Checksum *string `json:"checksum" yaml:"checksum"`
}

// Load reads the catalog found in repoDir.
func Load(repoDir string) (*Catalog, error) {
	for _, name := range catalogFiles {
		path := filepath.Join(repoDir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read catalog %s", path)
		}
		return Parse(repoDir, filepath.Ext(name), data)
	}
	return nil, fmt.Errorf("no %v in %s: %w", catalogFiles, repoDir, errors.ErrCatalog)
}

// Parse decodes a catalog document. ext selects the decoder (".json", ".yaml" or ".yml");
// relative build scripts and hooks resolve against repoDir.
func Parse(repoDir, ext string, data []byte) (*Catalog, error) {
	var raw rawCatalog
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrCatalog, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrCatalog, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q: %w", ext, errors.ErrCatalog)
	}

	cat := &Catalog{dir: repoDir, packages: make(map[model.Ident]*model.Package, len(raw.Packages))}
	for i, rp := range raw.Packages {
		pkg, err := rp.toPackage(repoDir)
		if err != nil {
			return nil, fmt.Errorf("package #%d: %w", i, err)
		}
		if _, dup := cat.packages[pkg.Ident()]; dup {
			return nil, fmt.Errorf("the repository '%s' contains the package '%s' pass %d twice: %w",
				repoDir, pkg.Name, pkg.PassIdx, errors.ErrCatalog)
		}
		if pkg.GetVersion() == nil {
			logger.Debug("Package version is not semver-like", logger.Fields{"package": pkg.Name, "version": pkg.Version})
		}
		cat.packages[pkg.Ident()] = pkg
	}
	return cat, nil
}

func (rp rawPackage) toPackage(repoDir string) (*model.Package, error) {
	if rp.Name == nil || *rp.Name == "" || rp.Version == nil || *rp.Version == "" || rp.SrcURLs == nil || rp.Env == nil {
		return nil, fmt.Errorf("missing one of name, version, src_urls, env: %w", errors.ErrCatalog)
	}

	pkg := &model.Package{
		Name:    *rp.Name,
		Version: *rp.Version,
		PassIdx: model.SinglePass,
		Env:     *rp.Env,
		Unpack:  rp.Unpack,
	}
	if rp.PassIdx != nil {
		if *rp.PassIdx < model.SinglePass {
			return nil, fmt.Errorf("package '%s' has invalid pass_idx %d: %w", pkg.Name, *rp.PassIdx, errors.ErrCatalog)
		}
		pkg.PassIdx = *rp.PassIdx
	}

	fileNames := make(map[string]int, len(*rp.SrcURLs))
	for j, raw := range *rp.SrcURLs {
		if raw.URL == nil || *raw.URL == "" || raw.Checksum == nil || *raw.Checksum == "" {
			return nil, fmt.Errorf("package '%s' source #%d needs url and checksum: %w", pkg.Name, j, errors.ErrCatalog)
		}
		src := model.PackageSource{URL: *raw.URL, Checksum: *raw.Checksum}
		if !src.HasValidChecksum() {
			return nil, fmt.Errorf("package '%s' source #%d has checksum %q, want 32 (md5) or 64 (sha256) hex digits: %w",
				pkg.Name, j, src.Checksum, errors.ErrCatalog)
		}
		name := src.FileName()
		if name == "" || name == "." || name == "/" {
			return nil, fmt.Errorf("package '%s' source #%d has no file name in %s: %w", pkg.Name, j, src.URL, errors.ErrCatalog)
		}
		if first, dup := fileNames[name]; dup {
			return nil, fmt.Errorf("package '%s' sources #%d and #%d both download %s: %w", pkg.Name, first, j, name, errors.ErrCatalog)
		}
		fileNames[name] = j
		pkg.Sources = append(pkg.Sources, src)
	}

	script := rp.BuildScript
	if script == "" {
		script = pkg.Name + ".sh"
	}
	pkg.BuildScript = resolve(repoDir, script)

	if len(rp.Hooks) > 0 {
		pkg.Hooks = make(map[string]string, len(rp.Hooks))
		for hookType, path := range rp.Hooks {
			if !hooks.HookType(hookType).Valid() {
				return nil, fmt.Errorf("package '%s' has unknown hook %q: %w", pkg.Name, hookType, errors.ErrCatalog)
			}
			pkg.Hooks[hookType] = resolve(repoDir, path)
		}
	}
	return pkg, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Dir returns the repository directory the catalog was loaded from.
func (c *Catalog) Dir() string {
	return c.dir
}

// Get returns the package for an identifier.
func (c *Catalog) Get(id model.Ident) (*model.Package, bool) {
	pkg, ok := c.packages[id]
	return pkg, ok
}

// Len returns the number of (name, pass) entries.
func (c *Catalog) Len() int {
	return len(c.packages)
}

// Packages returns every package sorted by name, then pass.
func (c *Catalog) Packages() []*model.Package {
	pkgs := make([]*model.Package, 0, len(c.packages))
	for _, p := range c.packages {
		pkgs = append(pkgs, p)
	}
	slices.SortFunc(pkgs, func(a, b *model.Package) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.PassIdx, b.PassIdx)
	})
	return pkgs
}
