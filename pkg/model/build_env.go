package model

import (
	"fmt"
	"strconv"
)

// DefaultTarget is the cross-compilation triple handed to build scripts.
const DefaultTarget = "x86_64-lfs-linux-gnu"

// BuildEnv is the explicit configuration of one build invocation.
type BuildEnv struct {
	Package     *Package
	BuildDir    string
	FakeRoot    string
	InstallRoot string
	Target      string
	Jobs        int
	Verbose     bool
}

// Environ renders the build configuration into the variables build scripts read.
func (b BuildEnv) Environ() []string {
	target := b.Target
	if target == "" {
		target = DefaultTarget
	}
	env := []string{
		"TODD_BUILD_DIR=" + b.BuildDir,
		"TODD_FAKE_ROOT_DIR=" + b.FakeRoot,
		"TODD_INSTALL_ROOT=" + b.InstallRoot,
		"LFS_TGT=" + target,
	}
	if b.Jobs > 0 {
		env = append(env, fmt.Sprintf("MAKEFLAGS=-j%d", b.Jobs))
	}
	if b.Package != nil {
		env = append(env,
			"TODD_PACKAGE="+b.Package.Name,
			"TODD_VERSION="+b.Package.Version,
			"TODD_PASS="+strconv.Itoa(b.Package.PassIdx),
		)
	}
	return env
}
