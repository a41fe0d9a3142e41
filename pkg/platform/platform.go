package platform

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Platform represents a target platform with OS and Architecture.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// Triple is a parsed GNU target triple: machine-vendor-os[-abi].
type Triple struct {
	Machine string
	Vendor  string
	OS      string
	ABI     string
}

// CurrentPlatform returns the current platform (OS and architecture)
func CurrentPlatform() Platform {
	return Platform{
		OS:   strings.ToLower(runtime.GOOS),
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

// String returns a string representation of the platform
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// Machine returns the GNU machine name of the platform architecture.
func (p Platform) Machine() (string, error) {
	m, ok := machines[NormalizeArch(p.Arch)]
	if !ok {
		return "", fmt.Errorf("unsupported architecture %q, expected one of %s", p.Arch, strings.Join(SupportedArch(), ", "))
	}
	return m, nil
}

// Triple returns the cross toolchain triple for the platform.
func (p Platform) Triple() (Triple, error) {
	m, err := p.Machine()
	if err != nil {
		return Triple{}, err
	}
	return Triple{Machine: m, Vendor: Vendor, OS: OSLinux, ABI: DefaultABI}, nil
}

// DefaultTarget returns the triple for the running host, or fallback when the host
// architecture has no known GNU machine name.
func DefaultTarget(fallback string) string {
	t, err := CurrentPlatform().Triple()
	if err != nil {
		return fallback
	}
	return t.String()
}

func (t Triple) String() string {
	s := t.Machine + "-" + t.Vendor + "-" + t.OS
	if t.ABI != "" {
		s += "-" + t.ABI
	}
	return s
}

// ParseTriple parses machine-vendor-os[-abi]. Only linux triples are accepted.
func ParseTriple(s string) (Triple, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 || len(parts) > 4 {
		return Triple{}, fmt.Errorf("invalid target triple %q, expected machine-vendor-os[-abi]", s)
	}
	for _, p := range parts {
		if p == "" {
			return Triple{}, fmt.Errorf("invalid target triple %q: empty field", s)
		}
	}
	t := Triple{Machine: parts[0], Vendor: parts[1], OS: parts[2]}
	if len(parts) == 4 {
		t.ABI = parts[3]
	}
	if t.OS != OSLinux {
		return Triple{}, fmt.Errorf("invalid target triple %q: os must be %s", s, OSLinux)
	}
	return t, nil
}

// NormalizeArch normalizes architecture names to the Go spelling.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(arch)
	switch arch {
	case "x86_64", "x64":
		return ArchAMD64
	case "x86", "i386", "i686":
		return Arch386
	case "aarch64":
		return ArchARM64
	case "powerpc64le":
		return ArchPPC64LE
	default:
		return arch
	}
}

// SupportedArch returns the architectures with a known GNU machine name.
func SupportedArch() []string {
	archs := make([]string, 0, len(machines))
	for a := range machines {
		archs = append(archs, a)
	}
	sort.Strings(archs)
	return archs
}
