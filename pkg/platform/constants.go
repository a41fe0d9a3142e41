// Package platform maps the host platform onto the GNU target triples that toolchain
// build scripts expect, e.g. x86_64-lfs-linux-gnu.
package platform

const (
	// OSLinux is the only operating system a bootstrap target can have.
	OSLinux = "linux"

	// ArchAMD64 represents the AMD64 (x86_64) architecture.
	ArchAMD64 = "amd64"
	// Arch386 represents the 32-bit x86 architecture.
	Arch386 = "386"
	// ArchARM represents the ARM architecture (32-bit).
	ArchARM = "arm"
	// ArchARM64 represents the ARM64 (AArch64) architecture.
	ArchARM64 = "arm64"
	// ArchRISCV64 represents the 64-bit RISC-V architecture.
	ArchRISCV64 = "riscv64"
	// ArchPPC64LE represents little-endian 64-bit POWER.
	ArchPPC64LE = "ppc64le"

	// Vendor is the vendor field of the cross toolchain triple.
	Vendor = "lfs"
	// DefaultABI is the trailing ABI field for glibc targets.
	DefaultABI = "gnu"
)

// machines maps Go architecture names to GNU machine names.
var machines = map[string]string{
	ArchAMD64:   "x86_64",
	Arch386:     "i686",
	ArchARM:     "arm",
	ArchARM64:   "aarch64",
	ArchRISCV64: "riscv64",
	ArchPPC64LE: "powerpc64le",
}
