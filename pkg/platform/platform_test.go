package platform

import (
	"runtime"
	"testing"
)

func TestCurrentPlatform(t *testing.T) {
	platform := CurrentPlatform()

	if platform.OS != runtime.GOOS {
		t.Errorf("Expected OS %q, got %q", runtime.GOOS, platform.OS)
	}

	expectedArch := NormalizeArch(runtime.GOARCH)
	if platform.Arch != expectedArch {
		t.Errorf("Expected Arch %q, got %q", expectedArch, platform.Arch)
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"amd64", "amd64"},
		{"x86_64", "amd64"},
		{"X64", "amd64"},
		{"i686", "386"},
		{"aarch64", "arm64"},
		{"arm", "arm"},
		{"powerpc64le", "ppc64le"},
		{"mips", "mips"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeArch(tt.input); got != tt.expected {
				t.Errorf("NormalizeArch(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPlatformTriple(t *testing.T) {
	tests := []struct {
		arch     string
		expected string
		wantErr  bool
	}{
		{arch: "amd64", expected: "x86_64-lfs-linux-gnu"},
		{arch: "x86_64", expected: "x86_64-lfs-linux-gnu"},
		{arch: "arm64", expected: "aarch64-lfs-linux-gnu"},
		{arch: "386", expected: "i686-lfs-linux-gnu"},
		{arch: "riscv64", expected: "riscv64-lfs-linux-gnu"},
		{arch: "mips", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			triple, err := Platform{OS: OSLinux, Arch: tt.arch}.Triple()
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.arch)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if triple.String() != tt.expected {
				t.Errorf("Triple() = %q, want %q", triple.String(), tt.expected)
			}
		})
	}
}

func TestDefaultTarget(t *testing.T) {
	got := DefaultTarget("fallback")
	if _, ok := machines[NormalizeArch(runtime.GOARCH)]; !ok {
		if got != "fallback" {
			t.Errorf("DefaultTarget() = %q, want fallback", got)
		}
		return
	}
	if _, err := ParseTriple(got); err != nil {
		t.Errorf("DefaultTarget() = %q does not parse: %v", got, err)
	}
}

func TestParseTriple(t *testing.T) {
	tests := []struct {
		input   string
		want    Triple
		wantErr bool
	}{
		{input: "x86_64-lfs-linux-gnu", want: Triple{Machine: "x86_64", Vendor: "lfs", OS: "linux", ABI: "gnu"}},
		{input: "aarch64-unknown-linux", want: Triple{Machine: "aarch64", Vendor: "unknown", OS: "linux"}},
		{input: "x86_64-lfs", wantErr: true},
		{input: "x86_64--linux-gnu", wantErr: true},
		{input: "x86_64-apple-darwin", wantErr: true},
		{input: "a-b-linux-gnu-extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTriple(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTriple(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTriple(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestSupportedArch(t *testing.T) {
	archs := SupportedArch()
	if len(archs) != len(machines) {
		t.Fatalf("got %d architectures, want %d", len(archs), len(machines))
	}
	for i := 1; i < len(archs); i++ {
		if archs[i-1] > archs[i] {
			t.Errorf("SupportedArch() not sorted: %v", archs)
		}
	}
}
