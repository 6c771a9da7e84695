package selfupdate

import (
	"testing"

	"github.com/stretchr/testify/require"

	gerrors "github.com/SirVer/giti/internal/errors"
)

func TestExtractExecutable(t *testing.T) {
	elf := append([]byte{0x7f, 'E', 'L', 'F'}, make([]byte, 60)...)
	script := []byte("#!/bin/sh\necho hi\n")

	t.Run("raw binary with a known header", func(t *testing.T) {
		for name, data := range map[string][]byte{
			"g_linux_amd64":       elf,
			"g_windows_amd64.exe": []byte("MZ\x90\x00"),
			"g_darwin_arm64":      {0xcf, 0xfa, 0xed, 0xfe, 0x0c},
			"g_freebsd_amd64":     script,
		} {
			got, err := ExtractExecutable(name, data, "g")
			require.NoError(t, err, name)
			require.Equal(t, data, got)
		}
	})

	t.Run("raw payload without a header is rejected", func(t *testing.T) {
		_, err := ExtractExecutable("g_linux_amd64", []byte("Not Found"), "g")
		require.ErrorIs(t, err, gerrors.ErrIntegrity)
	})

	t.Run("empty payload is rejected", func(t *testing.T) {
		_, err := ExtractExecutable("g_linux_amd64", nil, "g")
		require.ErrorIs(t, err, gerrors.ErrIntegrity)
	})

	t.Run("tar.gz with exactly one executable", func(t *testing.T) {
		data := makeTarGz(t,
			archiveEntry{name: "LICENSE", mode: 0o644, data: []byte("MIT")},
			archiveEntry{name: "bin/g", mode: 0o755, data: elf},
		)
		got, err := ExtractExecutable("g_1.0.0_linux_amd64.tar.gz", data, "g")
		require.NoError(t, err)
		require.Equal(t, elf, got)
	})

	t.Run("tar.gz with two executables is rejected", func(t *testing.T) {
		data := makeTarGz(t,
			archiveEntry{name: "g", mode: 0o755, data: elf},
			archiveEntry{name: "g-helper", mode: 0o755, data: elf},
		)
		_, err := ExtractExecutable("g_1.0.0_linux_amd64.tgz", data, "g")
		require.ErrorIs(t, err, gerrors.ErrIntegrity)
		require.Contains(t, err.Error(), "2 executables")
	})

	t.Run("tar.gz without an executable is rejected", func(t *testing.T) {
		data := makeTarGz(t, archiveEntry{name: "README", mode: 0o644, data: []byte("hi")})
		_, err := ExtractExecutable("g_1.0.0_linux_amd64.tar.gz", data, "g")
		require.ErrorIs(t, err, gerrors.ErrIntegrity)
		require.Contains(t, err.Error(), "no executable")
	})

	t.Run("corrupt archive is rejected", func(t *testing.T) {
		_, err := ExtractExecutable("g_1.0.0_linux_amd64.tar.gz", []byte("not gzip"), "g")
		require.ErrorIs(t, err, gerrors.ErrIntegrity)
	})

	t.Run("zip matches by exe suffix", func(t *testing.T) {
		pe := []byte("MZ\x90\x00\x03")
		data := makeZip(t,
			archiveEntry{name: "README.md", mode: 0o644, data: []byte("docs")},
			archiveEntry{name: "g.exe", mode: 0o644, data: pe},
		)
		got, err := ExtractExecutable("g_1.0.0_windows_amd64.zip", data, "g")
		require.NoError(t, err)
		require.Equal(t, pe, got)
	})

	t.Run("archived executable must have a known header", func(t *testing.T) {
		data := makeTarGz(t, archiveEntry{name: "g", mode: 0o755, data: []byte("garbage")})
		_, err := ExtractExecutable("g_1.0.0_linux_amd64.tar.gz", data, "g")
		require.ErrorIs(t, err, gerrors.ErrIntegrity)
	})
}

func TestPlatformFromAssetName(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"g_1.3.0_linux_amd64.tar.gz", "linux_amd64", true},
		{"g_1.3.0_darwin_arm64.tgz", "darwin_arm64", true},
		{"g_windows_amd64.exe", "windows_amd64", true},
		{"g_windows_arm64.zip", "windows_arm64", true},
		{"g_linux_amd64", "linux_amd64", true},
		{"checksums.txt", "", false},
		{"gx_linux_amd64", "", false},
		{"g_linux", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := platformFromAssetName(tt.name, "g")
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
