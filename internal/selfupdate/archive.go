package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	gerrors "github.com/SirVer/giti/internal/errors"
)

// executableHeaders are the leading bytes of formats we accept as a binary
var executableHeaders = [][]byte{
	{0x7f, 'E', 'L', 'F'},    // ELF
	{0xfe, 0xed, 0xfa, 0xce}, // Mach-O 32-bit
	{0xfe, 0xed, 0xfa, 0xcf}, // Mach-O 64-bit
	{0xce, 0xfa, 0xed, 0xfe}, // Mach-O 32-bit, little endian
	{0xcf, 0xfa, 0xed, 0xfe}, // Mach-O 64-bit, little endian
	{0xca, 0xfe, 0xba, 0xbe}, // Mach-O universal
	{'M', 'Z'},               // PE
	{'#', '!'},               // script
}

// ExtractExecutable verifies the downloaded asset name/data and returns the
// executable it carries. Archives must hold exactly one executable; raw
// assets must look like an executable themselves.
func ExtractExecutable(name string, data []byte, binary string) ([]byte, error) {
	if len(data) == 0 {
		return nil, gerrors.NewIntegrityError(name+" is empty", nil)
	}

	lower := strings.ToLower(name)
	var (
		exe []byte
		err error
	)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		exe, err = extractFromTarGz(data, binary)
	case strings.HasSuffix(lower, ".zip"):
		exe, err = extractFromZip(data, binary)
	default:
		exe = data
	}
	if err != nil {
		return nil, err
	}

	if !HasExecutableHeader(exe) {
		return nil, gerrors.NewIntegrityError(name+" does not contain a recognizable executable", nil)
	}
	return exe, nil
}

// HasExecutableHeader reports whether data starts with a known executable header
func HasExecutableHeader(data []byte) bool {
	for _, h := range executableHeaders {
		if bytes.HasPrefix(data, h) {
			return true
		}
	}
	return false
}

// isExecutableEntry decides whether an archive member counts as an executable:
// any exec bit set, a .exe suffix, or the binary's own name.
func isExecutableEntry(name string, mode fs.FileMode, binary string) bool {
	base := path.Base(name)
	return mode&0o111 != 0 ||
		strings.HasSuffix(strings.ToLower(base), ".exe") ||
		base == binary
}

func extractFromTarGz(data []byte, binary string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, gerrors.NewIntegrityError("invalid gzip stream", err)
	}
	defer func() { _ = gz.Close() }()

	var (
		found [][]byte
		names []string
	)
	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return nil, gerrors.NewIntegrityError("corrupt tar archive", nextErr)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if !isExecutableEntry(hdr.Name, hdr.FileInfo().Mode(), binary) {
			continue
		}

		content, readErr := io.ReadAll(io.LimitReader(tr, maxAssetBytes))
		if readErr != nil {
			return nil, gerrors.NewIntegrityError("truncated tar entry "+hdr.Name, readErr)
		}
		found = append(found, content)
		names = append(names, hdr.Name)
	}

	return exactlyOne(found, names)
}

func extractFromZip(data []byte, binary string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, gerrors.NewIntegrityError("invalid zip archive", err)
	}

	var (
		found [][]byte
		names []string
	)
	for _, f := range zr.File {
		if !f.Mode().IsRegular() || !isExecutableEntry(f.Name, f.Mode(), binary) {
			continue
		}
		rc, openErr := f.Open()
		if openErr != nil {
			return nil, gerrors.NewIntegrityError("corrupt zip entry "+f.Name, openErr)
		}
		content, readErr := io.ReadAll(io.LimitReader(rc, maxAssetBytes))
		_ = rc.Close()
		if readErr != nil {
			return nil, gerrors.NewIntegrityError("corrupt zip entry "+f.Name, readErr)
		}
		found = append(found, content)
		names = append(names, f.Name)
	}

	return exactlyOne(found, names)
}

func exactlyOne(found [][]byte, names []string) ([]byte, error) {
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, gerrors.NewIntegrityError("archive contains no executable", nil)
	default:
		return nil, gerrors.NewIntegrityError(
			fmt.Sprintf("archive contains %d executables (%s), expected exactly one", len(found), strings.Join(names, ", ")), nil)
	}
}
