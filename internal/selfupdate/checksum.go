package selfupdate

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	gerrors "github.com/SirVer/giti/internal/errors"
)

// ChecksumEntry represents a SHA256 checksum for a release asset.
type ChecksumEntry struct {
	Hash     string // Hex-encoded SHA256 hash (64 characters)
	Filename string
}

// ParseChecksums parses a checksums.txt file in sha256sum output format:
// "{sha256_hex}  {filename}" per line, or "{sha256_hex} *{filename}" for
// binary mode. Lines that don't match are skipped.
func ParseChecksums(r io.Reader) ([]ChecksumEntry, error) {
	var entries []ChecksumEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}

		hash := fields[0]
		filename := strings.TrimPrefix(fields[1], "*")
		if filename == "" || !isValidHexHash(hash) {
			continue
		}

		entries = append(entries, ChecksumEntry{
			Hash:     strings.ToLower(hash),
			Filename: filename,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	if len(entries) == 0 {
		return nil, gerrors.NewIntegrityError("checksums file has no valid entries", nil)
	}
	return entries, nil
}

// VerifyChecksum checks data against the entry for filename
func VerifyChecksum(entries []ChecksumEntry, filename string, data []byte) error {
	var expected string
	for _, e := range entries {
		if e.Filename == filename {
			expected = e.Hash
			break
		}
	}
	if expected == "" {
		return gerrors.NewIntegrityError(fmt.Sprintf("%s is not listed in %s", filename, checksumsAsset), nil)
	}

	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if got != expected {
		return gerrors.NewIntegrityError(
			fmt.Sprintf("checksum mismatch for %s\nExpected: %s\nGot:      %s", filename, expected, got), nil)
	}
	return nil
}

func verifyAgainstChecksums(checksums []byte, filename string, data []byte) error {
	entries, err := ParseChecksums(bytes.NewReader(checksums))
	if err != nil {
		return err
	}
	return VerifyChecksum(entries, filename, data)
}

// isValidHexHash checks if s is a valid 64-character hex-encoded SHA256 hash.
func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
