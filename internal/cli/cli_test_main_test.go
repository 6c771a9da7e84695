package cli_test

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SirVer/giti/testhelpers"
)

// getGBinary returns the path to the pre-built g binary.
func getGBinary(t *testing.T) string {
	t.Helper()
	return testhelpers.RequireBinary(t)
}

// installG copies the g binary into a fresh directory so that self-update
// replaces the copy instead of the shared build.
func installG(t *testing.T) string {
	t.Helper()
	src := getGBinary(t)

	data, err := os.ReadFile(src)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), filepath.Base(src))
	require.NoError(t, os.WriteFile(dst, data, 0755))
	return dst
}

// runG runs binary in dir and returns its combined output and exit code
func runG(t *testing.T, binary, dir string, args ...string) (string, int) {
	t.Helper()

	var out bytes.Buffer
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err == nil {
		return out.String(), 0
	}
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "running g: %v", err)
	return out.String(), exitErr.ExitCode()
}

// requirePOSIXShell skips tests whose formatters are shell scripts
func requirePOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("formatter rules in this test use sh")
	}
}
