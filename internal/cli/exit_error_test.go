package cli_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SirVer/giti/internal/cli"
)

func TestExitCode(t *testing.T) {
	require.Equal(t, cli.ExitSuccess, cli.ExitCode(nil))
	require.Equal(t, cli.ExitFailure, cli.ExitCode(errors.New("boom")))

	wrapped := fmt.Errorf("context: %w", &cli.ExitError{Code: 3, Message: "conflict"})
	require.Equal(t, 3, cli.ExitCode(wrapped))
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")

	err := &cli.ExitError{Code: cli.ExitFailure, Cause: cause}
	require.Equal(t, "disk full", err.Error())
	require.ErrorIs(t, err, cause)

	err = &cli.ExitError{Code: cli.ExitFailure, Message: "update failed", Cause: cause}
	require.Equal(t, "update failed", err.Error())
}

func TestRootVersion(t *testing.T) {
	require.Equal(t, "dev", cli.NewRootCmd("dev", "none", "unknown").Version)
	require.Equal(t, "1.2.0 (abcdef1, 2026-01-02)", cli.NewRootCmd("1.2.0", "abcdef1234", "2026-01-02").Version)
}
