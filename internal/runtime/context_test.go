package runtime_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SirVer/giti/internal/config"
	"github.com/SirVer/giti/internal/runtime"
)

func TestGetContext(t *testing.T) {
	t.Run("uses defaults without a config file", func(t *testing.T) {
		t.Setenv("G_CONFIG_HOME", t.TempDir())
		t.Setenv("G_LOG_FILE", "")

		var out bytes.Buffer
		ctx, err := runtime.GetContext(context.Background(), &out)
		require.NoError(t, err)
		defer func() { require.NoError(t, ctx.Close()) }()

		require.Equal(t, config.DefaultBase, ctx.Config.Base)
		require.NotNil(t, ctx.Runner)

		ctx.Splog.Info("hello")
		require.Equal(t, "hello\n", out.String())
	})

	t.Run("loads the config file", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("G_CONFIG_HOME", dir)
		t.Setenv("G_LOG_FILE", "")
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("base: origin/main\n"), 0600))

		ctx, err := runtime.GetContext(context.Background(), &bytes.Buffer{})
		require.NoError(t, err)
		defer func() { require.NoError(t, ctx.Close()) }()
		require.Equal(t, "origin/main", ctx.Config.Base)
	})

	t.Run("reports an invalid config file", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("G_CONFIG_HOME", dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("bogus: true\n"), 0600))

		_, err := runtime.GetContext(context.Background(), &bytes.Buffer{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid config")
	})

	t.Run("context carries cancellation", func(t *testing.T) {
		t.Setenv("G_CONFIG_HOME", t.TempDir())
		t.Setenv("G_LOG_FILE", "")

		parent, cancel := context.WithCancel(context.Background())
		ctx, err := runtime.GetContext(parent, &bytes.Buffer{})
		require.NoError(t, err)
		defer func() { _ = ctx.Close() }()

		cancel()
		require.ErrorIs(t, ctx.Err(), context.Canceled)
	})
}
