package selfupdate

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	gerrors "github.com/SirVer/giti/internal/errors"
)

// stubRename replaces the rename seam for the duration of the test
func stubRename(t *testing.T, fn func(oldpath, newpath string) error) {
	t.Helper()
	orig := rename
	rename = fn
	t.Cleanup(func() { rename = orig })
}

func TestReplaceExecutable(t *testing.T) {
	t.Run("keeps the target's permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix permission bits")
		}
		target := filepath.Join(t.TempDir(), "g")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0o750)) //nolint:gosec // must be executable

		require.NoError(t, ReplaceExecutable(target, []byte("new")))

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		require.Equal(t, "new", string(data))
		info, err := os.Stat(target)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o750), info.Mode().Perm())
	})

	t.Run("missing target is a filesystem error", func(t *testing.T) {
		err := ReplaceExecutable(filepath.Join(t.TempDir(), "absent"), []byte("new"))
		require.ErrorIs(t, err, gerrors.ErrFilesystem)
	})

	t.Run("failed rename removes the staged file", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "g")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))
		stubRename(t, func(string, string) error { return os.ErrPermission })

		err := ReplaceExecutable(target, []byte("new"))
		require.ErrorIs(t, err, gerrors.ErrFilesystem)
		require.Contains(t, err.Error(), "retry the update")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		data, err := os.ReadFile(target)
		require.NoError(t, err)
		require.Equal(t, "old", string(data))
	})
}

func TestAsideReplace(t *testing.T) {
	setup := func(t *testing.T) (staged, target string) {
		dir := t.TempDir()
		staged = filepath.Join(dir, ".g.new")
		target = filepath.Join(dir, "g")
		require.NoError(t, os.WriteFile(staged, []byte("new"), 0o600))
		require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))
		return staged, target
	}

	t.Run("installs and removes the aside copy", func(t *testing.T) {
		staged, target := setup(t)

		require.NoError(t, asideReplace(staged, target))

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		require.Equal(t, "new", string(data))
		require.NoFileExists(t, target+asideSuffix)
		require.NoFileExists(t, staged)
	})

	t.Run("restores the previous binary when install fails", func(t *testing.T) {
		staged, target := setup(t)
		stubRename(t, func(oldpath, newpath string) error {
			if oldpath == staged {
				return errors.New("sharing violation")
			}
			return os.Rename(oldpath, newpath)
		})

		err := asideReplace(staged, target)
		require.ErrorIs(t, err, gerrors.ErrFilesystem)

		var fsErr *gerrors.FilesystemError
		require.True(t, errors.As(err, &fsErr))
		require.Empty(t, fsErr.Recovery)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		require.Equal(t, "old", string(data))
	})

	t.Run("reports the aside copy when it cannot be restored", func(t *testing.T) {
		staged, target := setup(t)
		stubRename(t, func(oldpath, newpath string) error {
			if oldpath == target {
				return os.Rename(oldpath, newpath)
			}
			return errors.New("access denied")
		})

		err := asideReplace(staged, target)
		require.ErrorIs(t, err, gerrors.ErrFilesystem)

		var fsErr *gerrors.FilesystemError
		require.True(t, errors.As(err, &fsErr))
		require.Equal(t, target+asideSuffix, fsErr.Recovery)
		require.Contains(t, err.Error(), target+asideSuffix)
		require.FileExists(t, target+asideSuffix)
	})

	t.Run("stale aside copies are cleaned up", func(t *testing.T) {
		_, target := setup(t)
		require.NoError(t, os.WriteFile(target+asideSuffix, []byte("older"), 0o600))

		RemoveStaleAside(target)
		require.NoFileExists(t, target+asideSuffix)
	})
}

func TestResolveExecPath(t *testing.T) {
	dir := t.TempDir()
	resolved := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(resolved, []byte("x"), 0o600))

	origExec, origEval := osExecutable, evalSymlinks
	t.Cleanup(func() { osExecutable, evalSymlinks = origExec, origEval })

	osExecutable = func() (string, error) { return filepath.Join(dir, "link"), nil }
	evalSymlinks = func(string) (string, error) { return resolved, nil }

	got, err := resolveExecPath()
	require.NoError(t, err)
	require.Equal(t, resolved, got)

	osExecutable = func() (string, error) { return "", errors.New("unsupported") }
	_, err = resolveExecPath()
	require.ErrorIs(t, err, gerrors.ErrFilesystem)
}
