package selfupdate

import (
	"fmt"
	"os"
	"path/filepath"

	gerrors "github.com/SirVer/giti/internal/errors"
)

// asideSuffix names the copy of the previous binary kept while it is being replaced
const asideSuffix = ".old"

var (
	//nolint:gochecknoglobals // Test seam for os.Rename().
	rename = os.Rename

	//nolint:gochecknoglobals // Test seam for os.Executable().
	osExecutable = os.Executable

	//nolint:gochecknoglobals // Test seam for filepath.EvalSymlinks().
	evalSymlinks = filepath.EvalSymlinks
)

// ReplaceExecutable atomically replaces the file at target with payload,
// keeping target's permissions. Observers see either the old or the new file
// in full, never a partial write.
func ReplaceExecutable(target string, payload []byte) error {
	info, err := os.Stat(target)
	if err != nil {
		return gerrors.NewFilesystemError("stat", target, err)
	}

	staged, err := stageNextTo(target, payload, info.Mode().Perm())
	if err != nil {
		return err
	}

	if err := replaceFile(staged, target); err != nil {
		_ = os.Remove(staged)
		return err
	}
	return nil
}

// stageNextTo writes payload to a temp file in target's directory, so the
// final rename never crosses a filesystem boundary.
func stageNextTo(target string, payload []byte, perm os.FileMode) (_ string, err error) {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".new-*")
	if err != nil {
		return "", gerrors.NewFilesystemError("create temp file in", dir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(payload); err != nil {
		return "", gerrors.NewFilesystemError("write", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return "", gerrors.NewFilesystemError("sync", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return "", gerrors.NewFilesystemError("close", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return "", gerrors.NewFilesystemError("chmod", tmp.Name(), err)
	}
	return tmp.Name(), nil
}

// asideReplace installs staged at target for platforms that cannot rename over
// a running executable: target moves to target.old, staged moves in, and the
// aside copy is removed once the new file is confirmed. If installing fails,
// the aside copy is moved back, or left in place and named in the error.
func asideReplace(staged, target string) error {
	aside := target + asideSuffix
	_ = os.Remove(aside)

	if err := rename(target, aside); err != nil {
		return gerrors.NewFilesystemError("move aside", target, err)
	}

	installErr := rename(staged, target)
	if installErr == nil {
		if _, statErr := os.Stat(target); statErr != nil {
			installErr = fmt.Errorf("new binary missing after rename: %w", statErr)
		}
	}
	if installErr != nil {
		fsErr := gerrors.NewFilesystemError("install", target, installErr)
		if restoreErr := rename(aside, target); restoreErr != nil {
			fsErr.Recovery = aside
		}
		return fsErr
	}

	// A running image stays locked on Windows; RemoveStaleAside retries later.
	_ = os.Remove(aside)
	return nil
}

// RemoveStaleAside deletes a previous binary left behind by an earlier update
func RemoveStaleAside(target string) {
	_ = os.Remove(target + asideSuffix)
}

// resolveExecPath returns the absolute, symlink-resolved path to the currently
// running binary.
func resolveExecPath() (string, error) {
	p, err := osExecutable()
	if err != nil {
		return "", gerrors.NewFilesystemError("locate", "running executable", err)
	}

	resolved, err := evalSymlinks(p)
	if err != nil {
		return "", gerrors.NewFilesystemError("resolve symlinks for", p, err)
	}
	return resolved, nil
}
