//go:build !windows

package selfupdate

import (
	gerrors "github.com/SirVer/giti/internal/errors"
)

// replaceFile renames staged over target in a single step
func replaceFile(staged, target string) error {
	if err := rename(staged, target); err != nil {
		return gerrors.NewFilesystemError("replace", target, err)
	}
	return nil
}
