//go:build windows

package selfupdate

// replaceFile moves the running binary aside before installing staged
func replaceFile(staged, target string) error {
	return asideReplace(staged, target)
}
