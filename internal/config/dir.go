package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// FileName is the name of the configuration file inside Dir
const FileName = "config.yaml"

// Dir returns the g configuration directory.
//
// Resolution:
//   - $G_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/g if set (respects XDG on any platform)
//   - %AppData%/g on Windows
//   - ~/.config/g on macOS and Linux
func Dir() string {
	if dir := os.Getenv("G_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "g")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "g")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "g")
}

// Path returns the configuration file path, or "" if no directory can be determined
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, FileName)
}
