package testhelpers

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"gopkg.in/yaml.v3"
)

// WriteConfig writes values as the g configuration file under $G_CONFIG_HOME,
// which NewScene points at a temporary directory.
func WriteConfig(t *testing.T, values map[string]any) string {
	t.Helper()

	dir := os.Getenv("G_CONFIG_HOME")
	if dir == "" {
		t.Fatal("G_CONFIG_HOME is not set, create a scene first")
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// AppendRule returns a formatter rule for WriteConfig that appends line to
// every file it is given, using the POSIX shell
func AppendRule(name, pattern, line string) map[string]any {
	return map[string]any{
		"name":     name,
		"patterns": []string{pattern},
		"command":  "sh",
		"args":     []string{"-c", `echo "` + line + `" >> "$0"`, "{file}"},
	}
}

// FailingRule returns a formatter rule for WriteConfig that exits with code
func FailingRule(name, pattern string, code int) map[string]any {
	return map[string]any{
		"name":     name,
		"patterns": []string{pattern},
		"command":  "sh",
		"args":     []string{"-c", "echo broken >&2; exit " + strconv.Itoa(code), "{file}"},
	}
}
