// Package fix formats the files of a change set with external formatters.
//
// Formatters are selected from a flat, ordered rule table. The first rule whose
// pattern matches a file wins; files no rule claims are skipped.
package fix

import (
	"fmt"
	"path"
	"strings"
)

// FileToken is replaced by the file path (or all paths, for batch rules) in Rule.Args
const FileToken = "{file}"

// Rule maps path patterns to a formatter command
type Rule struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
	Command  string   `yaml:"command"`
	Args     []string `yaml:"args"`
	// Batch rules accept many files in one invocation
	Batch bool `yaml:"batch"`
}

// DefaultRules is the built-in formatter table
var DefaultRules = []Rule{
	{
		Name:     "clang-format",
		Patterns: []string{"*.h", "*.cc", "*.cpp", "*.proto"},
		Command:  "clang-format",
		Args:     []string{"-i", "-sort-includes", "-style=Google", FileToken},
	},
	{
		Name:     "rustfmt",
		Patterns: []string{"*.rs"},
		Command:  "rustfmt",
		Args:     []string{FileToken},
		Batch:    true,
	},
	{
		Name:     "buildifier",
		Patterns: []string{"BUILD", "BUILD.bazel", "*.BUILD", "*.bzl", "WORKSPACE"},
		Command:  "buildifier",
		Args:     []string{FileToken},
		Batch:    true,
	},
	{
		Name:     "gofmt",
		Patterns: []string{"*.go"},
		Command:  "gofmt",
		Args:     []string{"-w", FileToken},
		Batch:    true,
	},
}

// Validate checks that the rule can be matched and invoked
func (r Rule) Validate() error {
	if r.Command == "" {
		return fmt.Errorf("formatter rule %q has no command", r.Name)
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("formatter rule %q has no patterns", r.displayName())
	}
	for _, p := range r.Patterns {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("formatter rule %q: bad pattern %q: %w", r.displayName(), p, err)
		}
	}
	return nil
}

// Matches reports whether file (a slash separated, repository relative path)
// is claimed by this rule. Patterns without a slash match the base name only.
func (r Rule) Matches(file string) bool {
	for _, p := range r.Patterns {
		target := path.Base(file)
		if strings.Contains(p, "/") {
			target = file
		}
		if ok, _ := path.Match(p, target); ok {
			return true
		}
	}
	return false
}

// Argv expands the argument template for the given files
func (r Rule) Argv(files []string) []string {
	args := make([]string, 0, len(r.Args)+len(files))
	substituted := false
	for _, a := range r.Args {
		if a == FileToken {
			args = append(args, files...)
			substituted = true
			continue
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, files...)
	}
	return args
}

func (r Rule) displayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Command
}

// Lookup returns the index of the first rule matching file, or -1
func Lookup(rules []Rule, file string) int {
	for i, r := range rules {
		if r.Matches(file) {
			return i
		}
	}
	return -1
}
