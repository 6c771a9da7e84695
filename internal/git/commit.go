package git

import (
	"context"
	"strings"
)

// DirtyFiles returns tracked files with uncommitted modifications, as reported
// by `git status --porcelain -uno`.
func (r *Repo) DirtyFiles(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "status", "--porcelain", "-z", "-uno")
	if err != nil {
		return nil, err
	}

	var files []string
	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if len(entry) < 4 {
			continue
		}
		files = append(files, entry[3:])
		// Renames carry the original path as an extra field
		if entry[0] == 'R' || entry[0] == 'C' {
			i++
		}
	}
	return files, nil
}

// CommitAll commits every modified tracked file with message
func (r *Repo) CommitAll(ctx context.Context, message string) error {
	_, err := r.git(ctx, "commit", "-a", "-m", message)
	return err
}
