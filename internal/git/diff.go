package git

import (
	"context"
	"fmt"
	"strings"

	gerrors "github.com/SirVer/giti/internal/errors"
)

// Status is the change type of a file relative to the base reference
type Status int

const (
	StatusModified Status = iota
	StatusAdded
	StatusDeleted
	StatusRenamed
)

func (s Status) String() string {
	switch s {
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// ChangedFile is one entry of the change set. From is only set for renames.
type ChangedFile struct {
	Path   string
	Status Status
	From   string
}

// ChangedFiles returns the files that differ between the working tree (staged
// and unstaged changes included) and base, in git's output order.
func (r *Repo) ChangedFiles(ctx context.Context, base string) ([]ChangedFile, error) {
	if _, err := r.ResolveRef(ctx, base); err != nil {
		return nil, err
	}

	out, err := r.git(ctx, "diff", "--name-status", "-z", "-M", "--no-color", "--no-ext-diff", base, "--")
	if err != nil {
		return nil, err
	}

	files, err := ParseNameStatus(out)
	if err != nil {
		return nil, gerrors.NewVcsError(base, "failed to parse diff", err)
	}
	return files, nil
}

// UntrackedFiles returns untracked files that are not ignored, as additions
func (r *Repo) UntrackedFiles(ctx context.Context) ([]ChangedFile, error) {
	out, err := r.git(ctx, "ls-files", "--others", "--exclude-standard", "-z")
	if err != nil {
		return nil, err
	}

	var files []ChangedFile
	for _, p := range strings.Split(out, "\x00") {
		if p == "" {
			continue
		}
		files = append(files, ChangedFile{Path: p, Status: StatusAdded})
	}
	return files, nil
}

// ParseNameStatus parses the output of `git diff --name-status -z`.
// Each record is a status tag followed by one path, or two for renames and copies.
func ParseNameStatus(out string) ([]ChangedFile, error) {
	fields := strings.Split(out, "\x00")
	// -z output is NUL terminated, which leaves one empty trailing field
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}

	var files []ChangedFile
	for i := 0; i < len(fields); {
		tag := fields[i]
		if tag == "" {
			return nil, fmt.Errorf("empty status at field %d", i)
		}
		i++

		switch tag[0] {
		case 'R', 'C':
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("truncated %s record", tag)
			}
			from, to := fields[i], fields[i+1]
			i += 2
			if tag[0] == 'C' {
				files = append(files, ChangedFile{Path: to, Status: StatusAdded})
				continue
			}
			files = append(files, ChangedFile{Path: to, Status: StatusRenamed, From: from})
		case 'A', 'M', 'D', 'T', 'U':
			if i >= len(fields) {
				return nil, fmt.Errorf("truncated %s record", tag)
			}
			path := fields[i]
			i++
			files = append(files, ChangedFile{Path: path, Status: statusFromTag(tag[0])})
		default:
			return nil, fmt.Errorf("unexpected status %q", tag)
		}
	}
	return files, nil
}

func statusFromTag(tag byte) Status {
	switch tag {
	case 'A':
		return StatusAdded
	case 'D':
		return StatusDeleted
	default:
		// T (type change) and U (unmerged) still leave a file to format
		return StatusModified
	}
}
