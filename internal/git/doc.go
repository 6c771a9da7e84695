// Package git resolves the change set g works on.
//
// Repository discovery and revision lookup use go-git; working tree diffs,
// status and commits go through the git CLI via a process.Runner, so they
// honour the user's git configuration:
//   - Opening the repository that contains a directory
//   - Resolving a base reference to a commit
//   - Listing changed and untracked files
//   - Committing formatter changes
package git
