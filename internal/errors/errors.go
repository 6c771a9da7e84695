// Package errors provides sentinel errors and custom error types for g.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error kinds g distinguishes
var (
	// ErrVcs indicates the base reference is invalid or a git command failed
	ErrVcs = errors.New("version control error")

	// ErrFormatterMissing indicates a formatter executable is not on the search path
	ErrFormatterMissing = errors.New("formatter not found")

	// ErrFormatterFailed indicates a formatter exited non-zero or timed out
	ErrFormatterFailed = errors.New("formatter failed")

	// ErrNetwork indicates the release host could not be reached
	ErrNetwork = errors.New("network error")

	// ErrNotFound indicates that no published release or asset exists
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedPlatform indicates the release has no build for this platform
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrIntegrity indicates a downloaded payload failed verification
	ErrIntegrity = errors.New("integrity check failed")

	// ErrFilesystem indicates a permission or rename failure while swapping the binary
	ErrFilesystem = errors.New("filesystem error")
)

// CommandError represents a failed external command
type CommandError struct {
	Command  string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int // -1 when the process never started or was killed
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", strings.TrimSpace(e.Stderr))
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError
func NewCommandError(command string, args []string, stdout, stderr string, exitCode int, err error) *CommandError {
	return &CommandError{
		Command:  command,
		Args:     args,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Err:      err,
	}
}

// VcsError represents a failure to resolve the change set
type VcsError struct {
	Ref     string
	Message string
	Err     error
}

func (e *VcsError) Error() string {
	msg := e.Message
	if e.Ref != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Ref)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *VcsError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrVcs
func (e *VcsError) Is(target error) bool {
	return target == ErrVcs
}

// NewVcsError creates a new VcsError
func NewVcsError(ref, message string, err error) *VcsError {
	return &VcsError{Ref: ref, Message: message, Err: err}
}

// FormatterError represents a formatter invocation that did not succeed
type FormatterError struct {
	Command  string
	ExitCode int
	Stderr   string
	Missing  bool
	TimedOut bool
	Err      error
}

func (e *FormatterError) Error() string {
	switch {
	case e.Missing:
		return fmt.Sprintf("%s not found in PATH", e.Command)
	case e.TimedOut:
		return fmt.Sprintf("%s timed out", e.Command)
	}
	msg := fmt.Sprintf("%s exited with %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *FormatterError) Unwrap() error {
	return e.Err
}

// Is returns true for ErrFormatterMissing when the binary was missing and
// ErrFormatterFailed otherwise
func (e *FormatterError) Is(target error) bool {
	if e.Missing {
		return target == ErrFormatterMissing
	}
	return target == ErrFormatterFailed
}

// NetworkError represents a connectivity failure talking to the release host
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrNetwork
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(url string, err error) *NetworkError {
	return &NetworkError{URL: url, Err: err}
}

// NotFoundError represents a missing release or asset
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.What)
}

// Is returns true if the target error is ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(what string) *NotFoundError {
	return &NotFoundError{What: what}
}

// UnsupportedPlatformError represents a release without a build for this platform
type UnsupportedPlatformError struct {
	Platform  string
	Available []string
}

func (e *UnsupportedPlatformError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no release build for %s", e.Platform)
	}
	return fmt.Sprintf("no release build for %s (available: %s)", e.Platform, strings.Join(e.Available, ", "))
}

// Is returns true if the target error is ErrUnsupportedPlatform
func (e *UnsupportedPlatformError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}

// IntegrityError represents a downloaded payload that failed verification
type IntegrityError struct {
	Reason string
	Err    error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity check failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("integrity check failed: %s", e.Reason)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrIntegrity
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// NewIntegrityError creates a new IntegrityError
func NewIntegrityError(reason string, err error) *IntegrityError {
	return &IntegrityError{Reason: reason, Err: err}
}

// FilesystemError represents a failure while replacing the executable.
// Recovery names a file the user can restore by hand, if one was left behind.
type FilesystemError struct {
	Op       string
	Path     string
	Recovery string
	Err      error
}

func (e *FilesystemError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	if e.Recovery != "" {
		msg += fmt.Sprintf("\nthe previous binary was kept at %s; move it back to %s to restore it", e.Recovery, e.Path)
	} else {
		msg += "\nretry the update, or download the release and replace the binary manually"
	}
	return msg
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrFilesystem
func (e *FilesystemError) Is(target error) bool {
	return target == ErrFilesystem
}

// NewFilesystemError creates a new FilesystemError
func NewFilesystemError(op, path string, err error) *FilesystemError {
	return &FilesystemError{Op: op, Path: path, Err: err}
}
