package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"

	gerrors "github.com/SirVer/giti/internal/errors"
)

// ErrInvalidVersion indicates a version string is not valid semver.
var ErrInvalidVersion = errors.New("invalid semantic version")

// UpdateCheck holds the result of comparing the running version with the latest release
type UpdateCheck struct {
	CurrentVersion  string
	LatestVersion   string
	Release         *ReleaseInfo
	AssetURL        string // download URL for this platform, set when UpdateAvailable
	UpdateAvailable bool
}

// UpdateOutcome reports what an update did. Replaced is false when the
// running binary was already up to date.
type UpdateOutcome struct {
	PreviousVersion string
	NewVersion      string
	Replaced        bool
}

// UpToDate reports whether no replacement was necessary
func (o *UpdateOutcome) UpToDate() bool {
	return !o.Replaced
}

// Updater composes a ReleaseClient, payload verification and the executable
// swap into an end-to-end update.
type Updater struct {
	client         ReleaseClient
	currentVersion string
	execPath       string
	goos           string
	goarch         string
	binary         string
	log            Logger
}

// UpdaterOption configures an Updater during construction.
type UpdaterOption func(*Updater)

// WithExecutablePath replaces the binary at path instead of the running one
func WithExecutablePath(path string) UpdaterOption {
	return func(u *Updater) {
		u.execPath = path
	}
}

// WithPlatform overrides the platform whose build is selected
func WithPlatform(goos, goarch string) UpdaterOption {
	return func(u *Updater) {
		u.goos = goos
		u.goarch = goarch
	}
}

// WithUpdaterLogger sets the logger for progress diagnostics
func WithUpdaterLogger(log Logger) UpdaterOption {
	return func(u *Updater) {
		if log != nil {
			u.log = log
		}
	}
}

// NewUpdater creates an Updater for a binary running currentVersion
func NewUpdater(client ReleaseClient, currentVersion string, opts ...UpdaterOption) *Updater {
	u := &Updater{
		client:         client,
		currentVersion: currentVersion,
		goos:           runtime.GOOS,
		goarch:         runtime.GOARCH,
		binary:         DefaultBinaryName,
		log:            nopLogger{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update checks for a newer release and installs it. Calling it again once up
// to date downloads nothing and leaves the executable alone.
func (u *Updater) Update(ctx context.Context) (*UpdateOutcome, error) {
	check, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}
	return u.Apply(ctx, check)
}

// Check fetches the latest release and decides whether it is strictly newer
// than the running version and has a build for this platform.
func (u *Updater) Check(ctx context.Context) (*UpdateCheck, error) {
	current, err := normalizeVersion(u.currentVersion)
	if err != nil {
		return nil, fmt.Errorf("running version cannot be updated: %w", err)
	}

	release, err := u.client.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := normalizeVersion(release.Version)
	if err != nil {
		return nil, fmt.Errorf("latest release: %w", err)
	}

	check := &UpdateCheck{
		CurrentVersion: displayVersion(current),
		LatestVersion:  displayVersion(latest),
		Release:        release,
	}
	if semver.Compare(latest, current) <= 0 {
		u.log.Debug("Running %s, latest release is %s", current, latest)
		return check, nil
	}

	platform := PlatformKey(u.goos, u.goarch)
	assetURL, ok := release.Assets[platform]
	if !ok {
		return nil, &gerrors.UnsupportedPlatformError{
			Platform:  platform,
			Available: release.Platforms(),
		}
	}

	check.AssetURL = assetURL
	check.UpdateAvailable = true
	return check, nil
}

// Apply downloads, verifies and installs the release found by Check. Nothing
// on disk changes unless the payload passed verification.
func (u *Updater) Apply(ctx context.Context, check *UpdateCheck) (*UpdateOutcome, error) {
	if check == nil {
		return nil, errors.New("update check must not be nil")
	}

	outcome := &UpdateOutcome{
		PreviousVersion: check.CurrentVersion,
		NewVersion:      check.CurrentVersion,
	}
	if !check.UpdateAvailable {
		return outcome, nil
	}

	target := u.execPath
	if target == "" {
		resolved, err := resolveExecPath()
		if err != nil {
			return nil, err
		}
		target = resolved
	}
	RemoveStaleAside(target)

	name := assetName(check.AssetURL)
	payload, err := u.client.Download(ctx, check.AssetURL)
	if err != nil {
		return nil, err
	}

	if check.Release.ChecksumsURL != "" {
		checksums, err := u.client.Download(ctx, check.Release.ChecksumsURL)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", checksumsAsset, err)
		}
		if err := verifyAgainstChecksums(checksums, name, payload); err != nil {
			return nil, err
		}
	}

	exe, err := ExtractExecutable(name, payload, u.binary)
	if err != nil {
		return nil, err
	}

	u.log.Debug("Replacing %s with %s (%d bytes)", target, name, len(exe))
	if err := ReplaceExecutable(target, exe); err != nil {
		return nil, err
	}

	outcome.NewVersion = check.LatestVersion
	outcome.Replaced = true
	return outcome, nil
}

// normalizeVersion ensures the version string has a "v" prefix as required by
// the semver package, and validates that the result is a well-formed semantic
// version.
func normalizeVersion(v string) (string, error) {
	norm := strings.TrimSpace(v)
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return norm, nil
}

// displayVersion drops the "v" prefix so both ends of an update read alike
func displayVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}
