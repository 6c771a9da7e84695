package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/SirVer/giti/internal/runtime"
	"github.com/SirVer/giti/internal/selfupdate"
	"github.com/SirVer/giti/internal/tui"
)

type updateOptions struct {
	Version string
	Yes     bool
}

// newUpdater builds an Updater for the configured release repository
func newUpdater(ctx *runtime.Context, version string) (*selfupdate.Updater, error) {
	cfg := ctx.Config

	httpClient, err := selfupdate.NewHTTPClient(selfupdate.HTTPOptions{
		Timeout:  time.Duration(cfg.Update.Timeout),
		CABundle: os.Getenv("G_CA_BUNDLE"),
	})
	if err != nil {
		return nil, err
	}

	owner, repo, err := cfg.UpdateRepo()
	if err != nil {
		return nil, err
	}

	clientOpts := []selfupdate.ClientOption{
		selfupdate.WithHTTPClient(httpClient),
		selfupdate.WithRepo(owner, repo),
		selfupdate.WithToken(os.Getenv("GITHUB_TOKEN")),
		selfupdate.WithRetries(cfg.UpdateRetries(), 0),
		selfupdate.WithClientLogger(ctx.Splog),
	}
	if cfg.Update.APIURL != "" {
		clientOpts = append(clientOpts, selfupdate.WithBaseURL(cfg.Update.APIURL))
	}
	client, err := selfupdate.NewGitHubClient(clientOpts...)
	if err != nil {
		return nil, err
	}

	return selfupdate.NewUpdater(client, version, selfupdate.WithUpdaterLogger(ctx.Splog)), nil
}

// runUpdate replaces the running binary with the latest release, if newer
func runUpdate(ctx *runtime.Context, opts updateOptions) error {
	updater, err := newUpdater(ctx, opts.Version)
	if err != nil {
		return updateFailed(ctx, err)
	}

	check, err := updater.Check(ctx)
	if err != nil {
		return updateFailed(ctx, err)
	}
	if !check.UpdateAvailable {
		ctx.Splog.Info("%s g %s is up to date.", tui.ColorGreen("✓"), check.CurrentVersion)
		return nil
	}

	if !opts.Yes && tui.InteractiveAllowed() {
		ok, err := tui.Confirm(fmt.Sprintf("Update g from %s to %s?", check.CurrentVersion, check.LatestVersion), true)
		if err != nil {
			if errors.Is(err, tui.ErrCanceled) {
				ctx.Splog.Info("Update canceled.")
				return &ExitError{Code: ExitFailure, Cause: err, Silent: true}
			}
			return updateFailed(ctx, err)
		}
		if !ok {
			ctx.Splog.Info("Update skipped, still running %s.", check.CurrentVersion)
			return nil
		}
	}

	outcome, err := updater.Apply(ctx, check)
	if err != nil {
		return updateFailed(ctx, err)
	}

	ctx.Splog.Info("%s Updated g from %s to %s.", tui.ColorGreen("✓"), outcome.PreviousVersion, outcome.NewVersion)
	return nil
}

// updateFailed prints the failure line and returns the error with exit code 1
func updateFailed(ctx *runtime.Context, err error) error {
	ctx.Splog.Error("Update failed: %v", err)
	return &ExitError{Code: ExitFailure, Cause: err, Silent: true}
}
