// Package selfupdate replaces the running g binary with the latest published
// release.
//
// The package is organized into four concerns:
//   - release.go, download.go: GitHub releases API and asset transfer
//   - archive.go, checksum.go: payload verification
//   - swap*.go: on-disk replacement of the executable
//   - updater.go: the Check/Apply flow composing the above
package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	gerrors "github.com/SirVer/giti/internal/errors"
)

const (
	// DefaultOwner and DefaultRepo name the repository releases are published to
	DefaultOwner = "SirVer"
	DefaultRepo  = "giti"

	// DefaultBinaryName is the asset name prefix of release builds
	DefaultBinaryName = "g"

	// DefaultRetries bounds retries of transient network failures
	DefaultRetries = 3

	checksumsAsset = "checksums.txt"
)

// ReleaseInfo describes the newest published release
type ReleaseInfo struct {
	Version string
	// Assets maps a platform key ("<goos>_<goarch>") to a download URL
	Assets       map[string]string
	ChecksumsURL string
}

// Platforms returns the sorted platform keys with a published build
func (r *ReleaseInfo) Platforms() []string {
	keys := make([]string, 0, len(r.Assets))
	for k := range r.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PlatformKey builds the key used in ReleaseInfo.Assets
func PlatformKey(goos, goarch string) string {
	return goos + "_" + goarch
}

// ReleaseClient fetches release metadata and assets
type ReleaseClient interface {
	LatestRelease(ctx context.Context) (*ReleaseInfo, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Logger receives debug output about retries and transfers
type Logger interface {
	Debug(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}

// GitHubClient implements ReleaseClient on top of the GitHub releases API
type GitHubClient struct {
	api           *github.Client
	httpClient    *http.Client // unauthenticated, used for asset downloads
	owner         string
	repo          string
	binary        string
	baseURL       string
	token         string
	retries       int
	retryInterval time.Duration
	log           Logger
}

// ClientOption configures a GitHubClient during construction.
type ClientOption func(*GitHubClient)

// WithHTTPClient sets the HTTP client carrying timeouts and TLS configuration
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *GitHubClient) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the GitHub API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(g *GitHubClient) {
		g.baseURL = base
	}
}

// WithToken sets a GitHub token for API requests. It is never sent with asset downloads.
func WithToken(token string) ClientOption {
	return func(g *GitHubClient) {
		g.token = token
	}
}

// WithRepo overrides the default repository owner and name.
func WithRepo(owner, repo string) ClientOption {
	return func(g *GitHubClient) {
		g.owner = owner
		g.repo = repo
	}
}

// WithBinaryName sets the asset name prefix to look for
func WithBinaryName(name string) ClientOption {
	return func(g *GitHubClient) {
		g.binary = name
	}
}

// WithRetries sets how often transient failures are retried, and the initial wait between attempts
func WithRetries(retries int, interval time.Duration) ClientOption {
	return func(g *GitHubClient) {
		g.retries = retries
		if interval > 0 {
			g.retryInterval = interval
		}
	}
}

// WithClientLogger sets the logger for retry diagnostics
func WithClientLogger(log Logger) ClientOption {
	return func(g *GitHubClient) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGitHubClient creates a GitHubClient for the default repository unless overridden
func NewGitHubClient(opts ...ClientOption) (*GitHubClient, error) {
	c := &GitHubClient{
		httpClient:    &http.Client{Timeout: DefaultHTTPTimeout},
		owner:         DefaultOwner,
		repo:          DefaultRepo,
		binary:        DefaultBinaryName,
		retries:       DefaultRetries,
		retryInterval: 500 * time.Millisecond,
		log:           nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}

	apiClient := c.httpClient
	if c.token != "" {
		// The oauth2 transport wraps the configured client's transport
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token})
		apiClient = oauth2.NewClient(ctx, ts)
		apiClient.Timeout = c.httpClient.Timeout
	}

	c.api = github.NewClient(apiClient)
	if c.baseURL != "" {
		base := c.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL %q: %w", c.baseURL, err)
		}
		c.api.BaseURL = u
	}

	return c, nil
}

// LatestRelease fetches the newest non-draft, non-prerelease release
func (c *GitHubClient) LatestRelease(ctx context.Context) (*ReleaseInfo, error) {
	var release *github.RepositoryRelease
	op := func() error {
		rel, resp, err := c.api.Repositories.GetLatestRelease(ctx, c.owner, c.repo)
		if err != nil {
			return c.classifyAPIError(ctx, resp, err)
		}
		release = rel
		return nil
	}

	if err := c.retry(ctx, op); err != nil {
		return nil, err
	}

	info := &ReleaseInfo{
		Version: release.GetTagName(),
		Assets:  make(map[string]string),
	}
	for _, asset := range release.Assets {
		name := asset.GetName()
		downloadURL := asset.GetBrowserDownloadURL()
		if name == checksumsAsset {
			info.ChecksumsURL = downloadURL
			continue
		}
		if key, ok := platformFromAssetName(name, c.binary); ok {
			info.Assets[key] = downloadURL
		}
	}
	c.log.Debug("Latest release of %s/%s is %s with %d platform builds", c.owner, c.repo, info.Version, len(info.Assets))
	return info, nil
}

// classifyAPIError maps go-github failures to the error kinds callers distinguish.
// Errors that retrying cannot fix are marked permanent.
func (c *GitHubClient) classifyAPIError(ctx context.Context, resp *github.Response, err error) error {
	endpoint := fmt.Sprintf("%srepos/%s/%s/releases/latest", c.api.BaseURL, c.owner, c.repo)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return backoff.Permanent(gerrors.NewNetworkError(endpoint, ctxErr))
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return backoff.Permanent(gerrors.NewNetworkError(endpoint,
			fmt.Errorf("GitHub API rate limit exceeded, resets at %s", rateErr.Rate.Reset.UTC().Format("15:04 UTC"))))
	}

	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(gerrors.NewNotFoundError(fmt.Sprintf("published release of %s/%s", c.owner, c.repo)))
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(gerrors.NewNetworkError(endpoint, err))
		}
	}
	return gerrors.NewNetworkError(endpoint, err)
}

// retry runs op with exponential backoff, bounded by the configured retry count
func (c *GitHubClient) retry(ctx context.Context, op backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = 0

	retries := c.retries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	return backoff.RetryNotify(op, policy, func(err error, wait time.Duration) {
		c.log.Debug("Retrying in %s after: %v", wait.Round(time.Millisecond), err)
	})
}

// platformFromAssetName extracts "<goos>_<goarch>" from names like
// g_1.3.0_linux_amd64.tar.gz or g_darwin_arm64.
func platformFromAssetName(name, binary string) (string, bool) {
	base := strings.ToLower(path.Base(name))
	for _, ext := range []string{".tar.gz", ".tgz", ".zip", ".exe"} {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}

	prefix := strings.ToLower(binary) + "_"
	if !strings.HasPrefix(base, prefix) {
		return "", false
	}

	parts := strings.Split(strings.TrimPrefix(base, prefix), "_")
	if len(parts) < 2 {
		return "", false
	}
	goos, goarch := parts[len(parts)-2], parts[len(parts)-1]
	if goos == "" || goarch == "" {
		return "", false
	}
	return PlatformKey(goos, goarch), true
}

// assetName returns the file name a download URL points at
func assetName(downloadURL string) string {
	if u, err := url.Parse(downloadURL); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(downloadURL)
}
