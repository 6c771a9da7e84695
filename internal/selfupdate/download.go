package selfupdate

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	gerrors "github.com/SirVer/giti/internal/errors"
)

const (
	// DefaultHTTPTimeout bounds every request to the release host
	DefaultHTTPTimeout = 2 * time.Minute

	// maxAssetBytes is the upper bound on a downloaded asset (500 MB).
	maxAssetBytes = 500 << 20
)

// HTTPOptions configures the client used for release traffic
type HTTPOptions struct {
	Timeout time.Duration
	// CABundle is a PEM file whose certificates replace the system roots
	CABundle string
}

// NewHTTPClient builds an HTTP client honouring opts
func NewHTTPClient(opts HTTPOptions) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if opts.CABundle != "" {
		pem, err := os.ReadFile(opts.CABundle)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("CA bundle %s contains no PEM certificates", opts.CABundle)
		}
		transport.TLSClientConfig = &tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// Download fetches the asset at url. Zero-size payloads and truncated
// transfers are IntegrityErrors; connectivity failures are NetworkErrors.
func (c *GitHubClient) Download(ctx context.Context, url string) ([]byte, error) {
	var payload []byte
	op := func() error {
		data, err := c.downloadOnce(ctx, url)
		if err != nil {
			return err
		}
		payload = data
		return nil
	}

	if err := c.retry(ctx, op); err != nil {
		return nil, err
	}
	c.log.Debug("Downloaded %s (%d bytes)", assetName(url), len(payload))
	return payload, nil
}

func (c *GitHubClient) downloadOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(gerrors.NewNetworkError(url, fmt.Errorf("creating request: %w", err)))
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(gerrors.NewNetworkError(url, ctx.Err()))
		}
		return nil, gerrors.NewNetworkError(url, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(gerrors.NewNotFoundError("release asset " + assetName(url)))
	case resp.StatusCode >= 500:
		return nil, gerrors.NewNetworkError(url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(gerrors.NewNetworkError(url, fmt.Errorf("unexpected status %d", resp.StatusCode)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(gerrors.NewNetworkError(url, ctx.Err()))
		}
		return nil, gerrors.NewIntegrityError("truncated transfer of "+assetName(url), err)
	}

	switch {
	case len(data) > maxAssetBytes:
		return nil, backoff.Permanent(gerrors.NewIntegrityError(fmt.Sprintf("%s exceeds %d bytes", assetName(url), maxAssetBytes), nil))
	case resp.ContentLength >= 0 && int64(len(data)) != resp.ContentLength:
		return nil, gerrors.NewIntegrityError(
			fmt.Sprintf("truncated transfer of %s: got %d of %d bytes", assetName(url), len(data), resp.ContentLength), nil)
	case len(data) == 0:
		return nil, backoff.Permanent(gerrors.NewIntegrityError(assetName(url)+" is empty", nil))
	}
	return data, nil
}
