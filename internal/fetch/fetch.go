// SPDX-License-Identifier: MPL-2.0

// Package fetch downloads source archives into the cache directory.
// Relative source URLs are resolved against the configured mirrors in
// order; the first mirror that yields an archive with the right checksum
// wins. Mirror ranking (geographic or otherwise) is the mirror list's
// responsibility, not this package's.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const defaultTimeout = 15 * time.Minute

type (
	// Client downloads archives over HTTP with mirror fallback.
	Client struct {
		httpClient *http.Client
		userAgent  string
		mirrors    []string
		log        *log.Logger
	}

	// ClientOption configures a Client.
	ClientOption func(*Client)
)

// WithHTTPClient overrides the HTTP client (tests inject a test server's
// client here).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithLogger sets the logger for download progress and mirror fallback
// warnings. The default discards output.
func WithLogger(l *log.Logger) ClientOption {
	return func(cl *Client) {
		cl.log = l
	}
}

// NewClient creates a Client that resolves relative source URLs against the
// given mirror base URLs in order.
func NewClient(mirrors []string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "graft/dev",
		mirrors:    mirrors,
		log:        log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candidates expands a source URL into the full list of locations to try.
// Absolute URLs are used as-is; relative paths are joined onto each mirror.
func (c *Client) candidates(rawURL string) ([]string, error) {
	if strings.Contains(rawURL, "://") {
		return []string{rawURL}, nil
	}

	if len(c.mirrors) == 0 {
		return nil, fmt.Errorf("relative source URL %q but no mirrors configured", rawURL)
	}

	urls := make([]string, 0, len(c.mirrors))
	for _, mirror := range c.mirrors {
		joined, err := url.JoinPath(mirror, rawURL)
		if err != nil {
			return nil, fmt.Errorf("failed to join mirror %q with %q: %w", mirror, rawURL, err)
		}
		urls = append(urls, joined)
	}
	return urls, nil
}

// Download fetches rawURL into destPath and verifies its SHA256 against
// sha256hex. Candidates are tried in order; a download or checksum failure
// on one candidate falls through to the next, and the last error is
// returned if all fail. The write is atomic: data lands in a temp file that
// is renamed into place only after the checksum matches.
func (c *Client) Download(ctx context.Context, rawURL, sha256hex, destPath string) error {
	urls, err := c.candidates(rawURL)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	var lastErr error
	for _, u := range urls {
		c.log.Debug("downloading", "url", u)
		if err := c.downloadOne(ctx, u, sha256hex, destPath); err != nil {
			// Cancellation is not a mirror problem; stop immediately.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("download failed, trying next mirror", "url", u, "err", err)
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("all download locations failed for %s: %w", rawURL, lastErr)
}

func (c *Client) downloadOne(ctx context.Context, u, sha256hex, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("download interrupted: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := VerifyFile(tmpPath, sha256hex); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move archive into cache: %w", err)
	}
	return nil
}

// IsChecksumFailure reports whether err stems from a checksum mismatch
// rather than a transport problem.
func IsChecksumFailure(err error) bool {
	return errors.Is(err, ErrChecksumMismatch)
}
