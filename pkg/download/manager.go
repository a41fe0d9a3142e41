// Package download fetches remote source artifacts over HTTP into local files.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/glorpus-work/todd/pkg/fsutil"
)

// Default transport settings.
const (
	DefaultUserAgent    = "todd/1.0"
	DefaultTimeout      = 10 * time.Minute
	DefaultRetries      = 3
	DefaultRetryWaitMin = 1 * time.Second
	DefaultRetryWaitMax = 30 * time.Second
)

// Manager downloads single URLs into place. Partial downloads never appear at the
// destination path: the body is written to a temporary file and renamed on success.
type Manager struct {
	client    *retryablehttp.Client
	userAgent string
}

// NewManager creates a download manager. retries is the number of additional attempts made
// after connection errors or 5xx responses; 0 means a single attempt.
func NewManager(timeout time.Duration, retries int, userAgent string) *Manager {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if retries < 0 {
		retries = 0
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = timeout
	client.RetryMax = retries
	client.RetryWaitMin = DefaultRetryWaitMin
	client.RetryWaitMax = DefaultRetryWaitMax
	client.Logger = nil

	return &Manager{
		client:    client,
		userAgent: userAgent,
	}
}

// SetRetryWait overrides the backoff bounds between attempts.
func (m *Manager) SetRetryWait(minWait, maxWait time.Duration) {
	m.client.RetryWaitMin = minWait
	m.client.RetryWaitMax = maxWait
}

// Fetch downloads rawURL and stores the body at dest.
func (m *Manager) Fetch(ctx context.Context, rawURL, dest string) error {
	if dest == "" || !filepath.IsAbs(dest) {
		return fmt.Errorf("download destination must be absolute: %s: %w", dest, errors.ErrInvalidPath)
	}

	resp, err := m.doRequest(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, err := writeBodyToTemp(resp.Body, dest)
	if err != nil {
		return err
	}
	if err := fsutil.Move(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "could not finalize file")
	}
	return nil
}

func (m *Manager) doRequest(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w: %w", rawURL, errors.ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", rawURL, errors.ErrDownloadFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: unexpected status code: %d: %w", rawURL, resp.StatusCode, errors.ErrDownloadFailed)
	}
	return resp, nil
}

func writeBodyToTemp(body io.Reader, dest string) (string, error) {
	if err := fsutil.EnsureFileDir(dest); err != nil {
		return "", errors.Wrap(err, "could not create download dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".dl-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", errors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}
