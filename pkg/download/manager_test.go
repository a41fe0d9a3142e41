package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glorpus-work/todd/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	tests := []struct {
		name       string
		timeout    time.Duration
		retries    int
		userAgent  string
		expectedUA string
		expectedRe int
	}{
		{
			name:       "default user agent",
			timeout:    time.Second,
			retries:    2,
			expectedUA: DefaultUserAgent,
			expectedRe: 2,
		},
		{
			name:       "custom user agent and negative retries",
			timeout:    2 * time.Second,
			retries:    -1,
			userAgent:  "test-agent/1.0",
			expectedUA: "test-agent/1.0",
			expectedRe: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.timeout, tt.retries, tt.userAgent)
			require.NotNil(t, m)
			assert.Equal(t, tt.timeout, m.client.HTTPClient.Timeout)
			assert.Equal(t, tt.expectedRe, m.client.RetryMax)
			assert.Equal(t, tt.expectedUA, m.userAgent)
		})
	}
}

func TestFetch_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("test content"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "sub", "zlib-1.tar.gz")
	m := NewManager(time.Second, 0, "test")

	require.NoError(t, m.Fetch(context.Background(), server.URL+"/zlib-1.tar.gz", dest))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "test content", string(content))
	assert.Equal(t, "test", gotUA)

	entries, err := os.ReadDir(filepath.Dir(dest))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed away")
}

func TestFetch_ErrorStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		expectError string
	}{
		{name: "not found", status: http.StatusNotFound, expectError: "unexpected status code: 404"},
		{name: "bad request", status: http.StatusBadRequest, expectError: "unexpected status code: 400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			dest := filepath.Join(t.TempDir(), "file")
			m := NewManager(time.Second, 0, "test")

			err := m.Fetch(context.Background(), server.URL, dest)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrDownloadFailed)
			assert.Contains(t, err.Error(), tt.expectError)
			assert.NoFileExists(t, dest)
		})
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("eventually"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "file")
	m := NewManager(time.Second, 3, "test")
	m.SetRetryWait(time.Millisecond, 5*time.Millisecond)

	require.NoError(t, m.Fetch(context.Background(), server.URL, dest))
	assert.Equal(t, int32(3), calls.Load())

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "eventually", string(content))
}

func TestFetch_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := NewManager(time.Second, 1, "test")
	m.SetRetryWait(time.Millisecond, time.Millisecond)

	err := m.Fetch(context.Background(), server.URL, filepath.Join(t.TempDir(), "file"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDownloadFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_RelativeDestination(t *testing.T) {
	m := NewManager(time.Second, 0, "test")
	err := m.Fetch(context.Background(), "http://127.0.0.1/x", "relative/path")
	assert.ErrorIs(t, err, errors.ErrInvalidPath)
}
