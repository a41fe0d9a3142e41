// Package testutil holds helpers shared by tests that exercise todd end to end.
package testutil

import (
	"crypto/md5" //nolint:gosec // catalogs still carry md5 checksums
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"

	"github.com/glorpus-work/todd/internal/logger"
)

// SourceServer serves package sources by file name and counts the requests for each.
type SourceServer struct {
	*httptest.Server

	mu    sync.Mutex
	files map[string]string
	hits  map[string]int
}

// NewSourceServer starts a server for files (name to content). It is closed on test cleanup.
func NewSourceServer(t *testing.T, files map[string]string) *SourceServer {
	t.Helper()
	s := &SourceServer{files: files, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *SourceServer) serve(w http.ResponseWriter, r *http.Request) {
	name := path.Base(r.URL.Path)

	s.mu.Lock()
	s.hits[name]++
	content, ok := s.files[name]
	s.mu.Unlock()

	if !ok {
		logger.Debug("Test server has no such source", logger.Fields{"name": name})
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(content))
}

// SourceURL returns the URL serving name.
func (s *SourceServer) SourceURL(name string) string {
	return s.URL + "/sources/" + name
}

// Hits returns how many times name was requested.
func (s *SourceServer) Hits(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[name]
}

// SHA256 returns the hex SHA-256 digest of content.
func SHA256(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// MD5 returns the hex MD5 digest of content.
func MD5(content string) string {
	sum := md5.Sum([]byte(content)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}
