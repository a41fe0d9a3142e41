package cache

import (
	"crypto/md5" //nolint:gosec // catalogs publish md5 digests
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/glorpus-work/todd/pkg/errors"
)

// newHash picks the digest algorithm from the length of the expected hex checksum.
func newHash(expected string) (hash.Hash, bool) {
	switch len(expected) {
	case hex.EncodedLen(md5.Size):
		return md5.New(), true //nolint:gosec
	case hex.EncodedLen(sha256.Size):
		return sha256.New(), true
	default:
		return nil, false
	}
}

// fileChecksum returns the hex digest of path using the algorithm implied by expected.
func fileChecksum(path, expected string) (string, error) {
	h, ok := newHash(expected)
	if !ok {
		return "", errors.Wrapf(errors.ErrChecksumMismatch, "unsupported checksum %q", expected)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func checksumMatches(path, expected string) bool {
	actual, err := fileChecksum(path, expected)
	if err != nil {
		return false
	}
	return strings.EqualFold(actual, expected)
}
