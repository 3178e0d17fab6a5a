// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"crypto/sha1" //nolint:gosec // npm's legacy shasum field is SHA-1
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// ErrIntegrityMismatch indicates the downloaded tarball does not hash to the
// value published in the packument.
var ErrIntegrityMismatch = errors.New("integrity mismatch")

type (
	// IntegrityError provides details about a failed tarball verification.
	// It wraps ErrIntegrityMismatch so callers can use errors.Is for classification.
	IntegrityError struct {
		Tarball   string
		Algorithm string
		Expected  string
		Got       string
	}

	// checker hashes a stream and compares it against one published digest.
	checker struct {
		algorithm string
		expected  string
		encode    func([]byte) string
		hash.Hash
	}
)

// Error shows both digests for debugging.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s verification failed for %s\nExpected: %s\nGot:      %s",
		e.Algorithm, e.Tarball, e.Expected, e.Got)
}

// Unwrap returns ErrIntegrityMismatch so callers can use errors.Is.
func (e *IntegrityError) Unwrap() error { return ErrIntegrityMismatch }

// algorithmStrength ranks the SRI algorithms npm publishes.
var algorithmStrength = map[string]int{"sha1": 1, "sha256": 2, "sha384": 3, "sha512": 4}

// newChecker picks the strongest digest dist offers: an SRI integrity string
// when present, otherwise the hex SHA-1 shasum. It returns nil when the
// registry published neither.
func newChecker(dist Dist) (*checker, error) {
	if c, err := sriChecker(dist.Integrity); c != nil || err != nil {
		return c, err
	}
	if dist.Shasum != "" {
		return &checker{
			algorithm: "sha1",
			expected:  strings.ToLower(dist.Shasum),
			encode:    hex.EncodeToString,
			Hash:      sha1.New(), //nolint:gosec // legacy npm shasum
		}, nil
	}
	return nil, nil
}

func sriChecker(integrity string) (*checker, error) {
	var best *checker
	for _, token := range strings.Fields(integrity) {
		algo, digest, ok := strings.Cut(token, "-")
		if !ok {
			continue
		}
		// Options after "?" are reserved by the SRI spec and ignored.
		digest, _, _ = strings.Cut(digest, "?")
		rank, known := algorithmStrength[algo]
		if !known || (best != nil && rank <= algorithmStrength[best.algorithm]) {
			continue
		}
		h, err := newHash(algo)
		if err != nil {
			return nil, err
		}
		best = &checker{algorithm: algo, expected: digest, encode: base64.StdEncoding.EncodeToString, Hash: h}
	}
	return best, nil
}

func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case "sha1":
		return sha1.New(), nil //nolint:gosec // legacy npm integrity
	case "sha256":
		return sha256.New(), nil
	case "sha384":
		return sha512.New384(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported integrity algorithm %q", algo)
	}
}

// verify compares the digest of everything written so far.
func (c *checker) verify(tarball string) error {
	got := c.encode(c.Sum(nil))
	if got != c.expected {
		return &IntegrityError{Tarball: tarball, Algorithm: c.algorithm, Expected: c.expected, Got: got}
	}
	return nil
}
