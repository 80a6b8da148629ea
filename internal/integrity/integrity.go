// Package integrity implements Subresource Integrity (SRI) strings of the
// form "<algo>-<base64(hash)>". sha512 is the only supported algorithm; any
// other algorithm is rejected explicitly rather than silently accepted.
package integrity

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/pacquet/pacquet/internal/perr"
)

const Algorithm = "sha512"

// SRI is a parsed integrity string.
type SRI struct {
	Algorithm string
	// Hash is the raw digest bytes.
	Hash []byte
}

// Parse splits "<algo>-<base64>" and validates the algorithm.
func Parse(s string) (SRI, error) {
	idx := strings.IndexByte(s, '-')
	if idx <= 0 || idx == len(s)-1 {
		return SRI{}, fmt.Errorf("malformed integrity string %q", s)
	}
	algo := s[:idx]
	if algo != Algorithm {
		return SRI{}, &perr.UnsupportedIntegrityAlgorithm{Algorithm: algo}
	}
	raw, err := base64.StdEncoding.DecodeString(s[idx+1:])
	if err != nil {
		return SRI{}, fmt.Errorf("decoding integrity base64: %w", err)
	}
	return SRI{Algorithm: algo, Hash: raw}, nil
}

// String renders the canonical "<algo>-<base64>" form.
func (s SRI) String() string {
	return s.Algorithm + "-" + base64.StdEncoding.EncodeToString(s.Hash)
}

// HexDigest returns the lowercase hex encoding of the hash, used to derive
// CAS paths.
func (s SRI) HexDigest() string {
	return hex.EncodeToString(s.Hash)
}

// OfBytes computes the SRI of an in-memory buffer.
func OfBytes(data []byte) SRI {
	sum := sha512.Sum512(data)
	return SRI{Algorithm: Algorithm, Hash: sum[:]}
}

// OfReader computes the SRI of a stream, consuming it fully.
func OfReader(r io.Reader) (SRI, error) {
	h := sha512.New()
	if _, err := io.Copy(h, r); err != nil {
		return SRI{}, err
	}
	return SRI{Algorithm: Algorithm, Hash: h.Sum(nil)}, nil
}

// Hasher is an io.Writer that accumulates a SHA-512 digest, used with
// io.TeeReader/io.MultiWriter to hash a stream while it is copied elsewhere.
type Hasher struct {
	h interface {
		io.Writer
		Sum([]byte) []byte
	}
}

// NewHasher returns a fresh streaming SHA-512 hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha512.New()}
}

func (h *Hasher) Write(p []byte) (int, error) { return h.h.Write(p) }

// SRI returns the integrity of everything written so far.
func (h *Hasher) SRI() SRI {
	return SRI{Algorithm: Algorithm, Hash: h.h.Sum(nil)}
}

// Equal compares two SRIs for byte-exact hash equality.
func Equal(a, b SRI) bool {
	if a.Algorithm != b.Algorithm || len(a.Hash) != len(b.Hash) {
		return false
	}
	for i := range a.Hash {
		if a.Hash[i] != b.Hash[i] {
			return false
		}
	}
	return true
}
