// Package cas implements the content-addressed file store: integrity-keyed
// storage of every file extracted from every tarball, shared across
// projects on the local machine.
package cas

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pacquet/pacquet/internal/integrity"
	"github.com/pacquet/pacquet/internal/perr"
)

// FileType selects the CAS path suffix for an entry.
type FileType int

const (
	NonExec FileType = iota
	Exec
	Index
)

func (t FileType) suffix() string {
	switch t {
	case Exec:
		return "-exec"
	case Index:
		return "-index.json"
	default:
		return ""
	}
}

// Store is a content-addressed store rooted at Dir.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir. Dir is created lazily by Put.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// PathFor is the pure function from (integrity, type) to the absolute CAS
// path: no I/O, two callers computing the same integrity always agree.
func (s *Store) PathFor(sri integrity.SRI, t FileType) string {
	hex := sri.HexDigest()
	return filepath.Join(s.Dir, hex[:2], hex[2:]+t.suffix())
}

// Exists reports whether a blob is already stored at the path PathFor would
// return.
func (s *Store) Exists(sri integrity.SRI, t FileType) bool {
	_, err := os.Stat(s.PathFor(sri, t))
	return err == nil
}

// Put computes the SHA-512 integrity of buf, derives its CAS path, and
// atomically creates it if absent (write to a temporary sibling, then
// rename). Idempotent: concurrent Put of identical content resolves to the
// same final path with no error — a rename race lost to another writer of
// the same integrity is not a failure.
func (s *Store) Put(buf []byte) (integrity.SRI, string, error) {
	sri := integrity.OfBytes(buf)
	path := s.PathFor(sri, NonExec)
	if _, err := os.Stat(path); err == nil {
		return sri, path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return integrity.SRI{}, "", &perr.IoError{Path: filepath.Dir(path), Err: err}
	}
	tmp, err := s.tempFile()
	if err != nil {
		return integrity.SRI{}, "", &perr.IoError{Path: s.Dir, Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return integrity.SRI{}, "", &perr.IoError{Path: tmp.Name(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return integrity.SRI{}, "", &perr.IoError{Path: tmp.Name(), Err: err}
	}
	return sri, path, s.commit(tmp.Name(), path, sri)
}

// PutReader streams r into CAS via a temporary sibling file, hashing as it
// writes so arbitrarily large blobs never need to live fully in memory.
func (s *Store) PutReader(r io.Reader, t FileType) (integrity.SRI, string, error) {
	tmp, err := s.tempFile()
	if err != nil {
		return integrity.SRI{}, "", &perr.IoError{Path: s.Dir, Err: err}
	}
	defer os.Remove(tmp.Name())

	hasher := integrity.NewHasher()
	if _, err := io.Copy(tmp, io.TeeReader(r, hasher)); err != nil {
		tmp.Close()
		return integrity.SRI{}, "", &perr.IoError{Path: tmp.Name(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return integrity.SRI{}, "", &perr.IoError{Path: tmp.Name(), Err: err}
	}

	sri := hasher.SRI()
	path := s.PathFor(sri, t)
	return sri, path, s.commit(tmp.Name(), path, sri)
}

// commit renames a staged temp file into its final CAS path, tolerating a
// rename race lost to another writer that already produced the same
// integrity.
func (s *Store) commit(tmpPath, finalPath string, sri integrity.SRI) error {
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return &perr.IoError{Path: filepath.Dir(finalPath), Err: err}
	}
	if _, err := os.Stat(finalPath); err == nil {
		return nil
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		if _, statErr := os.Stat(finalPath); statErr == nil {
			return nil
		}
		return &perr.IoError{Path: finalPath, Err: err}
	}
	return nil
}

// tempFile creates a uniquely named temporary file inside the CAS root so
// renames stay on the same filesystem (required for an atomic os.Rename)
// and concurrent writers never collide on the staging name.
func (s *Store) tempFile() (*os.File, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, err
	}
	return os.CreateTemp(s.Dir, ".tmp-*")
}

// Open returns a reader for the blob stored under sri/t.
func (s *Store) Open(sri integrity.SRI, t FileType) (*os.File, error) {
	path := s.PathFor(sri, t)
	f, err := os.Open(path)
	if err != nil {
		return nil, &perr.IoError{Path: path, Err: err}
	}
	return f, nil
}
