// Package storage provides the flat directory-backed byte store used by
// the file transfer server. Files are keyed by name in a single
// directory; uploads overwrite in full. The store performs no locking,
// so concurrent operations on the same name may interleave their
// filesystem effects.
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrUnsafeName indicates a name that could escape the store directory.
// Callers are expected to validate names against the wire protocol's
// charset first; this is a final guard at the filesystem boundary.
var ErrUnsafeName = errors.New("unsafe file name")

// Store is a directory-like key-value byte store keyed by filename.
type Store interface {
	// Exists reports whether a file with the given name is present.
	Exists(name string) bool

	// Size returns the current byte length of the named file.
	Size(name string) (uint64, error)

	// Open opens the named file for reading.
	Open(name string) (io.ReadCloser, error)

	// Create opens the named file for writing, truncating any prior
	// content.
	Create(name string) (io.WriteCloser, error)
}

// DirStore implements Store on top of a single flat directory.
type DirStore struct {
	root string
}

// NewDirStore creates a DirStore rooted at dir, creating the directory
// if it does not exist.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewDirStore",
		"dir":      dir,
	}).Debug("Storage directory ready")

	return &DirStore{root: dir}, nil
}

// Root returns the store's directory path.
func (s *DirStore) Root() string {
	return s.root
}

// path joins name into the store directory after rejecting anything that
// could reference outside it.
func (s *DirStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", ErrUnsafeName
	}
	return filepath.Join(s.root, name), nil
}

// Exists reports whether the named file is present in the store.
func (s *DirStore) Exists(name string) bool {
	p, err := s.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Size returns the byte length of the named file.
func (s *DirStore) Size(name string) (uint64, error) {
	p, err := s.path(name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// Open opens the named file for reading.
func (s *DirStore) Open(name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Create opens the named file for writing with full overwrite semantics.
func (s *DirStore) Create(name string) (io.WriteCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(p)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Create",
			"name":     name,
			"error":    err.Error(),
		}).Error("Failed to create storage file")
		return nil, err
	}
	return f, nil
}
