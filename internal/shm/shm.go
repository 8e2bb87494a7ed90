//go:build darwin || linux

// Package shm maps host-owned shared memory segments as borrowed byte views.
//
// The host editor creates and destroys every segment; this package only
// opens existing objects and unmaps them again. There is deliberately no
// create or unlink operation anywhere in the API.
package shm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// DefaultDir is the platform shared-memory namespace used to resolve bare
// segment names.
const DefaultDir = "/dev/shm"

var (
	// ErrSegmentNotFound reports an identifier that resolves to no existing
	// shared memory object.
	ErrSegmentNotFound = errors.New("shared memory segment not found")

	// ErrSegmentTooSmall reports a segment whose backing object is smaller
	// than the byte count the operation requires.
	ErrSegmentTooSmall = errors.New("shared memory segment too small")
)

// Segment is a mapped read/write view over a host-owned shared memory
// object. Its lifetime is scoped to one command: acquire, use, Close.
type Segment struct {
	id   string
	data []byte
}

// Bridge resolves segment identifiers against a configurable namespace
// directory. The zero-value-adjacent New(DefaultDir) form matches the
// platform default.
type Bridge struct {
	dir string
}

// New returns a bridge resolving bare segment names under dir.
func New(dir string) *Bridge {
	if dir == "" {
		dir = DefaultDir
	}
	return &Bridge{dir: dir}
}

// Resolve maps a segment identifier to a filesystem path: identifiers that
// already name an existing path are used as-is, anything else is looked up
// under the namespace directory.
func (b *Bridge) Resolve(id string) string {
	if _, err := os.Stat(id); err == nil {
		return id
	}
	return filepath.Join(b.dir, strings.TrimPrefix(id, "/"))
}

// Acquire opens the named segment and maps exactly requiredBytes of it
// read/write. The object must already exist (the bridge never creates) and
// must be at least requiredBytes long.
func (b *Bridge) Acquire(id string, requiredBytes int) (*Segment, error) {
	if requiredBytes <= 0 {
		return nil, fmt.Errorf("required byte count must be positive, got %d", requiredBytes)
	}

	path := b.Resolve(id)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil, fmt.Errorf("%w: %q", ErrSegmentNotFound, id)
		}
		return nil, fmt.Errorf("open segment %q: %w", id, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stat segment %q: %w", id, err)
	}
	if stat.Size < int64(requiredBytes) {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %q holds %d bytes, need %d", ErrSegmentTooSmall, id, stat.Size, requiredBytes)
	}

	data, err := unix.Mmap(fd, 0, requiredBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	// The mapping keeps the object alive; the descriptor is not needed
	// past this point.
	unix.Close(fd)
	if err != nil {
		return nil, fmt.Errorf("map segment %q: %w", id, err)
	}

	return &Segment{id: id, data: data}, nil
}

// ID returns the identifier the segment was acquired under.
func (s *Segment) ID() string {
	return s.id
}

// Bytes returns the mapped view. The slice is invalid after Close.
func (s *Segment) Bytes() []byte {
	return s.data
}

// Close unmaps the view. The underlying object is left untouched; its
// destruction belongs to the host.
func (s *Segment) Close() error {
	if s.data == nil {
		return nil
	}
	data := s.data
	s.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unmap segment %q: %w", s.id, err)
	}
	return nil
}
