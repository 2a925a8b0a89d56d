// Package shm owns the named shared-memory segment that hosts a
// SPSC ring (spec.md §4.C). It is a thin RAII-style wrapper: one
// handle per process per mapping, move-only in spirit (copy the
// pointer, never the value), responsible for creating or attaching to
// the OS object, mapping it, and tearing it down.
package shm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/VikramAditya144/hft-market-relay/internal/ring"
)

// DefaultName is the reference segment name from spec.md §6.
const DefaultName = "/hft_market_data"

// DefaultCapacity is the reference ring capacity from spec.md §3.
const DefaultCapacity = 1024

// Segment owns the OS lifecycle of a named, file-backed memory region
// used as the backing store for one ring.Ring.
type Segment struct {
	name    string
	path    string
	size    uint64
	mem     []byte
	file    *os.File
	creator bool
	Ring    *ring.Ring
}

// Create creates a new named segment sized for a ring of capacity
// record slots and places a freshly zeroed ring.Ring inside it. Create
// fails if a segment of this name already exists: spec.md §9 raises
// this as an open question (whether a second "creator" should silently
// inherit the first one's size); this implementation resolves it by
// requiring a single distinguished creator, matching the teacher's own
// CreateSegment, which uses O_CREATE|O_EXCL.
func Create(name string, capacity int) (*Segment, error) {
	norm, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	size := ring.Size(capacity)
	if size == 0 {
		return nil, fmt.Errorf("shm: segment size must be positive")
	}
	path := segmentPath(norm)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("shm: create segment %s: %w", norm, err)
	}
	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(size)); err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: size segment %s: %w", norm, err)
	}

	mem, err := mmap(file, int(size), true)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: map segment %s: %w", norm, err)
	}

	r, err := ring.Open(mem, capacity, true)
	if err != nil {
		unix.Munmap(mem)
		cleanup()
		return nil, fmt.Errorf("shm: init ring in segment %s: %w", norm, err)
	}

	return &Segment{
		name:    norm,
		path:    path,
		size:    size,
		mem:     mem,
		file:    file,
		creator: true,
		Ring:    r,
	}, nil
}

// Attach opens an existing segment and places a ring.Ring view over it
// without re-initializing it. The mapping is read/write because the
// attacher's TryPop stores the consumer's read index back into the
// shared ring header. capacity must match the capacity the creator
// used — the creator is the sole authority on segment layout.
func Attach(name string, capacity int) (*Segment, error) {
	norm, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	path := segmentPath(norm)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: attach segment %s: %w", norm, err)
	}
	cleanup := func() { file.Close() }

	info, err := file.Stat()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: stat segment %s: %w", norm, err)
	}
	want := ring.Size(capacity)
	if uint64(info.Size()) < want {
		cleanup()
		return nil, fmt.Errorf("shm: segment %s too small: have %d, need %d", norm, info.Size(), want)
	}

	mem, err := mmap(file, int(want), true)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("shm: map segment %s: %w", norm, err)
	}

	r, err := ring.Open(mem, capacity, false)
	if err != nil {
		unix.Munmap(mem)
		cleanup()
		return nil, fmt.Errorf("shm: open ring in segment %s: %w", norm, err)
	}

	return &Segment{
		name: norm,
		path: path,
		size: want,
		mem:  mem,
		file: file,
		Ring: r,
	}, nil
}

// Close unmaps the region, closes the file handle and, if this handle
// created the segment, unlinks the OS object so later Attach calls to
// the same name fail (spec.md §4.C).
func (s *Segment) Close() error {
	var firstErr error
	if s.mem != nil {
		if err := unix.Munmap(s.mem); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shm: munmap: %w", err)
		}
		s.mem = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("shm: close: %w", err)
		}
		s.file = nil
	}
	if s.creator {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("shm: unlink: %w", err)
		}
		s.creator = false
	}
	return firstErr
}

// Name returns the segment's OS-level name, including its leading
// slash.
func (s *Segment) Name() string { return "/" + s.name }

// Size returns the segment's total byte size.
func (s *Segment) Size() uint64 { return s.size }

// IsCreator reports whether this handle created the underlying OS
// object and is therefore responsible for unlinking it.
func (s *Segment) IsCreator() bool { return s.creator }

// IsValid reports whether the segment is currently mapped.
func (s *Segment) IsValid() bool { return s.mem != nil }

func normalizeName(name string) (string, error) {
	trimmed := strings.TrimPrefix(name, "/")
	if trimmed == "" {
		return "", fmt.Errorf("shm: segment name must be non-empty")
	}
	return trimmed, nil
}

// segmentPath resolves the filesystem path backing a named segment,
// preferring /dev/shm (tmpfs, no disk I/O) and falling back to the
// system temp directory when /dev/shm is unavailable — the same
// fallback the teacher's generateSegmentPath implements.
func segmentPath(name string) string {
	const prefix = "hft_"
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return filepath.Join("/dev/shm", prefix+name)
	}
	return filepath.Join(os.TempDir(), prefix+name)
}

func mmap(file *os.File, size int, writable bool) ([]byte, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	mem, err := unix.Mmap(int(file.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return mem, nil
}
