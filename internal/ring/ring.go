// Package ring implements the single-producer/single-consumer bounded
// queue of quote.Record values described in spec.md §4.B. It is
// lock-free, wait-free and safe across address spaces: a Ring can be
// placed at any caller-supplied 64-byte-aligned address, including one
// inside a memory-mapped shared-memory segment (see internal/shm).
package ring

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/VikramAditya144/hft-market-relay/internal/quote"
)

// cacheLine is the false-sharing boundary the write and read indices
// are kept apart by, matching the teacher's RingHeader/RingBuffer
// layout (each atomic index on its own cache line).
const cacheLine = 64

// MinCapacity is the smallest power-of-two capacity a Ring accepts
// (spec.md §3: "N is a power of two and N ≥ 64").
const MinCapacity = 64

// header is the fixed portion of a Ring laid out in memory: the write
// index on its own cache line, the read index on its own. It occupies
// exactly two cache lines (128 bytes) regardless of ring capacity.
type header struct {
	widx atomic.Uint64
	_    [cacheLine - 8]byte
	ridx atomic.Uint64
	_    [cacheLine - 8]byte
}

// HeaderSize is the fixed footprint of a Ring's header, in bytes.
const HeaderSize = 2 * cacheLine

// Ring is a bounded SPSC queue of quote.Record values. The zero Ring is
// not usable; construct one with New or Open.
type Ring struct {
	hdr  *header
	mem  []byte // backing storage; kept alive for the lifetime of the Ring
	base unsafe.Pointer
	n    uint64 // capacity in slots (power of two)
	mask uint64
}

// Size returns the total byte footprint of a Ring with capacity n
// record slots, header included. internal/shm uses this to size a
// segment before mapping it.
func Size(n int) uint64 {
	return HeaderSize + uint64(n)*quote.Size
}

// validateCapacity checks the power-of-two and minimum-size invariants
// from spec.md §3.
func validateCapacity(n int) error {
	if n < MinCapacity {
		return fmt.Errorf("ring: capacity %d below minimum %d", n, MinCapacity)
	}
	u := uint64(n)
	if u&(u-1) != 0 {
		return fmt.Errorf("ring: capacity %d is not a power of two", n)
	}
	return nil
}

// New allocates a heap-backed Ring with capacity n record slots
// (n must be a power of two, n >= MinCapacity). The backing storage is
// over-allocated and sliced so the ring's base address is itself
// 64-byte aligned, exactly as a creator would align the ring inside a
// mapped segment.
func New(n int) (*Ring, error) {
	if err := validateCapacity(n); err != nil {
		return nil, err
	}
	total := Size(n)
	raw := make([]byte, total+cacheLine-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (addr + cacheLine - 1) &^ (cacheLine - 1)
	offset := aligned - addr
	mem := raw[offset : offset+uintptr(total)]
	return open(mem, n, true)
}

// Open places a Ring view over mem, which must be at least Size(n)
// bytes and should start at a 64-byte-aligned address (internal/shm
// guarantees this for segment-backed rings). init selects whether the
// header and slots are zero-initialized (the segment creator's role)
// or left as-is (the attacher's role — spec.md §9's in-place
// construction design note).
func Open(mem []byte, n int, init bool) (*Ring, error) {
	if err := validateCapacity(n); err != nil {
		return nil, err
	}
	if uint64(len(mem)) < Size(n) {
		return nil, fmt.Errorf("ring: backing buffer too small: have %d, need %d", len(mem), Size(n))
	}
	return open(mem, n, init)
}

func open(mem []byte, n int, init bool) (*Ring, error) {
	if init {
		for i := range mem {
			mem[i] = 0
		}
	}
	base := unsafe.Pointer(&mem[0])
	r := &Ring{
		hdr:  (*header)(base),
		mem:  mem,
		base: base,
		n:    uint64(n),
		mask: uint64(n) - 1,
	}
	return r, nil
}

// Capacity returns the usable capacity N-1: one slot is always kept
// empty to distinguish the full and empty states (spec.md §3).
func (r *Ring) Capacity() int {
	return int(r.n - 1)
}

func (r *Ring) slot(i uint64) *quote.Record {
	off := HeaderSize + uintptr(i)*quote.Size
	return (*quote.Record)(unsafe.Pointer(uintptr(r.base) + off))
}

// TryPush publishes rec into the ring. It returns false, leaving the
// ring unchanged, if the ring is full. TryPush never blocks.
func (r *Ring) TryPush(rec quote.Record) bool {
	w := r.hdr.widx.Load()
	next := (w + 1) & r.mask
	read := r.hdr.ridx.Load()
	if next == read {
		return false // full
	}
	*r.slot(w) = rec
	r.hdr.widx.Store(next)
	return true
}

// TryPop consumes the oldest unread record into out. It returns false,
// leaving the ring unchanged, if the ring is empty. TryPop never blocks.
func (r *Ring) TryPop(out *quote.Record) bool {
	read := r.hdr.ridx.Load()
	w := r.hdr.widx.Load()
	if read == w {
		return false // empty
	}
	*out = *r.slot(read)
	r.hdr.ridx.Store((read + 1) & r.mask)
	return true
}

// IsEmpty reports whether the ring currently holds no records.
func (r *Ring) IsEmpty() bool {
	return r.hdr.ridx.Load() == r.hdr.widx.Load()
}

// IsFull reports whether the ring has no room for another record.
func (r *Ring) IsFull() bool {
	w := r.hdr.widx.Load()
	next := (w + 1) & r.mask
	return next == r.hdr.ridx.Load()
}

// AvailableForRead returns the number of records a consumer could pop
// right now without blocking.
func (r *Ring) AvailableForRead() int {
	w := r.hdr.widx.Load()
	read := r.hdr.ridx.Load()
	return int((w - read) & r.mask)
}

// AvailableForWrite returns the number of records a producer could
// push right now without overflowing.
func (r *Ring) AvailableForWrite() int {
	w := r.hdr.widx.Load()
	read := r.hdr.ridx.Load()
	return int((read - w - 1) & r.mask)
}
