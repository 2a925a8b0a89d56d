// Package quote defines the fixed-layout market quote exchanged across
// every transport path: the shared-memory ring and the broadcast TCP
// stream both carry quote.Record values.
package quote

import (
	"fmt"
	"unsafe"
)

// InstrumentLen is the fixed width of the instrument symbol field,
// including its mandatory trailing zero byte.
const InstrumentLen = 16

// Size is the in-memory footprint of a Record. It must equal one cache
// line (64 bytes) so that a Record can be published by a single aligned
// store on 64-bit platforms once producer/consumer ordering is handled
// by the ring indices.
const Size = 64

// Record is a cache-line-sized value carrying one market quote. Its
// layout is fixed: instrument, bid, ask, timestamp, then zero padding
// out to 64 bytes. Record is a plain value type — copying it copies the
// quote, which is exactly what the ring and the broadcast path rely on.
type Record struct {
	instrument [InstrumentLen]byte
	Bid        float64
	Ask        float64
	TimestampNs int64
	_           [24]byte // padding out to one cache line
}

func init() {
	if unsafe.Sizeof(Record{}) != Size {
		panic(fmt.Sprintf("quote: Record size = %d, want %d", unsafe.Sizeof(Record{}), Size))
	}
}

// New builds a Record from a symbol, bid, ask and timestamp. Symbols
// longer than InstrumentLen-1 bytes are truncated; the field is always
// left zero-terminated.
func New(symbol string, bid, ask float64, timestampNs int64) Record {
	var r Record
	setInstrument(&r.instrument, symbol)
	r.Bid = bid
	r.Ask = ask
	r.TimestampNs = timestampNs
	return r
}

func setInstrument(dst *[InstrumentLen]byte, symbol string) {
	n := copy(dst[:InstrumentLen-1], symbol)
	for i := n; i < InstrumentLen; i++ {
		dst[i] = 0
	}
}

// Instrument returns the symbol as a Go string, trimmed at the first
// zero byte.
func (r *Record) Instrument() string {
	n := 0
	for n < InstrumentLen && r.instrument[n] != 0 {
		n++
	}
	return string(r.instrument[:n])
}

// Equal reports whether r and other carry the same semantic fields
// (instrument, bid, ask, timestamp). Padding is never compared.
func (r Record) Equal(other Record) bool {
	return r.instrument == other.instrument &&
		r.Bid == other.Bid &&
		r.Ask == other.Ask &&
		r.TimestampNs == other.TimestampNs
}

// String renders the record for debugging without going through the
// JSON codec.
func (r Record) String() string {
	return fmt.Sprintf("%s bid=%.4f ask=%.4f ts=%d", r.Instrument(), r.Bid, r.Ask, r.TimestampNs)
}

// Bytes returns a view of the record's raw 64-byte representation. The
// returned slice aliases r and must not be retained past r's lifetime
// if r is stack-allocated by the caller; it exists for byte-equality
// comparisons across the shared-memory boundary (spec.md §8 item 6).
func (r *Record) Bytes() []byte {
	return (*[Size]byte)(unsafe.Pointer(r))[:]
}
