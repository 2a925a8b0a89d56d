package quote

import (
	"testing"
	"unsafe"
)

func TestRecordSize(t *testing.T) {
	if got := unsafe.Sizeof(Record{}); got != Size {
		t.Fatalf("Record size = %d, want %d", got, Size)
	}
}

func TestZeroRecordIsAllZero(t *testing.T) {
	var a, b Record
	if !a.Equal(b) {
		t.Fatalf("two default-constructed records should be equal")
	}
	raw := a.Bytes()
	for i, by := range raw {
		if by != 0 {
			t.Fatalf("byte %d of default record is %d, want 0", i, by)
		}
	}
}

func TestNewTruncatesAndZeroTerminates(t *testing.T) {
	long := "THIS_SYMBOL_IS_WAY_TOO_LONG_FOR_16_BYTES"
	r := New(long, 1, 2, 3)
	if got := r.Instrument(); got != long[:InstrumentLen-1] {
		t.Fatalf("Instrument() = %q, want %q", got, long[:InstrumentLen-1])
	}
	if r.instrument[InstrumentLen-1] != 0 {
		t.Fatalf("last instrument byte must be zero")
	}
}

func TestNewShortSymbolRoundTrips(t *testing.T) {
	r := New("AAPL", 100.25, 100.50, 1_700_000_000_000_000_000)
	if r.Instrument() != "AAPL" {
		t.Fatalf("Instrument() = %q, want AAPL", r.Instrument())
	}
	if r.Bid != 100.25 || r.Ask != 100.50 {
		t.Fatalf("bid/ask mismatch: %+v", r)
	}
}
