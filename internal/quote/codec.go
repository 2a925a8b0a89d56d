package quote

import (
	"errors"
	"fmt"

	"github.com/sugawarayuuta/sonnet"
)

// ErrDecode is returned by DecodeErr when a line fails to parse into a
// Record, either because it is not valid JSON or because a required
// field is missing or of the wrong type.
var ErrDecode = errors.New("quote: decode failed")

// wireRecord is the JSON-visible shape of a Record: exactly the four
// semantic fields named in spec.md §6, with their natural JSON types.
// Decoding through a separate struct, rather than implementing
// MarshalJSON directly on Record, lets sonnet's reflection-based
// (de)serialization work without exposing the raw padding bytes.
type wireRecord struct {
	Instrument  *string  `json:"instrument"`
	Bid         *float64 `json:"bid"`
	Ask         *float64 `json:"ask"`
	TimestampNs *int64   `json:"timestamp_ns"`
}

// Encode renders r as a single compact-form JSON line (no trailing
// newline; callers that frame on newline, e.g. internal/broadcast, add
// it themselves).
func Encode(r Record) ([]byte, error) {
	inst := r.Instrument()
	w := wireRecord{Instrument: &inst, Bid: &r.Bid, Ask: &r.Ask, TimestampNs: &r.TimestampNs}
	b, err := sonnet.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("quote: encode: %w", err)
	}
	return b, nil
}

// Decode parses a JSON line into out and reports success. It never
// panics and never returns a partially-populated out on failure — out
// is left unspecified, per spec.md §4.A, on any error.
func Decode(line []byte, out *Record) bool {
	return DecodeErr(line, out) == nil
}

// DecodeErr is Decode's error-returning counterpart, for callers that
// want to log why a line was rejected. Pointer
// fields in wireRecord distinguish "field absent" (nil) from "field
// present with zero value" (non-nil pointing at 0), so a missing field
// is rejected even though its JSON zero value would otherwise look
// like a legitimate all-zero quote.
func DecodeErr(line []byte, out *Record) error {
	var w wireRecord
	if err := sonnet.Unmarshal(line, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if w.Instrument == nil || w.Bid == nil || w.Ask == nil || w.TimestampNs == nil {
		return fmt.Errorf("%w: missing field", ErrDecode)
	}
	*out = New(*w.Instrument, *w.Bid, *w.Ask, *w.TimestampNs)
	return nil
}
