package quote

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := New("AAPL", 100.25, 100.50, 1_700_000_000_000_000_000)
	b, err := Encode(r)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var out Record
	if !Decode(b, &out) {
		t.Fatalf("Decode failed on %s", b)
	}
	if !r.Equal(out) {
		t.Fatalf("round trip mismatch: %+v vs %+v", r, out)
	}
}

func TestEncodeContainsRequiredFieldNames(t *testing.T) {
	r := New("AAPL", 100.25, 100.50, 1700000000000000000)
	b, err := Encode(r)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, field := range []string{`"instrument"`, `"bid"`, `"ask"`, `"timestamp_ns"`} {
		if !contains(b, field) {
			t.Fatalf("encoded line %s missing field %s", b, field)
		}
	}
}

func TestDecodeRejectsMissingField(t *testing.T) {
	var out Record
	if Decode([]byte(`{"instrument":"AAPL","bid":1.0,"ask":1.1}`), &out) {
		t.Fatalf("decode should fail when timestamp_ns is missing")
	}
}

func TestDecodeRejectsWrongType(t *testing.T) {
	var out Record
	if Decode([]byte(`{"instrument":"AAPL","bid":"oops","ask":1.1,"timestamp_ns":1}`), &out) {
		t.Fatalf("decode should fail when bid is not a number")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var out Record
	if Decode([]byte(`not json`), &out) {
		t.Fatalf("decode should fail on invalid JSON")
	}
}

func TestDecodeAcceptsPrettyPrinted(t *testing.T) {
	pretty := []byte("{\n  \"instrument\": \"AAPL\",\n  \"bid\": 1.5,\n  \"ask\": 1.6,\n  \"timestamp_ns\": 42\n}")
	var out Record
	if !Decode(pretty, &out) {
		t.Fatalf("decode should accept pretty-printed JSON")
	}
	if out.Instrument() != "AAPL" || out.TimestampNs != 42 {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

func contains(haystack []byte, needle string) bool {
	return len(needle) == 0 || indexOf(string(haystack), needle) >= 0
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}
