package shm

import (
	"fmt"
	"testing"
	"time"

	"github.com/VikramAditya144/hft-market-relay/internal/quote"
)

func uniqueName(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("test_%s_%d", t.Name(), time.Now().UnixNano())
}

func TestCreateThenAttachSeesWrites(t *testing.T) {
	name := uniqueName(t)
	creator, err := Create(name, 64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer creator.Close()

	if !creator.IsCreator() {
		t.Fatalf("creator handle should report IsCreator() == true")
	}

	rec := quote.New("AAPL", 1, 2, 3)
	if !creator.Ring.TryPush(rec) {
		t.Fatalf("push into fresh ring should succeed")
	}

	attacher, err := Attach(name, 64)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer attacher.Close()

	if attacher.IsCreator() {
		t.Fatalf("attach handle should report IsCreator() == false")
	}

	var out quote.Record
	if !attacher.Ring.TryPop(&out) {
		t.Fatalf("pop from attached ring should see the creator's push")
	}
	if !out.Equal(rec) {
		t.Fatalf("attached view = %+v, want %+v", out, rec)
	}
}

func TestAttachToMissingSegmentFails(t *testing.T) {
	name := uniqueName(t)
	seg, err := Attach(name, 64)
	if err == nil {
		seg.Close()
		t.Fatalf("attach to never-created segment should fail")
	}
}

func TestCreateTwiceFails(t *testing.T) {
	name := uniqueName(t)
	first, err := Create(name, 64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer first.Close()

	if _, err := Create(name, 64); err == nil {
		t.Fatalf("second create of the same name should fail")
	}
}

func TestCloseUnlinksSoAttachLaterFails(t *testing.T) {
	name := uniqueName(t)
	seg, err := Create(name, 64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := seg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if attacher, err := Attach(name, 64); err == nil {
		attacher.Close()
		t.Fatalf("attach after creator closed should fail")
	}
}

func TestCrossProcessIntegrity(t *testing.T) {
	name := uniqueName(t)
	producer, err := Create(name, 16384)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer producer.Close()

	consumer, err := Attach(name, 16384)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer consumer.Close()

	const total = 10000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			rec := quote.New("AAPL", float64(i), float64(i), int64(i))
			for !producer.Ring.TryPush(rec) {
			}
		}
	}()

	for i := 0; i < total; i++ {
		var out quote.Record
		for !consumer.Ring.TryPop(&out) {
		}
		if out.TimestampNs != int64(i) {
			t.Fatalf("record %d out of order: got timestamp %d", i, out.TimestampNs)
		}
	}
	<-done
}
