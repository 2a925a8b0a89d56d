// Command ringstat is a debug tool: it attaches to a live named
// segment, without pushing or popping, and prints its ring's capacity and current occupancy,
// or, with -create, creates a fresh segment of a given capacity purely
// to report the layout a producer would see.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/VikramAditya144/hft-market-relay/internal/ring"
	"github.com/VikramAditya144/hft-market-relay/internal/shm"
)

func main() {
	segName := flag.String("segment", shm.DefaultName, "named shared segment to inspect")
	capacity := flag.Int("capacity", shm.DefaultCapacity, "ring capacity (must match the creator)")
	create := flag.Bool("create", false, "create a fresh segment instead of attaching to an existing one")
	flag.Parse()

	if err := run(*segName, *capacity, *create); err != nil {
		log.Fatalf("ringstat: %v", err)
	}
}

func run(segName string, capacity int, create bool) error {
	var seg *shm.Segment
	var err error
	if create {
		seg, err = shm.Create(segName, capacity)
	} else {
		seg, err = shm.Attach(segName, capacity)
	}
	if err != nil {
		return fmt.Errorf("open segment %s: %w", segName, err)
	}
	defer seg.Close()

	fmt.Printf("segment: %s\n", seg.Name())
	fmt.Printf("creator: %v\n", seg.IsCreator())
	fmt.Printf("total size: %d bytes (header %d + %d slots)\n",
		seg.Size(), ring.HeaderSize, capacity)
	fmt.Printf("ring capacity: %d records\n", seg.Ring.Capacity())
	fmt.Printf("available for read:  %d\n", seg.Ring.AvailableForRead())
	fmt.Printf("available for write: %d\n", seg.Ring.AvailableForWrite())
	fmt.Printf("empty: %v  full: %v\n", seg.Ring.IsEmpty(), seg.Ring.IsFull())
	return nil
}
