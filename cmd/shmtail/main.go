// Command shmtail is Process B: it attaches to the named shared segment
// marketgen created, spins on the ring, and periodically reports
// aggregate latency computed against its own cached clock.
package main

import (
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VikramAditya144/hft-market-relay/internal/clock"
	"github.com/VikramAditya144/hft-market-relay/internal/quote"
	"github.com/VikramAditya144/hft-market-relay/internal/shm"
)

// spinLimit is the number of consecutive empty reads tolerated before
// backing off with a short sleep (spec.md §9's reference policy).
const spinLimit = 1000

// backoff is the sleep inserted once spinLimit consecutive reads found
// the ring empty.
const backoff = time.Microsecond

func main() {
	segName := flag.String("segment", shm.DefaultName, "named shared segment to attach to")
	capacity := flag.Int("capacity", shm.DefaultCapacity, "ring capacity (must match the creator)")
	statsEvery := flag.Int("stats-every", 1000, "print latency stats every N records (0 disables)")
	flag.Parse()

	if err := run(*segName, *capacity, *statsEvery); err != nil {
		log.Fatalf("shmtail: %v", err)
	}
}

func run(segName string, capacity, statsEvery int) error {
	var seg *shm.Segment
	var err error
	for {
		seg, err = shm.Attach(segName, capacity)
		if err == nil {
			break
		}
		log.Printf("shmtail: waiting for segment %s: %v", segName, err)
		time.Sleep(100 * time.Millisecond)
	}
	defer seg.Close()

	clk := clock.New()
	defer clk.Close()

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	var (
		count    uint64
		totalNs  int64
		minNs    int64 = math.MaxInt64
		maxNs    int64
		consecEmpty int
		rec      quote.Record
	)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if !seg.Ring.TryPop(&rec) {
			consecEmpty++
			if consecEmpty >= spinLimit {
				time.Sleep(backoff)
			}
			continue
		}
		consecEmpty = 0

		latency := clk.Now() - rec.TimestampNs
		count++
		totalNs += latency
		if latency < minNs {
			minNs = latency
		}
		if latency > maxNs {
			maxNs = latency
		}

		if statsEvery > 0 && int(count)%statsEvery == 0 {
			avg := totalNs / int64(count)
			log.Printf("shmtail: %d records | latency avg=%dns min=%dns max=%dns",
				count, avg, minNs, maxNs)
		}
	}
}
