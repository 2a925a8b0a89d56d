// Command marketgen is Process A: it generates synthetic quotes, stamps
// each with the cached clock, offers it to the shared-memory ring, and
// fans it out over the broadcast server as a JSON line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/VikramAditya144/hft-market-relay/internal/broadcast"
	"github.com/VikramAditya144/hft-market-relay/internal/clock"
	"github.com/VikramAditya144/hft-market-relay/internal/quote"
	"github.com/VikramAditya144/hft-market-relay/internal/shm"
)

var instruments = []string{"AAPL", "MSFT", "GOOG", "AMZN", "RELIANCE", "TCS"}

func main() {
	segName := flag.String("segment", shm.DefaultName, "named shared segment to create")
	capacity := flag.Int("capacity", shm.DefaultCapacity, "ring capacity (power of two)")
	port := flag.Int("port", 9000, "broadcast server TCP port")
	interval := flag.Duration("interval", 10*time.Millisecond, "delay between generated quotes")
	flag.Parse()

	if err := run(*segName, *capacity, *port, *interval); err != nil {
		log.Fatalf("marketgen: %v", err)
	}
}

func run(segName string, capacity, port int, interval time.Duration) error {
	seg, err := shm.Create(segName, capacity)
	if err != nil {
		return fmt.Errorf("create segment: %w", err)
	}
	defer seg.Close()

	clk := clock.New()
	defer clk.Close()

	srv := broadcast.New()
	if err := srv.Start(port); err != nil {
		return fmt.Errorf("start broadcast server: %w", err)
	}
	defer srv.Shutdown()

	log.Printf("marketgen: segment %s ready, broadcasting on :%d", seg.Name(), port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return generate(ctx, seg, srv, clk, interval)
	})

	return g.Wait()
}

func generate(ctx context.Context, seg *shm.Segment, srv *broadcast.Server, clk *clock.Clock, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(1))
	var dropped uint64

	for {
		select {
		case <-ctx.Done():
			if dropped > 0 {
				log.Printf("marketgen: stopped, %d records dropped on ring overflow", dropped)
			}
			return nil
		case <-ticker.C:
			symbol := instruments[rng.Intn(len(instruments))]
			base := 100 + rng.Float64()*400
			spread := 0.01 + rng.Float64()*0.5
			rec := quote.New(symbol, base, base+spread, clk.Now())

			if !seg.Ring.TryPush(rec) {
				dropped++
				continue
			}

			line, err := quote.Encode(rec)
			if err != nil {
				log.Printf("marketgen: encode failed for %s: %v", symbol, err)
				continue
			}
			srv.Broadcast(line)
		}
	}
}
