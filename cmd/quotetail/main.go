// Command quotetail is Process C: it dials the broadcast server, reads
// newline-delimited quote JSON, and reports per-line and aggregate
// latency computed against its own cached clock.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"net"

	"github.com/VikramAditya144/hft-market-relay/internal/clock"
	"github.com/VikramAditya144/hft-market-relay/internal/quote"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9000", "broadcast server address")
	statsEvery := flag.Int("stats-every", 10, "print latency stats every N messages (0 disables)")
	flag.Parse()

	if err := run(*addr, *statsEvery); err != nil {
		log.Fatalf("quotetail: %v", err)
	}
}

func run(addr string, statsEvery int) error {
	conn, err := net.Dial("tcp4", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("quotetail: connected to %s", addr)

	clk := clock.New()
	defer clk.Close()

	var (
		count      uint64
		parseErrs  uint64
		totalNs    int64
		minNs      int64 = math.MaxInt64
		maxNs      int64
		rec        quote.Record
	)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if !quote.Decode(line, &rec) {
			parseErrs++
			log.Printf("quotetail: parse error on line: %s", line)
			continue
		}

		count++
		latency := clk.Now() - rec.TimestampNs
		totalNs += latency
		if latency < minNs {
			minNs = latency
		}
		if latency > maxNs {
			maxNs = latency
		}

		log.Printf("quotetail: %-8s bid=%.2f ask=%.2f latency=%.2fus",
			rec.Instrument(), rec.Bid, rec.Ask, float64(latency)/1000)

		if statsEvery > 0 && int(count)%statsEvery == 0 {
			avg := totalNs / int64(count)
			log.Printf("quotetail: --- stats after %d messages: avg=%.2fus min=%.2fus max=%.2fus parse_errors=%d ---",
				count, float64(avg)/1000, float64(minNs)/1000, float64(maxNs)/1000, parseErrs)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read from %s: %w", addr, err)
	}
	log.Printf("quotetail: server closed the connection after %d messages", count)
	return nil
}
