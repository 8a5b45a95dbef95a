package harness

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/torosent/stampede/contract"
	"github.com/torosent/stampede/gcra"
	"github.com/torosent/stampede/internal/fletcher"
	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/throttle"
	"github.com/torosent/stampede/ticks"
)

// Options configure a real-time pipeline run.
type Options struct {
	PeakRate      int64   // bytes per second
	SustainedRate int64   // bytes per second
	BurstSize     int64   // bytes
	Total         int64   // bytes to push through the pipeline
	Transport     string  // "udp" (default) or "websocket"
	Seed          int64   // block size and payload randomness
	ProducerRate  float64 // optional producer pacing in bytes/s, 0 leaves it unpaced
}

// Result summarises a pipeline run.
type Result struct {
	RunID            string
	Produced         int64
	Consumed         int64
	ProducedChecksum uint16
	ConsumedChecksum uint16
	Violations       int64
	Stats            metrics.Stats
}

// Run pushes Options.Total bytes through a producer → shaper → transport →
// policer → consumer pipeline in real time. The shaper honours the
// contract's advice, so an identically-contracted policer (widened by the
// jitter tolerance) must admit every block, and the consumer's checksum must
// match the producer's.
func Run(ctx context.Context, opt Options) (Result, error) {
	result := Result{
		RunID: ulid.MustNew(ulid.Now(), rand.New(rand.NewSource(opt.Seed))).String(),
	}

	// One pipeline at a time per machine: a concurrent run would contend
	// for the loopback and skew the rate measurements.
	lock := flock.New(filepath.Join(os.TempDir(), "stampede-harness.lock"))
	if err := lock.Lock(); err != nil {
		return result, fmt.Errorf("harness lock: %w", err)
	}
	defer lock.Unlock()

	var tr transport
	var err error
	switch opt.Transport {
	case "", "udp":
		tr, err = newUDPTransport()
	case "websocket":
		tr, err = newWSTransport()
	default:
		return result, fmt.Errorf("unknown transport %q", opt.Transport)
	}
	if err != nil {
		return result, err
	}
	defer tr.Close()

	frequency := ticks.Frequency()
	peakInc := gcra.Increment(throttle.Events(opt.PeakRate), 1, frequency)
	sustainedInc := gcra.Increment(throttle.Events(opt.SustainedRate), 1, frequency)
	jitter := gcra.JitterTolerance(peakInc, throttle.Events(opt.BurstSize))
	tolerance := contract.BurstTolerance(peakInc, 0, sustainedInc, throttle.Events(opt.BurstSize))

	now := ticks.Now()
	shape := contract.New(peakInc, 0, sustainedInc, tolerance, now)
	police := contract.New(peakInc, jitter, sustainedInc, tolerance+jitter, now)

	meter := metrics.NewMeter()
	policeMeter := metrics.NewMeter()

	// A failing stage cancels the rest so nobody blocks on a dead peer.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	supply := make(chan []byte, 16)
	demand := make(chan []byte, 16)
	errs := make(chan error, 4)
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(4)

	// Producer: random blocks, optionally paced, checksummed on the way
	// out.
	go func() {
		defer wg.Done()
		defer close(supply)

		rng := rand.New(rand.NewSource(opt.Seed))
		var sum fletcher.Fletcher
		var limiter *rate.Limiter
		if opt.ProducerRate > 0 {
			limiter = rate.NewLimiter(rate.Limit(opt.ProducerRate), int(opt.BurstSize))
		}

		for result.Produced < opt.Total {
			size := int64(BlockSize(rng, throttle.Events(opt.BurstSize)))
			if remaining := opt.Total - result.Produced; size > remaining {
				size = remaining
			}
			block := make([]byte, size)
			rng.Read(block)

			if limiter != nil {
				if err := limiter.WaitN(ctx, int(size)); err != nil {
					errs <- fmt.Errorf("producer pacing: %w", err)
					cancel()
					return
				}
			}

			result.ProducedChecksum = sum.Checksum(block)
			result.Produced += size

			select {
			case supply <- block:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	// Shaper: consult the contract, stall, emit.
	go func() {
		defer wg.Done()

		for block := range supply {
			now := ticks.Now()
			delay := shape.Request(now)
			ticks.Sleep(delay)

			if err := tr.Send(block); err != nil {
				errs <- fmt.Errorf("shaper send: %w", err)
				cancel()
				return
			}

			now = ticks.Now()
			conforming := shape.Admits(now, throttle.Events(len(block)))
			meter.RecordBlock(now, int64(len(block)), delay, conforming)
		}
	}()

	// Policer: admit each arriving block after the fact and pass it on.
	go func() {
		defer wg.Done()
		defer close(demand)

		buffer := make([]byte, 64*1024)
		var received int64
		for received < opt.Total {
			n, err := tr.Recv(buffer)
			if err != nil {
				errs <- fmt.Errorf("policer recv: %w", err)
				cancel()
				return
			}
			if n == 0 {
				continue
			}

			now := ticks.Now()
			late := police.Request(now)
			admitted := police.Commits(throttle.Events(n))
			policeMeter.RecordBlock(now, int64(n), late, admitted)

			block := append([]byte(nil), buffer[:n]...)
			received += int64(n)
			select {
			case demand <- block:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	// Consumer: checksum what survived.
	go func() {
		defer wg.Done()

		var sum fletcher.Fletcher
		for block := range demand {
			result.ConsumedChecksum = sum.Checksum(block)
			result.Consumed += int64(len(block))
		}
	}()

	wg.Wait()

	select {
	case err := <-errs:
		return result, err
	default:
	}

	result.Violations = policeMeter.Violations()
	result.Stats = meter.Stats(time.Since(start))
	return result, nil
}
