// Package stream implements the block-copy loops of the shaping and
// policing binaries: read a block, consult the throttle, emit the block,
// charge the contract. The throttle decides; this package acts on its
// advice.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/throttle"
	"github.com/torosent/stampede/ticks"
)

// Options configure a copy loop.
type Options struct {
	BlockSize int64          // read size per block (required)
	Meter     *metrics.Meter // per-block measurements (required)
	Debug     io.Writer      // per-block diagnostics, nil to disable
}

// Shape copies r to w, stalling before each block for as long as the
// throttle demands so that the emitted stream conforms to the contract. At
// stream end it idles until the contract has fully drained, so that
// downstream policers see a closed, conformant stream.
func Shape(t throttle.Throttle, r io.Reader, w io.Writer, opt Options) error {
	buffer := make([]byte, opt.BlockSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			now := ticks.Now()
			delay := t.Request(now)
			if opt.Debug != nil {
				fmt.Fprintf(opt.Debug, "shape: read=%d delay=%s\n", n, delay.Duration())
			}
			ticks.Sleep(delay)

			if _, werr := w.Write(buffer[:n]); werr != nil {
				return fmt.Errorf("write: %w", werr)
			}

			now = ticks.Now()
			conforming := t.Admits(now, throttle.Events(n))
			opt.Meter.RecordBlock(now, int64(n), delay, conforming)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
	}

	drain(t)
	return nil
}

// Police copies r to w without delaying, recording each block's conformance
// verdict. All bytes are forwarded; the caller decides what a violation
// means.
func Police(t throttle.Throttle, r io.Reader, w io.Writer, opt Options) error {
	buffer := make([]byte, opt.BlockSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			now := ticks.Now()
			delay := t.Request(now)
			conforming := t.Commits(throttle.Events(n))
			if opt.Debug != nil && !conforming {
				fmt.Fprintf(opt.Debug, "police: read=%d late=%s\n", n, delay.Duration())
			}

			if _, werr := w.Write(buffer[:n]); werr != nil {
				return fmt.Errorf("write: %w", werr)
			}
			opt.Meter.RecordBlock(now, int64(n), delay, conforming)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
	}

	t.Update(ticks.Now())
	return nil
}

// drain idles until the throttle's accumulated deficit has emptied.
func drain(t throttle.Throttle) {
	t.Update(ticks.Now())
	ticks.Sleep(t.Expected())
	t.Update(ticks.Now())
}
