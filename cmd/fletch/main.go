// Command fletch copies stdin to stdout unchanged and reports the
// Fletcher-16 checksum and byte count of the stream on stderr. The harness
// uses it to verify that a shaped stream survives its pipeline intact.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/torosent/stampede/internal/fletcher"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("fletch", pflag.ContinueOnError)
	blockSize := flags.Int64("block-size", 4096, "I/O block size in bytes")
	verbose := flags.BoolP("verbose", "V", false, "Report the running checksum per block")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *blockSize < 1 {
		return fmt.Errorf("block size must be at least 1 byte, got %d", *blockSize)
	}

	var sum fletcher.Fletcher
	var total int64
	buffer := make([]byte, *blockSize)

	for {
		n, err := os.Stdin.Read(buffer)
		if n > 0 {
			checksum := sum.Checksum(buffer[:n])
			total += int64(n)
			if *verbose {
				fmt.Fprintf(os.Stderr, "Read: %d Checksum: 0x%04x\n", n, checksum)
			}
			if _, werr := os.Stdout.Write(buffer[:n]); werr != nil {
				return fmt.Errorf("write: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Total: %d Checksum: 0x%04x\n", total, sum.Sum())
	return nil
}
