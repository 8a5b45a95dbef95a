package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand(use string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Contract flags
	flags.Int64P("peak-rate", "p", 1, "Peak rate in bytes per second")
	flags.Int64P("sustained-rate", "s", 0, "Sustained rate in bytes per second (defaults to the peak rate)")
	flags.Int64P("burst-size", "b", 1, "Maximum burst size in bytes")
	flags.Int64("block-size", 0, "I/O block size in bytes (defaults to the burst size)")

	// Output flags
	flags.Bool("json-output", false, "Emit JSON formatted results on stderr")
	flags.Bool("progress", false, "Show a live progress line on stderr")
	flags.Duration("progress-interval", time.Second, "Interval between progress updates")
	flags.BoolP("verbose", "V", false, "Enable verbose output")
	flags.BoolP("debug", "D", false, "Enable debug output")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Result assertions (repeatable, e.g. 'violations:count == 0')")

	// Tracing flags
	flags.String("trace-endpoint", "", "OTLP endpoint for trace export (empty disables tracing)")
	flags.String("trace-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("trace-insecure", false, "Skip TLS for the OTLP exporter")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling rate between 0.0 and 1.0")

	flags.String("config", "", "Path to configuration file (JSON or YAML)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config,
// overriding values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("peak-rate") {
		val, err := fs.GetInt64("peak-rate")
		if err != nil {
			return err
		}
		cfg.PeakRate = val
	}
	if fs.Changed("sustained-rate") {
		val, err := fs.GetInt64("sustained-rate")
		if err != nil {
			return err
		}
		cfg.SustainedRate = val
	}
	if fs.Changed("burst-size") {
		val, err := fs.GetInt64("burst-size")
		if err != nil {
			return err
		}
		cfg.BurstSize = val
	}
	if fs.Changed("block-size") {
		val, err := fs.GetInt64("block-size")
		if err != nil {
			return err
		}
		cfg.BlockSize = val
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("progress") {
		val, err := fs.GetBool("progress")
		if err != nil {
			return err
		}
		cfg.Progress = val
	}
	if fs.Changed("progress-interval") {
		val, err := fs.GetDuration("progress-interval")
		if err != nil {
			return err
		}
		cfg.ProgressInterval = val
	}
	if fs.Changed("verbose") {
		val, err := fs.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = val
	}
	if fs.Changed("debug") {
		val, err := fs.GetBool("debug")
		if err != nil {
			return err
		}
		cfg.Debug = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("trace-endpoint") {
		val, err := fs.GetString("trace-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = val
	}
	if fs.Changed("trace-protocol") {
		val, err := fs.GetString("trace-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = val
	}
	if fs.Changed("trace-insecure") {
		val, err := fs.GetBool("trace-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("trace-sample-rate") {
		val, err := fs.GetFloat64("trace-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	return nil
}
