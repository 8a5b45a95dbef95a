// Package config declares the shared configuration for the shaping and
// policing binaries and loads it from flags and optional config files.
package config

import (
	"fmt"
	"time"

	"github.com/torosent/stampede/contract"
	"github.com/torosent/stampede/gcra"
	"github.com/torosent/stampede/throttle"
	"github.com/torosent/stampede/ticks"
)

// TracingConfig controls the optional OTLP trace exporter.
type TracingConfig struct {
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`
	Protocol    string  `json:"protocol" yaml:"protocol"` // "grpc" or "http"
	ServiceName string  `json:"service_name" yaml:"service_name"`
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`
	Insecure    bool    `json:"insecure" yaml:"insecure"`
}

// Enabled reports whether an exporter endpoint was configured.
func (t TracingConfig) Enabled() bool {
	return t.Endpoint != ""
}

// Config is the resolved configuration for a shaping or policing run. Rates
// are in events per second, where an event is one byte of the stream.
type Config struct {
	PeakRate      int64 `json:"peak_rate" yaml:"peak_rate"`
	SustainedRate int64 `json:"sustained_rate" yaml:"sustained_rate"`
	BurstSize     int64 `json:"burst_size" yaml:"burst_size"`
	BlockSize     int64 `json:"block_size" yaml:"block_size"`

	JSONOutput       bool          `json:"json_output" yaml:"json_output"`
	Progress         bool          `json:"progress" yaml:"progress"`
	ProgressInterval time.Duration `json:"progress_interval" yaml:"progress_interval"`
	Verbose          bool          `json:"verbose" yaml:"verbose"`
	Debug            bool          `json:"debug" yaml:"debug"`

	Thresholds []string      `json:"thresholds" yaml:"thresholds"`
	Tracing    TracingConfig `json:"tracing" yaml:"tracing"`

	ConfigFile string `json:"-" yaml:"-"`
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.PeakRate < 1 {
		return fmt.Errorf("peak rate must be at least 1 event/s, got %d", c.PeakRate)
	}
	if c.SustainedRate < 1 {
		return fmt.Errorf("sustained rate must be at least 1 event/s, got %d", c.SustainedRate)
	}
	if c.SustainedRate > c.PeakRate {
		return fmt.Errorf("sustained rate %d exceeds peak rate %d", c.SustainedRate, c.PeakRate)
	}
	if c.BurstSize < 1 {
		return fmt.Errorf("burst size must be at least 1 event, got %d", c.BurstSize)
	}
	if c.BlockSize < 1 {
		return fmt.Errorf("block size must be at least 1 byte, got %d", c.BlockSize)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress interval must not be negative, got %s", c.ProgressInterval)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %g", c.Tracing.SampleRate)
	}
	return nil
}

// PeakIncrement returns the contracted interval of the peak scheduler.
func (c *Config) PeakIncrement() ticks.Ticks {
	return gcra.Increment(throttle.Events(c.PeakRate), 1, ticks.Frequency())
}

// SustainedIncrement returns the contracted interval of the sustained
// scheduler.
func (c *Config) SustainedIncrement() ticks.Ticks {
	return gcra.Increment(throttle.Events(c.SustainedRate), 1, ticks.Frequency())
}

// ShapingContract builds the contract a shaper enforces: no jitter
// tolerance, since the shaper itself introduces the jitter a policer must
// forgive.
func (c *Config) ShapingContract(now ticks.Ticks) contract.Contract {
	peak := c.PeakIncrement()
	sustained := c.SustainedIncrement()
	tolerance := contract.BurstTolerance(peak, 0, sustained, throttle.Events(c.BurstSize))
	return contract.New(peak, 0, sustained, tolerance, now)
}

// PolicingContract builds the contract a policer enforces: the shaping
// contract widened by the jitter tolerance of the peak scheduler.
func (c *Config) PolicingContract(now ticks.Ticks) contract.Contract {
	peak := c.PeakIncrement()
	sustained := c.SustainedIncrement()
	jitter := gcra.JitterTolerance(peak, throttle.Events(c.BurstSize))
	tolerance := contract.BurstTolerance(peak, jitter, sustained, throttle.Events(c.BurstSize))
	return contract.New(peak, jitter, sustained, tolerance, now)
}
