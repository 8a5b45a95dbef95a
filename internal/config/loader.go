package config

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line
// arguments.
type Loader struct {
	use string
}

// ErrHelpRequested is returned when the user requests help via --help.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a configuration Loader for the named binary.
func NewLoader(use string) *Loader {
	return &Loader{use: use}
}

// Load parses command-line arguments and an optional configuration file to
// produce a Config. Flags override file settings.
func (l *Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand(l.use)
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	cfg := &Config{
		PeakRate:         1,
		BurstSize:        1,
		ProgressInterval: time.Second,
		Tracing:          TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfg.ConfigFile = configPath
	if configPath != "" {
		cfgViper := viper.New()
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
		applyConfigSettings(cfg, cfgViper)
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	// The sustained rate defaults to the peak rate (a single-rate
	// contract), and the I/O block size defaults to the burst size.
	if cfg.SustainedRate == 0 {
		cfg.SustainedRate = cfg.PeakRate
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = cfg.BurstSize
	}

	return cfg, nil
}

// applyConfigSettings copies recognised keys from a parsed config file.
func applyConfigSettings(cfg *Config, v *viper.Viper) {
	if v.IsSet("peak_rate") {
		cfg.PeakRate = v.GetInt64("peak_rate")
	}
	if v.IsSet("sustained_rate") {
		cfg.SustainedRate = v.GetInt64("sustained_rate")
	}
	if v.IsSet("burst_size") {
		cfg.BurstSize = v.GetInt64("burst_size")
	}
	if v.IsSet("block_size") {
		cfg.BlockSize = v.GetInt64("block_size")
	}
	if v.IsSet("json_output") {
		cfg.JSONOutput = v.GetBool("json_output")
	}
	if v.IsSet("progress") {
		cfg.Progress = v.GetBool("progress")
	}
	if v.IsSet("progress_interval") {
		cfg.ProgressInterval = v.GetDuration("progress_interval")
	}
	if v.IsSet("verbose") {
		cfg.Verbose = v.GetBool("verbose")
	}
	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}
	if v.IsSet("thresholds") {
		cfg.Thresholds = v.GetStringSlice("thresholds")
	}
	if v.IsSet("tracing.endpoint") {
		cfg.Tracing.Endpoint = v.GetString("tracing.endpoint")
	}
	if v.IsSet("tracing.protocol") {
		cfg.Tracing.Protocol = v.GetString("tracing.protocol")
	}
	if v.IsSet("tracing.service_name") {
		cfg.Tracing.ServiceName = v.GetString("tracing.service_name")
	}
	if v.IsSet("tracing.sample_rate") {
		cfg.Tracing.SampleRate = v.GetFloat64("tracing.sample_rate")
	}
	if v.IsSet("tracing.insecure") {
		cfg.Tracing.Insecure = v.GetBool("tracing.insecure")
	}
}
