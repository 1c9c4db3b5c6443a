package compiler

import "github.com/rs/zerolog"

// Config holds compiler configuration options.
type Config struct {
	// Logger receives debug events about each compilation. Defaults to a
	// disabled logger.
	Logger zerolog.Logger

	// MaxRegisters lowers the register budget below the format limit of 256,
	// for targets with smaller register files.
	MaxRegisters int
}

// Option is a configuration function for the compiler.
type Option func(*Config)

// WithLogger sets the logger used for compile events.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithMaxRegisters limits the number of registers the compiler may allocate.
// Values outside 1..256 select the format limit.
func WithMaxRegisters(n int) Option {
	return func(cfg *Config) {
		cfg.MaxRegisters = n
	}
}

func newConfig(opts []Option) *Config {
	cfg := &Config{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
