// Package config loads lanevm settings from TOML files.
//
// A complete file looks like:
//
//	[compiler]
//	max_registers = 256
//
//	[vm]
//	max_iterations = 65536
//	workers = 8
//	partition_size = 0
//	seed = 42
//
//	[log]
//	level = "info"
//
// Missing keys keep their defaults. A missing seed leaves rand
// nondeterministic.
package config

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/lanevm/compiler"
	"github.com/deepnoodle-ai/lanevm/vm"
)

// Config represents a lanevm configuration file.
type Config struct {
	Compiler Compiler `toml:"compiler"`
	VM       VM       `toml:"vm"`
	Log      Log      `toml:"log"`

	// Path is the file the configuration was read from (set at load time).
	Path string `toml:"-"`
}

// Compiler configures lowering.
type Compiler struct {
	MaxRegisters int `toml:"max_registers"`
}

// VM configures execution.
type VM struct {
	MaxIterations int     `toml:"max_iterations"`
	Workers       int     `toml:"workers"`
	PartitionSize int     `toml:"partition_size"`
	Seed          *uint64 `toml:"seed"`
}

// Log configures the logger returned by Logger.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Compiler: Compiler{MaxRegisters: 256},
		VM: VM{
			MaxIterations: vm.DefaultMaxIterations,
			Workers:       runtime.GOMAXPROCS(0),
		},
		Log: Log{Level: "info"},
	}
}

// Parse decodes TOML data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Compiler.MaxRegisters < 1 || c.Compiler.MaxRegisters > 256 {
		result = multierror.Append(result, fmt.Errorf("compiler.max_registers must be in 1..256, got %d", c.Compiler.MaxRegisters))
	}
	if c.VM.MaxIterations < 1 {
		result = multierror.Append(result, fmt.Errorf("vm.max_iterations must be positive, got %d", c.VM.MaxIterations))
	}
	if c.VM.Workers < 1 {
		result = multierror.Append(result, fmt.Errorf("vm.workers must be positive, got %d", c.VM.Workers))
	}
	if c.VM.PartitionSize < 0 {
		result = multierror.Append(result, fmt.Errorf("vm.partition_size must not be negative, got %d", c.VM.PartitionSize))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level: %w", err))
	}
	return result.ErrorOrNil()
}

// CompilerOptions returns the compiler options the configuration selects.
func (c *Config) CompilerOptions(logger zerolog.Logger) []compiler.Option {
	return []compiler.Option{
		compiler.WithLogger(logger),
		compiler.WithMaxRegisters(c.Compiler.MaxRegisters),
	}
}

// VMOptions returns the VM options the configuration selects.
func (c *Config) VMOptions(logger zerolog.Logger) []vm.Option {
	opts := []vm.Option{
		vm.WithLogger(logger),
		vm.WithMaxIterations(c.VM.MaxIterations),
		vm.WithWorkers(c.VM.Workers),
		vm.WithPartitionSize(c.VM.PartitionSize),
	}
	if c.VM.Seed != nil {
		opts = append(opts, vm.WithSeed(*c.VM.Seed))
	}
	return opts
}

// Logger returns a logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
