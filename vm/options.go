package vm

import (
	"runtime"

	"github.com/rs/zerolog"
)

// DefaultMaxIterations is the default cap on the number of times a single
// while loop may run its body in one run.
const DefaultMaxIterations = 65536

// Option is a configuration function for a Virtual Machine.
type Option func(*config)

type config struct {
	maxIterations int
	workers       int
	partitionSize int
	seed          uint64
	seeded        bool
	logger        zerolog.Logger
	observer      Observer
}

func newConfig(opts []Option) config {
	cfg := config{
		maxIterations: DefaultMaxIterations,
		workers:       runtime.GOMAXPROCS(0),
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxIterations <= 0 {
		cfg.maxIterations = DefaultMaxIterations
	}
	if cfg.workers <= 0 {
		cfg.workers = 1
	}
	return cfg
}

// WithMaxIterations sets how many iterations a while loop may run before
// the run fails. Values <= 0 select DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(cfg *config) {
		cfg.maxIterations = n
	}
}

// WithWorkers sets how many partitions run concurrently. The default is
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(cfg *config) {
		cfg.workers = n
	}
}

// WithPartitionSize sets the number of instances per partition. By default
// the batch is split evenly across the workers.
func WithPartitionSize(n int) Option {
	return func(cfg *config) {
		cfg.partitionSize = n
	}
}

// WithSeed makes rand deterministic. Each partition draws from its own
// stream derived from the seed and the partition index, so results also
// depend on how the batch is partitioned.
func WithSeed(seed uint64) Option {
	return func(cfg *config) {
		cfg.seed = seed
		cfg.seeded = true
	}
}

// WithLogger sets the logger used for run events.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithObserver sets an observer for VM execution events. Observers add a
// call per instruction, so leave this unset when not needed.
func WithObserver(observer Observer) Option {
	return func(cfg *config) {
		cfg.observer = observer
	}
}
