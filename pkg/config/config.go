// Package config loads kcoord settings from defaults, an optional YAML file
// and KCOORD_* environment variables, in that order.
package config

import (
	"io"

	"gopkg.in/yaml.v3"

	"kcoord/pkg/concurrency/arbiter"
	"kcoord/pkg/concurrency/batch"
	"kcoord/pkg/concurrency/futex"
	"kcoord/pkg/concurrency/lock"
	"kcoord/pkg/logging"
	"kcoord/pkg/primitives"
)

// Config is the full set of kcoord settings.
type Config struct {
	Log     logging.Config `yaml:"log"`
	Futex   FutexConfig    `yaml:"futex"`
	Lock    LockConfig     `yaml:"lock"`
	Arbiter ArbiterConfig  `yaml:"arbiter"`
	Batch   BatchConfig    `yaml:"batch"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// FutexConfig sizes the wait-address table.
type FutexConfig struct {
	HashBits uint                `yaml:"hash_bits"`
	Hash     primitives.HashKind `yaml:"hash"`
}

// LockConfig sets the default strategy and the spin presets.
type LockConfig struct {
	DefaultStrategy string       `yaml:"default_strategy"`
	Presets         lock.Presets `yaml:"presets"`
}

// ArbiterConfig sets the policy for resources created without one.
type ArbiterConfig struct {
	DefaultPolicy string `yaml:"default_policy"`
}

// BatchConfig sets the timeout for groups created without one. Zero
// disables timeouts.
type BatchConfig struct {
	DefaultTimeoutNs uint64 `yaml:"default_timeout_ns"`
}

// MetricsConfig is the telemetry listener.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: logging.Config{
			Level:  logging.LevelInfo,
			Format: "text",
		},
		Futex: FutexConfig{
			HashBits: futex.DefaultHashBits,
			Hash:     primitives.HashFNV1a,
		},
		Lock: LockConfig{
			DefaultStrategy: lock.Adaptive.String(),
			Presets:         lock.DefaultPresets(),
		},
		Arbiter: ArbiterConfig{
			DefaultPolicy: arbiter.HighestPriority.String(),
		},
		Metrics: MetricsConfig{
			Listen: ":9464",
		},
	}
}

// Strategy returns the parsed default lock strategy.
func (c LockConfig) Strategy() (lock.Strategy, error) {
	return lock.ParseStrategy(c.DefaultStrategy)
}

// Policy returns the parsed default arbitration policy.
func (c ArbiterConfig) Policy() (arbiter.Policy, error) {
	return arbiter.ParsePolicy(c.DefaultPolicy)
}

// Timeout returns the default group timeout as a tick count.
func (c BatchConfig) Timeout() primitives.Tick {
	return primitives.Tick(c.DefaultTimeoutNs)
}

// FutexOptions builds futex manager options. The config must be valid.
func (c *Config) FutexOptions() futex.Options {
	hasher, _ := primitives.NewHasher(c.Futex.Hash)
	return futex.Options{HashBits: c.Futex.HashBits, Hasher: hasher}
}

// LockOptions builds lock manager options. The config must be valid.
func (c *Config) LockOptions() lock.Options {
	strategy, _ := c.Lock.Strategy()
	return lock.Options{DefaultStrategy: strategy, Presets: c.Lock.Presets}
}

// ArbiterOptions builds arbiter manager options. The config must be valid.
func (c *Config) ArbiterOptions() arbiter.Options {
	policy, _ := c.Arbiter.Policy()
	return arbiter.Options{DefaultPolicy: policy}
}

// BatchOptions builds group manager options.
func (c *Config) BatchOptions() batch.Options {
	return batch.Options{DefaultTimeout: c.Batch.Timeout()}
}

// Write encodes the configuration as YAML.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
