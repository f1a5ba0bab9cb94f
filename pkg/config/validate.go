package config

import (
	"strings"

	"kcoord/pkg/concurrency/lock"
	coorderr "kcoord/pkg/error"
	"kcoord/pkg/logging"
	"kcoord/pkg/primitives"
)

// Validate rejects settings the managers cannot run with.
func (c *Config) Validate() error {
	if c.Futex.HashBits < 1 || c.Futex.HashBits > 32 {
		return invalid("futex.hash_bits must be between 1 and 32, got %d", c.Futex.HashBits)
	}
	if _, err := primitives.NewHasher(c.Futex.Hash); err != nil {
		return invalid("futex.hash: %v", err).WithHint("use fnv1a or xxhash")
	}
	if _, err := c.Lock.Strategy(); err != nil {
		return invalid("lock.default_strategy: %v", err)
	}
	if _, err := c.Arbiter.Policy(); err != nil {
		return invalid("arbiter.default_policy: %v", err)
	}

	presets := map[lock.PresetName]lock.SpinParams{
		lock.PresetAggressive:   c.Lock.Presets.Aggressive,
		lock.PresetDefault:      c.Lock.Presets.Default,
		lock.PresetConservative: c.Lock.Presets.Conservative,
	}
	for _, name := range []lock.PresetName{lock.PresetAggressive, lock.PresetDefault, lock.PresetConservative} {
		p := presets[name]
		if p.BackoffMin > p.BackoffMax {
			return invalid("lock.presets.%s: backoff_min %d exceeds backoff_max %d", name, p.BackoffMin, p.BackoffMax)
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return invalid("log.format must be text or json, got %q", c.Log.Format)
	}
	switch logging.LogLevel(strings.ToUpper(string(c.Log.Level))) {
	case "", logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return invalid("log.level %q is not one of DEBUG, INFO, WARN, ERROR", c.Log.Level)
	}
	return nil
}

func invalid(format string, args ...any) *coorderr.CoordError {
	return coorderr.Newf(coorderr.ErrCategoryUser, coorderr.CodeConfigInvalid, format, args...)
}
