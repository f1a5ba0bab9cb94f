package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kcoord/pkg/concurrency/arbiter"
	"kcoord/pkg/concurrency/lock"
	coorderr "kcoord/pkg/error"
	"kcoord/pkg/primitives"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kcoord.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func envMap(vars map[string]string) EnvFeeder {
	return EnvFeeder{Lookup: func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint(10), cfg.Futex.HashBits)
	assert.Equal(t, primitives.HashFNV1a, cfg.Futex.Hash)
	assert.Equal(t, lock.DefaultPresets(), cfg.Lock.Presets)

	strategy, err := cfg.Lock.Strategy()
	require.NoError(t, err)
	assert.Equal(t, lock.Adaptive, strategy)
}

func TestYamlFeederOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
futex:
  hash_bits: 12
  hash: xxhash
lock:
  default_strategy: hybrid
  presets:
    default:
      max_spins: 200
arbiter:
  default_policy: lottery
batch:
  default_timeout_ns: 5000
`)

	cfg, err := LoadWith(YamlFeeder{File: path})
	require.NoError(t, err)

	assert.Equal(t, uint(12), cfg.Futex.HashBits)
	assert.Equal(t, primitives.HashXX, cfg.Futex.Hash)
	assert.Equal(t, "hybrid", cfg.Lock.DefaultStrategy)
	assert.Equal(t, uint32(200), cfg.Lock.Presets.Default.MaxSpins)
	// untouched preset fields keep their defaults
	assert.Equal(t, uint32(256), cfg.Lock.Presets.Default.BackoffMax)
	assert.Equal(t, primitives.Tick(5000), cfg.Batch.Timeout())
	assert.Equal(t, ":9464", cfg.Metrics.Listen)

	assert.Equal(t, arbiter.Lottery, cfg.ArbiterOptions().DefaultPolicy)
	assert.Equal(t, lock.Hybrid, cfg.LockOptions().DefaultStrategy)
	assert.NotNil(t, cfg.FutexOptions().Hasher)
}

func TestYamlFeederEmptyFile(t *testing.T) {
	cfg, err := LoadWith(YamlFeeder{File: writeFile(t, "")})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestYamlFeederErrors(t *testing.T) {
	_, err := LoadWith(YamlFeeder{File: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.True(t, coorderr.HasCode(err, coorderr.CodeConfigRead))

	_, err = LoadWith(YamlFeeder{File: writeFile(t, "futex:\n  buckets: 3\n")})
	require.Error(t, err)
	assert.True(t, coorderr.HasCode(err, coorderr.CodeConfigRead))
}

func TestEnvFeederOverridesYaml(t *testing.T) {
	path := writeFile(t, "futex:\n  hash_bits: 12\n")
	env := envMap(map[string]string{
		"KCOORD_FUTEX_HASH_BITS":  "16",
		"KCOORD_LOCK_STRATEGY":    "spin_only",
		"KCOORD_BATCH_TIMEOUT_NS": "250",
		"KCOORD_LOG_LEVEL":        "debug",
	})

	cfg, err := LoadWith(YamlFeeder{File: path}, env)
	require.NoError(t, err)

	assert.Equal(t, uint(16), cfg.Futex.HashBits)
	assert.Equal(t, "spin_only", cfg.Lock.DefaultStrategy)
	assert.Equal(t, uint64(250), cfg.Batch.DefaultTimeoutNs)
}

func TestEnvFeederBadNumber(t *testing.T) {
	_, err := LoadWith(envMap(map[string]string{"KCOORD_BATCH_TIMEOUT_NS": "soon"}))
	require.Error(t, err)
	assert.True(t, coorderr.HasCode(err, coorderr.CodeConfigInvalid))
}

func TestLoadReadsProcessEnv(t *testing.T) {
	t.Setenv("KCOORD_ARBITER_POLICY", "round_robin")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "round_robin", cfg.Arbiter.DefaultPolicy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero hash bits", func(c *Config) { c.Futex.HashBits = 0 }},
		{"too many hash bits", func(c *Config) { c.Futex.HashBits = 33 }},
		{"unknown hash", func(c *Config) { c.Futex.Hash = "crc32" }},
		{"unknown strategy", func(c *Config) { c.Lock.DefaultStrategy = "ticket" }},
		{"unknown policy", func(c *Config) { c.Arbiter.DefaultPolicy = "fifo" }},
		{"inverted backoff", func(c *Config) { c.Lock.Presets.Conservative.BackoffMin = 2048 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad log level", func(c *Config) { c.Log.Level = "TRACE" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, coorderr.HasCode(err, coorderr.CodeConfigInvalid))
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Futex.HashBits = 14

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))
	assert.Contains(t, buf.String(), "hash_bits: 14")

	path := writeFile(t, buf.String())
	loaded, err := LoadWith(YamlFeeder{File: path})
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
