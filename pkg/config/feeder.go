package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	coorderr "kcoord/pkg/error"
	"kcoord/pkg/logging"
	"kcoord/pkg/primitives"
)

// Feeder applies one source of settings on top of a Config.
type Feeder interface {
	Feed(cfg *Config) error
}

// YamlFeeder feeds from a YAML file. An empty file is ignored.
type YamlFeeder struct {
	File string
}

func (f YamlFeeder) Feed(cfg *Config) error {
	file, err := os.Open(filepath.Clean(f.File))
	if err != nil {
		return coorderr.Wrap(err, coorderr.CodeConfigRead, "Feed", "YamlFeeder").
			WithDetail("cannot open %s", f.File)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return coorderr.Wrap(err, coorderr.CodeConfigRead, "Feed", "YamlFeeder")
	}

	// File is empty, ignore
	if stat.Size() == 0 {
		return nil
	}

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		ce := coorderr.Wrap(err, coorderr.CodeConfigRead, "Feed", "YamlFeeder").
			WithDetail("cannot decode %s", f.File)
		ce.Category = coorderr.ErrCategoryData
		return ce
	}
	return nil
}

// EnvFeeder feeds from KCOORD_* environment variables.
type EnvFeeder struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// envBinding applies one variable to the config.
type envBinding struct {
	name  string
	apply func(cfg *Config, value string) error
}

var envBindings = []envBinding{
	{"KCOORD_LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = logging.LogLevel(v); return nil }},
	{"KCOORD_LOG_FORMAT", func(c *Config, v string) error { c.Log.Format = v; return nil }},
	{"KCOORD_LOG_OUTPUT", func(c *Config, v string) error { c.Log.OutputPath = v; return nil }},
	{"KCOORD_FUTEX_HASH_BITS", func(c *Config, v string) error {
		bits, err := strconv.ParseUint(v, 10, 8)
		c.Futex.HashBits = uint(bits)
		return err
	}},
	{"KCOORD_FUTEX_HASH", func(c *Config, v string) error { c.Futex.Hash = primitives.HashKind(v); return nil }},
	{"KCOORD_LOCK_STRATEGY", func(c *Config, v string) error { c.Lock.DefaultStrategy = v; return nil }},
	{"KCOORD_ARBITER_POLICY", func(c *Config, v string) error { c.Arbiter.DefaultPolicy = v; return nil }},
	{"KCOORD_BATCH_TIMEOUT_NS", func(c *Config, v string) error {
		ns, err := strconv.ParseUint(v, 10, 64)
		c.Batch.DefaultTimeoutNs = ns
		return err
	}},
	{"KCOORD_METRICS_LISTEN", func(c *Config, v string) error { c.Metrics.Listen = v; return nil }},
}

func (f EnvFeeder) Feed(cfg *Config) error {
	lookup := f.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, b := range envBindings {
		v, ok := lookup(b.name)
		if !ok {
			continue
		}
		if err := b.apply(cfg, v); err != nil {
			ce := coorderr.Wrap(err, coorderr.CodeConfigInvalid, "Feed", "EnvFeeder").
				WithDetail("%s=%q", b.name, v)
			ce.Category = coorderr.ErrCategoryUser
			return ce
		}
	}
	return nil
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	feeders := []Feeder{}
	if path != "" {
		feeders = append(feeders, YamlFeeder{File: path})
	}
	feeders = append(feeders, EnvFeeder{})
	return LoadWith(feeders...)
}

// LoadWith applies feeders over the defaults in order and validates the result.
func LoadWith(feeders ...Feeder) (*Config, error) {
	cfg := Default()
	for _, f := range feeders {
		if err := f.Feed(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
