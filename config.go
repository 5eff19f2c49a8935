package hfstol

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds lookup settings, usually read from a YAML file:
//
//	lookup:
//	  max_results: 10
//	  time_cutoff: 2s
//	  workers: 4
//	pmatch:
//	  extract_tags: true
type Config struct {
	Lookup LookupConfig `yaml:"lookup"`
	Pmatch PmatchConfig `yaml:"pmatch"`
}

// LookupConfig configures lookups on a Transducer.
type LookupConfig struct {
	MaxResults  int           `yaml:"max_results"`  // N-best limit, 0 for all
	FirstOnly   bool          `yaml:"first_only"`   // stop at the first result
	TimeCutoff  time.Duration `yaml:"time_cutoff"`  // soft limit per lookup, 0 for none
	Workers     int           `yaml:"workers"`      // goroutines for LookupAll
	CheckCycles bool          `yaml:"check_cycles"` // use LookupChecked in batch lookups
}

// PmatchConfig configures pattern matching containers.
type PmatchConfig struct {
	Verbose        bool          `yaml:"verbose"`         // trace conflicting matches
	ExtractTags    bool          `yaml:"extract_tags"`    // output tagged spans only
	NormalizeInput bool          `yaml:"normalize_input"` // NFC-normalize input
	TimeCutoff     time.Duration `yaml:"time_cutoff"`     // soft limit per match, 0 for none
}

// DefaultConfig returns the settings used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		Lookup: LookupConfig{
			Workers:     4,
			CheckCycles: true,
		},
	}
}

// LoadConfig reads a YAML configuration. Settings missing from the input
// keep their default values.
func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("unmarshaling YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks settings for consistency.
func (c Config) Validate() error {
	if c.Lookup.MaxResults < 0 {
		return fmt.Errorf("lookup.max_results must not be negative: %d", c.Lookup.MaxResults)
	}
	if c.Lookup.Workers < 1 {
		return fmt.Errorf("lookup.workers must be positive: %d", c.Lookup.Workers)
	}
	if c.Lookup.TimeCutoff < 0 || c.Pmatch.TimeCutoff < 0 {
		return fmt.Errorf("time cutoffs must not be negative")
	}
	return nil
}

// Options turns the lookup settings into lookup options.
func (c LookupConfig) Options() []LookupOption {
	opts := []LookupOption{MaxResults(c.MaxResults), TimeCutoff(c.TimeCutoff)}
	if c.FirstOnly {
		opts = append(opts, FirstOnly())
	}
	return opts
}
