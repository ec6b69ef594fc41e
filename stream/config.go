package stream

import (
	"fmt"
	"os"

	"github.com/newsketch/newsketch"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface of the analytics core. Every
// knob is fixed at construction and validated eagerly.
type Config struct {
	Bloom       BloomConfig       `yaml:"bloom"`
	CountMin    CountMinConfig    `yaml:"count_min"`
	Sampler     SamplerConfig     `yaml:"sampler"`
	Cardinality CardinalityConfig `yaml:"cardinality"`
	Moment      MomentConfig      `yaml:"moment"`
	Clusterer   ClustererConfig   `yaml:"clusterer"`
}

type BloomConfig struct {
	Capacity  uint    `yaml:"capacity"`
	ErrorRate float64 `yaml:"error_rate"`
}

type CountMinConfig struct {
	Width uint `yaml:"width"`
	Depth uint `yaml:"depth"`
}

type SamplerConfig struct {
	SampleSize uint `yaml:"sample_size"`
}

type CardinalityConfig struct {
	BitWidth  uint `yaml:"bit_width"`
	NumHashes uint `yaml:"num_hashes"`
}

type MomentConfig struct {
	NumEstimators uint `yaml:"num_estimators"`
}

type ClustererConfig struct {
	ThresholdBits int `yaml:"threshold_bits"`
}

// DefaultConfig mirrors the sizing the original deployment ran with.
func DefaultConfig() Config {
	return Config{
		Bloom:       BloomConfig{Capacity: 10000, ErrorRate: 0.01},
		CountMin:    CountMinConfig{Width: 1000, Depth: 5},
		Sampler:     SamplerConfig{SampleSize: 5},
		Cardinality: CardinalityConfig{BitWidth: 64, NumHashes: 16},
		Moment:      MomentConfig{NumEstimators: 10},
		Clusterer:   ClustererConfig{ThresholdBits: 15},
	}
}

// LoadConfig reads a YAML file over the defaults: absent keys keep
// their default values.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("newsketch: error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("newsketch: error parsing config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate fails fast on any out-of-range knob, so no add path has to
// re-check.
func (c Config) Validate() error {
	if c.Bloom.Capacity == 0 {
		return fmt.Errorf("%w: bloom capacity must be greater than 0", newsketch.ErrInvalidParameter)
	}
	if c.Bloom.ErrorRate <= 0 || c.Bloom.ErrorRate >= 1 {
		return fmt.Errorf("%w: bloom error rate %f must be in (0, 1)", newsketch.ErrInvalidParameter, c.Bloom.ErrorRate)
	}
	if c.CountMin.Width == 0 || c.CountMin.Depth == 0 {
		return fmt.Errorf("%w: count-min width and depth must be greater than 0", newsketch.ErrInvalidParameter)
	}
	if c.Sampler.SampleSize == 0 {
		return fmt.Errorf("%w: sampler sample size must be greater than 0", newsketch.ErrInvalidParameter)
	}
	if c.Cardinality.BitWidth == 0 || c.Cardinality.BitWidth > 64 {
		return fmt.Errorf("%w: cardinality bit width %d must be in 1..64", newsketch.ErrInvalidParameter, c.Cardinality.BitWidth)
	}
	if c.Cardinality.NumHashes == 0 {
		return fmt.Errorf("%w: cardinality needs at least one hash function", newsketch.ErrInvalidParameter)
	}
	if c.Moment.NumEstimators == 0 {
		return fmt.Errorf("%w: moment needs at least one estimator", newsketch.ErrInvalidParameter)
	}
	if c.Clusterer.ThresholdBits <= 0 || c.Clusterer.ThresholdBits > 64 {
		return fmt.Errorf("%w: clusterer threshold %d must be in 1..64", newsketch.ErrInvalidParameter, c.Clusterer.ThresholdBits)
	}
	return nil
}
