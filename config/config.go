// Package config layers an optional YAML file over the build-time defaults
// in package constants. Only knobs that are safe to change at startup are
// exposed; the puzzle shape stays a constant in production builds.
package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"cuckminer/constants"
)

// Config is the runtime configuration of the miner core.
type Config struct {
	// CycleLength overrides constants.CycleLength (reduced test graphs only).
	CycleLength int `yaml:"cycle_length"`
	// EdgeBits overrides constants.EdgeBits (reduced test graphs only).
	EdgeBits uint `yaml:"edge_bits"`
	// MaxEdges bounds surviving edges kept per attempt.
	MaxEdges int `yaml:"max_edges"`
	// MaxThreads caps the persistent worker pool.
	MaxThreads int `yaml:"max_threads"`
	// SearchThreads caps the workers that run the cycle search.
	SearchThreads int `yaml:"search_threads"`
	// FirstSplitPercent is the first searching worker's share of edges.
	FirstSplitPercent int `yaml:"first_split_percent"`
	// Pin enables core affinity and priority elevation for workers.
	Pin bool `yaml:"pin"`
	// DBPath is the SQLite log of attempts and solutions; empty disables it.
	DBPath string `yaml:"db_path"`
	// MetricsAddr serves Prometheus metrics; empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the build-time configuration.
func Default() Config {
	return Config{
		CycleLength:       constants.CycleLength,
		EdgeBits:          constants.EdgeBits,
		MaxEdges:          constants.MaxEdges,
		MaxThreads:        constants.MaxThreads,
		SearchThreads:     constants.SearchThreads,
		FirstSplitPercent: constants.FirstSplitPercent,
		Pin:               true,
	}
}

// Load reads path over Default. A missing path yields Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "config: read "+path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "config: parse "+path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Threads returns the pool size: available parallelism capped by MaxThreads.
func (c Config) Threads() int {
	n := runtime.NumCPU()
	if c.MaxThreads > 0 && n > c.MaxThreads {
		n = c.MaxThreads
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Searchers returns how many of threads run the cycle search: at most
// SearchThreads, at most log2(MaxEdges), at least one.
func (c Config) Searchers(threads int) int {
	n := c.SearchThreads
	if n > threads {
		n = threads
	}
	log2 := 0
	for e := c.MaxEdges; e > 1; e >>= 1 {
		log2++
	}
	if n > log2 {
		n = log2
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Validate rejects settings the search cannot honor.
func (c Config) Validate() error {
	switch {
	case c.CycleLength < 2 || c.CycleLength&1 != 0:
		return errors.Errorf("config: cycle_length %d must be even and ≥ 2", c.CycleLength)
	case c.EdgeBits < 6 || c.EdgeBits > 32:
		return errors.Errorf("config: edge_bits %d out of range [6,32]", c.EdgeBits)
	case c.MaxEdges < 1 || c.MaxEdges > 1<<30:
		return errors.Errorf("config: max_edges %d out of range", c.MaxEdges)
	case c.MaxThreads < 1:
		return errors.Errorf("config: max_threads %d must be ≥ 1", c.MaxThreads)
	case c.SearchThreads < 1:
		return errors.Errorf("config: search_threads %d must be ≥ 1", c.SearchThreads)
	case c.FirstSplitPercent < 1 || c.FirstSplitPercent > 100:
		return errors.Errorf("config: first_split_percent %d out of range [1,100]", c.FirstSplitPercent)
	}
	return nil
}
