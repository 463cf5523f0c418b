// Package memconfig provides unified configuration for the relationship
// memory pipeline. It is the single source of truth for chunking windows,
// analysis budgets and retrieval scoring weights, shared by the server,
// the import CLI and the tests.
package memconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the unified pipeline configuration
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Storage   StorageConfig   `yaml:"storage"`
}

type AnalysisConfig struct {
	Model   string      `yaml:"model"`
	Chunk   ChunkCall   `yaml:"chunk"`
	Master  MasterCall  `yaml:"master"`
	Excerpt ExcerptCall `yaml:"excerpt"`
	Workers int         `yaml:"workers"`
}

// ChunkCall bounds the per-chunk indexing call.
type ChunkCall struct {
	SampleChars int     `yaml:"sample_chars"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// MasterCall bounds the whole-conversation summary call.
type MasterCall struct {
	SampleSize     int     `yaml:"sample_size"`
	SampleMsgChars int     `yaml:"sample_msg_chars"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int64   `yaml:"max_tokens"`
}

// ExcerptCall bounds the retrieval-time excerpt call.
type ExcerptCall struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	InputChars  int     `yaml:"input_chars"`
}

type ChunkingConfig struct {
	Window      WindowConfig `yaml:"window"`
	MaxMessages int          `yaml:"max_messages"`
}

// WindowConfig selects the chunk window by conversation density.
type WindowConfig struct {
	DenseDays        int     `yaml:"dense_days"`
	MediumDays       int     `yaml:"medium_days"`
	SparseDays       int     `yaml:"sparse_days"`
	DenseMsgsPerDay  float64 `yaml:"dense_msgs_per_day"`
	MediumMsgsPerDay float64 `yaml:"medium_msgs_per_day"`
}

type RetrievalConfig struct {
	Weights          ScoreWeights `yaml:"weights"`
	TopK             int          `yaml:"top_k"`
	VerbatimMaxChars int          `yaml:"verbatim_max_chars"`
	FallbackChars    int          `yaml:"fallback_chars"`
	MaxSearchTerms   int          `yaml:"max_search_terms"`
}

// ScoreWeights are the additive chunk scoring weights. Date overlap
// dominates; keyword and topic matches are mid-weight; summary substring
// is the weakest signal. LegacyDateText only applies when the query has
// no structured date hint.
type ScoreWeights struct {
	DateOverlap     float64 `yaml:"date_overlap"`
	DateContainment float64 `yaml:"date_containment"`
	Keyword         float64 `yaml:"keyword"`
	Topic           float64 `yaml:"topic"`
	Summary         float64 `yaml:"summary"`
	LegacyDateText  float64 `yaml:"legacy_date_text"`
}

type StorageConfig struct {
	SQLite   string `yaml:"sqlite"`
	BlobRoot string `yaml:"blob_root"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Model: "gpt-4o-mini",
			Chunk: ChunkCall{
				SampleChars: 15000,
				Temperature: 0.5,
				MaxTokens:   1000,
			},
			Master: MasterCall{
				SampleSize:     100,
				SampleMsgChars: 200,
				Temperature:    0.7,
				MaxTokens:      2000,
			},
			Excerpt: ExcerptCall{
				Temperature: 0.3,
				MaxTokens:   800,
				InputChars:  8000,
			},
			Workers: 4,
		},
		Chunking: ChunkingConfig{
			Window: WindowConfig{
				DenseDays:        7,
				MediumDays:       14,
				SparseDays:       30,
				DenseMsgsPerDay:  50,
				MediumMsgsPerDay: 10,
			},
			MaxMessages: 1000,
		},
		Retrieval: RetrievalConfig{
			Weights: ScoreWeights{
				DateOverlap:     10,
				DateContainment: 5,
				Keyword:         3,
				Topic:           2,
				Summary:         1,
				LegacyDateText:  4,
			},
			TopK:             5,
			VerbatimMaxChars: 2000,
			FallbackChars:    1500,
			MaxSearchTerms:   5,
		},
		Storage: StorageConfig{
			SQLite:   "memoir.db",
			BlobRoot: "chunk_blobs",
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default() // Start with defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadFromDir looks for memoir.yaml in the given directory or parent directories
func LoadFromDir(dir string) (*Config, error) {
	current := dir
	for {
		path := filepath.Join(current, "memoir.yaml")
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(current)
		if parent == current {
			break // Reached root
		}
		current = parent
	}

	return nil, fmt.Errorf("memoir.yaml not found in %s or parent directories", dir)
}

// LoadOrDefault tries to load from memoir.yaml, falls back to defaults
func LoadOrDefault(dir string) *Config {
	cfg, err := LoadFromDir(dir)
	if err != nil {
		return Default()
	}
	return cfg
}

// Hash returns a SHA256 hash of the configuration for change detection
func (c *Config) Hash() string {
	data, _ := yaml.Marshal(c)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
