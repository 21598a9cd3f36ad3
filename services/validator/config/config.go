// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config holds the runtime configuration for the response validator:
// parser defaults, spelling-correction bounds, corpora locations, and the
// built-in feature weight set.
//
// Configuration is resolved in three layers, later layers winning:
// compiled-in defaults, an optional YAML file (VALIDATOR_CONFIG), and
// individual environment variables. The environment variable names mirror the
// deployment conventions this service has always used, so existing deploy
// manifests keep working.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser Option Defaults
// =============================================================================

// ParserDefaults are the fallback values for the per-request parser options.
//
// Description:
//
//	Every /validate and /train call may override these; an absent or
//	unparseable override falls back to the value here rather than erroring,
//	because the service must always return a best-effort score.
//
// Thread Safety: Immutable after Load; safe for concurrent use.
type ParserDefaults struct {
	// RemoveStopwords drops common English stopwords from the token stream.
	RemoveStopwords bool `yaml:"remove_stopwords"`

	// TagNumeric replaces numeric/symbolic literals with reserved tags.
	// Auto resolves from the question's contains-number flag.
	TagNumeric Tristate `yaml:"tag_numeric"`

	// SpellingCorrection enables Norvig-style correction. Auto runs the
	// cheap uncorrected pass first and only corrects when that pass is
	// invalid.
	SpellingCorrection Tristate `yaml:"spelling_correction"`

	// RemoveNonwords replaces tokens outside the known-word set with the
	// nonsense_word sentinel.
	RemoveNonwords bool `yaml:"remove_nonwords"`

	// SpellCorrectionMax bounds how many tokens a single request may correct.
	SpellCorrectionMax int `yaml:"spell_correction_max"`

	// LazyMathMode skips math-expression evaluation for tokens that contain
	// no digit or operator character. Expression parsing is the most
	// expensive literal check, so the prefilter is on by default.
	LazyMathMode bool `yaml:"lazy_math_mode"`
}

// SpellingDefaults bound the work the spelling corrector performs per token.
type SpellingDefaults struct {
	// MaxEditDistance is reserved for future use; the corrector currently
	// expands edit-1 then edit-2 candidates.
	MaxEditDistance int `yaml:"spell_correction_max_edit_distance"`

	// MinWordLength is the shortest token the corrector will touch.
	// Tokens of this length or shorter pass through unchanged.
	MinWordLength int `yaml:"spell_correction_min_word_length"`
}

// =============================================================================
// Config
// =============================================================================

// Config is the full service configuration.
//
// Thread Safety: Immutable after Load; safe for concurrent use.
type Config struct {
	// DataDir holds the vocabulary CSVs, corpora, and the weight store.
	DataDir string `yaml:"data_dir"`

	// CorporaFiles are the reference texts the frequency dictionary is built
	// from, relative to DataDir unless absolute. Startup fails if none can
	// be read; a validator without a dictionary cannot serve.
	CorporaFiles []string `yaml:"corpora_files"`

	// WordListFiles are additional known-word lists (one word per line)
	// merged into the dictionary without affecting corpus frequencies.
	WordListFiles []string `yaml:"word_list_files"`

	// BadWordsFile extends the built-in garbage vocabulary. Optional.
	BadWordsFile string `yaml:"bad_words_file"`

	Parser   ParserDefaults   `yaml:"parser_defaults"`
	Spelling SpellingDefaults `yaml:"spelling_correction_defaults"`

	// DefaultFeatureWeights seed the weight store on first boot.
	DefaultFeatureWeights map[string]float64 `yaml:"default_feature_weights"`

	// DefaultFeatureWeightsKey is the key the seed set is stored under and
	// the initial value of the store's default pointer.
	DefaultFeatureWeightsKey string `yaml:"default_feature_weights_key"`
}

// Default returns the compiled-in configuration, matching the values the
// service has historically shipped with.
func Default() *Config {
	return &Config{
		DataDir:      "data",
		CorporaFiles: []string{"corpora/big.txt", "corpora/all_plaintext.txt"},
		Parser: ParserDefaults{
			RemoveStopwords:    true,
			TagNumeric:         TristateAuto,
			SpellingCorrection: TristateAuto,
			RemoveNonwords:     true,
			SpellCorrectionMax: 10,
			LazyMathMode:       true,
		},
		Spelling: SpellingDefaults{
			MaxEditDistance: 3,
			MinWordLength:   5,
		},
		DefaultFeatureWeights: map[string]float64{
			"stem_word_count":       0,
			"option_word_count":     0,
			"innovation_word_count": 2.2,
			"domain_word_count":     2.5,
			"bad_word_count":        -3,
			"common_word_count":     0.7,
		},
		DefaultFeatureWeightsKey: "d3732be6-a759-43aa-9e1a-3e9bd94f8b6b",
	}
}

// =============================================================================
// Loading
// =============================================================================

var (
	loadOnce sync.Once
	loaded   *Config
	loadErr  error
)

// Load resolves the configuration once per process.
//
// Description:
//
//	Starts from Default, overlays the YAML file named by VALIDATOR_CONFIG
//	(if set), then overlays individual environment variables. Subsequent
//	calls return the same instance.
//
// Outputs:
//
//	*Config - The resolved configuration.
//	error - Non-nil if the YAML file was named but unreadable or invalid.
//
// Thread Safety: Safe for concurrent use.
func Load() (*Config, error) {
	loadOnce.Do(func() {
		loaded, loadErr = load()
	})
	return loaded, loadErr
}

func load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("VALIDATOR_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays individual environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("DATA_DIR"); ok {
		cfg.DataDir = v
	}

	envBool("PARSER_DEFAULTS_REMOVE_STOPWORDS", &cfg.Parser.RemoveStopwords)
	envTristate("PARSER_DEFAULTS_TAG_NUMERIC", &cfg.Parser.TagNumeric)
	envTristate("PARSER_DEFAULTS_SPELLING_CORRECTION", &cfg.Parser.SpellingCorrection)
	envBool("PARSER_DEFAULTS_REMOVE_NONWORDS", &cfg.Parser.RemoveNonwords)
	envInt("PARSER_DEFAULTS_SPELL_CORRECTION_MAX", &cfg.Parser.SpellCorrectionMax)
	envBool("PARSER_DEFAULTS_LAZY_MATH_MODE", &cfg.Parser.LazyMathMode)

	envInt("SPELLING_CORRECTION_DEFAULTS_SPELL_CORRECTION_MAX_EDIT_DISTANCE",
		&cfg.Spelling.MaxEditDistance)
	envInt("SPELLING_CORRECTION_DEFAULTS_SPELL_CORRECTION_MIN_WORD_LENGTH",
		&cfg.Spelling.MinWordLength)

	for name := range cfg.DefaultFeatureWeights {
		env := "DEFAULT_FEATURE_WEIGHTS_" + strings.ToUpper(name)
		if v, ok := os.LookupEnv(env); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				cfg.DefaultFeatureWeights[name] = f
			}
		}
	}
	if v, ok := os.LookupEnv("DEFAULT_FEATURE_WEIGHTS_KEY"); ok {
		cfg.DefaultFeatureWeightsKey = v
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.EqualFold(v, "true")
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envTristate(key string, dst *Tristate) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = ParseTristate(v, *dst)
	}
}

// ResolvePath resolves a possibly-relative data file path against DataDir.
func (c *Config) ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
