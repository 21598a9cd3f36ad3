// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validator exposes the response-validation service over HTTP:
// scoring free-text responses against question vocabularies, managing
// feature weight sets, training new sets from labeled data, and browsing
// the loaded datasets.
package validator

import (
	"github.com/openstax/response-validator/services/validator/config"
)

// Version is reported in every validation result and on /status.
const Version = "3.0.6"

// ResolvedOptions are the per-request parser options after defaults have
// been applied. The tristate fields are resolved inside the service.
type ResolvedOptions struct {
	RemoveStopwords    bool
	TagNumeric         config.Tristate
	SpellingCorrection config.Tristate
	RemoveNonwords     bool
	SpellCorrectionMax int
}

// ValidateParams is one validation request.
type ValidateParams struct {
	// Response is the raw student response; nil when the parameter was
	// absent (scored as no_text, echoed as null).
	Response *string

	// UID identifies the question, e.g. "100@4". Optional.
	UID string

	// WeightSetID selects a stored feature weight set; empty means the
	// store's default.
	WeightSetID string

	Options ResolvedOptions
}

// ValidationResult is the full scoring record returned to the client. The
// field set and names are frozen; grading clients consume them directly.
type ValidationResult struct {
	Response *string `json:"response"`

	// Echoed options. TagNumeric carries the resolved boolean while
	// TagNumericInput preserves what the client sent.
	RemoveStopwords        bool            `json:"remove_stopwords"`
	TagNumeric             bool            `json:"tag_numeric"`
	TagNumericInput        config.Tristate `json:"tag_numeric_input"`
	SpellingCorrection     config.Tristate `json:"spelling_correction"`
	SpellingCorrectionUsed bool            `json:"spelling_correction_used"`
	NumSpellingCorrection  int             `json:"num_spelling_correction"`
	RemoveNonwords         bool            `json:"remove_nonwords"`
	LazyMathEvaluation     bool            `json:"lazy_math_evaluation"`

	ProcessedResponse string `json:"processed_response"`

	UIDUsed  *string `json:"uid_used"`
	UIDFound bool    `json:"uid_found"`

	StemWordCount       int `json:"stem_word_count"`
	OptionWordCount     int `json:"option_word_count"`
	BadWordCount        int `json:"bad_word_count"`
	InnovationWordCount int `json:"innovation_word_count"`
	DomainWordCount     int `json:"domain_word_count"`
	CommonWordCount     int `json:"common_word_count"`

	Intercept    float64 `json:"intercept"`
	InnerProduct float64 `json:"inner_product"`
	Valid        bool    `json:"valid"`

	ComputationTime float64 `json:"computation_time"`
	Version         string  `json:"version"`
}

// TrainRow is one labeled sample in a training request. Pointer fields
// distinguish absent from zero-valued, so a false label still binds.
type TrainRow struct {
	FreeResponse *string `json:"free_response" binding:"required"`
	UID          string  `json:"uid"`
	ValidLabel   *bool   `json:"valid_label" binding:"required"`
}

// TrainRequest is the POST /train payload.
type TrainRequest struct {
	Responses []TrainRow      `json:"responses" binding:"required"`
	Features  map[string]bool `json:"features"`

	// Parser option overrides; nil fields fall back to configured
	// defaults.
	RemoveStopwords    *bool            `json:"remove_stopwords"`
	TagNumeric         *config.Tristate `json:"tag_numeric"`
	SpellingCorrection *config.Tristate `json:"spelling_correction"`
	RemoveNonwords     *bool            `json:"remove_nonwords"`
	SpellCorrectionMax *int             `json:"spell_correction_max"`
}

// SetDefaultRequest is the PUT /datasets/feature_weights/default payload.
type SetDefaultRequest struct {
	FeatureWeightsSetID string `json:"feature_weights_set_id" binding:"required"`
}
