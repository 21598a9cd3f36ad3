// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openstax/response-validator/services/validator/config"
	"github.com/openstax/response-validator/services/validator/score"
	"github.com/openstax/response-validator/services/validator/store"
	"github.com/openstax/response-validator/services/validator/telemetry"
	"github.com/openstax/response-validator/services/validator/text"
)

var tracer = otel.Tracer("services/validator")

// Service orchestrates one validation: weight-set lookup, question
// resolution, the text pipeline, and scoring.
//
// Thread Safety: Safe for concurrent use. All mutable state lives in the
// stores, which synchronize internally.
type Service struct {
	cfg       *config.Config
	processor *text.Processor
	datasets  *store.DatasetStore
	weights   *store.WeightStore
	badWords  score.Set
	logger    *slog.Logger
	startedAt time.Time
}

// NewService wires the validation service together.
//
// Inputs:
//
//	cfg - Resolved configuration.
//	processor - The text pipeline (corpus already loaded).
//	datasets - The question/vocabulary dataset store.
//	weights - The feature weight store (already seeded).
//	badWords - The bad-word vocabulary (built-in garbage list plus any
//	           configured extension file).
func NewService(cfg *config.Config, processor *text.Processor, datasets *store.DatasetStore,
	weights *store.WeightStore, badWords score.Set, logger *slog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		processor: processor,
		datasets:  datasets,
		weights:   weights,
		badWords:  badWords,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// StartedAt reports when the service came up, for /status.
func (s *Service) StartedAt() time.Time { return s.startedAt }

// Datasets exposes the dataset store for the browsing endpoints.
func (s *Service) Datasets() *store.DatasetStore { return s.datasets }

// Weights exposes the weight store.
func (s *Service) Weights() *store.WeightStore { return s.weights }

// BuildBadWords assembles the bad-word vocabulary: the built-in garbage
// list, the no_text sentinel, and the optional extension file.
func BuildBadWords(extra []string) score.Set {
	bad := score.NewSet(text.GarbageWords...)
	bad.Add(text.SentinelNoText)
	bad.Add(extra...)
	return bad
}

// Validate scores one response.
//
// Description:
//
//	Resolves the weight set (default or requested), resolves the question
//	vocabularies by uid with qid fallback, resolves the tristate options,
//	runs the pipeline, and thresholds the inner product. With
//	spelling_correction=auto the uncorrected pass runs first and a
//	correcting pass rescues it only when the first pass scored invalid.
//
// Outputs:
//
//	*ValidationResult - The full scoring record.
//	error - store.ErrWeightSetNotFound for an unknown weight-set id;
//	        anything else is an internal failure.
//
// Thread Safety: Safe for concurrent use.
func (s *Service) Validate(ctx context.Context, req ValidateParams) (*ValidationResult, error) {
	ctx, span := tracer.Start(ctx, "validator.Validate")
	defer span.End()
	start := time.Now()

	ws, err := s.resolveWeightSet(ctx, req.WeightSetID)
	if err != nil {
		return nil, err
	}

	vocab := score.Vocabulary{Bad: s.badWords, Common: s.processor.Corpus()}
	autoTagNumeric := true
	var uidUsed *string
	resolved, found := s.datasets.Resolve(req.UID)
	if found {
		vocab.Stem = resolved.Stem
		vocab.Option = resolved.Option
		vocab.Innovation = resolved.Innovation
		vocab.Domain = resolved.Domain
		autoTagNumeric = resolved.ContainsNumber
		uidUsed = &resolved.UIDUsed
	}

	tagNumeric := req.Options.TagNumeric.Bool(autoTagNumeric)
	opts := text.Options{
		RemoveStopwords:    req.Options.RemoveStopwords,
		TagNumeric:         tagNumeric,
		CorrectSpelling:    req.Options.SpellingCorrection.Bool(false),
		RemoveNonwords:     req.Options.RemoveNonwords,
		SpellCorrectionMax: req.Options.SpellCorrectionMax,
	}

	raw := ""
	if req.Response != nil {
		raw = *req.Response
	}

	pr := s.processor.Process(raw, opts)
	fv := score.Score(pr.Tokens, vocab)
	inner := fv.InnerProduct(ws)
	valid := inner > 0

	spellingMode := "off"
	if opts.CorrectSpelling {
		spellingMode = "on"
	}
	if req.Options.SpellingCorrection == config.TristateAuto && !valid {
		// Rescue pass: spelling correction may recover a response that
		// only failed on typos.
		opts.CorrectSpelling = true
		pr = s.processor.Process(raw, opts)
		fv = score.Score(pr.Tokens, vocab)
		inner = fv.InnerProduct(ws)
		valid = inner > 0
		spellingMode = "rescue"
	}

	elapsed := time.Since(start)
	telemetry.RecordValidation(valid, found, spellingMode, pr.Corrections, elapsed)
	span.SetAttributes(
		attribute.Bool("validator.valid", valid),
		attribute.Bool("validator.uid_found", found),
		attribute.Int("validator.corrections", pr.Corrections),
	)

	return &ValidationResult{
		Response:               req.Response,
		RemoveStopwords:        req.Options.RemoveStopwords,
		TagNumeric:             tagNumeric,
		TagNumericInput:        req.Options.TagNumeric,
		SpellingCorrection:     req.Options.SpellingCorrection,
		SpellingCorrectionUsed: opts.CorrectSpelling,
		NumSpellingCorrection:  pr.Corrections,
		RemoveNonwords:         req.Options.RemoveNonwords,
		LazyMathEvaluation:     s.cfg.Parser.LazyMathMode,
		ProcessedResponse:      strings.Join(pr.Tokens, " "),
		UIDUsed:                uidUsed,
		UIDFound:               found,
		StemWordCount:          fv.StemWordCount,
		OptionWordCount:        fv.OptionWordCount,
		BadWordCount:           fv.BadWordCount,
		InnovationWordCount:    fv.InnovationWordCount,
		DomainWordCount:        fv.DomainWordCount,
		CommonWordCount:        fv.CommonWordCount,
		Intercept:              ws.Intercept,
		InnerProduct:           inner,
		Valid:                  valid,
		ComputationTime:        elapsed.Seconds(),
		Version:                Version,
	}, nil
}

// Features extracts the feature counts for one response under fixed parser
// options. Used by the trainer; the validity rescue logic applies so
// training sees the same counts a live validation would.
func (s *Service) Features(ctx context.Context, response, uid string, opts ResolvedOptions) (score.FeatureVector, error) {
	res, err := s.Validate(ctx, ValidateParams{
		Response: &response,
		UID:      uid,
		Options:  opts,
	})
	if err != nil {
		return score.FeatureVector{}, fmt.Errorf("extract features: %w", err)
	}
	return score.FeatureVector{
		StemWordCount:       res.StemWordCount,
		OptionWordCount:     res.OptionWordCount,
		BadWordCount:        res.BadWordCount,
		InnovationWordCount: res.InnovationWordCount,
		DomainWordCount:     res.DomainWordCount,
		CommonWordCount:     res.CommonWordCount,
	}, nil
}

// resolveWeightSet fetches the requested set, or the default when id is
// empty.
func (s *Service) resolveWeightSet(ctx context.Context, id string) (*score.WeightSet, error) {
	if id == "" {
		_, ws, err := s.weights.GetDefault(ctx)
		if err != nil {
			return nil, fmt.Errorf("load default weight set: %w", err)
		}
		return ws, nil
	}
	return s.weights.Get(ctx, id)
}
