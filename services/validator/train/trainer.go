// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package train

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/openstax/response-validator/services/validator/score"
)

// ErrEmptyBatch rejects a training request with no rows.
var ErrEmptyBatch = errors.New("training batch is empty")

// ErrBadFeatureFlag rejects a feature-flag map naming an unknown feature.
var ErrBadFeatureFlag = errors.New("unknown feature flag")

// ErrNoFeatures rejects a flag map that excludes every feature.
var ErrNoFeatures = errors.New("no features selected for training")

// Row is one labeled training sample.
type Row struct {
	Response string
	UID      string
	Label    bool
}

// FeatureFlags selects which of the six features enter the model. A nil or
// empty map includes everything; a flag set false excludes that feature and
// zeroes its coefficient in the result.
type FeatureFlags map[string]bool

// Validate checks the flag keys and that at least one feature survives.
func (f FeatureFlags) Validate() error {
	for name := range f {
		if !score.IsFeatureName(name) {
			return fmt.Errorf("%w: %q", ErrBadFeatureFlag, name)
		}
	}
	if len(f.Included()) == 0 {
		return ErrNoFeatures
	}
	return nil
}

// Included returns the included feature names in canonical order.
func (f FeatureFlags) Included() []string {
	var out []string
	for _, name := range score.FeatureNames {
		on, set := f[name]
		if !set || on {
			out = append(out, name)
		}
	}
	return out
}

// Extractor turns one response into its feature counts. The validator
// service satisfies this; tests substitute a fake.
type Extractor interface {
	ExtractFeatures(ctx context.Context, response, uid string) (score.FeatureVector, error)
}

// FeatureRow is one training sample with its extracted counts, returned to
// the client as the per-row table.
type FeatureRow struct {
	Response string
	UID      string
	Label    bool
	Features score.FeatureVector
}

// Result is one completed training run.
type Result struct {
	// WeightSet is the fitted candidate. Excluded features carry a zero
	// coefficient. The caller decides whether to persist it.
	WeightSet *score.WeightSet

	// Rows are the extracted per-sample features, in input order.
	Rows []FeatureRow
}

// =============================================================================
// Trainer
// =============================================================================

// Trainer fits a feature weight set from labeled responses.
//
// Thread Safety: Safe for concurrent use; each Train call is independent.
type Trainer struct {
	extractor Extractor
	model     LogisticRegression
}

// NewTrainer builds a Trainer over an extractor with default model
// hyperparameters.
func NewTrainer(extractor Extractor) *Trainer {
	return &Trainer{extractor: extractor, model: NewLogisticRegression()}
}

// Train extracts features for every row and fits the model.
//
// Description:
//
//	Feature extraction dominates the cost (each row runs the full text
//	pipeline), so rows are processed in parallel with one worker per CPU.
//	Results keep input order. The design matrix contains only the included
//	features; the fitted set reports excluded features as zero.
//
// Outputs:
//
//	*Result - The fitted candidate and per-row table.
//	error - ErrEmptyBatch, a flag validation error, or the first
//	        extraction failure.
func (t *Trainer) Train(ctx context.Context, rows []Row, flags FeatureFlags) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := flags.Validate(); err != nil {
		return nil, err
	}
	included := flags.Included()

	out := make([]FeatureRow, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, row := range rows {
		g.Go(func() error {
			fv, err := t.extractor.ExtractFeatures(gctx, row.Response, row.UID)
			if err != nil {
				return fmt.Errorf("extract features for row %d: %w", i, err)
			}
			out[i] = FeatureRow{
				Response: row.Response,
				UID:      row.UID,
				Label:    row.Label,
				Features: fv,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	x := make([][]float64, len(out))
	y := make([]bool, len(out))
	for i, fr := range out {
		sample := make([]float64, len(included))
		for j, name := range included {
			sample[j] = float64(fr.Features.Count(name))
		}
		x[i] = sample
		y[i] = fr.Label
	}

	coefs, intercept, err := t.model.Fit(x, y)
	if err != nil {
		return nil, fmt.Errorf("fit logistic model: %w", err)
	}

	ws := &score.WeightSet{
		Coefficients: make(map[string]float64, len(score.FeatureNames)),
		Intercept:    intercept,
	}
	for _, name := range score.FeatureNames {
		ws.Coefficients[name] = 0
	}
	for j, name := range included {
		ws.Coefficients[name] = coefs[j]
	}
	return &Result{WeightSet: ws, Rows: out}, nil
}
