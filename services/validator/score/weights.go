// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package score

import (
	"errors"
	"fmt"
)

// IncompleteKeysMessage is the client-facing message for a rejected weight
// set. Grading clients match on it, so the wording is frozen.
const IncompleteKeysMessage = "Incomplete or incorrect feature weight keys"

// InterceptKey is the optional seventh key a weight-set payload may carry.
const InterceptKey = "intercept"

// DefaultIntercept is assumed when a payload omits the intercept key.
const DefaultIntercept = 1.0

// ErrBadFeatureKeys rejects a weight-set payload whose keys are not exactly
// the six features (plus the optional intercept).
var ErrBadFeatureKeys = errors.New(IncompleteKeysMessage)

// WeightSet is one named set of per-feature coefficients plus an intercept.
//
// Description:
//
//	The intercept travels with the set and is echoed in validation results
//	and used when a trained model is applied, but it never enters the
//	inner-product threshold.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type WeightSet struct {
	Coefficients map[string]float64
	Intercept    float64
}

// NewWeightSet validates and normalizes a raw weight payload.
//
// Inputs:
//
//	raw - Feature-name-to-coefficient map. Must contain exactly the six
//	      feature keys; an intercept key is optional and defaults to 1.
//
// Outputs:
//
//	*WeightSet - The normalized set, all six coefficients populated.
//	error - ErrBadFeatureKeys when keys are missing, misspelled, or extra.
func NewWeightSet(raw map[string]float64) (*WeightSet, error) {
	ws := &WeightSet{
		Coefficients: make(map[string]float64, len(FeatureNames)),
		Intercept:    DefaultIntercept,
	}

	seen := 0
	for key, val := range raw {
		switch {
		case key == InterceptKey:
			ws.Intercept = val
		case IsFeatureName(key):
			ws.Coefficients[key] = val
			seen++
		default:
			return nil, fmt.Errorf("%w: unknown key %q", ErrBadFeatureKeys, key)
		}
	}
	if seen != len(FeatureNames) {
		return nil, fmt.Errorf("%w: got %d of %d feature keys",
			ErrBadFeatureKeys, seen, len(FeatureNames))
	}
	return ws, nil
}

// Coefficient returns the coefficient for the named feature (0 if absent).
func (ws *WeightSet) Coefficient(name string) float64 {
	return ws.Coefficients[name]
}

// Wire returns the client-facing map form: zero coefficients are omitted,
// the intercept is always present.
func (ws *WeightSet) Wire() map[string]float64 {
	out := make(map[string]float64, len(ws.Coefficients)+1)
	for _, name := range FeatureNames {
		if c := ws.Coefficients[name]; c != 0 {
			out[name] = c
		}
	}
	out[InterceptKey] = ws.Intercept
	return out
}

// Equal reports whether two sets have identical coefficients and intercept.
// Used for store-side deduplication.
func (ws *WeightSet) Equal(other *WeightSet) bool {
	if other == nil {
		return false
	}
	if ws.Intercept != other.Intercept {
		return false
	}
	for _, name := range FeatureNames {
		if ws.Coefficients[name] != other.Coefficients[name] {
			return false
		}
	}
	return true
}
