// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package score turns a processed token stream into feature counts and
// combines them with a feature weight set into a validity decision.
package score

// Feature names, in scoring priority order. Each token increments exactly
// one counter: the first vocabulary in this order that contains it.
const (
	FeatureStem       = "stem_word_count"
	FeatureOption     = "option_word_count"
	FeatureBad        = "bad_word_count"
	FeatureInnovation = "innovation_word_count"
	FeatureDomain     = "domain_word_count"
	FeatureCommon     = "common_word_count"
)

// FeatureNames lists the six scoring features in priority order.
var FeatureNames = []string{
	FeatureStem, FeatureOption, FeatureBad,
	FeatureInnovation, FeatureDomain, FeatureCommon,
}

// IsFeatureName reports whether name is one of the six scoring features.
func IsFeatureName(name string) bool {
	for _, f := range FeatureNames {
		if f == name {
			return true
		}
	}
	return false
}

// Lookup is a word-membership test. Corpora and plain sets both satisfy it.
type Lookup interface {
	Contains(word string) bool
}

// Set is a vocabulary backed by a plain map.
type Set map[string]struct{}

// NewSet builds a Set from words.
func NewSet(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Add inserts words into the set.
func (s Set) Add(words ...string) {
	for _, w := range words {
		s[w] = struct{}{}
	}
}

// Contains reports membership. A nil Set contains nothing.
func (s Set) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Len returns the number of words in the set.
func (s Set) Len() int { return len(s) }

// Words returns the members in unspecified order.
func (s Set) Words() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	return out
}

// Vocabulary bundles the six vocabularies one scoring pass consults. Any
// field may be nil or empty; a token matching nothing increments no counter.
type Vocabulary struct {
	Stem       Set
	Option     Set
	Bad        Set
	Innovation Set
	Domain     Set

	// Common is a Lookup rather than a Set because it is typically the
	// whole corpus dictionary.
	Common Lookup
}

// FeatureVector holds the per-category counts for one response.
type FeatureVector struct {
	StemWordCount       int     `json:"stem_word_count"`
	OptionWordCount     int     `json:"option_word_count"`
	BadWordCount        int     `json:"bad_word_count"`
	InnovationWordCount int     `json:"innovation_word_count"`
	DomainWordCount     int     `json:"domain_word_count"`
	CommonWordCount     int     `json:"common_word_count"`
	PercentageInStem    float64 `json:"percentage_in_stem"`
}

// Score counts tokens into the ranked vocabularies.
//
// Description:
//
//	Priority is stem > option > bad > innovation > domain > common and the
//	first match wins, so a word in both the stem and a domain list counts
//	once, toward stem. PercentageInStem is the stem count over the total
//	token count (0 for an empty stream).
func Score(tokens []string, v Vocabulary) FeatureVector {
	var fv FeatureVector
	for _, tok := range tokens {
		switch {
		case v.Stem.Contains(tok):
			fv.StemWordCount++
		case v.Option.Contains(tok):
			fv.OptionWordCount++
		case v.Bad.Contains(tok):
			fv.BadWordCount++
		case v.Innovation.Contains(tok):
			fv.InnovationWordCount++
		case v.Domain.Contains(tok):
			fv.DomainWordCount++
		case v.Common != nil && v.Common.Contains(tok):
			fv.CommonWordCount++
		}
	}
	if len(tokens) > 0 {
		fv.PercentageInStem = float64(fv.StemWordCount) / float64(len(tokens))
	}
	return fv
}

// Count returns the counter for the named feature (0 for unknown names).
func (fv FeatureVector) Count(name string) int {
	switch name {
	case FeatureStem:
		return fv.StemWordCount
	case FeatureOption:
		return fv.OptionWordCount
	case FeatureBad:
		return fv.BadWordCount
	case FeatureInnovation:
		return fv.InnovationWordCount
	case FeatureDomain:
		return fv.DomainWordCount
	case FeatureCommon:
		return fv.CommonWordCount
	}
	return 0
}

// InnerProduct is the dot product of the counts with the weight set's
// coefficients. The intercept is deliberately not added; validity has
// always been a pure threshold on the weighted counts.
func (fv FeatureVector) InnerProduct(ws *WeightSet) float64 {
	sum := 0.0
	for _, name := range FeatureNames {
		sum += float64(fv.Count(name)) * ws.Coefficient(name)
	}
	return sum
}
