// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package score

import (
	"math"
	"testing"
)

func testVocabulary() Vocabulary {
	return Vocabulary{
		Stem:       NewSet("cell", "membrane"),
		Option:     NewSet("osmosis"),
		Bad:        NewSet("idk", "no_text"),
		Innovation: NewSet("mitochondria"),
		Domain:     NewSet("biology", "cell"),
		Common:     NewSet("the", "energy"),
	}
}

func TestScoreCountsByPriority(t *testing.T) {
	v := testVocabulary()

	fv := Score([]string{"cell", "osmosis", "idk", "mitochondria", "biology", "energy"}, v)

	if fv.StemWordCount != 1 || fv.OptionWordCount != 1 || fv.BadWordCount != 1 ||
		fv.InnovationWordCount != 1 || fv.DomainWordCount != 1 || fv.CommonWordCount != 1 {
		t.Errorf("unexpected counts: %+v", fv)
	}
}

func TestScoreFirstMatchWins(t *testing.T) {
	v := testVocabulary()

	// "cell" is in both stem and domain; only stem may count.
	fv := Score([]string{"cell", "cell"}, v)
	if fv.StemWordCount != 2 {
		t.Errorf("stem count = %d, want 2", fv.StemWordCount)
	}
	if fv.DomainWordCount != 0 {
		t.Errorf("domain count = %d, want 0", fv.DomainWordCount)
	}
}

func TestScoreUnmatchedTokensCountNothing(t *testing.T) {
	fv := Score([]string{"zzz", "qqq"}, testVocabulary())
	for _, name := range FeatureNames {
		if fv.Count(name) != 0 {
			t.Errorf("%s = %d, want 0", name, fv.Count(name))
		}
	}
}

func TestScorePercentageInStem(t *testing.T) {
	v := testVocabulary()

	fv := Score([]string{"cell", "membrane", "energy", "zzz"}, v)
	if math.Abs(fv.PercentageInStem-0.5) > 1e-9 {
		t.Errorf("percentage = %v, want 0.5", fv.PercentageInStem)
	}

	if got := Score(nil, v).PercentageInStem; got != 0 {
		t.Errorf("empty stream percentage = %v, want 0", got)
	}
}

func TestScoreEmptyVocabulary(t *testing.T) {
	fv := Score([]string{"anything"}, Vocabulary{})
	for _, name := range FeatureNames {
		if fv.Count(name) != 0 {
			t.Errorf("%s = %d, want 0", name, fv.Count(name))
		}
	}
}

func TestInnerProductExcludesIntercept(t *testing.T) {
	ws, err := NewWeightSet(map[string]float64{
		FeatureStem:       0,
		FeatureOption:     0,
		FeatureBad:        -3,
		FeatureInnovation: 2.2,
		FeatureDomain:     2.5,
		FeatureCommon:     0.7,
		InterceptKey:      100,
	})
	if err != nil {
		t.Fatal(err)
	}

	fv := FeatureVector{BadWordCount: 1, CommonWordCount: 2}
	got := fv.InnerProduct(ws)
	want := -3 + 2*0.7
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("inner product = %v, want %v", got, want)
	}
}
