// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import (
	"reflect"
	"testing"
)

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	corpus := testCorpus(t)
	classifier := NewLiteralClassifier(true)
	speller := NewSpellCorrector(corpus, classifier, 5)
	return NewProcessor(corpus, classifier, speller)
}

func allOn() Options {
	return Options{
		RemoveStopwords:    true,
		TagNumeric:         true,
		CorrectSpelling:    true,
		RemoveNonwords:     true,
		SpellCorrectionMax: 10,
	}
}

func TestProcessEmptyInputReturnsSentinel(t *testing.T) {
	p := testProcessor(t)

	for _, input := range []string{"", "   ", "..."} {
		got := p.Process(input, allOn())
		if !reflect.DeepEqual(got.Tokens, []string{SentinelNoText}) {
			t.Errorf("Process(%q) = %v, want [%s]", input, got.Tokens, SentinelNoText)
		}
		if got.Corrections != 0 {
			t.Errorf("Process(%q) corrections = %d, want 0", input, got.Corrections)
		}
	}
}

func TestProcessSentinelSkipsTransforms(t *testing.T) {
	p := testProcessor(t)

	// no_text must survive nonword removal untouched; it is scored as a
	// bad word downstream, not replaced by nonsense_word.
	got := p.Process("", allOn())
	if got.Tokens[0] != SentinelNoText {
		t.Errorf("sentinel transformed to %q", got.Tokens[0])
	}
}

func TestProcessRemovesStopwords(t *testing.T) {
	p := testProcessor(t)

	got := p.Process("the energy of the cell", Options{RemoveStopwords: true})
	want := []string{"energy", "cell"}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("tokens = %v, want %v", got.Tokens, want)
	}
}

func TestProcessKeepsStopwordsWhenOff(t *testing.T) {
	p := testProcessor(t)

	got := p.Process("the energy", Options{})
	want := []string{"the", "energy"}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("tokens = %v, want %v", got.Tokens, want)
	}
}

func TestProcessTagsNumerics(t *testing.T) {
	p := testProcessor(t)

	got := p.Process("0 23 -3 1.2 mcmxciv", Options{TagNumeric: true})
	want := []string{TagZero, TagInt, TagInt, TagFloat, TagRoman}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("tokens = %v, want %v", got.Tokens, want)
	}
}

func TestProcessTaggedLiteralsSurviveNonwordRemoval(t *testing.T) {
	p := testProcessor(t)

	got := p.Process("23 energy", Options{TagNumeric: true, RemoveNonwords: true})
	want := []string{TagInt, "energy"}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("tokens = %v, want %v", got.Tokens, want)
	}
}

func TestProcessReplacesNonwords(t *testing.T) {
	p := testProcessor(t)

	got := p.Process("energy blargh", Options{RemoveNonwords: true})
	want := []string{"energy", NonsenseWord}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("tokens = %v, want %v", got.Tokens, want)
	}
}

func TestProcessStemmedMatchSurvivesNonwordRemoval(t *testing.T) {
	p := testProcessor(t)
	p.Corpus().AddWords("respond")

	// "responds" is not in the corpus but stems to a known word.
	got := p.Process("responds", Options{RemoveNonwords: true})
	want := []string{"responds"}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("tokens = %v, want %v", got.Tokens, want)
	}
}

func TestProcessSpellingBeforeStopwordRemoval(t *testing.T) {
	p := testProcessor(t)

	// "becuase" corrects to the stopword "because", which must then be
	// removed: correction runs first.
	got := p.Process("becuase energy", allOn())
	want := []string{"energy"}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("tokens = %v, want %v", got.Tokens, want)
	}
	if got.Corrections != 1 {
		t.Errorf("corrections = %d, want 1", got.Corrections)
	}
}

func TestProcessCorrectionBudget(t *testing.T) {
	p := testProcessor(t)

	opts := allOn()
	opts.SpellCorrectionMax = 3

	got := p.Process("respones respones respones respones respones", opts)
	if got.Corrections != 3 {
		t.Fatalf("corrections = %d, want 3", got.Corrections)
	}
	want := []string{"response", "response", "response", NonsenseWord, NonsenseWord}
	if !reflect.DeepEqual(got.Tokens, want) {
		t.Errorf("tokens = %v, want %v", got.Tokens, want)
	}
}

func TestProcessAllStopwordsYieldsEmpty(t *testing.T) {
	p := testProcessor(t)

	got := p.Process("the of and", allOn())
	if len(got.Tokens) != 0 {
		t.Errorf("tokens = %v, want empty", got.Tokens)
	}
}
