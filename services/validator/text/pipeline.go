// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import "github.com/kljensen/snowball/english"

// Options control one pass of the processing pipeline. All flags must be
// fully resolved by the caller; the pipeline knows nothing about "auto".
type Options struct {
	RemoveStopwords bool
	TagNumeric      bool
	CorrectSpelling bool
	RemoveNonwords  bool

	// SpellCorrectionMax bounds how many tokens one pass may correct.
	SpellCorrectionMax int
}

// Result is the outcome of one pipeline pass.
type Result struct {
	// Tokens is the processed token stream. It can end up empty when
	// stopword removal eats every token; the scorer handles that as an
	// all-zero feature vector.
	Tokens []string

	// Corrections is the number of spelling corrections applied.
	Corrections int
}

// Processor runs the fixed pipeline: tokenize, correct spelling, remove
// stopwords, tag numeric literals, remove nonwords.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Processor struct {
	corpus     *Corpus
	classifier *LiteralClassifier
	speller    *SpellCorrector
}

// NewProcessor wires the pipeline stages together.
func NewProcessor(corpus *Corpus, classifier *LiteralClassifier, speller *SpellCorrector) *Processor {
	return &Processor{corpus: corpus, classifier: classifier, speller: speller}
}

// Classifier exposes the literal classifier for callers that tag single
// tokens outside a full pipeline pass.
func (p *Processor) Classifier() *LiteralClassifier { return p.classifier }

// Corpus exposes the frequency dictionary backing the pipeline.
func (p *Processor) Corpus() *Corpus { return p.corpus }

// Process runs one pass over the raw response text.
//
// Description:
//
//	Stage order is fixed: spelling correction runs before stopword removal
//	so corrected words can still be dropped, and numeric tagging runs
//	before nonword removal so tagged literals survive it. An empty
//	response short-circuits to the no_text sentinel untouched; downstream
//	scoring treats the sentinel as a bad word.
func (p *Processor) Process(answer string, opts Options) Result {
	tokens := Tokenize(answer)
	if len(tokens) == 1 && tokens[0] == SentinelNoText {
		return Result{Tokens: tokens}
	}

	corrections := 0
	if opts.CorrectSpelling {
		tokens, corrections = p.speller.CorrectLimited(tokens, opts.SpellCorrectionMax)
	}

	if opts.RemoveStopwords {
		kept := tokens[:0]
		for _, tok := range tokens {
			if !p.corpus.IsStopword(tok) {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	if opts.TagNumeric {
		for i, tok := range tokens {
			tokens[i] = p.classifier.Classify(tok)
		}
	}

	if opts.RemoveNonwords {
		for i, tok := range tokens {
			if !p.isWordLike(tok) {
				tokens[i] = NonsenseWord
			}
		}
	}

	return Result{Tokens: tokens, Corrections: corrections}
}

// isWordLike reports whether tok survives nonword removal: known as-is,
// known once stemmed, or a reserved literal tag.
func (p *Processor) isWordLike(tok string) bool {
	if p.corpus.Known(tok) {
		return true
	}
	if IsReservedTag(tok) {
		return true
	}
	return p.corpus.Known(english.Stem(tok, false))
}
