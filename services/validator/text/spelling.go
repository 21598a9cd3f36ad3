// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import "sort"

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// SpellCorrector is a Norvig-style corrector over a Corpus frequency
// dictionary.
//
// Description:
//
//	For an unknown word it generates edit-distance-1 candidates, falls back
//	to edit-distance-2, and keeps the word unchanged when nothing known
//	turns up. Among known candidates the highest corpus frequency wins,
//	ties broken lexicographically so results are deterministic.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type SpellCorrector struct {
	corpus     *Corpus
	classifier *LiteralClassifier

	// minWordLength is the shortest word worth correcting. Short tokens
	// have too many plausible neighbors to correct safely.
	minWordLength int
}

// NewSpellCorrector builds a corrector. The classifier guards correction:
// tokens that classify as numeric or symbolic literals are never touched.
func NewSpellCorrector(corpus *Corpus, classifier *LiteralClassifier, minWordLength int) *SpellCorrector {
	return &SpellCorrector{
		corpus:        corpus,
		classifier:    classifier,
		minWordLength: minWordLength,
	}
}

// Correct returns the best correction for word, or word itself when it is a
// literal, too short, already known, or beyond edit distance 2 from every
// known word.
func (s *SpellCorrector) Correct(word string) string {
	if IsReservedTag(s.classifier.Classify(word)) {
		return word
	}
	if len([]rune(word)) <= s.minWordLength {
		return word
	}
	if s.corpus.Known(word) {
		return word
	}
	if best, ok := s.bestKnown(edits1(word)); ok {
		return best
	}
	if best, ok := s.bestKnownEdits2(word); ok {
		return best
	}
	return word
}

// CorrectLimited corrects at most max tokens, front to back, leaving the
// rest untouched. A token only consumes budget when correction changes it.
//
// Outputs:
//
//	[]string - The corrected token stream, same length and order.
//	int - The number of tokens changed.
func (s *SpellCorrector) CorrectLimited(tokens []string, max int) ([]string, int) {
	out := make([]string, len(tokens))
	changed := 0
	for i, tok := range tokens {
		if changed >= max {
			out[i] = tok
			continue
		}
		c := s.Correct(tok)
		if c != tok {
			changed++
		}
		out[i] = c
	}
	return out, changed
}

// bestKnown picks the known candidate with the highest corpus frequency.
func (s *SpellCorrector) bestKnown(candidates map[string]struct{}) (string, bool) {
	var known []string
	for c := range candidates {
		if s.corpus.Freq(c) > 0 {
			known = append(known, c)
		}
	}
	if len(known) == 0 {
		return "", false
	}
	sort.Strings(known)
	best := known[0]
	for _, c := range known[1:] {
		if s.corpus.Freq(c) > s.corpus.Freq(best) {
			best = c
		}
	}
	return best, true
}

// bestKnownEdits2 expands edit-2 candidates lazily, keeping only known words
// so the candidate set stays small.
func (s *SpellCorrector) bestKnownEdits2(word string) (string, bool) {
	known := make(map[string]struct{})
	for e1 := range edits1(word) {
		for e2 := range edits1(e1) {
			if s.corpus.Freq(e2) > 0 {
				known[e2] = struct{}{}
			}
		}
	}
	return s.bestKnown(known)
}

// edits1 returns every string at edit distance 1 from word: deletions,
// transpositions, replacements, and insertions.
func edits1(word string) map[string]struct{} {
	out := make(map[string]struct{})
	runes := []rune(word)
	n := len(runes)

	for i := 0; i < n; i++ {
		out[string(runes[:i])+string(runes[i+1:])] = struct{}{}
	}
	for i := 0; i < n-1; i++ {
		t := make([]rune, n)
		copy(t, runes)
		t[i], t[i+1] = t[i+1], t[i]
		out[string(t)] = struct{}{}
	}
	for i := 0; i < n; i++ {
		for _, c := range alphabet {
			t := make([]rune, n)
			copy(t, runes)
			t[i] = c
			out[string(t)] = struct{}{}
		}
	}
	for i := 0; i <= n; i++ {
		for _, c := range alphabet {
			out[string(runes[:i])+string(c)+string(runes[i:])] = struct{}{}
		}
	}
	return out
}
