// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package text implements the response-processing pipeline: tokenization,
// Norvig-style spelling correction over a corpus frequency dictionary,
// numeric/symbolic literal classification, and nonword removal.
package text

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Sentinel tokens emitted by the pipeline.
const (
	// SentinelNoText stands in for an empty or absent response. It is the
	// only token the pipeline ever returns alone and untransformed.
	SentinelNoText = "no_text"

	// NonsenseWord replaces tokens outside the known vocabulary when
	// nonword removal is on.
	NonsenseWord = "nonsense_word"
)

// GarbageWords is the built-in list of low-effort filler responses. They are
// scored through the bad-word vocabulary regardless of any per-book lists.
var GarbageWords = []string{
	"lo", "ur", "mn", "nonsense_word", "n/a", "na", "idk", "lol", "asdf",
	"jk", "zz", "zzz", "k", "j", "hi", "n", "id", "blah", "huh", "wut",
	"lmao", "wat", "hm", "hmm", "fml", "shit", "fuck",
}

//go:embed stopwords.txt
var stopwordsRaw string

var wordPattern = regexp.MustCompile(`[a-z]+`)

// =============================================================================
// Corpus
// =============================================================================

// Corpus is the frequency dictionary the spelling corrector draws candidates
// from, plus the known-word set used for nonword detection.
//
// Description:
//
//	Frequencies come from reference corpora (plain text, tokenized by
//	lower-case letter runs). Known words are the frequency words plus any
//	supplemental word lists and the reserved literal tags, so tagged tokens
//	survive nonword removal.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Corpus struct {
	freq  map[string]int
	known map[string]struct{}
	stops map[string]struct{}
}

// CorpusOptions names the inputs to BuildCorpus. Paths must already be
// resolved against the data directory.
type CorpusOptions struct {
	// CorporaFiles are reference texts counted into the frequency table.
	// At least one must be readable.
	CorporaFiles []string

	// WordListFiles are one-word-per-line files merged into the known set
	// without contributing frequency mass.
	WordListFiles []string
}

// BuildCorpus reads the corpora and word lists into a Corpus.
//
// Outputs:
//
//	*Corpus - The built dictionary.
//	error - Non-nil when no corpus file could be read; the corrector is
//	        useless without a frequency table, so the caller should treat
//	        this as fatal.
func BuildCorpus(opts CorpusOptions) (*Corpus, error) {
	c := newCorpus()

	read := 0
	var lastErr error
	for _, path := range opts.CorporaFiles {
		raw, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		c.trainText(string(raw))
		read++
	}
	if read == 0 {
		return nil, fmt.Errorf("no readable corpus file: %w", lastErr)
	}

	for _, path := range opts.WordListFiles {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read word list %s: %w", path, err)
		}
		for _, w := range strings.Fields(strings.ToLower(string(raw))) {
			c.known[w] = struct{}{}
		}
	}

	return c, nil
}

// NewCorpusFromReader builds a Corpus from a single in-memory corpus text.
// Used by tests and the admin tooling.
func NewCorpusFromReader(r io.Reader) (*Corpus, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	c := newCorpus()
	c.trainText(string(raw))
	return c, nil
}

func newCorpus() *Corpus {
	c := &Corpus{
		freq:  make(map[string]int),
		known: make(map[string]struct{}),
		stops: make(map[string]struct{}),
	}
	for _, w := range strings.Fields(stopwordsRaw) {
		c.stops[w] = struct{}{}
	}
	for _, tag := range ReservedTags {
		c.known[tag] = struct{}{}
	}
	return c
}

// trainText counts lower-case letter runs into the frequency table and the
// known set.
func (c *Corpus) trainText(text string) {
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		c.freq[w]++
		c.known[w] = struct{}{}
	}
}

// AddWords merges extra words into the known set without frequency mass.
func (c *Corpus) AddWords(words ...string) {
	for _, w := range words {
		c.known[strings.ToLower(w)] = struct{}{}
	}
}

// Known reports whether w is in the known-word set.
func (c *Corpus) Known(w string) bool {
	_, ok := c.known[w]
	return ok
}

// Contains is an alias for Known so a Corpus satisfies the vocabulary
// lookup interface used by the scorer.
func (c *Corpus) Contains(w string) bool { return c.Known(w) }

// Freq returns the corpus frequency of w (0 if unseen).
func (c *Corpus) Freq(w string) int { return c.freq[w] }

// Len returns the number of distinct frequency words.
func (c *Corpus) Len() int { return len(c.freq) }

// IsStopword reports whether w is an English stopword.
func (c *Corpus) IsStopword(w string) bool {
	_, ok := c.stops[w]
	return ok
}
