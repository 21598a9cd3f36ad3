// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxTokenLength is the rune cap applied to every token. Pathological inputs
// (pasted URLs, keyboard mashing) otherwise blow up the edit-distance search.
const maxTokenLength = 20

// Tokenize splits free-text input into scoreable tokens.
//
// Description:
//
//	Input is NFKC-normalized and lower-cased, then split on whitespace.
//	Punctuation clinging to the edges of a chunk is peeled off into its own
//	tokens; interior symbols stay put so decimals ("1.2"), signed numbers
//	("-3"), and compact expressions ("n/a", "2*4") survive as single tokens.
//	Pure-punctuation tokens are dropped, tokens are truncated to 20 runes,
//	and single-letter tokens are dropped. An input with no surviving tokens
//	yields the no_text sentinel.
//
// Inputs:
//
//	s - The raw response text.
//
// Outputs:
//
//	[]string - The token stream, never empty.
func Tokenize(s string) []string {
	s = strings.ToLower(norm.NFKC.String(s))

	var out []string
	for _, chunk := range strings.Fields(s) {
		for _, tok := range splitChunk(chunk) {
			tok = truncate(tok, maxTokenLength)
			if isPurePunct(tok) {
				continue
			}
			if isSingleLetter(tok) {
				continue
			}
			out = append(out, tok)
		}
	}

	if len(out) == 0 {
		return []string{SentinelNoText}
	}
	return out
}

// splitChunk peels leading and trailing punctuation runs off a
// whitespace-delimited chunk. A leading '-' immediately followed by a digit
// stays attached so negative literals classify correctly.
func splitChunk(chunk string) []string {
	runes := []rune(chunk)
	start, end := 0, len(runes)

	var lead []string
	for start < end && isEdgePunct(runes[start]) {
		if runes[start] == '-' && start+1 < end && unicode.IsDigit(runes[start+1]) {
			break
		}
		lead = append(lead, string(runes[start]))
		start++
	}

	var trail []string
	for end > start && isEdgePunct(runes[end-1]) {
		trail = append([]string{string(runes[end-1])}, trail...)
		end--
	}

	out := lead
	if start < end {
		out = append(out, string(runes[start:end]))
	}
	return append(out, trail...)
}

// isEdgePunct reports whether r is stripped from chunk edges. Interior
// occurrences are kept.
func isEdgePunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '"', '\'', '(', ')', '[', ']',
		'{', '}', '<', '>', '`', '-', '–', '—', '“', '”', '‘', '’':
		return true
	}
	return false
}

func isPurePunct(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isSingleLetter(tok string) bool {
	runes := []rune(tok)
	return len(runes) == 1 && unicode.IsLetter(runes[0])
}

func truncate(tok string, n int) string {
	runes := []rune(tok)
	if len(runes) <= n {
		return tok
	}
	return string(runes[:n])
}
