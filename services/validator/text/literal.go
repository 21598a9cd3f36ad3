// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package text

import (
	"regexp"
	"strconv"
	"strings"
)

// Reserved literal tags. A tagged token is treated as known vocabulary by the
// rest of the pipeline.
const (
	TagZero    = "numeric_type_0"
	TagHex     = "numeric_type_hex"
	TagBinary  = "numeric_type_binary"
	TagOctal   = "numeric_type_octal"
	TagInt     = "numeric_type_int"
	TagFloat   = "numeric_type_float"
	TagComplex = "numeric_type_complex"
	TagRoman   = "numeric_type_roman"
	TagMath    = "math_type"
	TagGarbage = "common_garbage"
	TagUnit    = "measurement_unit"
)

// ReservedTags lists every tag Classify can emit.
var ReservedTags = []string{
	TagZero, TagHex, TagBinary, TagOctal, TagInt, TagFloat, TagComplex,
	TagRoman, TagMath, TagGarbage, TagUnit,
}

var reservedTagSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(ReservedTags))
	for _, t := range ReservedTags {
		m[t] = struct{}{}
	}
	return m
}()

// IsReservedTag reports whether s is one of the reserved literal tags.
func IsReservedTag(s string) bool {
	_, ok := reservedTagSet[s]
	return ok
}

// unitPattern matches scientific unit expressions built from the base unit
// whitelist with * ^ / connectors, e.g. "kg", "m/s", "kg*m/s^2".
var unitPattern = regexp.MustCompile(
	`^(kg|g|n|hz|mi|hr|yd|in|m|s|a|k|cd|mol|cal|kcal)` +
		`((\*|\^)((kg|g|n|hz|mi|hr|yd|in|m|s|a|k|cd|mol|cal|kcal)|\d+))*` +
		`(/(kg|g|n|hz|mi|hr|yd|in|m|s|a|k|cd|mol|cal|kcal)` +
		`((\*|\^)((kg|g|n|hz|mi|hr|yd|in|m|s|a|k|cd|mol|cal|kcal)|\d+))*)?$`)

// romanPattern matches well-formed roman numerals up to 4999 (upper case;
// Classify upper-cases before matching).
var romanPattern = regexp.MustCompile(
	`^M{0,4}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)

// mathTriggerChars gate the lazy-mode expression check: a token with none of
// these cannot be a worthwhile arithmetic expression.
const mathTriggerChars = "0123456789+-*/^=()."

// =============================================================================
// LiteralClassifier
// =============================================================================

// LiteralClassifier maps numeric and symbolic literal tokens onto reserved
// tags so a response like "32 m/s^2" scores on structure rather than exact
// digits.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type LiteralClassifier struct {
	lazyMath bool
}

// NewLiteralClassifier builds a classifier. With lazyMath set, the expensive
// expression-evaluation step only runs on tokens that contain a digit or an
// operator character.
func NewLiteralClassifier(lazyMath bool) *LiteralClassifier {
	return &LiteralClassifier{lazyMath: lazyMath}
}

// Classify returns the reserved tag for tok, or tok itself when no literal
// form matches.
//
// Description:
//
//	The checks run in a fixed cascade and the first hit wins: measurement
//	unit, zero, prefixed integer (hex/binary/octal), decimal integer,
//	float, complex ("3+4j"), arithmetic expression, roman numeral. A parse
//	failure at any stage falls through to the next, so "0x" is not hex but
//	may still match a later form.
func (c *LiteralClassifier) Classify(tok string) string {
	if tok == "" {
		return tok
	}

	if unitPattern.MatchString(tok) {
		return TagUnit
	}
	if tok == "0" {
		return TagZero
	}
	if tag, ok := classifyPrefixed(tok); ok {
		return tag
	}
	if _, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return TagInt
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil {
		return TagFloat
	}
	if strings.ContainsRune(tok, 'j') {
		if _, err := strconv.ParseComplex(strings.ReplaceAll(tok, "j", "i"), 128); err == nil {
			return TagComplex
		}
	}
	if !c.lazyMath || strings.ContainsAny(tok, mathTriggerChars) {
		if evaluatesAsMath(tok) {
			return TagMath
		}
	}
	if romanPattern.MatchString(strings.ToUpper(tok)) {
		return TagRoman
	}
	return tok
}

// classifyPrefixed handles 0x/0b/0o-style literals with an optional leading
// minus. A bare leading zero means octal.
func classifyPrefixed(tok string) (string, bool) {
	lit := strings.TrimPrefix(tok, "-")
	if len(lit) < 2 || lit[0] != '0' {
		return "", false
	}
	switch lit[1] {
	case 'x', 'X':
		if _, err := strconv.ParseInt(lit[2:], 16, 64); err == nil {
			return TagHex, true
		}
	case 'b', 'B':
		if _, err := strconv.ParseInt(lit[2:], 2, 64); err == nil {
			return TagBinary, true
		}
	default:
		if _, err := strconv.ParseInt(lit[1:], 8, 64); err == nil {
			return TagOctal, true
		}
	}
	return "", false
}
