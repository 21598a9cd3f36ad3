// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Tristate Parser Options
// =============================================================================

// Tristate is a parser option that is on, off, or automatically resolved.
//
// Description:
//
//	tag_numeric and spelling_correction accept true, false, or "auto".
//	Auto defers the decision to request context: the question's
//	contains-number flag for tagging, and a validity-rescue re-run for
//	spelling. Any unrecognized input falls back to a caller-supplied
//	default; garbled flags must never fail a validation request.
type Tristate int

const (
	// TristateOff disables the option.
	TristateOff Tristate = iota

	// TristateOn enables the option.
	TristateOn

	// TristateAuto resolves the option from request context.
	TristateAuto
)

// ParseTristate interprets a request or environment value.
//
// Inputs:
//
//	s - The raw value ("true", "t", "1", "false", "f", "0", "none", "",
//	    "auto", any case).
//	def - Returned when s matches none of the recognized spellings.
//
// Outputs:
//
//	Tristate - The parsed value, or def for unrecognized input.
func ParseTristate(s string, def Tristate) Tristate {
	switch s {
	case "auto", "Auto", "AUTO":
		return TristateAuto
	case "true", "True", "t", "1":
		return TristateOn
	case "false", "False", "f", "0", "None", "none", "":
		return TristateOff
	default:
		return def
	}
}

// Bool resolves the tristate with the given value standing in for Auto.
func (t Tristate) Bool(auto bool) bool {
	switch t {
	case TristateOn:
		return true
	case TristateOff:
		return false
	default:
		return auto
	}
}

// String returns "true", "false", or "auto".
func (t Tristate) String() string {
	switch t {
	case TristateOn:
		return "true"
	case TristateOff:
		return "false"
	default:
		return "auto"
	}
}

// MarshalJSON renders On/Off as JSON booleans and Auto as the string "auto",
// matching the shape clients have always received.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case TristateOn:
		return []byte("true"), nil
	case TristateOff:
		return []byte("false"), nil
	default:
		return []byte(`"auto"`), nil
	}
}

// UnmarshalJSON accepts booleans and the recognized string spellings.
// Unrecognized strings become Auto; the caller decides the final fallback.
func (t *Tristate) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*t = TristateOn
		} else {
			*t = TristateOff
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tristate: %w", err)
	}
	*t = ParseTristate(s, TristateAuto)
	return nil
}

// UnmarshalYAML accepts the same spellings in configuration files.
func (t *Tristate) UnmarshalYAML(unmarshal func(any) error) error {
	var b bool
	if err := unmarshal(&b); err == nil {
		if b {
			*t = TristateOn
		} else {
			*t = TristateOff
		}
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("tristate: %w", err)
	}
	*t = ParseTristate(s, TristateAuto)
	return nil
}
