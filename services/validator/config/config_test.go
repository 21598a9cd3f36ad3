// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestParseTristate(t *testing.T) {
	cases := []struct {
		in   string
		def  Tristate
		want Tristate
	}{
		{"auto", TristateOff, TristateAuto},
		{"true", TristateOff, TristateOn},
		{"True", TristateOff, TristateOn},
		{"t", TristateOff, TristateOn},
		{"1", TristateOff, TristateOn},
		{"false", TristateOn, TristateOff},
		{"f", TristateOn, TristateOff},
		{"0", TristateOn, TristateOff},
		{"None", TristateOn, TristateOff},
		{"", TristateOn, TristateOff},
		{"banana", TristateAuto, TristateAuto},
		{"banana", TristateOn, TristateOn},
	}
	for _, tc := range cases {
		if got := ParseTristate(tc.in, tc.def); got != tc.want {
			t.Errorf("ParseTristate(%q, %v) = %v, want %v", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestTristateBool(t *testing.T) {
	if !TristateOn.Bool(false) {
		t.Error("On.Bool(false) should be true")
	}
	if TristateOff.Bool(true) {
		t.Error("Off.Bool(true) should be false")
	}
	if !TristateAuto.Bool(true) || TristateAuto.Bool(false) {
		t.Error("Auto.Bool must follow the auto value")
	}
}

func TestTristateJSON(t *testing.T) {
	raw, err := json.Marshal(map[string]Tristate{
		"on": TristateOn, "off": TristateOff, "auto": TristateAuto,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"auto":"auto","off":false,"on":true}`
	if string(raw) != want {
		t.Errorf("marshal = %s, want %s", raw, want)
	}

	var decoded struct {
		A Tristate `json:"a"`
		B Tristate `json:"b"`
		C Tristate `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":true,"b":false,"c":"auto"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.A != TristateOn || decoded.B != TristateOff || decoded.C != TristateAuto {
		t.Errorf("unmarshal = %v %v %v", decoded.A, decoded.B, decoded.C)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Parser.SpellCorrectionMax != 10 {
		t.Errorf("SpellCorrectionMax = %d", cfg.Parser.SpellCorrectionMax)
	}
	if cfg.Parser.TagNumeric != TristateAuto || cfg.Parser.SpellingCorrection != TristateAuto {
		t.Error("tag_numeric and spelling_correction default to auto")
	}
	if len(cfg.DefaultFeatureWeights) != 6 {
		t.Errorf("expected six default feature weights, got %d", len(cfg.DefaultFeatureWeights))
	}
	if cfg.DefaultFeatureWeights["domain_word_count"] != 2.5 {
		t.Errorf("domain weight = %v", cfg.DefaultFeatureWeights["domain_word_count"])
	}
}

func TestLoadYAMLAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "validator.yml")
	yml := `
data_dir: /srv/validator
parser_defaults:
  remove_stopwords: false
  tag_numeric: "false"
  spell_correction_max: 5
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VALIDATOR_CONFIG", path)
	t.Setenv("PARSER_DEFAULTS_SPELL_CORRECTION_MAX", "7")
	t.Setenv("DEFAULT_FEATURE_WEIGHTS_BAD_WORD_COUNT", "-5")

	cfg, err := load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DataDir != "/srv/validator" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Parser.RemoveStopwords {
		t.Error("YAML should have disabled stopword removal")
	}
	if cfg.Parser.TagNumeric != TristateOff {
		t.Errorf("TagNumeric = %v", cfg.Parser.TagNumeric)
	}
	// Environment wins over the file.
	if cfg.Parser.SpellCorrectionMax != 7 {
		t.Errorf("SpellCorrectionMax = %d", cfg.Parser.SpellCorrectionMax)
	}
	if cfg.DefaultFeatureWeights["bad_word_count"] != -5 {
		t.Errorf("bad weight = %v", cfg.DefaultFeatureWeights["bad_word_count"])
	}
	// Untouched fields keep their defaults.
	if cfg.Parser.SpellingCorrection != TristateAuto {
		t.Errorf("SpellingCorrection = %v", cfg.Parser.SpellingCorrection)
	}
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	t.Setenv("VALIDATOR_CONFIG", filepath.Join(t.TempDir(), "absent.yml"))
	if _, err := load(); err == nil {
		t.Error("a named but unreadable config file must fail loading")
	}
}

func TestResolvePath(t *testing.T) {
	cfg := Default()
	if got := cfg.ResolvePath("corpora/big.txt"); got != filepath.Join("data", "corpora", "big.txt") {
		t.Errorf("ResolvePath relative = %q", got)
	}
	if got := cfg.ResolvePath("/abs/big.txt"); got != "/abs/big.txt" {
		t.Errorf("ResolvePath absolute = %q", got)
	}
}
