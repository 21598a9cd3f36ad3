// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBookVUID = "02040312-72c8-441e-a685-20e9333f3e1d"
	testPageVUID = "1bb611e9-0ded-48d6-a107-fbb9bd900851"
)

func writeTestDatasets(t *testing.T, dir string) {
	t.Helper()

	cvuid := testBookVUID + ":" + testPageVUID

	questions := `uid,qid,cvuid,stem_words,mc_words,contains_number
100@1,100,` + cvuid + `,"{'cell', 'membrane'}","{'osmosis'}",False
100@4,100,` + cvuid + `,"{'cell', 'membrane', 'transport'}","{'osmosis', 'diffusion'}",False
200@1,200,` + cvuid + `,"{'force', 'mass'}",set(),True
`
	innovation := `cvuid,book_name,innovation_words
` + cvuid + `,Biology,"{'mitochondria', 'organelle'}"
`
	domain := `vuid,book_name,domain_words,feature_weights_id
` + testBookVUID + `,Biology,"{'biology', 'organism'}",d3732be6-a759-43aa-9e1a-3e9bd94f8b6b
`

	require.NoError(t, os.WriteFile(filepath.Join(dir, QuestionsFile), []byte(questions), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, InnovationFile), []byte(innovation), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DomainFile), []byte(domain), 0o644))
}

func testDatasetStore(t *testing.T) *DatasetStore {
	t.Helper()
	dir := t.TempDir()
	writeTestDatasets(t, dir)
	d, err := NewDatasetStore(dir, slog.Default())
	require.NoError(t, err)
	return d
}

func TestResolveExactUID(t *testing.T) {
	d := testDatasetStore(t)

	res, ok := d.Resolve("100@1")
	require.True(t, ok)
	assert.Equal(t, "100@1", res.UIDUsed)
	assert.True(t, res.Stem.Contains("cell"))
	assert.True(t, res.Option.Contains("osmosis"))
	assert.True(t, res.Innovation.Contains("mitochondria"))
	assert.True(t, res.Domain.Contains("biology"))
	assert.False(t, res.ContainsNumber)
}

func TestResolveQIDFallbackPicksHighestVersion(t *testing.T) {
	d := testDatasetStore(t)

	res, ok := d.Resolve("100@9")
	require.True(t, ok)
	assert.Equal(t, "100@4", res.UIDUsed)
	assert.True(t, res.Stem.Contains("transport"))

	// Bare qid resolves the same way.
	res, ok = d.Resolve("100")
	require.True(t, ok)
	assert.Equal(t, "100@4", res.UIDUsed)
}

func TestResolveUnknownUID(t *testing.T) {
	d := testDatasetStore(t)

	_, ok := d.Resolve("999@1")
	assert.False(t, ok)
}

func TestResolveContainsNumber(t *testing.T) {
	d := testDatasetStore(t)

	res, ok := d.Resolve("200@1")
	require.True(t, ok)
	assert.True(t, res.ContainsNumber)
	assert.Equal(t, 0, res.Option.Len(), "set() cell must decode empty")
}

func TestBooksAndCounts(t *testing.T) {
	d := testDatasetStore(t)

	books := d.Books()
	require.Len(t, books, 1)
	assert.Equal(t, "Biology", books[0].Name)
	assert.Equal(t, testBookVUID, books[0].VUID)
	assert.True(t, books[0].DomainWords.Contains("organism"))

	innovation := d.BookInnovation(testBookVUID)
	assert.True(t, innovation.Contains("organelle"))

	questions := d.BookQuestions(testBookVUID)
	assert.Len(t, questions, 3)

	bookCount, questionCount := d.Counts()
	assert.Equal(t, 1, bookCount)
	assert.Equal(t, 3, questionCount)
}

func TestReloadSwapsWholesale(t *testing.T) {
	dir := t.TempDir()
	writeTestDatasets(t, dir)
	d, err := NewDatasetStore(dir, slog.Default())
	require.NoError(t, err)

	questions := `uid,qid,cvuid,stem_words,mc_words,contains_number
300@1,300,` + testBookVUID + ":" + testPageVUID + `,"{'velocity'}",set(),True
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, QuestionsFile), []byte(questions), 0o644))
	require.NoError(t, d.Reload("manual"))

	_, ok := d.Resolve("100@1")
	assert.False(t, ok, "old questions must be gone after reload")

	res, ok := d.Resolve("300@1")
	require.True(t, ok)
	assert.True(t, res.Stem.Contains("velocity"))
}

func TestMissingFilesLoadEmpty(t *testing.T) {
	d, err := NewDatasetStore(t.TempDir(), slog.Default())
	require.NoError(t, err)

	_, ok := d.Resolve("100@1")
	assert.False(t, ok)

	books, questions := d.Counts()
	assert.Zero(t, books)
	assert.Zero(t, questions)
}

func TestParseWordSet(t *testing.T) {
	tests := []struct {
		cell string
		want []string
	}{
		{"{'cell', 'membrane'}", []string{"cell", "membrane"}},
		{`{"cell"}`, []string{"cell"}},
		{"set()", nil},
		{"", nil},
	}
	for _, tc := range tests {
		got := parseWordSet(tc.cell)
		assert.Equal(t, len(tc.want), got.Len(), "cell %q", tc.cell)
		for _, w := range tc.want {
			assert.True(t, got.Contains(w), "cell %q missing %q", tc.cell, w)
		}
	}
}
