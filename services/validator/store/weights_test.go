// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstax/response-validator/services/validator/score"
	"github.com/openstax/response-validator/services/validator/storage/badger"
)

func testWeightStore(t *testing.T) *WeightStore {
	t.Helper()
	db, err := badger.OpenDB(badger.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWeightStore(db, slog.Default())
}

func testWeightSet(t *testing.T, common float64) *score.WeightSet {
	t.Helper()
	ws, err := score.NewWeightSet(map[string]float64{
		score.FeatureStem:       0,
		score.FeatureOption:     0,
		score.FeatureBad:        -3,
		score.FeatureInnovation: 2.2,
		score.FeatureDomain:     2.5,
		score.FeatureCommon:     common,
	})
	require.NoError(t, err)
	return ws
}

func TestWeightStorePutGet(t *testing.T) {
	s := testWeightStore(t)
	ctx := context.Background()

	ws := testWeightSet(t, 0.7)
	key, err := s.Put(ctx, ws)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ws.Equal(got))
}

func TestWeightStoreGetUnknownKey(t *testing.T) {
	s := testWeightStore(t)

	_, err := s.Get(context.Background(), "no-such-key")
	assert.ErrorIs(t, err, ErrWeightSetNotFound)
}

func TestWeightStorePutDeduplicates(t *testing.T) {
	s := testWeightStore(t)
	ctx := context.Background()

	key1, err := s.Put(ctx, testWeightSet(t, 0.7))
	require.NoError(t, err)
	key2, err := s.Put(ctx, testWeightSet(t, 0.7))
	require.NoError(t, err)
	assert.Equal(t, key1, key2, "identical sets must share a key")

	key3, err := s.Put(ctx, testWeightSet(t, 0.9))
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3)

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestWeightStoreDefaultPointer(t *testing.T) {
	s := testWeightStore(t)
	ctx := context.Background()

	_, err := s.DefaultKey(ctx)
	assert.ErrorIs(t, err, ErrNoDefaultWeightSet)

	key, err := s.Put(ctx, testWeightSet(t, 0.7))
	require.NoError(t, err)
	require.NoError(t, s.SetDefault(ctx, key))

	gotKey, ws, err := s.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, key, gotKey)
	assert.True(t, testWeightSet(t, 0.7).Equal(ws))
}

func TestWeightStoreSetDefaultUnknownKey(t *testing.T) {
	s := testWeightStore(t)
	err := s.SetDefault(context.Background(), "no-such-key")
	assert.ErrorIs(t, err, ErrWeightSetNotFound)
}

func TestWeightStoreSeed(t *testing.T) {
	s := testWeightStore(t)
	ctx := context.Background()

	const seedKey = "d3732be6-a759-43aa-9e1a-3e9bd94f8b6b"
	require.NoError(t, s.Seed(ctx, seedKey, testWeightSet(t, 0.7)))

	gotKey, err := s.DefaultKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, seedKey, gotKey)

	// A second seed must not clobber an existing default.
	other, err := s.Put(ctx, testWeightSet(t, 0.9))
	require.NoError(t, err)
	require.NoError(t, s.SetDefault(ctx, other))
	require.NoError(t, s.Seed(ctx, seedKey, testWeightSet(t, 0.7)))

	gotKey, err = s.DefaultKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, other, gotKey)
}
