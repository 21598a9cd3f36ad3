// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store persists feature weight sets in BadgerDB and serves the
// question/vocabulary datasets loaded from CSV files.
package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	dgbadger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/openstax/response-validator/services/validator/score"
	"github.com/openstax/response-validator/services/validator/storage/badger"
)

// ErrWeightSetNotFound is returned for unknown weight-set keys.
var ErrWeightSetNotFound = errors.New("feature weight set not found")

// ErrNoDefaultWeightSet is returned when the default pointer is unset.
var ErrNoDefaultWeightSet = errors.New("no default feature weight set")

const (
	weightSetPrefix = "weights/v1/set/"
	defaultPointer  = "weights/v1/default"
)

// weightSetRecord is the stored form of a weight set.
type weightSetRecord struct {
	Coefficients map[string]float64
	Intercept    float64
}

// =============================================================================
// WeightStore
// =============================================================================

// WeightStore is the keyed repository of feature weight sets plus the
// default pointer.
//
// Description:
//
//	Keys are UUID strings. Put deduplicates by value: importing a set that
//	already exists returns the existing key instead of minting a new one.
//	The default pointer names the set used when a request carries no
//	feature_weights_set_id.
//
// Thread Safety: Safe for concurrent use. Writes are serialized through a
// mutex so dedupe-then-insert stays atomic; reads run on Badger snapshots.
type WeightStore struct {
	db     *badger.DB
	logger *slog.Logger

	mu sync.Mutex
}

// NewWeightStore builds a WeightStore over an open DB.
func NewWeightStore(db *badger.DB, logger *slog.Logger) *WeightStore {
	return &WeightStore{db: db, logger: logger}
}

// Get retrieves the weight set stored under key.
//
// Outputs:
//
//	*score.WeightSet - The stored set.
//	error - ErrWeightSetNotFound for unknown keys.
func (s *WeightStore) Get(ctx context.Context, key string) (*score.WeightSet, error) {
	var ws *score.WeightSet
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		var err error
		ws, err = readWeightSet(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// DefaultKey returns the key the default pointer names.
func (s *WeightStore) DefaultKey(ctx context.Context) (string, error) {
	var key string
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get([]byte(defaultPointer))
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return ErrNoDefaultWeightSet
		}
		if err != nil {
			return fmt.Errorf("read default pointer: %w", err)
		}
		return item.Value(func(val []byte) error {
			key = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// GetDefault retrieves the default weight set and its key.
func (s *WeightStore) GetDefault(ctx context.Context) (string, *score.WeightSet, error) {
	var (
		key string
		ws  *score.WeightSet
	)
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get([]byte(defaultPointer))
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return ErrNoDefaultWeightSet
		}
		if err != nil {
			return fmt.Errorf("read default pointer: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			key = string(val)
			return nil
		}); err != nil {
			return err
		}
		ws, err = readWeightSet(txn, key)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return key, ws, nil
}

// List returns all stored weight-set keys, sorted.
func (s *WeightStore) List(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(weightSetPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().Key())
			keys = append(keys, strings.TrimPrefix(k, weightSetPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Put stores a weight set and returns its key.
//
// Description:
//
//	If an identical set (same coefficients and intercept) already exists,
//	its key is returned and nothing is written. Otherwise the set is
//	stored under a fresh UUID.
func (s *WeightStore) Put(ctx context.Context, ws *score.WeightSet) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok, err := s.findEqual(ctx, ws); err != nil {
		return "", err
	} else if ok {
		return key, nil
	}

	key := uuid.NewString()
	if err := s.putUnderKey(ctx, key, ws); err != nil {
		return "", err
	}
	s.logger.Info("stored feature weight set", slog.String("key", key))
	return key, nil
}

// SetDefault points the default at an existing key.
//
// Outputs:
//
//	error - ErrWeightSetNotFound when key does not name a stored set.
func (s *WeightStore) SetDefault(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		if _, err := txn.Get([]byte(weightSetPrefix + key)); errors.Is(err, dgbadger.ErrKeyNotFound) {
			return ErrWeightSetNotFound
		} else if err != nil {
			return fmt.Errorf("check weight set %s: %w", key, err)
		}
		return txn.Set([]byte(defaultPointer), []byte(key))
	})
	if err != nil {
		return err
	}
	s.logger.Info("default feature weight set changed", slog.String("key", key))
	return nil
}

// Seed installs the built-in weight set on first boot.
//
// Description:
//
//	No-op when a default pointer already exists, so restarts never clobber
//	an operator-chosen default. Otherwise stores ws under key and points
//	the default at it.
func (s *WeightStore) Seed(ctx context.Context, key string, ws *score.WeightSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.DefaultKey(ctx); err == nil {
		return nil
	} else if !errors.Is(err, ErrNoDefaultWeightSet) {
		return err
	}

	if err := s.putUnderKey(ctx, key, ws); err != nil {
		return err
	}
	err := s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set([]byte(defaultPointer), []byte(key))
	})
	if err != nil {
		return err
	}
	s.logger.Info("seeded default feature weight set", slog.String("key", key))
	return nil
}

// findEqual scans for a stored set equal to ws. The store holds at most a
// few dozen sets, so a full scan is fine.
func (s *WeightStore) findEqual(ctx context.Context, ws *score.WeightSet) (string, bool, error) {
	var (
		foundKey string
		found    bool
	)
	err := s.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.Prefix = []byte(weightSetPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var rec weightSetRecord
			if err := item.Value(func(val []byte) error {
				return gob.NewDecoder(bytes.NewReader(val)).Decode(&rec)
			}); err != nil {
				return fmt.Errorf("decode weight set %s: %w", item.Key(), err)
			}
			stored := &score.WeightSet{Coefficients: rec.Coefficients, Intercept: rec.Intercept}
			if ws.Equal(stored) {
				foundKey = strings.TrimPrefix(string(item.Key()), weightSetPrefix)
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return foundKey, found, nil
}

func (s *WeightStore) putUnderKey(ctx context.Context, key string, ws *score.WeightSet) error {
	var buf bytes.Buffer
	rec := weightSetRecord{Coefficients: ws.Coefficients, Intercept: ws.Intercept}
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encode weight set: %w", err)
	}
	return s.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		return txn.Set([]byte(weightSetPrefix+key), buf.Bytes())
	})
}

func readWeightSet(txn *dgbadger.Txn, key string) (*score.WeightSet, error) {
	item, err := txn.Get([]byte(weightSetPrefix + key))
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, ErrWeightSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read weight set %s: %w", key, err)
	}
	var rec weightSetRecord
	if err := item.Value(func(val []byte) error {
		return gob.NewDecoder(bytes.NewReader(val)).Decode(&rec)
	}); err != nil {
		return nil, fmt.Errorf("decode weight set %s: %w", key, err)
	}
	return &score.WeightSet{Coefficients: rec.Coefficients, Intercept: rec.Intercept}, nil
}
