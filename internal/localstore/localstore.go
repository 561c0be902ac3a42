// Package localstore keeps the small pieces of state that live next to the
// application rather than in the record collections: the fixed default
// values and a last-known-good copy of each collection for offline display.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cuentas/internal/core"
	"cuentas/internal/ports"
)

// KeyFixedValues is where the default discounts live.
const KeyFixedValues = "fixedValues"

// CacheKey names the cached copy of one collection, e.g. "cache:water".
func CacheKey(u core.Utility) string { return "cache:" + string(u) }

// ErrMissing is returned when a key has never been written.
var ErrMissing = errors.New("localstore: missing key")

type Store struct {
	kv ports.KeyValue
}

func New(kv ports.KeyValue) *Store {
	return &Store{kv: kv}
}

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	b, err := s.kv.GetValue(ctx, key)
	if errors.Is(err, ports.ErrNotFound) {
		return ErrMissing
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.kv.PutValue(ctx, key, b)
}

// FixedValues returns the stored values or ErrMissing.
func (s *Store) FixedValues(ctx context.Context) (core.FixedValues, error) {
	var fv core.FixedValues
	err := s.getJSON(ctx, KeyFixedValues, &fv)
	return fv, err
}

func (s *Store) SaveFixedValues(ctx context.Context, fv core.FixedValues) error {
	return s.putJSON(ctx, KeyFixedValues, fv)
}

// Snapshot is a cached copy of one collection.
type Snapshot[R core.Record] struct {
	SavedAt time.Time `json:"savedAt"`
	Records []R       `json:"records"`
}

// LoadCollection reads the cached copy of a collection.
func LoadCollection[R core.Record](ctx context.Context, s *Store, u core.Utility) (Snapshot[R], error) {
	var snap Snapshot[R]
	err := s.getJSON(ctx, CacheKey(u), &snap)
	return snap, err
}

// SaveCollection overwrites the cached copy of a collection.
func SaveCollection[R core.Record](ctx context.Context, s *Store, u core.Utility, records []R) error {
	return s.putJSON(ctx, CacheKey(u), Snapshot[R]{SavedAt: time.Now().UTC(), Records: records})
}
