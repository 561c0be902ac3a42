// Package memory is an in-process backend used for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"cuentas/internal/core"
	"cuentas/internal/ports"
)

// collection is a mutex-guarded map of records that enforces one record per period.
type collection[R core.Record] struct {
	mu      sync.Mutex
	utility core.Utility
	items   map[string]R
	setID   func(R, string) R
}

func newCollection[R core.Record](u core.Utility, setID func(R, string) R) *collection[R] {
	return &collection[R]{utility: u, items: make(map[string]R), setID: setID}
}

func (c *collection[R]) clash(r R, update bool) error {
	for id, existing := range c.items {
		if update && id == r.RecordID() {
			continue
		}
		if existing.RecordPeriod() == r.RecordPeriod() {
			return &core.DuplicatePeriodError{Utility: c.utility, Period: r.RecordPeriod(), Update: update}
		}
	}
	return nil
}

func (c *collection[R]) Create(_ context.Context, r R) (R, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.clash(r, false); err != nil {
		var zero R
		return zero, err
	}
	r = c.setID(r, uuid.NewString())
	c.items[r.RecordID()] = r
	return r, nil
}

func (c *collection[R]) Update(_ context.Context, r R) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[r.RecordID()]; !ok {
		return ports.ErrNotFound
	}
	if err := c.clash(r, true); err != nil {
		return err
	}
	c.items[r.RecordID()] = r
	return nil
}

func (c *collection[R]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return ports.ErrNotFound
	}
	delete(c.items, id)
	return nil
}

func (c *collection[R]) Get(_ context.Context, id string) (R, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[id]
	if !ok {
		var zero R
		return zero, ports.ErrNotFound
	}
	return r, nil
}

func (c *collection[R]) List(_ context.Context) ([]R, error) {
	c.mu.Lock()
	out := make([]R, 0, len(c.items))
	for _, r := range c.items {
		out = append(out, r)
	}
	c.mu.Unlock()
	core.SortRecords(out)
	return out, nil
}

// put inserts a seed record keeping its ID.
func (c *collection[R]) put(r R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.RecordID() == "" {
		r = c.setID(r, uuid.NewString())
	}
	c.items[r.RecordID()] = r
}

// Store holds every collection in memory.
type Store struct {
	water       *collection[core.WaterRecord]
	electricity *collection[core.ElectricityRecord]
	internet    *collection[core.InternetRecord]

	mu    sync.Mutex
	users map[string]core.User
	kv    map[string][]byte
}

func New() *Store {
	return &Store{
		water: newCollection(core.Water, func(r core.WaterRecord, id string) core.WaterRecord {
			r.ID = id
			return r
		}),
		electricity: newCollection(core.Electricity, func(r core.ElectricityRecord, id string) core.ElectricityRecord {
			r.ID = id
			return r
		}),
		internet: newCollection(core.Internet, func(r core.InternetRecord, id string) core.InternetRecord {
			r.ID = id
			return r
		}),
		users: make(map[string]core.User),
		kv:    make(map[string][]byte),
	}
}

// Seed is the JSON layout accepted by NewFromFile.
type Seed struct {
	Water       []core.WaterRecord       `json:"water"`
	Electricity []core.ElectricityRecord `json:"electricity"`
	Internet    []core.InternetRecord    `json:"internet"`
}

// NewFromFile loads seed records from a JSON file. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for _, r := range seed.Water {
		r.Normalize()
		s.water.put(r)
	}
	for _, r := range seed.Electricity {
		r.Normalize()
		s.electricity.put(r)
	}
	for _, r := range seed.Internet {
		r.Normalize()
		s.internet.put(r)
	}
	return s, nil
}

func (s *Store) Stores() ports.Stores {
	return ports.Stores{
		Water:       s.water,
		Electricity: s.electricity,
		Internet:    s.internet,
		Users:       s,
		KV:          s,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrConflict)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return ports.ErrNotFound
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) UserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, ports.ErrNotFound
	}
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, ports.ErrNotFound
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) GetValue(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) PutValue(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = append([]byte(nil), value...)
	return nil
}
