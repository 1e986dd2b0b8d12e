// Package store implements the normalized in-memory entity store.
//
// The store keeps one table per entity type keyed by id, plus a per-type error
// slot used to surface failed optimistic writes. It is the single source of
// truth for readers; repositories and realtime handlers are its only writers.
package store

import (
	"cmp"
	"maps"
	"slices"
	"sync"

	"go.trai.ch/mirror/internal/core/domain"
	"go.trai.ch/zerr"
)

// ChangeKind describes what happened to a table.
type ChangeKind uint8

const (
	// ChangeSet is emitted for every upsert.
	ChangeSet ChangeKind = iota
	// ChangeRemove is emitted when an existing entity is removed.
	ChangeRemove
	// ChangeError is emitted when the error slot of a type is set or cleared.
	ChangeError
	// ChangeClear is emitted once by ClearAll.
	ChangeClear
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSet:
		return "set"
	case ChangeRemove:
		return "remove"
	case ChangeError:
		return "error"
	default:
		return "clear"
	}
}

// Change is delivered to watchers after a write is visible to readers.
type Change struct {
	Type domain.EntityType
	ID   string
	Kind ChangeKind
}

// Store is a concurrency-safe normalized entity store.
type Store struct {
	mu     sync.RWMutex
	tables map[domain.EntityType]map[string]domain.Entity
	errors map[domain.EntityType]string

	watchMu  sync.Mutex
	watchers map[uint64]func(Change)
	nextID   uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tables:   make(map[domain.EntityType]map[string]domain.Entity),
		errors:   make(map[domain.EntityType]string),
		watchers: make(map[uint64]func(Change)),
	}
}

// Set upserts a single entity. The entity replaces any stored value with the same id.
func (s *Store) Set(t domain.EntityType, e domain.Entity) error {
	return s.SetMany(t, e)
}

// SetMany upserts every entity in one atomic write. Nothing is written when any
// entity does not belong to t or lacks a usable id.
func (s *Store) SetMany(t domain.EntityType, entities ...domain.Entity) error {
	for _, e := range entities {
		if err := checkType(t, e); err != nil {
			return err
		}
	}
	if len(entities) == 0 {
		return nil
	}

	s.mu.Lock()
	table := s.tables[t]
	if table == nil {
		table = make(map[string]domain.Entity, len(entities))
		s.tables[t] = table
	}
	for _, e := range entities {
		table[e.EntityID()] = e
	}
	s.mu.Unlock()

	for _, e := range entities {
		s.notify(Change{Type: t, ID: e.EntityID(), Kind: ChangeSet})
	}
	return nil
}

// Remove deletes an entity. Unknown ids are ignored.
func (s *Store) Remove(t domain.EntityType, id string) {
	s.mu.Lock()
	_, ok := s.tables[t][id]
	if ok {
		delete(s.tables[t], id)
	}
	s.mu.Unlock()

	if ok {
		s.notify(Change{Type: t, ID: id, Kind: ChangeRemove})
	}
}

// ClearAll drops every table and error slot.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.tables = make(map[domain.EntityType]map[string]domain.Entity)
	s.errors = make(map[domain.EntityType]string)
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeClear})
}

// Len returns the number of entities stored for t.
func (s *Store) Len(t domain.EntityType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[t])
}

// Entities returns every entity of t sorted by id.
func (s *Store) Entities(t domain.EntityType) []domain.Entity {
	s.mu.RLock()
	out := slices.Collect(maps.Values(s.tables[t]))
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Entity) int {
		return cmp.Compare(a.EntityID(), b.EntityID())
	})
	return out
}

// SetError records the last write failure for t.
func (s *Store) SetError(t domain.EntityType, msg string) {
	s.mu.Lock()
	s.errors[t] = msg
	s.mu.Unlock()

	s.notify(Change{Type: t, Kind: ChangeError})
}

// ClearError empties the error slot of t.
func (s *Store) ClearError(t domain.EntityType) {
	s.mu.Lock()
	_, ok := s.errors[t]
	delete(s.errors, t)
	s.mu.Unlock()

	if ok {
		s.notify(Change{Type: t, Kind: ChangeError})
	}
}

// Error returns the error slot of t.
func (s *Store) Error(t domain.EntityType) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.errors[t]
	return msg, ok
}

// Watch registers fn to be called after every write. Listeners run on the
// writer's goroutine, outside the store lock. The returned func unregisters fn.
func (s *Store) Watch(fn func(Change)) (cancel func()) {
	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	return func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.watchMu.Lock()
	if len(s.watchers) == 0 {
		s.watchMu.Unlock()
		return
	}
	ids := slices.Sorted(maps.Keys(s.watchers))
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.watchers[id])
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Get returns the entity of type T stored under id.
func Get[T domain.Entity](s *Store, t domain.EntityType, id string) (T, bool) {
	s.mu.RLock()
	e, ok := s.tables[t][id]
	s.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}
	v, ok := e.(T)
	return v, ok
}

// List returns every entity of type T stored for t, sorted by id.
func List[T domain.Entity](s *Store, t domain.EntityType) []T {
	entities := s.Entities(t)
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func checkType(t domain.EntityType, e domain.Entity) error {
	if e == nil {
		return zerr.With(zerr.Wrap(domain.ErrTypeMismatch, "nil entity"), "type", string(t))
	}
	if e.EntityType() != t {
		err := zerr.Wrap(domain.ErrTypeMismatch, "store entity")
		err = zerr.With(err, "type", string(t))
		return zerr.With(err, "entity_type", string(e.EntityType()))
	}
	if !domain.ValidID(e.EntityID()) {
		err := zerr.Wrap(domain.ErrValidation, "entity without a usable id")
		err = zerr.With(err, "type", string(t))
		return zerr.With(err, "id", e.EntityID())
	}
	return nil
}
