// Package memory holds map-backed stores with the same behavior as the
// postgres repositories. They back the router tests and the API when no
// database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/query"
)

// Conflict describes a uniqueness violation between two records.
type Conflict struct {
	Field string
	Value string
}

type StoreConfig[T, C, U any] struct {
	NotFound error
	ID       func(T) string
	Build    func(C, time.Time) T
	Apply    func(*T, U, time.Time)
	Validate func(T) error
	// Visible hides records from every lookup when it returns false.
	Visible func(T) bool
	// Unique reports a conflict between an existing record and a candidate.
	Unique func(existing, candidate T) (Conflict, bool)
	// References checks the records a new one points at, the way foreign
	// keys do in postgres. It runs before the store lock is taken.
	References func(T) error
}

type Store[T, C, U any] struct {
	mu    sync.RWMutex
	items map[string]T
	cfg   StoreConfig[T, C, U]
	now   func() time.Time
}

func NewStore[T, C, U any](cfg StoreConfig[T, C, U]) *Store[T, C, U] {
	return &Store[T, C, U]{
		items: make(map[string]T),
		cfg:   cfg,
		now:   time.Now,
	}
}

func (s *Store[T, C, U]) visible(v T) bool {
	return s.cfg.Visible == nil || s.cfg.Visible(v)
}

// All returns every visible record in no particular order.
func (s *Store[T, C, U]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.items))
	for _, v := range s.items {
		if s.visible(v) {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store[T, C, U]) Count(ctx context.Context, spec query.Spec) (int, error) {
	_, total, err := query.Evaluate(s.All(), spec)
	return total, err
}

func (s *Store[T, C, U]) Find(ctx context.Context, spec query.Spec) ([]T, error) {
	page, _, err := query.Evaluate(s.All(), spec)
	return page, err
}

func (s *Store[T, C, U]) GetByID(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[id]
	if !ok || !s.visible(v) {
		var zero T
		return zero, s.cfg.NotFound
	}
	return v, nil
}

// First returns the first visible record matching pred.
func (s *Store[T, C, U]) First(pred func(T) bool) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.items {
		if s.visible(v) && pred(v) {
			return v, nil
		}
	}
	var zero T
	return zero, s.cfg.NotFound
}

func (s *Store[T, C, U]) Create(ctx context.Context, req C) (T, error) {
	v := s.cfg.Build(req, s.now())
	if err := s.Insert(ctx, v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Insert stores a fully built record.
func (s *Store[T, C, U]) Insert(ctx context.Context, v T) error {
	if s.cfg.Validate != nil {
		if err := s.cfg.Validate(v); err != nil {
			return err
		}
	}
	if s.cfg.References != nil {
		if err := s.cfg.References(v); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(v); err != nil {
		return err
	}
	s.items[s.cfg.ID(v)] = v
	return nil
}

func (s *Store[T, C, U]) Update(ctx context.Context, id string, req U) (T, error) {
	var zero T
	if err := s.Mutate(id, func(v *T) { s.cfg.Apply(v, req, s.now()) }); err != nil {
		return zero, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id], nil
}

// Mutate applies fn to a copy of the visible record id, validates it and
// stores it back.
func (s *Store[T, C, U]) Mutate(id string, fn func(*T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[id]
	if !ok || !s.visible(cur) {
		return s.cfg.NotFound
	}

	fn(&cur)

	if s.cfg.Validate != nil {
		if err := s.cfg.Validate(cur); err != nil {
			return err
		}
	}
	if err := s.checkUnique(cur); err != nil {
		return err
	}
	s.items[id] = cur
	return nil
}

// Replace overwrites record id with v regardless of visibility.
func (s *Store[T, C, U]) Replace(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.cfg.ID(v)
	if _, ok := s.items[id]; !ok {
		return s.cfg.NotFound
	}
	if err := s.checkUnique(v); err != nil {
		return err
	}
	s.items[id] = v
	return nil
}

func (s *Store[T, C, U]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[id]
	if !ok || !s.visible(v) {
		return s.cfg.NotFound
	}
	delete(s.items, id)
	return nil
}

// Exists reports whether id is stored, visible or not. A deactivated user
// still satisfies a reference, as the users row does in postgres.
func (s *Store[T, C, U]) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[id]
	return ok
}

// DeleteWhere removes every record matching pred and returns how many went.
func (s *Store[T, C, U]) DeleteWhere(pred func(T) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, v := range s.items {
		if pred(v) {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// checkUnique must be called with the lock held.
func (s *Store[T, C, U]) checkUnique(candidate T) error {
	if s.cfg.Unique == nil {
		return nil
	}
	id := s.cfg.ID(candidate)
	for existingID, existing := range s.items {
		if existingID == id {
			continue
		}
		if c, conflict := s.cfg.Unique(existing, candidate); conflict {
			return apperr.Validation(
				"duplicate_field",
				fmt.Sprintf("Duplicate field value: %s. Please use another value.", c.Value),
				map[string]string{"field": c.Field},
			)
		}
	}
	return nil
}
