package favorites

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"ringroad/pkg/model"
	"ringroad/pkg/store"
)

// Listener is notified after every toggle with the new set size.
type Listener func(count int, added bool)

// Store is the persisted set of favorite POI ids.
// Storage failures are logged and never returned.
type Store struct {
	st     store.StateStore
	key    store.StateKey
	logger *slog.Logger

	mu        sync.RWMutex
	ids       map[string]struct{}
	listeners []Listener
}

// New creates an empty store persisting under key.
func New(st store.StateStore, key store.StateKey) *Store {
	return &Store{
		st:     st,
		key:    key,
		logger: slog.With("component", "favorites"),
		ids:    make(map[string]struct{}),
	}
}

// LoadInitial reads the persisted set. Missing or corrupt data yields an empty set.
func (s *Store) LoadInitial(ctx context.Context) []string {
	ids := make(map[string]struct{})

	var list []string
	if _, err := store.LoadJSON(ctx, s.st, s.key, &list); err != nil {
		s.logger.Warn("Stored favorites are corrupt, starting empty", "key", s.key, "error", err)
		list = nil
	}
	for _, id := range list {
		if id != "" {
			ids[id] = struct{}{}
		}
	}

	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()

	s.logger.Debug("Favorites loaded", "count", len(ids))
	return s.IDs()
}

// IsFavorite reports membership.
func (s *Store) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Toggle flips membership of id, persists the whole set and returns the new state.
func (s *Store) Toggle(ctx context.Context, id string) bool {
	s.mu.Lock()
	_, was := s.ids[id]
	if was {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
	snapshot := s.sortedLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.persist(ctx, snapshot)

	added := !was
	for _, l := range listeners {
		l(len(snapshot), added)
	}
	return added
}

func (s *Store) persist(ctx context.Context, ids []string) {
	if err := store.SaveJSON(ctx, s.st, s.key, ids); err != nil {
		s.logger.Error("Failed to persist favorites", "key", s.key, "error", err)
	}
}

// IDs returns the favorite ids, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Count returns the set size, stale ids included.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Store) sortedLocked() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Catalog is the lookup Resolve needs.
type Catalog interface {
	POIs() []*model.POI
}

// Resolve returns the favorite POIs in catalog order. Stale ids are skipped.
func (s *Store) Resolve(c Catalog) []*model.POI {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.POI
	for _, p := range c.POIs() {
		if _, ok := s.ids[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Subscribe registers a listener for toggles.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
