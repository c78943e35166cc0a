package patterns

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/storage"
)

// LibraryKey is the single storage key the whole library is persisted under.
const LibraryKey = "pattern-library"

// Manager mediates all access to the persisted pattern library. Structural
// mutations run load-mutate-save under one library-wide lock; a second
// concurrent writer simply waits. Reads load without holding the lock across
// the caller's use of the result.
type Manager struct {
	store  storage.Store
	mu     sync.Mutex
	logger *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets a logger for storage degradation warnings.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager backed by the given store.
func NewManager(store storage.Store, opts ...ManagerOption) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the current library. The writer lock is held for the duration
// of the load, so a reader never interleaves with an in-flight save; it is
// released before the caller uses the result. Storage errors and malformed
// payloads degrade to an empty library: callers must treat "empty" and
// "never-initialized" identically.
func (m *Manager) Load(ctx context.Context) *Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// load reads the persisted library. Callers must hold m.mu.
func (m *Manager) load(ctx context.Context) *Library {
	data, err := m.store.Load(ctx, LibraryKey)
	if err != nil {
		if err != storage.ErrNotFound && m.logger != nil {
			m.logger.Warn("pattern library load failed, using empty library", zap.Error(err))
		}
		return NewLibrary()
	}
	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		if m.logger != nil {
			m.logger.Warn("pattern library malformed, using empty library", zap.Error(err))
		}
		return NewLibrary()
	}
	if lib.Collections == nil {
		lib.Collections = make(map[string]*Collection)
	}
	return &lib
}

// save persists the whole library as one unit.
func (m *Manager) save(ctx context.Context, lib *Library) error {
	data, err := json.Marshal(lib)
	if err != nil {
		return fmt.Errorf("failed to marshal pattern library: %w", err)
	}
	if err := m.store.Save(ctx, LibraryKey, data); err != nil {
		return fmt.Errorf("failed to save pattern library: %w", err)
	}
	return nil
}

// mutate runs fn against the current library under the writer lock and
// persists the result.
func (m *Manager) mutate(ctx context.Context, fn func(*Library) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lib := m.load(ctx)
	if err := fn(lib); err != nil {
		return err
	}
	return m.save(ctx, lib)
}

// CreateCollection adds an empty collection for a document type.
func (m *Manager) CreateCollection(ctx context.Context, name string) error {
	return m.mutate(ctx, func(lib *Library) error {
		lib.EnsureCollection(name)
		return nil
	})
}

// CreateSubCollection adds an empty sub-collection under a document type.
func (m *Manager) CreateSubCollection(ctx context.Context, collection, sub string) error {
	return m.mutate(ctx, func(lib *Library) error {
		lib.EnsureSubCollection(collection, sub)
		return nil
	})
}

// SavePattern upserts a named pattern, creating the containing collection and
// sub-collection as needed.
func (m *Manager) SavePattern(ctx context.Context, collection, sub string, pattern *SearchPattern) error {
	if pattern == nil || pattern.Name == "" {
		return fmt.Errorf("pattern must have a name")
	}
	return m.mutate(ctx, func(lib *Library) error {
		lib.EnsureSubCollection(collection, sub).Patterns[pattern.Name] = pattern
		return nil
	})
}

// DeletePattern removes a named pattern. Deleting an absent pattern is not an
// error. Empty-container cleanup is a separate maintenance pass (Prune).
func (m *Manager) DeletePattern(ctx context.Context, collection, sub, name string) error {
	return m.mutate(ctx, func(lib *Library) error {
		if s := lib.SubCollection(collection, sub); s != nil {
			delete(s.Patterns, name)
		}
		return nil
	})
}

// DeleteSubCollection removes a sub-collection and all its patterns.
func (m *Manager) DeleteSubCollection(ctx context.Context, collection, sub string) error {
	return m.mutate(ctx, func(lib *Library) error {
		if c := lib.Collection(collection); c != nil {
			delete(c.SubCollections, sub)
		}
		return nil
	})
}

// DeleteCollection removes a document type and everything under it.
func (m *Manager) DeleteCollection(ctx context.Context, name string) error {
	return m.mutate(ctx, func(lib *Library) error {
		delete(lib.Collections, name)
		return nil
	})
}

// Prune drops empty sub-collections and collections left behind by deletes.
func (m *Manager) Prune(ctx context.Context) error {
	return m.mutate(ctx, func(lib *Library) error {
		lib.PruneEmpty()
		return nil
	})
}

// CollectionNames lists document types, sorted.
func (m *Manager) CollectionNames(ctx context.Context) []string {
	lib := m.Load(ctx)
	names := make([]string, 0, len(lib.Collections))
	for name := range lib.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubCollectionNames lists the formats of one document type, sorted.
func (m *Manager) SubCollectionNames(ctx context.Context, collection string) []string {
	lib := m.Load(ctx)
	c := lib.Collection(collection)
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.SubCollections))
	for name := range c.SubCollections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PatternNames lists the pattern names of one format, sorted.
func (m *Manager) PatternNames(ctx context.Context, collection, sub string) []string {
	lib := m.Load(ctx)
	s := lib.SubCollection(collection, sub)
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Patterns))
	for name := range s.Patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pattern loads one named pattern, or nil when absent.
func (m *Manager) Pattern(ctx context.Context, collection, sub, name string) *SearchPattern {
	lib := m.Load(ctx)
	s := lib.SubCollection(collection, sub)
	if s == nil {
		return nil
	}
	return s.Patterns[name]
}

// Patterns batch-loads all patterns of one format, or nil when the format is
// unknown. The second return distinguishes an unknown format from an empty one.
func (m *Manager) Patterns(ctx context.Context, collection, sub string) (map[string]*SearchPattern, bool) {
	lib := m.Load(ctx)
	s := lib.SubCollection(collection, sub)
	if s == nil {
		return nil, false
	}
	return s.Patterns, true
}

// CollectionPatterns batch-loads every sub-collection of one document type,
// keyed by format name, or nil when the type is unknown.
func (m *Manager) CollectionPatterns(ctx context.Context, collection string) (map[string]map[string]*SearchPattern, bool) {
	lib := m.Load(ctx)
	c := lib.Collection(collection)
	if c == nil {
		return nil, false
	}
	out := make(map[string]map[string]*SearchPattern, len(c.SubCollections))
	for name, s := range c.SubCollections {
		out[name] = s.Patterns
	}
	return out, true
}

// FormatInfo returns the sub-collection metadata (e.g. the dual-language
// layout flag), or nil when unknown.
func (m *Manager) FormatInfo(ctx context.Context, collection, sub string) *SubCollection {
	lib := m.Load(ctx)
	return lib.SubCollection(collection, sub)
}
