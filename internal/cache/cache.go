package cache

import (
	"log/slog"
	"sync"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/knol"
)

// Store persists sets between runs. *storage.DB implements it.
type Store interface {
	SaveSet(set domain.FlashcardSet, contentHash string) error
	FindSet(id string) (*domain.FlashcardSet, string, error)
	SetHash(id string) (string, error)
	DeleteSet(id string) error
}

// Cache holds fetched sets keyed by set id. Entries live until invalidated.
// An optional Store keeps a copy on disk that outlives the process.
type Cache struct {
	mu    sync.RWMutex
	sets  map[string]domain.FlashcardSet
	store Store
}

// New creates a cache. store may be nil.
func New(store Store) *Cache {
	return &Cache{
		sets:  make(map[string]domain.FlashcardSet),
		store: store,
	}
}

// Get returns the in-memory copy of a set.
func (c *Cache) Get(id string) (domain.FlashcardSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.sets[id]
	if !ok {
		return domain.FlashcardSet{}, false
	}
	return set.Clone(), true
}

// Stored returns the on-disk copy of a set, for use when the backend is unreachable.
func (c *Cache) Stored(id string) (domain.FlashcardSet, bool) {
	if c.store == nil {
		return domain.FlashcardSet{}, false
	}
	set, _, err := c.store.FindSet(id)
	if err != nil {
		slog.Warn("Failed to read cached set", "set_id", id, "error", err)
		return domain.FlashcardSet{}, false
	}
	if set == nil {
		return domain.FlashcardSet{}, false
	}
	return *set, true
}

// Put caches set in memory and writes it through to the store when its
// content differs from what is already stored.
func (c *Cache) Put(set domain.FlashcardSet) {
	c.mu.Lock()
	c.sets[set.ID] = set.Clone()
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	hash := knol.Hash(set)
	stored, err := c.store.SetHash(set.ID)
	if err != nil {
		slog.Warn("Failed to read cached set hash", "set_id", set.ID, "error", err)
	}
	if stored == hash {
		return
	}
	if err := c.store.SaveSet(set, hash); err != nil {
		slog.Warn("Failed to write cached set", "set_id", set.ID, "error", err)
	}
}

// Invalidate drops a set from memory and from the store.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.sets, id)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.DeleteSet(id); err != nil {
		slog.Warn("Failed to delete cached set", "set_id", id, "error", err)
	}
}

// Len reports the number of sets held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}
