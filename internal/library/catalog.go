package library

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/conorfennell/flashdeck/internal/api"
	"github.com/conorfennell/flashdeck/internal/cache"
	"github.com/conorfennell/flashdeck/internal/domain"
)

// Catalog is the Library page: the list of sets and set deletion.
type Catalog struct {
	backend Backend
	cache   *cache.Cache

	mu       sync.Mutex
	state    LoadState
	sets     []domain.SetSummary
	errMsg   string
	notice   string
	deleting string
}

func NewCatalog(backend Backend, c *cache.Cache) *Catalog {
	return &Catalog{backend: backend, cache: c}
}

// CatalogView is a consistent read of the page.
type CatalogView struct {
	State    LoadState
	Sets     []domain.SetSummary
	Error    string // load failure, shown with Try Again
	Notice   string // last delete failure
	Deleting string
}

func (c *Catalog) View() CatalogView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CatalogView{
		State:    c.state,
		Sets:     slices.Clone(c.sets),
		Error:    c.errMsg,
		Notice:   c.notice,
		Deleting: c.deleting,
	}
}

// Load fetches the set listing. It doubles as the Try Again action.
// A failure keeps the previously loaded list.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = Loading
	c.errMsg = ""
	c.mu.Unlock()

	sets, err := c.backend.ListSets(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Error("Failed to load flashcard sets", "error", err)
		c.state = Failed
		c.errMsg = api.UserMessage(err, "Failed to load flashcard sets")
		return fmt.Errorf("failed to load flashcard sets: %w", err)
	}
	c.state = Loaded
	c.sets = sets
	return nil
}

// Delete removes a set remotely, then drops it from the list and the cache.
// Only one delete runs at a time.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.deleting != "" {
		c.mu.Unlock()
		return ErrBusy
	}
	c.deleting = id
	c.notice = ""
	c.mu.Unlock()

	err := c.backend.DeleteSet(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleting = ""
	if err != nil {
		slog.Error("Failed to delete flashcard set", "set_id", id, "error", err)
		c.notice = api.UserMessage(err, "Failed to delete the flashcard set")
		return fmt.Errorf("failed to delete set %s: %w", id, err)
	}
	c.sets = slices.DeleteFunc(c.sets, func(s domain.SetSummary) bool { return s.ID == id })
	if c.cache != nil {
		c.cache.Invalidate(id)
	}
	slog.Info("Deleted flashcard set", "set_id", id)
	return nil
}
