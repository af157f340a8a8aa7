// Package library holds the page models behind the Library and Study screens:
// what has been loaded, what failed, and which mutation is in flight.
package library

import (
	"context"
	"errors"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Backend is the remote flashcard service. *api.Client implements it.
type Backend interface {
	ListSets(ctx context.Context) ([]domain.SetSummary, error)
	GetSet(ctx context.Context, id string) (*domain.FlashcardSet, error)
	DeleteSet(ctx context.Context, id string) error
	SaveCard(ctx context.Context, setID string, card domain.Flashcard) error
}

// ErrBusy is returned when the same kind of request is already in flight.
var ErrBusy = errors.New("another request is already in progress")

// LoadState is where a page is in fetching its data.
type LoadState int

const (
	Idle LoadState = iota
	Loading
	Loaded
	Failed
	NotFound
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	case NotFound:
		return "not-found"
	}
	return "unknown"
}
