package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conorfennell/flashdeck/internal/api"
	"github.com/conorfennell/flashdeck/internal/cache"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/quiz"
	"github.com/conorfennell/flashdeck/internal/storage"
)

// View selects what the Study page shows.
type View int

const (
	ReviewView View = iota
	QuizView
)

func (v View) String() string {
	if v == QuizView {
		return "quiz"
	}
	return "review"
}

// ParseView maps a query value to a View, defaulting to review.
func ParseView(s string) View {
	if s == "quiz" {
		return QuizView
	}
	return ReviewView
}

// History stores completed quizzes. *storage.DB implements it.
type History interface {
	InsertQuizSession(s storage.QuizSession) (int64, error)
}

// Study is the Study page for one set.
type Study struct {
	setID         string
	backend       Backend
	cache         *cache.Cache
	history       History
	redirectDelay time.Duration

	mu     sync.Mutex
	state  LoadState
	set    domain.FlashcardSet
	errMsg string
	stale  bool
	view   View
	saving bool
}

// StudyOption configures a Study.
type StudyOption func(*Study)

func WithCache(c *cache.Cache) StudyOption {
	return func(s *Study) { s.cache = c }
}

func WithHistory(h History) StudyOption {
	return func(s *Study) { s.history = h }
}

// WithRedirectDelay sets how long a missing set's page waits before sending
// the user back to the listing.
func WithRedirectDelay(d time.Duration) StudyOption {
	return func(s *Study) { s.redirectDelay = d }
}

func NewStudy(setID string, backend Backend, opts ...StudyOption) *Study {
	s := &Study{
		setID:         setID,
		backend:       backend,
		redirectDelay: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StudyView is a consistent read of the page.
type StudyView struct {
	State         LoadState
	Set           domain.FlashcardSet
	Error         string
	Stale         bool // set came from the on-disk cache because the backend failed
	View          View
	Saving        bool
	RedirectAfter time.Duration // non-zero when State is NotFound
}

func (s *Study) Snapshot() StudyView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := StudyView{
		State:  s.state,
		Set:    s.set.Clone(),
		Error:  s.errMsg,
		Stale:  s.stale,
		View:   s.view,
		Saving: s.saving,
	}
	if s.state == NotFound {
		v.RedirectAfter = s.redirectDelay
	}
	return v
}

func (s *Study) SetID() string { return s.setID }

func (s *Study) SetView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// Set returns the loaded set.
func (s *Study) Set() (domain.FlashcardSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loaded {
		return domain.FlashcardSet{}, false
	}
	return s.set.Clone(), true
}

// Load serves the set from the cache when it can, otherwise fetches it.
// When the backend is unreachable a stored copy is shown instead, flagged stale.
func (s *Study) Load(ctx context.Context) error {
	if s.cache != nil {
		if set, ok := s.cache.Get(s.setID); ok {
			s.loaded(set, false)
			return nil
		}
	}

	s.mu.Lock()
	s.state = Loading
	s.mu.Unlock()

	set, err := s.backend.GetSet(ctx, s.setID)
	if err == nil {
		if s.cache != nil {
			s.cache.Put(*set)
		}
		s.loaded(*set, false)
		return nil
	}

	if errors.Is(err, api.ErrNotFound) {
		slog.Info("Flashcard set not found", "set_id", s.setID)
		if s.cache != nil {
			s.cache.Invalidate(s.setID)
		}
		s.mu.Lock()
		s.state = NotFound
		s.errMsg = "Flashcard set not found"
		s.mu.Unlock()
		return fmt.Errorf("failed to load set %s: %w", s.setID, err)
	}

	slog.Error("Failed to load flashcard set", "set_id", s.setID, "error", err)
	if s.cache != nil {
		if stored, ok := s.cache.Stored(s.setID); ok {
			s.loaded(stored, true)
			return nil
		}
	}
	s.mu.Lock()
	s.state = Failed
	s.errMsg = api.UserMessage(err, "Failed to load flashcard set")
	s.mu.Unlock()
	return fmt.Errorf("failed to load set %s: %w", s.setID, err)
}

func (s *Study) loaded(set domain.FlashcardSet, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Loaded
	s.set = set
	s.stale = stale
	s.errMsg = ""
	if stale {
		s.errMsg = "Showing a saved copy; the server could not be reached"
	}
}

// SaveCard sends an edited card to the backend and, once accepted, merges it
// into the local set by id and refreshes the cache. A failure leaves the local
// set untouched.
func (s *Study) SaveCard(ctx context.Context, card domain.Flashcard) error {
	s.mu.Lock()
	if s.state != Loaded {
		s.mu.Unlock()
		return fmt.Errorf("set %s is not loaded", s.setID)
	}
	if s.saving {
		s.mu.Unlock()
		return ErrBusy
	}
	s.saving = true
	s.mu.Unlock()

	err := s.backend.SaveCard(ctx, s.setID, card)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		slog.Error("Failed to save flashcard", "set_id", s.setID, "card_id", card.ID, "error", err)
		return fmt.Errorf("failed to save card %s: %w", card.ID, err)
	}
	s.set.ReplaceCard(card.Clone())
	merged := s.set.Clone()
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Invalidate(s.setID)
		s.cache.Put(merged)
	}
	slog.Info("Saved flashcard", "set_id", s.setID, "card_id", card.ID)
	return nil
}

// RecordQuiz stores a completed quiz session in the history.
func (s *Study) RecordQuiz(mode quiz.Mode, results []domain.QuizResult) error {
	if s.history == nil {
		return nil
	}
	sum := quiz.Summarize(results)
	id, err := s.history.InsertQuizSession(storage.QuizSession{
		SetID:        s.setID,
		Mode:         mode.String(),
		FinishedAt:   time.Now(),
		Correct:      sum.Correct,
		Total:        sum.Total,
		TotalSeconds: sum.TotalSeconds,
		Results:      results,
	})
	if err != nil {
		return fmt.Errorf("failed to record quiz for set %s: %w", s.setID, err)
	}
	slog.Info("Quiz completed",
		"set_id", s.setID,
		"session_id", id,
		"accuracy", sum.AccuracyString(),
		"total_time", sum.TotalTime(),
	)
	return nil
}

// Export renders the loaded set as a downloadable JSON document.
func (s *Study) Export() (filename string, data []byte, err error) {
	set, ok := s.Set()
	if !ok {
		return "", nil, fmt.Errorf("set %s is not loaded", s.setID)
	}
	data, err = ExportJSON(set)
	if err != nil {
		return "", nil, err
	}
	return ExportFilename(set.Title), data, nil
}
