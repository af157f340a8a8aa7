package library

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/conorfennell/flashdeck/internal/api"
	"github.com/conorfennell/flashdeck/internal/cache"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/quiz"
	"github.com/conorfennell/flashdeck/internal/storage"
)

type fakeBackend struct {
	mu       sync.Mutex
	sets     map[string]domain.FlashcardSet
	listErr  error
	getErr   error
	delErr   error
	saveErr  error
	getCalls int
	saved    []domain.Flashcard
	block    chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{sets: map[string]domain.FlashcardSet{
		"s1": {
			ID:    "s1",
			Title: "Capitals",
			Flashcards: []domain.Flashcard{
				{ID: "1", Question: "France?", Answer: "Paris", Difficulty: 1},
				{ID: "2", Question: "Italy?", Answer: "Rome", Difficulty: 2},
			},
		},
		"s2": {ID: "s2", Title: "Empty"},
	}}
}

func (f *fakeBackend) ListSets(ctx context.Context) ([]domain.SetSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.SetSummary
	for _, id := range []string{"s1", "s2"} {
		if s, ok := f.sets[id]; ok {
			out = append(out, domain.SetSummary{ID: s.ID, Title: s.Title, Count: len(s.Flashcards)})
		}
	}
	return out, nil
}

func (f *fakeBackend) GetSet(ctx context.Context, id string) (*domain.FlashcardSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sets[id]
	if !ok {
		return nil, &api.NetworkError{Op: "GET", StatusCode: 404, Message: "Flashcard set not found", Err: api.ErrNotFound}
	}
	clone := s.Clone()
	return &clone, nil
}

func (f *fakeBackend) DeleteSet(ctx context.Context, id string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.sets, id)
	return nil
}

func (f *fakeBackend) SaveCard(ctx context.Context, setID string, card domain.Flashcard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, card)
	s := f.sets[setID]
	s.ReplaceCard(card)
	return nil
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("storage.Open() returned an unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCatalogLoad(t *testing.T) {
	backend := newFakeBackend()
	c := NewCatalog(backend, nil)

	if c.View().State != Idle {
		t.Fatalf("Expected idle before loading, got %s", c.View().State)
	}
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	v := c.View()
	if v.State != Loaded || len(v.Sets) != 2 {
		t.Fatalf("Expected 2 loaded sets, got %+v", v)
	}

	backend.listErr = &api.NetworkError{Op: "GET", StatusCode: 500, Message: "database down"}
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("Expected Load to fail")
	}
	v = c.View()
	if v.State != Failed || v.Error != "database down" {
		t.Errorf("Expected failed state with backend message, got %+v", v)
	}
	if len(v.Sets) != 2 {
		t.Errorf("Expected previous sets to be kept, got %d", len(v.Sets))
	}

	backend.listErr = nil
	if err := c.Load(context.Background()); err != nil || c.View().State != Loaded {
		t.Errorf("Expected Try Again to recover, got %v", err)
	}
}

func TestCatalogLoadGenericError(t *testing.T) {
	backend := newFakeBackend()
	backend.listErr = errors.New("dial tcp: refused")
	c := NewCatalog(backend, nil)
	c.Load(context.Background())

	if got := c.View().Error; got != "Failed to load flashcard sets" {
		t.Errorf("Expected fallback message, got '%s'", got)
	}
}

func TestCatalogDelete(t *testing.T) {
	backend := newFakeBackend()
	ch := cache.New(nil)
	ch.Put(backend.sets["s1"])
	c := NewCatalog(backend, ch)
	c.Load(context.Background())

	if err := c.Delete(context.Background(), "s1"); err != nil {
		t.Fatalf("Delete() returned an unexpected error: %v", err)
	}
	v := c.View()
	if len(v.Sets) != 1 || v.Sets[0].ID != "s2" {
		t.Errorf("Expected only s2 to remain, got %+v", v.Sets)
	}
	if _, ok := ch.Get("s1"); ok {
		t.Error("Expected delete to invalidate the cache")
	}
}

func TestCatalogDeleteFailureKeepsList(t *testing.T) {
	backend := newFakeBackend()
	backend.delErr = errors.New("boom")
	c := NewCatalog(backend, nil)
	c.Load(context.Background())

	if err := c.Delete(context.Background(), "s1"); err == nil {
		t.Fatal("Expected Delete to fail")
	}
	v := c.View()
	if len(v.Sets) != 2 || v.Notice != "Failed to delete the flashcard set" || v.Deleting != "" {
		t.Errorf("Unexpected view after failed delete %+v", v)
	}
}

func TestCatalogOneDeleteAtATime(t *testing.T) {
	backend := newFakeBackend()
	backend.block = make(chan struct{})
	c := NewCatalog(backend, nil)
	c.Load(context.Background())

	done := make(chan error)
	go func() { done <- c.Delete(context.Background(), "s1") }()

	deadline := time.Now().Add(time.Second)
	for c.View().Deleting == "" && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := c.Delete(context.Background(), "s2"); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy for a second delete, got %v", err)
	}
	close(backend.block)
	if err := <-done; err != nil {
		t.Errorf("Expected first delete to succeed, got %v", err)
	}
}

func TestStudyLoadUsesCache(t *testing.T) {
	backend := newFakeBackend()
	ch := cache.New(nil)

	first := NewStudy("s1", backend, WithCache(ch))
	if err := first.Load(context.Background()); err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	second := NewStudy("s1", backend, WithCache(ch))
	second.Load(context.Background())

	if backend.getCalls != 1 {
		t.Errorf("Expected one backend fetch, got %d", backend.getCalls)
	}
	if set, ok := second.Set(); !ok || set.Title != "Capitals" {
		t.Errorf("Expected cached set, got %+v", set)
	}
}

func TestStudyNotFound(t *testing.T) {
	s := NewStudy("missing", newFakeBackend(), WithRedirectDelay(2*time.Second))
	err := s.Load(context.Background())
	if !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	v := s.Snapshot()
	if v.State != NotFound || v.RedirectAfter != 2*time.Second {
		t.Errorf("Expected not-found with a redirect, got %+v", v)
	}
}

func TestStudyFallsBackToStoredCopy(t *testing.T) {
	backend := newFakeBackend()
	db := openDB(t)
	cache.New(db).Put(backend.sets["s1"])

	backend.getErr = errors.New("connection refused")
	s := NewStudy("s1", backend, WithCache(cache.New(db)))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Expected stored copy to be served, got %v", err)
	}
	v := s.Snapshot()
	if v.State != Loaded || !v.Stale || v.Error == "" {
		t.Errorf("Expected a stale loaded set with a notice, got %+v", v)
	}
}

func TestStudyLoadFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.getErr = errors.New("connection refused")
	s := NewStudy("s1", backend)

	if err := s.Load(context.Background()); err == nil {
		t.Fatal("Expected Load to fail")
	}
	if v := s.Snapshot(); v.State != Failed || v.Error != "Failed to load flashcard set" {
		t.Errorf("Unexpected view %+v", v)
	}
}

func TestStudySaveCardMergesAndRefreshesCache(t *testing.T) {
	backend := newFakeBackend()
	ch := cache.New(nil)
	s := NewStudy("s1", backend, WithCache(ch))
	s.Load(context.Background())

	card, _ := backend.sets["s1"].Card("2")
	card.Answer = "Roma"
	if err := s.SaveCard(context.Background(), card); err != nil {
		t.Fatalf("SaveCard() returned an unexpected error: %v", err)
	}

	set, _ := s.Set()
	if got, _ := set.Card("2"); got.Answer != "Roma" {
		t.Errorf("Expected merged answer 'Roma', got '%s'", got.Answer)
	}
	cached, _ := ch.Get("s1")
	if got, _ := cached.Card("2"); got.Answer != "Roma" {
		t.Errorf("Expected cache to hold the saved card, got '%s'", got.Answer)
	}
}

func TestStudySaveFailureLeavesSetUntouched(t *testing.T) {
	backend := newFakeBackend()
	s := NewStudy("s1", backend)
	s.Load(context.Background())
	backend.saveErr = api.ErrNotSaved

	card, _ := backend.sets["s1"].Card("1")
	card.Answer = "Lyon"
	if err := s.SaveCard(context.Background(), card); !errors.Is(err, api.ErrNotSaved) {
		t.Fatalf("Expected ErrNotSaved, got %v", err)
	}
	set, _ := s.Set()
	if got, _ := set.Card("1"); got.Answer != "Paris" {
		t.Errorf("Expected local card unchanged, got '%s'", got.Answer)
	}
}

func TestRecordQuiz(t *testing.T) {
	db := openDB(t)
	s := NewStudy("s1", newFakeBackend(), WithHistory(db))
	results := []domain.QuizResult{
		{CardID: "1", Correct: true, TimeSpent: 3},
		{CardID: "2", Correct: false, TimeSpent: 5},
	}

	if err := s.RecordQuiz(quiz.FillIn, results); err != nil {
		t.Fatalf("RecordQuiz() returned an unexpected error: %v", err)
	}
	sessions, _ := db.GetQuizSessions("s1")
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 recorded session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.Mode != "fill-in" || got.Correct != 1 || got.Total != 2 || got.TotalSeconds != 8 {
		t.Errorf("Unexpected session %+v", got)
	}
}

func TestExport(t *testing.T) {
	s := NewStudy("s1", newFakeBackend())
	if _, _, err := s.Export(); err == nil {
		t.Error("Expected export to fail before the set is loaded")
	}
	s.Load(context.Background())

	name, data, err := s.Export()
	if err != nil {
		t.Fatalf("Export() returned an unexpected error: %v", err)
	}
	if name != "Capitals-flashcards.json" {
		t.Errorf("Unexpected filename '%s'", name)
	}
	var decoded domain.FlashcardSet
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if decoded.ID != "s1" || len(decoded.Flashcards) != 2 {
		t.Errorf("Unexpected exported set %+v", decoded)
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename("a/b"); got != "a_b-flashcards.json" {
		t.Errorf("Expected path separators to be replaced, got '%s'", got)
	}
}
