package storage

import (
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() returned an unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSet() domain.FlashcardSet {
	reviewed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.FlashcardSet{
		ID:     "set-1",
		Title:  "Capitals",
		Source: "capitals.pdf",
		Flashcards: []domain.Flashcard{
			{ID: "b", Question: "France?", Answer: "Paris", Tags: []string{"geo", "eu"}, Difficulty: 2, LastReviewed: &reviewed},
			{ID: "a", Question: "Italy?", Answer: "Rome", Difficulty: 3},
		},
	}
}

func TestSaveAndFindSet(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveSet(sampleSet(), "h1"); err != nil {
		t.Fatalf("SaveSet() returned an unexpected error: %v", err)
	}
	set, hash, err := db.FindSet("set-1")
	if err != nil {
		t.Fatalf("FindSet() returned an unexpected error: %v", err)
	}
	if set == nil {
		t.Fatal("Expected set to be cached")
	}
	if hash != "h1" {
		t.Errorf("Expected hash 'h1', got '%s'", hash)
	}
	if set.Title != "Capitals" || set.Source != "capitals.pdf" {
		t.Errorf("Unexpected set %+v", set)
	}
	if len(set.Flashcards) != 2 || set.Flashcards[0].ID != "b" || set.Flashcards[1].ID != "a" {
		t.Fatalf("Expected card order to be kept, got %+v", set.Flashcards)
	}
	first := set.Flashcards[0]
	if !slices.Equal(first.Tags, []string{"geo", "eu"}) {
		t.Errorf("Unexpected tags %v", first.Tags)
	}
	if first.LastReviewed == nil || !first.LastReviewed.Equal(*sampleSet().Flashcards[0].LastReviewed) {
		t.Errorf("Expected last reviewed to round-trip, got %v", first.LastReviewed)
	}
	if set.Flashcards[1].LastReviewed != nil || set.Flashcards[1].Tags == nil {
		t.Errorf("Unexpected second card %+v", set.Flashcards[1])
	}
}

func TestSaveSetReplacesCards(t *testing.T) {
	db := openTestDB(t)
	set := sampleSet()
	db.SaveSet(set, "h1")

	set.Flashcards = set.Flashcards[:1]
	set.Title = "Renamed"
	if err := db.SaveSet(set, "h2"); err != nil {
		t.Fatalf("SaveSet() returned an unexpected error: %v", err)
	}

	got, hash, _ := db.FindSet("set-1")
	if len(got.Flashcards) != 1 || got.Title != "Renamed" || hash != "h2" {
		t.Errorf("Expected the cached copy to be replaced, got %+v hash=%s", got, hash)
	}
}

func TestFindMissingSet(t *testing.T) {
	db := openTestDB(t)
	set, _, err := db.FindSet("nope")
	if err != nil || set != nil {
		t.Errorf("Expected nil, nil for a missing set, got %v, %v", set, err)
	}
	hash, err := db.SetHash("nope")
	if err != nil || hash != "" {
		t.Errorf("Expected empty hash, got '%s', %v", hash, err)
	}
}

func TestDeleteSet(t *testing.T) {
	db := openTestDB(t)
	db.SaveSet(sampleSet(), "h1")

	if err := db.DeleteSet("set-1"); err != nil {
		t.Fatalf("DeleteSet() returned an unexpected error: %v", err)
	}
	if set, _, _ := db.FindSet("set-1"); set != nil {
		t.Error("Expected set to be gone after delete")
	}
}

func TestQuizHistory(t *testing.T) {
	db := openTestDB(t)
	older := QuizSession{
		SetID:      "set-1",
		Mode:       "fill-in",
		FinishedAt: time.Now().Add(-time.Hour),
		Correct:    1,
		Total:      2,
		Results: []domain.QuizResult{
			{CardID: "1", Correct: true, TimeSpent: 4},
			{CardID: "2", Correct: false, TimeSpent: 9},
		},
	}
	newer := QuizSession{SetID: "set-1", Mode: "multiple-choice", FinishedAt: time.Now(), Correct: 2, Total: 2}
	other := QuizSession{SetID: "set-2", Mode: "fill-in", FinishedAt: time.Now()}

	olderID, err := db.InsertQuizSession(older)
	if err != nil {
		t.Fatalf("InsertQuizSession() returned an unexpected error: %v", err)
	}
	db.InsertQuizSession(newer)
	db.InsertQuizSession(other)

	sessions, err := db.GetQuizSessions("set-1")
	if err != nil {
		t.Fatalf("GetQuizSessions() returned an unexpected error: %v", err)
	}
	if len(sessions) != 2 || sessions[0].Mode != "multiple-choice" {
		t.Fatalf("Expected 2 sessions newest first, got %+v", sessions)
	}
	all, _ := db.GetQuizSessions("")
	if len(all) != 3 {
		t.Errorf("Expected 3 sessions across sets, got %d", len(all))
	}

	results, err := db.GetQuizResults(olderID)
	if err != nil {
		t.Fatalf("GetQuizResults() returned an unexpected error: %v", err)
	}
	if !slices.Equal(results, older.Results) {
		t.Errorf("Expected results %+v, got %+v", older.Results, results)
	}
}
