package quiz

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func cardsWithAnswers(answers ...string) []domain.Flashcard {
	cards := make([]domain.Flashcard, len(answers))
	for i, a := range answers {
		cards[i] = domain.Flashcard{ID: fmt.Sprint(i + 1), Answer: a}
	}
	return cards
}

func countOf(options []string, s string) int {
	n := 0
	for _, o := range options {
		if o == s {
			n++
		}
	}
	return n
}

func TestGenerateOptions(t *testing.T) {
	testCases := []struct {
		name     string
		answers  []string
		correct  string
		expected int
	}{
		{name: "large pool", answers: []string{"a", "b", "c", "d", "e", "f"}, correct: "a", expected: 4},
		{name: "exactly four", answers: []string{"a", "b", "c", "d"}, correct: "b", expected: 4},
		{name: "small set", answers: []string{"a", "b"}, correct: "a", expected: 2},
		{name: "single card", answers: []string{"a"}, correct: "a", expected: 1},
		{name: "duplicate answers", answers: []string{"a", "a", "b", "b", "c"}, correct: "a", expected: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for seed := uint64(0); seed < 20; seed++ {
				rng := rand.New(rand.NewPCG(seed, seed))
				options := GenerateOptions(tc.correct, cardsWithAnswers(tc.answers...), rng)

				if len(options) != tc.expected {
					t.Fatalf("Expected %d options, got %v", tc.expected, options)
				}
				if countOf(options, tc.correct) != 1 {
					t.Fatalf("Expected correct answer exactly once, got %v", options)
				}
				seen := map[string]bool{}
				for _, o := range options {
					if seen[o] {
						t.Fatalf("Expected distinct options, got %v", options)
					}
					seen[o] = true
				}
			}
		})
	}
}

func TestGenerateOptionsIsDeterministicPerSeed(t *testing.T) {
	cards := cardsWithAnswers("a", "b", "c", "d", "e")
	first := GenerateOptions("a", cards, rand.New(rand.NewPCG(7, 7)))
	second := GenerateOptions("a", cards, rand.New(rand.NewPCG(7, 7)))

	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Errorf("Expected same options for the same seed, got %v and %v", first, second)
	}
}

func TestGenerateOptionsMovesCorrectAnswer(t *testing.T) {
	cards := cardsWithAnswers("a", "b", "c", "d")
	positions := map[int]bool{}
	for seed := uint64(0); seed < 50; seed++ {
		options := GenerateOptions("a", cards, rand.New(rand.NewPCG(seed, 1)))
		for i, o := range options {
			if o == "a" {
				positions[i] = true
			}
		}
	}
	if len(positions) < 2 {
		t.Errorf("Expected the correct answer to appear in several positions, got %v", positions)
	}
}
