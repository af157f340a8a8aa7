package viewer

import (
	"fmt"
	"testing"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func makeCards(n int) []domain.Flashcard {
	cards := make([]domain.Flashcard, n)
	for i := range cards {
		cards[i] = domain.Flashcard{
			ID:       fmt.Sprint(i + 1),
			Question: fmt.Sprintf("Q%d", i+1),
			Answer:   fmt.Sprintf("A%d", i+1),
		}
	}
	return cards
}

func TestAdvanceVisitsEveryCardOnce(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d cards", n), func(t *testing.T) {
			v := New(makeCards(n), nil)
			var visited []int
			for v.State() == Browsing {
				visited = append(visited, v.Index())
				v.Advance()
			}

			if len(visited) != n {
				t.Fatalf("Expected %d visits before completion, got %d", n, len(visited))
			}
			for i, idx := range visited {
				if idx != i {
					t.Errorf("Expected visit %d to be index %d, got %d", i, i, idx)
				}
			}
			if v.Index() != n-1 {
				t.Errorf("Expected index to stay at %d after completion, got %d", n-1, v.Index())
			}
		})
	}
}

func TestAdvanceAtLastCard(t *testing.T) {
	v := New(makeCards(2), nil)
	v.Advance()
	v.ToggleAnswer()
	v.Advance()

	if v.State() != Completed {
		t.Fatalf("Expected completed state, got %s", v.State())
	}
	if v.Index() != 1 {
		t.Errorf("Expected index 1, got %d", v.Index())
	}
	v.Advance()
	if v.Index() != 1 {
		t.Errorf("Expected index to remain 1, got %d", v.Index())
	}
}

func TestRetreat(t *testing.T) {
	v := New(makeCards(3), nil)
	v.Retreat()
	if v.Index() != 0 {
		t.Fatalf("Expected retreat at index 0 to stay at 0, got %d", v.Index())
	}

	v.Advance()
	v.Advance()
	v.ToggleAnswer()
	v.Retreat()
	if v.Index() != 1 {
		t.Errorf("Expected index 1, got %d", v.Index())
	}
	if v.AnswerVisible() {
		t.Error("Expected answer to be hidden after retreat")
	}
}

func TestToggleAndRestart(t *testing.T) {
	v := New(makeCards(2), nil)
	v.ToggleAnswer()
	if !v.AnswerVisible() {
		t.Fatal("Expected answer to be visible")
	}
	v.Advance()
	if v.AnswerVisible() {
		t.Error("Expected answer to be hidden after advance")
	}
	v.Advance()
	v.Restart()

	if v.State() != Browsing || v.Index() != 0 || v.AnswerVisible() {
		t.Errorf("Expected fresh state after restart, got state=%s index=%d visible=%v", v.State(), v.Index(), v.AnswerVisible())
	}
	if v.Progress() != "Card 1 of 2" {
		t.Errorf("Expected progress 'Card 1 of 2', got '%s'", v.Progress())
	}
}

func TestEmptyViewer(t *testing.T) {
	v := New(nil, nil)
	v.Advance()
	v.Retreat()
	v.ToggleAnswer()

	if v.State() != Empty {
		t.Errorf("Expected empty state, got %s", v.State())
	}
	if _, ok := v.Current(); ok {
		t.Error("Expected no current card")
	}
	if v.Edit() {
		t.Error("Expected Edit to be a no-op")
	}
}

func TestEditAndUpdateCard(t *testing.T) {
	var edited domain.Flashcard
	v := New(makeCards(2), func(c domain.Flashcard) { edited = c })
	v.Advance()

	if !v.Edit() {
		t.Fatal("Expected Edit to invoke the callback")
	}
	if edited.ID != "2" {
		t.Errorf("Expected card 2 to be edited, got '%s'", edited.ID)
	}

	edited.Question = "changed"
	if !v.UpdateCard(edited) {
		t.Fatal("Expected UpdateCard to find card 2")
	}
	current, _ := v.Current()
	if current.Question != "changed" {
		t.Errorf("Expected updated question, got '%s'", current.Question)
	}
	if v.Index() != 1 {
		t.Errorf("Expected cursor to stay on index 1, got %d", v.Index())
	}
}
