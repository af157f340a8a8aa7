package domain

import "time"

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Flashcard is a single question and answer entry owned by a FlashcardSet.
type Flashcard struct {
	ID           string     `json:"id"`
	Question     string     `json:"question" validate:"required"`
	Answer       string     `json:"answer" validate:"required"`
	Tags         []string   `json:"tags"`
	Difficulty   int        `json:"difficulty" validate:"min=1,max=5"`
	LastReviewed *time.Time `json:"lastReviewed"`
	NextReview   *time.Time `json:"nextReview"`
}

// Clone returns a deep copy of the card so edits never alias the caller's tags.
func (c Flashcard) Clone() Flashcard {
	out := c
	out.Tags = append([]string(nil), c.Tags...)
	if c.LastReviewed != nil {
		t := *c.LastReviewed
		out.LastReviewed = &t
	}
	if c.NextReview != nil {
		t := *c.NextReview
		out.NextReview = &t
	}
	return out
}

// FlashcardSet is a named, ordered collection of flashcards.
// Card order drives review and quiz sequencing.
type FlashcardSet struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Source     string      `json:"source"`
	Flashcards []Flashcard `json:"flashcards"`
}

// Card returns the card with the given id.
func (s FlashcardSet) Card(id string) (Flashcard, bool) {
	for _, c := range s.Flashcards {
		if c.ID == id {
			return c, true
		}
	}
	return Flashcard{}, false
}

// ReplaceCard swaps in the card with a matching id and reports whether one was found.
func (s *FlashcardSet) ReplaceCard(card Flashcard) bool {
	for i := range s.Flashcards {
		if s.Flashcards[i].ID == card.ID {
			s.Flashcards[i] = card
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the set.
func (s FlashcardSet) Clone() FlashcardSet {
	out := s
	out.Flashcards = make([]Flashcard, len(s.Flashcards))
	for i, c := range s.Flashcards {
		out.Flashcards[i] = c.Clone()
	}
	return out
}

// SetSummary is the listing entry for a set.
type SetSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

// QuizResult records the outcome of one answered quiz question.
type QuizResult struct {
	CardID    string `json:"cardId"`
	Correct   bool   `json:"correct"`
	TimeSpent int    `json:"timeSpent"` // seconds
}

var difficultyLabels = map[int]string{
	1: "Very Easy",
	2: "Easy",
	3: "Medium",
	4: "Hard",
	5: "Very Hard",
}

// DifficultyLabel maps a difficulty to its display label.
func DifficultyLabel(difficulty int) string {
	if label, ok := difficultyLabels[difficulty]; ok {
		return label
	}
	return "Unknown"
}
