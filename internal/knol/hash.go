package knol

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Normalize renders a card's content as one string, one field per line.
// Line endings are normalized so a card edited on another platform keeps its hash.
func Normalize(card domain.Flashcard) string {
	normalizePart := func(part string) string {
		return strings.ReplaceAll(part, "\r\n", "\n")
	}

	parts := []string{
		card.ID,
		normalizePart(card.Question),
		normalizePart(card.Answer),
		strings.Join(card.Tags, "\x1f"),
		strconv.Itoa(card.Difficulty),
		formatTime(card.LastReviewed),
		formatTime(card.NextReview),
	}
	// Separator bytes keep adjacent fields from running together.
	return strings.Join(parts, "\x1e")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Hash returns the SHA-256 of a whole set's content as a hex string. Two sets
// hash the same when id, title, source and the normalized fields of every
// card, in order, match.
func Hash(set domain.FlashcardSet) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x1e%s\x1e%s\n", set.ID, set.Title, set.Source)
	for _, card := range set.Flashcards {
		h.Write([]byte(Normalize(card)))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
