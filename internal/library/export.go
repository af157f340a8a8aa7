package library

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// ExportFilename names the export file for a set title. Path separators are
// replaced so the name is always a single file.
func ExportFilename(title string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(title)
	return safe + "-flashcards.json"
}

// ExportJSON encodes the full set with two-space indentation.
func ExportJSON(set domain.FlashcardSet) ([]byte, error) {
	if set.Flashcards == nil {
		set.Flashcards = []domain.Flashcard{}
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode set %s: %w", set.ID, err)
	}
	return data, nil
}
