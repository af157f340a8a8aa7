package quiz

import (
	"math/rand/v2"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// MaxWrongAnswers caps the distractors offered next to the correct answer.
const MaxWrongAnswers = 3

// GenerateOptions builds the multiple-choice options for correct: the correct
// answer plus up to MaxWrongAnswers distinct answers taken from the other cards,
// in a uniformly random order.
func GenerateOptions(correct string, cards []domain.Flashcard, rng *rand.Rand) []string {
	seen := map[string]bool{correct: true}
	var wrong []string
	for _, c := range cards {
		if seen[c.Answer] {
			continue
		}
		seen[c.Answer] = true
		wrong = append(wrong, c.Answer)
	}

	rng.Shuffle(len(wrong), func(i, j int) {
		wrong[i], wrong[j] = wrong[j], wrong[i]
	})
	if len(wrong) > MaxWrongAnswers {
		wrong = wrong[:MaxWrongAnswers]
	}

	options := append([]string{correct}, wrong...)
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
