package quiz

import (
	"fmt"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Summary aggregates a finished session's result log.
type Summary struct {
	Correct      int
	Total        int
	TotalSeconds int
}

func Summarize(results []domain.QuizResult) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		if r.Correct {
			s.Correct++
		}
		s.TotalSeconds += r.TimeSpent
	}
	return s
}

// Accuracy is the percentage of correct results, 0 for an empty log.
func (s Summary) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total) * 100
}

// AccuracyString formats accuracy with one decimal, e.g. "75.0%".
func (s Summary) AccuracyString() string {
	return fmt.Sprintf("%.1f%%", s.Accuracy())
}

func (s Summary) TotalTime() string {
	return FormatTime(s.TotalSeconds)
}

// FormatTime renders seconds as M:SS.
func FormatTime(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
