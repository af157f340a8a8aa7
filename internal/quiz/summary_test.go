package quiz

import (
	"testing"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func TestFormatTime(t *testing.T) {
	testCases := []struct {
		seconds  int
		expected string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{125, "2:05"},
		{600, "10:00"},
	}

	for _, tc := range testCases {
		if got := FormatTime(tc.seconds); got != tc.expected {
			t.Errorf("FormatTime(%d) = '%s', expected '%s'", tc.seconds, got, tc.expected)
		}
	}
}

func TestSummarize(t *testing.T) {
	results := []domain.QuizResult{
		{CardID: "1", Correct: true, TimeSpent: 30},
		{CardID: "2", Correct: true, TimeSpent: 40},
		{CardID: "3", Correct: false, TimeSpent: 25},
		{CardID: "4", Correct: true, TimeSpent: 30},
	}
	s := Summarize(results)

	if s.AccuracyString() != "75.0%" {
		t.Errorf("Expected accuracy '75.0%%', got '%s'", s.AccuracyString())
	}
	if s.TotalTime() != "2:05" {
		t.Errorf("Expected total time '2:05', got '%s'", s.TotalTime())
	}
	if s.Correct != 3 || s.Total != 4 {
		t.Errorf("Expected 3 of 4 correct, got %d of %d", s.Correct, s.Total)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil).AccuracyString(); got != "0.0%" {
		t.Errorf("Expected '0.0%%' for no results, got '%s'", got)
	}
}
