package storage

import (
	"fmt"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// QuizSession is one completed quiz and its per-question log.
type QuizSession struct {
	ID           int64
	SetID        string
	Mode         string
	FinishedAt   time.Time
	Correct      int
	Total        int
	TotalSeconds int
	Results      []domain.QuizResult
}

// InsertQuizSession stores a completed session and returns its ID.
func (db *DB) InsertQuizSession(s QuizSession) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for quiz on set %s: %w", s.SetID, err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO quiz_sessions (set_id, mode, finished_at, correct, total, total_seconds)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.SetID, s.Mode, s.FinishedAt, s.Correct, s.Total, s.TotalSeconds)
	if err != nil {
		return 0, fmt.Errorf("failed to insert quiz session for set %s: %w", s.SetID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for quiz session: %w", err)
	}

	for i, r := range s.Results {
		_, err := tx.Exec(`
			INSERT INTO quiz_results (session_id, position, card_id, correct, time_spent)
			VALUES (?, ?, ?, ?, ?)
		`, id, i, r.CardID, r.Correct, r.TimeSpent)
		if err != nil {
			return 0, fmt.Errorf("failed to insert result %d of quiz session %d: %w", i, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit quiz session: %w", err)
	}
	return id, nil
}

// GetQuizSessions lists sessions for a set, newest first. An empty setID lists all sets.
func (db *DB) GetQuizSessions(setID string) ([]QuizSession, error) {
	rows, err := db.conn.Query(`
		SELECT id, set_id, mode, finished_at, correct, total, total_seconds
		FROM quiz_sessions
		WHERE ? = '' OR set_id = ?
		ORDER BY finished_at DESC, id DESC
	`, setID, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz sessions for set %q: %w", setID, err)
	}
	defer rows.Close()

	var sessions []QuizSession
	for rows.Next() {
		var s QuizSession
		if err := rows.Scan(&s.ID, &s.SetID, &s.Mode, &s.FinishedAt, &s.Correct, &s.Total, &s.TotalSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan quiz session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetQuizResults returns the per-question log of a session in answer order.
func (db *DB) GetQuizResults(sessionID int64) ([]domain.QuizResult, error) {
	rows, err := db.conn.Query(`
		SELECT card_id, correct, time_spent
		FROM quiz_results WHERE session_id = ?
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results for quiz session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var results []domain.QuizResult
	for rows.Next() {
		var r domain.QuizResult
		if err := rows.Scan(&r.CardID, &r.Correct, &r.TimeSpent); err != nil {
			return nil, fmt.Errorf("failed to scan result row for quiz session %d: %w", sessionID, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
