package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveSet replaces the cached copy of a set and all of its cards.
func (db *DB) SaveSet(set domain.FlashcardSet, contentHash string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for set %s: %w", set.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards WHERE set_id = ?`, set.ID); err != nil {
		return fmt.Errorf("failed to clear cards for set %s: %w", set.ID, err)
	}
	_, err = tx.Exec(`
		INSERT INTO sets (id, title, source, content_hash, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			content_hash = excluded.content_hash,
			cached_at = excluded.cached_at
	`, set.ID, set.Title, set.Source, contentHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert set %s: %w", set.ID, err)
	}

	for i, card := range set.Flashcards {
		tags, err := json.Marshal(nonNilTags(card.Tags))
		if err != nil {
			return fmt.Errorf("failed to encode tags for card %s: %w", card.ID, err)
		}
		_, err = tx.Exec(`
			INSERT INTO cards (set_id, id, position, question, answer, tags, difficulty, last_reviewed, next_review)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			set.ID,
			card.ID,
			i,
			card.Question,
			card.Answer,
			string(tags),
			card.Difficulty,
			card.LastReviewed,
			card.NextReview,
		)
		if err != nil {
			return fmt.Errorf("failed to insert card %s of set %s: %w", card.ID, set.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit set %s: %w", set.ID, err)
	}
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// FindSet loads a cached set and its content hash. It returns nil when the
// set is not cached.
func (db *DB) FindSet(id string) (*domain.FlashcardSet, string, error) {
	var set domain.FlashcardSet
	var source sql.NullString
	var hash string
	row := db.conn.QueryRow(`
		SELECT id, title, source, content_hash
		FROM sets WHERE id = ?
	`, id)
	if err := row.Scan(&set.ID, &set.Title, &source, &hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", nil // Set not cached
		}
		return nil, "", fmt.Errorf("failed to find set %s: %w", id, err)
	}
	set.Source = source.String

	rows, err := db.conn.Query(`
		SELECT id, question, answer, tags, difficulty, last_reviewed, next_review
		FROM cards WHERE set_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get cards for set %s: %w", id, err)
	}
	defer rows.Close()

	set.Flashcards = []domain.Flashcard{}
	for rows.Next() {
		var c domain.Flashcard
		var tags string
		var lastReviewed, nextReview sql.NullTime
		if err := rows.Scan(&c.ID, &c.Question, &c.Answer, &tags, &c.Difficulty, &lastReviewed, &nextReview); err != nil {
			return nil, "", fmt.Errorf("failed to scan card row for set %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			return nil, "", fmt.Errorf("failed to decode tags for card %s: %w", c.ID, err)
		}
		if lastReviewed.Valid {
			t := lastReviewed.Time
			c.LastReviewed = &t
		}
		if nextReview.Valid {
			t := nextReview.Time
			c.NextReview = &t
		}
		set.Flashcards = append(set.Flashcards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to read cards for set %s: %w", id, err)
	}
	return &set, hash, nil
}

// SetHash returns the content hash of a cached set, or "" if it is not cached.
func (db *DB) SetHash(id string) (string, error) {
	var hash string
	err := db.conn.QueryRow(`SELECT content_hash FROM sets WHERE id = ?`, id).Scan(&hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get hash for set %s: %w", id, err)
	}
	return hash, nil
}

// DeleteSet removes a cached set and its cards.
func (db *DB) DeleteSet(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for set %s: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards WHERE set_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cards for set %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM sets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete set %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of set %s: %w", id, err)
	}
	return nil
}
