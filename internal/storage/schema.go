package storage

const schema = `
-- The 'sets' table caches flashcard sets fetched from the backend.
CREATE TABLE IF NOT EXISTS sets (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    source TEXT,
    content_hash TEXT NOT NULL,
    cached_at DATETIME NOT NULL
);

-- The 'cards' table holds the cards of each cached set, in set order.
CREATE TABLE IF NOT EXISTS cards (
    set_id TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    tags TEXT NOT NULL DEFAULT '[]', -- JSON array
    difficulty INTEGER NOT NULL,
    last_reviewed DATETIME,
    next_review DATETIME,

    PRIMARY KEY (set_id, id),
    FOREIGN KEY(set_id) REFERENCES sets(id)
);

-- The 'quiz_sessions' table records each completed quiz.
CREATE TABLE IF NOT EXISTS quiz_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    set_id TEXT NOT NULL,
    mode TEXT NOT NULL,
    finished_at DATETIME NOT NULL,
    correct INTEGER NOT NULL,
    total INTEGER NOT NULL,
    total_seconds INTEGER NOT NULL
);

-- The 'quiz_results' table is the per-question log of a session.
CREATE TABLE IF NOT EXISTS quiz_results (
    session_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    card_id TEXT NOT NULL,
    correct INTEGER NOT NULL,
    time_spent INTEGER NOT NULL,

    PRIMARY KEY (session_id, position),
    FOREIGN KEY(session_id) REFERENCES quiz_sessions(id)
);
`
