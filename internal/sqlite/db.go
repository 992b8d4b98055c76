package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations applies the schema directly (for testing). Production
// uses the embedded migrations package.
func (db *DB) RunMigrations() error {
	migration := `
-- Archive of completed, scored encounters. Live sessions stay in
-- memory; a row is written once, when feedback is first computed.
CREATE TABLE IF NOT EXISTS encounters (
    id TEXT PRIMARY KEY,
    case_id TEXT NOT NULL,
    level INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP NOT NULL,
    turns INTEGER NOT NULL,
    submitted_diagnosis TEXT,
    summary_score INTEGER NOT NULL,
    transcript TEXT NOT NULL,
    actions TEXT NOT NULL,
    feedback TEXT NOT NULL,
    archived_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_encounters_case ON encounters(case_id);
CREATE INDEX IF NOT EXISTS idx_encounters_archived ON encounters(archived_at);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
