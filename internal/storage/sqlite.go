// internal/storage/sqlite.go
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"nutrition-meter/internal/models"
)

// MemoryDSN keeps the journal inside the process; it is gone on restart.
const MemoryDSN = "file::memory:"

// SQLiteStorage is the action journal: every action dispatched to a
// session, in dispatch order.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// each connection to an in-memory database gets its own copy
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS actions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        action TEXT NOT NULL,
        arguments TEXT NOT NULL,
        accepted INTEGER NOT NULL,
        created_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_actions_session_id ON actions(session_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// RecordAction appends entry to the journal and sets its ID.
func (s *SQLiteStorage) RecordAction(entry *models.ActionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO actions (session_id, action, arguments, accepted, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	res, err := s.db.Exec(query,
		entry.SessionID, entry.Action, entry.Arguments,
		entry.Accepted, entry.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read action id: %w", err)
	}
	entry.ID = id
	return nil
}

// GetActions returns the most recent limit actions of a session, oldest first.
func (s *SQLiteStorage) GetActions(sessionID string, limit int) ([]*models.ActionEntry, error) {
	query := `
        SELECT id, session_id, action, arguments, accepted, created_at
        FROM (
            SELECT * FROM actions
            WHERE session_id = ?
            ORDER BY id DESC
            LIMIT ?
        )
        ORDER BY id ASC
    `

	rows, err := s.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.ActionEntry
	for rows.Next() {
		entry := &models.ActionEntry{}
		var createdAtStr string

		err := rows.Scan(
			&entry.ID, &entry.SessionID, &entry.Action, &entry.Arguments,
			&entry.Accepted, &createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}

		if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		actions = append(actions, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate actions: %w", err)
	}

	return actions, nil
}
