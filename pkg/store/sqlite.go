package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps one row per program line.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS program_lines (
		world_id TEXT NOT NULL,
		idx      INTEGER NOT NULL,
		line     TEXT NOT NULL,
		PRIMARY KEY (world_id, idx)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Lines(ctx context.Context, worldID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT line FROM program_lines WHERE world_id = ? ORDER BY idx`, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to query program %s: %w", worldID, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// SetLines replaces the program inside one transaction.
func (s *SQLiteStore) SetLines(ctx context.Context, worldID string, lines []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM program_lines WHERE world_id = ?`, worldID); err != nil {
		return fmt.Errorf("failed to clear program %s: %w", worldID, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO program_lines (world_id, idx, line) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, line := range lines {
		if _, err := stmt.ExecContext(ctx, worldID, i, line); err != nil {
			return fmt.Errorf("failed to insert line %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit program %s: %w", worldID, err)
	}
	return nil
}

// Save is a no-op: SetLines commits.
func (s *SQLiteStore) Save(_ context.Context) error {
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
