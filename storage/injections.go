package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Injection is one shortcut replacement performed in the focused application
type Injection struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Shortcut     string    `json:"shortcut"`
	Glyph        string    `json:"glyph"`
	EraseCount   int       `json:"eraseCount"`
	LatencyMs    int64     `json:"latencyMs"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// SaveInjection saves an injection to the database
func (db *DB) SaveInjection(in *Injection) error {
	query := `
		INSERT INTO injections (
			shortcut, glyph, erase_count, latency_ms, success, error_message
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	var errorMessage sql.NullString
	if in.ErrorMessage != "" {
		errorMessage = sql.NullString{String: in.ErrorMessage, Valid: true}
	}

	result, err := db.conn.Exec(query,
		in.Shortcut, in.Glyph, in.EraseCount, in.LatencyMs, in.Success, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save injection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	in.ID = id
	return nil
}

// GetInjections retrieves injections with pagination, newest first
func (db *DB) GetInjections(limit, offset int) ([]Injection, error) {
	query := `
		SELECT
			id, timestamp, shortcut, glyph, erase_count, latency_ms, success, error_message
		FROM injections
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query injections: %w", err)
	}
	defer rows.Close()

	var injections []Injection
	for rows.Next() {
		var in Injection
		var errorMessage sql.NullString

		err := rows.Scan(
			&in.ID, &in.Timestamp, &in.Shortcut, &in.Glyph, &in.EraseCount,
			&in.LatencyMs, &in.Success, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan injection: %w", err)
		}

		if errorMessage.Valid {
			in.ErrorMessage = errorMessage.String
		}

		injections = append(injections, in)
	}

	return injections, rows.Err()
}

// DeleteInjection deletes an injection by ID
func (db *DB) DeleteInjection(id int64) error {
	query := `DELETE FROM injections WHERE id = ?`

	result, err := db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete injection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetInjectionCount returns the total number of injections
func (db *DB) GetInjectionCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM injections").Scan(&count)
	return count, err
}
