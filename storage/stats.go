package storage

import (
	"fmt"
)

// DailyStats represents statistics for a single day
type DailyStats struct {
	Date            string `json:"date"`
	TotalInjections int    `json:"totalInjections"`
	SuccessCount    int    `json:"successCount"`
	FailureCount    int    `json:"failureCount"`
}

// ShortcutStats counts how often a shortcut was used
type ShortcutStats struct {
	Shortcut string `json:"shortcut"`
	Glyph    string `json:"glyph"`
	Uses     int    `json:"uses"`
}

// OverallStats represents overall statistics
type OverallStats struct {
	TotalInjections   int     `json:"totalInjections"`
	SuccessCount      int     `json:"successCount"`
	FailureCount      int     `json:"failureCount"`
	DistinctShortcuts int     `json:"distinctShortcuts"`
	CharactersErased  int64   `json:"charactersErased"`
	AvgLatencyMs      float64 `json:"avgLatencyMs"`
}

// GetDailyStats retrieves statistics grouped by date for the last N days
func (db *DB) GetDailyStats(days int) ([]DailyStats, error) {
	query := `
		SELECT
			DATE(timestamp) as date,
			COUNT(*) as total_injections,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as failure_count
		FROM injections
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY DATE(timestamp)
		ORDER BY date DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStats
	for rows.Next() {
		var s DailyStats
		err := rows.Scan(&s.Date, &s.TotalInjections, &s.SuccessCount, &s.FailureCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetTopShortcuts returns the most used successful shortcuts for the last N days
func (db *DB) GetTopShortcuts(days, limit int) ([]ShortcutStats, error) {
	query := `
		SELECT
			shortcut,
			MIN(glyph) as glyph,
			COUNT(*) as uses
		FROM injections
		WHERE success = 1 AND timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY shortcut
		ORDER BY uses DESC, shortcut ASC
		LIMIT ?
	`

	rows, err := db.conn.Query(query, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query shortcut stats: %w", err)
	}
	defer rows.Close()

	var stats []ShortcutStats
	for rows.Next() {
		var s ShortcutStats
		if err := rows.Scan(&s.Shortcut, &s.Glyph, &s.Uses); err != nil {
			return nil, fmt.Errorf("failed to scan shortcut stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOverallStats retrieves overall statistics for the last N days
func (db *DB) GetOverallStats(days int) (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*) as total_injections,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count,
			COUNT(DISTINCT shortcut) as distinct_shortcuts,
			COALESCE(SUM(CASE WHEN success = 1 THEN erase_count ELSE 0 END), 0) as characters_erased,
			COALESCE(AVG(latency_ms), 0) as avg_latency_ms
		FROM injections
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
	`

	var stats OverallStats
	err := db.conn.QueryRow(query, days).Scan(
		&stats.TotalInjections,
		&stats.SuccessCount,
		&stats.FailureCount,
		&stats.DistinctShortcuts,
		&stats.CharactersErased,
		&stats.AvgLatencyMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &stats, nil
}
