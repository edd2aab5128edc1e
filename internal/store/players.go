package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lox/railbird/internal/sessions"
)

// recentSessionLimit caps how many table sessions are kept per player row.
// Statistics cover everything; the stored session list is a recent sample
// for inspection, newest first.
const recentSessionLimit = 20

// ReplacePlayerStats upserts one player's recomputed statistics, replacing
// any prior row wholesale. Reconstruction is always full, so partial
// updates never happen.
func (s *Store) ReplacePlayerStats(report *sessions.Report) error {
	stats := report.Stats

	recent := make([]sessions.TableSession, len(report.Sessions))
	copy(recent, report.Sessions)
	// Full ordering, not just EndTime: single-hand sessions at different
	// tables can end at the same instant, and table_data must serialize
	// identically across recomputations.
	sort.Slice(recent, func(i, j int) bool {
		a, b := recent[i], recent[j]
		if !a.EndTime.Equal(b.EndTime) {
			return a.EndTime.After(b.EndTime)
		}
		if a.TableName != b.TableName {
			return a.TableName < b.TableName
		}
		return a.StartTime.Before(b.StartTime)
	})
	if len(recent) > recentSessionLimit {
		recent = recent[:recentSessionLimit]
	}
	tableData, err := json.Marshal(recent)
	if err != nil {
		return fmt.Errorf("marshal table data: %w", err)
	}

	var mbbPerHour, handsPerHour sql.NullFloat64
	if stats.MBBPerHour != nil {
		mbbPerHour = sql.NullFloat64{Float64: *stats.MBBPerHour, Valid: true}
	}
	if stats.HandsPerHour != nil {
		handsPerHour = sql.NullFloat64{Float64: *stats.HandsPerHour, Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO players (
			player_id, total_hands, total_bb, mbb_per_hand, mbb_per_hour,
			hands_per_hour, active_hours, tables, table_sessions, table_data,
			first_hand_at, last_hand_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			total_hands = excluded.total_hands,
			total_bb = excluded.total_bb,
			mbb_per_hand = excluded.mbb_per_hand,
			mbb_per_hour = excluded.mbb_per_hour,
			hands_per_hour = excluded.hands_per_hour,
			active_hours = excluded.active_hours,
			tables = excluded.tables,
			table_sessions = excluded.table_sessions,
			table_data = excluded.table_data,
			first_hand_at = excluded.first_hand_at,
			last_hand_at = excluded.last_hand_at,
			updated_at = excluded.updated_at`,
		stats.PlayerID, stats.TotalHands, stats.TotalBB, stats.MBBPerHand,
		mbbPerHour, handsPerHour, stats.ActiveHours, stats.Tables,
		stats.TableSessions, string(tableData),
		formatTime(stats.FirstHandAt), formatTime(stats.LastHandAt),
		time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", stats.PlayerID, err)
	}
	return nil
}

// TopPlayers returns up to limit players ranked by mbb/hour descending,
// considering only players with at least minHands and a defined win rate.
func (s *Store) TopPlayers(limit, minHands int) ([]sessions.PlayerStats, error) {
	rows, err := s.db.Query(`
		SELECT player_id, total_hands, total_bb, mbb_per_hand, mbb_per_hour,
		       hands_per_hour, active_hours, tables, table_sessions,
		       first_hand_at, last_hand_at
		FROM players
		WHERE total_hands >= ? AND mbb_per_hour IS NOT NULL
		ORDER BY mbb_per_hour DESC, player_id
		LIMIT ?`, minHands, limit)
	if err != nil {
		return nil, fmt.Errorf("query top players: %w", err)
	}
	defer rows.Close()

	var out []sessions.PlayerStats
	for rows.Next() {
		stats, err := scanPlayerStats(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, rows.Err()
}

// PlayerStats looks up one player's stored statistics.
func (s *Store) PlayerStats(playerID string) (sessions.PlayerStats, error) {
	rows, err := s.db.Query(`
		SELECT player_id, total_hands, total_bb, mbb_per_hand, mbb_per_hour,
		       hands_per_hour, active_hours, tables, table_sessions,
		       first_hand_at, last_hand_at
		FROM players WHERE player_id = ?`, playerID)
	if err != nil {
		return sessions.PlayerStats{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		return sessions.PlayerStats{}, fmt.Errorf("player %q not found", playerID)
	}
	return scanPlayerStats(rows)
}

func scanPlayerStats(rows *sql.Rows) (sessions.PlayerStats, error) {
	var (
		stats                    sessions.PlayerStats
		mbbPerHour, handsPerHour sql.NullFloat64
		first, last              string
	)
	err := rows.Scan(&stats.PlayerID, &stats.TotalHands, &stats.TotalBB,
		&stats.MBBPerHand, &mbbPerHour, &handsPerHour, &stats.ActiveHours,
		&stats.Tables, &stats.TableSessions, &first, &last)
	if err != nil {
		return stats, fmt.Errorf("scan player: %w", err)
	}
	if mbbPerHour.Valid {
		v := mbbPerHour.Float64
		stats.MBBPerHour = &v
	}
	if handsPerHour.Valid {
		v := handsPerHour.Float64
		stats.HandsPerHour = &v
	}
	stats.FirstHandAt = parseTime(first)
	stats.LastHandAt = parseTime(last)
	return stats, nil
}
