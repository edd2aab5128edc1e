// Package sessions reconstructs per-player table sessions, merged activity
// timelines, and win-rate statistics from a time-ordered stream of hand
// records. Reconstruction is a pure function: the same input always yields
// identical output, and results fully replace any prior computation.
package sessions

import "time"

// HandRef is the minimal projection of a stored hand record that
// reconstruction needs.
type HandRef struct {
	HandID    string
	PlayedAt  time.Time
	TableName string
	PlayerIDs []string
	Winner    string
	BBWon     *float64

	// Contrib maps player id to committed big blinds for the hand, used to
	// price hands the player did not win. May be empty for legacy rows.
	Contrib map[string]float64
}

// TableSession is one contiguous span of a player's presence at a single
// table, bounded by join/leave transitions in the hand stream.
type TableSession struct {
	PlayerID  string    `json:"player_id"`
	TableName string    `json:"table"`
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"end"`
	HandCount int       `json:"hands"`
	BBDelta   float64   `json:"bb"`
}

// Duration of the session. Single-hand sessions have zero duration.
func (s TableSession) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Interval is one merged span of a player's activity timeline.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PlayerStats are the aggregate win-rate statistics for one player,
// recomputable entirely from the hands that contain the player.
//
// HandsPerHour and MBBPerHour are nil when the player's merged timeline has
// zero total duration; nil means undefined, never zero.
type PlayerStats struct {
	PlayerID      string    `json:"player_id"`
	TotalHands    int       `json:"total_hands"`
	TotalBB       float64   `json:"total_bb"`
	MBBPerHand    float64   `json:"mbb_per_hand"`
	MBBPerHour    *float64  `json:"mbb_per_hour"`
	HandsPerHour  *float64  `json:"hands_per_hour"`
	ActiveHours   float64   `json:"active_hours"`
	Tables        int       `json:"tables"`
	TableSessions int       `json:"table_sessions"`
	FirstHandAt   time.Time `json:"first_hand_at"`
	LastHandAt    time.Time `json:"last_hand_at"`
}

// Report bundles one player's reconstruction output.
type Report struct {
	Sessions []TableSession
	Timeline []Interval
	Stats    PlayerStats
}
