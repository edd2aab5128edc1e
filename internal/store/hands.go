package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/railbird/internal/handparse"
	"github.com/lox/railbird/internal/sessions"
)

// InsertHand persists a parsed record. Duplicate hand ids are skipped, not
// overwritten: the first parse of a hand wins, which keeps re-ingesting the
// same files idempotent. Returns true when the row was actually inserted.
func (s *Store) InsertHand(rec *handparse.HandRecord) (bool, error) {
	seats, err := json.Marshal(rec.Seats)
	if err != nil {
		return false, fmt.Errorf("marshal seats: %w", err)
	}
	stages, err := json.Marshal(rec.Stages)
	if err != nil {
		return false, fmt.Errorf("marshal stages: %w", err)
	}
	playerIDs, err := json.Marshal(rec.PlayerIDs())
	if err != nil {
		return false, fmt.Errorf("marshal player ids: %w", err)
	}
	contrib, err := json.Marshal(rec.Contrib)
	if err != nil {
		return false, fmt.Errorf("marshal contributions: %w", err)
	}
	board, err := json.Marshal(rec.Summary.Board)
	if err != nil {
		return false, fmt.Errorf("marshal board: %w", err)
	}

	var bbWon sql.NullFloat64
	if rec.BBWon != nil {
		bbWon = sql.NullFloat64{Float64: *rec.BBWon, Valid: true}
	}

	res, err := s.db.Exec(`
		INSERT INTO hands (
			hand_id, played_at, timezone, table_name, table_type, game_type,
			button_seat, small_blind, big_blind, currency, winner, bb_won,
			pot_total, rake, board, seats, stages, player_ids, contrib, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hand_id) DO NOTHING`,
		rec.HandID, formatTime(rec.PlayedAt), rec.Timezone, rec.TableName,
		rec.TableType, rec.GameType, rec.ButtonSeat, rec.SmallBlind,
		rec.BigBlind, rec.Currency, rec.Winner, bbWon,
		rec.Summary.PotTotal, rec.Summary.Rake, string(board), string(seats),
		string(stages), string(playerIDs), string(contrib),
		time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return false, fmt.Errorf("insert hand %s: %w", rec.HandID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListHandRefs returns the minimal reconstruction projection of every
// stored hand, ordered by played_at then hand_id — the input contract of
// sessions.Reconstruct.
func (s *Store) ListHandRefs() ([]sessions.HandRef, error) {
	rows, err := s.db.Query(`
		SELECT hand_id, played_at, table_name, player_ids, winner, bb_won, contrib
		FROM hands
		WHERE played_at != ''
		ORDER BY played_at, hand_id`)
	if err != nil {
		return nil, fmt.Errorf("list hands: %w", err)
	}
	defer rows.Close()

	var refs []sessions.HandRef
	for rows.Next() {
		var (
			ref       sessions.HandRef
			playedAt  string
			playerIDs string
			contrib   string
			bbWon     sql.NullFloat64
		)
		if err := rows.Scan(&ref.HandID, &playedAt, &ref.TableName, &playerIDs, &ref.Winner, &bbWon, &contrib); err != nil {
			return nil, fmt.Errorf("scan hand: %w", err)
		}
		ref.PlayedAt = parseTime(playedAt)
		if bbWon.Valid {
			v := bbWon.Float64
			ref.BBWon = &v
		}
		if err := json.Unmarshal([]byte(playerIDs), &ref.PlayerIDs); err != nil {
			return nil, fmt.Errorf("hand %s: decode player ids: %w", ref.HandID, err)
		}
		if err := json.Unmarshal([]byte(contrib), &ref.Contrib); err != nil {
			return nil, fmt.Errorf("hand %s: decode contributions: %w", ref.HandID, err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// HandCount reports the number of stored hands.
func (s *Store) HandCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM hands`).Scan(&n)
	return n, err
}

// ExportRow is one hand of an exported dataset: the structured hand plus
// the outcome fields dataset consumers filter on.
type ExportRow struct {
	HandID   string          `json:"hand_id"`
	GameType string          `json:"game_type"`
	BigBlind float64         `json:"big_blind"`
	Winner   string          `json:"winner,omitempty"`
	BBWon    *float64        `json:"bb_won,omitempty"`
	Seats    json.RawMessage `json:"seats"`
	Stages   json.RawMessage `json:"stages"`
	Board    json.RawMessage `json:"board"`
}

// EligibleHands streams the hands won by players whose recomputed win rate
// and sample size clear the given thresholds. Hands are emitted in
// played_at order for reproducible exports.
func (s *Store) EligibleHands(minHands int, minMBBPerHour float64, fn func(ExportRow) error) error {
	rows, err := s.db.Query(`
		SELECT h.hand_id, h.game_type, h.big_blind, h.winner, h.bb_won,
		       h.seats, h.stages, h.board
		FROM hands h
		JOIN players p ON p.player_id = h.winner
		WHERE p.total_hands >= ?
		  AND p.mbb_per_hour IS NOT NULL
		  AND p.mbb_per_hour >= ?
		ORDER BY h.played_at, h.hand_id`,
		minHands, minMBBPerHour)
	if err != nil {
		return fmt.Errorf("query eligible hands: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row                  ExportRow
			bbWon                sql.NullFloat64
			seats, stages, board string
		)
		if err := rows.Scan(&row.HandID, &row.GameType, &row.BigBlind, &row.Winner,
			&bbWon, &seats, &stages, &board); err != nil {
			return fmt.Errorf("scan export row: %w", err)
		}
		if bbWon.Valid {
			v := bbWon.Float64
			row.BBWon = &v
		}
		row.Seats = json.RawMessage(seats)
		row.Stages = json.RawMessage(stages)
		row.Board = json.RawMessage(board)
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}
