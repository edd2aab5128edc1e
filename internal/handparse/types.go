// Package handparse converts raw PokerStars-style hand history text into
// structured hand records. Parsing is deterministic and side-effect free:
// malformed input degrades to diagnostics, never to an error return or panic.
package handparse

import "time"

// Stage names a betting round of a hand.
type Stage string

const (
	StagePreflop  Stage = "preflop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
)

// StageOrder is the canonical ordering of stages within a hand.
var StageOrder = []Stage{StagePreflop, StageFlop, StageTurn, StageRiver, StageShowdown}

// SeatStatus describes how a player entered the hand.
type SeatStatus string

const (
	StatusActive     SeatStatus = "active"
	StatusSittingOut SeatStatus = "sitting-out"
	StatusJoined     SeatStatus = "joined-mid-stream"
)

// ActionKind classifies a single line of player activity within a stage.
type ActionKind string

const (
	KindPostSmallBlind ActionKind = "post-small-blind"
	KindPostBigBlind   ActionKind = "post-big-blind"
	KindFold           ActionKind = "fold"
	KindCheck          ActionKind = "check"
	KindCall           ActionKind = "call"
	KindBet            ActionKind = "bet"
	KindRaise          ActionKind = "raise"
	KindAllIn          ActionKind = "all-in"
	KindShow           ActionKind = "show"
	KindMuck           ActionKind = "muck"
	KindCollect        ActionKind = "collect"
)

// Seat is one occupied seat at the table when the hand was dealt.
type Seat struct {
	Number        int        `json:"seat_number"`
	PlayerID      string     `json:"player_id"`
	StartingStack float64    `json:"starting_stack"`
	Status        SeatStatus `json:"status"`
}

// ActionEvent is a tokenized action line. Amount is present for monetary
// actions; RaiseTo carries the total bet size after a raise.
type ActionEvent struct {
	PlayerID string     `json:"player_id"`
	Stage    Stage      `json:"stage"`
	Kind     ActionKind `json:"kind"`
	Amount   *float64   `json:"amount,omitempty"`
	RaiseTo  *float64   `json:"raise_to,omitempty"`
	Sequence int        `json:"sequence_index"`
}

// StageWindow holds the ordered actions of one stage plus the community
// cards newly revealed at its start (all three for the flop, the single
// new card for turn and river, empty for preflop).
type StageWindow struct {
	Actions []ActionEvent `json:"actions"`
	Cards   []string      `json:"cards,omitempty"`
}

// SeatResult is one per-seat outcome line from the summary section.
type SeatResult struct {
	SeatNumber int    `json:"seat_number"`
	PlayerID   string `json:"player_id"`
	Position   string `json:"position,omitempty"`
	Result     string `json:"result"`
}

// Summary is the parsed *** SUMMARY *** section.
type Summary struct {
	PotTotal    float64      `json:"pot_total"`
	Rake        float64      `json:"rake"`
	Board       []string     `json:"board,omitempty"`
	SeatResults []SeatResult `json:"seat_results,omitempty"`
}

// HandRecord is one fully parsed hand.
//
// Winner is the sole collector of the pot, or empty when no single player
// collected (split pot, truncated log). BBWon is the winner's collected
// amount in big blinds; nil whenever Winner is empty. Consumers must treat
// nil as unknown, not as zero.
type HandRecord struct {
	HandID     string                 `json:"hand_id"`
	GameType   string                 `json:"game_type"`
	PlayedAt   time.Time              `json:"played_at"`
	Timezone   string                 `json:"timezone,omitempty"`
	TableName  string                 `json:"table_name"`
	TableType  string                 `json:"table_type,omitempty"`
	ButtonSeat int                    `json:"button_seat"`
	SmallBlind float64                `json:"small_blind"`
	BigBlind   float64                `json:"big_blind"`
	Currency   string                 `json:"currency,omitempty"`
	Seats      []Seat                 `json:"seats"`
	Stages     map[Stage]*StageWindow `json:"stages"`
	Summary    Summary                `json:"summary"`
	Winner     string                 `json:"winner,omitempty"`
	BBWon      *float64               `json:"bb_won,omitempty"`

	// Contrib maps player id to the total amount the player committed to
	// the pot over the whole hand, in big blinds, net of uncalled bets
	// returned. Used downstream to price losing hands.
	Contrib map[string]float64 `json:"contrib,omitempty"`
}

// PlayerIDs returns the player ids in seat order.
func (h *HandRecord) PlayerIDs() []string {
	ids := make([]string, 0, len(h.Seats))
	for _, s := range h.Seats {
		ids = append(ids, s.PlayerID)
	}
	return ids
}

// HasPlayer reports whether the player sat in this hand.
func (h *HandRecord) HasPlayer(id string) bool {
	for _, s := range h.Seats {
		if s.PlayerID == id {
			return true
		}
	}
	return false
}

// Severity of a parse diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic records a parse anomaly. Errors mean the hand was dropped;
// warnings mean the hand was kept with best-effort values.
type Diagnostic struct {
	HandRef  string   `json:"hand_ref"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}
