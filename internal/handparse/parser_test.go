package handparse

import (
	"reflect"
	"strings"
	"testing"
)

const fullHand = `PokerStars Hand #249012345678:  Hold'em No Limit ($0.50/$1.00 USD) - 2023/01/15 18:30:00 ET [2023/01/15 15:30:00 UTC]
Table 'Aludra III' 6-max Seat #3 is the button
Seat 1: tight_eagle ($100 in chips)
Seat 2: Mr. Big Stack ($250.50 in chips)
Seat 3: dasha77 ($98.20 in chips)
Seat 5: nitfest ($40 in chips) is sitting out
tight_eagle: posts small blind $0.50
Mr. Big Stack: posts big blind $1
*** HOLE CARDS ***
Dealt to dasha77 [Ah Kd]
dasha77: raises $2 to $3
tight_eagle: folds
Mr. Big Stack: calls $2
*** FLOP *** [7h 8d 2c]
Mr. Big Stack: checks
dasha77: bets $4.50
Mr. Big Stack: calls $4.50
*** TURN *** [7h 8d 2c] [Qs]
Mr. Big Stack: checks
dasha77: checks
*** RIVER *** [7h 8d 2c Qs] [Kc]
Mr. Big Stack: bets $8
dasha77: calls $8
*** SHOW DOWN ***
Mr. Big Stack: shows [8c 9c] (a pair of Eights)
dasha77: shows [Ah Kd] (a pair of Kings)
dasha77 collected $30.05 from pot
*** SUMMARY ***
Total pot $31.50 | Rake $1.45
Board [7h 8d 2c Qs Kc]
Seat 1: tight_eagle (small blind) folded before Flop
Seat 2: Mr. Big Stack (big blind) showed [8c 9c] and lost with a pair of Eights
Seat 3: dasha77 (button) showed [Ah Kd] and won ($30.05) with a pair of Kings
`

const preflopOnlyHand = `PokerStars Hand #249012345679:  Hold'em No Limit ($0.50/$1.00 USD) - 2023/01/15 18:32:10 ET
Table 'Aludra III' 6-max Seat #1 is the button
Seat 1: tight_eagle ($99.50 in chips)
Seat 2: Mr. Big Stack ($260 in chips)
Seat 3: dasha77 ($113.25 in chips)
Mr. Big Stack: posts small blind $0.50
dasha77: posts big blind $1
*** HOLE CARDS ***
tight_eagle: folds
Mr. Big Stack: raises $1.50 to $2.50
dasha77: folds
Uncalled bet ($1.50) returned to Mr. Big Stack
Mr. Big Stack collected $2 from pot
*** SUMMARY ***
Total pot $2 | Rake $0
Seat 1: tight_eagle (button) folded before Flop (didn't bet)
Seat 2: Mr. Big Stack (small blind) collected ($2)
Seat 3: dasha77 (big blind) folded before Flop
`

func TestParseFullHand(t *testing.T) {
	records, diags := Parse(fullHand)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d (diags: %v)", len(records), diags)
	}
	for _, d := range diags {
		if d.Severity == SeverityError {
			t.Errorf("unexpected error diagnostic: %s", d.Message)
		}
	}
	rec := records[0]

	if rec.HandID != "249012345678" {
		t.Errorf("hand id = %q", rec.HandID)
	}
	if rec.GameType != "Hold'em No Limit" {
		t.Errorf("game type = %q", rec.GameType)
	}
	if rec.SmallBlind != 0.5 || rec.BigBlind != 1.0 {
		t.Errorf("blinds = %g/%g", rec.SmallBlind, rec.BigBlind)
	}
	if rec.Currency != "USD" {
		t.Errorf("currency = %q", rec.Currency)
	}
	if rec.TableName != "Aludra III" || rec.TableType != "6-max" {
		t.Errorf("table = %q %q", rec.TableName, rec.TableType)
	}
	if rec.ButtonSeat != 3 {
		t.Errorf("button seat = %d", rec.ButtonSeat)
	}
	if got := rec.PlayedAt.Format("2006/01/02 15:04:05"); got != "2023/01/15 18:30:00" {
		t.Errorf("played at = %s", got)
	}
	if rec.Timezone != "ET" {
		t.Errorf("timezone = %q", rec.Timezone)
	}

	if len(rec.Seats) != 4 {
		t.Fatalf("expected 4 seats, got %d", len(rec.Seats))
	}
	if rec.Seats[1].PlayerID != "Mr. Big Stack" || rec.Seats[1].StartingStack != 250.50 {
		t.Errorf("seat 2 = %+v", rec.Seats[1])
	}
	if rec.Seats[3].Status != StatusSittingOut {
		t.Errorf("seat 5 status = %q", rec.Seats[3].Status)
	}

	for _, stage := range StageOrder {
		if _, ok := rec.Stages[stage]; !ok {
			t.Errorf("missing stage %s", stage)
		}
	}
	if got := rec.Stages[StageFlop].Cards; !reflect.DeepEqual(got, []string{"7h", "8d", "2c"}) {
		t.Errorf("flop cards = %v", got)
	}
	if got := rec.Stages[StageTurn].Cards; !reflect.DeepEqual(got, []string{"Qs"}) {
		t.Errorf("turn cards = %v", got)
	}
	if got := rec.Stages[StageRiver].Cards; !reflect.DeepEqual(got, []string{"Kc"}) {
		t.Errorf("river cards = %v", got)
	}

	preflop := rec.Stages[StagePreflop]
	kinds := make([]ActionKind, len(preflop.Actions))
	for i, a := range preflop.Actions {
		kinds[i] = a.Kind
		if a.Sequence != i {
			t.Errorf("preflop action %d has sequence %d", i, a.Sequence)
		}
	}
	want := []ActionKind{KindPostSmallBlind, KindPostBigBlind, KindRaise, KindFold, KindCall}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("preflop kinds = %v, want %v", kinds, want)
	}
	raise := preflop.Actions[2]
	if raise.Amount == nil || *raise.Amount != 2 || raise.RaiseTo == nil || *raise.RaiseTo != 3 {
		t.Errorf("raise = %+v", raise)
	}

	if rec.Winner != "dasha77" {
		t.Errorf("winner = %q", rec.Winner)
	}
	if rec.BBWon == nil || *rec.BBWon != 30.05 {
		t.Errorf("bb won = %v", rec.BBWon)
	}

	if rec.Summary.PotTotal != 31.50 || rec.Summary.Rake != 1.45 {
		t.Errorf("summary pot/rake = %g/%g", rec.Summary.PotTotal, rec.Summary.Rake)
	}
	if len(rec.Summary.Board) != 5 {
		t.Errorf("summary board = %v", rec.Summary.Board)
	}
	if len(rec.Summary.SeatResults) != 3 {
		t.Fatalf("seat results = %+v", rec.Summary.SeatResults)
	}
	if sr := rec.Summary.SeatResults[1]; sr.PlayerID != "Mr. Big Stack" || sr.Position != "big blind" {
		t.Errorf("seat result = %+v", sr)
	}

	// Contributions: dasha77 and Mr. Big Stack each put in 3 + 4.50 + 8.
	if got := rec.Contrib["dasha77"]; got != 15.5 {
		t.Errorf("dasha77 contrib = %g", got)
	}
	if got := rec.Contrib["Mr. Big Stack"]; got != 15.5 {
		t.Errorf("Mr. Big Stack contrib = %g", got)
	}
	if got := rec.Contrib["tight_eagle"]; got != 0.5 {
		t.Errorf("tight_eagle contrib = %g", got)
	}
}

func TestParseEveryActionPlayerIsSeated(t *testing.T) {
	records, _ := Parse(fullHand + "\n" + preflopOnlyHand)
	for _, rec := range records {
		for _, window := range rec.Stages {
			for _, a := range window.Actions {
				if !rec.HasPlayer(a.PlayerID) {
					t.Errorf("hand %s: action by %q who has no seat", rec.HandID, a.PlayerID)
				}
			}
		}
	}
}

func TestParsePreflopOnlyHand(t *testing.T) {
	records, diags := Parse(preflopOnlyHand)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d (diags: %v)", len(records), diags)
	}
	rec := records[0]

	if len(rec.Stages) != 1 {
		t.Fatalf("stages = %v, want preflop only", stageKeys(rec))
	}
	if _, ok := rec.Stages[StagePreflop]; !ok {
		t.Fatal("missing preflop stage")
	}
	if rec.Winner != "Mr. Big Stack" {
		t.Errorf("winner = %q", rec.Winner)
	}
	if rec.BBWon == nil || *rec.BBWon != 2 {
		t.Errorf("bb won = %v", rec.BBWon)
	}

	// Raise to 2.50 minus the 1.50 uncalled return leaves 1bb committed.
	if got := rec.Contrib["Mr. Big Stack"]; got != 1 {
		t.Errorf("Mr. Big Stack contrib = %g", got)
	}
	if got := rec.Contrib["dasha77"]; got != 1 {
		t.Errorf("dasha77 contrib = %g", got)
	}
}

func TestParseIdempotent(t *testing.T) {
	input := fullHand + "\n" + preflopOnlyHand
	recs1, diags1 := Parse(input)
	recs2, diags2 := Parse(input)
	if !reflect.DeepEqual(recs1, recs2) {
		t.Error("records differ between identical parses")
	}
	if !reflect.DeepEqual(diags1, diags2) {
		t.Error("diagnostics differ between identical parses")
	}
}

func TestParseSplitPot(t *testing.T) {
	hand := strings.Replace(fullHand,
		"dasha77 collected $30.05 from pot",
		"dasha77 collected $15.02 from pot\nMr. Big Stack collected $15.03 from pot", 1)

	records, diags := Parse(hand)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Winner != "" {
		t.Errorf("winner = %q, want empty for split pot", rec.Winner)
	}
	if rec.BBWon != nil {
		t.Errorf("bb won = %v, want nil for split pot", *rec.BBWon)
	}
	if !hasWarning(diags, "split pot") {
		t.Errorf("expected split pot diagnostic, got %v", diags)
	}
}

func TestParseMissingHandIDSkipsHandOnly(t *testing.T) {
	garbage := "some corrupted fragment\nwith no header at all\n"
	records, diags := Parse(garbage + fullHand)

	if len(records) != 1 {
		t.Fatalf("expected the valid hand to survive, got %d records", len(records))
	}
	foundError := false
	for _, d := range diags {
		if d.Severity == SeverityError && strings.Contains(d.Message, "hand id") {
			foundError = true
		}
	}
	if !foundError {
		t.Errorf("expected missing hand id error, got %v", diags)
	}
}

func TestParseMissingBlindsIsFatalForHand(t *testing.T) {
	hand := "PokerStars Hand #111: some malformed header\nTable 'X' 6-max Seat #1 is the button\n"
	records, diags := Parse(hand)
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if len(diags) != 1 || diags[0].Severity != SeverityError {
		t.Fatalf("diags = %v", diags)
	}
	if diags[0].HandRef != "111" {
		t.Errorf("diag ref = %q", diags[0].HandRef)
	}
}

func TestParseUnrecognizedActionWarns(t *testing.T) {
	hand := strings.Replace(fullHand,
		"Mr. Big Stack: checks\ndasha77: bets $4.50",
		"Mr. Big Stack: checks\ndasha77: does something novel\ndasha77: bets $4.50", 1)

	records, diags := Parse(hand)
	if len(records) != 1 {
		t.Fatalf("expected hand to survive unknown action, got %d records", len(records))
	}
	if !hasWarning(diags, "unrecognized action") {
		t.Errorf("expected unrecognized action warning, got %v", diags)
	}
	// The surrounding actions are unaffected.
	if got := len(records[0].Stages[StageFlop].Actions); got != 3 {
		t.Errorf("flop actions = %d, want 3", got)
	}
}

func TestParseTimestampFallback(t *testing.T) {
	hand := strings.Replace(fullHand,
		"2023/01/15 18:30:00 ET", "2023/99/99 18:30:00 ET", 1)

	records, diags := Parse(hand)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].PlayedAt.Format("15:04:05"); got != "15:30:00" {
		t.Errorf("expected fallback to secondary timestamp, got %s", got)
	}
	if !hasWarning(diags, "secondary") {
		t.Errorf("expected fallback diagnostic, got %v", diags)
	}
}

func TestParseBlindPositionMismatchWarns(t *testing.T) {
	hand := strings.Replace(fullHand,
		"tight_eagle: posts small blind $0.50", "dasha77: posts small blind $0.50", 1)

	records, diags := Parse(hand)
	if len(records) != 1 {
		t.Fatalf("hand should survive blind mismatch, got %d records", len(records))
	}
	if !hasWarning(diags, "small blind posted from seat") {
		t.Errorf("expected blind order warning, got %v", diags)
	}
}

func TestParseBlankInputYieldsNothing(t *testing.T) {
	records, diags := Parse("\n\n   \n")
	if len(records) != 0 || len(diags) != 0 {
		t.Errorf("blank input: records=%d diags=%v", len(records), diags)
	}
}

func hasWarning(diags []Diagnostic, substr string) bool {
	for _, d := range diags {
		if d.Severity == SeverityWarning && strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func stageKeys(rec HandRecord) []Stage {
	var keys []Stage
	for _, s := range StageOrder {
		if _, ok := rec.Stages[s]; ok {
			keys = append(keys, s)
		}
	}
	return keys
}
