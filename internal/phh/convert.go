package phh

import (
	"fmt"
	"math"
	"strings"

	"github.com/lox/railbird/internal/handparse"
)

// FromRecord converts a parsed hand record into its PHH representation.
// Players are numbered p1..pN in seat order.
func FromRecord(rec *handparse.HandRecord) *HandHistory {
	h := &HandHistory{
		Variant:        "NT", // no-limit Texas hold'em
		Table:          rec.TableName,
		HandID:         rec.HandID,
		Currency:       rec.Currency,
		TimeZoneAbbrev: rec.Timezone,
	}
	if !rec.PlayedAt.IsZero() {
		h.Time = rec.PlayedAt.Format("15:04:05")
		h.Year = rec.PlayedAt.Year()
		h.Month = int(rec.PlayedAt.Month())
		h.Day = rec.PlayedAt.Day()
	}

	playerNum := make(map[string]int, len(rec.Seats))
	for i, seat := range rec.Seats {
		playerNum[seat.PlayerID] = i + 1
		h.Players = append(h.Players, seat.PlayerID)
		h.Seats = append(h.Seats, seat.Number)
		h.StartingStacks = append(h.StartingStacks, cents(seat.StartingStack))
	}
	h.SeatCount = len(rec.Seats)
	h.MinBet = cents(rec.BigBlind)
	h.Antes = make([]int, len(rec.Seats))
	h.BlindsOrStraddles = make([]int, len(rec.Seats))
	h.Winnings = make([]int, len(rec.Seats))

	for _, stage := range handparse.StageOrder {
		win, ok := rec.Stages[stage]
		if !ok {
			continue
		}
		if len(win.Cards) > 0 && stage != handparse.StagePreflop {
			h.Actions = append(h.Actions,
				"d db "+strings.Join(NormalizeCards(win.Cards), ""))
		}
		for _, ev := range win.Actions {
			num, seated := playerNum[ev.PlayerID]
			if !seated {
				continue
			}
			switch ev.Kind {
			case handparse.KindPostSmallBlind, handparse.KindPostBigBlind:
				if ev.Amount != nil {
					h.BlindsOrStraddles[num-1] += cents(*ev.Amount)
				}
			case handparse.KindCollect:
				if ev.Amount != nil {
					h.Winnings[num-1] += cents(*ev.Amount)
				}
			default:
				if act, ok := formatAction(num, ev); ok {
					h.Actions = append(h.Actions, act)
				}
			}
		}
	}
	return h
}

// formatAction maps one betting event to a PHH action string. Shows and
// mucks are omitted since hole cards are not retained.
func formatAction(num int, ev handparse.ActionEvent) (string, bool) {
	player := fmt.Sprintf("p%d", num)
	switch ev.Kind {
	case handparse.KindFold:
		return player + " f", true
	case handparse.KindCheck, handparse.KindCall:
		return player + " cc", true
	case handparse.KindBet, handparse.KindRaise, handparse.KindAllIn:
		to := 0
		if ev.RaiseTo != nil {
			to = cents(*ev.RaiseTo)
		} else if ev.Amount != nil {
			to = cents(*ev.Amount)
		}
		if to <= 0 {
			return "", false
		}
		return fmt.Sprintf("%s cbr %d", player, to), true
	default:
		return "", false
	}
}

func cents(amount float64) int {
	return int(math.Round(amount * 100))
}
